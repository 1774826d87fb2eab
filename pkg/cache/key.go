package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix is the namespace of every page store key.
const KeyPrefix = "grid"

// PageKey identifies one stored page.
type PageKey struct {
	// Dataset names the upstream collection (e.g., "orders")
	Dataset string

	// Page is the page index
	Page int

	// PageSize is the number of rows per page; pages of different sizes never share a key
	PageSize int

	// Params are upstream query parameters that change page contents (filters, sort order)
	Params url.Values
}

// String generates a deterministic key string.
// Format: grid:dataset:page=N:size=M:param1=val1
//
// Example:
//
//	grid:orders:page=3:size=50:sort=price
func (k PageKey) String() string {
	parts := []string{DatasetPrefix(k.Dataset)}
	parts = append(parts, fmt.Sprintf("page=%d", k.Page), fmt.Sprintf("size=%d", k.PageSize))

	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(k.Params[name], ",")))
		}
	}

	return strings.Join(parts, ":")
}

// DatasetPrefix returns the key prefix shared by all pages of a dataset.
func DatasetPrefix(dataset string) string {
	dataset = strings.Trim(dataset, ":/ ")
	if dataset == "" {
		dataset = "default"
	}
	return KeyPrefix + ":" + dataset
}
