// Package testutil provides testing utilities for the paged grid.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines a canned response for one page.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockPageServer serves synthetic pages of string rows at /rows.
// Row r, column c holds "r<r>c<c>". Pages past TotalRows answer 204.
type MockPageServer struct {
	server *httptest.Server
	mu     sync.RWMutex

	totalRows int
	columns   int
	overrides map[int][]MockResponse
	delay     time.Duration

	requestCount int
	pageCounts   map[int]int
	lastHeader   http.Header
}

// NewMockPageServer creates a mock page server with totalRows rows of columns cells.
func NewMockPageServer(totalRows, columns int) *MockPageServer {
	mock := &MockPageServer{
		totalRows:  totalRows,
		columns:    columns,
		overrides:  make(map[int][]MockResponse),
		pageCounts: make(map[int]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the rows endpoint URL.
func (m *MockPageServer) URL() string {
	return m.server.URL + "/rows"
}

// Close shuts down the mock server.
func (m *MockPageServer) Close() {
	m.server.Close()
}

// SetResponses queues canned responses for page; each request consumes one,
// and the generated page is served once the queue is empty.
func (m *MockPageServer) SetResponses(page int, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[page] = append(m.overrides[page], responses...)
}

// SetDelay delays every generated page.
func (m *MockPageServer) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// RequestCount returns the number of requests made to the server.
func (m *MockPageServer) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PageCount returns the number of requests for page.
func (m *MockPageServer) PageCount(page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pageCounts[page]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockPageServer) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

func (m *MockPageServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/rows" {
		http.NotFound(w, r)
		return
	}

	page, errPage := strconv.Atoi(r.URL.Query().Get("page"))
	size, errSize := strconv.Atoi(r.URL.Query().Get("size"))

	m.mu.Lock()
	m.requestCount++
	m.lastHeader = r.Header.Clone()
	if errPage == nil {
		m.pageCounts[page]++
	}
	var override *MockResponse
	if queue := m.overrides[page]; errPage == nil && len(queue) > 0 {
		override = &queue[0]
		m.overrides[page] = queue[1:]
	}
	delay := m.delay
	m.mu.Unlock()

	if errPage != nil || errSize != nil || page < 0 || size <= 0 {
		http.Error(w, "invalid page or size", http.StatusBadRequest)
		return
	}

	if override != nil {
		if override.Delay > 0 {
			time.Sleep(override.Delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(override.StatusCode)
		if override.Body != "" {
			w.Write([]byte(override.Body))
		}
		return
	}

	if delay > 0 {
		time.Sleep(delay)
	}

	start := page * size
	if start >= m.totalRows {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	end := min(start+size, m.totalRows)

	rows := make([][]string, 0, end-start)
	for row := start; row < end; row++ {
		rows = append(rows, Row(row, m.columns))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"rows": rows})
}

// Row returns the generated cells of row.
func Row(row, columns int) []string {
	cells := make([]string, columns)
	for c := range cells {
		cells[c] = fmt.Sprintf("r%dc%d", row, c)
	}
	return cells
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{StatusCode: http.StatusInternalServerError, Body: `{"error": "Internal server error"}`}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{StatusCode: http.StatusTooManyRequests, Body: `{"error": "Rate limit exceeded"}`}
}

// NewBadRequestResponse creates a 400 Bad Request response.
func NewBadRequestResponse() MockResponse {
	return MockResponse{StatusCode: http.StatusBadRequest, Body: `{"error": "Bad request"}`}
}

// NewEmptyPageResponse creates a 200 response with no rows.
func NewEmptyPageResponse() MockResponse {
	return MockResponse{StatusCode: http.StatusOK, Body: `{"rows": []}`}
}
