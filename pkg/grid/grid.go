// Package grid defines the cell-oriented vocabulary shared between a grid host
// and the row sources that feed it.
package grid

// Item is a cell coordinate.
type Item struct {
	Col int
	Row int
}

// Rectangle is a region of cells.
// X and Y are the origin column and row; Width and Height are in cells.
type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the rectangle covers no cells.
func (r Rectangle) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the cell lies inside the rectangle.
func (r Rectangle) Contains(it Item) bool {
	return it.Col >= r.X && it.Col < r.X+r.Width &&
		it.Row >= r.Y && it.Row < r.Y+r.Height
}

// Bottom returns the first row below the rectangle.
func (r Rectangle) Bottom() int {
	return r.Y + r.Height
}

// Right returns the first column right of the rectangle.
func (r Rectangle) Right() int {
	return r.X + r.Width
}

// CellKind identifies how a cell is rendered.
type CellKind int

const (
	// CellLoading is the placeholder for rows that are not fetched yet.
	CellLoading CellKind = iota
	// CellText is a plain text cell.
	CellText
	// CellNumber is a numeric cell; Data holds the formatted value.
	CellNumber
)

// String returns the kind name.
func (k CellKind) String() string {
	switch k {
	case CellLoading:
		return "loading"
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	default:
		return "unknown"
	}
}

// Cell is the content of one grid cell.
type Cell struct {
	Kind CellKind

	// Data is the raw value; DisplayData is what the host draws.
	Data        string
	DisplayData string

	// AllowOverlay enables the host's in-place editor.
	AllowOverlay bool
	ReadOnly     bool
}

// LoadingCell returns the placeholder shown while a row is being fetched.
func LoadingCell() Cell {
	return Cell{Kind: CellLoading}
}

// TextCell returns an editable text cell.
func TextCell(s string) Cell {
	return Cell{
		Kind:         CellText,
		Data:         s,
		DisplayData:  s,
		AllowOverlay: true,
	}
}

// IsLoading reports whether the cell is the loading placeholder.
func (c Cell) IsLoading() bool {
	return c.Kind == CellLoading
}
