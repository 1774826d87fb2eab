// Package gridview is a terminal grid host for a paged row source.
package gridview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/paged-grid/pkg/grid"
	"github.com/Sternrassler/paged-grid/pkg/pagination"
)

const (
	colWidth    = 14
	rowNumWidth = 8
	// chromeLines is the header, status and help lines.
	chromeLines = 3

	selectionTimeout = 10 * time.Second
	loadingText      = "…"
)

// Source is the row source surface the grid view drives.
type Source interface {
	GetCellContent(item grid.Item) grid.Cell
	OnVisibleRegionChanged(region grid.Rectangle) *pagination.Task
	OnCellEdited(item grid.Item, value grid.Cell) bool
	GetCellsForSelection(ctx context.Context, rect grid.Rectangle) ([][]grid.Cell, error)
	Stats() pagination.Stats
}

// DamageMsg tells the view that cells changed and must be redrawn.
type DamageMsg struct {
	Cells []grid.Item
}

// selectionMsg reports the result of a copy.
type selectionMsg struct {
	cells int
	err   error
}

// Model is the bubbletea model of the grid view.
type Model struct {
	src     Source
	columns int
	rows    int

	width  int
	height int

	top    int
	left   int
	cursor grid.Item

	damaged int
	status  string
	err     error

	help help.Model
}

// New creates a grid view over src with the given column count. rows is the
// total row count, or 0 when unknown.
func New(src Source, columns, rows int) Model {
	return Model{
		src:     src,
		columns: columns,
		rows:    rows,
		width:   80,
		height:  24,
		help:    help.New(),
	}
}

// Init publishes the initial visible region.
func (m Model) Init() tea.Cmd {
	m.syncViewport()
	return nil
}

// Update handles input, resize, damage and selection messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.scrollToCursor()
		m.syncViewport()
		return m, nil
	case DamageMsg:
		m.damaged += len(msg.Cells)
		return m, nil
	case selectionMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = fmt.Sprintf("copied %d cells", msg.cells)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.moveCursor(0, -1)
	case key.Matches(msg, keys.Down):
		m.moveCursor(0, 1)
	case key.Matches(msg, keys.Left):
		m.moveCursor(-1, 0)
	case key.Matches(msg, keys.Right):
		m.moveCursor(1, 0)
	case key.Matches(msg, keys.PageUp):
		m.moveCursor(0, -m.screenRows())
	case key.Matches(msg, keys.PageDown):
		m.moveCursor(0, m.screenRows())
	case key.Matches(msg, keys.Home):
		m.moveCursor(0, -m.cursor.Row)
	case key.Matches(msg, keys.Upper):
		m.upperCaseCursor()
		return m, nil
	case key.Matches(msg, keys.Copy):
		m.status = "copying…"
		return m, m.copyRegion(m.Region())
	default:
		return m, nil
	}
	m.syncViewport()
	return m, nil
}

func (m *Model) moveCursor(dCol, dRow int) {
	m.cursor.Col = clamp(m.cursor.Col+dCol, 0, m.columns-1)
	row := max(m.cursor.Row+dRow, 0)
	if m.rows > 0 {
		row = min(row, m.rows-1)
	}
	m.cursor.Row = row
	m.scrollToCursor()
}

func (m *Model) scrollToCursor() {
	rows, cols := m.screenRows(), m.screenColumns()
	if m.cursor.Row < m.top {
		m.top = m.cursor.Row
	}
	if m.cursor.Row >= m.top+rows {
		m.top = m.cursor.Row - rows + 1
	}
	if m.cursor.Col < m.left {
		m.left = m.cursor.Col
	}
	if m.cursor.Col >= m.left+cols {
		m.left = m.cursor.Col - cols + 1
	}
}

// upperCaseCursor edits the cell under the cursor through the row source.
func (m *Model) upperCaseCursor() {
	cell := m.src.GetCellContent(m.cursor)
	switch {
	case cell.IsLoading():
		m.status = "cell not loaded yet"
	case cell.ReadOnly:
		m.status = "cell is read-only"
	case m.src.OnCellEdited(m.cursor, grid.TextCell(strings.ToUpper(cell.Data))):
		m.status = fmt.Sprintf("edited row %d col %d", m.cursor.Row, m.cursor.Col)
	default:
		m.status = "edit rejected"
	}
}

func (m Model) syncViewport() {
	m.src.OnVisibleRegionChanged(m.Region())
}

func (m Model) copyRegion(region grid.Rectangle) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), selectionTimeout)
		defer cancel()

		cells, err := src.GetCellsForSelection(ctx, region)
		if err != nil {
			return selectionMsg{err: err}
		}
		n := 0
		for _, row := range cells {
			n += len(row)
		}
		return selectionMsg{cells: n}
	}
}

// Region returns the cells currently on screen.
func (m Model) Region() grid.Rectangle {
	return grid.Rectangle{
		X:      m.left,
		Y:      m.top,
		Width:  m.visibleColumns(),
		Height: m.visibleRows(),
	}
}

func (m Model) screenRows() int {
	return max(m.height-chromeLines, 1)
}

func (m Model) screenColumns() int {
	return max((m.width-rowNumWidth)/(colWidth+1), 1)
}

func (m Model) visibleRows() int {
	rows := m.screenRows()
	if m.rows > 0 {
		rows = min(rows, max(m.rows-m.top, 0))
	}
	return rows
}

func (m Model) visibleColumns() int {
	return min(m.screenColumns(), max(m.columns-m.left, 0))
}

// View renders the visible region, a header and a status line.
func (m Model) View() string {
	region := m.Region()
	var b strings.Builder

	b.WriteString(strings.Repeat(" ", rowNumWidth))
	for col := region.X; col < region.Right(); col++ {
		b.WriteString(" ")
		b.WriteString(headerStyle.Render(pad(fmt.Sprintf("col %d", col), colWidth)))
	}
	b.WriteString("\n")

	for row := region.Y; row < region.Bottom(); row++ {
		b.WriteString(pad(fmt.Sprintf("%d", row), rowNumWidth))
		for col := region.X; col < region.Right(); col++ {
			item := grid.Item{Col: col, Row: row}
			b.WriteString(" ")
			b.WriteString(m.renderCell(item, m.src.GetCellContent(item)))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) renderCell(item grid.Item, cell grid.Cell) string {
	text := pad(cell.DisplayData, colWidth)
	switch {
	case item == m.cursor:
		if cell.IsLoading() {
			text = pad(loadingText, colWidth)
		}
		return cursorStyle.Render(text)
	case cell.IsLoading():
		return loadingStyle.Render(pad(loadingText, colWidth))
	default:
		return text
	}
}

func (m Model) statusLine() string {
	stats := m.src.Stats()
	line := fmt.Sprintf("row %d col %d | pages %d loaded, %d in flight, %d pending | %d cells redrawn",
		m.cursor.Row, m.cursor.Col, stats.LoadedPages, stats.InFlight, stats.Pending, m.damaged)
	if m.status != "" {
		line += " | " + m.status
	}
	if m.err != nil {
		return statusStyle.Render(line) + " " + errorStyle.Render(m.err.Error())
	}
	return statusStyle.Render(line)
}

// pad truncates or right-pads s to exactly width runes.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
