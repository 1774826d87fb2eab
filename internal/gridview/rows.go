package gridview

import (
	"slices"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/paged-grid/pkg/grid"
)

// RenderRow renders column col of a row of strings. Columns past the end of
// the row render empty.
func RenderRow(row []string, col, _ int) grid.Cell {
	if col < 0 || col >= len(row) {
		return grid.TextCell("")
	}
	return grid.TextCell(row[col])
}

// EditRow applies a text edit to a copy of row.
func EditRow(item grid.Item, value grid.Cell, row []string) ([]string, bool) {
	if item.Col < 0 || item.Col >= len(row) || value.IsLoading() {
		return row, false
	}
	edited := slices.Clone(row)
	edited[item.Col] = value.Data
	return edited, true
}

// Relay forwards damage notifications into a running program.
// Notifications before Attach are dropped; the first frame renders anyway.
type Relay struct {
	mu sync.Mutex
	p  *tea.Program
}

// Attach sets the program that receives DamageMsg.
func (r *Relay) Attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

// Damage sends cells to the attached program. Send returns once the program
// has exited, so this never blocks a fetch past shutdown.
func (r *Relay) Damage(cells []grid.Item) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(DamageMsg{Cells: cells})
	}
}
