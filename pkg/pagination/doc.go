// Package pagination feeds a cell-oriented grid from a page-oriented,
// asynchronous data source.
//
// A RowSource keeps a sparse cache of rows keyed by absolute row index. The host
// widget reports its visible region; after a short quiet period the source
// queues every page that covers the region (plus half a page of margin on each
// side) and fetches them with bounded concurrency. When a page arrives its rows
// are merged into the cache and the host receives a damage notification for the
// visible cells of those rows so it can redraw them.
//
// Example usage:
//
//	cfg := pagination.DefaultConfig()
//	cfg.PageSize = 50
//	src, err := pagination.New(cfg, pagination.Hooks[[]string]{
//		Fetch:  fetchRows,
//		Render: func(row []string, col, _ int) grid.Cell { return grid.TextCell(row[col]) },
//		Damage: redraw,
//	})
//	if err != nil {
//		return err
//	}
//	defer src.Close()
//
//	src.OnVisibleRegionChanged(grid.Rectangle{X: 0, Y: 0, Width: 8, Height: 40})
//	cell := src.GetCellContent(grid.Item{Col: 2, Row: 10}) // loading until page 0 arrives
//
// The source:
//   - Never fetches a page twice once it is loaded
//   - Shares one fetch between concurrent loads of the same page
//   - Runs at most MaxConcurrency fetch hooks at once
//   - Treats an empty fetch result or a fetch error as a soft failure (the page can be retried later)
//   - Ties all fetch work to its lifetime: Close cancels and waits for it
package pagination
