package pagination

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/Sternrassler/paged-grid/pkg/grid"
	"github.com/Sternrassler/paged-grid/pkg/logging"
)

var (
	// ErrClosed is returned by operations on a closed RowSource.
	ErrClosed = errors.New("row source closed")

	// ErrInvalidConfig indicates a rejected Config or missing hook.
	ErrInvalidConfig = errors.New("invalid row source config")
)

// FetchFunc loads one page of rows. A nil or empty result means "no data":
// the page stays unloaded and may be fetched again later.
type FetchFunc[R any] func(ctx context.Context, page, pageSize int) ([]R, error)

// RenderFunc turns a cached row into the content of one of its cells.
type RenderFunc[R any] func(row R, col, rowIndex int) grid.Cell

// EditFunc reconciles an edit with the current row. Returning false rejects the edit.
type EditFunc[R any] func(item grid.Item, value grid.Cell, row R) (R, bool)

// DamageFunc tells the host which cells must be redrawn.
type DamageFunc func(cells []grid.Item)

// Config holds row source configuration
type Config struct {
	// PageSize is the number of rows fetched together
	PageSize int
	// MaxConcurrency is the maximum number of fetch hooks running at once
	MaxConcurrency int
	// Debounce is the quiet period after a viewport change before pages are queued
	Debounce time.Duration
	// FetchTimeout bounds a single fetch hook call (0 disables the timeout)
	FetchTimeout time.Duration
	// TotalRows clamps queued page ranges when the row count is known (0 = unknown)
	TotalRows int
	// Logger overrides the default component logger
	Logger *zerolog.Logger
}

// DefaultConfig returns the default row source configuration
func DefaultConfig() Config {
	return Config{
		PageSize:       100,
		MaxConcurrency: 5,
		Debounce:       150 * time.Millisecond,
		FetchTimeout:   15 * time.Second,
	}
}

// Hooks are the collaborators a RowSource calls out to.
// Fetch and Render are required.
type Hooks[R any] struct {
	Fetch  FetchFunc[R]
	Render RenderFunc[R]
	Edit   EditFunc[R]
	Damage DamageFunc
}

// Stats is a point-in-time snapshot of a RowSource.
type Stats struct {
	LoadedPages int
	InFlight    int
	Pending     int
	CachedRows  int
}

// RowSource serves grid cells from a lazily filled page cache.
// All methods are safe for concurrent use. Hooks are never called while the
// source's lock is held.
type RowSource[R any] struct {
	cfg    Config
	hooks  Hooks[R]
	logger zerolog.Logger

	mu       sync.Mutex
	rows     map[int]R
	loaded   map[int]struct{}
	inFlight map[int]struct{}
	pending  []int
	queued   map[int]struct{}
	viewport grid.Rectangle
	closed   bool

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	slots    *semaphore.Weighted
	flights  singleflight.Group
	debounce *Debouncer
}

// New creates a row source. Zero config values fall back to DefaultConfig.
func New[R any](cfg Config, hooks Hooks[R]) (*RowSource[R], error) {
	if hooks.Fetch == nil {
		return nil, fmt.Errorf("%w: fetch hook is required", ErrInvalidConfig)
	}
	if hooks.Render == nil {
		return nil, fmt.Errorf("%w: render hook is required", ErrInvalidConfig)
	}
	if cfg.PageSize < 0 || cfg.MaxConcurrency < 0 || cfg.Debounce < 0 || cfg.FetchTimeout < 0 || cfg.TotalRows < 0 {
		return nil, fmt.Errorf("%w: negative value in %+v", ErrInvalidConfig, cfg)
	}

	defaults := DefaultConfig()
	if cfg.PageSize == 0 {
		cfg.PageSize = defaults.PageSize
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = defaults.MaxConcurrency
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = defaults.Debounce
	}

	logger := logging.NewLogger("row-source")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &RowSource[R]{
		cfg:      cfg,
		hooks:    hooks,
		logger:   logger,
		rows:     make(map[int]R),
		loaded:   make(map[int]struct{}),
		inFlight: make(map[int]struct{}),
		queued:   make(map[int]struct{}),
		ctx:      ctx,
		cancel:   cancel,
		slots:    semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		debounce: NewDebouncer(cfg.Debounce),
	}, nil
}

// PageSize returns the number of rows per page.
func (s *RowSource[R]) PageSize() int {
	return s.cfg.PageSize
}

// PageOf returns the page index holding the row.
func (s *RowSource[R]) PageOf(row int) int {
	return row / s.cfg.PageSize
}

// GetCellContent returns the rendered cell, or a loading placeholder when the
// row is not cached. It never triggers a fetch.
func (s *RowSource[R]) GetCellContent(item grid.Item) grid.Cell {
	s.mu.Lock()
	row, ok := s.rows[item.Row]
	s.mu.Unlock()

	if !ok {
		return grid.LoadingCell()
	}
	return s.hooks.Render(row, item.Col, item.Row)
}

// OnVisibleRegionChanged records the host's visible region. A region equal to
// the current one is ignored and returns nil. Otherwise the pages covering the
// region are queued once the debounce period passes without another change;
// the returned task can cancel that.
func (s *RowSource[R]) OnVisibleRegionChanged(region grid.Rectangle) *Task {
	s.mu.Lock()
	if s.closed || region == s.viewport {
		s.mu.Unlock()
		return nil
	}
	s.viewport = region
	s.mu.Unlock()

	return s.debounce.Schedule(func() {
		s.enqueueRegion(region)
	})
}

// Viewport returns the last visible region reported by the host.
func (s *RowSource[R]) Viewport() grid.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// LoadPage fetches a page unless it is already loaded, joining a fetch of the
// same page that is already running. It reports whether the page is loaded
// afterwards; a soft failure returns false with a nil error.
func (s *RowSource[R]) LoadPage(ctx context.Context, page int) (bool, error) {
	if page < 0 {
		return false, fmt.Errorf("page %d out of range", page)
	}
	if err := s.await(ctx, page); err != nil {
		return false, err
	}
	return s.IsLoaded(page), nil
}

// IsLoaded reports whether the page was fetched successfully.
func (s *RowSource[R]) IsLoaded(page int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loaded[page]
	return ok
}

// GetCellsForSelection loads every page overlapping rect, at most
// MaxConcurrency at a time, and returns its cells row by row. Rows whose page
// could not be loaded come back as loading placeholders.
func (s *RowSource[R]) GetCellsForSelection(ctx context.Context, rect grid.Rectangle) ([][]grid.Cell, error) {
	if rect.Empty() {
		return [][]grid.Cell{}, nil
	}

	top := rect.Y
	if top < 0 {
		top = 0
	}
	var pages []int
	if rect.Bottom() > top {
		first, last := s.PageOf(top), s.PageOf(rect.Bottom()-1)
		for p := first; p <= last; p++ {
			if !s.IsLoaded(p) {
				pages = append(pages, p)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrency)
	for _, p := range pages {
		g.Go(func() error {
			return s.await(gctx, p)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cells := make([][]grid.Cell, rect.Height)
	for r := range cells {
		cells[r] = make([]grid.Cell, rect.Width)
		for c := range cells[r] {
			cells[r][c] = s.GetCellContent(grid.Item{Col: rect.X + c, Row: rect.Y + r})
		}
	}
	return cells, nil
}

// OnCellEdited runs the edit hook against the cached row and stores the row it
// returns. It reports whether the cached row was replaced.
func (s *RowSource[R]) OnCellEdited(item grid.Item, value grid.Cell) bool {
	if s.hooks.Edit == nil {
		return false
	}

	s.mu.Lock()
	row, ok := s.rows[item.Row]
	s.mu.Unlock()
	if !ok {
		return false
	}

	updated, accepted := s.hooks.Edit(item, value, row)
	if !accepted {
		s.logger.Debug().
			Int("row", item.Row).
			Int("col", item.Col).
			Msg("Edit rejected")
		return false
	}

	s.mu.Lock()
	s.rows[item.Row] = updated
	s.mu.Unlock()
	return true
}

// Stats returns a snapshot of the cache and queue sizes.
func (s *RowSource[R]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		LoadedPages: len(s.loaded),
		InFlight:    len(s.inFlight),
		Pending:     len(s.pending),
		CachedRows:  len(s.rows),
	}
}

// Close stops the debounce task, cancels in-flight fetches and waits for them
// to return. Cached rows stay readable.
func (s *RowSource[R]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	pagesPending.Sub(float64(len(s.pending)))
	cachedRows.Sub(float64(len(s.rows)))
	s.pending = nil
	s.queued = make(map[int]struct{})
	s.mu.Unlock()

	s.debounce.Stop()
	s.cancel()
	s.wg.Wait()

	s.logger.Debug().Msg("Row source closed")
	return nil
}

// pageRange returns the first and last page covering rows [top, bottom) plus
// half a page of margin on each side.
func (s *RowSource[R]) pageRange(top, bottom int) (int, int) {
	size := s.cfg.PageSize
	half := size / 2

	first := top - half
	if first < 0 {
		first = 0
	}
	first /= size
	last := (bottom + half) / size

	if s.cfg.TotalRows > 0 {
		if lastPage := (s.cfg.TotalRows - 1) / size; last > lastPage {
			last = lastPage
		}
	}
	return first, last
}

// enqueueRegion queues the pages covering region in ascending order and drains.
func (s *RowSource[R]) enqueueRegion(region grid.Rectangle) {
	if region.Height <= 0 {
		return
	}
	first, last := s.pageRange(region.Y, region.Bottom())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	queued := 0
	for p := first; p <= last; p++ {
		if s.enqueueLocked(p) {
			queued++
		}
	}
	if queued > 0 {
		s.logger.Debug().
			Int("first_page", first).
			Int("last_page", last).
			Int("queued", queued).
			Msg("Pages queued for viewport")
	}
	s.drainLocked()
}

// enqueueLocked appends page to the pending queue unless it is loaded,
// in flight or already queued.
func (s *RowSource[R]) enqueueLocked(page int) bool {
	if _, ok := s.loaded[page]; ok {
		return false
	}
	if _, ok := s.inFlight[page]; ok {
		return false
	}
	if _, ok := s.queued[page]; ok {
		return false
	}
	s.pending = append(s.pending, page)
	s.queued[page] = struct{}{}
	pagesPending.Inc()
	return true
}

// drainLocked dispatches queued pages while fewer than MaxConcurrency are in flight.
func (s *RowSource[R]) drainLocked() {
	for len(s.pending) > 0 && len(s.inFlight) < s.cfg.MaxConcurrency && !s.closed {
		page := s.pending[0]
		s.pending = s.pending[1:]
		delete(s.queued, page)
		pagesPending.Dec()

		if _, ok := s.loaded[page]; ok {
			continue
		}
		if _, ok := s.inFlight[page]; ok {
			continue
		}
		s.claimLocked(page)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_, _, _ = s.flights.Do(strconv.Itoa(page), s.flight(page))
		}()
	}
}

// claimLocked moves page out of the pending queue into the in-flight set.
func (s *RowSource[R]) claimLocked(page int) {
	if _, ok := s.queued[page]; ok {
		delete(s.queued, page)
		for i, p := range s.pending {
			if p == page {
				s.pending = append(s.pending[:i], s.pending[i+1:]...)
				break
			}
		}
		pagesPending.Dec()
	}
	if _, ok := s.inFlight[page]; !ok {
		s.inFlight[page] = struct{}{}
		pagesInFlight.Inc()
	}
}

// releaseLocked removes page from the in-flight set.
func (s *RowSource[R]) releaseLocked(page int) {
	if _, ok := s.inFlight[page]; ok {
		delete(s.inFlight, page)
		pagesInFlight.Dec()
	}
}

// await joins or starts the fetch of page and waits for it or for ctx.
func (s *RowSource[R]) await(ctx context.Context, page int) error {
	ch := s.flights.DoChan(strconv.Itoa(page), s.flight(page))
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// flight returns the shared fetch of page. Its only error is ErrClosed; fetch
// hook failures are soft and leave the page retry-eligible.
func (s *RowSource[R]) flight(page int) func() (any, error) {
	return func() (any, error) {
		s.mu.Lock()
		if s.closed {
			s.releaseLocked(page)
			s.mu.Unlock()
			return nil, ErrClosed
		}
		if _, ok := s.loaded[page]; ok {
			s.releaseLocked(page)
			s.mu.Unlock()
			return nil, nil
		}
		s.claimLocked(page)
		s.wg.Add(1)
		s.mu.Unlock()
		defer s.wg.Done()

		if err := s.slots.Acquire(s.ctx, 1); err != nil {
			s.mu.Lock()
			s.releaseLocked(page)
			s.mu.Unlock()
			return nil, ErrClosed
		}
		rows, err := s.fetch(page)
		s.slots.Release(1)

		damage := s.complete(page, rows, err)
		if len(damage) > 0 && s.hooks.Damage != nil {
			s.hooks.Damage(damage)
		}
		return nil, nil
	}
}

// fetch calls the fetch hook under the per-page timeout.
func (s *RowSource[R]) fetch(page int) ([]R, error) {
	ctx, cancel := s.ctx, context.CancelFunc(func() {})
	if s.cfg.FetchTimeout > 0 {
		ctx, cancel = context.WithTimeout(s.ctx, s.cfg.FetchTimeout)
	}
	defer cancel()

	s.logger.Debug().
		Int("page", page).
		Int("page_size", s.cfg.PageSize).
		Msg("Fetching page")

	start := time.Now()
	rows, err := s.hooks.Fetch(ctx, page, s.cfg.PageSize)
	pageFetchDuration.Observe(time.Since(start).Seconds())
	return rows, err
}

// complete merges a fetch result, drains the queue and returns the cells to
// redraw.
func (s *RowSource[R]) complete(page int, rows []R, err error) []grid.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseLocked(page)
	defer s.drainLocked()

	switch {
	case err != nil:
		pageFetchesTotal.WithLabelValues(outcomeError).Inc()
		if errors.Is(err, context.Canceled) && s.closed {
			s.logger.Debug().Int("page", page).Msg("Page fetch cancelled")
		} else {
			s.logger.Warn().
				Err(err).
				Int("page", page).
				Msg("Page fetch failed")
		}
		return nil
	case len(rows) == 0:
		pageFetchesTotal.WithLabelValues(outcomeEmpty).Inc()
		s.logger.Debug().Int("page", page).Msg("Page returned no data")
		return nil
	}

	base := page * s.cfg.PageSize
	added := 0
	for i, row := range rows {
		if _, ok := s.rows[base+i]; !ok {
			added++
		}
		s.rows[base+i] = row
	}
	s.loaded[page] = struct{}{}
	pageFetchesTotal.WithLabelValues(outcomeLoaded).Inc()
	if !s.closed {
		cachedRows.Add(float64(added))
	}

	s.logger.Debug().
		Int("page", page).
		Int("rows", len(rows)).
		Msg("Page loaded")

	vp := s.viewport
	if vp.Width <= 0 {
		return nil
	}
	damage := make([]grid.Item, 0, len(rows)*vp.Width)
	for i := range rows {
		for col := vp.X; col < vp.Right(); col++ {
			damage = append(damage, grid.Item{Col: col, Row: base + i})
		}
	}
	return damage
}
