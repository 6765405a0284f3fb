// Package selection tracks which conversations are selected, under either
// explicit or "select all matching the current filter" semantics, and drives
// batched actions over the full matching set rather than only the loaded
// rows.
package selection

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/roostchat/roost/internal/events"
	"github.com/roostchat/roost/internal/logging"
	"github.com/roostchat/roost/internal/models"
)

// DefaultPageSize is the page size used when paging the matching set during
// a select-all batch.
const DefaultPageSize = 50

// Store answers count and id-page queries scoped to a filter context.
type Store interface {
	CountMatching(ctx context.Context, fc models.FilterContext) (int, error)
	FetchMatchingIDs(ctx context.Context, fc models.FilterContext, limit, offset int) ([]string, error)
}

// Runner serializes the coordinator's asynchronous work. All count queries
// and batch pages run on it, one at a time per screen.
type Runner interface {
	Do(fn func())
}

// ApplyFunc is the caller-supplied persistence call for one page of a batch
// action. The coordinator stays action-agnostic; the caller decides what
// "archive" or "mark read" means against the backing store.
type ApplyFunc func(ctx context.Context, guids []string) error

// State is an observable snapshot of the selection.
type State struct {
	SelectAllMode bool
	Loading       bool
	Count         int
}

// Coordinator owns the selection state for one conversation-list screen.
//
// Exactly one mode is active at a time: explicit (a set of selected ids) or
// select-all (a total count minus a set of deselected ids). Switching the
// filter context while select-all is active invalidates the selection;
// selection is scoped to one filter context, never portable across them.
type Coordinator struct {
	mu       sync.Mutex
	logger   zerolog.Logger
	store    Store
	bus      events.Publisher
	runner   Runner
	pageSize int

	ctx context.Context

	fc         models.FilterContext
	captured   models.FilterContext
	selectAll  bool
	loading    bool
	total      int
	selected   map[string]struct{}
	deselected map[string]struct{}
}

// Config wires a Coordinator.
type Config struct {
	Store    Store
	Bus      events.Publisher
	Runner   Runner
	PageSize int
	Filter   models.FilterContext
}

// New creates a Coordinator.
func New(ctx context.Context, cfg Config) *Coordinator {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Coordinator{
		logger:     logging.Component("selection"),
		store:      cfg.Store,
		bus:        cfg.Bus,
		runner:     cfg.Runner,
		pageSize:   pageSize,
		ctx:        ctx,
		fc:         cfg.Filter,
		selected:   make(map[string]struct{}),
		deselected: make(map[string]struct{}),
	}
}

// Snapshot returns the current observable state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() State {
	return State{
		SelectAllMode: c.selectAll,
		Loading:       c.loading,
		Count:         c.countLocked(),
	}
}

// Count returns the effective selection count.
func (c *Coordinator) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countLocked()
}

func (c *Coordinator) countLocked() int {
	if c.selectAll {
		return c.total - len(c.deselected)
	}
	return len(c.selected)
}

// Active reports whether any selection exists (selection mode is on).
func (c *Coordinator) Active() bool {
	return c.Count() > 0
}

// Selected reports whether the given conversation renders as selected.
func (c *Coordinator) Selected(guid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectAll {
		_, deselected := c.deselected[guid]
		return !deselected
	}
	_, ok := c.selected[guid]
	return ok
}

// ShouldAutoSelect reports whether a newly scrolled-in row should render as
// selected without any further query: true iff select-all mode is active and
// the id has not been explicitly deselected.
func (c *Coordinator) ShouldAutoSelect(guid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.selectAll {
		return false
	}
	_, deselected := c.deselected[guid]
	return !deselected
}

// Toggle flips one conversation's membership. In explicit mode it edits the
// selected set; in select-all mode it edits the deselection set. Synchronous
// and in-memory only.
func (c *Coordinator) Toggle(guid string) {
	c.mu.Lock()
	if c.selectAll {
		if _, ok := c.deselected[guid]; ok {
			delete(c.deselected, guid)
		} else {
			c.deselected[guid] = struct{}{}
		}
	} else {
		if _, ok := c.selected[guid]; ok {
			delete(c.selected, guid)
		} else {
			c.selected[guid] = struct{}{}
		}
	}
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.emitState(state)
}

// Clear resets to the empty explicit-mode state unconditionally.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	c.clearLocked()
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.emitState(state)
}

func (c *Coordinator) clearLocked() {
	c.selectAll = false
	c.loading = false
	c.total = 0
	c.selected = make(map[string]struct{})
	c.deselected = make(map[string]struct{})
}

// SetFilterContext records a filter change. Select-all selections are bound
// to the context they were captured under; changing either half of the
// context while select-all is active drops the selection entirely.
func (c *Coordinator) SetFilterContext(fc models.FilterContext) {
	c.mu.Lock()
	invalidated := c.selectAll && !fc.Equal(c.captured)
	c.fc = fc
	if invalidated {
		c.clearLocked()
	}
	state := c.snapshotLocked()
	c.mu.Unlock()

	if invalidated {
		c.emitState(state)
	}
}

// SelectAll enters select-all mode for the current filter context. The total
// comes from an asynchronous count query; until it resolves the state reports
// loading. Invoked while already in select-all mode for the same context, it
// acts as "deselect all" instead.
//
// On count failure the coordinator falls back to explicitly selecting the
// visible, selectable (non-pinned) rows: degraded, but never stuck loading.
// A count that resolves after the filter context has moved on is discarded.
func (c *Coordinator) SelectAll(visible []*models.Conversation) {
	c.mu.Lock()
	if c.selectAll && c.fc.Equal(c.captured) {
		c.clearLocked()
		state := c.snapshotLocked()
		c.mu.Unlock()
		c.emitState(state)
		return
	}

	fc := c.fc
	c.loading = true
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.emitState(state)

	fallback := make([]string, 0, len(visible))
	for _, conv := range visible {
		if conv.IsPinned {
			continue
		}
		fallback = append(fallback, conv.GUID)
	}

	c.runner.Do(func() {
		total, err := c.store.CountMatching(c.ctx, fc)

		c.mu.Lock()
		if !c.fc.Equal(fc) {
			// The filter changed while the count was queued. The result is
			// bound to a scope the screen no longer shows; leave the
			// selection empty rather than resurrect it.
			c.loading = false
			state := c.snapshotLocked()
			c.mu.Unlock()
			c.emitState(state)
			return
		}
		c.loading = false
		if err != nil {
			c.logger.Warn().Err(err).Stringer("filter", fc).Msg("select-all count failed, selecting visible rows")
			c.selectAll = false
			c.total = 0
			c.selected = make(map[string]struct{}, len(fallback))
			for _, guid := range fallback {
				c.selected[guid] = struct{}{}
			}
			c.deselected = make(map[string]struct{})
		} else {
			c.selectAll = true
			c.captured = fc
			c.total = total
			c.selected = make(map[string]struct{})
			c.deselected = make(map[string]struct{})
		}
		state := c.snapshotLocked()
		c.mu.Unlock()

		c.emitState(state)
	})
}

// ApplyBatch applies an action to the effective selection and then clears
// the selection unconditionally, success or not.
//
// Explicit mode issues one apply call with the whole selected set. Select-all
// mode pages the matching set with a fixed page size, drops deselected ids
// from each page, and emits a progress event after every page. Paging stops
// on an empty page, when the fetched total reaches the captured count, or on
// the first fetch/apply failure (the completion event then reports the
// partial processed count).
func (c *Coordinator) ApplyBatch(action models.BatchAction, apply ApplyFunc) {
	c.runner.Do(func() {
		c.mu.Lock()
		selectAll := c.selectAll
		fc := c.captured
		total := c.total
		selected := make([]string, 0, len(c.selected))
		for guid := range c.selected {
			selected = append(selected, guid)
		}
		deselected := make(map[string]struct{}, len(c.deselected))
		for guid := range c.deselected {
			deselected[guid] = struct{}{}
		}
		c.mu.Unlock()

		if !selectAll {
			c.applyExplicit(action, apply, selected)
		} else {
			c.applySelectAll(action, apply, fc, total, deselected)
		}

		c.Clear()
	})
}

func (c *Coordinator) applyExplicit(action models.BatchAction, apply ApplyFunc, guids []string) {
	if len(guids) > 0 {
		if err := apply(c.ctx, guids); err != nil {
			c.logger.Error().Err(err).Str("action", string(action)).Msg("batch apply failed")
			c.bus.Emit(models.EventTypeBatchComplete, "", models.BatchCompletePayload{
				Action:  action,
				Count:   0,
				Partial: true,
			})
			return
		}
	}
	c.bus.Emit(models.EventTypeBatchComplete, "", models.BatchCompletePayload{
		Action: action,
		Count:  len(guids),
	})
}

func (c *Coordinator) applySelectAll(action models.BatchAction, apply ApplyFunc, fc models.FilterContext, total int, deselected map[string]struct{}) {
	effectiveTotal := total - len(deselected)
	processed := 0
	fetched := 0
	partial := false

	for offset := 0; fetched < total; offset += c.pageSize {
		if c.ctx.Err() != nil {
			// Screen torn down mid-batch: the page already applied stands,
			// no further pages are fetched.
			c.logger.Info().Str("action", string(action)).Int("processed", processed).Msg("batch cancelled")
			return
		}

		page, err := c.store.FetchMatchingIDs(c.ctx, fc, c.pageSize, offset)
		if err != nil {
			c.logger.Error().Err(err).Int("offset", offset).Msg("batch page fetch failed, aborting")
			partial = true
			break
		}
		if len(page) == 0 {
			break
		}
		fetched += len(page)

		guids := page[:0:0]
		for _, guid := range page {
			if _, skip := deselected[guid]; skip {
				continue
			}
			guids = append(guids, guid)
		}

		if len(guids) > 0 {
			if err := apply(c.ctx, guids); err != nil {
				c.logger.Error().Err(err).Str("action", string(action)).Msg("batch apply failed, aborting")
				partial = true
				break
			}
			processed += len(guids)
		}

		c.bus.Emit(models.EventTypeBatchProgress, "", models.BatchProgressPayload{
			Action:    action,
			Processed: processed,
			Total:     effectiveTotal,
		})
	}

	c.bus.Emit(models.EventTypeBatchComplete, "", models.BatchCompletePayload{
		Action:  action,
		Count:   processed,
		Partial: partial,
	})
}

func (c *Coordinator) emitState(state State) {
	c.bus.Emit(models.EventTypeSelectionChanged, "", models.SelectionChangedPayload{
		SelectAllMode: state.SelectAllMode,
		Count:         state.Count,
		Loading:       state.Loading,
	})
}
