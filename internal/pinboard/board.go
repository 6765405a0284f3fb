// Package pinboard implements the reorderable pinned-conversation row: an
// ordered working copy of the pinned list, a single drag session at a time,
// live index remapping while the pointer moves, and resolution to either a
// persisted reorder or an unpin.
package pinboard

import (
	"context"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/roostchat/roost/internal/events"
	"github.com/roostchat/roost/internal/logging"
	"github.com/roostchat/roost/internal/models"
)

const (
	// DefaultItemWidth is the horizontal span of one pinned item in pixels.
	DefaultItemWidth = 72.0

	// DefaultUnpinThreshold is the downward drag distance, in pixels, at
	// which releasing unpins instead of reordering. The boundary is
	// inclusive on the unpin side.
	DefaultUnpinThreshold = 96.0
)

// Store persists the outcomes of a resolved drag.
type Store interface {
	// PersistReorder assigns sequential pin indices matching the order.
	PersistReorder(ctx context.Context, orderedGUIDs []string) error

	// PersistUnpin removes a conversation from the pinned row.
	PersistUnpin(ctx context.Context, guid string) error
}

// Runner schedules fire-and-forget persistence work. The gesture path never
// blocks on storage.
type Runner interface {
	Do(fn func())
}

// Resolution is the terminal state of one drag gesture.
type Resolution int

const (
	ResolutionNone Resolution = iota
	ResolutionReorder
	ResolutionUnpin
	ResolutionCancelled
)

func (r Resolution) String() string {
	switch r {
	case ResolutionReorder:
		return "reorder"
	case ResolutionUnpin:
		return "unpin"
	case ResolutionCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Metrics holds the gesture geometry.
type Metrics struct {
	ItemWidth      float64
	UnpinThreshold float64
}

// DefaultMetrics returns the default gesture geometry.
func DefaultMetrics() Metrics {
	return Metrics{
		ItemWidth:      DefaultItemWidth,
		UnpinThreshold: DefaultUnpinThreshold,
	}
}

// Overlay describes the floating mirror of the dragged item. The item's list
// slot renders empty while the overlay tracks the pointer; opacity and scale
// shrink with UnpinProgress.
type Overlay struct {
	GUID          string
	Index         int
	X             float64
	Y             float64
	UnpinProgress float64
}

// dragSession is the ephemeral state of one continuous gesture. It is owned
// exclusively by the board and discarded at resolution.
type dragSession struct {
	guid       string
	startIndex int
	index      int
	startX     float64
	startY     float64
	offsetX    float64
	offsetY    float64
	snapshot   []string
}

// Board owns the ordered pinned working copy and at most one drag session.
//
// Gesture callbacks mutate in-memory state only; persistence is enqueued on
// the runner and the UI never waits for it. If a persist fails the board
// restores the last known good order and re-emits it.
type Board struct {
	mu      sync.Mutex
	logger  zerolog.Logger
	store   Store
	bus     events.Publisher
	runner  Runner
	metrics Metrics

	ctx context.Context

	order    []*models.Conversation
	lastGood []string
	drag     *dragSession

	// pendingSync holds an authoritative refresh that arrived mid-drag; it
	// is applied when the gesture resolves, never during it.
	pendingSync []*models.Conversation
	hasPending  bool

	selectionActive bool
}

// Config wires a Board.
type Config struct {
	Store   Store
	Bus     events.Publisher
	Runner  Runner
	Metrics Metrics
}

// New creates a Board.
func New(ctx context.Context, cfg Config) *Board {
	metrics := cfg.Metrics
	if metrics.ItemWidth <= 0 {
		metrics.ItemWidth = DefaultItemWidth
	}
	if metrics.UnpinThreshold <= 0 {
		metrics.UnpinThreshold = DefaultUnpinThreshold
	}
	return &Board{
		logger:  logging.Component("pinboard"),
		store:   cfg.Store,
		bus:     cfg.Bus,
		runner:  cfg.Runner,
		metrics: metrics,
		ctx:     ctx,
	}
}

// Sync replaces the working copy with the authoritative pinned list. While a
// drag is in flight the refresh is deferred until the gesture resolves so the
// row does not jump under the user's finger.
func (b *Board) Sync(pinned []*models.Conversation) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.drag != nil {
		b.pendingSync = clone(pinned)
		b.hasPending = true
		return
	}
	b.order = clone(pinned)
	b.lastGood = guids(b.order)
}

// Order returns the current working order.
func (b *Board) Order() []*models.Conversation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return clone(b.order)
}

// OrderGUIDs returns the GUIDs of the current working order.
func (b *Board) OrderGUIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return guids(b.order)
}

// SetSelectionActive toggles selection mode. Dragging is disabled while the
// list is in selection mode.
func (b *Board) SetSelectionActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selectionActive = active
}

// Dragging reports whether a drag session is in flight.
func (b *Board) Dragging() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drag != nil
}

// BeginDrag starts a drag for the given conversation, capturing its starting
// screen position and index. Returns false when the drag cannot start: no
// such pinned item, a gesture already in flight, or selection mode active.
func (b *Board) BeginDrag(guid string, startX, startY float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.drag != nil || b.selectionActive {
		return false
	}
	index := indexOf(b.order, guid)
	if index < 0 {
		return false
	}

	b.drag = &dragSession{
		guid:       guid,
		startIndex: index,
		index:      index,
		startX:     startX,
		startY:     startY,
		snapshot:   guids(b.order),
	}
	return true
}

// Move accumulates a pointer delta into the active drag. Crossing an item
// midpoint reinserts the dragged entry at the new index and rebases the
// horizontal offset so the overlay keeps tracking the pointer smoothly.
func (b *Board) Move(dx, dy float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	drag := b.drag
	if drag == nil {
		return
	}

	drag.offsetX += dx
	drag.offsetY += dy

	target := drag.index + int(math.Round(drag.offsetX/b.metrics.ItemWidth))
	if target < 0 {
		target = 0
	}
	if max := len(b.order) - 1; target > max {
		target = max
	}

	if target != drag.index {
		moveItem(b.order, drag.index, target)
		drag.offsetX -= float64(target-drag.index) * b.metrics.ItemWidth
		drag.index = target
	}
}

// Overlay returns the floating-item rendering state for the active drag, or
// false when idle. Upward movement never contributes to unpin progress.
func (b *Board) Overlay() (Overlay, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	drag := b.drag
	if drag == nil {
		return Overlay{}, false
	}
	return Overlay{
		GUID:          drag.guid,
		Index:         drag.index,
		X:             drag.startX + drag.offsetX,
		Y:             drag.startY + verticalOffset(drag),
		UnpinProgress: unpinProgress(drag, b.metrics.UnpinThreshold),
	}, true
}

// EndDrag resolves the active drag: unpin when the vertical offset reached
// the threshold, reorder when the order changed against the pre-drag
// snapshot, no-op otherwise. Persistence runs asynchronously; the in-memory
// order commits immediately.
func (b *Board) EndDrag() Resolution {
	b.mu.Lock()

	drag := b.drag
	if drag == nil {
		b.mu.Unlock()
		return ResolutionNone
	}
	b.drag = nil

	if verticalOffset(drag) >= b.metrics.UnpinThreshold {
		b.order = removeItem(b.order, drag.guid)
		b.lastGood = guids(b.order)
		b.applyPendingLocked()
		b.mu.Unlock()

		b.persistUnpin(drag.guid)
		return ResolutionUnpin
	}

	current := guids(b.order)
	if equalOrder(current, drag.snapshot) {
		b.applyPendingLocked()
		b.mu.Unlock()
		return ResolutionNone
	}

	previousGood := b.lastGood
	b.lastGood = current
	b.applyPendingLocked()
	b.mu.Unlock()

	b.persistReorder(current, previousGood)
	return ResolutionReorder
}

// CancelDrag discards the gesture and restores the pre-drag order exactly.
// No persistence call is made.
func (b *Board) CancelDrag() Resolution {
	b.mu.Lock()
	defer b.mu.Unlock()

	drag := b.drag
	if drag == nil {
		return ResolutionNone
	}
	b.drag = nil

	b.order = reorderTo(b.order, drag.snapshot)
	b.applyPendingLocked()
	return ResolutionCancelled
}

func (b *Board) applyPendingLocked() {
	if !b.hasPending {
		return
	}
	b.order = b.pendingSync
	b.lastGood = guids(b.order)
	b.pendingSync = nil
	b.hasPending = false
}

func (b *Board) persistUnpin(guid string) {
	b.runner.Do(func() {
		if err := b.store.PersistUnpin(b.ctx, guid); err != nil {
			// The row already dropped the item; the next authoritative sync
			// restores it if the unpin never landed.
			b.logger.Error().Err(err).Str("conversation_id", guid).Msg("unpin persist failed")
			b.bus.Emit(models.EventTypeError, guid, models.ErrorPayload{
				Error:   err.Error(),
				Context: "unpin",
			})
			return
		}
		b.bus.Emit(models.EventTypeConversationUnpinned, guid, nil)
	})
}

func (b *Board) persistReorder(order, previousGood []string) {
	b.runner.Do(func() {
		if err := b.store.PersistReorder(b.ctx, order); err != nil {
			b.logger.Error().Err(err).Msg("reorder persist failed, reverting")
			b.revert(previousGood)
			return
		}
		b.bus.Emit(models.EventTypePinsReordered, "", models.PinsReorderedPayload{
			OrderedGUIDs: order,
		})
	})
}

// revert restores the last known good order after a failed persist and
// re-emits it so the presentation layer rolls back too.
func (b *Board) revert(previousGood []string) {
	b.mu.Lock()
	// A drag that started after the failed persist wins; skip the revert.
	if b.drag == nil {
		b.order = reorderTo(b.order, previousGood)
		b.lastGood = guids(b.order)
	}
	b.mu.Unlock()

	b.bus.Emit(models.EventTypePinsReordered, "", models.PinsReorderedPayload{
		OrderedGUIDs: previousGood,
		Reverted:     true,
	})
}

func verticalOffset(drag *dragSession) float64 {
	if drag.offsetY < 0 {
		return 0
	}
	return drag.offsetY
}

func unpinProgress(drag *dragSession, threshold float64) float64 {
	progress := verticalOffset(drag) / threshold
	if progress > 1 {
		return 1
	}
	return progress
}

func indexOf(order []*models.Conversation, guid string) int {
	for i, conv := range order {
		if conv.GUID == guid {
			return i
		}
	}
	return -1
}

func guids(order []*models.Conversation) []string {
	out := make([]string, len(order))
	for i, conv := range order {
		out[i] = conv.GUID
	}
	return out
}

func clone(order []*models.Conversation) []*models.Conversation {
	return append([]*models.Conversation(nil), order...)
}

// moveItem removes the entry at from and reinserts it at to, shifting the
// items in between.
func moveItem(order []*models.Conversation, from, to int) {
	if from == to {
		return
	}
	item := order[from]
	if from < to {
		copy(order[from:], order[from+1:to+1])
	} else {
		copy(order[to+1:], order[to:from])
	}
	order[to] = item
}

func removeItem(order []*models.Conversation, guid string) []*models.Conversation {
	index := indexOf(order, guid)
	if index < 0 {
		return order
	}
	return append(order[:index], order[index+1:]...)
}

// reorderTo rearranges order to match the GUID sequence in want. Items
// missing from want keep their relative position at the end; items in want
// that no longer exist are skipped.
func reorderTo(order []*models.Conversation, want []string) []*models.Conversation {
	byGUID := make(map[string]*models.Conversation, len(order))
	for _, conv := range order {
		byGUID[conv.GUID] = conv
	}

	out := make([]*models.Conversation, 0, len(order))
	taken := make(map[string]bool, len(order))
	for _, guid := range want {
		if conv, ok := byGUID[guid]; ok {
			out = append(out, conv)
			taken[guid] = true
		}
	}
	for _, conv := range order {
		if !taken[conv.GUID] {
			out = append(out, conv)
		}
	}
	return out
}

func equalOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
