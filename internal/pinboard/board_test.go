package pinboard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostchat/roost/internal/events"
	"github.com/roostchat/roost/internal/models"
)

// syncRunner executes work inline so tests observe persistence immediately.
type syncRunner struct{}

func (syncRunner) Do(fn func()) { fn() }

type fakeStore struct {
	mu         sync.Mutex
	reorders   [][]string
	unpins     []string
	reorderErr error
	unpinErr   error
}

func (s *fakeStore) PersistReorder(ctx context.Context, orderedGUIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reorderErr != nil {
		return s.reorderErr
	}
	s.reorders = append(s.reorders, append([]string(nil), orderedGUIDs...))
	return nil
}

func (s *fakeStore) PersistUnpin(ctx context.Context, guid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unpinErr != nil {
		return s.unpinErr
	}
	s.unpins = append(s.unpins, guid)
	return nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []*models.Event
}

func (r *recordedEvents) byType(eventType models.EventType) []*models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Event
	for _, event := range r.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func newTestBoard(t *testing.T, guids ...string) (*Board, *fakeStore, *recordedEvents) {
	t.Helper()

	store := &fakeStore{}
	bus := events.NewInMemoryPublisher()
	recorded := &recordedEvents{}
	err := bus.Subscribe("test", events.Filter{}, func(event *models.Event) {
		recorded.mu.Lock()
		recorded.events = append(recorded.events, event)
		recorded.mu.Unlock()
	})
	require.NoError(t, err)

	board := New(context.Background(), Config{
		Store:  store,
		Bus:    bus,
		Runner: syncRunner{},
		Metrics: Metrics{
			ItemWidth:      100,
			UnpinThreshold: 80,
		},
	})
	board.Sync(pinnedList(guids...))
	return board, store, recorded
}

func pinnedList(guids ...string) []*models.Conversation {
	out := make([]*models.Conversation, len(guids))
	for i, guid := range guids {
		out[i] = &models.Conversation{GUID: guid, Title: guid, IsPinned: true, PinIndex: i}
	}
	return out
}

func TestDragToOwnPositionIsNoOp(t *testing.T) {
	board, store, _ := newTestBoard(t, "a", "b", "c")

	require.True(t, board.BeginDrag("b", 100, 0))
	board.Move(20, 5)
	board.Move(-20, -5)

	assert.Equal(t, ResolutionNone, board.EndDrag())
	assert.Equal(t, []string{"a", "b", "c"}, board.OrderGUIDs())
	assert.Empty(t, store.reorders)
	assert.Empty(t, store.unpins)
}

func TestUnpinThresholdIsInclusive(t *testing.T) {
	board, store, recorded := newTestBoard(t, "a", "b", "c")

	// Exactly at the threshold: unpin fires.
	require.True(t, board.BeginDrag("b", 100, 0))
	board.Move(0, 80)
	assert.Equal(t, ResolutionUnpin, board.EndDrag())
	assert.Equal(t, []string{"b"}, store.unpins)
	assert.Equal(t, []string{"a", "c"}, board.OrderGUIDs())

	unpinned := recorded.byType(models.EventTypeConversationUnpinned)
	require.Len(t, unpinned, 1)
	assert.Equal(t, "b", unpinned[0].ConversationID)

	// Just below the threshold: no unpin.
	require.True(t, board.BeginDrag("a", 0, 0))
	board.Move(0, 79.999)
	assert.Equal(t, ResolutionNone, board.EndDrag())
	assert.Equal(t, []string{"b"}, store.unpins)
}

func TestUpwardDragNeverUnpins(t *testing.T) {
	board, store, _ := newTestBoard(t, "a", "b")

	require.True(t, board.BeginDrag("a", 0, 200))
	board.Move(0, -500)

	overlay, ok := board.Overlay()
	require.True(t, ok)
	assert.Zero(t, overlay.UnpinProgress)
	assert.Equal(t, 200.0, overlay.Y)

	assert.Equal(t, ResolutionNone, board.EndDrag())
	assert.Empty(t, store.unpins)
}

func TestCancelRestoresPreDragOrder(t *testing.T) {
	board, store, _ := newTestBoard(t, "a", "b", "c", "d", "e")

	require.True(t, board.BeginDrag("b", 100, 0))
	board.Move(250, 30)
	board.Move(-50, 10)
	board.Move(120, -10)
	assert.NotEqual(t, []string{"a", "b", "c", "d", "e"}, board.OrderGUIDs())

	assert.Equal(t, ResolutionCancelled, board.CancelDrag())
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, board.OrderGUIDs())
	assert.Empty(t, store.reorders)
	assert.Empty(t, store.unpins)
}

func TestDragPastMidpointReorders(t *testing.T) {
	board, store, recorded := newTestBoard(t, "a", "b", "c", "d", "e")

	// Item width 100: an offset of half a width crosses d's midpoint.
	require.True(t, board.BeginDrag("c", 200, 0))
	board.Move(50, 0)
	assert.Equal(t, []string{"a", "b", "d", "c", "e"}, board.OrderGUIDs())

	assert.Equal(t, ResolutionReorder, board.EndDrag())
	require.Len(t, store.reorders, 1)
	assert.Equal(t, []string{"a", "b", "d", "c", "e"}, store.reorders[0])

	reordered := recorded.byType(models.EventTypePinsReordered)
	require.Len(t, reordered, 1)
	var payload models.PinsReorderedPayload
	require.NoError(t, json.Unmarshal(reordered[0].Payload, &payload))
	assert.Equal(t, []string{"a", "b", "d", "c", "e"}, payload.OrderedGUIDs)
	assert.False(t, payload.Reverted)
}

func TestHorizontalOffsetRebasesAcrossSlots(t *testing.T) {
	board, _, _ := newTestBoard(t, "a", "b", "c", "d")

	require.True(t, board.BeginDrag("a", 0, 0))
	board.Move(260, 0)

	// 260px over 100px slots crosses three midpoints: a lands at index 3
	// with the overlay still tracking the raw pointer position.
	assert.Equal(t, []string{"b", "c", "d", "a"}, board.OrderGUIDs())
	overlay, ok := board.Overlay()
	require.True(t, ok)
	assert.Equal(t, 3, overlay.Index)
	assert.InDelta(t, 260.0, overlay.X, 0.001)
}

func TestMoveClampsToRowBounds(t *testing.T) {
	board, _, _ := newTestBoard(t, "a", "b", "c")

	require.True(t, board.BeginDrag("c", 200, 0))
	board.Move(10000, 0)
	assert.Equal(t, []string{"a", "b", "c"}, board.OrderGUIDs())

	board.Move(-30000, 0)
	assert.Equal(t, []string{"c", "a", "b"}, board.OrderGUIDs())
}

func TestSelectionModeSuppressesDrag(t *testing.T) {
	board, _, _ := newTestBoard(t, "a", "b")

	board.SetSelectionActive(true)
	assert.False(t, board.BeginDrag("a", 0, 0))

	board.SetSelectionActive(false)
	assert.True(t, board.BeginDrag("a", 0, 0))
	board.CancelDrag()
}

func TestSecondDragRefusedWhileDragging(t *testing.T) {
	board, _, _ := newTestBoard(t, "a", "b")

	require.True(t, board.BeginDrag("a", 0, 0))
	assert.False(t, board.BeginDrag("b", 100, 0))
	board.CancelDrag()
}

func TestSyncDeferredUntilResolution(t *testing.T) {
	board, _, _ := newTestBoard(t, "a", "b", "c")

	require.True(t, board.BeginDrag("a", 0, 0))
	board.Move(150, 0)

	// Authoritative refresh arrives mid-drag; the working copy must not
	// jump until the gesture resolves.
	board.Sync(pinnedList("x", "y"))
	assert.Equal(t, []string{"b", "a", "c"}, board.OrderGUIDs())

	board.EndDrag()
	assert.Equal(t, []string{"x", "y"}, board.OrderGUIDs())
}

func TestUnpinProgressClamped(t *testing.T) {
	board, _, _ := newTestBoard(t, "a")

	require.True(t, board.BeginDrag("a", 0, 0))
	board.Move(0, 40)
	overlay, _ := board.Overlay()
	assert.InDelta(t, 0.5, overlay.UnpinProgress, 0.001)

	board.Move(0, 400)
	overlay, _ = board.Overlay()
	assert.Equal(t, 1.0, overlay.UnpinProgress)
	board.CancelDrag()
}

func TestReorderPersistFailureReverts(t *testing.T) {
	board, store, recorded := newTestBoard(t, "a", "b", "c")
	store.reorderErr = errors.New("disk full")

	require.True(t, board.BeginDrag("a", 0, 0))
	board.Move(150, 0)
	assert.Equal(t, ResolutionReorder, board.EndDrag())

	// The failed persist rolled the working copy back.
	assert.Equal(t, []string{"a", "b", "c"}, board.OrderGUIDs())

	reordered := recorded.byType(models.EventTypePinsReordered)
	require.Len(t, reordered, 1)
	var payload models.PinsReorderedPayload
	require.NoError(t, json.Unmarshal(reordered[0].Payload, &payload))
	assert.True(t, payload.Reverted)
	assert.Equal(t, []string{"a", "b", "c"}, payload.OrderedGUIDs)
}

func TestUnpinPersistFailureEmitsError(t *testing.T) {
	board, store, recorded := newTestBoard(t, "a", "b")
	store.unpinErr = errors.New("offline")

	require.True(t, board.BeginDrag("a", 0, 0))
	board.Move(0, 100)
	assert.Equal(t, ResolutionUnpin, board.EndDrag())

	errs := recorded.byType(models.EventTypeError)
	require.Len(t, errs, 1)
	assert.Equal(t, "a", errs[0].ConversationID)
}

func TestEndDragWithoutSessionIsNoOp(t *testing.T) {
	board, store, _ := newTestBoard(t, "a")

	assert.Equal(t, ResolutionNone, board.EndDrag())
	assert.Equal(t, ResolutionNone, board.CancelDrag())
	assert.Empty(t, store.reorders)
}
