package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostchat/roost/internal/models"
)

type stubRepo struct {
	mu            sync.Mutex
	conversations []*models.Conversation
	pinned        []*models.Conversation
	archived      [][]string
}

func (r *stubRepo) List(ctx context.Context, fc models.FilterContext, limit, offset int) ([]*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Conversation(nil), r.conversations...), nil
}

func (r *stubRepo) ListPinned(ctx context.Context) ([]*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Conversation(nil), r.pinned...), nil
}

func (r *stubRepo) CountMatching(ctx context.Context, fc models.FilterContext) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conversations), nil
}

func (r *stubRepo) FetchMatchingIDs(ctx context.Context, fc models.FilterContext, limit, offset int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if offset >= len(r.conversations) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.conversations) {
		end = len(r.conversations)
	}
	out := make([]string, 0, end-offset)
	for _, conv := range r.conversations[offset:end] {
		out = append(out, conv.GUID)
	}
	return out, nil
}

func (r *stubRepo) Pin(ctx context.Context, guid string) (int, error) { return len(r.pinned), nil }
func (r *stubRepo) Unpin(ctx context.Context, guid string) error      { return nil }
func (r *stubRepo) ReorderPins(ctx context.Context, orderedGUIDs []string) error {
	return nil
}

func (r *stubRepo) MarkRead(ctx context.Context, guids []string) (int64, error) {
	return int64(len(guids)), nil
}

func (r *stubRepo) MarkUnread(ctx context.Context, guids []string) (int64, error) {
	return int64(len(guids)), nil
}

func (r *stubRepo) Archive(ctx context.Context, guids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archived = append(r.archived, append([]string(nil), guids...))
	return int64(len(guids)), nil
}

func (r *stubRepo) Block(ctx context.Context, guids []string) (int64, error) {
	return int64(len(guids)), nil
}

func (r *stubRepo) Snooze(ctx context.Context, guids []string, until time.Time) (int64, error) {
	return int64(len(guids)), nil
}

func (r *stubRepo) Delete(ctx context.Context, guids []string) (int64, error) {
	return int64(len(guids)), nil
}

func conversationRows(guids ...string) []*models.Conversation {
	out := make([]*models.Conversation, len(guids))
	for i, guid := range guids {
		out[i] = &models.Conversation{GUID: guid, Title: guid}
	}
	return out
}

func newTestModel(t *testing.T, repo *stubRepo) *Model {
	t.Helper()

	model, err := NewModel(context.Background(), Config{
		Repository: repo,
		Filter:     models.FilterContext{Filter: models.FilterAll},
		PageSize:   50,
		ItemWidth:  100,
		Threshold:  80,
	})
	require.NoError(t, err)
	t.Cleanup(model.Close)

	// Deliver the initial load synchronously.
	model.Update(conversationsMsg{conversations: repo.conversations})
	require.NoError(t, model.session.RefreshPins(context.Background()))
	return model
}

func keyPress(key string) tea.KeyMsg {
	switch key {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func TestCursorMovesWithinList(t *testing.T) {
	repo := &stubRepo{conversations: conversationRows("a", "b", "c")}
	model := newTestModel(t, repo)

	model.Update(keyPress("j"))
	model.Update(keyPress("j"))
	assert.Equal(t, 2, model.cursor)

	// Clamped at the bottom.
	model.Update(keyPress("j"))
	assert.Equal(t, 2, model.cursor)

	model.Update(keyPress("k"))
	assert.Equal(t, 1, model.cursor)
}

func TestCursorEntersPinRowAtTop(t *testing.T) {
	repo := &stubRepo{
		conversations: conversationRows("a"),
		pinned:        []*models.Conversation{{GUID: "p1", Title: "p1", IsPinned: true}},
	}
	model := newTestModel(t, repo)

	model.Update(keyPress("k"))
	assert.True(t, model.onPins)

	model.Update(keyPress("j"))
	assert.False(t, model.onPins)
}

func TestTabCyclesFilter(t *testing.T) {
	repo := &stubRepo{conversations: conversationRows("a")}
	model := newTestModel(t, repo)

	model.Update(keyPress("tab"))
	assert.Equal(t, models.FilterUnread, model.session.FilterContext().Filter)

	// Cycling through all filters wraps back around.
	for i := 0; i < len(models.ValidFilters)-1; i++ {
		model.Update(keyPress("tab"))
	}
	assert.Equal(t, models.FilterUnread, model.session.FilterContext().Filter)
}

func TestSpaceTogglesSelection(t *testing.T) {
	repo := &stubRepo{conversations: conversationRows("a", "b")}
	model := newTestModel(t, repo)

	model.Update(keyPress(" "))
	assert.Equal(t, 1, model.session.Selection.Count())
	assert.True(t, model.session.Selection.Selected("a"))

	model.Update(keyPress(" "))
	assert.Equal(t, 0, model.session.Selection.Count())
}

func TestEscClearsSelection(t *testing.T) {
	repo := &stubRepo{conversations: conversationRows("a", "b")}
	model := newTestModel(t, repo)

	model.Update(keyPress(" "))
	model.Update(keyPress("esc"))
	assert.Equal(t, 0, model.session.Selection.Count())
}

func TestDragModeReordersPins(t *testing.T) {
	repo := &stubRepo{pinned: []*models.Conversation{
		{GUID: "p1", Title: "p1", IsPinned: true, PinIndex: 0},
		{GUID: "p2", Title: "p2", IsPinned: true, PinIndex: 1},
	}}
	model := newTestModel(t, repo)
	model.onPins = true
	model.pinCursor = 0

	model.Update(keyPress("g"))
	assert.Equal(t, ModeDrag, model.mode)

	model.Update(keyPress("l"))
	assert.Equal(t, []string{"p2", "p1"}, model.session.Board.OrderGUIDs())

	model.Update(keyPress("enter"))
	assert.Equal(t, ModeNormal, model.mode)
	assert.Equal(t, "pins reordered", model.status)
}

func TestDragModeEscCancels(t *testing.T) {
	repo := &stubRepo{pinned: []*models.Conversation{
		{GUID: "p1", Title: "p1", IsPinned: true, PinIndex: 0},
		{GUID: "p2", Title: "p2", IsPinned: true, PinIndex: 1},
	}}
	model := newTestModel(t, repo)
	model.onPins = true

	model.Update(keyPress("g"))
	model.Update(keyPress("l"))
	model.Update(keyPress("esc"))

	assert.Equal(t, ModeNormal, model.mode)
	assert.Equal(t, []string{"p1", "p2"}, model.session.Board.OrderGUIDs())
}

func TestActionPanelRequiresSelection(t *testing.T) {
	repo := &stubRepo{conversations: conversationRows("a")}
	model := newTestModel(t, repo)

	model.Update(keyPress("x"))
	assert.Equal(t, ModeNormal, model.mode)

	model.Update(keyPress(" "))
	model.Update(keyPress("x"))
	assert.Equal(t, ModeActions, model.mode)
}

func TestActionPanelAppliesAction(t *testing.T) {
	repo := &stubRepo{conversations: conversationRows("a", "b")}
	model := newTestModel(t, repo)

	model.Update(keyPress(" "))
	model.Update(keyPress("x"))

	// Move to archive (third entry) and apply.
	model.Update(keyPress("j"))
	model.Update(keyPress("j"))
	model.Update(keyPress("enter"))
	assert.Equal(t, ModeNormal, model.mode)

	// Wait for the serialized batch to land.
	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.archived) == 1
	}, time.Second, 10*time.Millisecond)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, []string{"a"}, repo.archived[0])
}

func TestViewRendersSelectionMarker(t *testing.T) {
	repo := &stubRepo{conversations: conversationRows("a", "b")}
	model := newTestModel(t, repo)
	model.width = 80
	model.height = 24

	model.Update(keyPress(" "))
	view := model.View()
	assert.True(t, strings.Contains(view, "* a"), view)
}
