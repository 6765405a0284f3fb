// Package screen owns the lifetime of one conversation-list screen: the
// pinned row, the selection state and a single worker goroutine that
// serializes every persistence task the screen spawns.
package screen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roostchat/roost/internal/events"
	"github.com/roostchat/roost/internal/logging"
	"github.com/roostchat/roost/internal/models"
	"github.com/roostchat/roost/internal/pinboard"
	"github.com/roostchat/roost/internal/selection"
)

// DefaultSnoozeDuration is how long a batch snooze silences a conversation
// when no explicit duration is configured.
const DefaultSnoozeDuration = 8 * time.Hour

const taskQueueSize = 64

// Repository is the slice of the conversation store a session drives.
// *db.ConversationRepository satisfies it.
type Repository interface {
	List(ctx context.Context, fc models.FilterContext, limit, offset int) ([]*models.Conversation, error)
	ListPinned(ctx context.Context) ([]*models.Conversation, error)
	CountMatching(ctx context.Context, fc models.FilterContext) (int, error)
	FetchMatchingIDs(ctx context.Context, fc models.FilterContext, limit, offset int) ([]string, error)

	Pin(ctx context.Context, guid string) (int, error)
	Unpin(ctx context.Context, guid string) error
	ReorderPins(ctx context.Context, orderedGUIDs []string) error

	MarkRead(ctx context.Context, guids []string) (int64, error)
	MarkUnread(ctx context.Context, guids []string) (int64, error)
	Archive(ctx context.Context, guids []string) (int64, error)
	Block(ctx context.Context, guids []string) (int64, error)
	Snooze(ctx context.Context, guids []string, until time.Time) (int64, error)
	Delete(ctx context.Context, guids []string) (int64, error)
}

// Config wires a Session.
type Config struct {
	Repository Repository
	Bus        events.Publisher
	PageSize   int
	Metrics    pinboard.Metrics
	Snooze     time.Duration
}

// Session ties a pin board and a selection coordinator to one repository and
// one event bus. All asynchronous work funnels through its task queue, so
// drag persistence, count queries and batch pages never interleave.
type Session struct {
	logger zerolog.Logger
	repo   Repository
	bus    events.Publisher
	snooze time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	tasks  chan func()
	wg     sync.WaitGroup

	fc models.FilterContext

	Board     *pinboard.Board
	Selection *selection.Coordinator
}

// NewSession creates and starts a session. Close releases it.
func NewSession(ctx context.Context, cfg Config) *Session {
	ctx, cancel := context.WithCancel(ctx)
	snooze := cfg.Snooze
	if snooze <= 0 {
		snooze = DefaultSnoozeDuration
	}
	s := &Session{
		logger: logging.WithScreen(uuid.New().String()).With().Str("component", "screen").Logger(),
		repo:   cfg.Repository,
		bus:    cfg.Bus,
		snooze: snooze,
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(chan func(), taskQueueSize),
		fc:     models.FilterContext{Filter: models.FilterAll},
	}

	s.Board = pinboard.New(ctx, pinboard.Config{
		Store:   pinStore{repo: cfg.Repository},
		Bus:     cfg.Bus,
		Runner:  s,
		Metrics: cfg.Metrics,
	})
	s.Selection = selection.New(ctx, selection.Config{
		Store:    cfg.Repository,
		Bus:      cfg.Bus,
		Runner:   s,
		PageSize: cfg.PageSize,
		Filter:   s.fc,
	})

	s.wg.Add(1)
	go s.run()
	return s
}

// Do enqueues fn on the session's worker. Work submitted after Close is
// dropped.
func (s *Session) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Debug().Msg("task dropped after close")
		return
	}

	select {
	case s.tasks <- fn:
	case <-s.ctx.Done():
		s.logger.Debug().Msg("task dropped, session context done")
	}
}

func (s *Session) run() {
	defer s.wg.Done()
	for fn := range s.tasks {
		fn()
	}
}

// Close cancels in-flight work, drains the queue and stops the worker.
// Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	close(s.tasks)
	s.wg.Wait()
}

// FilterContext returns the screen's current filter scope.
func (s *Session) FilterContext() models.FilterContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fc
}

// SetFilterContext switches the screen to a new filter scope and notifies
// the selection coordinator, which may drop a select-all selection bound to
// the previous scope.
func (s *Session) SetFilterContext(fc models.FilterContext) {
	s.mu.Lock()
	s.fc = fc
	s.mu.Unlock()

	s.Selection.SetFilterContext(fc)
	s.syncSelectionMode()
	s.bus.Emit(models.EventTypeConversationsUpdated, "", nil)
}

// Conversations loads one page of the unpinned list for the current scope.
func (s *Session) Conversations(ctx context.Context, limit, offset int) ([]*models.Conversation, error) {
	return s.repo.List(ctx, s.FilterContext(), limit, offset)
}

// RefreshPins reloads the pinned row from the repository and hands it to the
// board. Mid-drag the board defers the refresh until the gesture resolves.
func (s *Session) RefreshPins(ctx context.Context) error {
	pinned, err := s.repo.ListPinned(ctx)
	if err != nil {
		return fmt.Errorf("refresh pins: %w", err)
	}
	titles := make([]string, len(pinned))
	for i, conv := range pinned {
		titles[i] = logging.ElideTitle(conv.Title)
	}
	s.logger.Debug().Strs("pins", titles).Msg("pin row refreshed")
	s.Board.Sync(pinned)
	return nil
}

// Pin pins a conversation at the end of the row. On success the screen gets
// a pinned event plus a scroll request targeting the new slot, then a fresh
// pin row.
func (s *Session) Pin(guid string) {
	s.Do(func() {
		position, err := s.repo.Pin(s.ctx, guid)
		if err != nil {
			s.emitError(guid, fmt.Errorf("pin conversation: %w", err))
			return
		}
		s.bus.Emit(models.EventTypeConversationPinned, guid, nil)
		s.bus.Emit(models.EventTypeScrollToIndex, guid, models.ScrollToIndexPayload{Index: position})
		if err := s.RefreshPins(s.ctx); err != nil {
			s.logger.Warn().Err(err).Msg("pin row refresh failed")
		}
	})
}

// Unpin removes a conversation from the pinned row outside of a drag
// gesture (context menu, keyboard).
func (s *Session) Unpin(guid string) {
	s.Do(func() {
		if err := s.repo.Unpin(s.ctx, guid); err != nil {
			s.emitError(guid, fmt.Errorf("unpin conversation: %w", err))
			return
		}
		s.bus.Emit(models.EventTypeConversationUnpinned, guid, nil)
		if err := s.RefreshPins(s.ctx); err != nil {
			s.logger.Warn().Err(err).Msg("pin row refresh failed")
		}
	})
}

// ToggleSelection flips one conversation in or out of the selection and
// keeps the board's drag suppression in step.
func (s *Session) ToggleSelection(guid string) {
	s.Selection.Toggle(guid)
	s.syncSelectionMode()
}

// SelectAll selects everything matching the current scope, or clears an
// existing select-all on the same scope.
func (s *Session) SelectAll(visible []*models.Conversation) {
	s.Selection.SelectAll(visible)
	s.syncSelectionMode()
}

// ClearSelection drops the selection and re-enables pin dragging.
func (s *Session) ClearSelection() {
	s.Selection.Clear()
	s.syncSelectionMode()
}

// ApplyBatch runs a batch action over the effective selection. The apply
// callback per action is the matching repository mutation; snooze uses the
// configured duration from the time the page is written.
func (s *Session) ApplyBatch(action models.BatchAction) error {
	apply, err := s.applyFor(action)
	if err != nil {
		return err
	}
	s.Selection.ApplyBatch(action, apply)
	s.Do(func() {
		s.syncSelectionMode()
		s.bus.Emit(models.EventTypeConversationsUpdated, "", nil)
	})
	return nil
}

func (s *Session) applyFor(action models.BatchAction) (selection.ApplyFunc, error) {
	switch action {
	case models.ActionMarkRead:
		return s.countless(s.repo.MarkRead), nil
	case models.ActionMarkUnread:
		return s.countless(s.repo.MarkUnread), nil
	case models.ActionArchive:
		return s.countless(s.repo.Archive), nil
	case models.ActionBlock:
		return s.countless(s.repo.Block), nil
	case models.ActionDelete:
		return s.countless(s.repo.Delete), nil
	case models.ActionSnooze:
		return func(ctx context.Context, guids []string) error {
			_, err := s.repo.Snooze(ctx, guids, time.Now().Add(s.snooze))
			return err
		}, nil
	default:
		return nil, fmt.Errorf("unknown batch action: %q", action)
	}
}

func (s *Session) countless(fn func(context.Context, []string) (int64, error)) selection.ApplyFunc {
	return func(ctx context.Context, guids []string) error {
		_, err := fn(ctx, guids)
		return err
	}
}

func (s *Session) syncSelectionMode() {
	state := s.Selection.Snapshot()
	s.Board.SetSelectionActive(state.SelectAllMode || state.Loading || state.Count > 0)
}

func (s *Session) emitError(guid string, err error) {
	logger := logging.WithConversation(guid)
	logger.Error().Err(err).Msg("screen operation failed")
	s.bus.Emit(models.EventTypeError, guid, models.ErrorPayload{Error: err.Error()})
}

// pinStore adapts the repository to the board's persistence interface.
type pinStore struct {
	repo Repository
}

func (p pinStore) PersistReorder(ctx context.Context, orderedGUIDs []string) error {
	return p.repo.ReorderPins(ctx, orderedGUIDs)
}

func (p pinStore) PersistUnpin(ctx context.Context, guid string) error {
	return p.repo.Unpin(ctx, guid)
}
