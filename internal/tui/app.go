// Package tui implements the Roost terminal UI: a conversation list with a
// draggable pinned row, selection mode and bulk actions.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roostchat/roost/internal/events"
	"github.com/roostchat/roost/internal/models"
	"github.com/roostchat/roost/internal/pinboard"
	"github.com/roostchat/roost/internal/screen"
)

const (
	defaultPageSize = 100
	eventBufferSize = 128
)

// Config wires the TUI to the rest of the application.
type Config struct {
	Repository screen.Repository
	Filter     models.FilterContext
	PageSize   int
	BatchPage  int
	Snooze     time.Duration
	ItemWidth  float64
	Threshold  float64
	Theme      string
	Compact    bool
}

// Mode is the interaction mode the list is in.
type Mode int

const (
	ModeNormal Mode = iota
	ModeDrag
	ModeActions
)

// Model is the root bubbletea model.
type Model struct {
	cfg     Config
	session *screen.Session
	bus     *events.InMemoryPublisher
	styles  Styles

	eventCh chan *models.Event

	width  int
	height int

	conversations []*models.Conversation
	cursor        int
	pinCursor     int
	onPins        bool
	mode          Mode
	actionCursor  int
	status        string
	loadErr       error
}

type eventMsg struct {
	event *models.Event
}

type conversationsMsg struct {
	conversations []*models.Conversation
	err           error
}

const busSubscriberID = "tui"

// NewModel builds the root model and its screen session.
func NewModel(ctx context.Context, cfg Config) (*Model, error) {
	if cfg.Repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}

	bus := events.NewInMemoryPublisher()
	session := screen.NewSession(ctx, screen.Config{
		Repository: cfg.Repository,
		Bus:        bus,
		PageSize:   cfg.BatchPage,
		Snooze:     cfg.Snooze,
		Metrics: pinboard.Metrics{
			ItemWidth:      cfg.ItemWidth,
			UnpinThreshold: cfg.Threshold,
		},
	})
	session.SetFilterContext(cfg.Filter)

	m := &Model{
		cfg:     cfg,
		session: session,
		bus:     bus,
		styles:  NewStyles(cfg.Theme),
		eventCh: make(chan *models.Event, eventBufferSize),
	}

	err := bus.Subscribe(busSubscriberID, events.Filter{}, func(event *models.Event) {
		select {
		case m.eventCh <- event:
		default:
			// UI events are advisory; dropping under backpressure is fine.
		}
	})
	if err != nil {
		session.Close()
		return nil, err
	}

	return m, nil
}

// Run starts the TUI and blocks until it exits.
func Run(ctx context.Context, cfg Config) error {
	model, err := NewModel(ctx, cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = program.Run()
	return err
}

// Close releases the screen session.
func (m *Model) Close() {
	_ = m.bus.Unsubscribe(busSubscriberID)
	m.session.Close()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadConversations(), m.refreshPins(), m.waitForEvent())
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg{event: <-m.eventCh}
	}
}

func (m *Model) loadConversations() tea.Cmd {
	return func() tea.Msg {
		conversations, err := m.session.Conversations(context.Background(), m.cfg.PageSize, 0)
		return conversationsMsg{conversations: conversations, err: err}
	}
}

func (m *Model) refreshPins() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.RefreshPins(context.Background()); err != nil {
			return conversationsMsg{err: err}
		}
		return nil
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil

	case conversationsMsg:
		if typed.err != nil {
			m.loadErr = typed.err
			return m, nil
		}
		if typed.conversations != nil {
			m.loadErr = nil
			m.conversations = typed.conversations
			m.clampCursor()
		}
		return m, nil

	case eventMsg:
		return m, tea.Batch(m.handleEvent(typed.event), m.waitForEvent())

	case tea.KeyMsg:
		return m.handleKey(typed)
	}

	return m, nil
}

func (m *Model) handleEvent(event *models.Event) tea.Cmd {
	if event == nil {
		return nil
	}
	switch event.Type {
	case models.EventTypeConversationsUpdated,
		models.EventTypeBatchComplete,
		models.EventTypeConversationPinned,
		models.EventTypeConversationUnpinned:
		if event.Type == models.EventTypeBatchComplete {
			m.status = batchStatus(event)
		}
		return tea.Batch(m.loadConversations(), m.refreshPins())
	case models.EventTypeBatchProgress:
		m.status = batchStatus(event)
		return nil
	case models.EventTypeSelectionChanged:
		return nil
	case models.EventTypeError:
		m.status = errorStatus(event)
		return nil
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeDrag:
		return m.handleDragKey(msg)
	case ModeActions:
		return m.handleActionKey(msg)
	}
	return m.handleNormalKey(msg)
}

func (m *Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "h", "left":
		if m.onPins {
			m.movePinCursor(-1)
		}
	case "l", "right":
		if m.onPins {
			m.movePinCursor(1)
		}

	case "tab":
		m.cycleFilter()
		return m, m.loadConversations()

	case " ":
		// Pinned rows are not selectable.
		if !m.onPins {
			if guid, ok := m.cursorGUID(); ok {
				m.session.ToggleSelection(guid)
			}
		}
	case "a":
		m.session.SelectAll(m.selectable())
	case "esc":
		m.session.ClearSelection()
		m.status = ""

	case "p":
		if guid, ok := m.cursorGUID(); ok {
			m.session.Pin(guid)
		}
	case "P":
		if guid, ok := m.pinCursorGUID(); ok {
			m.session.Unpin(guid)
		}

	case "g":
		if guid, ok := m.pinCursorGUID(); ok {
			startX := float64(m.pinCursor) * m.itemWidth()
			if m.session.Board.BeginDrag(guid, startX, 0) {
				m.mode = ModeDrag
			}
		}

	case "x":
		if m.session.Selection.Count() > 0 {
			m.mode = ModeActions
			m.actionCursor = 0
		}
	}
	return m, nil
}

// handleDragKey drives a keyboard drag: horizontal steps move one slot at a
// time, a downward step pulls toward the unpin threshold.
func (m *Model) handleDragKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		m.session.Board.Move(-m.itemWidth(), 0)
	case "l", "right":
		m.session.Board.Move(m.itemWidth(), 0)
	case "j", "down":
		m.session.Board.Move(0, m.threshold()/2)
	case "k", "up":
		m.session.Board.Move(0, -m.threshold()/2)
	case "enter":
		resolution := m.session.Board.EndDrag()
		m.mode = ModeNormal
		m.status = dragStatus(resolution)
		m.clampPinCursor()
	case "esc":
		m.session.Board.CancelDrag()
		m.mode = ModeNormal
		m.status = ""
	}
	return m, nil
}

func (m *Model) handleActionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	actions := models.ValidBatchActions
	switch msg.String() {
	case "j", "down":
		if m.actionCursor < len(actions)-1 {
			m.actionCursor++
		}
	case "k", "up":
		if m.actionCursor > 0 {
			m.actionCursor--
		}
	case "enter":
		m.mode = ModeNormal
		action := actions[m.actionCursor]
		if err := m.session.ApplyBatch(action); err != nil {
			m.status = err.Error()
		} else {
			m.status = fmt.Sprintf("%s running...", action)
		}
	case "esc", "x":
		m.mode = ModeNormal
	}
	return m, nil
}

func (m *Model) cycleFilter() {
	fc := m.session.FilterContext()
	for i, filter := range models.ValidFilters {
		if filter == fc.Filter {
			fc.Filter = models.ValidFilters[(i+1)%len(models.ValidFilters)]
			m.session.SetFilterContext(fc)
			return
		}
	}
	fc.Filter = models.FilterAll
	m.session.SetFilterContext(fc)
}

func (m *Model) moveCursor(delta int) {
	pins := len(m.session.Board.Order())
	if m.onPins {
		if delta > 0 {
			m.onPins = false
		}
		return
	}
	next := m.cursor + delta
	if next < 0 {
		if pins > 0 {
			m.onPins = true
			m.clampPinCursor()
		}
		return
	}
	if next >= len(m.conversations) {
		next = len(m.conversations) - 1
	}
	if next >= 0 {
		m.cursor = next
	}
}

func (m *Model) movePinCursor(delta int) {
	m.pinCursor += delta
	m.clampPinCursor()
}

func (m *Model) clampPinCursor() {
	pins := len(m.session.Board.Order())
	if m.pinCursor >= pins {
		m.pinCursor = pins - 1
	}
	if m.pinCursor < 0 {
		m.pinCursor = 0
	}
	if pins == 0 {
		m.onPins = false
	}
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.conversations) {
		m.cursor = len(m.conversations) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) cursorGUID() (string, bool) {
	if m.onPins {
		return m.pinCursorGUID()
	}
	if m.cursor < 0 || m.cursor >= len(m.conversations) {
		return "", false
	}
	return m.conversations[m.cursor].GUID, true
}

func (m *Model) pinCursorGUID() (string, bool) {
	order := m.session.Board.Order()
	if m.pinCursor < 0 || m.pinCursor >= len(order) {
		return "", false
	}
	return order[m.pinCursor].GUID, true
}

// selectable returns the visible rows that select-all may fall back to when
// its count query fails. Pinned rows are not selectable.
func (m *Model) selectable() []*models.Conversation {
	out := make([]*models.Conversation, 0, len(m.conversations))
	for _, conv := range m.conversations {
		if conv.IsPinned {
			continue
		}
		out = append(out, conv)
	}
	return out
}

func (m *Model) itemWidth() float64 {
	if m.cfg.ItemWidth > 0 {
		return m.cfg.ItemWidth
	}
	return pinboard.DefaultItemWidth
}

func (m *Model) threshold() float64 {
	if m.cfg.Threshold > 0 {
		return m.cfg.Threshold
	}
	return pinboard.DefaultUnpinThreshold
}

func (m *Model) View() string {
	header := m.renderHeader()
	pins := m.renderPins()
	footer := m.renderFooter()

	var body string
	if m.mode == ModeActions {
		body = m.renderActions()
	} else {
		contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(pins) - lipgloss.Height(footer)
		if contentHeight < 0 {
			contentHeight = 0
		}
		body = m.renderList(contentHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, pins, body, footer)
}
