package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roostchat/roost/internal/models"
	"github.com/roostchat/roost/internal/pinboard"
)

func (m *Model) renderHeader() string {
	fc := m.session.FilterContext()
	state := m.session.Selection.Snapshot()

	title := fmt.Sprintf("roost  %s", fc.String())
	if state.Loading {
		title += "  [selecting...]"
	} else if state.Count > 0 {
		if state.SelectAllMode {
			title += fmt.Sprintf("  [%d selected, all matching]", state.Count)
		} else {
			title += fmt.Sprintf("  [%d selected]", state.Count)
		}
	}
	return m.styles.Header.Render(title)
}

func (m *Model) renderPins() string {
	order := m.session.Board.Order()
	if len(order) == 0 {
		return ""
	}

	overlay, dragging := m.session.Board.Overlay()

	cells := make([]string, 0, len(order))
	for i, conv := range order {
		label := truncateTitle(conv.Title, 14)
		style := m.styles.Pin
		switch {
		case dragging && conv.GUID == overlay.GUID:
			style = m.styles.PinDragging
			if overlay.UnpinProgress > 0 {
				style = m.styles.PinUnpinning
				label = fmt.Sprintf("%s %d%%", label, int(overlay.UnpinProgress*100))
			}
		case m.onPins && i == m.pinCursor:
			style = m.styles.PinCursor
		}
		cells = append(cells, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *Model) renderList(height int) string {
	if m.loadErr != nil {
		return m.styles.Error.Render(fmt.Sprintf("load failed: %v", m.loadErr))
	}
	if len(m.conversations) == 0 {
		return m.styles.Footer.Render("no conversations match this filter")
	}

	rows := make([]string, 0, len(m.conversations))
	for i, conv := range m.conversations {
		if height > 0 && i >= height {
			break
		}
		rows = append(rows, m.renderRow(i, conv))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderRow(index int, conv *models.Conversation) string {
	marker := "  "
	if m.session.Selection.Selected(conv.GUID) {
		marker = "* "
	}

	title := conv.Title
	if conv.IsGroup {
		title += " (group)"
	}

	badge := ""
	if conv.UnreadCount > 0 {
		badge = fmt.Sprintf(" [%d]", conv.UnreadCount)
	}

	line := marker + title + badge

	style := m.styles.Row
	switch {
	case !m.onPins && index == m.cursor:
		style = m.styles.RowCursor
	case m.session.Selection.Selected(conv.GUID):
		style = m.styles.RowSelected
	case conv.UnreadCount > 0:
		style = m.styles.Unread
	}
	return style.Render(line)
}

func (m *Model) renderActions() string {
	lines := make([]string, 0, len(models.ValidBatchActions)+1)
	lines = append(lines, m.styles.Header.Render(fmt.Sprintf("apply to %d conversation(s):", m.session.Selection.Count())))
	for i, action := range models.ValidBatchActions {
		style := m.styles.ActionItem
		if i == m.actionCursor {
			style = m.styles.ActionCursor
		}
		lines = append(lines, style.Render(string(action)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	var help string
	switch m.mode {
	case ModeDrag:
		help = "h/l move slot  j pull down to unpin  enter drop  esc cancel"
	case ModeActions:
		help = "j/k choose action  enter apply  esc back"
	default:
		help = "j/k move  tab filter  space select  a select all  p pin  g drag pin  x actions  q quit"
	}

	if m.status == "" {
		return m.styles.Footer.Render(help)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Status.Render(m.status),
		m.styles.Footer.Render(help),
	)
}

func truncateTitle(title string, max int) string {
	runes := []rune(title)
	if len(runes) <= max {
		return title
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

func batchStatus(event *models.Event) string {
	switch event.Type {
	case models.EventTypeBatchProgress:
		var payload models.BatchProgressPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return ""
		}
		return fmt.Sprintf("%s: %d/%d", payload.Action, payload.Processed, payload.Total)
	case models.EventTypeBatchComplete:
		var payload models.BatchCompletePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return ""
		}
		if payload.Partial {
			return fmt.Sprintf("%s stopped after %d conversation(s)", payload.Action, payload.Count)
		}
		return fmt.Sprintf("%s applied to %d conversation(s)", payload.Action, payload.Count)
	}
	return ""
}

func errorStatus(event *models.Event) string {
	var payload models.ErrorPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil || payload.Error == "" {
		return "operation failed"
	}
	return payload.Error
}

func dragStatus(resolution pinboard.Resolution) string {
	switch resolution {
	case pinboard.ResolutionReorder:
		return "pins reordered"
	case pinboard.ResolutionUnpin:
		return "unpinned"
	default:
		return ""
	}
}
