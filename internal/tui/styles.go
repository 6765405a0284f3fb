package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles for one theme.
type Styles struct {
	Header       lipgloss.Style
	Footer       lipgloss.Style
	Status       lipgloss.Style
	Error        lipgloss.Style
	Row          lipgloss.Style
	RowSelected  lipgloss.Style
	RowCursor    lipgloss.Style
	Unread       lipgloss.Style
	Pin          lipgloss.Style
	PinCursor    lipgloss.Style
	PinDragging  lipgloss.Style
	PinUnpinning lipgloss.Style
	ActionItem   lipgloss.Style
	ActionCursor lipgloss.Style
}

// NewStyles returns the style set for the named theme. Unknown names fall
// back to the default palette.
func NewStyles(theme string) Styles {
	switch theme {
	case "high-contrast":
		return highContrastStyles()
	default:
		return defaultStyles()
	}
}

func defaultStyles() Styles {
	return Styles{
		Header:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Footer:       lipgloss.NewStyle().Faint(true),
		Status:       lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Row:          lipgloss.NewStyle(),
		RowSelected:  lipgloss.NewStyle().Foreground(lipgloss.Color("219")),
		RowCursor:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("237")),
		Unread:       lipgloss.NewStyle().Bold(true),
		Pin:          lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()),
		PinCursor:    lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")),
		PinDragging:  lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("213")),
		PinUnpinning: lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("203")),
		ActionItem:   lipgloss.NewStyle().Padding(0, 2),
		ActionCursor: lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("237")),
	}
}

func highContrastStyles() Styles {
	s := defaultStyles()
	s.Header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	s.RowSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("15"))
	s.RowCursor = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11"))
	s.Status = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	s.Error = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	return s
}
