package widget

import "github.com/charmbracelet/lipgloss"

// Theme is one colour scheme of the widget.
type Theme struct {
	Name     string
	Title    lipgloss.Style
	Bot      lipgloss.Style
	User     lipgloss.Style
	Typing   lipgloss.Style
	Option   lipgloss.Style
	Selected lipgloss.Style
	Field    lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
	Box      lipgloss.Style
}

func newTheme(dark bool) Theme {
	if dark {
		return Theme{
			Name:     "dark",
			Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#1F2937")).Padding(0, 1),
			Bot:      lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB")),
			User:     lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Bold(true),
			Typing:   lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Italic(true),
			Option:   lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB")),
			Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")).Bold(true),
			Field:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
			Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")),
			Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
			Box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#374151")).Padding(0, 1),
		}
	}
	return Theme{
		Name:     "light",
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#111827")).Background(lipgloss.Color("#E5E7EB")).Padding(0, 1),
		Bot:      lipgloss.NewStyle().Foreground(lipgloss.Color("#1F2937")),
		User:     lipgloss.NewStyle().Foreground(lipgloss.Color("#1D4ED8")).Bold(true),
		Typing:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true),
		Option:   lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("#047857")).Bold(true),
		Field:    lipgloss.NewStyle().Foreground(lipgloss.Color("#B45309")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#B91C1C")),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		Box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#D1D5DB")).Padding(0, 1),
	}
}
