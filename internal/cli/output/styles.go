package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used by text output.
type Styles struct {
	Header1   lipgloss.Style
	Header2   lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Info      lipgloss.Style
	Column    lipgloss.Style
	TablePath lipgloss.Style
	Masked    lipgloss.Style
}

// NewStyles builds styles bound to a lipgloss renderer, so the renderer's
// color profile decides whether escape codes are emitted.
func NewStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		Header2:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:      lr.NewStyle().Bold(true),
		Muted:     lr.NewStyle().Foreground(lipgloss.Color("8")),
		Success:   lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:   lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:     lr.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Info:      lr.NewStyle().Foreground(lipgloss.Color("12")),
		Column:    lr.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		TablePath: lr.NewStyle().Foreground(lipgloss.Color("6")),
		Masked:    lr.NewStyle().Foreground(lipgloss.Color("11")).Italic(true),
	}
}
