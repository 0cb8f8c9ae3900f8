package chat

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	you    lipgloss.Style
	bot    lipgloss.Style
	note   lipgloss.Style
	warn   lipgloss.Style
	errorS lipgloss.Style
	label  lipgloss.Style
}

// newStyles binds styles to w so colour is only emitted for terminals.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		you:    r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		bot:    r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		note:   r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("214")),
		errorS: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		label:  r.NewStyle().Foreground(lipgloss.Color("245")),
	}
}
