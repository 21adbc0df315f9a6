package helpers

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)

// Heading writes a styled section heading.
func Heading(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf(format, args...)))
}

// Warning writes a styled warning line.
func Warning(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, warningStyle.Render("warning: "+fmt.Sprintf(format, args...)))
}

// Failure writes a styled error line.
func Failure(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, errorStyle.Render("error: "+fmt.Sprintf(format, args...)))
}
