// ABOUTME: Shared lipgloss styles for CLI output
// ABOUTME: Keeps status glyphs and colors consistent across commands
package cli

import "github.com/charmbracelet/lipgloss"

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

func ok(msg string) string   { return successStyle.Render("✓ " + msg) }
func fail(msg string) string { return errorStyle.Render("✗ " + msg) }
func warn(msg string) string { return warnStyle.Render("! " + msg) }
