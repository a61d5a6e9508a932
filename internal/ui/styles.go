// Package ui provides terminal styling for kuzumem CLI output, with
// adaptive light/dark colors and a plain fallback for non-TTY output.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	ColorPass  = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorFail  = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	failStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	accentStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
)

const (
	IconPass = "✓"
	IconFail = "✗"
)

// IsTTY reports whether stdout is a terminal; callers skip styling when not.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func render(style lipgloss.Style, s string) string {
	if !IsTTY() {
		return s
	}
	return style.Render(s)
}

// Pass renders success text in green.
func Pass(s string) string { return render(passStyle, s) }

// Fail renders failure text in red.
func Fail(s string) string { return render(failStyle, s) }

// Muted renders secondary text in gray.
func Muted(s string) string { return render(mutedStyle, s) }

// Header renders a bold accent header.
func Header(s string) string { return render(accentStyle, s) }
