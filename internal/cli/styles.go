package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/suPer8Hu/focusbot/internal/session"
)

// Styles is one palette, rebuilt whenever the theme changes.
type Styles struct {
	Title    lipgloss.Style
	Muted    lipgloss.Style
	User     lipgloss.Style
	Bot      lipgloss.Style
	Selected lipgloss.Style
	Subject  lipgloss.Style
	Error    lipgloss.Style
	Notice   lipgloss.Style
	Prompt   lipgloss.Style
}

type palette struct {
	accent, text, muted, user, bot, err, ok string
}

var palettes = map[session.Theme]palette{
	session.ThemeDark: {
		accent: "#7C9CFF", text: "#E6E6E6", muted: "#8A8F98",
		user: "#8BE9FD", bot: "#A6E3A1", err: "#FF6B6B", ok: "#F9E2AF",
	},
	session.ThemeLight: {
		accent: "#3451B2", text: "#1F2328", muted: "#6E7781",
		user: "#0969DA", bot: "#1A7F37", err: "#CF222E", ok: "#9A6700",
	},
}

// NewRenderer binds lipgloss to w. Pass termenv.Ascii to strip colour.
func NewRenderer(w io.Writer, profile termenv.Profile) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	return r
}

func NewStyles(r *lipgloss.Renderer, theme session.Theme) Styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[session.ThemeLight]
	}
	return Styles{
		Title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color(p.accent)),
		Muted:    r.NewStyle().Foreground(lipgloss.Color(p.muted)),
		User:     r.NewStyle().Bold(true).Foreground(lipgloss.Color(p.user)),
		Bot:      r.NewStyle().Bold(true).Foreground(lipgloss.Color(p.bot)),
		Selected: r.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color(p.accent)),
		Subject:  r.NewStyle().Foreground(lipgloss.Color(p.text)),
		Error:    r.NewStyle().Foreground(lipgloss.Color(p.err)),
		Notice:   r.NewStyle().Foreground(lipgloss.Color(p.ok)),
		Prompt:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(p.accent)),
	}
}
