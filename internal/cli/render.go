package cli

import (
	"fmt"
	"strings"

	"github.com/suPer8Hu/focusbot/internal/client"
	"github.com/suPer8Hu/focusbot/internal/session"
)

// Welcome is shown while the thread is empty.
func Welcome(st session.State, s Styles) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("Welcome to FocusBot"))
	b.WriteString("\n")
	who := "guest"
	if st.Authenticated() {
		who = st.User.Email
	}
	fmt.Fprintf(&b, "%s\n", s.Muted.Render("Signed in as "+who+". Your tutor for "+st.SelectedSubject+" is ready."))
	b.WriteString(s.Muted.Render("Type a question to start, or /help for commands."))
	b.WriteString("\n")
	return b.String()
}

// Subjects lists the subjects, marking the selected one.
func Subjects(st session.State, s Styles) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("Subjects"))
	b.WriteString("\n")
	for i, name := range st.Subjects {
		marker := "  "
		line := s.Subject.Render(name)
		if name == st.SelectedSubject {
			marker = "> "
			line = s.Selected.Render(name)
		}
		tag := ""
		if !client.IsDefaultSubject(name) {
			tag = s.Muted.Render(" (custom)")
		}
		fmt.Fprintf(&b, "%s%2d. %s%s\n", marker, i+1, line, tag)
	}
	return b.String()
}

// HistorySummary renders the latest chat per subject.
func HistorySummary(sum session.Summary, s Styles) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("Recent chats"))
	b.WriteString("\n")
	if sum.Empty {
		b.WriteString(s.Muted.Render(session.EmptySummary))
		b.WriteString("\n")
	}
	for _, it := range sum.Items {
		if !it.HasHistory() {
			fmt.Fprintf(&b, "  %s  %s %s\n", s.Subject.Render(it.Subject),
				s.Muted.Render(session.PlaceholderTitle+"."), s.Muted.Render(session.PlaceholderHint))
			continue
		}
		fmt.Fprintf(&b, "  %s  %s %s\n", s.Subject.Render(it.Subject),
			truncate(it.Entry.Message, 48), s.Muted.Render(when(*it.Entry)))
	}
	return b.String()
}

// HistoryList numbers every entry for /open and /forget.
func HistoryList(entries []client.HistoryEntry, s Styles) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("History"))
	b.WriteString("\n")
	if len(entries) == 0 {
		b.WriteString(s.Muted.Render(session.EmptySummary))
		b.WriteString("\n")
		return b.String()
	}
	for i, e := range entries {
		fmt.Fprintf(&b, "%3d. [%s] %s %s\n", i+1, e.Subject, truncate(e.Message, 56), s.Muted.Render(when(e)))
	}
	return b.String()
}

// Thread renders the active conversation.
func Thread(msgs []client.Message, s Styles) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(Message(m, s))
	}
	return b.String()
}

func Message(m client.Message, s Styles) string {
	if m.Sender == client.SenderUser {
		return s.User.Render("You") + ": " + m.Text + "\n"
	}
	return s.Bot.Render("FocusBot") + ": " + m.Text + "\n"
}

func when(e client.HistoryEntry) string {
	if e.FormattedTime != "" {
		return e.FormattedTime
	}
	if e.Timestamp.IsZero() {
		return ""
	}
	return e.Timestamp.Local().Format("Jan 02, 2006 at 03:04 PM")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
