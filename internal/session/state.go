// Package session holds the chat client's state and the controller that drives it.
package session

import (
	"github.com/suPer8Hu/focusbot/internal/client"
)

// FallbackReply is shown when the chat request got no usable answer.
const FallbackReply = "⚠️ Server error. Try again later."

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingReply
	PhaseSubjectSwitch
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingReply:
		return "awaitingReply"
	case PhaseSubjectSwitch:
		return "subjectSwitch"
	default:
		return "idle"
	}
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool { return t == ThemeLight || t == ThemeDark }

type User struct {
	Email string
}

// State is a value; transitions return a new State and never mutate slices
// shared with an earlier one.
type State struct {
	User                *User
	Subjects            []string
	SelectedSubject     string
	Messages            []client.Message
	ConversationStarted bool
	History             []client.HistoryEntry
	Typing              bool
	SwitchingSubject    bool
	Theme               Theme
}

func Initial(theme Theme) State {
	if !theme.Valid() {
		theme = ThemeLight
	}
	subjects := append([]string(nil), client.DefaultSubjects...)
	return State{
		Subjects:        subjects,
		SelectedSubject: subjects[0],
		Theme:           theme,
	}
}

func (s State) Phase() Phase {
	switch {
	case s.Typing:
		return PhaseAwaitingReply
	case s.SwitchingSubject:
		return PhaseSubjectSwitch
	default:
		return PhaseIdle
	}
}

func (s State) Authenticated() bool { return s.User != nil && s.User.Email != "" }

// Identity is the user value sent to the backend.
func (s State) Identity() string {
	if s.Authenticated() {
		return s.User.Email
	}
	return client.Guest
}

func (s State) HasSubject(name string) bool {
	for _, n := range s.Subjects {
		if n == name {
			return true
		}
	}
	return false
}

// Event is one state transition.
type Event interface {
	apply(State) State
}

// Apply returns the state after ev.
func (s State) Apply(ev Event) State {
	return ev.apply(s)
}

func appendMessage(msgs []client.Message, m client.Message) []client.Message {
	out := make([]client.Message, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, m)
}

type MessageSent struct{ Text string }

func (e MessageSent) apply(s State) State {
	s.Messages = appendMessage(s.Messages, client.Message{Sender: client.SenderUser, Text: e.Text})
	s.Typing = true
	return s
}

// ReplyReceived carries either the reply or the backend's error text.
type ReplyReceived struct{ Text string }

func (e ReplyReceived) apply(s State) State {
	s.Messages = appendMessage(s.Messages, client.Message{Sender: client.SenderBot, Text: e.Text})
	s.Typing = false
	s.ConversationStarted = true
	return s
}

// ReplyFailed means no response reached the client.
type ReplyFailed struct{}

func (ReplyFailed) apply(s State) State {
	s.Messages = appendMessage(s.Messages, client.Message{Sender: client.SenderBot, Text: FallbackReply})
	s.Typing = false
	return s
}

// ReplyDiscarded ends a wait whose reply belongs to a conversation that is
// no longer shown.
type ReplyDiscarded struct{}

func (ReplyDiscarded) apply(s State) State {
	s.Typing = false
	return s
}

type SubjectSelected struct{ Name string }

func (e SubjectSelected) apply(s State) State {
	s.SelectedSubject = e.Name
	s.ConversationStarted = false
	return s
}

// SubjectsLoaded replaces the list. An empty list means the defaults; a
// selection that is no longer listed moves to the first subject.
type SubjectsLoaded struct{ Subjects []string }

func (e SubjectsLoaded) apply(s State) State {
	list := e.Subjects
	if len(list) == 0 {
		list = client.DefaultSubjects
	}
	s.Subjects = append([]string(nil), list...)
	if !s.HasSubject(s.SelectedSubject) {
		s.SelectedSubject = s.Subjects[0]
		s.ConversationStarted = false
	}
	return s
}

type SubjectCreated struct{ Name string }

func (e SubjectCreated) apply(s State) State {
	return SubjectSelected{Name: e.Name}.apply(s)
}

// SubjectDeleted carries the list fetched after the delete. A nil list means
// the refresh failed; the current list minus Name is used instead.
type SubjectDeleted struct {
	Name     string
	Subjects []string
}

func (e SubjectDeleted) apply(s State) State {
	wasSelected := s.SelectedSubject == e.Name
	list := e.Subjects
	if list == nil {
		list = make([]string, 0, len(s.Subjects))
		for _, name := range s.Subjects {
			if name != e.Name {
				list = append(list, name)
			}
		}
	}
	s = SubjectsLoaded{Subjects: list}.apply(s)
	if wasSelected {
		s.SelectedSubject = s.Subjects[0]
		s.ConversationStarted = false
	}
	return s
}

type SubjectSwitchStarted struct{}

func (SubjectSwitchStarted) apply(s State) State {
	s.SwitchingSubject = true
	return s
}

type SubjectSwitchEnded struct{}

func (SubjectSwitchEnded) apply(s State) State {
	s.SwitchingSubject = false
	return s
}

type HistoryLoaded struct{ Entries []client.HistoryEntry }

func (e HistoryLoaded) apply(s State) State {
	s.History = append([]client.HistoryEntry(nil), e.Entries...)
	return s
}

// HistorySelected resumes a past conversation.
type HistorySelected struct{ Entry client.HistoryEntry }

func (e HistorySelected) apply(s State) State {
	if len(e.Entry.Conversation) > 0 {
		s.Messages = append([]client.Message(nil), e.Entry.Conversation...)
	} else {
		s.Messages = []client.Message{
			{Sender: client.SenderUser, Text: e.Entry.Message},
			{Sender: client.SenderBot, Text: e.Entry.Reply},
		}
	}
	s.SelectedSubject = e.Entry.Subject
	s.ConversationStarted = true
	return s
}

type LoggedIn struct{ Email string }

func (e LoggedIn) apply(s State) State {
	s.User = &User{Email: e.Email}
	return s
}

// LoggedOut resets everything scoped to the session; subjects and theme stay.
type LoggedOut struct{}

func (LoggedOut) apply(s State) State {
	s.User = nil
	s.Messages = nil
	s.History = nil
	s.ConversationStarted = false
	s.Typing = false
	s.SwitchingSubject = false
	return s
}

type ThemeToggled struct{}

func (ThemeToggled) apply(s State) State {
	if s.Theme == ThemeDark {
		s.Theme = ThemeLight
	} else {
		s.Theme = ThemeDark
	}
	return s
}
