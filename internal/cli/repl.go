// Package cli is the terminal front end for a session.Controller.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/suPer8Hu/focusbot/internal/session"
)

// LineReader is the part of *liner.State the REPL uses.
type LineReader interface {
	Prompt(prompt string) (string, error)
	PasswordPrompt(prompt string) (string, error)
	AppendHistory(item string)
}

type REPL struct {
	ctrl     *session.Controller
	in       LineReader
	out      io.Writer
	renderer *lipgloss.Renderer
	styles   Styles
}

func New(ctrl *session.Controller, in LineReader, out io.Writer, renderer *lipgloss.Renderer) *REPL {
	r := &REPL{ctrl: ctrl, in: in, out: out, renderer: renderer}
	r.restyle()
	return r
}

func (r *REPL) restyle() {
	r.styles = NewStyles(r.renderer, r.ctrl.State().Theme)
}

func (r *REPL) print(s string) {
	_, _ = io.WriteString(r.out, s)
}

func (r *REPL) notice(s string) { r.print(r.styles.Notice.Render(s) + "\n") }
func (r *REPL) fail(err error)  { r.print(r.styles.Error.Render(err.Error()) + "\n") }

// Run reads lines until /quit, EOF or Ctrl+C.
func (r *REPL) Run(ctx context.Context) error {
	r.restyle()
	r.print(Welcome(r.ctrl.State(), r.styles))

	for {
		if ctx.Err() != nil {
			return nil
		}
		st := r.ctrl.State()
		line, err := r.in.Prompt(fmt.Sprintf("focusbot[%s]> ", st.SelectedSubject))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				r.print("\n")
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		r.in.AppendHistory(line)

		if quit := r.Exec(ctx, Parse(line)); quit {
			return nil
		}
	}
}

// Exec runs one command and reports whether the REPL should stop.
func (r *REPL) Exec(ctx context.Context, cmd Command) bool {
	switch cmd.Kind {
	case KindChat:
		r.chat(ctx, cmd.Arg)
	case KindSubjects:
		r.print(Subjects(r.ctrl.RefreshSubjects(ctx), r.styles))
	case KindUse:
		name := r.subjectArg(cmd.Arg)
		if err := r.ctrl.SelectSubject(name); err != nil {
			r.fail(err)
			return false
		}
		r.notice("Now studying " + name + ". Your next message starts a new conversation.")
	case KindAdd:
		if err := r.ctrl.CreateSubject(ctx, cmd.Arg); err != nil {
			r.fail(err)
			return false
		}
		r.notice("Added " + r.ctrl.State().SelectedSubject + ".")
	case KindDelete:
		name := r.subjectArg(cmd.Arg)
		if err := r.ctrl.DeleteSubject(ctx, name); err != nil {
			r.fail(err)
			return false
		}
		r.notice("Deleted " + name + ".")
		r.print(Subjects(r.ctrl.State(), r.styles))
	case KindHistory:
		r.history(ctx)
	case KindOpen:
		r.open(cmd.Arg)
	case KindForget:
		r.forget(ctx, cmd.Arg)
	case KindClear:
		if err := r.ctrl.ClearHistory(ctx); err != nil {
			r.fail(err)
			return false
		}
		r.notice("All chats deleted.")
	case KindLogin, KindSignup:
		r.authenticate(ctx, cmd)
	case KindLogout:
		r.ctrl.Logout(ctx)
		r.notice("Logged out.")
		r.print(Welcome(r.ctrl.State(), r.styles))
	case KindTheme:
		theme := r.ctrl.ToggleTheme()
		r.restyle()
		r.notice("Theme: " + string(theme))
	case KindHelp:
		r.print(helpText + "\n")
	case KindQuit:
		return true
	default:
		r.fail(fmt.Errorf("unknown command %s, try /help", cmd.Arg))
	}
	return false
}

// subjectArg accepts a subject name or its 1-based position in the list.
func (r *REPL) subjectArg(arg string) string {
	subjects := r.ctrl.State().Subjects
	if i, ok := Index(arg, len(subjects)); ok {
		return subjects[i]
	}
	return arg
}

func (r *REPL) chat(ctx context.Context, text string) {
	before := len(r.ctrl.State().Messages)
	r.print(r.styles.Muted.Render("FocusBot is typing...") + "\n")
	if !r.ctrl.SendMessage(ctx, text) {
		return
	}
	msgs := r.ctrl.State().Messages
	// the user line is already on screen
	if before+1 < len(msgs) {
		r.print(Thread(msgs[before+1:], r.styles))
	}
}

func (r *REPL) history(ctx context.Context) {
	if !r.ctrl.State().Authenticated() {
		r.notice("Log in to see your chat history.")
		return
	}
	if err := r.ctrl.RefreshHistory(ctx); err != nil {
		r.fail(err)
	}
	st := r.ctrl.State()
	r.print(HistorySummary(session.Summarize(st.History, st.Subjects), r.styles))
	r.print(HistoryList(st.History, r.styles))
}

func (r *REPL) open(arg string) {
	entries := r.ctrl.State().History
	i, ok := Index(arg, len(entries))
	if !ok {
		r.fail(errors.New("usage: /open <n>, see /history"))
		return
	}
	if err := r.ctrl.SelectHistory(entries[i].ID); err != nil {
		r.fail(err)
		return
	}
	st := r.ctrl.State()
	r.notice("Resumed " + st.SelectedSubject + " chat.")
	r.print(Thread(st.Messages, r.styles))
}

func (r *REPL) forget(ctx context.Context, arg string) {
	entries := r.ctrl.State().History
	i, ok := Index(arg, len(entries))
	if !ok {
		r.fail(errors.New("usage: /forget <n>, see /history"))
		return
	}
	if err := r.ctrl.DeleteHistory(ctx, entries[i].ID); err != nil {
		r.fail(err)
		return
	}
	r.notice("Chat deleted.")
}

func (r *REPL) authenticate(ctx context.Context, cmd Command) {
	email := cmd.Arg
	if email == "" {
		var err error
		if email, err = r.in.Prompt("Email: "); err != nil {
			return
		}
	}
	password, err := r.in.PasswordPrompt("Password: ")
	if err != nil {
		return
	}

	if cmd.Kind == KindSignup {
		err = r.ctrl.Signup(ctx, email, password)
	} else {
		err = r.ctrl.Login(ctx, email, password)
	}
	if err != nil {
		r.fail(err)
		return
	}
	r.notice("Signed in as " + r.ctrl.State().User.Email + ".")
}
