package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/suPer8Hu/focusbot/internal/client"
	"go.uber.org/zap"
)

const (
	msgNetwork        = "Network error. Please try again."
	msgLoginFailed    = "Login failed. Please try again."
	msgSignupFailed   = "Signup failed. Please try again."
	msgAddSubject     = "Failed to add subject. Please try again."
	msgDeleteSubject  = "Failed to delete subject. Please try again."
	msgDeleteChat     = "Failed to delete chat. Please try again."
	msgLoadHistory    = "Failed to load chat history. Please try again."
	msgLoginRequired  = "Please log in to manage chat history."
	msgUnknownSubject = "Unknown subject."
)

// API is the slice of the HTTP client the controller drives.
type API interface {
	SetToken(token string)
	Login(ctx context.Context, email, password string) (string, error)
	Signup(ctx context.Context, email, password string) (string, error)
	Chat(ctx context.Context, req client.ChatRequest) (client.ChatResponse, error)
	ListSubjects(ctx context.Context, user string) ([]string, error)
	CreateSubject(ctx context.Context, name, user string) (string, error)
	DeleteSubject(ctx context.Context, name, user string) error
	ListHistory(ctx context.Context, user string) ([]client.HistoryEntry, error)
	DeleteHistory(ctx context.Context, id, user string) error
	ClearHistory(ctx context.Context, user string) (int64, error)
}

// Notice is an error whose text is meant for the user. Err is the cause.
type Notice struct {
	Msg string
	Err error
}

func (n *Notice) Error() string { return n.Msg }
func (n *Notice) Unwrap() error { return n.Err }

func notice(err error, fallback string) error {
	return &Notice{Msg: client.UserMessage(err, fallback, msgNetwork), Err: err}
}

// Controller serialises every transition behind one mutex. Network calls
// run outside the lock; the pending-reply guard keeps sends from overlapping.
type Controller struct {
	api   API
	store Storage
	log   *zap.Logger

	prefersDark func() bool

	mu    sync.Mutex
	state State
	// epoch moves whenever the conversation a pending reply belongs to is
	// replaced; sends counts chat requests.
	epoch uint64
	sends uint64
}

// NewController accepts a nil log and a nil prefersDark (light by default).
func NewController(api API, store Storage, log *zap.Logger, prefersDark func() bool) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if prefersDark == nil {
		prefersDark = func() bool { return false }
	}
	return &Controller{
		api:         api,
		store:       store,
		log:         log,
		prefersDark: prefersDark,
		state:       Initial(ThemeLight),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) apply(evs ...Event) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range evs {
		c.applyLocked(ev)
	}
	return c.state
}

func (c *Controller) applyLocked(ev Event) {
	prev := c.state
	c.state = c.state.Apply(ev)
	switch ev.(type) {
	case LoggedIn, LoggedOut, HistorySelected, SubjectSelected, SubjectCreated:
		c.epoch++
		return
	}
	if prev.SelectedSubject != c.state.SelectedSubject {
		c.epoch++
	}
}

// RestoreSession loads the theme and, when both token and email are stored,
// the user, without asking the server. It then loads subjects and history.
func (c *Controller) RestoreSession(ctx context.Context) bool {
	theme := Theme("")
	if v, ok := c.store.Get(KeyTheme); ok {
		theme = Theme(v)
	}
	if !theme.Valid() {
		theme = ThemeLight
		if c.prefersDark() {
			theme = ThemeDark
		}
		if err := c.store.Set(KeyTheme, string(theme)); err != nil {
			c.log.Warn("persist theme", zap.Error(err))
		}
	}

	c.mu.Lock()
	c.state.Theme = theme
	c.mu.Unlock()

	token, okTok := c.store.Get(KeyToken)
	email, okEmail := c.store.Get(KeyEmail)
	restored := okTok && okEmail && token != "" && email != ""
	if restored {
		c.api.SetToken(token)
		c.apply(LoggedIn{Email: email})
	}

	c.RefreshSubjects(ctx)
	if restored {
		if err := c.RefreshHistory(ctx); err != nil {
			c.log.Warn("restore history", zap.Error(err))
		}
	}
	return restored
}

func (c *Controller) Login(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, email, password, c.api.Login, msgLoginFailed)
}

func (c *Controller) Signup(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, email, password, c.api.Signup, msgSignupFailed)
}

func (c *Controller) authenticate(ctx context.Context, email, password string,
	call func(ctx context.Context, email, password string) (string, error), fallback string) error {
	email = strings.TrimSpace(email)
	token, err := call(ctx, email, password)
	if err != nil {
		c.log.Info("authentication failed", zap.String("email", email), zap.Error(err))
		return notice(err, fallback)
	}

	// token and email are written together
	if err := c.store.Set(KeyToken, token); err != nil {
		c.log.Warn("persist token", zap.Error(err))
	} else if err := c.store.Set(KeyEmail, email); err != nil {
		c.log.Warn("persist email", zap.Error(err))
		_ = c.store.Delete(KeyToken)
	}
	c.api.SetToken(token)
	c.apply(LoggedIn{Email: email})

	c.RefreshSubjects(ctx)
	if err := c.RefreshHistory(ctx); err != nil {
		c.log.Warn("load history after login", zap.Error(err))
	}
	return nil
}

// Logout is a full reset: credentials leave storage, session state clears,
// and subjects are re-listed as guest.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.store.Delete(KeyToken, KeyEmail); err != nil {
		c.log.Warn("clear credentials", zap.Error(err))
	}
	c.api.SetToken("")
	c.apply(LoggedOut{})
	c.RefreshSubjects(ctx)
}

// SendMessage returns false when text is blank or a reply is still pending.
func (c *Controller) SendMessage(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	c.mu.Lock()
	if c.state.Typing {
		c.mu.Unlock()
		return false
	}
	c.applyLocked(MessageSent{Text: text})
	c.sends++
	epoch, send := c.epoch, c.sends
	req := client.ChatRequest{
		Message:             text,
		Subject:             c.state.SelectedSubject,
		User:                c.state.Identity(),
		ConversationStarted: c.state.ConversationStarted,
	}
	authed := c.state.Authenticated()
	c.mu.Unlock()

	resp, err := c.api.Chat(ctx, req)

	c.mu.Lock()
	if c.epoch != epoch {
		// logged out or switched away while waiting
		if c.sends == send {
			c.applyLocked(ReplyDiscarded{})
		}
		c.mu.Unlock()
		c.log.Info("dropping stale reply", zap.String("subject", req.Subject))
		return true
	}
	if err != nil {
		c.applyLocked(ReplyFailed{})
		c.mu.Unlock()
		c.log.Warn("chat request failed", zap.String("subject", req.Subject), zap.Error(err))
		return true
	}
	reply := resp.Reply
	if reply == "" {
		reply = resp.Error
	}
	c.applyLocked(ReplyReceived{Text: reply})
	c.mu.Unlock()

	if authed && resp.Reply != "" {
		if err := c.RefreshHistory(ctx); err != nil {
			c.log.Warn("refresh history after reply", zap.Error(err))
		}
	}
	return true
}

// SelectSubject keeps the message list; the next send opens a new thread.
func (c *Controller) SelectSubject(name string) error {
	name = strings.TrimSpace(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.HasSubject(name) {
		return &Notice{Msg: msgUnknownSubject}
	}
	for _, ev := range []Event{SubjectSwitchStarted{}, SubjectSelected{Name: name}, SubjectSwitchEnded{}} {
		c.applyLocked(ev)
	}
	return nil
}

// RefreshSubjects never fails: any error falls back to the defaults.
func (c *Controller) RefreshSubjects(ctx context.Context) State {
	return c.apply(SubjectsLoaded{Subjects: c.fetchSubjects(ctx)})
}

func (c *Controller) fetchSubjects(ctx context.Context) []string {
	subjects, err := c.api.ListSubjects(ctx, c.State().Identity())
	if err != nil {
		c.log.Warn("list subjects, using defaults", zap.Error(err))
		return client.DefaultSubjects
	}
	return subjects
}

// CreateSubject re-lists and selects the new subject. On failure state is
// unchanged so the caller can retry.
func (c *Controller) CreateSubject(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return notice(&client.ValidationError{Msg: "Subject name is required"}, msgAddSubject)
	}
	created, err := c.api.CreateSubject(ctx, name, c.State().Identity())
	if err != nil {
		c.log.Info("create subject failed", zap.String("subject", name), zap.Error(err))
		return notice(err, msgAddSubject)
	}
	c.RefreshSubjects(ctx)
	c.apply(SubjectCreated{Name: created})
	return nil
}

func (c *Controller) DeleteSubject(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return notice(&client.ValidationError{Msg: "Subject name is required"}, msgDeleteSubject)
	}
	if client.IsDefaultSubject(name) {
		return &Notice{Msg: "Cannot delete default subjects."}
	}
	if err := c.api.DeleteSubject(ctx, name, c.State().Identity()); err != nil {
		c.log.Info("delete subject failed", zap.String("subject", name), zap.Error(err))
		return notice(err, msgDeleteSubject)
	}
	subjects, err := c.api.ListSubjects(ctx, c.State().Identity())
	if err != nil {
		// the delete went through; drop the name locally
		c.log.Warn("list subjects after delete", zap.Error(err))
		subjects = nil
	}
	c.apply(SubjectDeleted{Name: name, Subjects: subjects})
	return nil
}

// RefreshHistory is a no-op for guests. On failure the loaded history stays.
func (c *Controller) RefreshHistory(ctx context.Context) error {
	st := c.State()
	if !st.Authenticated() {
		return nil
	}
	entries, err := c.api.ListHistory(ctx, st.Identity())
	if err != nil {
		return notice(err, msgLoadHistory)
	}
	c.apply(HistoryLoaded{Entries: entries})
	return nil
}

func (c *Controller) DeleteHistory(ctx context.Context, id string) error {
	st := c.State()
	if !st.Authenticated() {
		return &Notice{Msg: msgLoginRequired}
	}
	if err := c.api.DeleteHistory(ctx, id, st.Identity()); err != nil {
		c.log.Info("delete chat failed", zap.String("id", id), zap.Error(err))
		return notice(err, msgDeleteChat)
	}
	return c.RefreshHistory(ctx)
}

func (c *Controller) ClearHistory(ctx context.Context) error {
	st := c.State()
	if !st.Authenticated() {
		return &Notice{Msg: msgLoginRequired}
	}
	if _, err := c.api.ClearHistory(ctx, st.Identity()); err != nil {
		return notice(err, msgDeleteChat)
	}
	return c.RefreshHistory(ctx)
}

var ErrNoSuchEntry = errors.New("no such history entry")

// SelectHistory resumes the entry with the given id.
func (c *Controller) SelectHistory(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.state.History {
		if e.ID == id {
			c.applyLocked(HistorySelected{Entry: e})
			return nil
		}
	}
	return ErrNoSuchEntry
}

func (c *Controller) ToggleTheme() Theme {
	st := c.apply(ThemeToggled{})
	if err := c.store.Set(KeyTheme, string(st.Theme)); err != nil {
		c.log.Warn("persist theme", zap.Error(err))
	}
	return st.Theme
}
