package relay

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/focusbot/internal/ai"
	"github.com/suPer8Hu/focusbot/internal/history"
)

type recordingProvider struct {
	reply string
	err   error
	last  []ai.Message
}

func (p *recordingProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	// copy to avoid mutations
	p.last = append([]ai.Message(nil), messages...)
	return p.reply, p.err
}

type fakeContexts struct {
	turns []history.Turn
	err   error
	asked string
}

func (f *fakeContexts) Context(ctx context.Context, owner, subject string, window int) ([]history.Turn, error) {
	f.asked = owner + "/" + subject
	return f.turns, f.err
}

type fakeRecorder struct {
	records []history.Record
	err     error
}

func (f *fakeRecorder) Record(ctx context.Context, rec history.Record) error {
	f.records = append(f.records, rec)
	return f.err
}

func TestBuildPrompt(t *testing.T) {
	opening := BuildPrompt("Math", "What is a derivative?", false)
	assert.Contains(t, opening.System, "greeting the user warmly")
	assert.Contains(t, opening.System, "their Math tutor")
	assert.Equal(t, "What is a derivative?", opening.User)

	scoped := BuildPrompt("History", "Who was Caesar?", true)
	assert.Contains(t, scoped.System, "specialized in History")
	assert.Contains(t, scoped.System, "strictly within the context of History")
	assert.NotContains(t, scoped.System, "greeting")
}

func TestCleanReply(t *testing.T) {
	assert.Equal(t, "Answer.", CleanReply("<think>\nlet me\nreason\n</think>\n\n Answer. "))
	assert.Equal(t, "a b", CleanReply("a<think>x</think> b"))
	assert.Equal(t, "", CleanReply("<think>only thoughts</think>"))
}

func TestIsRedirect(t *testing.T) {
	assert.True(t, IsRedirect("Sorry, I can only help with Math."))
	assert.True(t, IsRedirect("That is UNRELATED to science."))
	assert.False(t, IsRedirect("A derivative measures the rate of change."))
}

func TestReply_GuestIsStateless(t *testing.T) {
	prov := &recordingProvider{reply: "A derivative measures..."}
	rec := &fakeRecorder{}
	ctxs := &fakeContexts{}
	svc := NewService(prov, ctxs, rec, 20, nil)

	res, err := svc.Reply(context.Background(), Request{Subject: "Math", Message: "What is a derivative?", ConversationStarted: true})
	require.NoError(t, err)
	assert.Equal(t, "A derivative measures...", res.Reply)
	assert.False(t, res.Saved)
	assert.Empty(t, rec.records)
	assert.Empty(t, ctxs.asked)

	require.Len(t, prov.last, 2)
	assert.Equal(t, ai.RoleSystem, prov.last[0].Role)
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "What is a derivative?"}, prov.last[1])
}

func TestReply_ContinuationUsesContextAndRecords(t *testing.T) {
	prov := &recordingProvider{reply: "<think>hmm</think>It is 4."}
	rec := &fakeRecorder{}
	ctxs := &fakeContexts{turns: []history.Turn{
		{Sender: history.SenderUser, Text: "hi"},
		{Sender: history.SenderBot, Text: "hello"},
	}}
	svc := NewService(prov, ctxs, rec, 20, nil)

	res, err := svc.Reply(context.Background(), Request{
		User: "ada@example.com", Subject: " Math ", Message: "2+2?", ConversationStarted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "It is 4.", res.Reply)
	assert.True(t, res.Saved)
	assert.Equal(t, "ada@example.com/Math", ctxs.asked)

	require.Len(t, prov.last, 4)
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "hi"}, prov.last[1])
	assert.Equal(t, ai.Message{Role: ai.RoleAssistant, Content: "hello"}, prov.last[2])
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "2+2?"}, prov.last[3])

	require.Len(t, rec.records, 1)
	r := rec.records[0]
	assert.Equal(t, "ada@example.com", r.User)
	assert.Equal(t, "Math", r.Subject)
	assert.Equal(t, "2+2?", r.Message)
	assert.Equal(t, "It is 4.", r.Reply)
	assert.True(t, r.Continue)
	assert.False(t, r.At.IsZero())
}

func TestReply_NewConversationSkipsContext(t *testing.T) {
	prov := &recordingProvider{reply: "Hi, I'm your Science tutor."}
	ctxs := &fakeContexts{}
	rec := &fakeRecorder{}
	svc := NewService(prov, ctxs, rec, 20, nil)

	_, err := svc.Reply(context.Background(), Request{User: "ada", Subject: "Science", Message: "hello"})
	require.NoError(t, err)
	assert.Empty(t, ctxs.asked)
	require.Len(t, rec.records, 1)
	assert.False(t, rec.records[0].Continue)
}

func TestReply_RedirectNotSaved(t *testing.T) {
	rec := &fakeRecorder{}
	svc := NewService(&recordingProvider{reply: "Sorry, let's focus on Math instead."}, nil, rec, 20, nil)

	res, err := svc.Reply(context.Background(), Request{User: "ada", Subject: "Math", Message: "Who won the cup?"})
	require.NoError(t, err)
	assert.True(t, res.Redirect)
	assert.False(t, res.Saved)
	assert.Empty(t, rec.records)
}

func TestReply_Errors(t *testing.T) {
	svc := NewService(&recordingProvider{reply: "x"}, nil, nil, 20, nil)
	_, err := svc.Reply(context.Background(), Request{Subject: "Math", Message: "   "})
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.Reply(context.Background(), Request{Subject: "", Message: "hi"})
	assert.ErrorIs(t, err, ErrMissingFields)

	failing := NewService(&recordingProvider{err: errors.New("upstream 429: quota exceeded for key abc")}, nil, nil, 20, nil)
	_, err = failing.Reply(context.Background(), Request{Subject: "Math", Message: "hi"})
	assert.ErrorIs(t, err, ErrProvider)
	assert.False(t, strings.Contains(err.Error(), "quota"), "provider detail must not leak")

	empty := NewService(&recordingProvider{reply: "<think>...</think>"}, nil, nil, 20, nil)
	_, err = empty.Reply(context.Background(), Request{Subject: "Math", Message: "hi"})
	assert.ErrorIs(t, err, ErrProvider)
}

func TestReply_RecorderFailureStillReplies(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	ctxs := &fakeContexts{err: errors.New("db down")}
	svc := NewService(&recordingProvider{reply: "ok"}, ctxs, rec, 20, nil)

	res, err := svc.Reply(context.Background(), Request{User: "ada", Subject: "Math", Message: "hi", ConversationStarted: true})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Reply)
	assert.False(t, res.Saved)
}
