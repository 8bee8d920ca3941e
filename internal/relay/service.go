package relay

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/suPer8Hu/focusbot/internal/ai"
	"github.com/suPer8Hu/focusbot/internal/history"
	"go.uber.org/zap"
)

// Guest is the identity of unauthenticated callers.
const Guest = "guest"

var (
	ErrMissingFields = errors.New("both message and subject are required")
	// ErrProvider hides the provider's own error from callers.
	ErrProvider = errors.New("failed to get a response from the AI model")
)

// ContextSource supplies prior turns for a continued conversation.
type ContextSource interface {
	Context(ctx context.Context, owner, subject string, window int) ([]history.Turn, error)
}

// Recorder persists a finished exchange, synchronously or through a queue.
type Recorder interface {
	Record(ctx context.Context, rec history.Record) error
}

type Request struct {
	User                string
	Subject             string
	Message             string
	ConversationStarted bool
}

type Result struct {
	Reply    string
	Redirect bool
	Saved    bool
}

type Service struct {
	provider          ai.Provider
	contexts          ContextSource
	recorder          Recorder
	contextWindowSize int
	log               *zap.Logger
	now               func() time.Time
}

// NewService accepts nil contexts and recorder; the relay then runs stateless.
func NewService(provider ai.Provider, contexts ContextSource, recorder Recorder, contextWindowSize int, log *zap.Logger) *Service {
	if contextWindowSize <= 0 || contextWindowSize > 100 {
		contextWindowSize = 20
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		provider:          provider,
		contexts:          contexts,
		recorder:          recorder,
		contextWindowSize: contextWindowSize,
		log:               log,
		now:               time.Now,
	}
}

func (s *Service) Reply(ctx context.Context, req Request) (Result, error) {
	req.Message = strings.TrimSpace(req.Message)
	req.Subject = strings.TrimSpace(req.Subject)
	if req.User == "" {
		req.User = Guest
	}
	if req.Message == "" || req.Subject == "" {
		return Result{}, ErrMissingFields
	}

	// 1) persona + scope
	p := BuildPrompt(req.Subject, req.Message, req.ConversationStarted)
	msgs := []ai.Message{{Role: ai.RoleSystem, Content: p.System}}

	// 2) prior turns when continuing a saved thread
	if req.ConversationStarted && req.User != Guest && s.contexts != nil {
		turns, err := s.contexts.Context(ctx, req.User, req.Subject, s.contextWindowSize)
		if err != nil {
			// the reply is still useful without context
			s.log.Warn("load conversation context", zap.String("user", req.User), zap.String("subject", req.Subject), zap.Error(err))
		}
		for _, t := range turns {
			role := ai.RoleUser
			if t.Sender == history.SenderBot {
				role = ai.RoleAssistant
			}
			msgs = append(msgs, ai.Message{Role: role, Content: t.Text})
		}
	}
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: p.User})

	// 3) call provider
	start := s.now()
	raw, err := s.provider.Chat(ctx, msgs)
	if err != nil {
		s.log.Error("provider call failed",
			zap.String("subject", req.Subject),
			zap.Duration("cost", s.now().Sub(start)),
			zap.Error(err),
		)
		return Result{}, ErrProvider
	}
	reply := CleanReply(raw)
	if reply == "" {
		s.log.Error("provider returned an empty reply", zap.String("subject", req.Subject))
		return Result{}, ErrProvider
	}

	res := Result{Reply: reply, Redirect: IsRedirect(reply)}

	// 4) persist; guests and redirects are not kept
	if req.User == Guest || res.Redirect || s.recorder == nil {
		return res, nil
	}
	rec := history.Record{
		User:     req.User,
		Subject:  req.Subject,
		Message:  req.Message,
		Reply:    reply,
		Continue: req.ConversationStarted,
		At:       s.now().UTC(),
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.log.Error("record history", zap.String("user", req.User), zap.String("subject", req.Subject), zap.Error(err))
		return res, nil
	}
	res.Saved = true
	return res, nil
}
