package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/suPer8Hu/focusbot/internal/common"
)

var ErrNotFound = errors.New("chat not found")

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	repo *Repo
	now  func() time.Time
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record persists one exchange. With Continue set it is appended to the
// caller's latest thread for the subject; otherwise, or when no such thread
// exists, it opens a new thread.
func (s *Service) Record(ctx context.Context, rec Record) (string, error) {
	at := rec.At
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()

	turns := []Turn{
		{Sender: SenderUser, Text: rec.Message, CreatedAt: at},
		{Sender: SenderBot, Text: rec.Reply, CreatedAt: at},
	}

	if rec.Continue {
		t, err := s.repo.LatestThread(ctx, rec.User, rec.Subject)
		switch {
		case err == nil:
			t.UpdatedAt = at
			if err := s.repo.AppendTurns(ctx, t, turns); err != nil {
				return "", err
			}
			return t.ID, nil
		case !isNotFound(err):
			return "", err
		}
	}

	id, err := common.NewULID()
	if err != nil {
		return "", err
	}
	t := &Thread{
		ID:        id,
		Owner:     rec.User,
		Subject:   rec.Subject,
		Message:   rec.Message,
		Reply:     rec.Reply,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := s.repo.CreateThread(ctx, t, turns); err != nil {
		return "", err
	}
	return t.ID, nil
}

// List returns the owner's entries, most recent activity first.
func (s *Service) List(ctx context.Context, owner, subject string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	threads, err := s.repo.ListThreads(ctx, owner, strings.TrimSpace(subject), limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
	}
	turns, err := s.repo.TurnsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(threads))
	for _, t := range threads {
		e := Entry{
			ID:            t.ID,
			Subject:       t.Subject,
			Message:       t.Message,
			Reply:         t.Reply,
			Timestamp:     t.UpdatedAt.UTC(),
			FormattedTime: FormatTime(t.UpdatedAt),
		}
		for _, tr := range turns[t.ID] {
			e.Conversation = append(e.Conversation, ConversationMessage{Sender: tr.Sender, Text: tr.Text})
		}
		out = append(out, e)
	}
	return out, nil
}

// Context returns up to window turns of the owner's latest thread for subject,
// oldest first. No thread yields an empty slice.
func (s *Service) Context(ctx context.Context, owner, subject string, window int) ([]Turn, error) {
	t, err := s.repo.LatestThread(ctx, owner, subject)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	recentDesc, err := s.repo.RecentTurnsDesc(ctx, t.ID, window)
	if err != nil {
		return nil, err
	}
	// reverse to ASC (oldest -> newest)
	out := make([]Turn, 0, len(recentDesc))
	for i := len(recentDesc) - 1; i >= 0; i-- {
		out = append(out, recentDesc[i])
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if err := s.repo.DeleteThread(ctx, owner, id); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, owner string) (int64, error) {
	return s.repo.DeleteAll(ctx, owner)
}

// SyncRecorder writes records straight to the database.
type SyncRecorder struct {
	Svc *Service
}

func (r SyncRecorder) Record(ctx context.Context, rec Record) error {
	_, err := r.Svc.Record(ctx, rec)
	return err
}
