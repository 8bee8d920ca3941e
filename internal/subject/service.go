package subject

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNameRequired = errors.New("subject name is required")
	ErrExists       = errors.New("subject already exists")
	ErrDefault      = errors.New("cannot delete default subjects")
	ErrNotFound     = errors.New("subject not found")
)

// Cache holds the full subject list per user. A miss returns ok=false.
type Cache interface {
	GetSubjects(ctx context.Context, user string) (subjects []string, ok bool, err error)
	SetSubjects(ctx context.Context, user string, subjects []string) error
	InvalidateSubjects(ctx context.Context, user string) error
}

type Service struct {
	repo  *Repo
	cache Cache
}

// NewService accepts a nil cache.
func NewService(repo *Repo, cache Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns the defaults followed by the user's own subjects.
func (s *Service) List(ctx context.Context, user string) ([]string, error) {
	if s.cache != nil {
		// cache errors degrade to a DB read
		if cached, ok, err := s.cache.GetSubjects(ctx, user); err == nil && ok {
			return cached, nil
		}
	}

	custom, err := s.repo.ListCustom(ctx, user)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(Defaults)+len(custom))
	out = append(out, Defaults...)
	out = append(out, custom...)

	if s.cache != nil {
		_ = s.cache.SetSubjects(ctx, user, out)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, user, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if IsDefault(name) {
		return "", ErrExists
	}

	exists, err := s.repo.Exists(ctx, user, name)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrExists
	}

	if err := s.repo.Insert(ctx, &UserSubject{Owner: user, Subject: name}); err != nil {
		return "", err
	}
	s.invalidate(ctx, user)
	return name, nil
}

func (s *Service) Delete(ctx context.Context, user, name string) error {
	if IsDefault(name) {
		return ErrDefault
	}
	n, err := s.repo.Delete(ctx, user, name)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, user)
	return nil
}

func (s *Service) invalidate(ctx context.Context, user string) {
	if s.cache != nil {
		_ = s.cache.InvalidateSubjects(ctx, user)
	}
}
