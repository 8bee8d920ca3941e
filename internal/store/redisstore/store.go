package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb        *redis.Client
	subjectTTL time.Duration
}

func New(addr, password string, db int, subjectTTL time.Duration) *Store {
	if subjectTTL <= 0 {
		subjectTTL = 10 * time.Minute
	}
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		subjectTTL: subjectTTL,
	}
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, subjectTTL time.Duration) *Store {
	return &Store{rdb: rdb, subjectTTL: subjectTTL}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func subjectsKey(user string) string {
	return "focusbot:subjects:" + user
}

func (s *Store) GetSubjects(ctx context.Context, user string) ([]string, bool, error) {
	raw, err := s.rdb.Get(ctx, subjectsKey(user)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var subjects []string
	if err := json.Unmarshal(raw, &subjects); err != nil {
		// corrupt entry: treat as a miss and drop it
		_ = s.rdb.Del(ctx, subjectsKey(user)).Err()
		return nil, false, nil
	}
	return subjects, true, nil
}

func (s *Store) SetSubjects(ctx context.Context, user string, subjects []string) error {
	b, err := json.Marshal(subjects)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, subjectsKey(user), b, s.subjectTTL).Err()
}

func (s *Store) InvalidateSubjects(ctx context.Context, user string) error {
	return s.rdb.Del(ctx, subjectsKey(user)).Err()
}
