package history

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// CreateThread inserts the thread together with its first turns.
func (r *Repo) CreateThread(ctx context.Context, t *Thread, turns []Turn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		for i := range turns {
			turns[i].ThreadID = t.ID
		}
		if len(turns) == 0 {
			return nil
		}
		return tx.Create(&turns).Error
	})
}

// LatestThread returns the most recently active thread for owner+subject.
func (r *Repo) LatestThread(ctx context.Context, owner, subject string) (*Thread, error) {
	var t Thread
	if err := r.db.WithContext(ctx).
		Where("owner = ? AND subject = ?", owner, subject).
		Order("updated_at DESC").
		Order("id DESC").
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// AppendTurns adds turns and bumps the thread's activity time.
func (r *Repo) AppendTurns(ctx context.Context, t *Thread, turns []Turn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range turns {
			turns[i].ThreadID = t.ID
		}
		if len(turns) > 0 {
			if err := tx.Create(&turns).Error; err != nil {
				return err
			}
		}
		return tx.Model(&Thread{}).
			Where("id = ?", t.ID).
			Update("updated_at", t.UpdatedAt).Error
	})
}

// ListThreads returns threads newest activity first. Empty subject means all.
func (r *Repo) ListThreads(ctx context.Context, owner, subject string, limit int) ([]Thread, error) {
	q := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("updated_at DESC").
		Order("id DESC").
		Limit(limit)
	if subject != "" {
		q = q.Where("subject = ?", subject)
	}

	var threads []Thread
	if err := q.Find(&threads).Error; err != nil {
		return nil, err
	}
	return threads, nil
}

// TurnsFor returns every turn of the given threads in insertion order, grouped by thread.
func (r *Repo) TurnsFor(ctx context.Context, threadIDs []string) (map[string][]Turn, error) {
	out := make(map[string][]Turn, len(threadIDs))
	if len(threadIDs) == 0 {
		return out, nil
	}
	var turns []Turn
	if err := r.db.WithContext(ctx).
		Where("thread_id IN ?", threadIDs).
		Order("id ASC").
		Find(&turns).Error; err != nil {
		return nil, err
	}
	for _, t := range turns {
		out[t.ThreadID] = append(out[t.ThreadID], t)
	}
	return out, nil
}

// RecentTurnsDesc returns the most recent turns in DESC id order (newest -> oldest).
func (r *Repo) RecentTurnsDesc(ctx context.Context, threadID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	var turns []Turn
	if err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("id DESC").
		Limit(limit).
		Find(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}

// DeleteThread removes a thread the owner holds; gorm.ErrRecordNotFound otherwise.
func (r *Repo) DeleteThread(ctx context.Context, owner, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner = ?", id, owner).Delete(&Thread{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("thread_id = ?", id).Delete(&Turn{}).Error
	})
}

// DeleteAll removes every thread of owner and returns how many went.
func (r *Repo) DeleteAll(ctx context.Context, owner string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&Thread{}).Select("id").Where("owner = ?", owner)
		if err := tx.Where("thread_id IN (?)", sub).Delete(&Turn{}).Error; err != nil {
			return err
		}
		res := tx.Where("owner = ?", owner).Delete(&Thread{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
