package subject

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// ListCustom returns the user's subjects in creation order.
func (r *Repo) ListCustom(ctx context.Context, user string) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).
		Model(&UserSubject{}).
		Where("owner = ?", user).
		Order("id ASC").
		Pluck("subject", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *Repo) Exists(ctx context.Context, user, name string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&UserSubject{}).
		Where("owner = ? AND subject = ?", user, name).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *Repo) Insert(ctx context.Context, s *UserSubject) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// Delete returns the number of rows removed.
func (r *Repo) Delete(ctx context.Context, user, name string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("owner = ? AND subject = ?", user, name).
		Delete(&UserSubject{})
	return res.RowsAffected, res.Error
}
