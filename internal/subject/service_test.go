package subject

import (
	"context"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mapCache struct {
	data        map[string][]string
	invalidated []string
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]string{}} }

func (c *mapCache) GetSubjects(ctx context.Context, user string) ([]string, bool, error) {
	v, ok := c.data[user]
	return v, ok, nil
}

func (c *mapCache) SetSubjects(ctx context.Context, user string, subjects []string) error {
	c.data[user] = append([]string(nil), subjects...)
	return nil
}

func (c *mapCache) InvalidateSubjects(ctx context.Context, user string) error {
	delete(c.data, user)
	c.invalidated = append(c.invalidated, user)
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&UserSubject{}))
	return db
}

func TestList_DefaultsFirst(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)), nil)
	ctx := context.Background()

	got, err := svc.List(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, Defaults, got)

	_, err = svc.Create(ctx, "ada@example.com", "Physics")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "ada@example.com", "  Art  ")
	require.NoError(t, err)

	got, err = svc.List(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"Math", "History", "Science", "Literature", "Physics", "Art"}, got)

	// other users are unaffected
	got, err = svc.List(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, Defaults, got)
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u", "   ")
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Create(ctx, "u", "Math")
	assert.ErrorIs(t, err, ErrExists)

	_, err = svc.Create(ctx, "u", "Physics")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u", "Physics ")
	assert.ErrorIs(t, err, ErrExists)
}

func TestDelete(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)), nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "u", "History"), ErrDefault)
	assert.ErrorIs(t, svc.Delete(ctx, "u", "Physics"), ErrNotFound)

	_, err := svc.Create(ctx, "u", "Physics")
	require.NoError(t, err)
	// owned by someone else
	assert.ErrorIs(t, svc.Delete(ctx, "v", "Physics"), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "u", "Physics"))

	got, err := svc.List(ctx, "u")
	require.NoError(t, err)
	assert.NotContains(t, got, "Physics")
}

func TestCache_FillAndInvalidate(t *testing.T) {
	cache := newMapCache()
	svc := NewService(NewRepo(openTestDB(t)), cache)
	ctx := context.Background()

	_, err := svc.List(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, Defaults, cache.data["u"])

	_, err = svc.Create(ctx, "u", "Physics")
	require.NoError(t, err)
	_, cached := cache.data["u"]
	assert.False(t, cached)
	assert.Equal(t, []string{"u"}, cache.invalidated)

	// served from cache without touching the DB
	cache.data["u"] = []string{"Cached"}
	got, err := svc.List(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cached"}, got)
}
