package auth

import (
	"context"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/focusbot/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func TestJWT_RoundTrip(t *testing.T) {
	tok, err := SignJWT("ada@example.com", "secret", time.Minute)
	require.NoError(t, err)

	sub, err := ParseJWT(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", sub)

	_, err = ParseJWT(tok, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_Expired(t *testing.T) {
	tok, err := SignJWT("ada@example.com", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(tok, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignupThenLogin(t *testing.T) {
	svc := NewService(openTestDB(t), "secret", time.Hour)
	ctx := context.Background()

	tok, err := svc.Signup(ctx, "  Ada@Example.com ", "pw")
	require.NoError(t, err)
	sub, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", sub)

	_, err = svc.Signup(ctx, "ada@example.com", "other")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Login(ctx, "ADA@example.com", "pw")
	assert.NoError(t, err)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "", "pw")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
