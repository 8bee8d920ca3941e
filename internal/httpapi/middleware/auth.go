package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/focusbot/internal/common"
)

const UserEmailKey = "user_email"

// TokenVerifier maps a bearer token to the email it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// OptionalAuth sets UserEmailKey when a valid token is present. A bad token
// is answered with 401 so a stale client learns to log in again.
func OptionalAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearer(c)
		if tok == "" {
			c.Next()
			return
		}
		email, err := v.Verify(tok)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40101, "Invalid or expired token.")
			return
		}
		c.Set(UserEmailKey, email)
		c.Next()
	}
}

// AuthRequired rejects requests without a valid token.
func AuthRequired(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearer(c)
		if tok == "" {
			common.Fail(c, http.StatusUnauthorized, 40100, "Not authenticated.")
			return
		}
		email, err := v.Verify(tok)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40101, "Invalid or expired token.")
			return
		}
		c.Set(UserEmailKey, email)
		c.Next()
	}
}

// UserEmail returns the authenticated caller, if any.
func UserEmail(c *gin.Context) (string, bool) {
	v, ok := c.Get(UserEmailKey)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}
