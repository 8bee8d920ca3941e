package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/focusbot/internal/auth"
	"github.com/suPer8Hu/focusbot/internal/common"
	"github.com/suPer8Hu/focusbot/internal/history"
	"github.com/suPer8Hu/focusbot/internal/httpapi/middleware"
	"github.com/suPer8Hu/focusbot/internal/relay"
	"github.com/suPer8Hu/focusbot/internal/subject"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const Version = "1.0.0"

type Handler struct {
	DB       *gorm.DB
	Auth     *auth.Service
	Subjects *subject.Service
	History  *history.Service
	Relay    *relay.Service
	Log      *zap.Logger
}

func NewHandler(db *gorm.DB, authSvc *auth.Service, subjects *subject.Service, hist *history.Service, rel *relay.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{DB: db, Auth: authSvc, Subjects: subjects, History: hist, Relay: rel, Log: log}
}

// resolveUser settles the caller's identity. The token subject wins; a
// claimed user must be empty, "guest", or that same subject.
func resolveUser(c *gin.Context, claimed string) (string, bool) {
	claimed = strings.TrimSpace(claimed)
	email, authed := middleware.UserEmail(c)

	if claimed == "" || strings.EqualFold(claimed, relay.Guest) {
		if authed {
			return email, true
		}
		return relay.Guest, true
	}
	if !authed || auth.NormalizeEmail(claimed) != email {
		return "", false
	}
	return email, true
}

func forbidden(c *gin.Context) {
	common.Fail(c, http.StatusForbidden, 40300, "Not allowed.")
}

func (h *Handler) internalError(c *gin.Context, code int, msg string, err error) {
	h.Log.Error(msg,
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		zap.Error(err),
	)
	common.Fail(c, http.StatusInternalServerError, code, "Internal server error.")
}
