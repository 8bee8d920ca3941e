package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/focusbot/internal/common"
	"go.uber.org/zap"
)

func (h *Handler) Root(c *gin.Context) {
	common.OK(c, http.StatusOK, gin.H{"message": "FocusBot API is live", "version": Version})
}

func (h *Handler) Health(c *gin.Context) {
	if h.DB != nil {
		sqlDB, err := h.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			h.Log.Warn("health: db ping failed", zap.Error(err))
			common.OK(c, http.StatusServiceUnavailable, gin.H{"ok": false, "time": time.Now().UTC()})
			return
		}
	}
	common.OK(c, http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
}
