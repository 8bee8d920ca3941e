package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/focusbot/internal/common"
	"github.com/suPer8Hu/focusbot/internal/history"
)

func (h *Handler) ListHistory(c *gin.Context) {
	user, ok := resolveUser(c, c.Query("user"))
	if !ok {
		forbidden(c)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.History.List(c.Request.Context(), user, c.Query("subject"), limit)
	if err != nil {
		h.internalError(c, 20010, "list history", err)
		return
	}
	common.OK(c, http.StatusOK, gin.H{"history": entries})
}

func (h *Handler) DeleteHistory(c *gin.Context) {
	user, ok := resolveUser(c, c.Query("user"))
	if !ok {
		forbidden(c)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		common.Fail(c, http.StatusBadRequest, 10010, "Chat id is required.")
		return
	}

	err := h.History.Delete(c.Request.Context(), user, id)
	switch {
	case err == nil:
		common.OK(c, http.StatusOK, gin.H{"message": "Chat deleted."})
	case errors.Is(err, history.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40410, "Chat not found.")
	default:
		h.internalError(c, 20011, "delete history", err)
	}
}

func (h *Handler) ClearHistory(c *gin.Context) {
	user, ok := resolveUser(c, c.Query("user"))
	if !ok {
		forbidden(c)
		return
	}
	n, err := h.History.Clear(c.Request.Context(), user)
	if err != nil {
		h.internalError(c, 20012, "clear history", err)
		return
	}
	common.OK(c, http.StatusOK, gin.H{"deleted": n})
}
