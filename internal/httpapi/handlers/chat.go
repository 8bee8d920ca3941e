package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/focusbot/internal/common"
	"github.com/suPer8Hu/focusbot/internal/relay"
)

type chatReq struct {
	Message             string `json:"message"`
	Subject             string `json:"subject"`
	User                string `json:"user"`
	ConversationStarted bool   `json:"conversation_started"`
}

func (h *Handler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ChatFail(c, http.StatusBadRequest, "Both message and subject are required.")
		return
	}

	user, ok := resolveUser(c, req.User)
	if !ok {
		common.ChatFail(c, http.StatusForbidden, "Not allowed.")
		return
	}

	res, err := h.Relay.Reply(c.Request.Context(), relay.Request{
		User:                user,
		Subject:             req.Subject,
		Message:             req.Message,
		ConversationStarted: req.ConversationStarted,
	})
	switch {
	case err == nil:
		common.OK(c, http.StatusOK, gin.H{"reply": res.Reply})
	case errors.Is(err, relay.ErrMissingFields):
		common.ChatFail(c, http.StatusBadRequest, "Both message and subject are required.")
	default:
		// provider detail is logged by the relay, never returned
		common.ChatFail(c, http.StatusInternalServerError, "Failed to get a response from the AI model.")
	}
}
