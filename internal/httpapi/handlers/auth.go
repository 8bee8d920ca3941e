package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/focusbot/internal/auth"
	"github.com/suPer8Hu/focusbot/internal/common"
)

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "Invalid request body.")
		return
	}

	token, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		common.OK(c, http.StatusOK, gin.H{"token": token})
	case errors.Is(err, auth.ErrMissingCredentials):
		common.Fail(c, http.StatusBadRequest, 10002, "Email and password are required.")
	case errors.Is(err, auth.ErrInvalidCredentials):
		common.Fail(c, http.StatusUnauthorized, 40102, "Invalid email or password.")
	default:
		h.internalError(c, 20001, "login failed", err)
	}
}

func (h *Handler) Signup(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "Invalid request body.")
		return
	}

	token, err := h.Auth.Signup(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		common.OK(c, http.StatusCreated, gin.H{"token": token})
	case errors.Is(err, auth.ErrMissingCredentials):
		common.Fail(c, http.StatusBadRequest, 10002, "Email and password are required.")
	case errors.Is(err, auth.ErrEmailTaken):
		common.Fail(c, http.StatusBadRequest, 10003, "Email already registered.")
	default:
		h.internalError(c, 20002, "signup failed", err)
	}
}
