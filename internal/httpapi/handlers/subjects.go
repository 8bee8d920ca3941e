package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/focusbot/internal/common"
	"github.com/suPer8Hu/focusbot/internal/subject"
)

func (h *Handler) ListSubjects(c *gin.Context) {
	user, ok := resolveUser(c, c.Query("user"))
	if !ok {
		forbidden(c)
		return
	}
	subjects, err := h.Subjects.List(c.Request.Context(), user)
	if err != nil {
		h.internalError(c, 20020, "list subjects", err)
		return
	}
	common.OK(c, http.StatusOK, gin.H{"subjects": subjects})
}

type createSubjectReq struct {
	Subject string `json:"subject"`
	User    string `json:"user"`
}

func (h *Handler) CreateSubject(c *gin.Context) {
	var req createSubjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "Invalid request body.")
		return
	}
	user, ok := resolveUser(c, req.User)
	if !ok {
		forbidden(c)
		return
	}

	name, err := h.Subjects.Create(c.Request.Context(), user, req.Subject)
	switch {
	case err == nil:
		common.OK(c, http.StatusCreated, gin.H{"subject": name, "message": "Subject added."})
	case errors.Is(err, subject.ErrNameRequired):
		common.Fail(c, http.StatusBadRequest, 10020, "Subject name is required.")
	case errors.Is(err, subject.ErrExists):
		common.Fail(c, http.StatusBadRequest, 10021, "Subject already exists.")
	default:
		h.internalError(c, 20021, "create subject", err)
	}
}

func (h *Handler) DeleteSubject(c *gin.Context) {
	user, ok := resolveUser(c, c.Query("user"))
	if !ok {
		forbidden(c)
		return
	}

	err := h.Subjects.Delete(c.Request.Context(), user, c.Param("name"))
	switch {
	case err == nil:
		common.OK(c, http.StatusOK, gin.H{"message": "Subject deleted."})
	case errors.Is(err, subject.ErrDefault):
		common.Fail(c, http.StatusBadRequest, 10022, "Cannot delete default subjects.")
	case errors.Is(err, subject.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40420, "Subject not found.")
	default:
		h.internalError(c, 20022, "delete subject", err)
	}
}
