package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/app"
	"docqa-backend/internal/model"
	"docqa-backend/internal/transport/http/response"
)

type AnswerService interface {
	Ask(ctx context.Context, input app.AskInput) (*app.AskResult, error)
	AuditLogs(ctx context.Context, requester *model.User, limit int) ([]model.AuditLog, error)
}

type ChatHandler struct {
	answerService AnswerService
}

type AskRequest struct {
	Question     string `json:"question" binding:"required,max=4000"`
	Organization string `json:"organization" binding:"required,max=128"`
}

func NewChatHandler(answerService AnswerService) *ChatHandler {
	return &ChatHandler{answerService: answerService}
}

func (h *ChatHandler) Ask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.answerService.Ask(c.Request.Context(), app.AskInput{
		Requester:    user,
		Organization: req.Organization,
		Question:     req.Question,
	})
	if err != nil {
		writeError(c, err, "answer failed")
		return
	}
	response.OK(c, result)
}

func (h *ChatHandler) AuditLogs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	rows, err := h.answerService.AuditLogs(c.Request.Context(), user, limit)
	if err != nil {
		writeError(c, err, "list audit logs failed")
		return
	}
	response.OK(c, gin.H{"audit_logs": rows})
}
