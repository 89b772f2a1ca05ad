package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/model"
	"docqa-backend/internal/transport/http/response"
)

type OrganizationService interface {
	Create(ctx context.Context, user *model.User, name string) (*model.Organization, error)
	Mine(ctx context.Context, user *model.User) (*model.Organization, error)
	Delete(ctx context.Context, user *model.User, name string) error
}

type OrganizationHandler struct {
	orgService OrganizationService
}

type OrganizationRequest struct {
	OrganizationName string `json:"organization_name" binding:"required,max=128"`
}

func NewOrganizationHandler(orgService OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

func (h *OrganizationHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	org, err := h.orgService.Create(c.Request.Context(), user, req.OrganizationName)
	if err != nil {
		writeError(c, err, "create organization failed")
		return
	}
	response.Status(c, http.StatusCreated, org)
}

func (h *OrganizationHandler) Mine(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	org, err := h.orgService.Mine(c.Request.Context(), user)
	if err != nil {
		writeError(c, err, "load organization failed")
		return
	}
	response.OK(c, org)
}

func (h *OrganizationHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.orgService.Delete(c.Request.Context(), user, req.OrganizationName); err != nil {
		writeError(c, err, "delete organization failed")
		return
	}
	response.OK(c, gin.H{"deleted": req.OrganizationName})
}
