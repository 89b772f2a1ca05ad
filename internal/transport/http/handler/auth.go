package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/app"
	"docqa-backend/internal/model"
	"docqa-backend/internal/transport/http/middleware"
	"docqa-backend/internal/transport/http/response"
)

type AuthService interface {
	Signup(ctx context.Context, input app.SignupInput) (*app.AuthResult, error)
	Login(ctx context.Context, input app.LoginInput) (*app.AuthResult, error)
}

type AuthHandler struct {
	authService AuthService
}

type SignupRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=64"`
	Email           string `json:"email" binding:"required,email,max=128"`
	FullName        string `json:"full_name" binding:"max=128"`
	Password        string `json:"password" binding:"required,min=8,max=128"`
	RewritePassword string `json:"rewrite_password" binding:"required,max=128"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,max=128"`
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), app.SignupInput{
		Username:        req.Username,
		Email:           req.Email,
		FullName:        req.FullName,
		Password:        req.Password,
		RewritePassword: req.RewritePassword,
	})
	if err != nil {
		writeError(c, err, "signup failed")
		return
	}

	response.Status(c, http.StatusCreated, gin.H{
		"token": result.Token,
		"user":  userView(result.User),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err, "login failed")
		return
	}

	response.OK(c, gin.H{
		"token":      result.Token,
		"token_type": "bearer",
		"user":       userView(result.User),
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}
	response.OK(c, userView(user))
}

func userView(user *model.User) gin.H {
	return gin.H{
		"id":              user.ID,
		"username":        user.Username,
		"email":           user.Email,
		"full_name":       user.FullName,
		"is_active":       user.IsActive,
		"is_admin":        user.IsAdmin,
		"organization_id": user.OrganizationID,
	}
}

// currentUser fetches the authenticated user or writes a 401.
func currentUser(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
	}
	return user, ok
}
