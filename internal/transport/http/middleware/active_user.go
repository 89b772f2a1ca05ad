package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docqa-backend/internal/app"
	"docqa-backend/internal/model"
	"docqa-backend/internal/transport/http/response"
)

const ContextUserKey = "user"

type UserLoader interface {
	ActiveUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// RequireActiveUser loads the token's user and stops requests from deactivated
// or deleted accounts. It must run after AuthJWT.
func RequireActiveUser(loader UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := c.Get(ContextUserIDKey)
		userID, typed := id.(uuid.UUID)
		if !ok || !typed {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
			c.Abort()
			return
		}

		user, err := loader.ActiveUser(c.Request.Context(), userID)
		switch {
		case err == nil:
		case errors.Is(err, app.ErrInactiveUser):
			response.Error(c, http.StatusBadRequest, response.CodeInactiveUser, "inactive user")
			c.Abort()
			return
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found")
			c.Abort()
			return
		default:
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("load current user failed")
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load current user failed")
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireActiveUser.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}
