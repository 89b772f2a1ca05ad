package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"docqa-backend/internal/pkg/jwtutil"
	"docqa-backend/internal/transport/http/response"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

// AuthJWT verifies the bearer token and stores its subject on the gin context.
// The request logger is rebuilt with user_id so later log lines carry it.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, reason := bearerToken(c.GetHeader("Authorization"))
		if reason != "" {
			abortUnauthorized(c, reason)
			return
		}

		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("token rejected")
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)

		ctx := c.Request.Context()
		logger := zerolog.Ctx(ctx).With().Str("user_id", claims.UserID.String()).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(ctx))
		c.Next()
	}
}

// bearerToken returns the token or, when the header is unusable, the reason.
func bearerToken(header string) (string, string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization scheme"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "missing bearer token"
	}
	return token, ""
}

func abortUnauthorized(c *gin.Context, message string) {
	response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, message)
	c.Abort()
}
