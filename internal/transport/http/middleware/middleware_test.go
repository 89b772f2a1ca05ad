package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa-backend/internal/pkg/jwtutil"
)

const testSecret = "middleware-test-secret"

func newLoggedEngine(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestContext(zerolog.New(buf)), AccessLog(), AuthJWT(testSecret))
	r.GET("/ping", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("handler")
		c.Status(http.StatusNoContent)
	})
	return r
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestAuthJWTTagsRequestLogsWithUser(t *testing.T) {
	var buf bytes.Buffer
	r := newLoggedEngine(&buf)
	userID := uuid.New()
	token, err := jwtutil.GenerateToken(testSecret, time.Hour, userID, "alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "handler", lines[0]["message"])
	assert.Equal(t, userID.String(), lines[0]["user_id"])
	assert.Equal(t, "request.complete", lines[1]["message"])
	assert.Equal(t, userID.String(), lines[1]["user_id"])
	assert.Equal(t, w.Header().Get(HeaderRequestID), lines[1]["request_id"])
}

func TestAuthJWTRejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header string
		reason string
	}{
		{"missing", "", "missing authorization header"},
		{"basic scheme", "Basic abc", "invalid authorization scheme"},
		{"empty token", "Bearer   ", "invalid authorization scheme"},
		{"garbage token", "Bearer not-a-jwt", "invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := newLoggedEngine(&buf)
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.reason)
			for _, line := range logLines(t, &buf) {
				assert.NotContains(t, line, "user_id")
			}
		})
	}
}

func TestBearerTokenAcceptsAnyCaseScheme(t *testing.T) {
	token, reason := bearerToken("bearer abc.def")
	assert.Empty(t, reason)
	assert.Equal(t, "abc.def", token)
}
