package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/safebytes/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// newRouter mounts mw in front of a handler that echoes the caller id.
func newRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/whoami", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": GetUserID(c).String(),
			"email":   GetEmail(c),
		})
	})
	return r
}

func doRequest(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func validToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, "caller@x.com", testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	rec := doRequest(newRouter(AuthMiddleware(testSecret)), "Bearer "+validToken(t, userID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
	assert.Contains(t, rec.Body.String(), "caller@x.com")
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"no token", "Bearer"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(newRouter(AuthMiddleware(testSecret)), tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"success":false`)
		})
	}
}

func TestAuthMiddleware_CaseInsensitiveScheme(t *testing.T) {
	rec := doRequest(newRouter(AuthMiddleware(testSecret)), "bearer "+validToken(t, uuid.New()))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuth_AnonymousPassesThrough(t *testing.T) {
	rec := doRequest(newRouter(OptionalAuth(testSecret)), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), uuid.Nil.String())
}

func TestOptionalAuth_IdentifiesCaller(t *testing.T) {
	userID := uuid.New()
	rec := doRequest(newRouter(OptionalAuth(testSecret)), "Bearer "+validToken(t, userID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
}

func TestOptionalAuth_RejectsInvalidToken(t *testing.T) {
	rec := doRequest(newRouter(OptionalAuth(testSecret)), "Bearer broken")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUserID_WrongType(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(ContextKeyUserID, "not-a-uuid")
	assert.Equal(t, uuid.Nil, GetUserID(c))
}
