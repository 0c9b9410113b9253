package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/safebytes/internal/auth"
)

// Context keys for the caller identity stored in gin.Context.
const (
	ContextKeyUserID = "user_id"
	ContextKeyEmail  = "email"
)

var (
	errNoHeader  = errors.New("missing authorization header")
	errBadFormat = errors.New("invalid authorization format, expected: Bearer <token>")
	errBadToken  = errors.New("invalid or expired token")
)

// bearerClaims extracts and verifies the bearer token. It returns
// (nil, errNoHeader) when there is no Authorization header at all.
func bearerClaims(c *gin.Context, secret string) (*auth.Claims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, errNoHeader
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errBadFormat
	}

	claims, err := auth.ParseToken(strings.TrimSpace(parts[1]), secret)
	if err != nil {
		return nil, errBadToken
	}
	return claims, nil
}

func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeyEmail, claims.Email)
}

func abortUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": err.Error(),
	})
}

// AuthMiddleware requires a valid bearer token. On success the caller's
// user id is available through GetUserID; on failure the chain stops
// with 401.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c, secret)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is present and lets
// anonymous requests through. A token that is present but invalid is
// still rejected; silently downgrading it to anonymous would produce a
// message nobody can reply to.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c, secret)
		switch {
		case errors.Is(err, errNoHeader):
			c.Next()
		case err != nil:
			abortUnauthorized(c, err)
		default:
			setIdentity(c, claims)
			c.Next()
		}
	}
}

// GetUserID returns the authenticated caller, or uuid.Nil when the
// request is anonymous.
func GetUserID(c *gin.Context) uuid.UUID {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

func GetEmail(c *gin.Context) string {
	val, exists := c.Get(ContextKeyEmail)
	if !exists {
		return ""
	}
	email, ok := val.(string)
	if !ok {
		return ""
	}
	return email
}
