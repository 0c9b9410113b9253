package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/safebytes/internal/auth"
	"github.com/lalith-99/safebytes/internal/models"
	"github.com/lalith-99/safebytes/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles signup and login, the only public endpoints that
// hand out tokens.
type AuthHandler struct {
	responder
	userRepo  repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthHandler(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger, exposeDetails bool) *AuthHandler {
	return &AuthHandler{
		responder: responder{logger: logger, exposeDetails: exposeDetails},
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Admins are not self-service; they are created with `migrate seed-admin`.
type signupRequest struct {
	Email       string      `json:"email" binding:"required,email"`
	Password    string      `json:"password" binding:"required,min=8"`
	DisplayName string      `json:"display_name" binding:"required,notblank"`
	Role        models.Role `json:"role" binding:"omitempty,oneof=user restaurant"`
}

// The same email may hold a user and a restaurant account, so login
// names the role. It defaults to "user".
type loginRequest struct {
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role" binding:"omitempty,oneof=user restaurant admin"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup handles POST /v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid signup request", err)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.fail(c, "signup", err)
		return
	}

	user, err := h.userRepo.Create(c.Request.Context(),
		normalizeEmail(req.Email),
		strings.TrimSpace(req.DisplayName),
		string(hash),
		req.Role,
	)
	if errors.Is(err, repository.ErrConflict) {
		c.JSON(http.StatusConflict, envelope{Success: false, Message: "email already registered"})
		return
	}
	if err != nil {
		h.fail(c, "signup", err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.fail(c, "signup", err)
		return
	}

	h.logger.Info("user signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)
	respond(c, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid login request", err)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), normalizeEmail(req.Email), req.Role)
	if err != nil {
		h.fail(c, "login", err)
		return
	}

	// Same answer for unknown email and wrong password.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.fail(c, "login", err)
		return
	}
	respond(c, http.StatusOK, authResponse{Token: token, User: user})
}
