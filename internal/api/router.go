package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/safebytes/internal/middleware"
	"github.com/lalith-99/safebytes/internal/repository"
	"github.com/lalith-99/safebytes/internal/service"
	"go.uber.org/zap"
)

// RouterDeps is everything NewRouter wires into handlers.
type RouterDeps struct {
	Users         repository.UserRepository
	Threads       *service.ThreadService
	HealthChecks  map[string]HealthCheck
	JWTSecret     string
	TokenTTL      time.Duration
	Logger        *zap.Logger
	ExposeDetails bool
}

// NewRouter builds the gin engine with every /v1 route.
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	authHandler := NewAuthHandler(deps.Users, deps.JWTSecret, deps.TokenTTL, deps.Logger, deps.ExposeDetails)
	userHandler := NewUserHandler(deps.Users, deps.Logger, deps.ExposeDetails)
	threads := NewThreadHandler(deps.Threads, deps.Logger, deps.ExposeDetails)
	health := NewHealthHandler(deps.HealthChecks, deps.Logger)

	r := gin.New()
	r.Use(middleware.RequestLogger(deps.Logger), gin.Recovery())

	// Public.
	r.GET("/v1/health", health.Health)
	r.POST("/v1/auth/signup", authHandler.Signup)
	r.POST("/v1/auth/login", authHandler.Login)
	r.POST("/v1/contact-messages", middleware.OptionalAuth(deps.JWTSecret), threads.SubmitContactMessage)

	// Everything below needs a valid token. Role checks happen in the
	// service against the stored user.
	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.JWTSecret))

	v1.GET("/users/me", userHandler.GetMe)
	v1.GET("/users/me/replies", threads.ListMyReplies)

	v1.GET("/contact-messages", threads.ListAllContactMessages)
	v1.GET("/contact-messages/:id", threads.GetContactMessage)
	v1.PATCH("/contact-messages/:id/read", threads.MarkContactMessageRead)
	v1.DELETE("/contact-messages/:id", threads.DeleteContactMessage)
	v1.POST("/contact-messages/:id/replies", threads.ReplyToContactMessage)
	v1.PATCH("/replies/:id/read", threads.MarkReplyRead)

	v1.POST("/restaurant-messages", threads.SubmitRestaurantMessage)
	v1.GET("/restaurant-messages", threads.ListRestaurantMessages)
	v1.PATCH("/restaurant-messages/:id/read", threads.MarkRestaurantMessageRead)
	v1.POST("/restaurant-messages/:id/replies", threads.ReplyToRestaurantMessage)
	v1.PATCH("/admin-replies/:id/read", threads.MarkAdminReplyRead)

	me := v1.Group("/restaurants/me")
	me.GET("/contact-messages", threads.ListRestaurantInbox)
	me.GET("/replies", threads.ListSentReplies)
	me.GET("/restaurant-messages", threads.ListSentRestaurantMessages)
	me.GET("/admin-replies", threads.ListAdminReplies)

	return r, nil
}
