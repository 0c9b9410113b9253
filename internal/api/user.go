package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/safebytes/internal/middleware"
	"github.com/lalith-99/safebytes/internal/repository"
	"go.uber.org/zap"
)

type UserHandler struct {
	responder
	repo repository.UserRepository
}

func NewUserHandler(repo repository.UserRepository, logger *zap.Logger, exposeDetails bool) *UserHandler {
	return &UserHandler{
		responder: responder{logger: logger, exposeDetails: exposeDetails},
		repo:      repo,
	}
}

// GetMe handles GET /v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.repo.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.fail(c, "get user", err)
		return
	}

	// A valid token for a user that no longer exists.
	if user == nil {
		c.JSON(http.StatusNotFound, envelope{Success: false, Message: "user not found"})
		return
	}
	respond(c, http.StatusOK, user)
}
