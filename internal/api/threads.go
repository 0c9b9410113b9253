package api

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/safebytes/internal/models"
	"github.com/lalith-99/safebytes/internal/service"
	"go.uber.org/zap"
)

// ThreadHandler exposes ThreadService over HTTP. Its methods are split by
// resource across contact.go, replies.go, restaurant_messages.go and
// admin_replies.go.
//
// The caller's identity always comes from the verified token. Request
// bodies never carry a sender or recipient id.
type ThreadHandler struct {
	responder
	svc *service.ThreadService
}

func NewThreadHandler(svc *service.ThreadService, logger *zap.Logger, exposeDetails bool) *ThreadHandler {
	return &ThreadHandler{
		responder: responder{logger: logger, exposeDetails: exposeDetails},
		svc:       svc,
	}
}

// pathID parses the :id path parameter, writing a 400 on failure.
func (h *ThreadHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, "invalid id", err)
		return uuid.Nil, false
	}
	return id, true
}

// queryLimit reads ?limit=. Missing means "service default"; values above
// the maximum are clamped by the service.
func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	return limit, nil
}

func (h *ThreadHandler) contactFilter(c *gin.Context) (models.ContactMessageFilter, bool) {
	limit, err := queryLimit(c)
	if err != nil {
		h.badRequest(c, "invalid 'limit' parameter", err)
		return models.ContactMessageFilter{}, false
	}
	return models.ContactMessageFilter{
		Status:     models.MessageStatus(c.Query("status")),
		SenderKind: models.SenderKind(c.Query("sender_kind")),
		Limit:      limit,
	}, true
}

func (h *ThreadHandler) restaurantMessageFilter(c *gin.Context) (models.RestaurantMessageFilter, bool) {
	limit, err := queryLimit(c)
	if err != nil {
		h.badRequest(c, "invalid 'limit' parameter", err)
		return models.RestaurantMessageFilter{}, false
	}
	return models.RestaurantMessageFilter{
		Status: models.MessageStatus(c.Query("status")),
		Limit:  limit,
	}, true
}
