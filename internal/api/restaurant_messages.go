package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/safebytes/internal/middleware"
	"go.uber.org/zap"
)

type submitRestaurantMessageRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SubmitRestaurantMessage handles POST /v1/restaurant-messages
//
// The restaurant's name and email are stamped from its account.
func (h *ThreadHandler) SubmitRestaurantMessage(c *gin.Context) {
	var req submitRestaurantMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid restaurant message", err)
		return
	}
	msg, err := h.svc.SubmitRestaurantMessage(c.Request.Context(), middleware.GetUserID(c), req.Subject, req.Body)
	if err != nil {
		h.fail(c, "submit restaurant message", err)
		return
	}
	h.logger.Info("restaurant message submitted",
		zap.String("message_id", msg.ID.String()),
		zap.String("restaurant_id", msg.RestaurantID.String()),
	)
	respond(c, http.StatusCreated, msg)
}

// ListRestaurantMessages handles GET /v1/restaurant-messages (admin inbox)
func (h *ThreadHandler) ListRestaurantMessages(c *gin.Context) {
	filter, ok := h.restaurantMessageFilter(c)
	if !ok {
		return
	}
	inbox, err := h.svc.ListRestaurantMessages(c.Request.Context(), middleware.GetUserID(c), filter)
	if err != nil {
		h.fail(c, "list restaurant messages", err)
		return
	}
	respond(c, http.StatusOK, inbox)
}

// ListSentRestaurantMessages handles GET /v1/restaurants/me/restaurant-messages
func (h *ThreadHandler) ListSentRestaurantMessages(c *gin.Context) {
	filter, ok := h.restaurantMessageFilter(c)
	if !ok {
		return
	}
	outbox, err := h.svc.ListSentRestaurantMessages(c.Request.Context(), middleware.GetUserID(c), filter)
	if err != nil {
		h.fail(c, "list sent restaurant messages", err)
		return
	}
	respond(c, http.StatusOK, outbox)
}

// MarkRestaurantMessageRead handles PATCH /v1/restaurant-messages/:id/read
func (h *ThreadHandler) MarkRestaurantMessageRead(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	msg, err := h.svc.MarkRestaurantMessageRead(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		h.fail(c, "mark restaurant message read", err, zap.String("message_id", id.String()))
		return
	}
	respond(c, http.StatusOK, msg)
}
