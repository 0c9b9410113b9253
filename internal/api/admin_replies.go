package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/safebytes/internal/middleware"
	"go.uber.org/zap"
)

// Subject is optional and defaults to "Re: <original subject>". Any
// restaurant_id in the body is ignored: the recipient is read from the
// original message.
type adminReplyRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ReplyToRestaurantMessage handles POST /v1/restaurant-messages/:id/replies
func (h *ThreadHandler) ReplyToRestaurantMessage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req adminReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid reply", err)
		return
	}

	reply, err := h.svc.ReplyToRestaurantMessage(c.Request.Context(), middleware.GetUserID(c), id, req.Subject, req.Body)
	if err != nil {
		h.fail(c, "reply to restaurant message", err, zap.String("message_id", id.String()))
		return
	}
	h.logger.Info("restaurant message replied",
		zap.String("message_id", id.String()),
		zap.String("reply_id", reply.ID.String()),
		zap.String("restaurant_id", reply.RestaurantID.String()),
	)
	respond(c, http.StatusCreated, reply)
}

// ListAdminReplies handles GET /v1/restaurants/me/admin-replies
func (h *ThreadHandler) ListAdminReplies(c *gin.Context) {
	inbox, err := h.svc.ListAdminRepliesForRestaurant(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.fail(c, "list admin replies", err)
		return
	}
	respond(c, http.StatusOK, inbox)
}

// MarkAdminReplyRead handles PATCH /v1/admin-replies/:id/read
func (h *ThreadHandler) MarkAdminReplyRead(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.svc.MarkAdminReplyRead(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		h.fail(c, "mark admin reply read", err, zap.String("reply_id", id.String()))
		return
	}
	respondMessage(c, http.StatusOK, "admin reply marked as read")
}
