package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/safebytes/internal/middleware"
	"github.com/lalith-99/safebytes/internal/models"
	"github.com/lalith-99/safebytes/internal/service"
	"go.uber.org/zap"
)

// Only the reply text is accepted. Recipient and restaurant come from the
// stored message and the token.
type replyRequest struct {
	ReplyMessage string `json:"reply_message"`
}

// ReplyToContactMessage handles POST /v1/contact-messages/:id/replies
func (h *ThreadHandler) ReplyToContactMessage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid reply", err)
		return
	}

	caller := middleware.GetUserID(c)
	reply, err := h.svc.ReplyToContactMessage(c.Request.Context(), caller, id, req.ReplyMessage)
	if err != nil {
		h.fail(c, "reply to contact message", err, zap.String("message_id", id.String()))
		return
	}
	h.logger.Info("contact message replied",
		zap.String("message_id", id.String()),
		zap.String("reply_id", reply.ID.String()),
		zap.String("restaurant_id", caller.String()),
	)
	respond(c, http.StatusCreated, reply)
}

// ListMyReplies handles GET /v1/users/me/replies
func (h *ThreadHandler) ListMyReplies(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	replies, err := h.svc.ListRepliesForUser(ctx, userID)
	if err != nil {
		h.fail(c, "list replies", err)
		return
	}
	unread, err := h.svc.CountUnreadReplies(ctx, userID)
	if err != nil {
		h.fail(c, "count unread replies", err)
		return
	}
	respond(c, http.StatusOK, service.Inbox[models.MessageReply]{Items: replies, Unread: unread})
}

// ListSentReplies handles GET /v1/restaurants/me/replies
func (h *ThreadHandler) ListSentReplies(c *gin.Context) {
	replies, err := h.svc.ListRepliesForRestaurant(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.fail(c, "list sent replies", err)
		return
	}
	respond(c, http.StatusOK, replies)
}

// MarkReplyRead handles PATCH /v1/replies/:id/read
func (h *ThreadHandler) MarkReplyRead(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.svc.MarkReplyRead(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		h.fail(c, "mark reply read", err, zap.String("reply_id", id.String()))
		return
	}
	respondMessage(c, http.StatusOK, "reply marked as read")
}
