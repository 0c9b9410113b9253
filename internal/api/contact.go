package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/safebytes/internal/middleware"
	"github.com/lalith-99/safebytes/internal/models"
	"github.com/lalith-99/safebytes/internal/service"
	"go.uber.org/zap"
)

// submitContactRequest is the public contact form. It has no sender id
// field: the sender is taken from the token, if any.
type submitContactRequest struct {
	RestaurantID *uuid.UUID       `json:"restaurant_id"`
	Name         string           `json:"name"`
	Email        string           `json:"email" binding:"omitempty,email"`
	Phone        string           `json:"phone"`
	Subject      string           `json:"subject"`
	Body         string           `json:"body"`
	SenderKind   models.SenderKind `json:"sender_kind"`
}

// SubmitContactMessage handles POST /v1/contact-messages
//
// Works with or without a token. Without one the message is anonymous and
// can never be replied to.
func (h *ThreadHandler) SubmitContactMessage(c *gin.Context) {
	var req submitContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid contact message", err)
		return
	}

	in := service.ContactMessageInput{
		RestaurantID: req.RestaurantID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Subject:      req.Subject,
		Body:         req.Body,
		SenderKind:   req.SenderKind,
	}
	if caller := middleware.GetUserID(c); caller != uuid.Nil {
		in.SenderUserID = &caller
	}

	msg, err := h.svc.SubmitContactMessage(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "submit contact message", err)
		return
	}
	h.logger.Info("contact message submitted",
		zap.String("message_id", msg.ID.String()),
		zap.Bool("anonymous", msg.IsAnonymous()),
	)
	respond(c, http.StatusCreated, msg)
}

// ListAllContactMessages handles GET /v1/contact-messages (admin)
func (h *ThreadHandler) ListAllContactMessages(c *gin.Context) {
	filter, ok := h.contactFilter(c)
	if !ok {
		return
	}
	inbox, err := h.svc.ListAllContactMessages(c.Request.Context(), middleware.GetUserID(c), filter)
	if err != nil {
		h.fail(c, "list contact messages", err)
		return
	}
	respond(c, http.StatusOK, inbox)
}

// ListRestaurantInbox handles GET /v1/restaurants/me/contact-messages
func (h *ThreadHandler) ListRestaurantInbox(c *gin.Context) {
	filter, ok := h.contactFilter(c)
	if !ok {
		return
	}
	inbox, err := h.svc.ListMessagesForRestaurant(c.Request.Context(), middleware.GetUserID(c), filter)
	if err != nil {
		h.fail(c, "list restaurant inbox", err)
		return
	}
	respond(c, http.StatusOK, inbox)
}

// GetContactMessage handles GET /v1/contact-messages/:id
func (h *ThreadHandler) GetContactMessage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	msg, err := h.svc.GetContactMessage(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		h.fail(c, "get contact message", err, zap.String("message_id", id.String()))
		return
	}
	respond(c, http.StatusOK, msg)
}

// MarkContactMessageRead handles PATCH /v1/contact-messages/:id/read
func (h *ThreadHandler) MarkContactMessageRead(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	msg, err := h.svc.MarkContactMessageRead(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		h.fail(c, "mark contact message read", err, zap.String("message_id", id.String()))
		return
	}
	respond(c, http.StatusOK, msg)
}

// DeleteContactMessage handles DELETE /v1/contact-messages/:id
func (h *ThreadHandler) DeleteContactMessage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteContactMessage(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		h.fail(c, "delete contact message", err, zap.String("message_id", id.String()))
		return
	}
	respondMessage(c, http.StatusOK, "contact message deleted")
}
