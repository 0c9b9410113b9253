package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/safebytes/internal/middleware"
	"github.com/lalith-99/safebytes/internal/service"
	"go.uber.org/zap"
)

// envelope is the body of every response.
//
//	{ "success": true,  "data": {...} }
//	{ "success": false, "message": "contact message not found" }
//
// Details carries the underlying error text and is only filled outside
// production.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Details string `json:"details,omitempty"`
}

// responder is embedded in every handler that reports service errors.
type responder struct {
	logger        *zap.Logger
	exposeDetails bool
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: true, Message: message})
}

// badRequest reports a malformed request: bad JSON, bad path id, bad query.
func (r responder) badRequest(c *gin.Context, message string, err error) {
	body := envelope{Success: false, Message: message}
	if err != nil && r.exposeDetails {
		body.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// statusFor maps service sentinels to HTTP statuses. Anything unmapped is
// a persistence failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidField),
		errors.Is(err, service.ErrAnonymousMessage):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrAlreadyReplied):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error response for err. Client errors carry the error
// text as the message; a 500 gets a generic message and is logged.
func (r responder) fail(c *gin.Context, op string, err error, fields ...zap.Field) {
	status := statusFor(err)
	body := envelope{Success: false, Message: err.Error()}

	fields = append(fields, zap.String("op", op), zap.Error(err))
	if caller := middleware.GetUserID(c); caller != uuid.Nil {
		fields = append(fields, zap.String("caller_id", caller.String()))
	}

	if status == http.StatusInternalServerError {
		r.logger.Error(op+" failed", fields...)
		body.Message = op + " failed"
		if r.exposeDetails {
			body.Details = err.Error()
		}
	} else {
		r.logger.Debug(op+" rejected", fields...)
	}
	c.JSON(status, body)
}
