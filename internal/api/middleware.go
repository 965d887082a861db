package api

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"reservation-service/internal/models"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// ResponseHelpers provides methods for REST-native responses
type ResponseHelpers struct{}

// Response is the shared helper used by all handlers
var Response = &ResponseHelpers{}

// Success sends the resource directly (no wrapper)
func (h *ResponseHelpers) Success(c *gin.Context, resource interface{}) {
	c.JSON(200, resource)
}

// Created sends a 201 created response with the created resource
func (h *ResponseHelpers) Created(c *gin.Context, resource interface{}) {
	c.JSON(201, resource)
}

// NoContent sends a 204 no content response
func (h *ResponseHelpers) NoContent(c *gin.Context) {
	c.Status(204)
}

// ValidationError sends a 400 with a field-level message
func (h *ResponseHelpers) ValidationError(c *gin.Context, field, message string) {
	c.JSON(400, models.ErrorResponse{
		Error: field + ": " + message,
		Code:  models.ErrorCodeInvalidField,
	})
}

// BindingError translates gin binding failures into field-level messages
func (h *ResponseHelpers) BindingError(c *gin.Context, err error) {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		h.ValidationError(c, verrs[0].Field(), "failed on "+verrs[0].Tag())
		return
	}
	h.ValidationError(c, "request", "Invalid request format")
}

// BusinessError sends a business-rule failure with its error code
func (h *ResponseHelpers) BusinessError(c *gin.Context, status int, message string, code models.ErrorCode) {
	c.JSON(status, models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// InternalError sends a 500 response
func (h *ResponseHelpers) InternalError(c *gin.Context, message string) {
	c.JSON(500, models.ErrorResponse{
		Error: message,
		Code:  models.ErrorCodeInternalError,
	})
}
