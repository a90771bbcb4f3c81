// Package handler contains the gin HTTP handlers.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/orderdesk/backend/internal/domain/orders"
	"github.com/orderdesk/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common response utilities.
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// Success sends a success response.
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given code.
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, getRequestID(c)))
}

// HandleDomainError maps engine errors to HTTP responses.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		h.Error(c, dto.ErrCodeValidation, err.Error())
	case errors.Is(err, domain.ErrItemNotFound):
		h.Error(c, dto.ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrRemoteUnavailable):
		h.Error(c, dto.ErrCodeRemoteUnavailable, err.Error())
	default:
		h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
