package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"checkoutbridge/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps create-checkout errors to HTTP status codes.
// The status lookup answers every failure with 400 and does not use it.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidOrderID),
		errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest

	// Upstream failures and anything unexpected
	default:
		return http.StatusInternalServerError
	}
}
