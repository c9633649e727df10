// Package httpkit holds the response helpers and gin middleware shared
// by the console's HTTP modules.
package httpkit

import (
	"errors"
	"net/http"

	"collections_console/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error shape every console endpoint returns.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// JSON writes a payload with an explicit status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error writes an ErrorResponse with the given status code.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// OK writes a payload with 200 OK.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// HandleError translates a domain error into an HTTP response. Typed
// *apperr.Error values map through their Kind, so an expired session
// surfaces as 401 and a second concurrent call as 409; anything
// untyped falls back to 400. Returns true when a response was written.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{
			Error:   domainErr.Message,
			Details: domainErr.Details,
		})
		return true
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	return true
}
