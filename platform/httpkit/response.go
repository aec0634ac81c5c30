package httpkit

import (
	"errors"
	"net/http"

	"pestcrm_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

const msgInternal = "internal server error"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OK writes payload with 200.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Fail aborts with status and message. The cause is recorded on the context
// so RequestLogger can report it.
func Fail(c *gin.Context, status int, message string, cause error) {
	if cause == nil {
		cause = errors.New(message)
	}
	_ = c.Error(cause)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

// HandleError writes the response for err and reports whether it did.
// Typed errors use their Kind. Anything else is an internal failure, and
// internal details never reach the client.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	e, ok := apperr.As(err)
	if !ok {
		Fail(c, http.StatusInternalServerError, msgInternal, err)
		return true
	}

	status := e.HTTPStatus()
	message := e.Message
	if status >= http.StatusInternalServerError {
		message = msgInternal
	}
	Fail(c, status, message, err)
	return true
}
