package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope every REST endpoint writes. Exactly one of
// Data and Error is set.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo carries a machine-readable code alongside the human message.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stable error codes per status, so clients can switch on code instead of
// parsing messages.
var statusCodes = map[int]string{
	http.StatusBadRequest:          "BAD_REQUEST",
	http.StatusUnauthorized:        "UNAUTHORIZED",
	http.StatusForbidden:           "FORBIDDEN",
	http.StatusNotFound:            "NOT_FOUND",
	http.StatusConflict:            "CONFLICT",
	http.StatusInternalServerError: "INTERNAL_ERROR",
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Error writes a failure envelope with an explicit code.
func Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{Error: &ErrorInfo{Code: code, Message: message}})
}

// fail writes a failure envelope with the code registered for the status.
func fail(c *gin.Context, statusCode int, message string) {
	code, ok := statusCodes[statusCode]
	if !ok {
		code = "ERROR"
	}
	Error(c, statusCode, code, message)
}

func BadRequest(c *gin.Context, message string)    { fail(c, http.StatusBadRequest, message) }
func Unauthorized(c *gin.Context, message string)  { fail(c, http.StatusUnauthorized, message) }
func Forbidden(c *gin.Context, message string)     { fail(c, http.StatusForbidden, message) }
func NotFound(c *gin.Context, message string)      { fail(c, http.StatusNotFound, message) }
func Conflict(c *gin.Context, message string)      { fail(c, http.StatusConflict, message) }
func InternalError(c *gin.Context, message string) { fail(c, http.StatusInternalServerError, message) }
