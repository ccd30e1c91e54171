package response

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse standardizes API errors.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ValidationError writes 400 payloads.
func ValidationError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: "validation_error", Message: "invalid request"}
	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		detail := make(map[string]string)
		for _, field := range verr {
			detail[strings.ToLower(field.Field())] = field.Tag()
		}
		resp.Details = detail
	} else if err != nil {
		resp.Message = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

// BadRequest helper.
func BadRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: code, Message: message})
}

// NotFound helper.
func NotFound(c *gin.Context, resource string) {
	msg := "resource not found"
	if resource != "" {
		msg = resource + " not found"
	}
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: msg})
}

// PayloadTooLarge helper.
func PayloadTooLarge(c *gin.Context, limit int64) {
	c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
		Error:   "payload_too_large",
		Message: "request body exceeds " + strconv.FormatInt(limit, 10) + " bytes",
	})
}

// TooManyRequests helper.
func TooManyRequests(c *gin.Context, reset time.Time) {
	resetSeconds := strconv.FormatInt(reset.Unix(), 10)
	retryAfter := int(time.Until(reset).Seconds())
	if retryAfter < 0 {
		retryAfter = 0
	}
	c.Writer.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	c.Writer.Header().Set("X-RateLimit-Reset", resetSeconds)
	c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate_limited", Message: "slow down"})
}

// InternalServerError helper.
func InternalServerError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "unexpected error"})
	if err != nil {
		_ = c.Error(err) // surface for logs
	}
}

// Success writes the plain acknowledgement used by write and toggle endpoints.
func Success(c *gin.Context, status int, extra gin.H) {
	body := gin.H{"status": "success"}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// UserIDParam returns the raw :user_id path segment, used as a rate-limit key.
func UserIDParam(c *gin.Context) string {
	return c.Param("user_id")
}
