// Package errors writes the API's JSON error envelope and logs each failure
// through the request logger.
package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/middleware"
)

// Error codes carried in the envelope.
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrForbidden          = "FORBIDDEN"
	ErrConflict           = "CONFLICT"
	ErrRateLimited        = "RATE_LIMITED"
	ErrRemoteFailure      = "REMOTE_FAILURE"
	ErrServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// write logs the failure and sends the envelope. Statuses of 500 and up log
// at error level with err attached; the rest are client errors.
func write(c *gin.Context, status int, code, message string, details map[string]interface{}, err error) {
	requestID := middleware.GetRequestID(c)

	fields := map[string]interface{}{
		"code":    code,
		"message": message,
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
	}
	if details != nil {
		fields["details"] = details
	}
	if status >= http.StatusInternalServerError {
		middleware.GetLogger(c).Error("Request failed", err, fields)
	} else {
		middleware.GetLogger(c).Warn("Request rejected", fields)
	}

	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}

func NotFound(c *gin.Context, message string) {
	write(c, http.StatusNotFound, ErrNotFound, message, nil, nil)
}

// BadRequest reports a malformed request; details are optional.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	write(c, http.StatusBadRequest, ErrBadRequest, message, details, nil)
}

// Unauthorized reports a missing staff session.
func Unauthorized(c *gin.Context, message string) {
	write(c, http.StatusUnauthorized, ErrUnauthorized, message, nil, nil)
}

// Forbidden reports an action the session's role or the lead's state denies.
func Forbidden(c *gin.Context, message string) {
	write(c, http.StatusForbidden, ErrForbidden, message, nil, nil)
}

// Conflict reports a stale lead version or a bulk delete already pending.
func Conflict(c *gin.Context, message string) {
	write(c, http.StatusConflict, ErrConflict, message, nil, nil)
}

func TooManyRequests(c *gin.Context, message string) {
	write(c, http.StatusTooManyRequests, ErrRateLimited, message, nil, nil)
}

// ServiceUnavailable reports an optional integration that is switched off.
func ServiceUnavailable(c *gin.Context, message string) {
	write(c, http.StatusServiceUnavailable, ErrServiceUnavailable, message, nil, nil)
}

// RemoteFailure reports a commit the lead store failed. The cause is sent
// to the client so staff can decide whether to retry.
func RemoteFailure(c *gin.Context, message string, err error) {
	var details map[string]interface{}
	if err != nil {
		details = map[string]interface{}{"cause": err.Error()}
	}
	write(c, http.StatusBadGateway, ErrRemoteFailure, message, details, err)
}

// InternalServerError logs err and sends only message to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	write(c, http.StatusInternalServerError, ErrInternalServer, message, nil, err)
}

// ValidationError reports binding failures keyed by field name, with
// messages in the request's locale.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	trans := Translator(c)
	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = FormatValidationError(trans, fe)
	}
	ValidationFields(c, fields)
}

// ValidationFields reports pre-formatted field messages, as produced by
// lead validation.
func ValidationFields(c *gin.Context, fields map[string]string) {
	details := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	write(c, http.StatusBadRequest, ErrValidation, translate(Translator(c), msgValidationFailed), details, nil)
}
