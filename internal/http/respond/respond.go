// Package respond writes the JSON envelope shared by every endpoint.
package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// Envelope is the body of every response.
type Envelope struct {
	Code    int         `json:"code"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Token   string      `json:"token,omitempty"`
}

var statusByKind = map[domain.ErrorKind]int{
	domain.KindValidation:         http.StatusBadRequest,
	domain.KindConflict:           http.StatusConflict,
	domain.KindNotFound:           http.StatusNotFound,
	domain.KindInvalidCredentials: http.StatusUnauthorized,
	domain.KindLocked:             http.StatusTooManyRequests,
	domain.KindExpired:            http.StatusBadRequest,
	domain.KindDeactivated:        http.StatusForbidden,
	domain.KindInternal:           http.StatusInternalServerError,
	domain.KindForbidden:          http.StatusForbidden,
	domain.KindRateLimited:        http.StatusTooManyRequests,
	domain.KindUnavailable:        http.StatusServiceUnavailable,
	domain.KindMalformedToken:     http.StatusUnauthorized,
	domain.KindExpiredToken:       http.StatusUnauthorized,
	domain.KindUnknownRole:        http.StatusUnauthorized,
	domain.KindStalePassword:      http.StatusUnauthorized,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.ErrorKind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// OK writes a successful envelope.
func OK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Code: status, Success: true, Message: message, Data: data})
}

// WithToken writes a successful envelope carrying a bearer token.
func WithToken(c *gin.Context, status int, message string, data interface{}, token string) {
	c.JSON(status, Envelope{Code: status, Success: true, Message: message, Data: data, Token: token})
}

// Error writes the envelope for err. Internal causes are never exposed.
func Error(c *gin.Context, err error) {
	var ae *domain.AuthError
	if !errors.As(err, &ae) {
		ae = domain.ErrInternal("request", err)
	}
	status := StatusFor(ae.Kind)
	message := ae.Message
	if ae.Kind == domain.KindInternal {
		message = "internal server error"
	}
	c.JSON(status, Envelope{Code: status, Success: false, Message: message})
}

// Abort writes the envelope for err and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
