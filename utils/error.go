package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorKind classifies failures so handlers can map them to a status once.
type ErrorKind string

const (
	KindValidation            ErrorKind = "ValidationError"
	KindNotFound              ErrorKind = "NotFound"
	KindUnauthorized          ErrorKind = "Unauthorized"
	KindForbidden             ErrorKind = "Forbidden"
	KindSlotConflict          ErrorKind = "SlotConflict"
	KindInvalidTransition     ErrorKind = "InvalidTransition"
	KindSignatureMismatch     ErrorKind = "SignatureMismatch"
	KindDependencyUnavailable ErrorKind = "DependencyUnavailable"
	KindRateLimited           ErrorKind = "RateLimited"
)

// AppError is a typed failure returned by the services.
type AppError struct {
	Kind    ErrorKind
	Message string
	Field   string // set for validation errors
	Err     error
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Status maps the error kind to an HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation, KindSignatureMismatch:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindSlotConflict:
		return http.StatusConflict
	case KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(field, message string) error {
	return &AppError{Kind: KindValidation, Field: field, Message: message}
}

func NewNotFoundError(message string) error {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewForbiddenError(message string) error {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NewSlotConflictError(slot string) error {
	return &AppError{Kind: KindSlotConflict, Field: "slot", Message: fmt.Sprintf("slot %s is no longer available, please pick another slot", slot)}
}

func NewInvalidTransitionError(from, to string) error {
	return &AppError{Kind: KindInvalidTransition, Message: fmt.Sprintf("cannot move from %s to %s", from, to)}
}

func NewSignatureMismatchError() error {
	return &AppError{Kind: KindSignatureMismatch, Message: "payment verification failed"}
}

func NewDependencyUnavailableError(dependency string, err error) error {
	return &AppError{Kind: KindDependencyUnavailable, Message: dependency + " is unavailable", Err: err}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.FullPath()))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   "InternalError",
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError logs a warning and aborts with a standardized JSON error body. It is
// used for failures detected before a service is called.
func JSONError(c *gin.Context, kind ErrorKind, message string, details string) {
	status := (&AppError{Kind: kind}).Status()
	GetLogger().Warn(message,
		zap.String("kind", string(kind)),
		zap.String("details", details),
		zap.Int("status", status),
		zap.String("path", c.FullPath()))
	c.AbortWithStatusJSON(status, ErrorResponse{Error: string(kind), Message: message, Details: details})
}

// RespondError writes err using its AppError kind, or a generic 500.
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.Status()
		if status >= http.StatusInternalServerError {
			GetLogger().Error(appErr.Message, zap.Error(err), zap.String("path", c.FullPath()))
		} else {
			GetLogger().Debug(appErr.Message, zap.String("kind", string(appErr.Kind)), zap.String("path", c.FullPath()))
		}
		c.AbortWithStatusJSON(status, ErrorResponse{Error: string(appErr.Kind), Message: appErr.Message, Field: appErr.Field})
		return
	}
	GetLogger().Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "InternalError", Message: "Internal Server Error"})
}
