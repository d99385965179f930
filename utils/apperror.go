package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorKind classifies service failures into the external taxonomy. Services
// build closed sets of *ServiceError values; handlers translate them with
// RespondError and never leak raw internal reasons.
type ErrorKind int

const (
	KindBadRequest ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindForbidden
	KindInternal
)

// ServiceError is a tagged service failure: a stable machine code plus a
// user-facing message.
type ServiceError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Constructors for the closed taxonomy.

func BadRequestError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindBadRequest, Code: code, Message: message}
}

func NotFoundError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Code: code, Message: message}
}

func ConflictError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindConflict, Code: code, Message: message}
}

func ForbiddenError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindForbidden, Code: code, Message: message}
}

func InternalError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindInternal, Code: code, Message: message}
}

func statusForKind(kind ErrorKind) int {
	switch kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps a service error onto the HTTP taxonomy. Unrecognized
// errors become opaque 500s.
func RespondError(c *gin.Context, err error) {
	var se *ServiceError
	if errors.As(err, &se) {
		JSONError(c, statusForKind(se.Kind), se.Message, se.Code)
		return
	}
	GetLogger().Sugar().Errorf("unhandled service error: %v", err)
	JSONError(c, http.StatusInternalServerError, "Internal Server Error", "")
}
