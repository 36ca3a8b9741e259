package dto

import (
	"errors"
	"net/http"

	"github.com/erp/ledger/internal/domain/shared"
)

// Error codes produced by the HTTP layer itself. Domain errors keep their
// own codes (UNBALANCED_ENTRY, DUPLICATE_ALLOCATION, ...).
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeInvalidID  = "ERR_INVALID_ID"
	ErrCodeNoTenant   = "ERR_TENANT_REQUIRED"
	ErrCodeNoActor    = "ERR_ACTOR_REQUIRED"
	ErrCodeNotFound   = "ERR_NOT_FOUND"
	ErrCodeMethod     = "ERR_METHOD_NOT_ALLOWED"
)

// codeStatus overrides the status derived from an error's kind
var codeStatus = map[string]int{
	"ALREADY_EXISTS":       http.StatusConflict,
	"ALREADY_POSTED":       http.StatusConflict,
	"DUPLICATE_ALLOCATION": http.StatusConflict,
}

var kindStatus = map[shared.ErrorKind]int{
	shared.KindValidation:  http.StatusBadRequest,
	shared.KindState:       http.StatusUnprocessableEntity,
	shared.KindConsistency: http.StatusConflict,
	shared.KindNotFound:    http.StatusNotFound,
}

// ErrorStatus maps err to a status code, error code and client message.
// Errors that are not domain errors are internal and their text is not
// exposed.
func ErrorStatus(err error) (int, string, string) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred"
	}
	if status, ok := codeStatus[de.Code]; ok {
		return status, de.Code, err.Error()
	}
	if status, ok := kindStatus[de.Kind]; ok {
		return status, de.Code, err.Error()
	}
	return http.StatusUnprocessableEntity, de.Code, err.Error()
}
