package transport

import (
	"errors"
	"net/http"

	"github.com/rpggio/hourbank/internal/domain/ledger"
)

const (
	codeInvalidInput   = "INVALID_INPUT"
	codeInvalidID      = "INVALID_ID"
	codeMemberNotFound = "MEMBER_NOT_FOUND"
	codeInternal       = "INTERNAL"
)

// mapError maps domain errors to HTTP status, error code and message.
func mapError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, ledger.ErrMemberNotFound):
		return http.StatusNotFound, codeMemberNotFound, "Member not found"
	case errors.Is(err, ledger.ErrInvalidHours):
		return http.StatusBadRequest, codeInvalidInput, err.Error()
	default:
		return http.StatusInternalServerError, codeInternal, "internal error"
	}
}
