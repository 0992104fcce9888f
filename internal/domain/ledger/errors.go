package ledger

import "errors"

var (
	// ErrMemberNotFound indicates no member has the requested id.
	ErrMemberNotFound = errors.New("member not found")
	// ErrInvalidHours indicates an hours value that cannot be used.
	ErrInvalidHours = errors.New("invalid hours")
)
