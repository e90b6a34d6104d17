package domain

import "errors"

// Sentinel errors. Services wrap them with context ("listing L1: not found")
// and handlers map them to status codes with errors.Is.
var (
	// ErrNotFound: the listing, request, message or notification does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: the write raced with a concurrent change.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized: no verified caller.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden: the caller does not own the record or is not a party to it.
	ErrForbidden = errors.New("forbidden")
	// ErrBadRequest: the input breaks a field rule or an invariant.
	ErrBadRequest = errors.New("bad request")
)
