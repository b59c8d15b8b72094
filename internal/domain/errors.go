package domain

import "errors"

// Sentinel errors. Services wrap them with %w and the HTTP layer maps them to
// status codes with errors.Is; store and transport details stay in the
// wrapped message and never reach a response body.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	// ErrBadRequest covers malformed or invalid input.
	ErrBadRequest = errors.New("bad request")
)
