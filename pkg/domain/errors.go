package domain

import "errors"

// Session errors
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrMissingRouteParam = errors.New("user id and session id are required")
	ErrInvalidRouteParam = errors.New("invalid route parameter")
	ErrInvalidToken      = errors.New("invalid token")
)

// Revocation errors
var (
	ErrRevocationInProgress = errors.New("revocation already in progress")
	ErrInvalidState         = errors.New("action not allowed in current state")
	ErrViewDisposed         = errors.New("view has been torn down")
)

// Preference errors
var (
	ErrInvalidPreferences = errors.New("invalid console preferences")
)
