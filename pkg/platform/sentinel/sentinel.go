// Package sentinel defines infrastructure-level sentinel errors.
//
// Stores and other infrastructure return these (optionally wrapped) so
// services can translate them into domain errors with the right code. They
// state facts about resources, not validation outcomes:
//
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: a general uniqueness or state conflict
//   - ErrExpired: token or session has passed its expiry
//   - ErrAlreadyUsed: identifier (DID string, share token) already taken
//   - ErrInvalidState: record is in the wrong state for the operation
//   - ErrUnavailable: backing service temporarily unreachable
//
// Validation failures use pkg/domain-errors directly.
package sentinel

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
