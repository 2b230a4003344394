// Package models defines the user aggregate and session results.
package models

import (
	"time"

	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// User is a registered account. CurrentDIDID is the explicit pointer to the
// DID used for issuance; it lives on the user record so switching identities
// is a plain row update, not ambient state.
type User struct {
	ID           id.UserID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Admin        bool      `json:"admin"`
	CurrentDIDID id.DIDID  `json:"current_did_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser constructs a user, validating construction invariants. Email
// format validation happens at the handler boundary; this guards the
// aggregate itself.
func NewUser(userID id.UserID, email, passwordHash string, now time.Time) (*User, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email cannot be empty")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}
	return &User{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// Session is the result of a successful login.
type Session struct {
	SessionID   id.SessionID `json:"session_id"`
	UserID      id.UserID    `json:"user_id"`
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
}
