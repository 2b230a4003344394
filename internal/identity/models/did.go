// Package models defines the DID aggregate.
package models

import (
	"time"

	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// SensitiveKey holds private key material. It never serializes to JSON and
// only yields its value through Reveal, so every read of the cleartext key is
// an explicit, greppable call site. Envelope encryption can later live behind
// Reveal without touching callers.
type SensitiveKey string

// Reveal returns the cleartext key material. Callers are responsible for the
// owner check before invoking this.
func (k SensitiveKey) Reveal() string { return string(k) }

// MarshalJSON always redacts. The reveal endpoint returns the key through an
// explicit response type, never by serializing the record.
func (k SensitiveKey) MarshalJSON() ([]byte, error) {
	return []byte(`"[redacted]"`), nil
}

// DID is one self-sovereign identity record.
//
// Invariants:
//   - The DID string is a deterministic hash of the public key; the store
//     enforces its global uniqueness.
//   - Records are immutable after creation; only the account-deletion
//     cascade removes them.
//   - A user may hold many DIDs, but exactly one is current at a time
//     (tracked on the user record, first-created-wins until switched).
type DID struct {
	ID         id.DIDID       `json:"id"`
	UserID     id.UserID      `json:"user_id"`
	DID        string         `json:"did"`
	PublicKey  string         `json:"public_key"`
	SigningKey SensitiveKey   `json:"-"`
	Method     string         `json:"method"`
	CreatedAt  time.Time      `json:"created_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewDID constructs a DID record, validating the pieces that must be present.
func NewDID(didID id.DIDID, userID id.UserID, didString, publicKey string, signingKey SensitiveKey, method string, now time.Time) (*DID, error) {
	if didString == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "did string cannot be empty")
	}
	if publicKey == "" || signingKey == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "did requires both key halves")
	}
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "did requires an owning user")
	}
	return &DID{
		ID:         didID,
		UserID:     userID,
		DID:        didString,
		PublicKey:  publicKey,
		SigningKey: signingKey,
		Method:     method,
		CreatedAt:  now,
		Metadata:   map[string]any{},
	}, nil
}

// OwnedBy reports whether the record belongs to userID.
func (d *DID) OwnedBy(userID id.UserID) bool { return d.UserID == userID }
