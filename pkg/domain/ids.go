// Package domain defines typed identifiers shared across modules.
//
// Every entity ID is a distinct type over uuid.UUID so the compiler rejects
// cross-type assignment (passing a CredentialID where a DIDID is expected is
// a compile error, not a runtime bug). Parse functions enforce the trust
// boundary invariant: IDs must be valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "attest/pkg/domain-errors"
)

type (
	// UserID identifies a registered account.
	UserID uuid.UUID
	// DIDID identifies a stored DID record (not the did:key string itself).
	DIDID uuid.UUID
	// CredentialID identifies a stored credential.
	CredentialID uuid.UUID
	// VerificationID identifies one verification attempt record.
	VerificationID uuid.UUID
	// ActivityID identifies one activity log entry.
	ActivityID uuid.UUID
	// SessionID identifies an authenticated session.
	SessionID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id DIDID) String() string          { return uuid.UUID(id).String() }
func (id CredentialID) String() string   { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id ActivityID) String() string     { return uuid.UUID(id).String() }
func (id SessionID) String() string      { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id DIDID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id CredentialID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ActivityID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// The ID types are defined over uuid.UUID rather than embedding it, so they
// do not inherit its text marshaling; without these methods encoding/json
// would render IDs as raw byte arrays. Unmarshaling is lenient (empty input
// yields the zero ID) because documents submitted for verification may omit
// IDs; trust boundaries use the strict Parse functions instead.

func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id DIDID) MarshalText() ([]byte, error)          { return []byte(id.String()), nil }
func (id CredentialID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id VerificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ActivityID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id SessionID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text)
	*id = UserID(parsed)
	return err
}

func (id *DIDID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text)
	*id = DIDID(parsed)
	return err
}

func (id *CredentialID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text)
	*id = CredentialID(parsed)
	return err
}

func (id *VerificationID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text)
	*id = VerificationID(parsed)
	return err
}

func (id *ActivityID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text)
	*id = ActivityID(parsed)
	return err
}

func (id *SessionID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text)
	*id = SessionID(parsed)
	return err
}

func unmarshalUUID(text []byte) (uuid.UUID, error) {
	if len(text) == 0 {
		return uuid.Nil, nil
	}
	return uuid.Parse(string(text))
}

// NewUserID returns a freshly generated user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewDIDID returns a freshly generated DID record ID.
func NewDIDID() DIDID { return DIDID(uuid.New()) }

// NewCredentialID returns a freshly generated credential ID.
func NewCredentialID() CredentialID { return CredentialID(uuid.New()) }

// NewVerificationID returns a freshly generated verification record ID.
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

// NewActivityID returns a freshly generated activity entry ID.
func NewActivityID() ActivityID { return ActivityID(uuid.New()) }

// NewSessionID returns a freshly generated session ID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

// ParseDIDID parses and validates a DID record ID from its string form.
func ParseDIDID(raw string) (DIDID, error) {
	parsed, err := parseUUID(raw, "did id")
	return DIDID(parsed), err
}

// ParseCredentialID parses and validates a credential ID from its string form.
func ParseCredentialID(raw string) (CredentialID, error) {
	parsed, err := parseUUID(raw, "credential id")
	return CredentialID(parsed), err
}

// ParseVerificationID parses and validates a verification record ID.
func ParseVerificationID(raw string) (VerificationID, error) {
	parsed, err := parseUUID(raw, "verification id")
	return VerificationID(parsed), err
}

// ParseActivityID parses and validates an activity entry ID.
func ParseActivityID(raw string) (ActivityID, error) {
	parsed, err := parseUUID(raw, "activity id")
	return ActivityID(parsed), err
}

// ParseSessionID parses and validates a session ID from its string form.
func ParseSessionID(raw string) (SessionID, error) {
	parsed, err := parseUUID(raw, "session id")
	return SessionID(parsed), err
}

func parseUUID(raw, label string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be the nil UUID")
	}
	return parsed, nil
}
