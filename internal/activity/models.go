// Package activity records the append-only timeline of identity and
// credential events. Entries are observational: nothing in the business
// logic ever reads them back.
package activity

import (
	"time"

	id "attest/pkg/domain"
)

// Type tags the kind of event an entry records.
type Type string

const (
	TypeDIDCreated         Type = "did_created"
	TypeCredentialIssued   Type = "credential_issued"
	TypeCredentialVerified Type = "credential_verified"
	TypeCredentialShared   Type = "credential_shared"
	TypeCredentialRevoked  Type = "credential_revoked"
)

// Entry is one line of a DID's timeline.
type Entry struct {
	ID          id.ActivityID  `json:"id"`
	UserID      id.UserID      `json:"user_id"`
	DIDID       *id.DIDID      `json:"did_id,omitempty"`
	Type        Type           `json:"type"`
	Description string         `json:"description"`
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
