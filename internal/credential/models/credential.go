// Package models defines the credential and verification record aggregates.
package models

import (
	"strings"
	"time"

	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// Status is a credential's lifecycle state. `expired` is derived at
// verification time from expiresAt, never written; `revoked` is the only
// explicit transition and it is terminal.
type Status string

const (
	StatusVerified Status = "verified"
	StatusPending  Status = "pending"
	StatusExpired  Status = "expired"
	StatusRevoked  Status = "revoked"
)

// Normalized returns the status trimmed and lowercased. Stored records carry
// canonical values, but ad-hoc documents submitted for verification do not,
// and the checks compare normalized forms.
func (s Status) Normalized() Status {
	return Status(strings.ToLower(strings.TrimSpace(string(s))))
}

// ProofTypeECDSA is the proof envelope's type tag. The name references
// secp256k1 while signatures are actually P-256; downstream consumers match
// on the historical tag, so it stays until the wire format is versioned.
const ProofTypeECDSA = "EcdsaSecp256k1Signature2019"

// ProofPurpose is the fixed purpose tag on issued proofs.
const ProofPurpose = "assertionMethod"

// Proof is the signature envelope attached to a credential. The signature is
// computed over the canonical JSON of the credential subject alone.
type Proof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	ProofPurpose       string    `json:"proofPurpose"`
	VerificationMethod string    `json:"verificationMethod"`
	Signature          string    `json:"signature"`
}

// Credential is a signed, shareable JSON document tied to an issuing DID.
//
// JSON field names follow the verifiable-credential document shape
// (camelCase) so a record fetched from the API can be pasted back into the
// verify endpoint as an ad-hoc document and round-trip.
//
// Invariants:
//   - Proof.Signature must be non-empty for the record to be structurally
//     valid.
//   - Subject is always a JSON object, never a scalar or array.
//   - ShareToken, when present, is globally unique; it is the only locator
//     exposed to unauthenticated callers.
//   - Status revoked is terminal.
type Credential struct {
	ID          id.CredentialID `json:"id"`
	DIDID       id.DIDID        `json:"didId"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	IssuerName  string          `json:"issuerName"`
	IssuerDID   string          `json:"issuerDid,omitempty"`
	IssuedAt    time.Time       `json:"issuedAt"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
	Status      Status          `json:"status"`
	Subject     map[string]any  `json:"credentialSubject"`
	Proof       Proof           `json:"proof"`
	ContentID   string          `json:"contentId,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	DocumentURL string          `json:"documentUrl,omitempty"`
	ShareToken  string          `json:"shareToken,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

// ValidateStructure checks the shape every verifiable document must have:
// a title, an object subject, and a proof carrying a signature. Both freshly
// issued records and ad-hoc documents submitted for verification pass through
// here.
func (c *Credential) ValidateStructure() error {
	if strings.TrimSpace(c.Title) == "" {
		return dErrors.New(dErrors.CodeMalformedCredential, "credential requires a title")
	}
	if c.Subject == nil {
		return dErrors.New(dErrors.CodeMalformedCredential, "credentialSubject must be a JSON object")
	}
	if strings.TrimSpace(c.Proof.Signature) == "" {
		return dErrors.New(dErrors.CodeMalformedCredential, "proof must carry a signature")
	}
	return nil
}

// IsExpired reports whether the credential's expiry has passed. A credential
// expiring exactly at now is already expired.
func (c *Credential) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// IsRevoked reports whether the status reads revoked.
func (c *Credential) IsRevoked() bool {
	return c.Status.Normalized() == StatusRevoked
}

// StatusVerified reports whether the status reads verified.
func (c *Credential) StatusVerified() bool {
	return c.Status.Normalized() == StatusVerified
}

// ApplyRevocation transitions the credential to revoked. Revoking twice is an
// error, not a silent no-op, so callers learn the record was already dead.
func (c *Credential) ApplyRevocation() error {
	if c.IsRevoked() {
		return dErrors.New(dErrors.CodeAlreadyRevoked, "credential is already revoked")
	}
	c.Status = StatusRevoked
	return nil
}

// IssuerDIDString returns the DID string to resolve the issuer's public key
// with: the explicit issuer DID when set, otherwise the subject's id claim.
func (c *Credential) IssuerDIDString() string {
	if c.IssuerDID != "" {
		return c.IssuerDID
	}
	if s, ok := c.Subject["id"].(string); ok {
		return s
	}
	return ""
}

// Content is the side record written for a credential subject's fabricated
// content hash: the CID-shaped ID, the canonical payload size, and a
// placeholder MIME type. No real content-addressed storage backs it.
type Content struct {
	ID        string    `json:"id"`
	ByteSize  int       `json:"byteSize"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}
