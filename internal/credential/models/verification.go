package models

import (
	"time"

	id "attest/pkg/domain"
)

// VerificationMethodSignature tags verifications performed by the signature
// pipeline. There is currently no other method.
const VerificationMethodSignature = "signature"

// CheckResults holds the individual boolean checks behind one verification
// verdict. Callers display each as a discrete signal, so even the
// always-true issuer check stays named rather than folded away.
type CheckResults struct {
	SignatureValid bool `json:"signatureValid"`
	NotExpired     bool `json:"notExpired"`
	IssuerTrusted  bool `json:"issuerTrusted"`
	ProofVerified  bool `json:"proofVerified"`
	StatusVerified bool `json:"statusVerified"`
	IsRevoked      bool `json:"isRevoked"`
}

// Verification is the append-only audit record of one verification attempt.
// CredentialID stays nil when an ad-hoc document not found in storage was
// verified. Records are never updated or deleted except by the
// account-deletion cascade.
type Verification struct {
	ID           id.VerificationID `json:"id"`
	CredentialID *id.CredentialID  `json:"credentialId,omitempty"`
	Verifier     string            `json:"verifier"`
	VerifiedAt   time.Time         `json:"verifiedAt"`
	IsValid      bool              `json:"isValid"`
	Method       string            `json:"method"`
	Policy       string            `json:"policy"`
	Device       string            `json:"device,omitempty"`
	Checks       CheckResults      `json:"checks"`
}
