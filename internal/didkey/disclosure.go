package didkey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// DisclosureCommitmentType tags disclosure proofs. The value is deliberately
// honest about what this construction is: a hash commitment over the full
// subject plus the chosen field list. It binds the disclosed fields to the
// original subject but offers no zero-knowledge property and has no
// standalone verify routine.
const DisclosureCommitmentType = "SelectiveDisclosureCommitment"

// disclosureProof is the serialized commitment envelope.
type disclosureProof struct {
	Type               string   `json:"type"`
	ProofPurpose       string   `json:"proofPurpose"`
	Created            string   `json:"created"`
	VerificationMethod string   `json:"verificationMethod"`
	Challenge          string   `json:"challenge"`
	DisclosedFields    []string `json:"disclosedFields"`
	ProofValue         string   `json:"proofValue"`
}

// DisclosureProof builds the commitment string for revealing selectedFields
// of fullSubject. The proofValue is SHA-256 over the canonical JSON of the
// subject and the field list together, so the omitted field values never
// appear in the output.
func DisclosureProof(fullSubject map[string]any, selectedFields []string, did string, now time.Time) (string, error) {
	commitInput := map[string]any{
		"credentialSubject": fullSubject,
		"selectedFields":    selectedFields,
	}
	canonical, err := CanonicalJSON(commitInput)
	if err != nil {
		return "", fmt.Errorf("canonicalize commitment input: %w", err)
	}
	sum := sha256.Sum256(canonical)

	challenge := make([]byte, 16)
	if _, err := rand.Read(challenge); err != nil {
		return "", fmt.Errorf("generate challenge: %w", err)
	}

	proof := disclosureProof{
		Type:               DisclosureCommitmentType,
		ProofPurpose:       "assertionMethod",
		Created:            now.UTC().Format(time.RFC3339),
		VerificationMethod: did + "#keys-1",
		Challenge:          hex.EncodeToString(challenge),
		DisclosedFields:    selectedFields,
		ProofValue:         hex.EncodeToString(sum[:]),
	}

	encoded, err := json.Marshal(proof)
	if err != nil {
		return "", fmt.Errorf("marshal disclosure proof: %w", err)
	}
	return string(encoded), nil
}
