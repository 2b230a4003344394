package service

import (
	"context"

	"attest/internal/activity"
	"attest/internal/didkey"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/requestcontext"
)

// Disclosure is the output of a selective disclosure: the literal values of
// the selected fields plus the commitment proof binding them to the full
// subject. The proof is a hash commitment, not a zero-knowledge construction;
// it has no standalone verify routine.
type Disclosure struct {
	Proof           string         `json:"proof"`
	DisclosedFields map[string]any `json:"disclosedFields"`
}

// Disclose reveals the selected fields of an owned credential. Fields absent
// from the subject are silently skipped. Disclosure requires ownership:
// handing out field values of arbitrary records by ID would bypass the share
// token, which is the only intended anonymous locator.
func (s *Service) Disclose(ctx context.Context, userID id.UserID, credentialID id.CredentialID, fields []string) (*Disclosure, error) {
	if len(fields) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "select at least one field to disclose")
	}

	credential, did, err := s.ownedCredential(ctx, userID, credentialID)
	if err != nil {
		return nil, err
	}

	disclosed := make(map[string]any, len(fields))
	for _, field := range fields {
		if value, ok := credential.Subject[field]; ok {
			disclosed[field] = value
		}
	}

	proof, err := didkey.DisclosureProof(credential.Subject, fields, did.DID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build disclosure proof")
	}

	s.activity.Record(ctx, userID, &did.ID, activity.TypeCredentialShared,
		"Shared selected fields of credential "+credential.Title,
		map[string]any{
			"credential_id": credential.ID.String(),
			"fields":        fields,
		},
	)
	s.metrics.IncrementDisclosures()

	return &Disclosure{Proof: proof, DisclosedFields: disclosed}, nil
}
