package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"attest/internal/activity"
	"attest/internal/credential/models"
	"attest/internal/didkey"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

// contentMimeType is the placeholder MIME type on content-hash records; no
// real content store backs them.
const contentMimeType = "application/json"

// IssueParams carries the caller-supplied issuance inputs. When Claims is
// nil, the subject is synthesized from the type's template; custom claims
// must already be a decoded JSON object.
type IssueParams struct {
	Type        string
	Title       string
	IssuerName  string
	IssuedAt    *time.Time
	ExpiresAt   *time.Time
	Claims      map[string]any
	ImageURL    string
	DocumentURL string
	Metadata    map[string]any
}

// Issue creates a signed credential against the caller's current DID.
//
// The pipeline fails closed: any error before the store write leaves no
// partial state, and a store failure leaves only the inert content-hash side
// record.
func (s *Service) Issue(ctx context.Context, userID id.UserID, params IssueParams) (*models.Credential, error) {
	did, err := s.identities.Current(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	issuedAt := now
	if params.IssuedAt != nil {
		issuedAt = *params.IssuedAt
	}

	subject, err := buildSubject(did.DID, params, issuedAt)
	if err != nil {
		return nil, err
	}

	contentID, err := didkey.ContentHash(subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash credential subject")
	}
	canonical, err := didkey.CanonicalJSON(subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to canonicalize credential subject")
	}

	signature, err := didkey.Sign(subject, did.SigningKey.Reveal())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign credential subject")
	}

	expiresAt := params.ExpiresAt
	if expiresAt == nil && isGovernmentID(params.Type) {
		defaulted := issuedAt.AddDate(governmentIDValidity, 0, 0)
		expiresAt = &defaulted
	}

	credential := &models.Credential{
		ID:         id.NewCredentialID(),
		DIDID:      did.ID,
		Type:       params.Type,
		Title:      params.Title,
		IssuerName: params.IssuerName,
		IssuerDID:  did.DID,
		IssuedAt:   issuedAt,
		ExpiresAt:  expiresAt,
		// Self-issuance is trusted unconditionally at this trust level.
		Status:  models.StatusVerified,
		Subject: subject,
		Proof: models.Proof{
			Type:               models.ProofTypeECDSA,
			Created:            now,
			ProofPurpose:       models.ProofPurpose,
			VerificationMethod: did.DID + "#keys-1",
			Signature:          signature,
		},
		ContentID:   contentID,
		ImageURL:    params.ImageURL,
		DocumentURL: params.DocumentURL,
		ShareToken:  uuid.NewString(),
		Metadata:    params.Metadata,
	}
	if err := credential.ValidateStructure(); err != nil {
		return nil, err
	}

	if err := s.credentials.SaveContent(ctx, models.Content{
		ID:        contentID,
		ByteSize:  len(canonical),
		MimeType:  contentMimeType,
		CreatedAt: now,
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save content record")
	}

	if err := s.credentials.Create(ctx, credential); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			// A UUID share token collided, which means the RNG is broken.
			// Surface it rather than retry into the same failure.
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "share token collision")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist credential")
	}

	s.activity.Record(ctx, userID, &did.ID, activity.TypeCredentialIssued,
		"Issued credential "+credential.Title,
		map[string]any{
			"credential_id": credential.ID.String(),
			"type":          credential.Type,
			"issuer":        credential.IssuerName,
		},
	)
	s.metrics.IncrementCredentialsIssued()
	return credential, nil
}

// buildSubject assembles the credential subject: the DID string as the
// subject id plus either the type template or the caller's custom claims.
func buildSubject(didString string, params IssueParams, issuedAt time.Time) (map[string]any, error) {
	claims := params.Claims
	if claims == nil {
		claims = templateSubject(params.Type, params.IssuerName, issuedAt)
		if claims == nil {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput,
				"type %q has no template; provide custom claims", params.Type)
		}
	}

	subject := make(map[string]any, len(claims)+1)
	for key, value := range claims {
		subject[key] = value
	}
	subject["id"] = didString
	return subject, nil
}
