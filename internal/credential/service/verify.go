package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mssola/useragent"

	"attest/internal/activity"
	"attest/internal/credential/models"
	"attest/internal/didkey"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

// TrustPolicy selects the signature-fallback rule for a verification entry
// point. One parameterized algorithm serves all entry points so the check
// semantics cannot drift between them.
type TrustPolicy int

const (
	// TrustStoredStatus is the self-serve and public share-link policy: the
	// signature check is surfaced as a detail but is not load-bearing in the
	// final verdict. When the issuer DID cannot be resolved, the signature
	// detail falls back to whether the stored status already reads verified.
	TrustStoredStatus TrustPolicy = iota
	// RequireSignatureMatch is the admin portal policy: the signature check
	// is load-bearing, and an unresolvable issuer DID fails it.
	RequireSignatureMatch
)

func (p TrustPolicy) String() string {
	if p == RequireSignatureMatch {
		return "require_signature_match"
	}
	return "trust_stored_status"
}

// AnonymousVerifier is the verifier identity recorded for unauthenticated
// share-link verifications.
const AnonymousVerifier = "anonymous"

// VerifyResult is one verification verdict plus its audit trail.
type VerifyResult struct {
	IsValid      bool
	Checks       models.CheckResults
	Credential   *models.Credential
	Stored       bool
	Verification *models.Verification
}

// Verify resolves input to a credential document and computes the verdict
// under the given trust policy, always appending a verification record.
//
// Input resolution: a string containing "/verify/" is reduced to the path
// segment after it; then JSON parse is tried first, then credential ID, then
// share token lookup. Ad-hoc JSON documents not found in storage are
// verified structurally; they never contribute activity entries.
func (s *Service) Verify(ctx context.Context, input string, policy TrustPolicy, verifier string) (*VerifyResult, error) {
	if verifier == "" {
		verifier = s.callerIdentity(ctx)
	}

	credential, stored, err := s.resolveInput(ctx, input)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	checks := models.CheckResults{
		NotExpired:     !credential.IsExpired(now),
		StatusVerified: credential.StatusVerified(),
		IsRevoked:      credential.IsRevoked(),
		// No issuer registry exists; the check stays named because callers
		// display it as a discrete signal.
		IssuerTrusted: true,
		ProofVerified: strings.TrimSpace(credential.Proof.Signature) != "",
	}
	checks.SignatureValid = s.signatureCheck(ctx, credential, policy, checks.StatusVerified)

	isValid := !checks.IsRevoked &&
		checks.StatusVerified &&
		checks.NotExpired &&
		checks.IssuerTrusted &&
		checks.ProofVerified
	if policy == RequireSignatureMatch {
		isValid = isValid && checks.SignatureValid
	}

	verification := &models.Verification{
		ID:         id.NewVerificationID(),
		Verifier:   verifier,
		VerifiedAt: now,
		IsValid:    isValid,
		Method:     models.VerificationMethodSignature,
		Policy:     policy.String(),
		Device:     deviceDescription(requestcontext.UserAgent(ctx)),
		Checks:     checks,
	}
	if stored {
		credentialID := credential.ID
		verification.CredentialID = &credentialID
	}
	if err := s.verifications.Append(ctx, verification); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification")
	}

	if callerID := requestcontext.UserID(ctx); !callerID.IsNil() && stored {
		s.activity.Record(ctx, callerID, &credential.DIDID, activity.TypeCredentialVerified,
			"Verified credential "+credential.Title,
			map[string]any{
				"credential_id": credential.ID.String(),
				"is_valid":      isValid,
				"policy":        policy.String(),
			},
		)
	}
	s.metrics.IncrementVerifications(policy.String(), isValid)

	return &VerifyResult{
		IsValid:      isValid,
		Checks:       checks,
		Credential:   credential,
		Stored:       stored,
		Verification: verification,
	}, nil
}

// resolveInput turns the opaque verify input into a credential document and
// reports whether it is a stored record.
func (s *Service) resolveInput(ctx context.Context, input string) (*models.Credential, bool, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, false, dErrors.New(dErrors.CodeCredentialNotFound, "empty verification input")
	}

	if json.Valid([]byte(trimmed)) {
		return s.resolveDocument(ctx, trimmed)
	}
	trimmed = extractShareSegment(trimmed)

	if credentialID, err := id.ParseCredentialID(trimmed); err == nil {
		credential, err := s.credentials.FindByID(ctx, credentialID)
		if err == nil {
			return credential, true, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
		}
	}

	credential, err := s.findByShareToken(ctx, trimmed)
	if err == nil {
		return credential, true, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve share token")
	}
	return nil, false, dErrors.New(dErrors.CodeCredentialNotFound, "no credential matches the given input")
}

// resolveDocument parses an ad-hoc JSON document. When the document carries
// the ID of a stored record, the stored record wins so revocation cannot be
// bypassed by replaying an old copy.
func (s *Service) resolveDocument(ctx context.Context, raw string) (*models.Credential, bool, error) {
	var credential models.Credential
	if err := json.Unmarshal([]byte(raw), &credential); err != nil {
		return nil, false, dErrors.New(dErrors.CodeMalformedCredential, "credential document is not a JSON object")
	}
	if err := credential.ValidateStructure(); err != nil {
		return nil, false, err
	}

	if !credential.ID.IsNil() {
		storedCredential, err := s.credentials.FindByID(ctx, credential.ID)
		if err == nil {
			return storedCredential, true, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
		}
	}
	return &credential, false, nil
}

// findByShareToken resolves a share token, consulting the Redis lookaside
// first. The cache stores only the token → ID mapping; the record itself is
// always read fresh so status transitions are never served stale.
func (s *Service) findByShareToken(ctx context.Context, shareToken string) (*models.Credential, error) {
	if credentialID, ok := s.shareCache.Get(ctx, shareToken); ok {
		s.metrics.IncrementShareCacheLookup(true)
		credential, err := s.credentials.FindByID(ctx, credentialID)
		if err == nil {
			return credential, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, err
		}
		s.shareCache.Invalidate(ctx, shareToken)
	} else {
		s.metrics.IncrementShareCacheLookup(false)
	}

	credential, err := s.credentials.FindByShareToken(ctx, shareToken)
	if err != nil {
		return nil, err
	}
	s.shareCache.Set(ctx, shareToken, credential.ID)
	return credential, nil
}

// signatureCheck re-verifies the embedded signature against the issuer DID's
// stored public key. The fallback when the DID cannot be resolved depends on
// the trust policy.
func (s *Service) signatureCheck(ctx context.Context, credential *models.Credential, policy TrustPolicy, statusVerified bool) bool {
	didString := credential.IssuerDIDString()
	if didString != "" {
		did, err := s.identities.Resolve(ctx, didString)
		if err == nil {
			return didkey.Verify(credential.Subject, credential.Proof.Signature, did.PublicKey)
		}
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.logger.WarnContext(ctx, "issuer DID resolution failed",
				"request_id", requestcontext.RequestID(ctx),
				"did", didString,
				"error", err,
			)
		}
	}
	if policy == RequireSignatureMatch {
		return false
	}
	return statusVerified
}

// callerIdentity derives the verifier identity recorded for self-serve
// verifications: the caller's current DID string when one exists, a stable
// user-scoped placeholder otherwise, anonymous when unauthenticated.
func (s *Service) callerIdentity(ctx context.Context) string {
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		return AnonymousVerifier
	}
	if did, err := s.identities.Current(ctx, callerID); err == nil {
		return did.DID
	}
	return "user:" + callerID.String()
}

// extractShareSegment reduces a pasted share link to its token: everything
// after the last "/verify/", with any query string dropped.
func extractShareSegment(input string) string {
	const marker = "/verify/"
	idx := strings.LastIndex(input, marker)
	if idx < 0 {
		return input
	}
	segment := input[idx+len(marker):]
	if q := strings.IndexByte(segment, '?'); q >= 0 {
		segment = segment[:q]
	}
	return strings.TrimSuffix(segment, "/")
}

// deviceDescription renders a short human-readable summary of the verifier's
// device from its User-Agent header.
func deviceDescription(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	browser, version := ua.Browser()
	if browser == "" {
		return ""
	}
	description := browser
	if version != "" {
		description += " " + strings.SplitN(version, ".", 2)[0]
	}
	if os := ua.OS(); os != "" {
		description += " on " + os
	}
	if ua.Mobile() {
		description += " (mobile)"
	}
	return description
}
