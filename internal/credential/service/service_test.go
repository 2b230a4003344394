package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"attest/internal/activity"
	authmodels "attest/internal/auth/models"
	authstore "attest/internal/auth/store"
	"attest/internal/credential/models"
	credentialstore "attest/internal/credential/store"
	"attest/internal/didkey"
	identitymodels "attest/internal/identity/models"
	identityservice "attest/internal/identity/service"
	identitystore "attest/internal/identity/store"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/requestcontext"
)

// =============================================================================
// Credential Service Test Suite
// =============================================================================
// The verification pipeline carries the only real state-transition logic in
// the system, so it gets exhaustive unit coverage here: every trust policy,
// every check, every resolution path, and the revocation terminality rule.

type CredentialServiceSuite struct {
	suite.Suite
	users         *authstore.InMemory
	dids          *identitystore.InMemory
	credentials   *credentialstore.InMemory
	verifications *credentialstore.VerificationInMemory
	activities    *activity.InMemoryStore
	identity      *identityservice.Service
	service       *Service
}

func TestCredentialServiceSuite(t *testing.T) {
	suite.Run(t, new(CredentialServiceSuite))
}

func (s *CredentialServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.users = authstore.NewInMemory()
	s.dids = identitystore.NewInMemory()
	s.credentials = credentialstore.NewInMemory()
	s.verifications = credentialstore.NewVerificationInMemory()
	s.activities = activity.NewInMemoryStore()
	publisher := activity.NewPublisher(s.activities, logger)
	s.identity = identityservice.New(s.dids, s.users, publisher, nil, logger)
	s.service = New(s.credentials, s.verifications, s.identity, publisher, nil, logger)
}

// newUser registers a bare user row so the current-DID pointer has a home.
func (s *CredentialServiceSuite) newUser(ctx context.Context) id.UserID {
	userID := id.NewUserID()
	user, err := authmodels.NewUser(userID, userID.String()+"@example.com", "not-a-real-hash", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(ctx, user))
	return userID
}

// newUserWithDID registers a user and creates their first DID.
func (s *CredentialServiceSuite) newUserWithDID(ctx context.Context) (id.UserID, *identitymodels.DID) {
	userID := s.newUser(ctx)
	did, err := s.identity.CreateIdentity(ctx, userID)
	s.Require().NoError(err)
	return userID, did
}

func (s *CredentialServiceSuite) issue(ctx context.Context, userID id.UserID, params IssueParams) *models.Credential {
	credential, err := s.service.Issue(ctx, userID, params)
	s.Require().NoError(err)
	return credential
}

func educationalParams() IssueParams {
	return IssueParams{
		Type:       TypeEducational,
		Title:      "BSc Computer Science",
		IssuerName: "Test University",
	}
}

// =============================================================================
// Issuance Tests
// =============================================================================

func (s *CredentialServiceSuite) TestIssue() {
	ctx := context.Background()

	s.Run("templated educational credential", func() {
		userID, did := s.newUserWithDID(ctx)

		credential := s.issue(ctx, userID, educationalParams())

		s.Equal(models.StatusVerified, credential.Status)
		s.Equal(did.ID, credential.DIDID)
		s.Equal(did.DID, credential.Subject["id"])
		s.Equal("Bachelor of Science", credential.Subject["degree"])
		s.NotEmpty(credential.ShareToken)
		s.NotEmpty(credential.ContentID)
		s.Equal(models.ProofTypeECDSA, credential.Proof.Type)
		s.Equal(did.DID+"#keys-1", credential.Proof.VerificationMethod)
	})

	s.Run("issued signature verifies against the DID public key", func() {
		userID, did := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		s.True(didkey.Verify(credential.Subject, credential.Proof.Signature, did.PublicKey))
	})

	s.Run("custom claims form the subject", func() {
		userID, did := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, IssueParams{
			Type:       "ConferenceBadge",
			Title:      "Speaker Badge",
			IssuerName: "GopherCon",
			Claims:     map[string]any{"role": "speaker", "track": "distributed systems"},
		})

		s.Equal("speaker", credential.Subject["role"])
		s.Equal(did.DID, credential.Subject["id"])
	})

	s.Run("no DID fails closed with no_identity", func() {
		userID := s.newUser(ctx)

		_, err := s.service.Issue(ctx, userID, educationalParams())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNoIdentity))

		credentials, listErr := s.credentials.ListByDIDs(ctx, nil)
		s.NoError(listErr)
		s.Empty(credentials)
	})

	s.Run("unknown type without claims is rejected before persistence", func() {
		userID, _ := s.newUserWithDID(ctx)

		_, err := s.service.Issue(ctx, userID, IssueParams{
			Type:       "MysteryCredential",
			Title:      "Mystery",
			IssuerName: "Nobody",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("government ID defaults to five year expiry", func() {
		userID, _ := s.newUserWithDID(ctx)
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(ctx, now)

		credential := s.issue(ctx, userID, IssueParams{
			Type:       TypeGovernmentID,
			Title:      "National ID",
			IssuerName: "Civil Registry",
		})

		s.Require().NotNil(credential.ExpiresAt)
		s.Equal(now.AddDate(5, 0, 0), *credential.ExpiresAt)
	})

	s.Run("explicit expiry wins over the template default", func() {
		userID, _ := s.newUserWithDID(ctx)
		expiry := time.Now().AddDate(1, 0, 0)

		credential := s.issue(ctx, userID, IssueParams{
			Type:       TypeGovernmentID,
			Title:      "National ID",
			IssuerName: "Civil Registry",
			ExpiresAt:  &expiry,
		})

		s.Require().NotNil(credential.ExpiresAt)
		s.Equal(expiry, *credential.ExpiresAt)
	})

	s.Run("share tokens are unique across issuances", func() {
		userID, _ := s.newUserWithDID(ctx)

		seen := make(map[string]bool)
		for range 20 {
			credential := s.issue(ctx, userID, educationalParams())
			s.False(seen[credential.ShareToken], "duplicate share token")
			seen[credential.ShareToken] = true
		}
	})

	s.Run("issuance appends a credential_issued activity", func() {
		userID, _ := s.newUserWithDID(ctx)
		s.issue(ctx, userID, educationalParams())

		entries, err := s.activities.ListByUser(ctx, userID, 10)
		s.Require().NoError(err)
		s.Require().NotEmpty(entries)
		s.Equal(activity.TypeCredentialIssued, entries[0].Type)
	})
}

// =============================================================================
// Verification Tests
// =============================================================================

func (s *CredentialServiceSuite) TestVerifyByShareToken() {
	ctx := context.Background()

	s.Run("valid credential verifies via share token", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		result, err := s.service.Verify(ctx, credential.ShareToken, TrustStoredStatus, AnonymousVerifier)
		s.Require().NoError(err)

		s.True(result.IsValid)
		s.True(result.Stored)
		s.True(result.Checks.StatusVerified)
		s.True(result.Checks.NotExpired)
		s.True(result.Checks.IssuerTrusted)
		s.True(result.Checks.ProofVerified)
		s.True(result.Checks.SignatureValid)
		s.False(result.Checks.IsRevoked)
		s.Equal(credential.ID, result.Credential.ID)
	})

	s.Run("full share link resolves to its token", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		link := "https://attest.example.com/verify/" + credential.ShareToken
		result, err := s.service.Verify(ctx, link, TrustStoredStatus, AnonymousVerifier)
		s.Require().NoError(err)
		s.True(result.IsValid)
		s.Equal(credential.ID, result.Credential.ID)
	})

	s.Run("share token resolves exactly the credential that minted it", func() {
		userID, _ := s.newUserWithDID(ctx)
		first := s.issue(ctx, userID, educationalParams())
		second := s.issue(ctx, userID, educationalParams())

		result, err := s.service.Verify(ctx, second.ShareToken, TrustStoredStatus, AnonymousVerifier)
		s.Require().NoError(err)
		s.Equal(second.ID, result.Credential.ID)
		s.NotEqual(first.ID, result.Credential.ID)
	})
}

func (s *CredentialServiceSuite) TestVerifyExpiry() {
	ctx := context.Background()

	s.Run("credential expired yesterday fails notExpired", func() {
		userID, _ := s.newUserWithDID(ctx)
		yesterday := time.Now().Add(-24 * time.Hour)
		credential := s.issue(ctx, userID, IssueParams{
			Type:       TypeEducational,
			Title:      "Expired Diploma",
			IssuerName: "Test University",
			ExpiresAt:  &yesterday,
		})

		result, err := s.service.Verify(ctx, credential.ShareToken, TrustStoredStatus, AnonymousVerifier)
		s.Require().NoError(err)
		s.False(result.IsValid)
		s.False(result.Checks.NotExpired)
		s.True(result.Checks.StatusVerified)
	})

	s.Run("expiry exactly at now counts as expired", func() {
		now := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(ctx, now)
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, IssueParams{
			Type:       TypeEducational,
			Title:      "Boundary Diploma",
			IssuerName: "Test University",
			ExpiresAt:  &now,
		})

		result, err := s.service.Verify(ctx, credential.ShareToken, TrustStoredStatus, AnonymousVerifier)
		s.Require().NoError(err)
		s.False(result.IsValid)
		s.False(result.Checks.NotExpired)
	})

	s.Run("expiry one second past now is still valid", func() {
		now := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
		expiry := now.Add(time.Second)
		ctx := requestcontext.WithTime(ctx, now)
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, IssueParams{
			Type:       TypeEducational,
			Title:      "Near Boundary Diploma",
			IssuerName: "Test University",
			ExpiresAt:  &expiry,
		})

		result, err := s.service.Verify(ctx, credential.ShareToken, TrustStoredStatus, AnonymousVerifier)
		s.Require().NoError(err)
		s.True(result.IsValid)
		s.True(result.Checks.NotExpired)
	})
}

func (s *CredentialServiceSuite) TestRevocationTerminality() {
	ctx := context.Background()

	s.Run("revoked credential is invalid on every entry point", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		_, err := s.service.Revoke(ctx, userID, credential.ID)
		s.Require().NoError(err)

		inputs := []string{
			credential.ShareToken,
			credential.ID.String(),
			"https://attest.example.com/verify/" + credential.ShareToken,
		}
		for _, input := range inputs {
			for _, policy := range []TrustPolicy{TrustStoredStatus, RequireSignatureMatch} {
				result, err := s.service.Verify(ctx, input, policy, AnonymousVerifier)
				s.Require().NoError(err)
				s.False(result.IsValid, "input %q under %s must be invalid", input, policy)
				s.True(result.Checks.IsRevoked)
			}
		}
	})

	s.Run("replaying the pre-revocation document cannot bypass revocation", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		// Snapshot the document while still valid.
		snapshot, err := json.Marshal(credential)
		s.Require().NoError(err)

		_, err = s.service.Revoke(ctx, userID, credential.ID)
		s.Require().NoError(err)

		result, err := s.service.Verify(ctx, string(snapshot), TrustStoredStatus, AnonymousVerifier)
		s.Require().NoError(err)
		s.False(result.IsValid)
		s.True(result.Checks.IsRevoked)
	})
}

func (s *CredentialServiceSuite) TestVerifyTrustPolicies() {
	ctx := context.Background()

	// adHocDocument builds a structurally valid document whose issuer DID is
	// unknown to the identity store.
	adHocDocument := func() string {
		raw, err := json.Marshal(map[string]any{
			"title":  "Foreign Diploma",
			"status": "verified",
			"credentialSubject": map[string]any{
				"id":     "did:key:zunknownunknownunknownunknown0000",
				"degree": "MSc",
			},
			"proof": map[string]any{
				"type":      models.ProofTypeECDSA,
				"signature": "deadbeef",
			},
		})
		s.Require().NoError(err)
		return string(raw)
	}

	s.Run("trust stored status lets the signature detail fall back", func() {
		result, err := s.service.Verify(ctx, adHocDocument(), TrustStoredStatus, AnonymousVerifier)
		s.Require().NoError(err)

		s.True(result.IsValid)
		s.False(result.Stored)
		s.True(result.Checks.SignatureValid, "falls back to stored status under this policy")
	})

	s.Run("require signature match fails unresolvable issuer DIDs", func() {
		result, err := s.service.Verify(ctx, adHocDocument(), RequireSignatureMatch, "did:key:zadmin")
		s.Require().NoError(err)

		s.False(result.IsValid)
		s.False(result.Checks.SignatureValid)
		// Every other check still passes; only the signature is load-bearing.
		s.True(result.Checks.StatusVerified)
		s.True(result.Checks.ProofVerified)
	})

	s.Run("admin policy accepts a genuine signature", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		result, err := s.service.Verify(ctx, credential.ID.String(), RequireSignatureMatch, "did:key:zadmin")
		s.Require().NoError(err)
		s.True(result.IsValid)
		s.True(result.Checks.SignatureValid)
	})

	s.Run("admin policy rejects a tampered stored subject", func() {
		userID, did := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		// Forge a document with the real proof over an altered subject.
		forged := *credential
		forged.Subject = map[string]any{"id": did.DID, "degree": "PhD"}
		forged.ID = id.CredentialID{}
		raw, err := json.Marshal(&forged)
		s.Require().NoError(err)

		result, verr := s.service.Verify(ctx, string(raw), RequireSignatureMatch, "did:key:zadmin")
		s.Require().NoError(verr)
		s.False(result.IsValid)
		s.False(result.Checks.SignatureValid)
	})
}

func (s *CredentialServiceSuite) TestVerifyInputResolution() {
	ctx := context.Background()

	s.Run("malformed non-JSON input reports credential_not_found", func() {
		_, err := s.service.Verify(ctx, "{not json", TrustStoredStatus, AnonymousVerifier)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialNotFound))
	})

	s.Run("JSON object missing proof reports malformed_credential", func() {
		_, err := s.service.Verify(ctx, `{"title":"No Proof","credentialSubject":{"id":"x"}}`, TrustStoredStatus, AnonymousVerifier)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeMalformedCredential))
	})

	s.Run("JSON object missing title reports malformed_credential", func() {
		_, err := s.service.Verify(ctx, `{"credentialSubject":{"id":"x"},"proof":{"signature":"ab"}}`, TrustStoredStatus, AnonymousVerifier)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeMalformedCredential))
	})

	s.Run("scalar subject reports malformed_credential", func() {
		_, err := s.service.Verify(ctx, `{"title":"Scalar","credentialSubject":"oops","proof":{"signature":"ab"}}`, TrustStoredStatus, AnonymousVerifier)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeMalformedCredential))
	})

	s.Run("unknown token reports credential_not_found", func() {
		_, err := s.service.Verify(ctx, "no-such-token", TrustStoredStatus, AnonymousVerifier)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialNotFound))
	})

	s.Run("empty input reports credential_not_found", func() {
		_, err := s.service.Verify(ctx, "   ", TrustStoredStatus, AnonymousVerifier)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialNotFound))
	})

	s.Run("document carrying a stored ID resolves to the stored record", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())
		raw, err := json.Marshal(credential)
		s.Require().NoError(err)

		result, verr := s.service.Verify(ctx, string(raw), TrustStoredStatus, AnonymousVerifier)
		s.Require().NoError(verr)
		s.True(result.Stored)
		s.Equal(credential.ID, result.Credential.ID)
	})
}

func (s *CredentialServiceSuite) TestVerifySideEffects() {
	ctx := context.Background()

	s.Run("every verification appends a record", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		for range 3 {
			_, err := s.service.Verify(ctx, credential.ShareToken, TrustStoredStatus, AnonymousVerifier)
			s.Require().NoError(err)
		}

		history, err := s.verifications.ListByCredential(ctx, credential.ID)
		s.Require().NoError(err)
		s.Len(history, 3)
		s.Equal(AnonymousVerifier, history[0].Verifier)
	})

	s.Run("anonymous verification leaves no activity entry", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())
		before, err := s.activities.ListByUser(ctx, userID, 100)
		s.Require().NoError(err)

		_, err = s.service.Verify(ctx, credential.ShareToken, TrustStoredStatus, AnonymousVerifier)
		s.Require().NoError(err)

		after, err := s.activities.ListByUser(ctx, userID, 100)
		s.Require().NoError(err)
		s.Len(after, len(before))
	})

	s.Run("authenticated verification of a stored record logs activity", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())
		authedCtx := requestcontext.WithUserID(ctx, userID)

		_, err := s.service.Verify(authedCtx, credential.ShareToken, TrustStoredStatus, "")
		s.Require().NoError(err)

		entries, err := s.activities.ListByUser(ctx, userID, 10)
		s.Require().NoError(err)
		s.Equal(activity.TypeCredentialVerified, entries[0].Type)
	})

	s.Run("self-serve verifier identity is the caller's DID", func() {
		userID, did := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())
		authedCtx := requestcontext.WithUserID(ctx, userID)

		result, err := s.service.Verify(authedCtx, credential.ShareToken, TrustStoredStatus, "")
		s.Require().NoError(err)
		s.Equal(did.DID, result.Verification.Verifier)
	})
}

// =============================================================================
// Revocation Tests
// =============================================================================

func (s *CredentialServiceSuite) TestRevoke() {
	ctx := context.Background()

	s.Run("owner revokes and the status sticks", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		revoked, err := s.service.Revoke(ctx, userID, credential.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRevoked, revoked.Status)

		stored, err := s.credentials.FindByID(ctx, credential.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRevoked, stored.Status)
	})

	s.Run("second revoke reports already_revoked", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		_, err := s.service.Revoke(ctx, userID, credential.ID)
		s.Require().NoError(err)

		_, err = s.service.Revoke(ctx, userID, credential.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRevoked))
	})

	s.Run("foreign credential reports not found, not forbidden", func() {
		ownerID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, ownerID, educationalParams())
		strangerID, _ := s.newUserWithDID(ctx)

		_, err := s.service.Revoke(ctx, strangerID, credential.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialNotFound))
	})

	s.Run("revocation appends a credential_revoked activity", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		_, err := s.service.Revoke(ctx, userID, credential.ID)
		s.Require().NoError(err)

		entries, err := s.activities.ListByUser(ctx, userID, 10)
		s.Require().NoError(err)
		s.Equal(activity.TypeCredentialRevoked, entries[0].Type)
	})
}

// Concurrent revoke and verify must never corrupt state or panic; the
// outcome of the race itself is unspecified.
func (s *CredentialServiceSuite) TestConcurrentRevokeAndVerify() {
	ctx := context.Background()
	userID, _ := s.newUserWithDID(ctx)
	credential := s.issue(ctx, userID, educationalParams())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.service.Verify(ctx, credential.ShareToken, TrustStoredStatus, AnonymousVerifier)
		}()
		go func() {
			defer wg.Done()
			_, _ = s.service.Revoke(ctx, userID, credential.ID)
		}()
	}
	wg.Wait()

	stored, err := s.credentials.FindByID(ctx, credential.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, stored.Status)

	// After the dust settles, verification must report invalid.
	result, err := s.service.Verify(ctx, credential.ShareToken, TrustStoredStatus, AnonymousVerifier)
	s.Require().NoError(err)
	s.False(result.IsValid)
}

// =============================================================================
// Selective Disclosure Tests
// =============================================================================

func (s *CredentialServiceSuite) TestDisclose() {
	ctx := context.Background()

	s.Run("disclosed map carries only the selected fields", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, IssueParams{
			Type:       "ProfileCredential",
			Title:      "Profile",
			IssuerName: "Self",
			Claims:     map[string]any{"name": "Ana", "degree": "BSc", "year": 2023},
		})

		disclosure, err := s.service.Disclose(ctx, userID, credential.ID, []string{"name", "year"})
		s.Require().NoError(err)

		s.Equal("Ana", disclosure.DisclosedFields["name"])
		s.EqualValues(2023, disclosure.DisclosedFields["year"])
		s.NotContains(disclosure.DisclosedFields, "degree")
		s.NotEmpty(disclosure.Proof)
		s.NotContains(disclosure.Proof, "BSc", "omitted values must not leak into the proof")

		var proof map[string]any
		s.Require().NoError(json.Unmarshal([]byte(disclosure.Proof), &proof))
		s.Equal(didkey.DisclosureCommitmentType, proof["type"])
		s.NotEmpty(proof["proofValue"])
	})

	s.Run("absent fields are skipped silently", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, IssueParams{
			Type:       "ProfileCredential",
			Title:      "Profile",
			IssuerName: "Self",
			Claims:     map[string]any{"name": "Ana"},
		})

		disclosure, err := s.service.Disclose(ctx, userID, credential.ID, []string{"name", "missing"})
		s.Require().NoError(err)
		s.Len(disclosure.DisclosedFields, 1)
	})

	s.Run("empty field list is rejected", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		_, err := s.service.Disclose(ctx, userID, credential.ID, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("disclosure requires ownership", func() {
		ownerID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, ownerID, educationalParams())
		strangerID, _ := s.newUserWithDID(ctx)

		_, err := s.service.Disclose(ctx, strangerID, credential.ID, []string{"degree"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialNotFound))
	})

	s.Run("disclosure appends a credential_shared activity", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())

		_, err := s.service.Disclose(ctx, userID, credential.ID, []string{"degree"})
		s.Require().NoError(err)

		entries, err := s.activities.ListByUser(ctx, userID, 10)
		s.Require().NoError(err)
		s.Equal(activity.TypeCredentialShared, entries[0].Type)
	})
}

// =============================================================================
// Listing and Deletion Tests
// =============================================================================

func (s *CredentialServiceSuite) TestListAndDelete() {
	ctx := context.Background()

	s.Run("list returns only the caller's credentials", func() {
		aliceID, _ := s.newUserWithDID(ctx)
		bobID, _ := s.newUserWithDID(ctx)
		aliceCredential := s.issue(ctx, aliceID, educationalParams())
		s.issue(ctx, bobID, educationalParams())

		credentials, err := s.service.ListByUser(ctx, aliceID)
		s.Require().NoError(err)
		s.Require().Len(credentials, 1)
		s.Equal(aliceCredential.ID, credentials[0].ID)
	})

	s.Run("delete by user removes credentials and verifications", func() {
		userID, _ := s.newUserWithDID(ctx)
		credential := s.issue(ctx, userID, educationalParams())
		_, err := s.service.Verify(ctx, credential.ShareToken, TrustStoredStatus, AnonymousVerifier)
		s.Require().NoError(err)

		s.Require().NoError(s.service.DeleteByUser(ctx, userID))

		_, err = s.credentials.FindByID(ctx, credential.ID)
		s.Error(err)
		history, err := s.verifications.ListByCredential(ctx, credential.ID)
		s.NoError(err)
		s.Empty(history)
	})
}

// =============================================================================
// Input Reduction Helpers
// =============================================================================

func TestExtractShareSegment(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare token passes through", "abc-123", "abc-123"},
		{"full link", "https://attest.example.com/verify/abc-123", "abc-123"},
		{"link with query string", "https://attest.example.com/verify/abc-123?utm=x", "abc-123"},
		{"trailing slash", "https://attest.example.com/verify/abc-123/", "abc-123"},
		{"bare path", "/verify/abc-123", "abc-123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractShareSegment(tc.input); got != tc.want {
				t.Fatalf("extractShareSegment(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
