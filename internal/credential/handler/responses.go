package handler

import (
	"time"

	"attest/internal/credential/models"
	"attest/internal/credential/service"
)

// VerifyResponse is the authenticated verification result: verdict, per-check
// detail, and the resolved credential when one was found in storage.
type VerifyResponse struct {
	IsValid        bool                `json:"isValid"`
	Checks         models.CheckResults `json:"checks"`
	Credential     *models.Credential  `json:"credential,omitempty"`
	VerificationID string              `json:"verificationId"`
}

func fromVerifyResult(result *service.VerifyResult) VerifyResponse {
	resp := VerifyResponse{
		IsValid:        result.IsValid,
		Checks:         result.Checks,
		VerificationID: result.Verification.ID.String(),
	}
	if result.Stored {
		resp.Credential = result.Credential
	}
	return resp
}

// PublicCredential is the credential summary exposed on the anonymous
// share-link path. It carries only what the credential holder chose to share;
// owner and record identifiers stay private.
type PublicCredential struct {
	Title      string         `json:"title"`
	Type       string         `json:"type"`
	IssuerName string         `json:"issuerName"`
	IssuedAt   time.Time      `json:"issuedAt"`
	ExpiresAt  *time.Time     `json:"expiresAt,omitempty"`
	Status     models.Status  `json:"status"`
	Subject    map[string]any `json:"credentialSubject"`
}

// PublicVerifyResponse is the anonymous share-link verification result.
type PublicVerifyResponse struct {
	IsValid    bool                `json:"isValid"`
	Checks     models.CheckResults `json:"checks"`
	Credential *PublicCredential   `json:"credential,omitempty"`
}

func fromPublicVerifyResult(result *service.VerifyResult) PublicVerifyResponse {
	resp := PublicVerifyResponse{
		IsValid: result.IsValid,
		Checks:  result.Checks,
	}
	if result.Stored {
		resp.Credential = &PublicCredential{
			Title:      result.Credential.Title,
			Type:       result.Credential.Type,
			IssuerName: result.Credential.IssuerName,
			IssuedAt:   result.Credential.IssuedAt,
			ExpiresAt:  result.Credential.ExpiresAt,
			Status:     result.Credential.Status,
			Subject:    result.Credential.Subject,
		}
	}
	return resp
}

// CredentialListResponse wraps GET /credentials.
type CredentialListResponse struct {
	Credentials []*models.Credential `json:"credentials"`
}

// VerificationHistoryResponse wraps GET /credentials/{id}/verifications.
type VerificationHistoryResponse struct {
	Verifications []*models.Verification `json:"verifications"`
}
