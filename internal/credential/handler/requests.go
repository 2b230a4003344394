package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	dErrors "attest/pkg/domain-errors"
)

const (
	maxTitleLength  = 200
	maxIssuerLength = 200
	maxTypeLength   = 100
	maxClaimCount   = 100
	maxFieldCount   = 64
	// maxVerifyInput bounds pasted verify inputs; a full credential document
	// with a large subject still fits comfortably.
	maxVerifyInput = 64 * 1024
)

// IssueCredentialRequest is the POST /credentials body. Claims being absent
// selects the template for the given type; when present it must be a JSON
// object of custom claims.
type IssueCredentialRequest struct {
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	IssuerName  string         `json:"issuerName"`
	IssuedAt    *time.Time     `json:"issuedAt,omitempty"`
	ExpiresAt   *time.Time     `json:"expiresAt,omitempty"`
	Claims      map[string]any `json:"claims,omitempty"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	DocumentURL string         `json:"documentUrl,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (r *IssueCredentialRequest) Normalize() {
	if r == nil {
		return
	}
	r.Type = strings.TrimSpace(r.Type)
	r.Title = strings.TrimSpace(r.Title)
	r.IssuerName = strings.TrimSpace(r.IssuerName)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	r.DocumentURL = strings.TrimSpace(r.DocumentURL)
}

func (r *IssueCredentialRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	if !govalidator.StringLength(r.Type, "1", itoa(maxTypeLength)) {
		return dErrors.New(dErrors.CodeInvalidInput, "type is required")
	}
	if !govalidator.StringLength(r.Title, "1", itoa(maxTitleLength)) {
		return dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if !govalidator.StringLength(r.IssuerName, "1", itoa(maxIssuerLength)) {
		return dErrors.New(dErrors.CodeInvalidInput, "issuerName is required")
	}
	if r.ImageURL != "" && !govalidator.IsRequestURL(r.ImageURL) {
		return dErrors.New(dErrors.CodeInvalidInput, "imageUrl is not a valid URL")
	}
	if r.DocumentURL != "" && !govalidator.IsRequestURL(r.DocumentURL) {
		return dErrors.New(dErrors.CodeInvalidInput, "documentUrl is not a valid URL")
	}
	if len(r.Claims) > maxClaimCount {
		return dErrors.New(dErrors.CodeInvalidInput, "too many claims")
	}
	if r.ExpiresAt != nil && r.IssuedAt != nil && !r.ExpiresAt.After(*r.IssuedAt) {
		return dErrors.New(dErrors.CodeInvalidInput, "expiresAt must be after issuedAt")
	}
	return nil
}

// VerifyRequest is the POST /verify and POST /admin/verify body. Input is an
// opaque string: a share link, a bare token or record ID, or a raw credential
// document.
type VerifyRequest struct {
	Input string `json:"input"`
}

func (r *VerifyRequest) Normalize() {
	if r == nil {
		return
	}
	r.Input = strings.TrimSpace(r.Input)
}

func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	if r.Input == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "input is required")
	}
	if len(r.Input) > maxVerifyInput {
		return dErrors.New(dErrors.CodeInvalidInput, "input exceeds max length")
	}
	return nil
}

// DiscloseRequest is the POST /credentials/{credentialID}/disclose body.
type DiscloseRequest struct {
	Fields []string `json:"fields"`
}

func (r *DiscloseRequest) Normalize() {
	if r == nil {
		return
	}
	seen := make(map[string]bool, len(r.Fields))
	fields := r.Fields[:0]
	for _, field := range r.Fields {
		field = strings.TrimSpace(field)
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		fields = append(fields, field)
	}
	r.Fields = fields
}

func (r *DiscloseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	if len(r.Fields) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one field is required")
	}
	if len(r.Fields) > maxFieldCount {
		return dErrors.New(dErrors.CodeInvalidInput, "too many fields")
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
