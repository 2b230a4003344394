// Package handler wires credential endpoints to the credential service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"attest/internal/credential/models"
	"attest/internal/credential/service"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/httputil"
	"attest/pkg/requestcontext"
)

// Service defines the credential operations the handler needs.
type Service interface {
	Issue(ctx context.Context, userID id.UserID, params service.IssueParams) (*models.Credential, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Credential, error)
	Get(ctx context.Context, userID id.UserID, credentialID id.CredentialID) (*models.Credential, error)
	VerificationHistory(ctx context.Context, userID id.UserID, credentialID id.CredentialID) ([]*models.Verification, error)
	Revoke(ctx context.Context, userID id.UserID, credentialID id.CredentialID) (*models.Credential, error)
	Disclose(ctx context.Context, userID id.UserID, credentialID id.CredentialID, fields []string) (*service.Disclosure, error)
	Verify(ctx context.Context, input string, policy service.TrustPolicy, verifier string) (*service.VerifyResult, error)
}

// Handler exposes the credential HTTP surface.
type Handler struct {
	service Service
	// adminVerifierDID is the synthetic DID recorded as the verifier identity
	// for admin-portal verifications.
	adminVerifierDID string
	logger           *slog.Logger
}

func New(service Service, adminVerifierDID string, logger *slog.Logger) *Handler {
	return &Handler{
		service:          service,
		adminVerifierDID: adminVerifierDID,
		logger:           logger,
	}
}

// Register mounts the authenticated credential endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials", h.HandleIssue)
	r.Get("/credentials", h.HandleList)
	r.Get("/credentials/{credentialID}", h.HandleGet)
	r.Get("/credentials/{credentialID}/verifications", h.HandleVerificationHistory)
	r.Post("/credentials/{credentialID}/revoke", h.HandleRevoke)
	r.Post("/credentials/{credentialID}/disclose", h.HandleDisclose)
	r.Post("/verify", h.HandleVerify)
}

// RegisterPublic mounts the anonymous share-link endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/verify/{shareToken}", h.HandlePublicVerify)
}

// RegisterAdmin mounts the admin-portal endpoint.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/verify", h.HandleAdminVerify)
}

// HandleIssue handles POST /credentials.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()
	userID := requestcontext.UserID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueCredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	credential, err := h.service.Issue(ctx, userID, service.IssueParams{
		Type:        req.Type,
		Title:       req.Title,
		IssuerName:  req.IssuerName,
		IssuedAt:    req.IssuedAt,
		ExpiresAt:   req.ExpiresAt,
		Claims:      req.Claims,
		ImageURL:    req.ImageURL,
		DocumentURL: req.DocumentURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "credential issuance failed",
			"request_id", requestID,
			"user_id", userID,
			"type", req.Type,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credential issued",
		"request_id", requestID,
		"user_id", userID,
		"credential_id", credential.ID,
		"type", credential.Type,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, credential)
}

// HandleList handles GET /credentials.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	credentials, err := h.service.ListByUser(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CredentialListResponse{Credentials: credentials})
}

// HandleGet handles GET /credentials/{credentialID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	credential, err := h.service.Get(ctx, userID, credentialID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, credential)
}

// HandleVerificationHistory handles GET /credentials/{credentialID}/verifications.
func (h *Handler) HandleVerificationHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	history, err := h.service.VerificationHistory(ctx, userID, credentialID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerificationHistoryResponse{Verifications: history})
}

// HandleRevoke handles POST /credentials/{credentialID}/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)

	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	credential, err := h.service.Revoke(ctx, userID, credentialID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeAlreadyRevoked) && !dErrors.HasCode(err, dErrors.CodeCredentialNotFound) {
			h.logger.ErrorContext(ctx, "credential revocation failed",
				"request_id", requestID,
				"user_id", userID,
				"credential_id", credentialID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, credential)
}

// HandleDisclose handles POST /credentials/{credentialID}/disclose.
func (h *Handler) HandleDisclose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)

	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DiscloseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	disclosure, err := h.service.Disclose(ctx, userID, credentialID, req.Fields)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disclosure)
}

// HandleVerify handles POST /verify, the self-serve entry point.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, service.TrustStoredStatus, "")
}

// HandleAdminVerify handles POST /admin/verify. The admin middleware has
// already established the verifier-organization session.
func (h *Handler) HandleAdminVerify(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, service.RequireSignatureMatch, h.adminVerifierDID)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, policy service.TrustPolicy, verifier string) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Verify(ctx, req.Input, policy, verifier)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credential verified",
		"request_id", requestID,
		"policy", policy.String(),
		"is_valid", result.IsValid,
		"stored", result.Stored,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, fromVerifyResult(result))
}

// HandlePublicVerify handles GET /verify/{shareToken}, the anonymous
// share-link entry point. The response is the reduced public shape.
func (h *Handler) HandlePublicVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shareToken := chi.URLParam(r, "shareToken")
	result, err := h.service.Verify(ctx, shareToken, service.TrustStoredStatus, service.AnonymousVerifier)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromPublicVerifyResult(result))
}
