// Package handler wires DID endpoints to the identity service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"attest/internal/identity/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/httputil"
	"attest/pkg/requestcontext"
)

// Service defines the identity operations the handler needs.
type Service interface {
	CreateIdentity(ctx context.Context, userID id.UserID) (*models.DID, error)
	List(ctx context.Context, userID id.UserID) ([]*models.DID, error)
	Current(ctx context.Context, userID id.UserID) (*models.DID, error)
	SwitchCurrent(ctx context.Context, userID id.UserID, didID id.DIDID) (*models.DID, error)
	RevealPrivateKey(ctx context.Context, userID id.UserID, didID id.DIDID) (string, error)
}

// Handler exposes the DID HTTP surface.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the DID endpoints. All of them require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/dids", h.HandleCreate)
	r.Get("/dids", h.HandleList)
	r.Get("/dids/current", h.HandleCurrent)
	r.Post("/dids/{didID}/activate", h.HandleActivate)
	r.Get("/dids/{didID}/private-key", h.HandlePrivateKey)
}

// HandleCreate handles POST /dids.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()
	userID := requestcontext.UserID(ctx)

	did, err := h.service.CreateIdentity(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "DID creation failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "DID created",
		"request_id", requestID,
		"user_id", userID,
		"did_id", did.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, did)
}

// HandleList handles GET /dids.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	dids, err := h.service.List(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"dids": dids})
}

// HandleCurrent handles GET /dids/current.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	did, err := h.service.Current(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, did)
}

// HandleActivate handles POST /dids/{didID}/activate.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	didID, err := id.ParseDIDID(chi.URLParam(r, "didID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	did, err := h.service.SwitchCurrent(ctx, userID, didID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, did)
}

// HandlePrivateKey handles GET /dids/{didID}/private-key, the owner-only
// cleartext key reveal.
func (h *Handler) HandlePrivateKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	didID, err := id.ParseDIDID(chi.URLParam(r, "didID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	privateKey, err := h.service.RevealPrivateKey(ctx, userID, didID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"privateKey": privateKey})
}
