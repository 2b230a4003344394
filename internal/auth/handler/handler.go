// Package handler wires account endpoints to the auth service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"attest/internal/auth/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/httputil"
	"attest/pkg/requestcontext"
)

// Service defines the account operations the handler needs.
type Service interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	UserInfo(ctx context.Context, userID id.UserID) (*models.User, error)
	DeleteAccount(ctx context.Context, userID id.UserID) error
}

// Handler exposes the account HTTP surface.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated account endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
}

// Register mounts the authenticated account endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/userinfo", h.HandleUserInfo)
	r.Delete("/me", h.HandleDeleteAccount)
}

// HandleRegister handles POST /auth/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.service.Register(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		"request_id", requestID,
		"user_id", user.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, user)
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		// Failed logins are expected traffic; log at warn without the email.
		h.logger.WarnContext(ctx, "login failed",
			"request_id", requestID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user logged in",
		"request_id", requestID,
		"user_id", session.UserID,
		"session_id", session.SessionID,
	)
	httputil.WriteJSON(w, http.StatusOK, session)
}

// HandleUserInfo handles GET /auth/userinfo.
func (h *Handler) HandleUserInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	user, err := h.service.UserInfo(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// HandleDeleteAccount handles DELETE /me, the full cascading deletion.
func (h *Handler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)

	if err := h.service.DeleteAccount(ctx, userID); err != nil {
		h.logger.ErrorContext(ctx, "account deletion failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
