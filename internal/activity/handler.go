package activity

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/httputil"
	"attest/pkg/requestcontext"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// Handler exposes the read-only activity timeline.
type Handler struct {
	publisher *Publisher
	logger    *slog.Logger
}

func NewHandler(publisher *Publisher, logger *slog.Logger) *Handler {
	return &Handler{publisher: publisher, logger: logger}
}

// Register mounts the timeline endpoint. Requires authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/activities", h.HandleList)
}

// HandleList handles GET /activities?limit=N.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		if parsed > maxActivityLimit {
			parsed = maxActivityLimit
		}
		limit = parsed
	}

	entries, err := h.publisher.List(ctx, userID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list activities",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list activities"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"activities": entries})
}
