package activity

import (
	"context"
	"log/slog"
	"time"

	id "attest/pkg/domain"
	"attest/pkg/requestcontext"
)

// Sink receives a copy of every published entry. Implementations must not
// block: publishing is on the request path.
type Sink interface {
	Publish(entry Entry)
}

// Publisher appends activity entries to the store and mirrors them to an
// optional sink (Kafka in production). Activity logging is fail-open: a
// store failure is logged but never fails the business operation, since the
// timeline is observational.
type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithSink mirrors published entries to sink.
func WithSink(sink Sink) Option {
	return func(p *Publisher) { p.sink = sink }
}

func NewPublisher(store Store, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Record appends an entry for the given event, minting the ID and stamping
// the request-scoped time.
func (p *Publisher) Record(ctx context.Context, userID id.UserID, didID *id.DIDID, kind Type, description string, metadata map[string]any) {
	entry := Entry{
		ID:          id.NewActivityID(),
		UserID:      userID,
		DIDID:       didID,
		Type:        kind,
		Description: description,
		Timestamp:   requestcontext.Now(ctx),
		Metadata:    metadata,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if err := p.store.Append(ctx, entry); err != nil {
		p.logger.ErrorContext(ctx, "failed to append activity entry",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"type", kind,
			"error", err,
		)
		return
	}
	if p.sink != nil {
		p.sink.Publish(entry)
	}
}

// List returns the most recent entries for a user, newest first.
func (p *Publisher) List(ctx context.Context, userID id.UserID, limit int) ([]Entry, error) {
	return p.store.ListByUser(ctx, userID, limit)
}

// DeleteByUser removes a user's timeline; one leg of account deletion.
func (p *Publisher) DeleteByUser(ctx context.Context, userID id.UserID) error {
	return p.store.DeleteByUser(ctx, userID)
}
