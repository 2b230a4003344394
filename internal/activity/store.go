package activity

import (
	"context"

	id "attest/pkg/domain"
)

// Store persists activity entries. Append-only: no update or delete of
// individual entries, only the account-deletion cascade removes them.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByUser(ctx context.Context, userID id.UserID, limit int) ([]Entry, error)
	DeleteByUser(ctx context.Context, userID id.UserID) error
}
