package activity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	id "attest/pkg/domain"
	"attest/pkg/requestcontext"
	"attest/pkg/testutil"
)

type ActivitySuite struct {
	suite.Suite
	store     *InMemoryStore
	publisher *Publisher
}

func TestActivitySuite(t *testing.T) {
	suite.Run(t, new(ActivitySuite))
}

func (s *ActivitySuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.publisher = NewPublisher(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// collectingSink records what was mirrored to it.
type collectingSink struct {
	entries []Entry
}

func (c *collectingSink) Publish(entry Entry) { c.entries = append(c.entries, entry) }

// failingStore always rejects appends.
type failingStore struct{ Store }

func (failingStore) Append(context.Context, Entry) error { return errors.New("disk on fire") }

// =============================================================================
// Publishing
// =============================================================================

func (s *ActivitySuite) TestRecord() {
	ctx := context.Background()

	s.Run("stamps id, time, and payload", func() {
		userID := id.NewUserID()
		didID := id.NewDIDID()
		now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(ctx, now)

		s.publisher.Record(ctx, userID, &didID, TypeCredentialIssued, "Issued credential Diploma",
			map[string]any{"credential_id": "abc"})

		entries, err := s.store.ListByUser(ctx, userID, 10)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.False(entries[0].ID.IsNil())
		s.Equal(now, entries[0].Timestamp)
		s.Equal(TypeCredentialIssued, entries[0].Type)
		s.Require().NotNil(entries[0].DIDID)
		s.Equal(didID, *entries[0].DIDID)
	})

	s.Run("mirrors entries to the sink", func() {
		sink := &collectingSink{}
		publisher := NewPublisher(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)), WithSink(sink))

		publisher.Record(ctx, id.NewUserID(), nil, TypeDIDCreated, "Created decentralized identifier", nil)

		s.Require().Len(sink.entries, 1)
		s.Equal(TypeDIDCreated, sink.entries[0].Type)
	})

	s.Run("store failure is swallowed and skips the sink", func() {
		sink := &collectingSink{}
		publisher := NewPublisher(failingStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)), WithSink(sink))

		publisher.Record(ctx, id.NewUserID(), nil, TypeDIDCreated, "Created decentralized identifier", nil)

		s.Empty(sink.entries)
	})
}

func (s *ActivitySuite) TestListAndDelete() {
	ctx := context.Background()
	userID := id.NewUserID()
	otherID := id.NewUserID()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	for i := range 3 {
		s.publisher.Record(requestcontext.WithTime(ctx, base.Add(time.Duration(i)*time.Minute)),
			userID, nil, TypeCredentialVerified, "Verified credential", nil)
	}
	s.publisher.Record(ctx, otherID, nil, TypeDIDCreated, "Created decentralized identifier", nil)

	s.Run("list is newest first and respects the limit", func() {
		entries, err := s.publisher.List(ctx, userID, 2)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		s.Equal(base.Add(2*time.Minute), entries[0].Timestamp)
	})

	s.Run("delete removes only the target user's timeline", func() {
		s.Require().NoError(s.publisher.DeleteByUser(ctx, userID))

		mine, err := s.publisher.List(ctx, userID, 10)
		s.Require().NoError(err)
		s.Empty(mine)

		theirs, err := s.publisher.List(ctx, otherID, 10)
		s.Require().NoError(err)
		s.Len(theirs, 1)
	})
}

// =============================================================================
// Timeline Endpoint
// =============================================================================

func (s *ActivitySuite) TestHandleList() {
	ctx := context.Background()
	handler := NewHandler(s.publisher, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := chi.NewRouter()
	handler.Register(router)

	userID := id.NewUserID()
	s.publisher.Record(ctx, userID, nil, TypeCredentialIssued, "Issued credential Diploma", nil)

	s.Run("returns the caller's timeline", func() {
		req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/activities"), userID.String())
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		testutil.AssertJSONHasKey(s.T(), rr, "activities")
	})

	s.Run("rejects a non-positive limit", func() {
		req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/activities?limit=0"), userID.String())
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("rejects a non-numeric limit", func() {
		req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/activities?limit=lots"), userID.String())
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}
