package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"attest/internal/activity"
	authmodels "attest/internal/auth/models"
	authstore "attest/internal/auth/store"
	"attest/internal/identity/models"
	"attest/internal/identity/service"
	"attest/internal/identity/store"
	id "attest/pkg/domain"
	"attest/pkg/testutil"
)

type IdentityHandlerSuite struct {
	suite.Suite
	users  *authstore.InMemory
	router chi.Router
}

func TestIdentityHandlerSuite(t *testing.T) {
	suite.Run(t, new(IdentityHandlerSuite))
}

func (s *IdentityHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.users = authstore.NewInMemory()
	dids := store.NewInMemory()
	publisher := activity.NewPublisher(activity.NewInMemoryStore(), logger)
	svc := service.New(dids, s.users, publisher, nil, logger)

	handler := New(svc, logger)
	s.router = chi.NewRouter()
	handler.Register(s.router)
}

func (s *IdentityHandlerSuite) newUser() id.UserID {
	userID := id.NewUserID()
	user, err := authmodels.NewUser(userID, userID.String()+"@example.com", "not-a-real-hash", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(context.Background(), user))
	return userID
}

func (s *IdentityHandlerSuite) createDID(userID id.UserID) *models.DID {
	req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodPost, "/dids"), userID.String())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return testutil.UnmarshalResponse[models.DID](s.T(), rr)
}

func (s *IdentityHandlerSuite) TestHandleCreate() {
	s.Run("mints a DID without leaking the signing key", func() {
		userID := s.newUser()
		req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodPost, "/dids"), userID.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		raw := string(testutil.ReadBody(s.T(), rr))
		s.Contains(raw, `"did":"did:key:z`)
		s.NotContains(raw, "signing")
		s.NotContains(raw, "SigningKey")
	})

	s.Run("rejects unauthenticated callers", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/dids")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *IdentityHandlerSuite) TestHandleListAndCurrent() {
	userID := s.newUser()
	first := s.createDID(userID)
	second := s.createDID(userID)

	s.Run("lists both identities", func() {
		req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/dids"), userID.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[struct {
			DIDs []models.DID `json:"dids"`
		}](s.T(), rr)
		s.Len(resp.DIDs, 2)
	})

	s.Run("current points at the first identity until switched", func() {
		req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/dids/current"), userID.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		current := testutil.UnmarshalResponse[models.DID](s.T(), rr)
		s.Equal(first.ID, current.ID)
	})

	s.Run("activate switches the current identity", func() {
		req := testutil.WithUserID(
			testutil.NewRequest(s.T(), http.MethodPost, "/dids/"+second.ID.String()+"/activate"), userID.String())
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)

		req = testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/dids/current"), userID.String())
		rr = testutil.DoRequest(s.router, req)
		current := testutil.UnmarshalResponse[models.DID](s.T(), rr)
		s.Equal(second.ID, current.ID)
	})

	s.Run("current without any identity reports no_identity", func() {
		other := s.newUser()
		req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/dids/current"), other.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "no_identity")
	})

	s.Run("activating a malformed id reports invalid_input", func() {
		req := testutil.WithUserID(
			testutil.NewRequest(s.T(), http.MethodPost, "/dids/not-a-uuid/activate"), userID.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *IdentityHandlerSuite) TestHandlePrivateKey() {
	userID := s.newUser()
	did := s.createDID(userID)

	s.Run("owner can reveal the key", func() {
		req := testutil.WithUserID(
			testutil.NewRequest(s.T(), http.MethodGet, "/dids/"+did.ID.String()+"/private-key"), userID.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[map[string]string](s.T(), rr)
		s.NotEmpty((*resp)["privateKey"])
	})

	s.Run("another user gets not_found, not forbidden", func() {
		other := s.newUser()
		req := testutil.WithUserID(
			testutil.NewRequest(s.T(), http.MethodGet, "/dids/"+did.ID.String()+"/private-key"), other.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}
