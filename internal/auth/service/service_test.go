package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"attest/internal/auth/jwttoken"
	"attest/internal/auth/store"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

type AuthServiceSuite struct {
	suite.Suite
	users   *store.InMemory
	tokens  *jwttoken.Service
	service *Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.users = store.NewInMemory()
	s.tokens = jwttoken.NewService("test-signing-key", "attest-test", "attest-test")
	s.service = New(s.users, s.tokens, time.Hour, logger)
}

// =============================================================================
// Registration Tests
// =============================================================================

func (s *AuthServiceSuite) TestRegister() {
	ctx := context.Background()

	s.Run("creates a user with a hashed password", func() {
		user, err := s.service.Register(ctx, "alice@example.com", "correct horse battery")
		s.Require().NoError(err)

		s.Equal("alice@example.com", user.Email)
		s.NotEmpty(user.PasswordHash)
		s.NotContains(user.PasswordHash, "correct horse battery")
		s.False(user.ID.IsNil())
	})

	s.Run("duplicate email reports conflict", func() {
		_, err := s.service.Register(ctx, "bob@example.com", "password-one")
		s.Require().NoError(err)

		_, err = s.service.Register(ctx, "bob@example.com", "password-two")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("email uniqueness is case-insensitive", func() {
		_, err := s.service.Register(ctx, "carol@example.com", "password")
		s.Require().NoError(err)

		_, err = s.service.Register(ctx, "CAROL@example.com", "password")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// =============================================================================
// Login Tests
// =============================================================================

func (s *AuthServiceSuite) TestLogin() {
	ctx := context.Background()

	s.Run("valid credentials mint a session", func() {
		user, err := s.service.Register(ctx, "dave@example.com", "hunter2hunter2")
		s.Require().NoError(err)

		session, err := s.service.Login(ctx, "dave@example.com", "hunter2hunter2")
		s.Require().NoError(err)

		s.Equal(user.ID, session.UserID)
		s.False(session.SessionID.IsNil())
		s.Equal(int64(3600), session.ExpiresIn)

		claims, err := s.tokens.ValidateToken(session.AccessToken)
		s.Require().NoError(err)
		s.Equal(user.ID, claims.UserID)
		s.False(claims.Admin)
	})

	s.Run("unknown email and wrong password are indistinguishable", func() {
		_, err := s.service.Register(ctx, "erin@example.com", "real-password")
		s.Require().NoError(err)

		_, unknownErr := s.service.Login(ctx, "nobody@example.com", "whatever")
		_, wrongErr := s.service.Login(ctx, "erin@example.com", "wrong-password")

		s.Require().Error(unknownErr)
		s.Require().Error(wrongErr)
		s.True(dErrors.HasCode(unknownErr, dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(wrongErr, dErrors.CodeUnauthorized))
		s.Equal(unknownErr.Error(), wrongErr.Error())
	})
}

// =============================================================================
// UserInfo Tests
// =============================================================================

func (s *AuthServiceSuite) TestUserInfo() {
	ctx := context.Background()

	s.Run("returns the caller's profile", func() {
		user, err := s.service.Register(ctx, "frank@example.com", "password-123")
		s.Require().NoError(err)

		loaded, err := s.service.UserInfo(ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(user.Email, loaded.Email)
	})

	s.Run("unknown user reports not found", func() {
		_, err := s.service.UserInfo(ctx, id.NewUserID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Account Deletion Tests
// =============================================================================

// cascadeRecorder records the order account-deletion legs run in.
type cascadeRecorder struct {
	name string
	log  *[]string
	err  error
}

func (c *cascadeRecorder) DeleteByUser(context.Context, id.UserID) error {
	*c.log = append(*c.log, c.name)
	return c.err
}

func (s *AuthServiceSuite) TestDeleteAccount() {
	ctx := context.Background()

	s.Run("runs cascades in registration order before the user row", func() {
		var order []string
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service := New(s.users, s.tokens, time.Hour, logger,
			&cascadeRecorder{name: "credentials", log: &order},
			&cascadeRecorder{name: "activities", log: &order},
			&cascadeRecorder{name: "dids", log: &order},
		)

		user, err := service.Register(ctx, "grace@example.com", "password-123")
		s.Require().NoError(err)

		s.Require().NoError(service.DeleteAccount(ctx, user.ID))

		s.Equal([]string{"credentials", "activities", "dids"}, order)
		_, err = s.users.FindByID(ctx, user.ID)
		s.Error(err)
	})

	s.Run("a failing cascade leaves the user row intact", func() {
		var order []string
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service := New(s.users, s.tokens, time.Hour, logger,
			&cascadeRecorder{name: "boom", log: &order, err: context.DeadlineExceeded},
		)

		user, err := service.Register(ctx, "heidi@example.com", "password-123")
		s.Require().NoError(err)

		err = service.DeleteAccount(ctx, user.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))

		// Retry can finish the job.
		_, err = s.users.FindByID(ctx, user.ID)
		s.NoError(err)
	})

	s.Run("deleting an unknown account reports not found", func() {
		err := s.service.DeleteAccount(ctx, id.NewUserID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("deleted email can be registered again", func() {
		user, err := s.service.Register(ctx, "ivan@example.com", "password-123")
		s.Require().NoError(err)
		s.Require().NoError(s.service.DeleteAccount(ctx, user.ID))

		_, err = s.service.Register(ctx, "ivan@example.com", "password-456")
		s.NoError(err)
	})
}
