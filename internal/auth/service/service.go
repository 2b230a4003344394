// Package service implements account registration, login, and deletion.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"attest/internal/auth/jwttoken"
	"attest/internal/auth/models"
	"attest/internal/auth/store"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

// Cascade is one leg of account deletion. Registered legs run in order
// before the user row itself is removed (verifications, credentials,
// activities, DIDs).
type Cascade interface {
	DeleteByUser(ctx context.Context, userID id.UserID) error
}

// Service owns the user lifecycle. Session state is carried entirely by the
// signed token; there is no server-side session store to invalidate.
type Service struct {
	users    store.Store
	tokens   *jwttoken.Service
	tokenTTL time.Duration
	cascades []Cascade
	logger   *slog.Logger
}

func New(users store.Store, tokens *jwttoken.Service, tokenTTL time.Duration, logger *slog.Logger, cascades ...Cascade) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		cascades: cascades,
		logger:   logger,
	}
}

// Register creates an account. Password strength and email shape are
// validated at the handler boundary; the hash happens here so no caller can
// persist a cleartext password.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user, err := models.NewUser(id.NewUserID(), email, string(hash), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	return user, nil
}

// Login validates credentials and mints a session token. Unknown email and
// wrong password produce the identical error so the endpoint cannot be used
// to enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	sessionID := id.NewSessionID()
	token, err := s.tokens.GenerateAccessToken(user.ID, sessionID, user.Admin, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}

	return &models.Session{
		SessionID:   sessionID,
		UserID:      user.ID,
		AccessToken: token,
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}

// UserInfo returns the caller's own profile.
func (s *Service) UserInfo(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// DeleteAccount removes the user and everything hanging off it. Cascade legs
// run dependency-first; any leg failing aborts before the user row is
// touched so a retry can finish the job.
func (s *Service) DeleteAccount(ctx context.Context, userID id.UserID) error {
	if _, err := s.UserInfo(ctx, userID); err != nil {
		return err
	}

	for _, cascade := range s.cascades {
		if err := cascade.DeleteByUser(ctx, userID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "account deletion cascade failed")
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user")
	}

	s.logger.InfoContext(ctx, "account deleted",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID,
	)
	return nil
}
