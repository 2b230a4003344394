package handler

import (
	"strings"

	"github.com/asaskevich/govalidator"

	dErrors "attest/pkg/domain-errors"
)

const (
	minPasswordLength = 8
	// maxPasswordLength matches the bcrypt input limit.
	maxPasswordLength = 72
)

// RegisterRequest is the POST /auth/register body.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	if !govalidator.IsEmail(r.Email) || !govalidator.StringLength(r.Email, "3", "255") {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	if len(r.Password) < minPasswordLength {
		return dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}
	if len(r.Password) > maxPasswordLength {
		return dErrors.New(dErrors.CodeInvalidInput, "password exceeds max length")
	}
	return nil
}

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email and password are required")
	}
	return nil
}
