package account

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// MinPasswordLength matches the auth provider's own minimum.
const MinPasswordLength = 6

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrInvalidEmail     = errors.New("invalid email address")
)

type UpdateInput struct {
	Email           string `json:"email"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type Service struct {
	provider Provider
}

func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

func (s *Service) Current(ctx context.Context, id Identity) (Identity, error) {
	return s.provider.GetUser(ctx, id.UID)
}

// Update changes the password first, when one is given, and then the email
// when it differs from the current one.
func (s *Service) Update(ctx context.Context, id Identity, in UpdateInput) (Identity, error) {
	email := strings.TrimSpace(in.Email)

	if in.NewPassword != "" || in.ConfirmPassword != "" {
		if in.NewPassword != in.ConfirmPassword {
			return Identity{}, ErrPasswordMismatch
		}
		if len(in.NewPassword) < MinPasswordLength {
			return Identity{}, ErrPasswordTooShort
		}
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return Identity{}, ErrInvalidEmail
		}
	}

	if in.NewPassword != "" {
		if err := s.provider.UpdatePassword(ctx, id.UID, in.NewPassword); err != nil {
			return Identity{}, err
		}
	}

	if email != "" && email != id.Email {
		if err := s.provider.UpdateEmail(ctx, id.UID, email); err != nil {
			return Identity{}, err
		}
	}

	return s.provider.GetUser(ctx, id.UID)
}
