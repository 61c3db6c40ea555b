// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth is the credential adapter: it turns the OTP flows and
// externally verified identities into authenticated users for session
// minting.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"codeberg.org/oliverandrich/notesapp/internal/models"
	"codeberg.org/oliverandrich/notesapp/internal/repository"
	"codeberg.org/oliverandrich/notesapp/internal/services/otp"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidEmail = errors.New("invalid email format")
)

// Service reconciles the two credential paths (email OTP and external
// identity providers) onto one identity record per email.
type Service struct {
	repo *repository.Repository
	otp  *otp.Service
}

// NewService creates the credential adapter.
func NewService(repo *repository.Repository, otpService *otp.Service) *Service {
	return &Service{repo: repo, otp: otpService}
}

// RequestCode issues a fresh OTP for the email. For otp.PurposeSignup an
// unknown email gets a provisional user; for otp.PurposeSignin it fails
// with otp.ErrUserNotFound.
func (s *Service) RequestCode(ctx context.Context, email string, purpose otp.Purpose, name string) error {
	email = otp.CanonicalEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return s.otp.Issue(ctx, email, purpose, name)
}

// SignInWithOTP verifies the submitted code and returns the user whose
// identity a session may be minted for. Verification failures are
// propagated typed; callers decide how much to disclose.
func (s *Service) SignInWithOTP(ctx context.Context, email, code string) (*models.User, error) {
	email = otp.CanonicalEmail(email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("otp_signin_failed", "email", email, "reason", "user_not_found")
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.otp.Verify(ctx, email, code); err != nil {
		return nil, err
	}

	// Verify marked the email verified; reload so the caller sees it.
	user, err = s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	slog.Info("otp_signin_success", "user_id", user.ID, "email", email)
	return user, nil
}

// TrustExternal records that an external identity provider has verified
// control of the email, creating the user when absent. It is the single
// idempotent "mark this email trusted" operation both credential paths
// converge on; the users table's UNIQUE constraint keeps one identity
// record per email.
func (s *Service) TrustExternal(ctx context.Context, email, name string) (*models.User, error) {
	email = otp.CanonicalEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		user, err = s.repo.CreateUser(ctx, email, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to get user: %w", err)
	case user.Name == "" && name != "":
		if err := s.repo.UpdateUserName(ctx, user.ID, name); err != nil {
			return nil, fmt.Errorf("failed to update user name: %w", err)
		}
	}

	if err := s.repo.MarkEmailVerified(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}

	user, err = s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	slog.Info("external_signin_success", "user_id", user.ID, "email", email)
	return user, nil
}
