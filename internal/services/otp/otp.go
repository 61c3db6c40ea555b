// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package otp implements issuance and verification of short-lived
// one-time passcodes sent over email.
package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/oliverandrich/notesapp/internal/models"
	"codeberg.org/oliverandrich/notesapp/internal/repository"
)

// Default verification policy.
const (
	DefaultTTL          = 10 * time.Minute
	DefaultAttemptLimit = 3
)

// Purpose distinguishes why a code is being issued.
type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeSignin Purpose = "signin"
)

// Users is the slice of the user store the OTP flows need.
type Users interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, email, name string) (*models.User, error)
	MarkEmailVerified(ctx context.Context, email string) error
	UpdateUserName(ctx context.Context, id int64, name string) error
}

// CodeSender dispatches a verification code to an address. Implementations
// must be safe to retry; re-issuance may dispatch twice for one code.
type CodeSender interface {
	SendCode(ctx context.Context, to, code string, expiresIn time.Duration) error
}

// Config holds the verification policy. Zero values fall back to the
// defaults above.
type Config struct {
	TTL          time.Duration
	AttemptLimit int
}

// Service orchestrates code generation, the pending-verification ledger
// and mail dispatch.
type Service struct {
	users  Users
	sender CodeSender
	store  Store
	ttl    time.Duration
	limit  int

	// Now is the clock used for issuance and expiry checks. Tests
	// override it to simulate the passage of time.
	Now func() time.Time
}

// NewService creates an OTP service backed by the given store.
func NewService(users Users, sender CodeSender, store Store, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.AttemptLimit <= 0 {
		cfg.AttemptLimit = DefaultAttemptLimit
	}
	return &Service{
		users:  users,
		sender: sender,
		store:  store,
		ttl:    cfg.TTL,
		limit:  cfg.AttemptLimit,
		Now:    time.Now,
	}
}

// CanonicalEmail normalizes an email address for use as a ledger and
// store key. Applied at every service boundary, never left to callers.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Issue generates a fresh code for the email, records it in the ledger
// and dispatches it. Any outstanding code for the email is replaced.
//
// For PurposeSignup an unknown email gets a provisional, unverified user
// record. For PurposeSignin an unknown email fails with ErrUserNotFound
// so no code leaks to an unregistered address.
func (s *Service) Issue(ctx context.Context, email string, purpose Purpose, name string) error {
	email = CanonicalEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if purpose != PurposeSignup {
			return ErrUserNotFound
		}
		if _, err := s.users.CreateUser(ctx, email, name); err != nil {
			return fmt.Errorf("failed to create provisional user: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up user: %w", err)
	case user.Name == "" && name != "":
		// Signup against an existing provisional record may supply the
		// name the first attempt never set.
		if err := s.users.UpdateUserName(ctx, user.ID, name); err != nil {
			return fmt.Errorf("failed to update user name: %w", err)
		}
	}

	now := s.Now()
	code := GenerateCode()
	s.store.Put(email, Record{
		Code:         code,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
		AttemptCount: 0,
		AttemptLimit: s.limit,
	})

	if err := s.sender.SendCode(ctx, email, code, s.ttl); err != nil {
		// The ledger entry stays: a retry overwrites it, which the
		// replace-not-append invariant makes safe.
		slog.Error("otp_dispatch_failed", "email", email, "purpose", purpose, "error", err)
		return ErrDispatchFailed
	}

	slog.Info("otp_issued", "email", email, "purpose", purpose, "expires_in", s.ttl)
	return nil
}

// Verify checks a submitted code against the email's pending record.
//
// The attempt counter is incremented before the code comparison, as an
// atomic read-modify-write on the stored record: the attempt whose
// increment reaches the limit is rejected with ErrTooManyAttempts
// without being evaluated, and every later attempt answers the same way
// until the record expires or a fresh code replaces it. Exhausted
// records are retained so submissions after exhaustion cannot probe
// ledger state through a different error.
func (s *Service) Verify(ctx context.Context, email, submitted string) error {
	email = CanonicalEmail(email)

	rec, ok := s.store.Get(email)
	if !ok {
		slog.Warn("otp_verify_failed", "email", email, "reason", "no_pending_verification")
		return ErrNoPendingVerification
	}

	if s.Now().After(rec.ExpiresAt) {
		s.store.Delete(email)
		slog.Warn("otp_verify_failed", "email", email, "reason", "expired")
		return ErrExpired
	}

	count, ok := s.store.IncrementAttempt(email)
	if !ok {
		// Raced with a concurrent terminal outcome.
		return ErrNoPendingVerification
	}

	if count >= rec.AttemptLimit {
		slog.Warn("otp_verify_failed", "email", email, "reason", "too_many_attempts", "attempts", count)
		return ErrTooManyAttempts
	}

	if rec.Code != submitted {
		slog.Warn("otp_verify_failed", "email", email, "reason", "invalid_code")
		return ErrInvalidCode
	}

	s.store.Delete(email)

	if err := s.users.MarkEmailVerified(ctx, email); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	slog.Info("otp_verified", "email", email)
	return nil
}

// StartSweeper runs Sweep on the underlying ledger at the given interval
// until the context is cancelled. Optional hardening: expiry is already
// enforced lazily on every Verify.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	ledger, ok := s.store.(*Ledger)
	if !ok {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := ledger.Sweep(s.Now()); removed > 0 {
					slog.Debug("otp_ledger_swept", "removed", removed)
				}
			}
		}
	}()
}
