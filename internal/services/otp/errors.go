// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package otp

import "errors"

// Issuance failures.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDispatchFailed = errors.New("failed to send verification code")
)

// Verification failures. All are expected, recoverable-by-retry
// conditions; callers dispatch on them with errors.Is.
var (
	ErrNoPendingVerification = errors.New("no verification in progress")
	ErrExpired               = errors.New("verification code has expired")
	ErrTooManyAttempts       = errors.New("too many attempts")
	ErrInvalidCode           = errors.New("invalid verification code")
)
