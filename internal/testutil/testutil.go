// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/notesapp/internal/database"
	"codeberg.org/oliverandrich/notesapp/internal/models"
	"codeberg.org/oliverandrich/notesapp/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestUser creates an unverified test user in the database.
func NewTestUser(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	ctx := context.Background()
	user, err := repo.CreateUser(ctx, email, "Test User")
	require.NoError(t, err)
	return user
}

// NewVerifiedUser creates a test user with a verified email.
func NewVerifiedUser(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	ctx := context.Background()
	user := NewTestUser(t, repo, email)
	require.NoError(t, repo.MarkEmailVerified(ctx, email))
	user, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	return user
}

// CapturingSender implements the OTP code sender by recording dispatched
// codes instead of sending mail. Set Err to simulate dispatch failures.
type CapturingSender struct {
	mu    sync.Mutex
	codes map[string][]string

	Err error
}

// NewCapturingSender creates an empty capturing sender.
func NewCapturingSender() *CapturingSender {
	return &CapturingSender{codes: make(map[string][]string)}
}

// SendCode records the code for the address, or fails with Err.
func (s *CapturingSender) SendCode(_ context.Context, to, code string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.codes[to] = append(s.codes[to], code)
	return nil
}

// LastCode returns the most recently dispatched code for the address.
func (s *CapturingSender) LastCode(to string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sent := s.codes[to]
	if len(sent) == 0 {
		return "", false
	}
	return sent[len(sent)-1], true
}

// SentCount returns how many codes were dispatched to the address.
func (s *CapturingSender) SentCount(to string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes[to])
}

// ErrDispatch is a reusable dispatch failure for tests.
var ErrDispatch = errors.New("smtp unreachable")

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
