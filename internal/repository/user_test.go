// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/notesapp/internal/repository"
	"codeberg.org/oliverandrich/notesapp/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "test@example.com", "Test User")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, "Test User", user.Name)
	assert.False(t, user.EmailVerified)
	assert.False(t, user.EmailVerifiedAt.Valid)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, "test@example.com", "First")
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, "test@example.com", "Second")

	assert.Error(t, err, "the UNIQUE constraint keeps one identity per email")
}

func TestGetUserByEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "test@example.com", "Test User")
	require.NoError(t, err)

	retrieved, err := repo.GetUserByEmail(ctx, "test@example.com")

	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
	assert.Equal(t, "test@example.com", retrieved.Email)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetUserByEmail(context.Background(), "nonexistent@example.com")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetUserByID_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetUserByID(context.Background(), 12345)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEmailExists(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	exists, err := repo.EmailExists(ctx, "test@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.CreateUser(ctx, "test@example.com", "Test User")
	require.NoError(t, err)

	exists, err = repo.EmailExists(ctx, "test@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMarkEmailVerified(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "test@example.com", "Test User")
	require.NoError(t, err)
	assert.False(t, user.EmailVerified)

	err = repo.MarkEmailVerified(ctx, "test@example.com")
	require.NoError(t, err)

	updated, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, updated.EmailVerified)
	require.True(t, updated.EmailVerifiedAt.Valid)

	// Idempotent: the original verification timestamp is kept.
	firstVerifiedAt := updated.EmailVerifiedAt.Time
	err = repo.MarkEmailVerified(ctx, "test@example.com")
	require.NoError(t, err)

	again, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, again.EmailVerified)
	assert.Equal(t, firstVerifiedAt, again.EmailVerifiedAt.Time)
}

func TestMarkEmailVerified_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	err := repo.MarkEmailVerified(context.Background(), "nonexistent@example.com")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateUserName(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "test@example.com", "")
	require.NoError(t, err)

	err = repo.UpdateUserName(ctx, user.ID, "Named User")
	require.NoError(t, err)

	updated, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Named User", updated.Name)
}

func TestCountUsers(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.CreateUser(ctx, "a@example.com", "A")
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, "b@example.com", "B")
	require.NoError(t, err)

	count, err = repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
