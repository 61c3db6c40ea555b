// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package otp_test

import (
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/notesapp/internal/services/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(code string, expiresAt time.Time) otp.Record {
	return otp.Record{
		Code:         code,
		CreatedAt:    time.Now(),
		ExpiresAt:    expiresAt,
		AttemptCount: 0,
		AttemptLimit: otp.DefaultAttemptLimit,
	}
}

func TestLedger_PutGet(t *testing.T) {
	ledger := otp.NewLedger()

	_, ok := ledger.Get("a@x.com")
	assert.False(t, ok)

	ledger.Put("a@x.com", newRecord("123456", time.Now().Add(time.Minute)))

	rec, ok := ledger.Get("a@x.com")
	require.True(t, ok)
	assert.Equal(t, "123456", rec.Code)
	assert.Equal(t, 0, rec.AttemptCount)
}

func TestLedger_PutReplaces(t *testing.T) {
	ledger := otp.NewLedger()

	ledger.Put("a@x.com", newRecord("111111", time.Now().Add(time.Minute)))
	ledger.IncrementAttempt("a@x.com")
	ledger.Put("a@x.com", newRecord("222222", time.Now().Add(time.Minute)))

	rec, ok := ledger.Get("a@x.com")
	require.True(t, ok)
	assert.Equal(t, "222222", rec.Code)
	assert.Equal(t, 0, rec.AttemptCount, "replacement resets the attempt counter")
	assert.Equal(t, 1, ledger.Len())
}

func TestLedger_Delete(t *testing.T) {
	ledger := otp.NewLedger()

	ledger.Put("a@x.com", newRecord("123456", time.Now().Add(time.Minute)))
	ledger.Delete("a@x.com")

	_, ok := ledger.Get("a@x.com")
	assert.False(t, ok)

	// Deleting an absent record is a no-op.
	ledger.Delete("a@x.com")
}

func TestLedger_IncrementAttempt(t *testing.T) {
	ledger := otp.NewLedger()

	_, ok := ledger.IncrementAttempt("a@x.com")
	assert.False(t, ok)

	ledger.Put("a@x.com", newRecord("123456", time.Now().Add(time.Minute)))

	count, ok := ledger.IncrementAttempt("a@x.com")
	require.True(t, ok)
	assert.Equal(t, 1, count)

	count, ok = ledger.IncrementAttempt("a@x.com")
	require.True(t, ok)
	assert.Equal(t, 2, count)

	// Get must observe the mutation of the stored record.
	rec, ok := ledger.Get("a@x.com")
	require.True(t, ok)
	assert.Equal(t, 2, rec.AttemptCount)
}

func TestLedger_IncrementAttempt_Concurrent(t *testing.T) {
	ledger := otp.NewLedger()
	ledger.Put("a@x.com", newRecord("123456", time.Now().Add(time.Minute)))

	const goroutines = 50

	var wg sync.WaitGroup
	counts := make(chan int, goroutines)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, ok := ledger.IncrementAttempt("a@x.com")
			require.True(t, ok)
			counts <- count
		}()
	}
	wg.Wait()
	close(counts)

	// Every increment must observe a distinct count: two racing
	// attempts can never both see the same value.
	seen := make(map[int]bool)
	for count := range counts {
		assert.False(t, seen[count], "count %d observed twice", count)
		seen[count] = true
	}

	rec, ok := ledger.Get("a@x.com")
	require.True(t, ok)
	assert.Equal(t, goroutines, rec.AttemptCount)
}

func TestLedger_GetReturnsSnapshot(t *testing.T) {
	ledger := otp.NewLedger()
	ledger.Put("a@x.com", newRecord("123456", time.Now().Add(time.Minute)))

	rec, ok := ledger.Get("a@x.com")
	require.True(t, ok)
	rec.AttemptCount = 99

	stored, ok := ledger.Get("a@x.com")
	require.True(t, ok)
	assert.Equal(t, 0, stored.AttemptCount, "mutating a snapshot must not touch the ledger")
}

func TestLedger_PerKeyIsolation(t *testing.T) {
	ledger := otp.NewLedger()

	ledger.Put("a@x.com", newRecord("111111", time.Now().Add(time.Minute)))
	ledger.Put("b@x.com", newRecord("222222", time.Now().Add(time.Minute)))

	ledger.IncrementAttempt("a@x.com")
	ledger.Delete("a@x.com")

	rec, ok := ledger.Get("b@x.com")
	require.True(t, ok)
	assert.Equal(t, "222222", rec.Code)
	assert.Equal(t, 0, rec.AttemptCount)
}

func TestLedger_Sweep(t *testing.T) {
	ledger := otp.NewLedger()
	now := time.Now()

	ledger.Put("expired@x.com", newRecord("111111", now.Add(-time.Minute)))
	ledger.Put("live@x.com", newRecord("222222", now.Add(time.Minute)))

	removed := ledger.Sweep(now)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, ledger.Len())

	_, ok := ledger.Get("expired@x.com")
	assert.False(t, ok)
	_, ok = ledger.Get("live@x.com")
	assert.True(t, ok)
}
