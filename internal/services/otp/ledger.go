// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package otp

import (
	"sync"
	"time"
)

// Record is a pending verification for a single email address. At most
// one live record exists per email; issuing a new code replaces it.
type Record struct { //nolint:govet // fieldalignment: readability over optimization
	Code         string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	AttemptCount int
	AttemptLimit int
}

// Store is the pending-verification ledger. The in-memory Ledger below
// is the single-process implementation; horizontally scaled deployments
// need a shared store with per-key atomic increments behind this
// interface, or issuance and verification may land on different
// instances and always fail.
type Store interface {
	Put(email string, rec Record)
	Get(email string) (Record, bool)
	Delete(email string)
	IncrementAttempt(email string) (int, bool)
}

// Ledger is an in-memory Store. All mutations are serialized through a
// mutex so that IncrementAttempt is a read-modify-write on the stored
// record, never on a caller's cached copy. State is volatile: a process
// restart invalidates all outstanding codes, which is acceptable for a
// ten-minute-lived secret.
type Ledger struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{records: make(map[string]*Record)}
}

// Put inserts or replaces the record for an email. Replacing invalidates
// any code sent but not yet verified.
func (l *Ledger) Put(email string, rec Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[email] = &rec
}

// Get returns a snapshot of the record for an email. The ledger remains
// the sole owner of the stored record.
func (l *Ledger) Get(email string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[email]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Delete removes the record for an email. No-op if absent.
func (l *Ledger) Delete(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, email)
}

// IncrementAttempt increments the stored record's attempt counter and
// returns the new count. Returns false if no record exists.
func (l *Ledger) IncrementAttempt(email string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[email]
	if !ok {
		return 0, false
	}
	rec.AttemptCount++
	return rec.AttemptCount, true
}

// Len returns the number of pending records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Sweep removes records whose deadline has passed and returns how many
// were removed. Expiry is always re-checked on verification, so sweeping
// only bounds the memory held by abandoned records.
func (l *Ledger) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for email, rec := range l.records {
		if now.After(rec.ExpiresAt) {
			delete(l.records, email)
			removed++
		}
	}
	return removed
}
