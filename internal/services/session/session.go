// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session mints and validates signed session cookies.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"codeberg.org/oliverandrich/notesapp/internal/config"
	"github.com/gorilla/securecookie"
)

// ErrNoSession is returned when the request carries no valid session.
var ErrNoSession = errors.New("no valid session")

// User is the identity carried by a session cookie.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Manager creates and validates session cookies.
type Manager struct {
	sc         *securecookie.SecureCookie
	cookieName string
	maxAge     int
	secure     bool
}

// NewManager creates a session manager from configuration. An empty hash
// key gets a random one, which invalidates sessions on restart and is
// acceptable only for development.
func NewManager(cfg *config.SessionConfig, secure bool) (*Manager, error) {
	hashKey, err := keyFromHex(cfg.HashKey, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid session hash key: %w", err)
	}

	var blockKey []byte
	if cfg.BlockKey != "" {
		blockKey, err = hex.DecodeString(cfg.BlockKey)
		if err != nil {
			return nil, fmt.Errorf("invalid session block key: %w", err)
		}
	}

	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(cfg.MaxAge)

	return &Manager{
		sc:         sc,
		cookieName: cfg.CookieName,
		maxAge:     cfg.MaxAge,
		secure:     secure,
	}, nil
}

// keyFromHex decodes a hex key or generates a random one when empty.
func keyFromHex(s string, size int) ([]byte, error) {
	if s == "" {
		key := make([]byte, size)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		return key, nil
	}
	return hex.DecodeString(s)
}

// Create mints a session cookie for the given identity.
func (m *Manager) Create(userID int64, email string) (*http.Cookie, error) {
	encoded, err := m.sc.Encode(m.cookieName, User{ID: userID, Email: email})
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}

	return &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   m.maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Parse extracts the session identity from a request.
func (m *Manager) Parse(r *http.Request) (*User, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, ErrNoSession
	}

	var user User
	if err := m.sc.Decode(m.cookieName, cookie.Value, &user); err != nil {
		return nil, ErrNoSession
	}
	if user.ID == 0 {
		return nil, ErrNoSession
	}
	return &user, nil
}

// Expire returns a cookie that clears the session.
func (m *Manager) Expire() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// CookieName returns the configured cookie name.
func (m *Manager) CookieName() string {
	return m.cookieName
}
