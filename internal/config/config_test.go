// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"app.localhost", true},
		{"sub.domain.localhost", true},
		{"example.com", false},
		{"www.example.com", false},
		{"192.168.1.1", false},
		{"localhost.com", false}, // not a real localhost
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLocalhost(tt.host))
		})
	}
}

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		expected string
	}{
		{
			name:     "default port is hidden",
			cfg:      &Config{Server: ServerConfig{Host: "localhost", Port: 80}},
			expected: "http://localhost",
		},
		{
			name:     "custom port",
			cfg:      &Config{Server: ServerConfig{Host: "localhost", Port: 8080}},
			expected: "http://localhost:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildBaseURL(tt.cfg))
		})
	}
}

func TestNewFromCLI_Defaults(t *testing.T) {
	var cfg *Config
	cmd := &cli.Command{
		Name:  "notesapp",
		Flags: Flags(),
		Action: func(_ context.Context, c *cli.Command) error {
			cfg = NewFromCLI(c)
			return nil
		},
	}

	require.NoError(t, cmd.Run(context.Background(), []string{"notesapp"}))
	require.NotNil(t, cfg)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "./data/notes.db", cfg.Database.DSN)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.True(t, cfg.SMTP.TLS)
	assert.Equal(t, "_session", cfg.Session.CookieName)
	assert.Equal(t, 604800, cfg.Session.MaxAge)
	assert.Equal(t, 10, cfg.OTP.TTLMinutes)
	assert.Equal(t, 3, cfg.OTP.AttemptLimit)
}

func TestNewFromCLI_Overrides(t *testing.T) {
	var cfg *Config
	cmd := &cli.Command{
		Name:  "notesapp",
		Flags: Flags(),
		Action: func(_ context.Context, c *cli.Command) error {
			cfg = NewFromCLI(c)
			return nil
		},
	}

	require.NoError(t, cmd.Run(context.Background(), []string{
		"notesapp",
		"--host", "notes.example.com",
		"--port", "9000",
		"--otp-ttl-minutes", "5",
		"--otp-attempt-limit", "5",
	}))
	require.NotNil(t, cfg)

	assert.Equal(t, "notes.example.com", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.OTP.TTLMinutes)
	assert.Equal(t, 5, cfg.OTP.AttemptLimit)
}
