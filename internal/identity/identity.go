// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package identity defines the boundary to external identity providers
// (OAuth). The protocol handshake happens outside this service; a
// Provider only surfaces the identity the provider has already verified.
package identity

import (
	"context"
	"errors"
)

// ErrUnverified is returned when the provider could not vouch for the
// request's identity.
var ErrUnverified = errors.New("identity not verified by provider")

// Identity is an externally verified identity.
type Identity struct {
	Email string
	Name  string
}

// Provider resolves a provider callback (authorization code, ID token,
// opaque ticket) into a verified identity.
type Provider interface {
	// Name identifies the provider, e.g. "google".
	Name() string
	// Resolve exchanges the callback credential for a verified identity.
	// Implementations must only return identities whose email the
	// provider itself has verified.
	Resolve(ctx context.Context, credential string) (*Identity, error)
}
