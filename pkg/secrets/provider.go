package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a provider that does not hold a secret.
var ErrNotFound = errors.New("secret not found")

// Provider retrieves secrets from one backend.
type Provider interface {
	// GetSecret retrieves a secret by name. A missing secret yields an
	// error wrapping ErrNotFound.
	GetSecret(ctx context.Context, name string) (string, error)

	// Name returns the provider name (env, file).
	Name() string
}
