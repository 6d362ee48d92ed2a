package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"gatherly/eventkeeper/pkg/config"
)

// secretRefRegex matches ${secret:name} patterns in configuration values.
var secretRefRegex = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Manager tries providers in order; the first one holding a secret wins.
type Manager struct {
	providers []Provider
	logger    *slog.Logger
}

// NewManager creates a manager over providers.
func NewManager(providers []Provider, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{providers: providers, logger: logger}
}

// New builds the manager described by cfg: the file provider (when Dir is
// set) followed by the environment provider.
func New(cfg config.SecretsConfig, logger *slog.Logger) (*Manager, error) {
	var providers []Provider
	if cfg.Dir != "" {
		fp, err := NewFileProvider(cfg.Dir)
		if err != nil {
			return nil, err
		}
		providers = append(providers, fp)
	}
	providers = append(providers, NewEnvProvider(cfg.EnvPrefix))
	return NewManager(providers, logger), nil
}

// GetSecret retrieves a secret from the first provider that has it. Errors
// other than ErrNotFound stop the lookup.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	for _, provider := range m.providers {
		value, err := provider.GetSecret(ctx, name)
		if err == nil {
			m.logger.Debug("secret resolved", "provider", provider.Name(), "name", redactSecretName(name))
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("provider %s: %w", provider.Name(), err)
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// ResolveReferences replaces every ${secret:name} in input. On failure the
// unresolved references are kept and all failures are reported together.
func (m *Manager) ResolveReferences(ctx context.Context, input string) (string, error) {
	var errs []string

	output := secretRefRegex.ReplaceAllStringFunc(input, func(match string) string {
		name := secretRefRegex.FindStringSubmatch(match)[1]
		value, err := m.GetSecret(ctx, name)
		if err != nil {
			errs = append(errs, err.Error())
			return match
		}
		return value
	})

	if len(errs) > 0 {
		return output, fmt.Errorf("failed to resolve secret references: %s", strings.Join(errs, "; "))
	}
	return output, nil
}

// ResolveConfig resolves secret references in the credential fields of cfg
// in place.
func (m *Manager) ResolveConfig(ctx context.Context, cfg *config.Config) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"store.postgres.dsn", &cfg.Store.Postgres.DSN},
		{"notifier.kafka.sasl.user", &cfg.Notifier.Kafka.SASL.User},
		{"notifier.kafka.sasl.password", &cfg.Notifier.Kafka.SASL.Password},
	}

	var errs []error
	for _, f := range fields {
		if !strings.Contains(*f.value, "${secret:") {
			continue
		}
		resolved, err := m.ResolveReferences(ctx, *f.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
			continue
		}
		*f.value = resolved
	}
	return errors.Join(errs...)
}

// redactSecretName shortens a secret name for logs.
func redactSecretName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
