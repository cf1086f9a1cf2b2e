package config

import (
	"context"
	"fmt"
	"io"
)

// ResolverFactory opens a SecretResolver for a GCP project.
type ResolverFactory func(ctx context.Context, projectID string) (SecretResolver, io.Closer, error)

// LoadResolved loads the environment, resolves sm:// references through the
// resolver returned by open (only when a reference is present) and validates
// the result.
func LoadResolved(ctx context.Context, open ResolverFactory) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if cfg.HasSecretRefs() {
		if cfg.GCPProjectID == "" {
			return nil, fmt.Errorf("secret references require GCP_PROJECT_ID")
		}
		resolver, closer, err := open(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, fmt.Errorf("open secret manager: %w", err)
		}
		defer closer.Close()
		if err := cfg.ResolveSecrets(ctx, resolver); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
