package auth

import (
	"fmt"

	"suvai/internal/config"
)

// NewFromConfig creates an AuthClient based on config settings.
func NewFromConfig(cfg *config.Config) (AuthClient, error) {
	if cfg.Mocks.Enable {
		return Mock(cfg), nil
	}
	if !cfg.Clerk.Enabled() {
		return nil, fmt.Errorf("CLERK_SECRET_KEY is required unless ENABLE_MOCKS is set")
	}
	return NewClient(cfg.Clerk.SecretKey)
}
