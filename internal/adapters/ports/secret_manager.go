package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional key/value pairs stored alongside the value
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter is the read side of a secret store.
// The gateway only reads carrier credentials; rotation happens outside the service.
//
// Path format depends on implementation:
//   - AWS:   "recharge-gateway/carrier"
//   - Vault: "recharge-gateway/carrier" under the configured KV mount
//   - Local: a file path relative to the secrets directory
type SecretManagerAdapter interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
