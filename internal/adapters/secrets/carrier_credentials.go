package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kevin07696/recharge-gateway/internal/adapters/ports"
)

// CarrierCredentials are the OAuth client credentials for the carrier API
type CarrierCredentials struct {
	ConsumerKey    string `json:"consumerKey"`
	ConsumerSecret string `json:"consumerSecret"`
}

// LoadCarrierCredentials reads the carrier credentials stored at path.
//
// Accepted shapes:
//   - Value is JSON {"consumerKey": "...", "consumerSecret": "..."}
//   - Metadata carries consumer_key and consumer_secret (Vault KV fields)
func LoadCarrierCredentials(ctx context.Context, sm ports.SecretManagerAdapter, path string) (*CarrierCredentials, error) {
	secret, err := sm.GetSecret(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load carrier credentials: %w", err)
	}

	creds := &CarrierCredentials{}
	if value := strings.TrimSpace(secret.Value); strings.HasPrefix(value, "{") {
		if err := json.Unmarshal([]byte(value), creds); err != nil {
			return nil, fmt.Errorf("carrier credentials at %s are not valid JSON: %w", path, err)
		}
	}

	if creds.ConsumerKey == "" {
		creds.ConsumerKey = secret.Metadata["consumer_key"]
	}
	if creds.ConsumerSecret == "" {
		creds.ConsumerSecret = secret.Metadata["consumer_secret"]
	}

	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" {
		return nil, fmt.Errorf("carrier credentials at %s are incomplete", path)
	}
	return creds, nil
}
