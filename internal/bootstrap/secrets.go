package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/adapters/carrier"
	"github.com/kevin07696/recharge-gateway/internal/adapters/ports"
	"github.com/kevin07696/recharge-gateway/internal/adapters/secrets"
	"github.com/kevin07696/recharge-gateway/internal/config"
)

// NewSecretManager returns the configured secret backend.
// The "env" backend has no manager and returns nil.
//
// Backends:
//   - env:   CARRIER_CONSUMER_KEY / CARRIER_CONSUMER_SECRET are read directly
//   - local: files under SECRETS_LOCAL_PATH (development only)
//   - aws:   AWS Secrets Manager in AWS_REGION
//   - vault: HashiCorp Vault KV at VAULT_ADDR
func NewSecretManager(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Backend {
	case "", "env":
		return nil, nil
	case "local":
		logger.Warn("Using local filesystem secrets - NOT for production use",
			zap.String("path", cfg.LocalPath),
		)
		return secrets.NewLocalSecretManager(cfg.LocalPath, logger), nil
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Profile = cfg.AWSProfile
		awsCfg.Endpoint = cfg.AWSEndpoint
		if cfg.CacheTTL > 0 {
			awsCfg.CacheTTL = cfg.CacheTTL
		}
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.AuthMethod = cfg.VaultAuthMethod
		vaultCfg.Token = cfg.VaultToken
		vaultCfg.RoleID = cfg.VaultRoleID
		vaultCfg.SecretID = cfg.VaultSecretID
		vaultCfg.Namespace = cfg.VaultNamespace
		vaultCfg.MountPath = cfg.VaultMountPath
		vaultCfg.KVVersion = cfg.VaultKVVersion
		if cfg.CacheTTL > 0 {
			vaultCfg.CacheTTL = cfg.CacheTTL
		}
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)
	default:
		return nil, fmt.Errorf("unknown secrets backend %q", cfg.Backend)
	}
}

// CarrierConfig resolves the carrier settings, pulling the consumer key pair
// from the secret backend when one is configured. Missing credentials are not
// an error here; the token call reports them.
func CarrierConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*carrier.Config, error) {
	env, err := carrier.ParseEnvironment(cfg.Carrier.Environment)
	if err != nil {
		return nil, err
	}

	out := &carrier.Config{
		BaseURL:        cfg.Carrier.BaseURL,
		TokenEndpoint:  cfg.Carrier.TokenEndpoint,
		Environment:    env,
		ConsumerKey:    cfg.Carrier.ConsumerKey,
		ConsumerSecret: cfg.Carrier.ConsumerSecret,
		Timeout:        cfg.Carrier.Timeout,
	}

	sm, err := NewSecretManager(ctx, cfg.Secrets, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets backend: %w", err)
	}
	if sm == nil || cfg.Carrier.CredentialsSecret == "" {
		if !out.HasCredentials() {
			logger.Warn("Carrier credentials are not configured; token requests will fail")
		}
		return out, nil
	}

	creds, err := secrets.LoadCarrierCredentials(ctx, sm, cfg.Carrier.CredentialsSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to load carrier credentials: %w", err)
	}
	out.ConsumerKey = creds.ConsumerKey
	out.ConsumerSecret = creds.ConsumerSecret

	logger.Info("Carrier credentials loaded from secrets backend",
		zap.String("backend", cfg.Secrets.Backend),
		zap.String("secret", cfg.Carrier.CredentialsSecret),
	)
	return out, nil
}
