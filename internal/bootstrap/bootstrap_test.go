package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/adapters/carrier"
	"github.com/kevin07696/recharge-gateway/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{Environment: "development"},
		Carrier:    config.CarrierConfig{BaseURL: "https://carrier.example", Environment: "sandbox", Timeout: 5 * time.Second},
		TokenCache: config.TokenCacheConfig{Backend: "memory"},
		Report:     config.ReportConfig{ProviderID: "TECOMNET"},
		Secrets:    config.SecretsConfig{Backend: "env"},
		Logger:     config.LoggerConfig{Level: "info"},
	}
}

func TestCarrierConfig_FromEnvironment(t *testing.T) {
	cfg := baseConfig()
	cfg.Carrier.ConsumerKey = "key"
	cfg.Carrier.ConsumerSecret = "secret"

	out, err := CarrierConfig(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, carrier.EnvironmentSandbox, out.Environment)
	assert.True(t, out.HasCredentials())
	assert.Equal(t, "https://carrier.example/cm-sandbox/v1/products/purchase", out.PurchaseURL())
}

func TestCarrierConfig_FromLocalSecret(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "carrier.json"),
		[]byte(`{"consumerKey":"from-file","consumerSecret":"shh"}`), 0o600))

	cfg := baseConfig()
	cfg.Carrier.ConsumerKey = "ignored"
	cfg.Carrier.CredentialsSecret = "carrier.json"
	cfg.Secrets = config.SecretsConfig{Backend: "local", LocalPath: dir}

	out, err := CarrierConfig(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "from-file", out.ConsumerKey)
	assert.Equal(t, "shh", out.ConsumerSecret)
}

func TestCarrierConfig_Errors(t *testing.T) {
	t.Run("bad environment", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Carrier.Environment = "staging"
		_, err := CarrierConfig(context.Background(), cfg, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("missing secret file", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Carrier.CredentialsSecret = "absent.json"
		cfg.Secrets = config.SecretsConfig{Backend: "local", LocalPath: t.TempDir()}
		_, err := CarrierConfig(context.Background(), cfg, zap.NewNop())
		assert.ErrorContains(t, err, "carrier credentials")
	})
}

func TestNewSecretManager(t *testing.T) {
	sm, err := NewSecretManager(context.Background(), config.SecretsConfig{Backend: "env"}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, sm)

	_, err = NewSecretManager(context.Background(), config.SecretsConfig{Backend: "gcp"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown secrets backend")
}

func TestNewCarrier_MemoryStore(t *testing.T) {
	cfg := baseConfig()
	cfg.Carrier.ConsumerKey = "key"
	cfg.Carrier.ConsumerSecret = "secret"

	c, err := NewCarrier(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, c.Tokens)
	assert.Equal(t, carrier.CredentialDigest("key"), c.Client.CredentialID())
	assert.NotContains(t, c.Client.CredentialID(), "key")
	assert.NoError(t, c.Gateway.HealthCheck(context.Background()))
	assert.NoError(t, c.Close())
}

func TestReportSinks_WithoutBucket(t *testing.T) {
	sinks, err := ReportSinks(context.Background(), baseConfig(), zap.NewNop())
	require.NoError(t, err)

	require.Len(t, sinks, 1)
	assert.Equal(t, "sftp", sinks[0].Name())
}

func TestReportConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Report.Dir = "/var/reports"

	out := ReportConfig(cfg)
	assert.Equal(t, "TECOMNET", out.ProviderID)
	assert.Equal(t, "/var/reports", out.Dir)

	cfg.Report.Dir = ""
	assert.NotEmpty(t, ReportConfig(cfg).Dir)
}

func TestTimeouts(t *testing.T) {
	cfg := baseConfig()
	cfg.Carrier.EnrichmentTimeout = 2 * time.Second

	tc := Timeouts(cfg)
	assert.Equal(t, 5*time.Second, tc.CarrierCall)
	assert.Equal(t, 2*time.Second, tc.Enrichment)
	assert.Equal(t, 5*time.Minute, tc.ReportAttempt)
	assert.Equal(t, 27*time.Second, tc.PurchaseBudget())
}

func TestNewLogger(t *testing.T) {
	cfg := baseConfig()
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.Logger.Level = "loud"
	_, err = NewLogger(cfg)
	assert.Error(t, err)
}
