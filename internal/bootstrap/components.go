package bootstrap

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/adapters/carrier"
	"github.com/kevin07696/recharge-gateway/internal/adapters/database"
	"github.com/kevin07696/recharge-gateway/internal/adapters/redis"
	"github.com/kevin07696/recharge-gateway/internal/adapters/reportsink"
	"github.com/kevin07696/recharge-gateway/internal/config"
	domainports "github.com/kevin07696/recharge-gateway/internal/domain/ports"
	"github.com/kevin07696/recharge-gateway/internal/services/report"
	"github.com/kevin07696/recharge-gateway/internal/services/token"
	httpclient "github.com/kevin07696/recharge-gateway/pkg/http"
	"github.com/kevin07696/recharge-gateway/pkg/resilience"
	"github.com/kevin07696/recharge-gateway/pkg/security"
)

// Database opens the pgx pool
func Database(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.PostgreSQLAdapter, error) {
	dbCfg := database.DefaultPostgreSQLConfig(cfg.Database.ConnectionString())
	dbCfg.MaxConns = cfg.Database.MaxConns
	dbCfg.MinConns = cfg.Database.MinConns

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return database.NewPostgreSQLAdapter(connectCtx, dbCfg, logger)
}

// Carrier bundles the carrier client, its breaker and the token cache
type Carrier struct {
	Client  *carrier.Client
	Gateway *carrier.BreakerGateway
	Tokens  *token.Cache

	redis *goredis.Client
}

// Close releases the shared token store connection, if any
func (c *Carrier) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

// NewCarrier wires client -> breaker -> token cache
func NewCarrier(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Carrier, error) {
	carrierCfg, err := CarrierConfig(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	adapterLogger := security.NewZapLogger(logger)
	client := carrier.NewClient(
		carrierCfg,
		httpclient.NewHTTPClient(httpclient.CarrierClientConfig(), cfg.Carrier.Timeout),
		adapterLogger,
	)

	breakerCfg := carrier.DefaultBreakerConfig()
	if cfg.Carrier.BreakerFailures > 0 {
		breakerCfg.ConsecutiveFailures = uint32(cfg.Carrier.BreakerFailures)
	}
	if cfg.Carrier.BreakerTimeout > 0 {
		breakerCfg.Timeout = cfg.Carrier.BreakerTimeout
	}
	gateway := carrier.NewBreakerGateway("carrier", client, breakerCfg, adapterLogger)

	out := &Carrier{Client: client, Gateway: gateway}

	var store domainports.TokenStore
	switch cfg.TokenCache.Backend {
	case "redis":
		rc, err := redis.NewClient(ctx, redis.Config{
			Addr:     cfg.TokenCache.RedisAddr,
			Password: cfg.TokenCache.RedisPassword,
			DB:       cfg.TokenCache.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect token store: %w", err)
		}
		out.redis = rc
		store = redis.NewTokenStore(rc, cfg.TokenCache.KeyPrefix)
		logger.Info("Carrier token cache backed by Redis", zap.String("addr", cfg.TokenCache.RedisAddr))
	default:
		store = token.NewMemoryStore()
	}

	opts := []token.Option{token.WithRefreshTimeout(cfg.Carrier.Timeout)}
	if cfg.TokenCache.SafetyMargin > 0 {
		opts = append(opts, token.WithSafetyMargin(cfg.TokenCache.SafetyMargin))
	}
	out.Tokens = token.NewCache(gateway, client.CredentialID(), store, logger, opts...)

	return out, nil
}

// ReportSinks returns the remote destinations for the daily report: S3 when a
// bucket is configured, plus the SFTP drop which stays disabled.
func ReportSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]domainports.ReportSink, error) {
	var sinks []domainports.ReportSink

	s3Cfg := reportsink.S3Config{
		Bucket:          cfg.Report.S3Bucket,
		Prefix:          cfg.Report.S3Prefix,
		Region:          cfg.Report.S3Region,
		EndpointURL:     cfg.Report.S3Endpoint,
		AccessKeyID:     cfg.Report.S3AccessKeyID,
		SecretAccessKey: cfg.Report.S3SecretAccessKey,
	}
	if s3Cfg.Enabled() {
		sink, err := reportsink.NewS3Sink(ctx, s3Cfg, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	sinks = append(sinks, reportsink.NewDisabledSink("sftp", logger))
	return sinks, nil
}

// ReportConfig maps settings onto the generator config
func ReportConfig(cfg *config.Config) report.Config {
	out := report.DefaultConfig()
	if cfg.Report.ProviderID != "" {
		out.ProviderID = cfg.Report.ProviderID
	}
	if cfg.Report.Dir != "" {
		out.Dir = cfg.Report.Dir
	}
	return out
}

// Timeouts maps carrier settings onto the timeout hierarchy; unset values keep the defaults
func Timeouts(cfg *config.Config) *resilience.TimeoutConfig {
	out := resilience.DefaultTimeoutConfig()
	if cfg.Carrier.Timeout > 0 {
		out.CarrierCall = cfg.Carrier.Timeout
	}
	if cfg.Carrier.EnrichmentTimeout > 0 {
		out.Enrichment = cfg.Carrier.EnrichmentTimeout
	}
	return out
}
