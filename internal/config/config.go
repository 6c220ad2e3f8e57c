package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Carrier    CarrierConfig
	TokenCache TokenCacheConfig
	Report     ReportConfig
	Auth       AuthConfig
	Secrets    SecretsConfig
	Logger     LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	MetricsPort     int
	Environment     string // development, staging, production
	CORSOrigins     []string
	RateLimitRPS    float64 // 0 disables rate limiting
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL      string // DATABASE_URL wins over the discrete fields
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32

	RunMigrations bool
}

// CarrierConfig holds the carrier API settings
type CarrierConfig struct {
	BaseURL       string
	TokenEndpoint string // optional full override of the OAuth URL
	Environment   string // sandbox | production

	ConsumerKey    string
	ConsumerSecret string
	// CredentialsSecret names the secret holding the consumer key pair when
	// it is not given directly
	CredentialsSecret string

	Timeout           time.Duration
	EnrichmentTimeout time.Duration

	BreakerFailures int
	BreakerTimeout  time.Duration
}

// TokenCacheConfig selects where the carrier token is cached
type TokenCacheConfig struct {
	Backend       string // memory | redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
	SafetyMargin  time.Duration
}

// ReportConfig holds settlement report settings
type ReportConfig struct {
	ProviderID       string
	Dir              string
	SchedulerEnabled bool
	ScheduleHour     int // UTC
	RetryDelays      []time.Duration

	S3Bucket          string
	S3Prefix          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// AuthConfig holds inbound authentication settings
type AuthConfig struct {
	JWTSecret  string // empty disables client authentication
	JWTIssuer  string
	CronSecret string
}

// SecretsConfig selects the secret backend for carrier credentials
type SecretsConfig struct {
	Backend string // env | local | aws | vault

	LocalPath string

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress    string
	VaultAuthMethod string
	VaultToken      string
	VaultRoleID     string
	VaultSecretID   string
	VaultNamespace  string
	VaultMountPath  string
	VaultKVVersion  string

	CacheTTL time.Duration
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// Load reads an optional .env file and then the environment
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Existing variables win; a missing file is fine
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return LoadFromEnv()
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("PORT", 8080),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			Environment:     getEnv("ENVIRONMENT", "development"),
			CORSOrigins:     getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 40),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:           getEnv("DATABASE_URL", ""),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnvAsInt("DB_PORT", 5432),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", ""),
			Database:      getEnv("DB_NAME", "recharge_gateway"),
			SSLMode:       getEnv("DB_SSL_MODE", "disable"),
			MaxConns:      int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:      int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			RunMigrations: getEnvAsBool("DB_RUN_MIGRATIONS", false),
		},
		Carrier: CarrierConfig{
			BaseURL:           getEnv("CARRIER_BASE_URL", "https://apigee-prod.altanredes.com"),
			TokenEndpoint:     getEnv("CARRIER_TOKEN_ENDPOINT", ""),
			Environment:       getEnv("CARRIER_ENVIRONMENT", "production"),
			ConsumerKey:       getEnv("CARRIER_CONSUMER_KEY", ""),
			ConsumerSecret:    getEnv("CARRIER_CONSUMER_SECRET", ""),
			CredentialsSecret: getEnv("CARRIER_CREDENTIALS_SECRET", ""),
			Timeout:           getEnvAsDuration("CARRIER_TIMEOUT", 30*time.Second),
			EnrichmentTimeout: getEnvAsDuration("CARRIER_ENRICHMENT_TIMEOUT", 10*time.Second),
			BreakerFailures:   getEnvAsInt("CARRIER_BREAKER_FAILURES", 5),
			BreakerTimeout:    getEnvAsDuration("CARRIER_BREAKER_TIMEOUT", 30*time.Second),
		},
		TokenCache: TokenCacheConfig{
			Backend:       strings.ToLower(getEnv("TOKEN_CACHE_BACKEND", "memory")),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			KeyPrefix:     getEnv("TOKEN_CACHE_KEY_PREFIX", "recharge:carrier-token:"),
			SafetyMargin:  getEnvAsDuration("TOKEN_CACHE_SAFETY_MARGIN", 5*time.Minute),
		},
		Report: ReportConfig{
			ProviderID:        getEnv("REPORT_PROVIDER_ID", "TECOMNET"),
			Dir:               getEnv("REPORT_DIR", ""),
			SchedulerEnabled:  getEnvAsBool("REPORT_SCHEDULER_ENABLED", true),
			ScheduleHour:      getEnvAsInt("REPORT_SCHEDULE_HOUR", 1),
			RetryDelays:       getEnvAsDurations("REPORT_RETRY_DELAYS", []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute}),
			S3Bucket:          getEnv("REPORT_S3_BUCKET", ""),
			S3Prefix:          getEnv("REPORT_S3_PREFIX", "reports/"),
			S3Region:          getEnv("REPORT_S3_REGION", getEnv("AWS_REGION", "us-east-1")),
			S3Endpoint:        getEnv("REPORT_S3_ENDPOINT", ""),
			S3AccessKeyID:     getEnv("REPORT_S3_ACCESS_KEY_ID", ""),
			S3SecretAccessKey: getEnv("REPORT_S3_SECRET_ACCESS_KEY", ""),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			JWTIssuer:  getEnv("JWT_ISSUER", "recharge-gateway"),
			CronSecret: getEnv("CRON_SECRET", ""),
		},
		Secrets: SecretsConfig{
			Backend:         strings.ToLower(getEnv("SECRETS_BACKEND", "env")),
			LocalPath:       getEnv("SECRETS_LOCAL_PATH", "./secrets"),
			AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
			AWSProfile:      getEnv("AWS_PROFILE", ""),
			AWSEndpoint:     getEnv("AWS_ENDPOINT_URL", ""),
			VaultAddress:    getEnv("VAULT_ADDR", ""),
			VaultAuthMethod: getEnv("VAULT_AUTH_METHOD", "token"),
			VaultToken:      getEnv("VAULT_TOKEN", ""),
			VaultRoleID:     getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID:   getEnv("VAULT_SECRET_ID", ""),
			VaultNamespace:  getEnv("VAULT_NAMESPACE", ""),
			VaultMountPath:  getEnv("VAULT_MOUNT_PATH", "secret"),
			VaultKVVersion:  getEnv("VAULT_KV_VERSION", "v2"),
			CacheTTL:        getEnvAsDuration("SECRETS_CACHE_TTL", 5*time.Minute),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required and enumerated settings
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" && c.Database.Password == "" {
		errs = append(errs, errors.New("DATABASE_URL or DB_PASSWORD is required"))
	}

	switch strings.ToLower(c.Carrier.Environment) {
	case "", "sandbox", "production", "prod":
	default:
		errs = append(errs, fmt.Errorf("CARRIER_ENVIRONMENT must be sandbox or production, got %q", c.Carrier.Environment))
	}
	if c.Carrier.Timeout <= 0 {
		errs = append(errs, errors.New("CARRIER_TIMEOUT must be positive"))
	}

	switch c.Secrets.Backend {
	case "env":
	case "local", "aws", "vault":
		if c.Carrier.CredentialsSecret == "" {
			errs = append(errs, fmt.Errorf("CARRIER_CREDENTIALS_SECRET is required with SECRETS_BACKEND=%s", c.Secrets.Backend))
		}
		if c.Secrets.Backend == "vault" && c.Secrets.VaultAddress == "" {
			errs = append(errs, errors.New("VAULT_ADDR is required with SECRETS_BACKEND=vault"))
		}
	default:
		errs = append(errs, fmt.Errorf("SECRETS_BACKEND must be env, local, aws or vault, got %q", c.Secrets.Backend))
	}

	switch c.TokenCache.Backend {
	case "memory":
	case "redis":
		if c.TokenCache.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required with TOKEN_CACHE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("TOKEN_CACHE_BACKEND must be memory or redis, got %q", c.TokenCache.Backend))
	}

	if c.Report.ScheduleHour < 0 || c.Report.ScheduleHour > 23 {
		errs = append(errs, fmt.Errorf("REPORT_SCHEDULE_HOUR must be 0-23, got %d", c.Report.ScheduleHour))
	}
	if c.Report.ProviderID == "" {
		errs = append(errs, errors.New("REPORT_PROVIDER_ID must not be empty"))
	}

	if c.IsProduction() {
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
		if c.Auth.CronSecret == "" {
			errs = append(errs, errors.New("CRON_SECRET is required in production"))
		}
	}

	return errors.Join(errs...)
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// IsDevelopment reports whether ENVIRONMENT is development
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Environment, "development")
}

// ConnectionString returns a PostgreSQL URL usable by pgx and golang-migrate
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice splits a comma-separated value, dropping blanks
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvAsDurations parses e.g. "1m,5m,15m"; any bad entry falls back to the default
func getEnvAsDurations(key string, defaultValue []time.Duration) []time.Duration {
	parts := getEnvAsSlice(key, nil)
	if parts == nil {
		return defaultValue
	}
	out := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		d, err := time.ParseDuration(p)
		if err != nil || d < 0 {
			return defaultValue
		}
		out = append(out, d)
	}
	return out
}
