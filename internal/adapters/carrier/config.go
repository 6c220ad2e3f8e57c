package carrier

import (
	"fmt"
	"strings"
	"time"
)

// Environment selects which carrier path segment purchase calls use
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

const (
	// DefaultBaseURL is the carrier API gateway host
	DefaultBaseURL = "https://apigee-prod.altanredes.com"

	tokenPath         = "/v1/oauth/accesstoken?grant-type=client_credentials"
	productionSegment = "cm"
	sandboxSegment    = "cm-sandbox"
)

// ParseEnvironment accepts "sandbox" or "production" (case-insensitive).
// An empty value means production.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(EnvironmentProduction), "prod":
		return EnvironmentProduction, nil
	case string(EnvironmentSandbox):
		return EnvironmentSandbox, nil
	default:
		return "", fmt.Errorf("unknown carrier environment %q", s)
	}
}

// Config contains configuration for the carrier adapter
type Config struct {
	// BaseURL may include a trailing environment segment ("/cm" or "/cm-sandbox"); it is stripped
	BaseURL string
	// TokenEndpoint, when set, is used verbatim for token requests
	TokenEndpoint string
	Environment   Environment

	ConsumerKey    string
	ConsumerSecret string

	// Timeout bounds each carrier call
	Timeout time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Environment: EnvironmentProduction,
		Timeout:     30 * time.Second,
	}
}

// root is the base URL without trailing slash or environment segment
func (c *Config) root() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")
	for _, seg := range []string{"/" + sandboxSegment, "/" + productionSegment} {
		if strings.HasSuffix(base, seg) {
			return strings.TrimSuffix(base, seg)
		}
	}
	return base
}

func (c *Config) segment() string {
	if c.Environment == EnvironmentSandbox {
		return sandboxSegment
	}
	return productionSegment
}

// TokenURL returns the OAuth endpoint
func (c *Config) TokenURL() string {
	if c.TokenEndpoint != "" {
		return c.TokenEndpoint
	}
	return c.root() + tokenPath
}

// PurchaseURL returns the purchase endpoint for the configured environment
func (c *Config) PurchaseURL() string {
	return fmt.Sprintf("%s/%s/v1/products/purchase", c.root(), c.segment())
}

// LookupURL returns the subscriber profile endpoint.
// Account lookups always go to production, whatever Environment says.
func (c *Config) LookupURL(msisdn string) string {
	return fmt.Sprintf("%s/%s/v1/subscribers/%s/profile", c.root(), productionSegment, msisdn)
}

// HasCredentials reports whether both consumer key and secret are set
func (c *Config) HasCredentials() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != ""
}
