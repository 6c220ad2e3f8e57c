package carrier

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	adapterports "github.com/kevin07696/recharge-gateway/internal/adapters/ports"
	"github.com/kevin07696/recharge-gateway/internal/domain"
	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/pkg/observability"
)

// Operation names used in errors, logs and metrics
const (
	OperationToken    = "token"
	OperationLookup   = "msisdn_lookup"
	OperationPurchase = "purchase"
)

// maxErrorBody caps how much of an error response is kept on UpstreamError
const maxErrorBody = 2048

// Client implements ports.CarrierGateway over the carrier REST API
type Client struct {
	config     *Config
	httpClient adapterports.HTTPClient
	logger     adapterports.Logger
}

// NewClient creates a new carrier client with dependency injection
func NewClient(config *Config, httpClient adapterports.HTTPClient, logger adapterports.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
}

// CredentialID identifies the credential set this client authenticates with.
// It ends up in token store keys, so it is a digest of the consumer key, never the key.
func (c *Client) CredentialID() string {
	return CredentialDigest(c.config.ConsumerKey)
}

// CredentialDigest is the first 16 hex characters of sha256(consumerKey)
func CredentialDigest(consumerKey string) string {
	sum := sha256.Sum256([]byte(consumerKey))
	return hex.EncodeToString(sum[:8])
}

// FetchToken requests a new OAuth token with client credentials
func (c *Client) FetchToken(ctx context.Context) (*models.Token, error) {
	if c.config.ConsumerKey == "" {
		return nil, &domain.ConfigError{Setting: "CARRIER_CONSUMER_KEY", Message: "carrier consumer key is not configured"}
	}
	if c.config.ConsumerSecret == "" {
		return nil, &domain.ConfigError{Setting: "CARRIER_CONSUMER_SECRET", Message: "carrier consumer secret is not configured"}
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(c.config.ConsumerKey + ":" + c.config.ConsumerSecret))

	var token *models.Token
	err := c.call(ctx, OperationToken, http.MethodPost, c.config.TokenURL(), nil, "Basic "+credentials, func(body []byte) error {
		var resp tokenResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return &domain.DecodeError{Operation: OperationToken, Reason: "invalid token JSON", Err: err}
		}
		token = resp.toModel()
		if token.AccessToken == "" {
			return &domain.DecodeError{Operation: OperationToken, Reason: "access token is empty"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return token, nil
}

// LookupMsisdn fetches the subscriber profile. A profile without an information
// block yields an empty AccountInfo.
func (c *Client) LookupMsisdn(ctx context.Context, msisdn, accessToken string) (*models.AccountInfo, error) {
	if err := ValidateMsisdn(msisdn); err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, domain.NewValidationError("accessToken", "access token is required")
	}

	var info *models.AccountInfo
	err := c.call(ctx, OperationLookup, http.MethodGet, c.config.LookupURL(msisdn), nil, "Bearer "+accessToken, func(body []byte) error {
		var resp profileResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return &domain.DecodeError{Operation: OperationLookup, Reason: "invalid profile JSON", Err: err}
		}
		info = resp.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return info, nil
}

// Purchase submits the request as-is to the carrier
func (c *Client) Purchase(ctx context.Context, req *models.PurchaseRequest, accessToken string) (*models.PurchaseResult, error) {
	if req == nil {
		return nil, domain.NewValidationError("request", "purchase request is required")
	}
	if err := ValidateMsisdn(req.Msisdn); err != nil {
		return nil, err
	}
	if len(req.Offerings) == 0 {
		return nil, domain.NewValidationError("offerings", "at least one offering is required")
	}
	if accessToken == "" {
		return nil, domain.NewValidationError("accessToken", "access token is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal purchase request: %w", err)
	}

	var result *models.PurchaseResult
	err = c.call(ctx, OperationPurchase, http.MethodPost, c.config.PurchaseURL(), payload, "Bearer "+accessToken, func(body []byte) error {
		if len(bytes.TrimSpace(body)) == 0 {
			return &domain.DecodeError{Operation: OperationPurchase, Reason: "empty response body"}
		}
		var resp purchaseResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return &domain.DecodeError{Operation: OperationPurchase, Reason: "invalid purchase JSON", Err: err}
		}
		result = resp.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// call performs one round trip, decodes a 2xx body with decode and records metrics
func (c *Client) call(ctx context.Context, operation, method, url string, payload []byte, authorization string, decode func([]byte) error) error {
	start := time.Now()
	err := c.roundTrip(ctx, operation, method, url, payload, authorization, decode)
	duration := time.Since(start)

	outcome := callOutcome(err)
	observability.RecordCarrierCall(operation, outcome, duration.Seconds())

	if c.logger != nil {
		fields := []adapterports.Field{
			adapterports.String("operation", operation),
			adapterports.String("outcome", outcome),
			adapterports.Duration("duration", duration),
		}
		if err != nil {
			c.logger.Warn("carrier call failed", append(fields, adapterports.Err(err))...)
		} else {
			c.logger.Debug("carrier call completed", fields...)
		}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, operation, method, url string, payload []byte, authorization string, decode func([]byte) error) error {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", authorization)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &domain.UpstreamError{Operation: operation, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &domain.UpstreamError{Operation: operation, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return &domain.UpstreamError{
			Operation:  operation,
			StatusCode: httpResp.StatusCode,
			Body:       truncate(string(respBody), maxErrorBody),
		}
	}

	return decode(respBody)
}

func callOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if upstream, ok := domain.AsUpstreamError(err); ok {
		return string(upstream.Kind())
	}
	if domain.IsDecodeError(err) {
		return "decode"
	}
	return "error"
}

// ValidateMsisdn requires exactly 10 ASCII digits
func ValidateMsisdn(msisdn string) error {
	if len(msisdn) != 10 {
		return domain.NewValidationError("msisdn", "msisdn must be exactly 10 digits")
	}
	for i := 0; i < len(msisdn); i++ {
		if msisdn[i] < '0' || msisdn[i] > '9' {
			return domain.NewValidationError("msisdn", "msisdn must be numeric")
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
