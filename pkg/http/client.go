package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// PoolConfig tunes the transport used for outbound carrier calls.
type PoolConfig struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration

	DialTimeout           time.Duration
	KeepAlive             time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	MinTLSVersion uint16
}

// CarrierClientConfig returns the pool tuned for the carrier API.
// Token, lookup and purchase all go to one host, so the per-host limits equal the totals.
func CarrierClientConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 50,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,

		DialTimeout:         10 * time.Second,
		KeepAlive:           60 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		// Purchase calls can take most of the per-call budget
		ResponseHeaderTimeout: 30 * time.Second,

		MinTLSVersion: tls.VersionTLS12,
	}
}

// NewHTTPClient builds a keep-alive client over cfg. timeout bounds the whole
// exchange; callers still pass a context deadline per request.
func NewHTTPClient(cfg *PoolConfig, timeout time.Duration) *http.Client {
	if cfg == nil {
		cfg = CarrierClientConfig()
	}
	// header wait never outlives the overall budget
	headerTimeout := cfg.ResponseHeaderTimeout
	if timeout > 0 && (headerTimeout == 0 || headerTimeout > timeout) {
		headerTimeout = timeout
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: cfg.MinTLSVersion},
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
