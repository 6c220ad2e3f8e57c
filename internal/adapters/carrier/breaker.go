package carrier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	adapterports "github.com/kevin07696/recharge-gateway/internal/adapters/ports"
	"github.com/kevin07696/recharge-gateway/internal/domain"
	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/internal/domain/ports"
)

// BreakerConfig configures the circuit breaker around carrier calls
type BreakerConfig struct {
	// MaxRequests is the number of trial calls allowed while half-open
	MaxRequests uint32
	// Interval clears the closed-state counts; 0 never clears
	Interval time.Duration
	// Timeout is how long the breaker stays open
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig returns sensible defaults
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// BreakerGateway decorates a CarrierGateway with a circuit breaker.
// Only carrier 5xx and transport failures count against the breaker; a 4xx is
// the carrier answering correctly.
type BreakerGateway struct {
	next   ports.CarrierGateway
	cb     *gobreaker.CircuitBreaker
	logger adapterports.Logger
}

// NewBreakerGateway wraps next with a breaker named name
func NewBreakerGateway(name string, next ports.CarrierGateway, cfg BreakerConfig, logger adapterports.Logger) *BreakerGateway {
	g := &BreakerGateway{next: next, logger: logger}

	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = DefaultBreakerConfig().ConsecutiveFailures
	}

	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if g.logger != nil {
				g.logger.Warn("carrier circuit breaker state changed",
					adapterports.String("breaker", name),
					adapterports.String("from", from.String()),
					adapterports.String("to", to.String()),
				)
			}
		},
	})
	return g
}

// State returns the current breaker state
func (g *BreakerGateway) State() gobreaker.State {
	return g.cb.State()
}

// HealthCheck fails while the breaker is open
func (g *BreakerGateway) HealthCheck(ctx context.Context) error {
	if g.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("carrier circuit breaker is %s", gobreaker.StateOpen)
	}
	return nil
}

// FetchToken implements ports.CarrierGateway
func (g *BreakerGateway) FetchToken(ctx context.Context) (*models.Token, error) {
	result, err := g.execute(OperationToken, func() (interface{}, error) {
		return g.next.FetchToken(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Token), nil
}

// LookupMsisdn implements ports.CarrierGateway
func (g *BreakerGateway) LookupMsisdn(ctx context.Context, msisdn, accessToken string) (*models.AccountInfo, error) {
	result, err := g.execute(OperationLookup, func() (interface{}, error) {
		return g.next.LookupMsisdn(ctx, msisdn, accessToken)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.AccountInfo), nil
}

// Purchase implements ports.CarrierGateway
func (g *BreakerGateway) Purchase(ctx context.Context, req *models.PurchaseRequest, accessToken string) (*models.PurchaseResult, error) {
	result, err := g.execute(OperationPurchase, func() (interface{}, error) {
		return g.next.Purchase(ctx, req, accessToken)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.PurchaseResult), nil
}

func (g *BreakerGateway) execute(operation string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := g.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &domain.UpstreamError{Operation: operation, Err: err}
	}
	return result, err
}

// countsAsFailure is true for carrier-side outages only
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	upstream, ok := domain.AsUpstreamError(err)
	if !ok {
		return false
	}
	switch upstream.Kind() {
	case domain.UpstreamServer, domain.UpstreamUnavailable:
		return true
	default:
		return false
	}
}
