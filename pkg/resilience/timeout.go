package resilience

import (
	"context"
	"time"
)

// TimeoutConfig is the gateway's timeout hierarchy, outermost first:
//
//	purchase request  (PurchaseBudget)
//	  carrier call    (token fetch, purchase)
//	  enrichment      (token + MSISDN lookup, best-effort)
//	report attempt    (one generate-and-deliver run)
type TimeoutConfig struct {
	CarrierCall   time.Duration
	Enrichment    time.Duration
	ReportAttempt time.Duration
}

// ledgerSlack covers the ledger write and response encoding after the last carrier call
const ledgerSlack = 15 * time.Second

func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		CarrierCall:   30 * time.Second,
		Enrichment:    10 * time.Second,
		ReportAttempt: 5 * time.Minute,
	}
}

// PurchaseBudget is the longest a purchase request can legitimately run:
// enrichment, then a token fetch and the purchase call in sequence.
func (tc *TimeoutConfig) PurchaseBudget() time.Duration {
	return tc.Enrichment + 2*tc.CarrierCall + ledgerSlack
}

// WriteTimeout is the server-wide response deadline. It has to fit the slowest
// route: a purchase, or a manual all-rows report returned inline.
func (tc *TimeoutConfig) WriteTimeout() time.Duration {
	return max(tc.PurchaseBudget(), tc.ReportAttempt)
}

// EnrichmentContext bounds the best-effort MSISDN lookup
func (tc *TimeoutConfig) EnrichmentContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Enrichment)
}

// ReportAttemptContext bounds one report attempt. A zero budget leaves parent unbounded.
func (tc *TimeoutConfig) ReportAttemptContext(parent context.Context) (context.Context, context.CancelFunc) {
	if tc.ReportAttempt <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, tc.ReportAttempt)
}
