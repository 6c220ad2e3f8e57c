package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recharge purchase metrics
	rechargePurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recharge_purchases_total",
		Help: "Total purchase attempts by ledger result",
	}, []string{
		"result",  // EXITOSO, ERROR_VALIDACION, ERROR_401, ...
		"channel", // normalized channel of sale
	})

	rechargeAmountCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recharge_amount_cents_total",
		Help: "Total recharge amount in cents (successful purchases only)",
	}, []string{
		"offer_id",
	})

	rechargeProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "recharge_processing_duration_seconds",
		Help: "Time from sale start to ledger write",
		// Buckets: 100ms to 30s (carrier round trips dominate)
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"result",
	})

	// Carrier API metrics
	carrierCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carrier_calls_total",
		Help: "Carrier API calls by operation and outcome",
	}, []string{
		"operation", // token, msisdn_lookup, purchase
		"outcome",   // ok, unauthorized, bad_request, not_found, server, unavailable, decode
	})

	carrierCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carrier_call_duration_seconds",
		Help:    "Carrier API call latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"operation",
	})

	// Ledger metrics
	ledgerAppendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_appends_total",
		Help: "Ledger append attempts",
	}, []string{
		"status", // written, skipped, failed
	})

	// Daily report metrics
	reportGenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_generations_total",
		Help: "Settlement report generation runs",
	}, []string{
		"mode",   // daily, all
		"status", // success, failed
	})

	reportRowsWritten = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "report_rows_written",
		Help: "Rows written by the most recent report generation",
	})
)

// RecordPurchase records one orchestrated purchase attempt.
// amountCents is only added to revenue when the purchase succeeded.
func RecordPurchase(result, channel, offerID string, amountCents int64, duration float64) {
	rechargePurchasesTotal.WithLabelValues(result, channel).Inc()
	rechargeProcessingDuration.WithLabelValues(result).Observe(duration)

	if result == "EXITOSO" && amountCents > 0 {
		rechargeAmountCents.WithLabelValues(offerID).Add(float64(amountCents))
	}
}

// RecordCarrierCall records a single carrier API call
func RecordCarrierCall(operation, outcome string, duration float64) {
	carrierCallsTotal.WithLabelValues(operation, outcome).Inc()
	carrierCallDuration.WithLabelValues(operation).Observe(duration)
}

// RecordLedgerAppend records the result of a ledger write
func RecordLedgerAppend(status string) {
	ledgerAppendsTotal.WithLabelValues(status).Inc()
}

// RecordReportGeneration records a report run and the number of rows it rendered
func RecordReportGeneration(mode, status string, rows int) {
	reportGenerationsTotal.WithLabelValues(mode, status).Inc()
	if status == "success" {
		reportRowsWritten.Set(float64(rows))
	}
}

var carrierTokenCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "carrier_token_cache_total",
	Help: "Carrier token cache lookups",
}, []string{
	"result", // hit, miss, shared, abandoned, store_error
})

// RecordTokenCache records one token cache lookup
func RecordTokenCache(result string) {
	carrierTokenCacheTotal.WithLabelValues(result).Inc()
}

var (
	dbPoolConns = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "recharge_db_pool_connections",
		Help: "Ledger database pool connections by state",
	}, []string{"state"}) // acquired, idle, max
)

// RecordDBPool publishes a pool snapshot
func RecordDBPool(acquired, idle, max int32) {
	dbPoolConns.WithLabelValues("acquired").Set(float64(acquired))
	dbPoolConns.WithLabelValues("idle").Set(float64(idle))
	dbPoolConns.WithLabelValues("max").Set(float64(max))
}
