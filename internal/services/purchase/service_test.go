package purchase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/domain"
	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/internal/testutil/mocks"
	"github.com/kevin07696/recharge-gateway/pkg/resilience"
)

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

type harness struct {
	catalog *mocks.MockOfferCatalog
	gateway *mocks.MockCarrierGateway
	tokens  *mocks.MockTokenProvider
	ledger  *mocks.MockTransactionLedger
	svc     *Service
}

func newHarness() *harness {
	h := &harness{
		catalog: new(mocks.MockOfferCatalog),
		gateway: new(mocks.MockCarrierGateway),
		tokens:  new(mocks.MockTokenProvider),
		ledger:  new(mocks.MockTransactionLedger),
	}
	h.svc = NewService(h.catalog, h.gateway, h.tokens, h.ledger, zap.NewNop(),
		WithClock(func() time.Time { return fixedNow }),
	)
	return h
}

func validRequest() *models.PurchaseRequest {
	return &models.PurchaseRequest{
		Msisdn:        "5512345678",
		Offerings:     []string{"OFF100"},
		IDPoS:         "POS1",
		ChannelOfSale: "retailer",
		PipeOfSale:    "gateway_recarga",
	}
}

func (h *harness) expectToken(token string) {
	h.tokens.On("GetToken", mock.Anything).Return(&models.Token{AccessToken: token, ExpiresIn: "3600"}, nil)
}

func (h *harness) expectLedgerOK() {
	h.ledger.On("Append", mock.Anything, mock.Anything).Return(models.AppendResult{ID: 1}, nil)
}

func TestPurchase_Success(t *testing.T) {
	h := newHarness()
	h.catalog.On("FindActivePrice", mock.Anything, "OFF100").Return(decimal.RequireFromString("100.00"), true, nil)
	h.expectToken("T1")
	h.gateway.On("LookupMsisdn", mock.Anything, "5512345678", "T1").Return(&models.AccountInfo{BeID: "BE01"}, nil)
	h.gateway.On("Purchase", mock.Anything, mock.MatchedBy(func(r *models.PurchaseRequest) bool {
		return r.ChannelOfSale == "RETAILER" && r.PipeOfSale == "GATEWAY_RECARGA" && r.Msisdn == "5512345678"
	}), "T1").Return(&models.PurchaseResult{
		Msisdn:        "5512345678",
		EffectiveDate: "20250314103000",
		Order:         &models.OrderInfo{ID: "ORD-1"},
	}, nil)
	h.expectLedgerOK()

	out := h.svc.Purchase(context.Background(), validRequest(), "")

	require.NoError(t, out.Err)
	assert.Equal(t, models.ResultSuccess, out.Result)
	assert.Equal(t, http.StatusOK, out.StatusCode())
	assert.Empty(t, out.ErrorTag())
	assert.Equal(t, int64(1), out.Ledger.ID)

	row := h.ledger.Last()
	require.NotNil(t, row)
	assert.Equal(t, "100.00", row.Amount.StringFixed(2))
	assert.Equal(t, "BE01", row.BE)
	assert.Equal(t, "OFF100", row.OfferID)
	assert.Equal(t, "RETAILER", row.Channel)
	assert.Equal(t, "GATEWAY_RECARGA", row.Medium)
	assert.Equal(t, "POS1", row.PosID)
	assert.Equal(t, "ORD-1", row.OrderID)
	assert.Equal(t, models.ResultSuccess, row.Result)
	require.NotNil(t, row.CarrierEnd)
	require.NotNil(t, row.SaleEnd)
	assert.Equal(t, fixedNow, row.SaleStart)

	h.gateway.AssertExpectations(t)
	h.ledger.AssertNumberOfCalls(t, "Append", 1)
}

func TestPurchase_CarrierUnauthorized(t *testing.T) {
	h := newHarness()
	h.catalog.On("FindActivePrice", mock.Anything, "OFF100").Return(decimal.RequireFromString("100.00"), true, nil)
	h.expectToken("T1")
	h.gateway.On("LookupMsisdn", mock.Anything, mock.Anything, mock.Anything).Return(&models.AccountInfo{BeID: "BE01"}, nil)
	h.gateway.On("Purchase", mock.Anything, mock.Anything, "T1").
		Return(nil, &domain.UpstreamError{Operation: "purchase", StatusCode: http.StatusUnauthorized})
	h.expectLedgerOK()

	out := h.svc.Purchase(context.Background(), validRequest(), "")

	assert.Equal(t, models.ResultUnauthorized, out.Result)
	assert.Equal(t, http.StatusUnauthorized, out.StatusCode())
	assert.Equal(t, TagUnauthorized, out.ErrorTag())

	row := h.ledger.Last()
	require.NotNil(t, row)
	assert.Equal(t, models.ResultUnauthorized, row.Result)
	assert.Equal(t, models.NotAvailable, row.OrderID)
	assert.Equal(t, "100.00", row.Amount.StringFixed(2))
	assert.NotNil(t, row.CarrierEnd)
}

func TestPurchase_UnknownOfferRecordsZeroAmount(t *testing.T) {
	h := newHarness()
	h.catalog.On("FindActivePrice", mock.Anything, "OFF100").Return(decimal.Zero, false, nil)
	h.expectToken("T1")
	h.gateway.On("LookupMsisdn", mock.Anything, mock.Anything, mock.Anything).Return(&models.AccountInfo{BeID: "BE01"}, nil)
	h.gateway.On("Purchase", mock.Anything, mock.Anything, "T1").
		Return(&models.PurchaseResult{Order: &models.OrderInfo{ID: "ORD-2"}}, nil)
	h.expectLedgerOK()

	out := h.svc.Purchase(context.Background(), validRequest(), "")

	assert.Equal(t, models.ResultSuccess, out.Result)
	row := h.ledger.Last()
	require.NotNil(t, row)
	assert.Equal(t, "0.00", row.Amount.StringFixed(2))
	assert.Equal(t, "ORD-2", row.OrderID)
}

func TestPurchase_NormalizesChannelAndPipe(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		pipe    string
	}{
		{name: "unknown values", channel: "foo", pipe: "bar"},
		{name: "empty values", channel: "", pipe: ""},
		{name: "lower case", channel: "retailer", pipe: "gateway_recarga"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.catalog.On("FindActivePrice", mock.Anything, mock.Anything).Return(decimal.Zero, false, nil)
			h.expectToken("T1")
			h.gateway.On("LookupMsisdn", mock.Anything, mock.Anything, mock.Anything).Return(&models.AccountInfo{}, nil)

			var sent *models.PurchaseRequest
			h.gateway.On("Purchase", mock.Anything, mock.Anything, "T1").
				Run(func(args mock.Arguments) { sent = args.Get(1).(*models.PurchaseRequest) }).
				Return(&models.PurchaseResult{Order: &models.OrderInfo{ID: "ORD"}}, nil)
			h.expectLedgerOK()

			req := validRequest()
			req.ChannelOfSale = tt.channel
			req.PipeOfSale = tt.pipe

			h.svc.Purchase(context.Background(), req, "")

			require.NotNil(t, sent)
			assert.Equal(t, "RETAILER", sent.ChannelOfSale)
			assert.Equal(t, "GATEWAY_RECARGA", sent.PipeOfSale)
			assert.Equal(t, "RETAILER", h.ledger.Last().Channel)
			assert.Equal(t, "GATEWAY_RECARGA", h.ledger.Last().Medium)
		})
	}
}

func TestPurchase_ValidationFailureIsRecorded(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.PurchaseRequest)
		field  string
	}{
		{name: "short msisdn", mutate: func(r *models.PurchaseRequest) { r.Msisdn = "12345" }, field: "msisdn"},
		{name: "non numeric msisdn", mutate: func(r *models.PurchaseRequest) { r.Msisdn = "55123abc78" }, field: "msisdn"},
		{name: "no offerings", mutate: func(r *models.PurchaseRequest) { r.Offerings = nil }, field: "offerings"},
		{name: "long point of sale", mutate: func(r *models.PurchaseRequest) { r.IDPoS = "0123456789ABCDEF" }, field: "idPoS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.ledger.On("Append", mock.Anything, mock.Anything).Return(models.AppendResult{Skipped: true, Reason: "offer_id is empty"}, nil)

			req := validRequest()
			tt.mutate(req)

			out := h.svc.Purchase(context.Background(), req, "")

			assert.Equal(t, models.ResultValidationError, out.Result)
			assert.Equal(t, http.StatusBadRequest, out.StatusCode())
			assert.Equal(t, TagValidation, out.ErrorTag())
			assert.Equal(t, validationMessage, out.Message())
			require.NotEmpty(t, out.Details)
			assert.Contains(t, out.Details[0], tt.field)

			row := h.ledger.Last()
			require.NotNil(t, row)
			assert.Equal(t, models.ResultValidationError, row.Result)
			assert.Equal(t, models.NotAvailable, row.OrderID)

			h.gateway.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything, mock.Anything)
			h.tokens.AssertNotCalled(t, "GetToken", mock.Anything)
		})
	}
}

func TestPurchase_EnrichmentFailureDoesNotChangeResult(t *testing.T) {
	h := newHarness()
	h.catalog.On("FindActivePrice", mock.Anything, "OFF100").Return(decimal.RequireFromString("50.00"), true, nil)
	h.expectToken("T1")
	h.gateway.On("LookupMsisdn", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &domain.UpstreamError{Operation: "msisdn_lookup", StatusCode: http.StatusInternalServerError})
	h.gateway.On("Purchase", mock.Anything, mock.Anything, "T1").
		Return(&models.PurchaseResult{Order: &models.OrderInfo{ID: "ORD-3"}}, nil)
	h.expectLedgerOK()

	out := h.svc.Purchase(context.Background(), validRequest(), "")

	assert.Equal(t, models.ResultSuccess, out.Result)
	assert.Equal(t, models.NotAvailable, h.ledger.Last().BE)
}

func TestPurchase_ExplicitTokenIsUsedForPurchase(t *testing.T) {
	h := newHarness()
	h.catalog.On("FindActivePrice", mock.Anything, "OFF100").Return(decimal.RequireFromString("100.00"), true, nil)
	h.expectToken("CACHED")
	h.gateway.On("LookupMsisdn", mock.Anything, mock.Anything, "CACHED").Return(&models.AccountInfo{BeID: "BE01"}, nil)
	h.gateway.On("Purchase", mock.Anything, mock.Anything, "CALLER").
		Return(&models.PurchaseResult{Order: &models.OrderInfo{ID: "ORD-4"}}, nil)
	h.expectLedgerOK()

	out := h.svc.Purchase(context.Background(), validRequest(), "  CALLER ")

	assert.Equal(t, models.ResultSuccess, out.Result)
	h.gateway.AssertCalled(t, "Purchase", mock.Anything, mock.Anything, "CALLER")
	// only the enrichment lookup used the cache
	h.tokens.AssertNumberOfCalls(t, "GetToken", 1)
}

func TestPurchase_LedgerFailureIsSwallowed(t *testing.T) {
	h := newHarness()
	h.catalog.On("FindActivePrice", mock.Anything, "OFF100").Return(decimal.RequireFromString("100.00"), true, nil)
	h.expectToken("T1")
	h.gateway.On("LookupMsisdn", mock.Anything, mock.Anything, mock.Anything).Return(&models.AccountInfo{BeID: "BE01"}, nil)
	h.gateway.On("Purchase", mock.Anything, mock.Anything, "T1").
		Return(&models.PurchaseResult{Order: &models.OrderInfo{ID: "ORD-5"}}, nil)
	h.ledger.On("Append", mock.Anything, mock.Anything).
		Return(models.AppendResult{}, &domain.PersistenceError{Operation: "append", Err: errors.New("connection refused")})

	out := h.svc.Purchase(context.Background(), validRequest(), "")

	assert.Equal(t, models.ResultSuccess, out.Result)
	assert.NoError(t, out.Err)
	assert.Error(t, out.LedgerErr)
	assert.Equal(t, "ORD-5", out.Purchase.OrderID())
}

func TestPurchase_CatalogFailureIsServerError(t *testing.T) {
	h := newHarness()
	h.catalog.On("FindActivePrice", mock.Anything, "OFF100").Return(decimal.Zero, false, errors.New("db down"))
	h.expectLedgerOK()

	out := h.svc.Purchase(context.Background(), validRequest(), "")

	assert.Equal(t, models.ResultServerError, out.Result)
	assert.Equal(t, TagServerError, out.ErrorTag())
	assert.Equal(t, genericMessage, out.Message())
	assert.Equal(t, models.ResultServerError, h.ledger.Last().Result)
	assert.Equal(t, fixedNow, h.ledger.Last().CarrierStart)
	h.gateway.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_TokenFailureIsClassified(t *testing.T) {
	h := newHarness()
	h.catalog.On("FindActivePrice", mock.Anything, "OFF100").Return(decimal.RequireFromString("100.00"), true, nil)
	h.tokens.On("GetToken", mock.Anything).Return(nil, &domain.ConfigError{Setting: "CARRIER_CONSUMER_KEY", Message: "not set"})
	h.expectLedgerOK()

	out := h.svc.Purchase(context.Background(), validRequest(), "")

	assert.Equal(t, models.ResultServerError, out.Result)
	row := h.ledger.Last()
	assert.Equal(t, models.NotAvailable, row.BE)
	assert.Equal(t, models.NotAvailable, row.OrderID)
	h.gateway.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_MissingPointOfSaleDefaultsToNotAvailable(t *testing.T) {
	h := newHarness()
	h.catalog.On("FindActivePrice", mock.Anything, "OFF100").Return(decimal.RequireFromString("100.00"), true, nil)
	h.expectToken("T1")
	h.gateway.On("LookupMsisdn", mock.Anything, mock.Anything, mock.Anything).Return(&models.AccountInfo{BeID: "BE01"}, nil)
	h.gateway.On("Purchase", mock.Anything, mock.Anything, "T1").Return(&models.PurchaseResult{}, nil)
	h.expectLedgerOK()

	req := validRequest()
	req.IDPoS = ""
	out := h.svc.Purchase(context.Background(), req, "")

	assert.Equal(t, models.ResultSuccess, out.Result)
	assert.Equal(t, models.NotAvailable, h.ledger.Last().PosID)
	// success without an order id still records N/A
	assert.Equal(t, models.NotAvailable, h.ledger.Last().OrderID)
}

func TestPurchase_SlowLookupIsCutAtEnrichmentBudget(t *testing.T) {
	h := newHarness()
	h.svc = NewService(h.catalog, h.gateway, h.tokens, h.ledger, zap.NewNop(),
		WithClock(func() time.Time { return fixedNow }),
		WithTimeouts(&resilience.TimeoutConfig{
			CarrierCall: time.Second,
			Enrichment:  20 * time.Millisecond,
		}),
	)

	var tokenDeadlines []bool
	h.tokens.On("GetToken", mock.Anything).
		Run(func(args mock.Arguments) {
			_, ok := args.Get(0).(context.Context).Deadline()
			tokenDeadlines = append(tokenDeadlines, ok)
		}).
		Return(&models.Token{AccessToken: "T1", ExpiresIn: "3600"}, nil)

	var lookupDeadline time.Time
	h.gateway.On("LookupMsisdn", mock.Anything, "5512345678", "T1").
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			lookupDeadline, _ = ctx.Deadline()
			<-ctx.Done()
		}).
		Return(nil, context.DeadlineExceeded)
	h.catalog.On("FindActivePrice", mock.Anything, "OFF100").Return(decimal.RequireFromString("100.00"), true, nil)
	h.gateway.On("Purchase", mock.Anything, mock.Anything, "T1").
		Return(&models.PurchaseResult{Msisdn: "5512345678", Order: &models.OrderInfo{ID: "ORD-9"}}, nil)
	h.expectLedgerOK()

	start := time.Now()
	out := h.svc.Purchase(context.Background(), validRequest(), "")
	elapsed := time.Since(start)

	require.NoError(t, out.Err)
	assert.Equal(t, models.ResultSuccess, out.Result)
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.WithinDuration(t, start.Add(20*time.Millisecond), lookupDeadline, 100*time.Millisecond)
	require.NotEmpty(t, tokenDeadlines)
	assert.True(t, tokenDeadlines[0], "enrichment token fetch runs under the enrichment deadline")

	row := h.ledger.Last()
	require.NotNil(t, row)
	assert.Equal(t, models.NotAvailable, row.BE)
	assert.Equal(t, "ORD-9", row.OrderID)
}
