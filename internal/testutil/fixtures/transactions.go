package fixtures

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
)

// TransactionBuilder provides fluent API for building ledger rows.
type TransactionBuilder struct {
	row *models.RechargeTransaction
}

// NewTransaction creates a successful recharge row stamped at the given instant.
func NewTransaction(at time.Time) *TransactionBuilder {
	at = at.UTC()
	carrierStart := at.Add(time.Second)
	carrierEnd := at.Add(3 * time.Second)
	saleEnd := at.Add(4 * time.Second)
	return &TransactionBuilder{
		row: &models.RechargeTransaction{
			SaleStart:    at,
			CarrierStart: carrierStart,
			CarrierEnd:   &carrierEnd,
			SaleEnd:      &saleEnd,
			BE:           "BE01",
			Msisdn:       "5512345678",
			Amount:       decimal.RequireFromString("100.00"),
			OfferID:      "OFF100",
			Channel:      "RETAILER",
			Medium:       "GATEWAY_RECARGA",
			PosID:        "POS1",
			OrderID:      "ORD-1",
			Result:       models.ResultSuccess,
			CreatedAt:    at,
		},
	}
}

func (b *TransactionBuilder) WithID(id int64) *TransactionBuilder {
	b.row.ID = id
	return b
}

func (b *TransactionBuilder) WithMsisdn(msisdn string) *TransactionBuilder {
	b.row.Msisdn = msisdn
	return b
}

func (b *TransactionBuilder) WithAmount(amount string) *TransactionBuilder {
	b.row.Amount = decimal.RequireFromString(amount)
	return b
}

func (b *TransactionBuilder) WithOfferID(offerID string) *TransactionBuilder {
	b.row.OfferID = offerID
	return b
}

func (b *TransactionBuilder) WithBE(be string) *TransactionBuilder {
	b.row.BE = be
	return b
}

func (b *TransactionBuilder) WithOrderID(orderID string) *TransactionBuilder {
	b.row.OrderID = orderID
	return b
}

// WithResult sets the result; failed rows carry no order id
func (b *TransactionBuilder) WithResult(result models.TransactionResult) *TransactionBuilder {
	b.row.Result = result
	if result != models.ResultSuccess {
		b.row.OrderID = models.NotAvailable
	}
	return b
}

func (b *TransactionBuilder) WithoutCarrierEnd() *TransactionBuilder {
	b.row.CarrierEnd = nil
	return b
}

// WithReversal fills every reversal field
func (b *TransactionBuilder) WithReversal(applies bool, orderID, result string) *TransactionBuilder {
	start := b.row.CreatedAt.Add(time.Hour)
	end := start.Add(5 * time.Second)
	b.row.Reversal = models.Reversal{
		Applies:      BoolPtr(applies),
		Start:        TimePtr(start),
		CarrierStart: TimePtr(start.Add(time.Second)),
		CarrierEnd:   TimePtr(start.Add(2 * time.Second)),
		End:          TimePtr(end),
		OrderID:      StringPtr(orderID),
		Result:       StringPtr(result),
	}
	return b
}

func (b *TransactionBuilder) Build() *models.RechargeTransaction {
	return b.row
}
