package models

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionResult is the outcome recorded on every ledger row
type TransactionResult string

const (
	ResultSuccess         TransactionResult = "EXITOSO"
	ResultValidationError TransactionResult = "ERROR_VALIDACION"
	ResultUnauthorized    TransactionResult = "ERROR_401"
	ResultBadRequest      TransactionResult = "ERROR_400"
	ResultNotFound        TransactionResult = "ERROR_404"
	ResultServerError     TransactionResult = "ERROR_500"
)

// HTTPStatus mirrors the outcome back to the sales channel
func (r TransactionResult) HTTPStatus() int {
	switch r {
	case ResultSuccess:
		return http.StatusOK
	case ResultValidationError, ResultBadRequest:
		return http.StatusBadRequest
	case ResultUnauthorized:
		return http.StatusUnauthorized
	case ResultNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NotAvailable is stored when a descriptive field could not be resolved
const NotAvailable = "N/A"

// Reversal holds the compensating-transaction fields. They are populated by the
// reversal flow, never by purchase orchestration.
type Reversal struct {
	Applies      *bool
	Start        *time.Time
	CarrierStart *time.Time
	CarrierEnd   *time.Time
	End          *time.Time
	OrderID      *string
	Result       *string
}

// RechargeTransaction is one append-only ledger row
type RechargeTransaction struct {
	ID int64

	// Phase timestamps (UTC)
	SaleStart    time.Time
	CarrierStart time.Time
	CarrierEnd   *time.Time
	SaleEnd      *time.Time

	BE      string
	Msisdn  string
	Amount  decimal.Decimal
	OfferID string
	Channel string
	Medium  string
	PosID   string
	OrderID string
	Result  TransactionResult

	Reversal Reversal

	CreatedAt time.Time
}

// AppendResult reports what happened to a ledger append
type AppendResult struct {
	ID      int64
	Skipped bool
	Reason  string // why the row was skipped, empty otherwise
}
