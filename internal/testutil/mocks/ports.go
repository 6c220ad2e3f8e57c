// Package mocks provides shared testify mocks of the domain ports.
package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/internal/domain/ports"
)

var (
	_ ports.CarrierGateway    = (*MockCarrierGateway)(nil)
	_ ports.TokenProvider     = (*MockTokenProvider)(nil)
	_ ports.OfferCatalog      = (*MockOfferCatalog)(nil)
	_ ports.TransactionLedger = (*MockTransactionLedger)(nil)
)

// MockCarrierGateway mocks ports.CarrierGateway
type MockCarrierGateway struct {
	mock.Mock
}

func (m *MockCarrierGateway) FetchToken(ctx context.Context) (*models.Token, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Token), args.Error(1)
}

func (m *MockCarrierGateway) LookupMsisdn(ctx context.Context, msisdn, accessToken string) (*models.AccountInfo, error) {
	args := m.Called(ctx, msisdn, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountInfo), args.Error(1)
}

func (m *MockCarrierGateway) Purchase(ctx context.Context, req *models.PurchaseRequest, accessToken string) (*models.PurchaseResult, error) {
	args := m.Called(ctx, req, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseResult), args.Error(1)
}

// MockTokenProvider mocks ports.TokenProvider
type MockTokenProvider struct {
	mock.Mock
}

func (m *MockTokenProvider) GetToken(ctx context.Context) (*models.Token, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Token), args.Error(1)
}

// MockOfferCatalog mocks ports.OfferCatalog
type MockOfferCatalog struct {
	mock.Mock
}

func (m *MockOfferCatalog) FindActivePrice(ctx context.Context, offerCode string) (decimal.Decimal, bool, error) {
	args := m.Called(ctx, offerCode)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}

func (m *MockOfferCatalog) ListActiveByBeID(ctx context.Context, beID string) ([]models.OfferSummary, error) {
	args := m.Called(ctx, beID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OfferSummary), args.Error(1)
}

// MockTransactionLedger mocks ports.TransactionLedger.
// Appended rows are also kept in Rows for assertions.
type MockTransactionLedger struct {
	mock.Mock
	Rows []*models.RechargeTransaction
}

func (m *MockTransactionLedger) Append(ctx context.Context, row *models.RechargeTransaction) (models.AppendResult, error) {
	m.Rows = append(m.Rows, row)
	args := m.Called(ctx, row)
	return args.Get(0).(models.AppendResult), args.Error(1)
}

func (m *MockTransactionLedger) QueryByDateRange(ctx context.Context, start, end time.Time) ([]*models.RechargeTransaction, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RechargeTransaction), args.Error(1)
}

func (m *MockTransactionLedger) QueryAll(ctx context.Context) ([]*models.RechargeTransaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RechargeTransaction), args.Error(1)
}

// Last returns the most recently appended row, nil when none
func (m *MockTransactionLedger) Last() *models.RechargeTransaction {
	if len(m.Rows) == 0 {
		return nil
	}
	return m.Rows[len(m.Rows)-1]
}
