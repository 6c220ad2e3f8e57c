package ports

import (
	"context"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
)

// CarrierGateway is the typed client for the carrier API
type CarrierGateway interface {
	FetchToken(ctx context.Context) (*models.Token, error)
	LookupMsisdn(ctx context.Context, msisdn, accessToken string) (*models.AccountInfo, error)
	Purchase(ctx context.Context, req *models.PurchaseRequest, accessToken string) (*models.PurchaseResult, error)
}

// TokenProvider hands out a valid carrier access token, fetching one when needed
type TokenProvider interface {
	GetToken(ctx context.Context) (*models.Token, error)
}

// TokenStore holds cached tokens keyed by credential identity.
// A miss is (nil, false, nil).
type TokenStore interface {
	Get(ctx context.Context, key string) (*models.CachedToken, bool, error)
	Set(ctx context.Context, key string, entry *models.CachedToken) error
}
