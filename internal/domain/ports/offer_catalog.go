package ports

import (
	"context"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/shopspring/decimal"
)

// OfferCatalog is a read-only view of the offer reference data
type OfferCatalog interface {
	// FindActivePrice returns the price of the active offer with the given code.
	// found is false (and err nil) when no active offer matches.
	FindActivePrice(ctx context.Context, offerCode string) (price decimal.Decimal, found bool, err error)

	// ListActiveByBeID lists active offers whose MVNO belongs to the business entity
	ListActiveByBeID(ctx context.Context, beID string) ([]models.OfferSummary, error)
}
