package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/kevin07696/recharge-gateway/internal/adapters/database"
	"github.com/kevin07696/recharge-gateway/internal/domain"
	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/internal/domain/ports"
)

const findActivePriceSQL = `
SELECT price
FROM offers
WHERE offer_code = $1 AND is_active
ORDER BY created_at DESC
LIMIT 1`

const listActiveByBeIDSQL = `
SELECT o.commercial_name, o.offer_code, o.price, o.mvno_id
FROM offers o
JOIN mvnos m ON m.id = o.mvno_id
WHERE m.be_id = $1 AND o.is_active
ORDER BY o.commercial_name, o.offer_code`

// OfferRepository implements ports.OfferCatalog on PostgreSQL
type OfferRepository struct {
	db       ports.DBTX
	timeouts database.QueryTimeouts
}

// NewOfferRepository creates a new offer repository. timeouts may be nil.
func NewOfferRepository(db ports.DBTX, timeouts database.QueryTimeouts) *OfferRepository {
	return &OfferRepository{db: db, timeouts: timeouts}
}

// FindActivePrice implements ports.OfferCatalog
func (r *OfferRepository) FindActivePrice(ctx context.Context, offerCode string) (decimal.Decimal, bool, error) {
	if strings.TrimSpace(offerCode) == "" {
		return decimal.Zero, false, nil
	}

	if r.timeouts != nil {
		var cancel context.CancelFunc
		ctx, cancel = r.timeouts.SimpleQueryContext(ctx)
		defer cancel()
	}

	var price pgtype.Numeric
	err := r.db.QueryRow(ctx, findActivePriceSQL, offerCode).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("find active offer price: %w", err)
	}

	amount, err := pgNumericToDecimal(price)
	if err != nil {
		return decimal.Zero, false, err
	}
	return amount, true, nil
}

// ListActiveByBeID implements ports.OfferCatalog. An empty result is not an error.
func (r *OfferRepository) ListActiveByBeID(ctx context.Context, beID string) ([]models.OfferSummary, error) {
	if strings.TrimSpace(beID) == "" {
		return nil, domain.NewValidationError("beId", "beId is required")
	}

	if r.timeouts != nil {
		var cancel context.CancelFunc
		ctx, cancel = r.timeouts.ComplexQueryContext(ctx)
		defer cancel()
	}

	rows, err := r.db.Query(ctx, listActiveByBeIDSQL, beID)
	if err != nil {
		return nil, fmt.Errorf("list offers by be: %w", err)
	}
	defer rows.Close()

	offers := []models.OfferSummary{}
	for rows.Next() {
		var (
			offer  models.OfferSummary
			price  pgtype.Numeric
			mvnoID pgtype.UUID
		)
		if err := rows.Scan(&offer.CommercialName, &offer.OfferCode, &price, &mvnoID); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		if offer.Price, err = pgNumericToDecimal(price); err != nil {
			return nil, fmt.Errorf("convert price: %w", err)
		}
		offer.MvnoID = uuidPtr(mvnoID)
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offers: %w", err)
	}

	return offers, nil
}
