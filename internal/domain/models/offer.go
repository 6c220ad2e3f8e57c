package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Offer is a purchasable recharge product. Reference data, read-only to the gateway.
type Offer struct {
	ID             uuid.UUID
	CommercialName string
	OfferCode      string
	Price          decimal.Decimal
	IsActive       bool
	MvnoID         *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// Mvno groups offers under a carrier business entity
type Mvno struct {
	ID   uuid.UUID
	BeID string
}

// OfferSummary is what the offers-by-BE listing exposes
type OfferSummary struct {
	CommercialName string          `json:"commercialName"`
	OfferCode      string          `json:"idOffer"`
	Price          decimal.Decimal `json:"price"`
	MvnoID         *uuid.UUID      `json:"mvnoId"`
}
