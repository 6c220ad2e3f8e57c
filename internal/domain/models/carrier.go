package models

import (
	"strconv"
	"strings"
	"time"
)

// Token is the carrier OAuth envelope
type Token struct {
	AccessToken string `json:"accessToken"`
	ClientID    string `json:"clientId,omitempty"`
	TokenType   string `json:"tokenType,omitempty"`
	IssuedAt    string `json:"issuedAt,omitempty"`
	ExpiresIn   string `json:"expiresIn,omitempty"` // seconds, as sent by the carrier
	Status      string `json:"status,omitempty"`
	Scopes      string `json:"scopes,omitempty"`
}

// ExpiresInSeconds parses ExpiresIn, returning 0 when it is absent or malformed
func (t Token) ExpiresInSeconds() int {
	seconds, err := strconv.Atoi(strings.TrimSpace(t.ExpiresIn))
	if err != nil {
		return 0
	}
	return seconds
}

// AccountInfo is the subset of the MSISDN profile the gateway uses
type AccountInfo struct {
	BeID        string
	ProductType string
	AccountID   string
}

// PurchaseRequest is the body accepted from the sales channel and forwarded to the carrier.
// Field names on the wire are fixed by the carrier contract.
type PurchaseRequest struct {
	Msisdn        string   `json:"msisdn" validate:"required,len=10,number"`
	Offerings     []string `json:"offerings" validate:"required,min=1"`
	IDPoS         string   `json:"idPoS" validate:"max=15"`
	ChannelOfSale string   `json:"channelOfSale"`
	PipeOfSale    string   `json:"pipeOfSale"`
}

// FirstOffering returns offerings[0] or an empty string.
// Only the first offering is priced and recorded.
func (r PurchaseRequest) FirstOffering() string {
	if len(r.Offerings) == 0 {
		return ""
	}
	return r.Offerings[0]
}

// OrderInfo identifies the carrier order
type OrderInfo struct {
	ID string `json:"id"`
}

// PurchaseResult is the carrier's purchase confirmation
type PurchaseResult struct {
	Msisdn        string     `json:"msisdn,omitempty"`
	EffectiveDate string     `json:"effectiveDate,omitempty"`
	Offerings     []string   `json:"offerings,omitempty"`
	Order         *OrderInfo `json:"order,omitempty"`
}

// OrderID returns the carrier order id or an empty string
func (r *PurchaseResult) OrderID() string {
	if r == nil || r.Order == nil {
		return ""
	}
	return r.Order.ID
}

// CachedToken is a token together with the instant the cache stops handing it out
type CachedToken struct {
	Token     Token     `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
