package carrier

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
)

// flexString decodes a JSON string, number, array of strings or null into a string.
// The carrier is not consistent about expiresIn and scopes.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case data[0] == '[':
		var parts []string
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*f = flexString(strings.Join(parts, " "))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
	}
	return nil
}

// tokenResponse is the OAuth envelope. Older gateway versions misspell the token field.
type tokenResponse struct {
	AccessToken       string     `json:"accessToken"`
	LegacyAccessToken string     `json:"accesToken"`
	ClientID          string     `json:"clientId"`
	TokenType         string     `json:"tokenType"`
	IssuedAt          flexString `json:"issuedAt"`
	ExpiresIn         flexString `json:"expiresIn"`
	Status            string     `json:"status"`
	Scopes            flexString `json:"scopes"`
}

func (r *tokenResponse) toModel() *models.Token {
	token := r.AccessToken
	if token == "" {
		token = r.LegacyAccessToken
	}
	return &models.Token{
		AccessToken: token,
		ClientID:    r.ClientID,
		TokenType:   r.TokenType,
		IssuedAt:    string(r.IssuedAt),
		ExpiresIn:   string(r.ExpiresIn),
		Status:      r.Status,
		Scopes:      string(r.Scopes),
	}
}

type profileResponse struct {
	ResponseMsisdn struct {
		Information *struct {
			BeID    string `json:"beId"`
			Product string `json:"product"`
			IDA     string `json:"ida"`
		} `json:"information"`
	} `json:"responseMsisdn"`
}

func (r *profileResponse) toModel() *models.AccountInfo {
	info := r.ResponseMsisdn.Information
	if info == nil {
		return &models.AccountInfo{}
	}
	return &models.AccountInfo{
		BeID:        info.BeID,
		ProductType: info.Product,
		AccountID:   info.IDA,
	}
}

// purchaseResponse accepts both the nested order object and a flat orderId
type purchaseResponse struct {
	Msisdn        string            `json:"msisdn"`
	EffectiveDate string            `json:"effectiveDate"`
	Offerings     []string          `json:"offerings"`
	Order         *models.OrderInfo `json:"order"`
	OrderID       string            `json:"orderId"`
}

func (r *purchaseResponse) toModel() *models.PurchaseResult {
	order := r.Order
	if (order == nil || order.ID == "") && r.OrderID != "" {
		order = &models.OrderInfo{ID: r.OrderID}
	}
	return &models.PurchaseResult{
		Msisdn:        r.Msisdn,
		EffectiveDate: r.EffectiveDate,
		Offerings:     r.Offerings,
		Order:         order,
	}
}
