package report

import (
	"bytes"
	"strings"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/pkg/timeutil"
)

const (
	fieldSeparator = "|"
	lineTerminator = "\n"

	// FieldCount is the number of fields on every report line
	FieldCount = 20
)

// FormatLine renders one ledger row in the settlement layout:
//
//	saleStart|carrierStart|carrierEnd|saleEnd|be|msisdn|amount|offerId|channel|medium|
//	posId|orderId|result|reversalApplies|reversalStart|reversalCarrierStart|
//	reversalCarrierEnd|reversalEnd|reversalOrderId|reversalResult
func FormatLine(tx *models.RechargeTransaction) string {
	rev := tx.Reversal
	fields := [FieldCount]string{
		timeutil.FormatCompact(tx.SaleStart),
		timeutil.FormatCompact(tx.CarrierStart),
		timeutil.FormatCompactPtr(tx.CarrierEnd),
		timeutil.FormatCompactPtr(tx.SaleEnd),
		tx.BE,
		tx.Msisdn,
		tx.Amount.StringFixed(2),
		tx.OfferID,
		tx.Channel,
		tx.Medium,
		tx.PosID,
		tx.OrderID,
		string(tx.Result),
		formatApplies(rev.Applies),
		timeutil.FormatCompactPtr(rev.Start),
		timeutil.FormatCompactPtr(rev.CarrierStart),
		timeutil.FormatCompactPtr(rev.CarrierEnd),
		timeutil.FormatCompactPtr(rev.End),
		deref(rev.OrderID),
		formatReversalResult(rev.Result),
	}
	return strings.Join(fields[:], fieldSeparator)
}

// Render renders rows in order, one terminated line each. No rows yields no bytes.
func Render(rows []*models.RechargeTransaction) []byte {
	var buf bytes.Buffer
	for _, tx := range rows {
		buf.WriteString(FormatLine(tx))
		buf.WriteString(lineTerminator)
	}
	return buf.Bytes()
}

func formatApplies(applies *bool) string {
	switch {
	case applies == nil:
		return ""
	case *applies:
		return "SI"
	default:
		return "NO"
	}
}

func formatReversalResult(result *string) string {
	if result == nil || strings.TrimSpace(*result) == "" {
		return ""
	}
	return strings.ToUpper(*result)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
