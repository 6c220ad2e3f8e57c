package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/adapters/database"
	"github.com/kevin07696/recharge-gateway/internal/domain"
	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/internal/domain/ports"
	"github.com/kevin07696/recharge-gateway/pkg/observability"
	"github.com/kevin07696/recharge-gateway/pkg/security"
)

const insertTransactionSQL = `
INSERT INTO recharge_transactions (
    sale_start, carrier_start, carrier_end, sale_end,
    be, msisdn, amount, offer_id, channel, medium, pos_id, order_id, result,
    reversal_applies, reversal_start, reversal_carrier_start, reversal_carrier_end,
    reversal_end, reversal_order_id, reversal_result,
    created_at
) VALUES (
    $1, $2, $3, $4,
    $5, $6, $7, $8, $9, $10, $11, $12, $13,
    $14, $15, $16, $17,
    $18, $19, $20,
    $21
) RETURNING id`

const selectTransactionColumns = `
SELECT id, sale_start, carrier_start, carrier_end, sale_end,
       be, msisdn, amount, offer_id, channel, medium, pos_id, order_id, result,
       reversal_applies, reversal_start, reversal_carrier_start, reversal_carrier_end,
       reversal_end, reversal_order_id, reversal_result,
       created_at
FROM recharge_transactions`

// LedgerRepository implements ports.TransactionLedger on PostgreSQL
type LedgerRepository struct {
	db       ports.DBTX
	timeouts database.QueryTimeouts
	logger   *zap.Logger
	now      func() time.Time
}

// NewLedgerRepository creates a new ledger repository. timeouts may be nil.
func NewLedgerRepository(db ports.DBTX, timeouts database.QueryTimeouts, logger *zap.Logger) *LedgerRepository {
	return &LedgerRepository{
		db:       db,
		timeouts: timeouts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// missingField names the first required column that is blank
func missingField(row *models.RechargeTransaction) string {
	switch {
	case strings.TrimSpace(row.Msisdn) == "":
		return "msisdn"
	case strings.TrimSpace(row.OfferID) == "":
		return "offer_id"
	case strings.TrimSpace(row.Channel) == "":
		return "channel"
	case strings.TrimSpace(row.Medium) == "":
		return "medium"
	}
	return ""
}

// Append implements ports.TransactionLedger
func (r *LedgerRepository) Append(ctx context.Context, row *models.RechargeTransaction) (models.AppendResult, error) {
	if field := missingField(row); field != "" {
		observability.RecordLedgerAppend("skipped")
		r.logger.Warn("Ledger row skipped, required field is empty",
			zap.String("field", field),
			zap.String("msisdn", security.MaskMsisdn(row.Msisdn)),
			zap.String("offer_id", row.OfferID),
			zap.String("result", string(row.Result)),
		)
		return models.AppendResult{Skipped: true, Reason: field + " is empty"}, nil
	}

	if row.CreatedAt.IsZero() {
		row.CreatedAt = r.now()
	}

	amount, err := decimalToNumeric(row.Amount)
	if err != nil {
		observability.RecordLedgerAppend("failed")
		return models.AppendResult{}, &domain.PersistenceError{Operation: "append", Err: err}
	}

	if r.timeouts != nil {
		var cancel context.CancelFunc
		ctx, cancel = r.timeouts.SimpleQueryContext(ctx)
		defer cancel()
	}

	var id int64
	err = r.db.QueryRow(ctx, insertTransactionSQL,
		seconds(row.SaleStart),
		seconds(row.CarrierStart),
		nullTimestamp(row.CarrierEnd),
		nullTimestamp(row.SaleEnd),
		orNotAvailable(row.BE),
		row.Msisdn,
		amount,
		row.OfferID,
		row.Channel,
		row.Medium,
		orNotAvailable(row.PosID),
		orNotAvailable(row.OrderID),
		string(row.Result),
		nullBool(row.Reversal.Applies),
		nullTimestamp(row.Reversal.Start),
		nullTimestamp(row.Reversal.CarrierStart),
		nullTimestamp(row.Reversal.CarrierEnd),
		nullTimestamp(row.Reversal.End),
		nullText(row.Reversal.OrderID),
		nullText(row.Reversal.Result),
		seconds(row.CreatedAt),
	).Scan(&id)
	if err != nil {
		observability.RecordLedgerAppend("failed")
		return models.AppendResult{}, &domain.PersistenceError{Operation: "append", Err: err}
	}

	row.ID = id
	observability.RecordLedgerAppend("written")
	return models.AppendResult{ID: id}, nil
}

// QueryByDateRange implements ports.TransactionLedger
func (r *LedgerRepository) QueryByDateRange(ctx context.Context, start, end time.Time) ([]*models.RechargeTransaction, error) {
	return r.query(ctx, selectTransactionColumns+`
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at, id`, start.UTC(), end.UTC())
}

// QueryAll implements ports.TransactionLedger
func (r *LedgerRepository) QueryAll(ctx context.Context) ([]*models.RechargeTransaction, error) {
	return r.query(ctx, selectTransactionColumns+`
ORDER BY created_at, id`)
}

func (r *LedgerRepository) query(ctx context.Context, sql string, args ...interface{}) ([]*models.RechargeTransaction, error) {
	if r.timeouts != nil {
		var cancel context.CancelFunc
		ctx, cancel = r.timeouts.ReportQueryContext(ctx)
		defer cancel()
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query recharge transactions: %w", err)
	}
	defer rows.Close()

	var result []*models.RechargeTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recharge transactions: %w", err)
	}

	return result, nil
}

func scanTransaction(rows pgx.Rows) (*models.RechargeTransaction, error) {
	var (
		tx                                               models.RechargeTransaction
		saleStart, carrierStart, createdAt               pgtype.Timestamptz
		carrierEnd, saleEnd                              pgtype.Timestamptz
		amount                                           pgtype.Numeric
		result                                           string
		revApplies                                       pgtype.Bool
		revStart, revCarrierStart, revCarrierEnd, revEnd pgtype.Timestamptz
		revOrderID, revResult                            pgtype.Text
	)

	err := rows.Scan(
		&tx.ID, &saleStart, &carrierStart, &carrierEnd, &saleEnd,
		&tx.BE, &tx.Msisdn, &amount, &tx.OfferID, &tx.Channel, &tx.Medium, &tx.PosID, &tx.OrderID, &result,
		&revApplies, &revStart, &revCarrierStart, &revCarrierEnd,
		&revEnd, &revOrderID, &revResult,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan recharge transaction: %w", err)
	}

	tx.Amount, err = pgNumericToDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("convert amount: %w", err)
	}

	tx.SaleStart = saleStart.Time.UTC()
	tx.CarrierStart = carrierStart.Time.UTC()
	tx.CarrierEnd = timePtr(carrierEnd)
	tx.SaleEnd = timePtr(saleEnd)
	tx.CreatedAt = createdAt.Time.UTC()
	tx.Result = models.TransactionResult(result)
	tx.Reversal = models.Reversal{
		Applies:      boolPtr(revApplies),
		Start:        timePtr(revStart),
		CarrierStart: timePtr(revCarrierStart),
		CarrierEnd:   timePtr(revCarrierEnd),
		End:          timePtr(revEnd),
		OrderID:      textPtr(revOrderID),
		Result:       textPtr(revResult),
	}

	return &tx, nil
}

func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.NotAvailable
	}
	return s
}
