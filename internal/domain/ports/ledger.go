package ports

import (
	"context"
	"time"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
)

// TransactionLedger is the append-only store of recharge transactions.
// Append is the only mutation.
type TransactionLedger interface {
	// Append inserts one row. Rows missing msisdn, offer id, channel or medium are
	// skipped (Skipped=true, no error). Write failures return a *domain.PersistenceError.
	Append(ctx context.Context, row *models.RechargeTransaction) (models.AppendResult, error)

	// QueryByDateRange returns rows with start <= created_at < end, oldest first
	QueryByDateRange(ctx context.Context, start, end time.Time) ([]*models.RechargeTransaction, error)

	// QueryAll returns every row, oldest first
	QueryAll(ctx context.Context) ([]*models.RechargeTransaction, error)
}
