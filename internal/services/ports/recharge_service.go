package ports

import (
	"context"
	"time"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/internal/services/purchase"
	"github.com/kevin07696/recharge-gateway/internal/services/report"
)

// PurchaseService runs a recharge purchase end to end
type PurchaseService interface {
	Purchase(ctx context.Context, req *models.PurchaseRequest, explicitToken string) *purchase.Outcome
}

// AccountService exposes carrier token and subscriber data
type AccountService interface {
	Token(ctx context.Context) (*models.Token, error)
	Lookup(ctx context.Context, msisdn, explicitToken string) (*models.AccountInfo, error)
}

// ReportService produces report files on demand. A nil date selects every row.
type ReportService interface {
	Generate(ctx context.Context, date *time.Time) (*report.Report, error)
}

// DailyReportJob makes one generate-and-deliver attempt for a date
type DailyReportJob interface {
	RunOnce(ctx context.Context, date time.Time) (*report.Report, error)
}
