package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/internal/domain/ports"
	"github.com/kevin07696/recharge-gateway/pkg/observability"
	"github.com/kevin07696/recharge-gateway/pkg/timeutil"
)

const (
	DefaultProviderID = "TECOMNET"
	DefaultDirName    = "ReportesRecargas"

	allRowsMarker = "TODAS"

	ModeDaily = "daily"
	ModeAll   = "all"
)

// Config controls where and under which name reports are written
type Config struct {
	ProviderID string
	Dir        string
}

// DefaultConfig writes to <tmp>/ReportesRecargas for TECOMNET
func DefaultConfig() Config {
	return Config{
		ProviderID: DefaultProviderID,
		Dir:        filepath.Join(os.TempDir(), DefaultDirName),
	}
}

// Report describes one generated file
type Report struct {
	Name        string
	Path        string
	Date        *time.Time // nil for the all-rows mode
	Rows        int
	Size        int64
	Content     []byte
	GeneratedAt time.Time
}

// Generator renders ledger rows into the daily settlement file
type Generator struct {
	ledger ports.TransactionLedger
	sinks  []ports.ReportSink
	config Config
	logger *zap.Logger
	now    func() time.Time
}

// NewGenerator creates a report generator. Sinks are tried in order after the
// local file is written.
func NewGenerator(ledger ports.TransactionLedger, cfg Config, logger *zap.Logger, sinks ...ports.ReportSink) *Generator {
	def := DefaultConfig()
	if cfg.ProviderID == "" {
		cfg.ProviderID = def.ProviderID
	}
	if cfg.Dir == "" {
		cfg.Dir = def.Dir
	}
	return &Generator{
		ledger: ledger,
		sinks:  sinks,
		config: cfg,
		logger: logger,
		now:    timeutil.Now,
	}
}

// FileName returns the report name for date, or for the all-rows mode when date is nil
func (g *Generator) FileName(date *time.Time) string {
	prefix := "gw_rec_" + strings.ToLower(g.config.ProviderID)
	if date == nil {
		return fmt.Sprintf("%s_%s_%s.txt", prefix, allRowsMarker, timeutil.DateStamp(g.now()))
	}
	return fmt.Sprintf("%s_%s.txt", prefix, timeutil.DateStamp(*date))
}

// Generate writes the report for the UTC day containing date, or for every row
// when date is nil. An empty selection still produces an (empty) file.
func (g *Generator) Generate(ctx context.Context, date *time.Time) (*Report, error) {
	mode := ModeDaily
	if date == nil {
		mode = ModeAll
	}

	report, err := g.generate(ctx, date)
	if err != nil {
		observability.RecordReportGeneration(mode, "failed", 0)
		g.logger.Error("Failed to generate report", zap.String("mode", mode), zap.Error(err))
		return nil, err
	}

	observability.RecordReportGeneration(mode, "success", report.Rows)
	g.logger.Info("Report generated",
		zap.String("mode", mode),
		zap.String("path", report.Path),
		zap.Int("rows", report.Rows),
		zap.Int64("bytes", report.Size),
	)
	return report, nil
}

func (g *Generator) generate(ctx context.Context, date *time.Time) (*Report, error) {
	var (
		rows []*models.RechargeTransaction
		err  error
	)

	if date != nil {
		day := timeutil.StartOfDay(*date)
		date = &day
		start, end := timeutil.DayRange(day)
		g.logger.Info("Selecting transactions for report",
			zap.Time("from", start),
			zap.Time("to", end),
		)
		rows, err = g.ledger.QueryByDateRange(ctx, start, end)
	} else {
		rows, err = g.ledger.QueryAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}

	if len(rows) == 0 {
		g.logger.Warn("No transactions found, writing an empty report")
	}

	name := g.FileName(date)
	content := Render(rows)
	path, err := g.write(name, content)
	if err != nil {
		return nil, err
	}

	return &Report{
		Name:        name,
		Path:        path,
		Date:        date,
		Rows:        len(rows),
		Size:        int64(len(content)),
		Content:     content,
		GeneratedAt: g.now(),
	}, nil
}

const reportFileMode os.FileMode = 0o644

// write replaces dir/name atomically
func (g *Generator) write(name string, content []byte) (string, error) {
	if err := os.MkdirAll(g.config.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(g.config.Dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	// CreateTemp opens 0600; settlement files are picked up by other accounts
	if err := tmp.Chmod(reportFileMode); err != nil {
		tmp.Close()
		return "", fmt.Errorf("chmod report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}

	path := filepath.Join(g.config.Dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("rename report: %w", err)
	}
	return path, nil
}

// Deliver ships the report through every configured sink, stopping at the first failure
func (g *Generator) Deliver(ctx context.Context, report *Report) error {
	if len(g.sinks) == 0 {
		g.logger.Info("No report sinks configured, file kept locally", zap.String("path", report.Path))
		return nil
	}

	for _, sink := range g.sinks {
		if err := sink.Deliver(ctx, report.Path, report.Name); err != nil {
			return fmt.Errorf("deliver report via %s: %w", sink.Name(), err)
		}
		g.logger.Info("Report delivered",
			zap.String("sink", sink.Name()),
			zap.String("name", report.Name),
		)
	}
	return nil
}

// GenerateAndDeliver produces the report for date and ships it
func (g *Generator) GenerateAndDeliver(ctx context.Context, date time.Time) (*Report, error) {
	report, err := g.Generate(ctx, &date)
	if err != nil {
		return nil, err
	}
	if err := g.Deliver(ctx, report); err != nil {
		g.logger.Error("Failed to deliver report", zap.String("name", report.Name), zap.Error(err))
		return report, err
	}
	return report, nil
}
