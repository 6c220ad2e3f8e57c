package reportsink

import (
	"context"

	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/domain/ports"
)

// DisabledSink stands in for the settlement SFTP drop, which is switched off.
// It logs and succeeds so the report stays in the local directory for review.
type DisabledSink struct {
	name   string
	logger *zap.Logger
}

var _ ports.ReportSink = (*DisabledSink)(nil)

// NewDisabledSink creates a sink that only logs
func NewDisabledSink(name string, logger *zap.Logger) *DisabledSink {
	return &DisabledSink{name: name, logger: logger}
}

func (s *DisabledSink) Name() string { return s.name }

func (s *DisabledSink) Deliver(_ context.Context, path, name string) error {
	s.logger.Warn("Remote report delivery is disabled, file kept locally",
		zap.String("sink", s.name),
		zap.String("name", name),
		zap.String("path", path),
	)
	return nil
}
