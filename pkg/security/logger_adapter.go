package security

import (
	"strings"
	"time"

	"github.com/kevin07696/recharge-gateway/internal/adapters/ports"
	"go.uber.org/zap"
)

const redacted = "[REDACTED]"

// Field keys whose values never reach the log sink.
var secretKeys = map[string]bool{
	"token":           true,
	"access_token":    true,
	"authorization":   true,
	"consumer_key":    true,
	"consumer_secret": true,
	"credentials":     true,
}

// ZapLoggerAdapter backs the carrier adapter's Logger port with zap.
// Secret-bearing fields are redacted and subscriber numbers masked before encoding.
type ZapLoggerAdapter struct {
	logger *zap.Logger
}

func NewZapLogger(logger *zap.Logger) *ZapLoggerAdapter {
	return &ZapLoggerAdapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (z *ZapLoggerAdapter) Info(msg string, fields ...ports.Field) {
	z.logger.Info(msg, toZap(fields)...)
}

func (z *ZapLoggerAdapter) Error(msg string, fields ...ports.Field) {
	z.logger.Error(msg, toZap(fields)...)
}

func (z *ZapLoggerAdapter) Warn(msg string, fields ...ports.Field) {
	z.logger.Warn(msg, toZap(fields)...)
}

func (z *ZapLoggerAdapter) Debug(msg string, fields ...ports.Field) {
	z.logger.Debug(msg, toZap(fields)...)
}

func toZap(fields []ports.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		key := strings.ToLower(f.Key)
		switch {
		case secretKeys[key]:
			out = append(out, zap.String(f.Key, redacted))
			continue
		case key == "msisdn":
			if s, ok := f.Value.(string); ok {
				out = append(out, zap.String(f.Key, MaskMsisdn(s)))
				continue
			}
		}

		switch v := f.Value.(type) {
		case error:
			if f.Key == "error" {
				out = append(out, zap.Error(v))
			} else {
				out = append(out, zap.NamedError(f.Key, v))
			}
		case string:
			out = append(out, zap.String(f.Key, v))
		case int:
			out = append(out, zap.Int(f.Key, v))
		case bool:
			out = append(out, zap.Bool(f.Key, v))
		case time.Duration:
			out = append(out, zap.Duration(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}
