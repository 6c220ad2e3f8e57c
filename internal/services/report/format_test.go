package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/internal/testutil/fixtures"
)

var reportDay = time.Date(2025, 12, 5, 16, 14, 50, 0, time.UTC)

func TestFormatLine_SuccessfulRow(t *testing.T) {
	tx := fixtures.NewTransaction(reportDay).Build()

	line := FormatLine(tx)
	fields := strings.Split(line, "|")

	require.Len(t, fields, FieldCount)
	assert.Equal(t, "20251205161450", fields[0])
	assert.Equal(t, "20251205161451", fields[1])
	assert.Equal(t, "20251205161453", fields[2])
	assert.Equal(t, "20251205161454", fields[3])
	assert.Equal(t, "BE01", fields[4])
	assert.Equal(t, "5512345678", fields[5])
	assert.Equal(t, "100.00", fields[6])
	assert.Equal(t, "OFF100", fields[7])
	assert.Equal(t, "RETAILER", fields[8])
	assert.Equal(t, "GATEWAY_RECARGA", fields[9])
	assert.Equal(t, "POS1", fields[10])
	assert.Equal(t, "ORD-1", fields[11])
	assert.Equal(t, "EXITOSO", fields[12])
	for i := 13; i < FieldCount; i++ {
		assert.Empty(t, fields[i], "reversal field %d", i)
	}
}

func TestFormatLine_Fields(t *testing.T) {
	tests := []struct {
		name  string
		tx    *models.RechargeTransaction
		index int
		want  string
	}{
		{
			name:  "missing carrier end",
			tx:    fixtures.NewTransaction(reportDay).WithoutCarrierEnd().Build(),
			index: 2,
			want:  "",
		},
		{
			name:  "amount with two decimals",
			tx:    fixtures.NewTransaction(reportDay).WithAmount("50").Build(),
			index: 6,
			want:  "50.00",
		},
		{
			name:  "amount rounded",
			tx:    fixtures.NewTransaction(reportDay).WithAmount("12.345").Build(),
			index: 6,
			want:  "12.35",
		},
		{
			name:  "non-UTC timestamp rendered in UTC",
			tx:    fixtures.NewTransaction(reportDay.In(time.FixedZone("CST", -6*3600))).Build(),
			index: 0,
			want:  "20251205161450",
		},
		{
			name:  "reversal applies",
			tx:    fixtures.NewTransaction(reportDay).WithReversal(true, "REV-1", "Exitosa").Build(),
			index: 13,
			want:  "SI",
		},
		{
			name:  "reversal does not apply",
			tx:    fixtures.NewTransaction(reportDay).WithReversal(false, "REV-1", "fallida").Build(),
			index: 13,
			want:  "NO",
		},
		{
			name:  "reversal result upper-cased",
			tx:    fixtures.NewTransaction(reportDay).WithReversal(true, "REV-1", "Exitosa").Build(),
			index: 19,
			want:  "EXITOSA",
		},
		{
			name:  "blank reversal result",
			tx:    fixtures.NewTransaction(reportDay).WithReversal(true, "REV-1", "  ").Build(),
			index: 19,
			want:  "",
		},
		{
			name:  "reversal order id",
			tx:    fixtures.NewTransaction(reportDay).WithReversal(true, "REV-1", "Exitosa").Build(),
			index: 18,
			want:  "REV-1",
		},
		{
			name:  "reversal start",
			tx:    fixtures.NewTransaction(reportDay).WithReversal(true, "REV-1", "Exitosa").Build(),
			index: 14,
			want:  "20251205171450",
		},
		{
			name:  "failed result",
			tx:    fixtures.NewTransaction(reportDay).WithResult(models.ResultUnauthorized).Build(),
			index: 12,
			want:  "ERROR_401",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := strings.Split(FormatLine(tt.tx), "|")
			require.Len(t, fields, FieldCount)
			assert.Equal(t, tt.want, fields[tt.index])
		})
	}
}

func TestRender(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Render(nil))
	})

	t.Run("one line per row in order", func(t *testing.T) {
		rows := []*models.RechargeTransaction{
			fixtures.NewTransaction(reportDay).WithMsisdn("5500000001").Build(),
			fixtures.NewTransaction(reportDay.Add(time.Minute)).WithMsisdn("5500000002").Build(),
		}

		out := string(Render(rows))
		lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

		require.Len(t, lines, 2)
		assert.True(t, strings.HasSuffix(out, "\n"))
		assert.Contains(t, lines[0], "|5500000001|")
		assert.Contains(t, lines[1], "|5500000002|")
	})
}
