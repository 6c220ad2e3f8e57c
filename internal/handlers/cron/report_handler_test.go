package cron

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/services/report"
)

const testSecret = "cron-secret"

type mockDailyJob struct {
	mock.Mock
}

func (m *mockDailyJob) RunOnce(ctx context.Context, date time.Time) (*report.Report, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func newTestReportHandler(job *mockDailyJob, secret string) *ReportHandler {
	h := NewReportHandler(job, zap.NewNop(), secret)
	h.now = func() time.Time { return time.Date(2025, 12, 6, 1, 0, 0, 0, time.UTC) }
	return h
}

func TestRunDailyReport_Authentication(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		headers    map[string]string
		wantStatus int
	}{
		{name: "no credentials", secret: testSecret, wantStatus: http.StatusUnauthorized},
		{name: "wrong header", secret: testSecret, headers: map[string]string{"X-Cron-Secret": "nope"}, wantStatus: http.StatusUnauthorized},
		{name: "cron header", secret: testSecret, headers: map[string]string{"X-Cron-Secret": testSecret}, wantStatus: http.StatusOK},
		{name: "bearer", secret: testSecret, headers: map[string]string{"Authorization": "Bearer " + testSecret}, wantStatus: http.StatusOK},
		{name: "unconfigured secret rejects", secret: "", headers: map[string]string{"X-Cron-Secret": ""}, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := new(mockDailyJob)
			job.On("RunOnce", mock.Anything, mock.Anything).Return(&report.Report{Name: "f.txt"}, nil)

			req := httptest.NewRequest(http.MethodPost, "/cron/reports/daily", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			newTestReportHandler(job, tt.secret).RunDailyReport(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				job.AssertNotCalled(t, "RunOnce", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRunDailyReport_DefaultsToYesterday(t *testing.T) {
	job := new(mockDailyJob)
	yesterday := time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)
	job.On("RunOnce", mock.Anything, yesterday).Return(&report.Report{Name: "gw_rec_tecomnet_20251205.txt", Rows: 3}, nil)

	req := httptest.NewRequest(http.MethodPost, "/cron/reports/daily", nil)
	req.Header.Set("X-Cron-Secret", testSecret)
	rec := httptest.NewRecorder()
	newTestReportHandler(job, testSecret).RunDailyReport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp DailyReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "2025-12-05", resp.Date)
	assert.Equal(t, "gw_rec_tecomnet_20251205.txt", resp.FileName)
	assert.Equal(t, 3, resp.Rows)
	job.AssertExpectations(t)
}

func TestRunDailyReport_ExplicitDate(t *testing.T) {
	job := new(mockDailyJob)
	job.On("RunOnce", mock.Anything, time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)).Return(&report.Report{Name: "x"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/cron/reports/daily?date=2025-11-30", nil)
	req.Header.Set("X-Cron-Secret", testSecret)
	rec := httptest.NewRecorder()
	newTestReportHandler(job, testSecret).RunDailyReport(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	job.AssertExpectations(t)
}

func TestRunDailyReport_Failures(t *testing.T) {
	t.Run("bad date", func(t *testing.T) {
		job := new(mockDailyJob)
		req := httptest.NewRequest(http.MethodPost, "/cron/reports/daily?date=yesterday", nil)
		req.Header.Set("X-Cron-Secret", testSecret)
		rec := httptest.NewRecorder()
		newTestReportHandler(job, testSecret).RunDailyReport(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		job.AssertNotCalled(t, "RunOnce", mock.Anything, mock.Anything)
	})

	t.Run("job error", func(t *testing.T) {
		job := new(mockDailyJob)
		job.On("RunOnce", mock.Anything, mock.Anything).Return(nil, errors.New("s3: access denied"))

		req := httptest.NewRequest(http.MethodPost, "/cron/reports/daily", nil)
		req.Header.Set("Authorization", "Bearer "+testSecret)
		rec := httptest.NewRecorder()
		newTestReportHandler(job, testSecret).RunDailyReport(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp DailyReportResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.NotContains(t, resp.Error, "access denied")
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestReportHandler(new(mockDailyJob), testSecret).RunDailyReport(rec, httptest.NewRequest(http.MethodGet, "/cron/reports/daily", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestReportHandler(new(mockDailyJob), testSecret).HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/cron/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","time":"2025-12-06T01:00:00Z"}`, rec.Body.String())
}
