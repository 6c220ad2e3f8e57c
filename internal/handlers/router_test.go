package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/auth"
	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/internal/handlers/cron"
	"github.com/kevin07696/recharge-gateway/internal/handlers/recharge"
	"github.com/kevin07696/recharge-gateway/internal/handlers/report"
	"github.com/kevin07696/recharge-gateway/internal/middleware"
	"github.com/kevin07696/recharge-gateway/internal/services/purchase"
	reportsvc "github.com/kevin07696/recharge-gateway/internal/services/report"
	"github.com/kevin07696/recharge-gateway/internal/testutil/mocks"
)

type stubPurchases struct{}

func (stubPurchases) Purchase(context.Context, *models.PurchaseRequest, string) *purchase.Outcome {
	return &purchase.Outcome{Result: models.ResultSuccess, Purchase: &models.PurchaseResult{Msisdn: "5512345678"}}
}

type stubAccounts struct{}

func (stubAccounts) Token(context.Context) (*models.Token, error) {
	return &models.Token{AccessToken: "abc"}, nil
}

func (stubAccounts) Lookup(context.Context, string, string) (*models.AccountInfo, error) {
	return &models.AccountInfo{BeID: "BE01"}, nil
}

type stubReports struct{}

func (stubReports) Generate(context.Context, *time.Time) (*reportsvc.Report, error) {
	return &reportsvc.Report{Name: "r.txt"}, nil
}

func (stubReports) RunOnce(context.Context, time.Time) (*reportsvc.Report, error) {
	return &reportsvc.Report{Name: "r.txt"}, nil
}

func newTestRouter(t *testing.T, jwt *auth.JWTManager) http.Handler {
	t.Helper()
	logger := zap.NewNop()

	var validator middleware.TokenValidator
	if jwt != nil {
		validator = jwt
	}

	return NewRouter(RouterConfig{
		Recharge:    recharge.NewHandler(stubPurchases{}, stubAccounts{}, new(mocks.MockOfferCatalog), logger),
		Reports:     report.NewHandler(stubReports{}, logger),
		Cron:        cron.NewReportHandler(stubReports{}, logger, "cron-secret"),
		Auth:        middleware.NewJWTAuth(validator, logger),
		CORSOrigins: []string{"*"},
		Logger:      logger,
	})
}

const body = `{"msisdn":"5512345678","offerings":["OFF100"]}`

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		headers    map[string]string
		wantStatus int
	}{
		{name: "purchase", method: http.MethodPost, path: "/api/v1/purchase", body: body, wantStatus: http.StatusOK},
		{name: "msisdn", method: http.MethodGet, path: "/api/v1/msisdn/information?msisdn=5512345678", wantStatus: http.StatusOK},
		{name: "token", method: http.MethodPost, path: "/api/v1/token", wantStatus: http.StatusOK},
		{name: "offers without beId", method: http.MethodGet, path: "/api/v1/offers/byBeId", wantStatus: http.StatusBadRequest},
		{name: "report", method: http.MethodPost, path: "/api/v1/reports/generate?fecha=2025-12-05", wantStatus: http.StatusOK},
		{name: "cron report", method: http.MethodPost, path: "/cron/reports/daily", headers: map[string]string{"X-Cron-Secret": "cron-secret"}, wantStatus: http.StatusOK},
		{name: "cron health", method: http.MethodGet, path: "/cron/health", wantStatus: http.StatusOK},
		{name: "wrong method", method: http.MethodGet, path: "/api/v1/purchase", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown", method: http.MethodGet, path: "/api/v1/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_ClientAuthentication(t *testing.T) {
	jwt, err := auth.NewJWTManager("0123456789abcdef0123456789abcdef", "recharge-gateway", time.Hour)
	require.NoError(t, err)
	router := newTestRouter(t, jwt)

	token, err := jwt.GenerateToken("channel-1", nil)
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/token", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/token", nil)
		req.Header.Set(middleware.ClientTokenHeader, "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cron is outside client auth", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cron/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
