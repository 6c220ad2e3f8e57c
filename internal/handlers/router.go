package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/handlers/cron"
	"github.com/kevin07696/recharge-gateway/internal/handlers/recharge"
	"github.com/kevin07696/recharge-gateway/internal/handlers/report"
	"github.com/kevin07696/recharge-gateway/internal/middleware"
	pkgmw "github.com/kevin07696/recharge-gateway/pkg/middleware"
	"github.com/kevin07696/recharge-gateway/pkg/observability"
)

// RouterConfig carries everything the HTTP surface is built from
type RouterConfig struct {
	Recharge *recharge.Handler
	Reports  *report.Handler
	Cron     *cron.ReportHandler

	Auth        *middleware.JWTAuth
	RateLimiter *pkgmw.RateLimiter // optional

	CORSOrigins   []string
	IsDevelopment bool
	Logger        *zap.Logger
}

// NewRouter wires the gateway, report and cron routes
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(observability.HTTPMetrics)
	r.Use(middleware.NewSecurityHeaders(cfg.IsDevelopment).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.ClientTokenHeader},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}
		if cfg.Auth != nil {
			r.Use(cfg.Auth.Middleware)
		}

		r.Post("/purchase", cfg.Recharge.Purchase)
		r.Get("/msisdn/information", cfg.Recharge.MsisdnInformation)
		r.Post("/token", cfg.Recharge.Token)
		r.Get("/offers/byBeId", cfg.Recharge.OffersByBeID)
		r.Post("/reports/generate", cfg.Reports.Generate)
	})

	r.Route("/cron", func(r chi.Router) {
		r.Post("/reports/daily", cfg.Cron.RunDailyReport)
		r.Get("/health", cfg.Cron.HealthCheck)
	})

	return r
}

// requestLogger logs one line per request through zap
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
