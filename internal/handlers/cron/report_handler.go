package cron

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/services/ports"
	"github.com/kevin07696/recharge-gateway/pkg/timeutil"
)

// ReportHandler handles cron job endpoints for the daily settlement report
type ReportHandler struct {
	job        ports.DailyReportJob
	logger     *zap.Logger
	cronSecret string // Secret token for authenticating cron requests
	now        func() time.Time
}

// NewReportHandler creates a new report cron handler
func NewReportHandler(job ports.DailyReportJob, logger *zap.Logger, cronSecret string) *ReportHandler {
	return &ReportHandler{
		job:        job,
		logger:     logger,
		cronSecret: cronSecret,
		now:        timeutil.Now,
	}
}

// DailyReportResponse represents the response from a daily report run
type DailyReportResponse struct {
	Success     bool   `json:"success"`
	Date        string `json:"date"`
	FileName    string `json:"file_name,omitempty"`
	Rows        int    `json:"rows"`
	Error       string `json:"error,omitempty"`
	ProcessedAt string `json:"processed_at"`
}

// RunDailyReport handles POST /cron/reports/daily.
// The optional ?date=YYYY-MM-DD (or fecha) overrides the default of yesterday.
// One attempt is made; retrying is left to the scheduler that called us.
func (h *ReportHandler) RunDailyReport(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Report cron job triggered",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("user_agent", r.UserAgent()),
	)

	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "only POST method is allowed")
		return
	}

	if !h.authenticateRequest(r) {
		h.logger.Warn("Unauthorized cron request", zap.String("remote_addr", r.RemoteAddr))
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	date := timeutil.Yesterday(h.now())
	raw := r.URL.Query().Get("date")
	if raw == "" {
		raw = r.URL.Query().Get("fecha")
	}
	if raw = strings.TrimSpace(raw); raw != "" {
		parsed, err := timeutil.ParseDay(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	resp := DailyReportResponse{Date: date.Format(timeutil.DayLayout)}

	rep, err := h.job.RunOnce(r.Context(), date)
	resp.ProcessedAt = h.now().Format(time.RFC3339)
	if err != nil {
		h.logger.Error("Daily report run failed",
			zap.String("date", resp.Date),
			zap.Error(err),
		)
		resp.Error = "report generation or delivery failed"
		h.respondJSON(w, http.StatusInternalServerError, resp)
		return
	}

	resp.Success = true
	resp.FileName = rep.Name
	resp.Rows = rep.Rows

	h.logger.Info("Daily report run completed",
		zap.String("date", resp.Date),
		zap.String("file", rep.Name),
		zap.Int("rows", rep.Rows),
	)
	h.respondJSON(w, http.StatusOK, resp)
}

// authenticateRequest verifies the cron request is authorized
func (h *ReportHandler) authenticateRequest(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}

	if secret := r.Header.Get("X-Cron-Secret"); secret != "" && secureEqual(secret, h.cronSecret) {
		return true
	}

	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && secureEqual(strings.TrimPrefix(auth, "Bearer "), h.cronSecret)
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (h *ReportHandler) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError sends an error response
func (h *ReportHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// HealthCheck handles GET /cron/health for monitoring
func (h *ReportHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   h.now().Format(time.RFC3339),
	})
}
