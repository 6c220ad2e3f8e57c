package report

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/services/ports"
	"github.com/kevin07696/recharge-gateway/pkg/timeutil"
)

const (
	messageDaily = "Reporte generado exitosamente"
	messageAll   = "Reporte generado exitosamente con TODAS las transacciones"
)

// Handler serves on-demand report generation
type Handler struct {
	reports ports.ReportService
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandler creates the report handler
func NewHandler(reports ports.ReportService, logger *zap.Logger) *Handler {
	return &Handler{
		reports: reports,
		logger:  logger,
		now:     timeutil.Now,
	}
}

// GenerateResponse describes the file that was written
type GenerateResponse struct {
	Mensaje               string `json:"mensaje"`
	Fecha                 string `json:"fecha,omitempty"`
	RutaArchivo           string `json:"rutaArchivo"`
	NombreArchivo         string `json:"nombreArchivo"`
	TamanioBytes          int64  `json:"tamanioBytes"`
	CantidadTransacciones int    `json:"cantidadTransacciones"`
	Contenido             string `json:"contenido"`
	FechaGeneracion       string `json:"fechaGeneracion"`
}

// Generate handles POST /reports/generate?fecha=YYYY-MM-DD&todas=bool.
// A missing fecha means today (UTC); todas=true ignores the date.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	all := false
	if raw := strings.TrimSpace(query.Get("todas")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Parámetro inválido", "El parámetro todas debe ser true o false")
			return
		}
		all = parsed
	}

	var date *time.Time
	if !all {
		day := timeutil.StartOfDay(h.now())
		if raw := strings.TrimSpace(query.Get("fecha")); raw != "" {
			parsed, err := timeutil.ParseDay(raw)
			if err != nil {
				h.respondError(w, http.StatusBadRequest, "Fecha inválida", "El formato de fecha debe ser YYYY-MM-DD (ejemplo: 2025-12-05)")
				return
			}
			day = parsed
		}
		date = &day
	}

	rep, err := h.reports.Generate(r.Context(), date)
	if err != nil {
		h.logger.Error("Manual report generation failed", zap.Bool("all", all), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Error al generar reporte", "No se pudo generar el archivo del reporte")
		return
	}

	resp := GenerateResponse{
		Mensaje:               messageAll,
		RutaArchivo:           rep.Path,
		NombreArchivo:         rep.Name,
		TamanioBytes:          rep.Size,
		CantidadTransacciones: rep.Rows,
		Contenido:             string(rep.Content),
		FechaGeneracion:       rep.GeneratedAt.UTC().Format(time.RFC3339),
	}
	if date != nil {
		resp.Mensaje = messageDaily
		resp.Fecha = date.Format(timeutil.DayLayout)
	}

	h.logger.Info("Manual report generated",
		zap.String("file", rep.Name),
		zap.Int("rows", rep.Rows),
	)
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, tag, message string) {
	h.respondJSON(w, status, map[string]string{"error": tag, "message": message})
}
