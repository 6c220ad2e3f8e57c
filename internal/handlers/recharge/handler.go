package recharge

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/domain"
	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	domainports "github.com/kevin07696/recharge-gateway/internal/domain/ports"
	"github.com/kevin07696/recharge-gateway/internal/services/ports"
	"github.com/kevin07696/recharge-gateway/internal/services/purchase"
	"github.com/kevin07696/recharge-gateway/pkg/security"
)

const maxBodyBytes = 64 << 10

// Handler serves the sales-channel endpoints
type Handler struct {
	purchases ports.PurchaseService
	accounts  ports.AccountService
	catalog   domainports.OfferCatalog
	logger    *zap.Logger
}

// NewHandler creates the recharge handler
func NewHandler(
	purchases ports.PurchaseService,
	accounts ports.AccountService,
	catalog domainports.OfferCatalog,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		purchases: purchases,
		accounts:  accounts,
		catalog:   catalog,
		logger:    logger,
	}
}

// Purchase handles POST /purchase
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req models.PurchaseRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("Malformed purchase body", zap.Error(err))
		h.respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   purchase.TagValidation,
			Message: "La solicitud contiene datos inválidos",
			Errors:  []string{"body must be a JSON object"},
		})
		return
	}

	outcome := h.purchases.Purchase(r.Context(), &req, carrierToken(r))

	if outcome.Result == models.ResultSuccess {
		h.respondJSON(w, http.StatusOK, outcome.Purchase)
		return
	}

	h.respondJSON(w, outcome.StatusCode(), ErrorResponse{
		Error:   outcome.ErrorTag(),
		Message: outcome.Message(),
		Errors:  outcome.Details,
	})
}

// MsisdnInformationResponse mirrors the carrier profile envelope
type MsisdnInformationResponse struct {
	ResponseMsisdn struct {
		Information struct {
			BeID    string `json:"beId"`
			Product string `json:"product"`
			IDA     string `json:"ida"`
		} `json:"information"`
	} `json:"responseMsisdn"`
}

// MsisdnInformation handles GET /msisdn/information?msisdn=
func (h *Handler) MsisdnInformation(w http.ResponseWriter, r *http.Request) {
	msisdn := strings.TrimSpace(r.URL.Query().Get("msisdn"))
	if len(msisdn) != 10 {
		h.respondError(w, http.StatusBadRequest, "MSISDN inválido", "El parámetro msisdn debe tener 10 dígitos")
		return
	}

	info, err := h.accounts.Lookup(r.Context(), msisdn, carrierToken(r))
	if err != nil {
		status, tag := lookupFailure(err)
		message := err.Error()
		if status == http.StatusInternalServerError {
			h.logger.Error("MSISDN information failed",
				zap.String("msisdn", security.MaskMsisdn(msisdn)),
				zap.Error(err),
			)
			if _, ok := domain.AsUpstreamError(err); !ok {
				message = "No fue posible consultar el MSISDN"
			}
		}
		h.respondError(w, status, tag, message)
		return
	}

	var resp MsisdnInformationResponse
	resp.ResponseMsisdn.Information.BeID = info.BeID
	resp.ResponseMsisdn.Information.Product = info.ProductType
	resp.ResponseMsisdn.Information.IDA = info.AccountID
	h.respondJSON(w, http.StatusOK, resp)
}

func lookupFailure(err error) (int, string) {
	switch purchase.Classify(err) {
	case models.ResultValidationError:
		return http.StatusBadRequest, "MSISDN inválido"
	case models.ResultUnauthorized:
		return http.StatusUnauthorized, purchase.TagUnauthorized
	case models.ResultBadRequest:
		return http.StatusBadRequest, purchase.TagBadRequest
	case models.ResultNotFound:
		return http.StatusNotFound, "Endpoint no encontrado"
	default:
		return http.StatusInternalServerError, "Error al obtener información de MSISDN"
	}
}

// Token handles POST /token
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	token, err := h.accounts.Token(r.Context())
	if err != nil {
		h.logger.Error("Carrier token request failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Error al obtener token de acceso", tokenFailureMessage(err))
		return
	}
	h.respondJSON(w, http.StatusOK, token)
}

func tokenFailureMessage(err error) string {
	if domain.IsConfigError(err) {
		return "Las credenciales del operador no están configuradas"
	}
	return err.Error()
}

// OffersByBeID handles GET /offers/byBeId?beId=
func (h *Handler) OffersByBeID(w http.ResponseWriter, r *http.Request) {
	beID := strings.TrimSpace(r.URL.Query().Get("beId"))
	if beID == "" {
		h.respondError(w, http.StatusBadRequest, "BeId requerido", "El parámetro beId es obligatorio")
		return
	}

	offers, err := h.catalog.ListActiveByBeID(r.Context(), beID)
	if err != nil {
		h.logger.Error("Listing offers failed", zap.String("be_id", beID), zap.Error(err))
		if errors.Is(err, domain.ErrOffersNotFound) {
			h.respondError(w, http.StatusNotFound, "No se encontraron ofertas", "No se encontraron ofertas activas para el BeId: "+beID)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Error al obtener ofertas", "No fue posible consultar las ofertas")
		return
	}

	if len(offers) == 0 {
		h.respondError(w, http.StatusNotFound, "No se encontraron ofertas", "No se encontraron ofertas activas para el BeId: "+beID)
		return
	}

	h.respondJSON(w, http.StatusOK, offers)
}
