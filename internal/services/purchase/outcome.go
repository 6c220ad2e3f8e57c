package purchase

import (
	"github.com/kevin07696/recharge-gateway/internal/domain"
	"github.com/kevin07696/recharge-gateway/internal/domain/models"
)

// Error tags returned to the sales channel, one per result
const (
	TagValidation   = "Datos inválidos"
	TagUnauthorized = "Token inválido"
	TagBadRequest   = "Solicitud inválida"
	TagNotFound     = "Endpoint incorrecto"
	TagServerError  = "Error al comprar producto"
)

const (
	validationMessage = "La solicitud contiene datos inválidos"
	genericMessage    = "No fue posible completar la compra"
)

// Outcome is the result of one orchestrated purchase
type Outcome struct {
	Result   models.TransactionResult
	Purchase *models.PurchaseResult

	// Err is the failure that decided Result, nil on success
	Err error
	// Details lists field problems for ERROR_VALIDACION
	Details []string

	Ledger models.AppendResult
	// LedgerErr is logged only; it never changes Result
	LedgerErr error
}

// StatusCode mirrors Result as an HTTP status
func (o *Outcome) StatusCode() int {
	return o.Result.HTTPStatus()
}

// ErrorTag returns the stable error tag, empty on success
func (o *Outcome) ErrorTag() string {
	switch o.Result {
	case models.ResultSuccess:
		return ""
	case models.ResultValidationError:
		return TagValidation
	case models.ResultUnauthorized:
		return TagUnauthorized
	case models.ResultBadRequest:
		return TagBadRequest
	case models.ResultNotFound:
		return TagNotFound
	default:
		return TagServerError
	}
}

// Message is safe to show to the caller
func (o *Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	if o.Result == models.ResultValidationError {
		if len(o.Details) > 0 {
			return validationMessage
		}
		return o.Err.Error()
	}
	if upstream, ok := domain.AsUpstreamError(o.Err); ok {
		return upstream.Error()
	}
	if domain.IsDecodeError(o.Err) {
		return o.Err.Error()
	}
	return genericMessage
}

// Classify maps a failure to its ledger result. First match wins.
func Classify(err error) models.TransactionResult {
	if err == nil {
		return models.ResultSuccess
	}
	if domain.IsValidationError(err) {
		return models.ResultValidationError
	}
	if upstream, ok := domain.AsUpstreamError(err); ok {
		switch upstream.Kind() {
		case domain.UpstreamUnauthorized:
			return models.ResultUnauthorized
		case domain.UpstreamBadRequest:
			return models.ResultBadRequest
		case domain.UpstreamNotFound:
			return models.ResultNotFound
		}
	}
	return models.ResultServerError
}
