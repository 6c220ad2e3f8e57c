package purchase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/domain"
	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/internal/domain/ports"
	"github.com/kevin07696/recharge-gateway/pkg/observability"
	"github.com/kevin07696/recharge-gateway/pkg/resilience"
	"github.com/kevin07696/recharge-gateway/pkg/security"
)

// Service runs the purchase flow:
// validate, price, enrich, authenticate, submit, record.
// Every terminal path records exactly one ledger row before returning.
type Service struct {
	catalog ports.OfferCatalog
	gateway ports.CarrierGateway
	tokens  ports.TokenProvider
	ledger  ports.TransactionLedger
	logger  *zap.Logger

	validate *validator.Validate
	now      func() time.Time
	timeouts *resilience.TimeoutConfig
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTimeouts replaces resilience.DefaultTimeoutConfig; only Enrichment is read here
func WithTimeouts(tc *resilience.TimeoutConfig) Option {
	return func(s *Service) {
		if tc != nil && tc.Enrichment > 0 {
			s.timeouts = tc
		}
	}
}

// NewService creates the purchase orchestrator
func NewService(
	catalog ports.OfferCatalog,
	gateway ports.CarrierGateway,
	tokens ports.TokenProvider,
	ledger ports.TransactionLedger,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		catalog:  catalog,
		gateway:  gateway,
		tokens:   tokens,
		ledger:   ledger,
		logger:   logger,
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
		timeouts: resilience.DefaultTimeoutConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// attempt carries what has been learned so far; it becomes the ledger row
type attempt struct {
	saleStart    time.Time
	carrierStart *time.Time
	carrierEnd   *time.Time

	be      string
	amount  decimal.Decimal
	offerID string
	msisdn  string
	channel string
	pipe    string
	posID   string
}

// Purchase runs one purchase. explicitToken, when non-blank, is used for the
// carrier purchase call instead of the cached token.
func (s *Service) Purchase(ctx context.Context, req *models.PurchaseRequest, explicitToken string) *Outcome {
	if req == nil {
		req = &models.PurchaseRequest{}
	}

	a := &attempt{
		saleStart: s.now(),
		msisdn:    req.Msisdn,
		offerID:   req.FirstOffering(),
		channel:   NormalizeChannel(req.ChannelOfSale),
		pipe:      NormalizePipe(req.PipeOfSale),
		posID:     req.IDPoS,
		amount:    decimal.Zero,
	}

	logger := s.logger.With(
		zap.String("msisdn", security.MaskMsisdn(req.Msisdn)),
		zap.String("offer_id", a.offerID),
	)

	outcome := s.run(ctx, logger, req, a, explicitToken)
	s.record(ctx, logger, a, outcome)

	observability.RecordPurchase(
		string(outcome.Result),
		a.channel,
		a.offerID,
		a.amount.Shift(2).IntPart(),
		s.now().Sub(a.saleStart).Seconds(),
	)

	return outcome
}

func (s *Service) run(ctx context.Context, logger *zap.Logger, req *models.PurchaseRequest, a *attempt, explicitToken string) *Outcome {
	// Validating
	if details, err := s.validateRequest(req); err != nil {
		logger.Warn("Purchase request failed validation", zap.Strings("errors", details))
		return &Outcome{Result: models.ResultValidationError, Err: err, Details: details}
	}
	if req.ChannelOfSale != "" && a.channel != strings.ToUpper(strings.TrimSpace(req.ChannelOfSale)) {
		logger.Warn("Channel of sale coerced to default",
			zap.String("channel", req.ChannelOfSale),
			zap.String("used", a.channel),
		)
	}
	if req.PipeOfSale != "" && a.pipe != strings.ToUpper(strings.TrimSpace(req.PipeOfSale)) {
		logger.Warn("Pipe of sale coerced to default",
			zap.String("pipe", req.PipeOfSale),
			zap.String("used", a.pipe),
		)
	}

	// Pricing
	if a.offerID == "" {
		logger.Warn("No offer id supplied, amount is 0")
	} else {
		price, found, err := s.catalog.FindActivePrice(ctx, a.offerID)
		if err != nil {
			logger.Error("Offer price lookup failed", zap.Error(err))
			return failed(fmt.Errorf("price offer: %w", err))
		}
		if found {
			a.amount = price
		} else {
			logger.Warn("No active offer matches, amount is 0")
		}
	}

	// Enriching
	a.be = s.enrich(ctx, logger, req.Msisdn)

	// Authenticating
	accessToken := strings.TrimSpace(explicitToken)
	if accessToken == "" {
		tok, err := s.tokens.GetToken(ctx)
		if err != nil {
			logger.Error("Carrier token acquisition failed", zap.Error(err))
			return failed(err)
		}
		accessToken = tok.AccessToken
	}

	// Submitting
	submit := &models.PurchaseRequest{
		Msisdn:        req.Msisdn,
		Offerings:     req.Offerings,
		IDPoS:         req.IDPoS,
		ChannelOfSale: a.channel,
		PipeOfSale:    a.pipe,
	}

	carrierStart := s.now()
	a.carrierStart = &carrierStart
	result, err := s.gateway.Purchase(ctx, submit, accessToken)
	carrierEnd := s.now()
	a.carrierEnd = &carrierEnd

	if err != nil {
		logger.Error("Carrier purchase failed", zap.Error(err))
		return failed(err)
	}

	logger.Info("Carrier purchase succeeded",
		zap.String("order_id", result.OrderID()),
		zap.String("effective_date", result.EffectiveDate),
	)
	return &Outcome{Result: models.ResultSuccess, Purchase: result}
}

func failed(err error) *Outcome {
	return &Outcome{Result: Classify(err), Err: err}
}

// enrich resolves the business entity; every failure yields N/A
func (s *Service) enrich(ctx context.Context, logger *zap.Logger, msisdn string) string {
	ctx, cancel := s.timeouts.EnrichmentContext(ctx)
	defer cancel()

	tok, err := s.tokens.GetToken(ctx)
	if err != nil {
		logger.Warn("Could not get token for MSISDN lookup, continuing without BE", zap.Error(err))
		return models.NotAvailable
	}

	info, err := s.gateway.LookupMsisdn(ctx, msisdn, tok.AccessToken)
	if err != nil {
		logger.Warn("MSISDN lookup failed, continuing without BE", zap.Error(err))
		return models.NotAvailable
	}
	if info == nil || info.BeID == "" {
		return models.NotAvailable
	}
	return info.BeID
}

func (s *Service) validateRequest(req *models.PurchaseRequest) ([]string, error) {
	err := s.validate.Struct(req)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}, domain.NewValidationError("", err.Error())
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describe(fe))
	}
	return details, domain.NewValidationError(verrs[0].Field(), details[0])
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", fe.Field(), fe.Param())
	case "number":
		return fe.Field() + " must be numeric"
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// record writes the ledger row. Failures are logged and kept on the outcome only.
func (s *Service) record(ctx context.Context, logger *zap.Logger, a *attempt, outcome *Outcome) {
	now := s.now()

	carrierStart := a.saleStart
	if a.carrierStart != nil {
		carrierStart = *a.carrierStart
	}

	carrierEnd := a.carrierEnd
	if carrierEnd == nil && outcome.Result != models.ResultSuccess {
		carrierEnd = &now
	}

	orderID := models.NotAvailable
	if outcome.Result == models.ResultSuccess {
		if id := outcome.Purchase.OrderID(); id != "" {
			orderID = id
		}
	}

	be := a.be
	if be == "" {
		be = models.NotAvailable
	}
	posID := a.posID
	if strings.TrimSpace(posID) == "" {
		posID = models.NotAvailable
	}

	row := &models.RechargeTransaction{
		SaleStart:    a.saleStart,
		CarrierStart: carrierStart,
		CarrierEnd:   carrierEnd,
		SaleEnd:      &now,
		BE:           be,
		Msisdn:       a.msisdn,
		Amount:       a.amount,
		OfferID:      a.offerID,
		Channel:      a.channel,
		Medium:       a.pipe,
		PosID:        posID,
		OrderID:      orderID,
		Result:       outcome.Result,
		CreatedAt:    now,
	}

	// Record even if the caller went away
	ledgerCtx := context.WithoutCancel(ctx)

	result, err := s.ledger.Append(ledgerCtx, row)
	outcome.Ledger = result
	if err != nil {
		outcome.LedgerErr = err
		logger.Error("Failed to record recharge transaction",
			zap.String("result", string(outcome.Result)),
			zap.Error(err),
		)
		return
	}
	if result.Skipped {
		logger.Warn("Recharge transaction not recorded",
			zap.String("result", string(outcome.Result)),
			zap.String("reason", result.Reason),
		)
		return
	}

	logger.Info("Recharge transaction recorded",
		zap.Int64("transaction_id", result.ID),
		zap.String("result", string(outcome.Result)),
	)
}
