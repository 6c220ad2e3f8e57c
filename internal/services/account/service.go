package account

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/internal/domain/ports"
	"github.com/kevin07696/recharge-gateway/pkg/security"
)

// Service exposes the carrier token and subscriber profile to sales channels
type Service struct {
	gateway ports.CarrierGateway
	tokens  ports.TokenProvider
	logger  *zap.Logger
}

// NewService creates the account service
func NewService(gateway ports.CarrierGateway, tokens ports.TokenProvider, logger *zap.Logger) *Service {
	return &Service{gateway: gateway, tokens: tokens, logger: logger}
}

// Token returns the cached carrier token envelope, refreshing it when needed
func (s *Service) Token(ctx context.Context) (*models.Token, error) {
	return s.tokens.GetToken(ctx)
}

// Lookup resolves the subscriber profile. A non-blank explicitToken is used as-is;
// otherwise the cached token is used.
func (s *Service) Lookup(ctx context.Context, msisdn, explicitToken string) (*models.AccountInfo, error) {
	accessToken := strings.TrimSpace(explicitToken)
	if accessToken == "" {
		tok, err := s.tokens.GetToken(ctx)
		if err != nil {
			return nil, err
		}
		accessToken = tok.AccessToken
	}

	info, err := s.gateway.LookupMsisdn(ctx, msisdn, accessToken)
	if err != nil {
		s.logger.Warn("MSISDN lookup failed",
			zap.String("msisdn", security.MaskMsisdn(msisdn)),
			zap.Bool("explicit_token", explicitToken != ""),
			zap.Error(err),
		)
		return nil, err
	}
	return info, nil
}
