package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/auth"
)

// ClientTokenHeader carries the sales-channel JWT. Authorization is left for the
// carrier token the channel may pass through.
const ClientTokenHeader = "X-Client-Token"

// TokenValidator validates an inbound JWT
type TokenValidator interface {
	ValidateToken(token string) (*auth.JWTClaims, error)
}

// JWTAuth rejects requests without a valid client token
type JWTAuth struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewJWTAuth creates the middleware. A nil validator disables authentication.
func NewJWTAuth(validator TokenValidator, logger *zap.Logger) *JWTAuth {
	return &JWTAuth{validator: validator, logger: logger}
}

// Middleware wraps an HTTP handler with client token validation
func (a *JWTAuth) Middleware(next http.Handler) http.Handler {
	if a.validator == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(ClientTokenHeader))
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
		if raw == "" {
			a.reject(w, r, "missing client token")
			return
		}

		claims, err := a.validator.ValidateToken(raw)
		if err != nil {
			a.logger.Warn("Client token rejected",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			a.reject(w, r, "invalid client token")
			return
		}

		ctx := auth.WithClient(r.Context(), auth.ClientInfo{
			ClientID: claims.ClientID,
			TokenJTI: claims.ID,
			Scopes:   claims.Scopes,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *JWTAuth) reject(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   "No autorizado",
		"message": message,
	}); err != nil {
		a.logger.Error("Failed to encode error response", zap.Error(err))
	}
}
