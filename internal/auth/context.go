package auth

import "context"

type contextKey string

const (
	ClientIDKey contextKey = "client_id"
	TokenJTIKey contextKey = "token_jti"
	ScopesKey   contextKey = "scopes"
)

// ClientInfo identifies the authenticated sales channel
type ClientInfo struct {
	ClientID string
	TokenJTI string
	Scopes   []string
}

// WithClient adds client information to the context
func WithClient(ctx context.Context, info ClientInfo) context.Context {
	ctx = context.WithValue(ctx, ClientIDKey, info.ClientID)
	if info.TokenJTI != "" {
		ctx = context.WithValue(ctx, TokenJTIKey, info.TokenJTI)
	}
	if len(info.Scopes) > 0 {
		ctx = context.WithValue(ctx, ScopesKey, info.Scopes)
	}
	return ctx
}

// GetClientInfo extracts client information; ok is false for unauthenticated contexts
func GetClientInfo(ctx context.Context) (ClientInfo, bool) {
	clientID, ok := ctx.Value(ClientIDKey).(string)
	if !ok || clientID == "" {
		return ClientInfo{}, false
	}
	info := ClientInfo{ClientID: clientID}
	info.TokenJTI, _ = ctx.Value(TokenJTIKey).(string)
	info.Scopes, _ = ctx.Value(ScopesKey).([]string)
	return info, true
}

// GetClientID returns the authenticated client id or an empty string
func GetClientID(ctx context.Context) string {
	clientID, _ := ctx.Value(ClientIDKey).(string)
	return clientID
}
