package purchase

import "strings"

const (
	DefaultChannel = "RETAILER"
	DefaultPipe    = "GATEWAY_RECARGA"
)

var (
	allowedChannels = map[string]struct{}{DefaultChannel: {}}
	allowedPipes    = map[string]struct{}{DefaultPipe: {}}
)

// NormalizeChannel upper-cases the sale channel and coerces anything not allowed to RETAILER
func NormalizeChannel(channel string) string {
	return normalize(channel, allowedChannels, DefaultChannel)
}

// NormalizePipe upper-cases the sale pipe and coerces anything not allowed to GATEWAY_RECARGA
func NormalizePipe(pipe string) string {
	return normalize(pipe, allowedPipes, DefaultPipe)
}

func normalize(value string, allowed map[string]struct{}, fallback string) string {
	v := strings.ToUpper(strings.TrimSpace(value))
	if _, ok := allowed[v]; !ok {
		return fallback
	}
	return v
}
