package ports

import "net/http"

// HTTPClient is what the carrier adapter sends requests through.
// *http.Client satisfies it, as does the pooled client in pkg/http.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
