package mocks

import (
	"bytes"
	"io"
	"net/http"
	"sync"

	adapterports "github.com/kevin07696/recharge-gateway/internal/adapters/ports"
)

var _ adapterports.HTTPClient = (*HTTPClient)(nil)

// HTTPClient records outbound carrier requests. Without a Respond func it
// answers 200 with an empty JSON object.
type HTTPClient struct {
	Respond func(req *http.Request) (*http.Response, error)

	mu       sync.Mutex
	requests []*http.Request
}

func NewHTTPClient(respond func(req *http.Request) (*http.Response, error)) *HTTPClient {
	return &HTTPClient{Respond: respond}
}

func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if c.Respond != nil {
		return c.Respond(req)
	}
	return JSONResponse(http.StatusOK, `{}`), nil
}

func (c *HTTPClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Requests returns a copy of the captured requests in call order
func (c *HTTPClient) Requests() []*http.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*http.Request(nil), c.requests...)
}

func JSONResponse(status int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     header,
	}
}
