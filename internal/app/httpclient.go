package app

import (
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewHTTPClient creates a client for outbound API calls. With New Relic
// enabled, calls made inside a request are recorded as external segments.
func NewHTTPClient(timeout time.Duration, nrApp *newrelic.Application) *http.Client {
	transport := http.DefaultTransport
	if nrApp != nil {
		transport = newrelic.NewRoundTripper(transport)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
