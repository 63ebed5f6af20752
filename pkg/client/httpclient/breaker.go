// Package httpclient builds instrumented HTTP clients for downstream JSON services.
package httpclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rocketshoes/cartservice/pkg/config"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// errServerFailure marks a 5xx response so the breaker counts it as a failure.
var errServerFailure = errors.New("server failure")

// breakerTransport wraps every round trip in a circuit breaker.
// Transport errors and 5xx responses count as failures. 4xx responses such as 404 are successful calls.
type breakerTransport struct {
	next    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var serverResp *http.Response
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			serverResp = resp
			return nil, fmt.Errorf("%w: status %d", errServerFailure, resp.StatusCode)
		}
		return resp, nil
	})
	if errors.Is(err, errServerFailure) {
		// hand the 5xx response to the caller; the breaker has already recorded it
		return serverResp, nil
	}
	return resp, err
}

// NewBreaker creates a circuit breaker tripping on consecutive failures or on the failure ratio.
func NewBreaker(name string, cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[*http.Response] {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(counts.Requests > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.Requests)*100 > float64(cfg.ErrorRatePercent))
		},
	}
	return gobreaker.NewCircuitBreaker[*http.Response](st)
}

// New returns an http.Client with a request timeout, OpenTelemetry instrumentation and a circuit breaker.
// It never retries.
func New(name string, cfg config.HTTPClientConfig) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: otelhttp.NewTransport(&breakerTransport{
			next:    http.DefaultTransport,
			breaker: NewBreaker(name, cfg.CircuitBreaker),
		}),
	}
}
