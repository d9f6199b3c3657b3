// Package gateway implements the mutually-authenticated HTTPS client used to
// talk to a device-gateway as a simulated device.
package gateway

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds the whole request, handshake included. The underlying
// library would otherwise block indefinitely on an unresponsive peer.
const DefaultTimeout = 30 * time.Second

// Outcome is a completed HTTP exchange. Any status code counts, 4xx and 5xx
// included: reaching the point of having a status line means the TLS
// handshake and the request both succeeded at the transport level.
type Outcome struct {
	StatusCode int
	Body       string
}

// Client performs single GET requests over mutual TLS.
//
// The zero value is usable. One request per invocation, no retries, no
// connection reuse: the transport is built fresh per call and closed when the
// call returns.
type Client struct {
	// Timeout bounds the full exchange. Zero means DefaultTimeout.
	Timeout time.Duration

	// DialContext overrides the transport dialer when non-nil. Tests use it
	// to count connection attempts or to refuse them.
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Do dispatches one request described by target using the supplied
// credentials.
//
// Only the exact method "GET" is supported; anything else fails before any
// network I/O. Credential files are loaded lazily here rather than validated
// beforehand, so a missing certificate surfaces as a connection failure for
// the target URL, matching what a device with broken credentials would see.
func (c *Client) Do(ctx context.Context, method string, target Target, creds Credentials) (*Outcome, error) {
	metrics, err := getRequestMetrics()
	if err != nil {
		log.Debug().Err(err).Msg("request metrics unavailable")
		metrics = nil
	}

	started := time.Now()

	if method != http.MethodGet {
		failure := NewUnsupportedMethodError(method)
		metrics.recordFailure(ctx, failure.Type, time.Since(started))
		return nil, failure
	}

	url := target.URL()
	log.Debug().
		Str("url", url).
		Str("method", method).
		Msg("dispatching gateway request")

	tlsConfig, err := buildTLSConfig(creds)
	if err != nil {
		failure := NewConnectionError(url, err)
		metrics.recordFailure(ctx, failure.Type, time.Since(started))
		return nil, failure
	}

	transport := &http.Transport{TLSClientConfig: tlsConfig}
	if c.DialContext != nil {
		transport.DialContext = c.DialContext
	}
	defer transport.CloseIdleConnections()

	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   c.timeout(),
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		failure := NewConnectionError(url, err)
		metrics.recordFailure(ctx, failure.Type, time.Since(started))
		return nil, failure
	}

	response, err := httpClient.Do(request)
	if err != nil {
		failure := NewConnectionError(url, err)
		metrics.recordFailure(ctx, failure.Type, time.Since(started))
		return nil, failure
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		failure := NewConnectionError(url, err)
		metrics.recordFailure(ctx, failure.Type, time.Since(started))
		return nil, failure
	}

	duration := time.Since(started)
	metrics.recordSuccess(ctx, response.StatusCode, duration)
	log.Debug().
		Str("url", url).
		Int("status_code", response.StatusCode).
		Dur("duration", duration).
		Msg("gateway request completed")

	return &Outcome{
		StatusCode: response.StatusCode,
		Body:       string(body),
	}, nil
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}
