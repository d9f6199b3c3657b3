package gateway

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce     sync.Once
	metricsInitErr  error
	metricsInstance *requestMetrics
)

// requestMetrics instruments request dispatch through the OpenTelemetry
// metric API. Without an SDK configured the instruments are no-ops, which is
// the normal case for a one-shot CLI run; harnesses that embed the client can
// install a meter provider and collect them.
type requestMetrics struct {
	requestsTotal   metric.Int64Counter
	failuresTotal   metric.Int64Counter
	requestDuration metric.Float64Histogram
}

func getRequestMetrics() (*requestMetrics, error) {
	metricsOnce.Do(func() {
		metricsInstance, metricsInitErr = newRequestMetrics()
	})
	return metricsInstance, metricsInitErr
}

func newRequestMetrics() (*requestMetrics, error) {
	meter := otel.GetMeterProvider().Meter("fakedevice.gateway")

	m := &requestMetrics{}

	var err error
	m.requestsTotal, err = meter.Int64Counter(
		"gateway_client_requests_total",
		metric.WithDescription("Total number of gateway requests dispatched"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.failuresTotal, err = meter.Int64Counter(
		"gateway_client_failures_total",
		metric.WithDescription("Total number of gateway requests that failed before an HTTP response"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.requestDuration, err = meter.Float64Histogram(
		"gateway_client_request_duration_seconds",
		metric.WithDescription("Wall-clock duration of gateway requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *requestMetrics) recordSuccess(ctx context.Context, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Int("status_code", statusCode))
	m.requestsTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *requestMetrics) recordFailure(ctx context.Context, errorType ErrorType, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("error_type", string(errorType)))
	m.requestsTotal.Add(ctx, 1, attrs)
	m.failuresTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
}
