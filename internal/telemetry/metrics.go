package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitMeterProvider initializes the Prometheus exporter, the MeterProvider and
// Go runtime metrics. It returns an http.Handler for the /metrics endpoint and
// a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, nil, fmt.Errorf("start runtime metrics: %w", err)
	}

	return promhttp.Handler(), mp.Shutdown, nil
}

// SalesMetrics holds the instruments recorded by checkout and order reversal.
// A nil *SalesMetrics records nothing.
type SalesMetrics struct {
	checkouts      otelmetric.Int64Counter
	checkoutAmount otelmetric.Float64Histogram
	reversals      otelmetric.Int64Counter
	skippedItems   otelmetric.Int64Counter
}

func NewSalesMetrics(meter otelmetric.Meter) (*SalesMetrics, error) {
	checkouts, err := meter.Int64Counter("pos.checkouts",
		otelmetric.WithDescription("Checkout attempts by outcome"),
	)
	if err != nil {
		return nil, err
	}

	checkoutAmount, err := meter.Float64Histogram("pos.checkout.amount",
		otelmetric.WithDescription("Total of completed orders"),
	)
	if err != nil {
		return nil, err
	}

	reversals, err := meter.Int64Counter("pos.order.reversals",
		otelmetric.WithDescription("Orders reversed from the ledger"),
	)
	if err != nil {
		return nil, err
	}

	skippedItems, err := meter.Int64Counter("pos.reversal.skipped_items",
		otelmetric.WithDescription("Reversed order items whose product no longer exists"),
	)
	if err != nil {
		return nil, err
	}

	return &SalesMetrics{
		checkouts:      checkouts,
		checkoutAmount: checkoutAmount,
		reversals:      reversals,
		skippedItems:   skippedItems,
	}, nil
}

func (m *SalesMetrics) CheckoutCompleted(ctx context.Context, total float64) {
	if m == nil {
		return
	}
	m.checkouts.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("outcome", "completed")))
	m.checkoutAmount.Record(ctx, total)
}

func (m *SalesMetrics) CheckoutFailed(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.checkouts.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("outcome", "failed"),
		attribute.String("reason", reason),
	))
}

func (m *SalesMetrics) OrderReversed(ctx context.Context, skipped int) {
	if m == nil {
		return
	}
	m.reversals.Add(ctx, 1)
	if skipped > 0 {
		m.skippedItems.Add(ctx, int64(skipped))
	}
}
