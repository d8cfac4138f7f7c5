// Package telemetry bootstraps the OpenTelemetry metrics pipeline used by
// the trace stage. Metrics are opt-in; when disabled the global no-op meter
// provider stays in place and instrumentation costs nothing.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const exportInterval = 15 * time.Second

// Init installs a stdout metric exporter as the global meter provider when
// enabled. The returned shutdown function flushes pending metrics and must
// be called before process exit; it is a no-op when metrics are disabled.
func Init(enabled bool) (func(context.Context) error, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("create stdout metric exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval)),
		),
	)
	otel.SetMeterProvider(provider)
	return provider.Shutdown, nil
}
