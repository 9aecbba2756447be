package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Telemetry holds the providers installed for one run. Instrumented
// packages never see it; they reach the providers through the otel globals.
type Telemetry struct {
	config *Config
	logger *zap.Logger

	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider

	// failed names the signals whose exporter could not be created.
	failed  []string
	running atomic.Bool
}

// New validates cfg and, when telemetry is enabled, installs OTLP tracer
// and meter providers as the otel globals. An exporter that cannot be
// created leaves its signal on the no-op global and marks the instance
// degraded; it never fails the run.
func New(ctx context.Context, cfg *Config, logger *zap.Logger) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Telemetry{config: cfg, logger: logger}
	t.running.Store(true)
	if !cfg.Enabled {
		return t, nil
	}

	res := newResource(cfg)
	t.startTracing(ctx, res)
	if cfg.Metrics.Enabled {
		t.startMetrics(ctx, res)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Debug("telemetry enabled",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("protocol", cfg.Protocol),
		zap.Bool("metrics", t.meterProvider != nil),
		zap.Strings("failed", t.failed),
	)
	return t, nil
}

func (t *Telemetry) startTracing(ctx context.Context, res *resource.Resource) {
	exp, err := newSpanExporter(ctx, t.config)
	if err != nil {
		t.fail("trace", err)
		return
	}
	t.tracerProvider = newTracerProvider(t.config, res, exp)
	otel.SetTracerProvider(t.tracerProvider)
}

func (t *Telemetry) startMetrics(ctx context.Context, res *resource.Resource) {
	exp, err := newMetricExporter(ctx, t.config)
	if err != nil {
		t.fail("metric", err)
		return
	}
	t.meterProvider = newMeterProvider(t.config, res, exp)
	otel.SetMeterProvider(t.meterProvider)
}

func (t *Telemetry) fail(signal string, err error) {
	t.failed = append(t.failed, signal)
	t.logger.Warn("telemetry degraded", zap.String("signal", signal), zap.Error(exporterError(signal, err)))
}

// IsEnabled reports whether telemetry was configured on and has not been
// shut down.
func (t *Telemetry) IsEnabled() bool {
	return t != nil && t.config != nil && t.config.Enabled && t.running.Load()
}

// Degraded reports whether any exporter failed to start.
func (t *Telemetry) Degraded() bool {
	return t != nil && len(t.failed) > 0
}

// Shutdown flushes what the batch processors still hold and stops both
// providers. Without a ctx deadline the configured shutdown timeout
// applies. Calls after the first are no-ops.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || !t.running.Swap(false) {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok && t.config.Shutdown.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Shutdown.Timeout)
		defer cancel()
	}

	var errs []error
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace provider shutdown: %w", err))
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
