// Package telemetry wires OpenTelemetry trace, metric and log export,
// Pyroscope continuous profiling and the Prometheus business metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	Enabled bool
	// CollectorEndpoint is the OTLP gRPC host:port
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	ServiceVersion    string
	// Insecure sends OTLP in plaintext
	Insecure        bool
	MetricsInterval time.Duration

	ProfilingEnabled bool
	PyroscopeURL     string
}

// Providers is what Setup started. A disabled config leaves every field
// nil and the accessors fall back to the OpenTelemetry no-ops.
type Providers struct {
	traces   *sdktrace.TracerProvider
	metrics  *sdkmetric.MeterProvider
	logs     *sdklog.LoggerProvider
	service  string
	profiler stopper
	log      *zap.Logger
}

type stopper interface{ Stop() error }

// Setup starts the OTLP pipelines when cfg.Enabled and the profiler when
// cfg.ProfilingEnabled, installing them as the OpenTelemetry globals
func Setup(ctx context.Context, cfg Config, log *zap.Logger) (*Providers, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Providers{service: cfg.ServiceName, log: log.Named("telemetry")}
	if err := p.start(ctx, cfg); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	return p, nil
}

func (p *Providers) start(ctx context.Context, cfg Config) error {
	if cfg.Enabled {
		res, err := newResource(cfg)
		if err != nil {
			return err
		}
		if p.traces, err = startTraces(ctx, cfg, res); err != nil {
			return err
		}
		if p.metrics, err = startMetrics(ctx, cfg, res); err != nil {
			return err
		}
		if p.logs, err = startLogs(ctx, cfg, res); err != nil {
			return err
		}
		p.log.Info("OpenTelemetry export started",
			zap.String("collector_endpoint", cfg.CollectorEndpoint),
			zap.Float64("sampling_ratio", cfg.SamplingRatio),
		)
	}
	if !cfg.ProfilingEnabled {
		return nil
	}
	profiler, err := startProfiler(cfg, p.log.Named("pyroscope"))
	if err != nil {
		return err
	}
	p.profiler = profiler
	p.log.Info("Pyroscope profiler started", zap.String("server_address", cfg.PyroscopeURL))
	if p.traces != nil {
		// CPU samples carry the span_id label once both run
		otel.SetTracerProvider(withSpanProfiles(p.traces))
	}
	return nil
}

func (p *Providers) Tracing() bool   { return p.traces != nil }
func (p *Providers) Profiling() bool { return p.profiler != nil }

// Meter hands out the global no-op meter when metrics export is off
func (p *Providers) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if p.metrics == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return p.metrics.Meter(name, opts...)
}

// LogCore exports zap entries at or above level over OTLP. Tee it with the
// console core; it drops everything while log export is off.
func (p *Providers) LogCore(level zapcore.Level) zapcore.Core {
	if p.logs == nil {
		return zapcore.NewNopCore()
	}
	return bridgeCore(p.service, p.logs, level)
}

// Shutdown stops the profiler, then flushes logs, metrics and spans. It
// may be called again.
func (p *Providers) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if p.profiler != nil {
		errs = append(errs, p.profiler.Stop())
		p.profiler = nil
	}
	if p.logs != nil {
		errs = append(errs, p.logs.Shutdown(ctx))
		p.logs = nil
	}
	if p.metrics != nil {
		errs = append(errs, p.metrics.Shutdown(ctx))
		p.metrics = nil
	}
	if p.traces != nil {
		errs = append(errs, p.traces.Shutdown(ctx))
		p.traces = nil
	}
	return errors.Join(errs...)
}

func newResource(cfg Config) (*resource.Resource, error) {
	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}
	return res, nil
}
