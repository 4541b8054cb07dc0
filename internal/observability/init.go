package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// Providers bundles the tracer, meter and logger constructed by [Init],
// plus a single Shutdown that tears down the tracer and meter providers in
// order.
type Providers struct {
	Tracer   trace.Tracer
	Meter    metric.Meter
	Logger   *slog.Logger
	Shutdown func(context.Context) error
}

// Init wires OpenTelemetry tracing and metrics plus a trace-correlated
// slog logger. An empty cfg.OTLPEndpoint runs fully no-op, which is the
// default for library embedding: callers opt into export explicitly.
func Init(cfg Config) (Providers, error) {
	res, err := sdkresource.New(context.Background(),
		sdkresource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return Providers{}, fmt.Errorf("build resource: %w", err)
	}

	var (
		tracerProvider trace.TracerProvider
		meterProvider  metric.MeterProvider
		shutdowns      []func(context.Context) error
	)

	if cfg.OTLPEndpoint == "" {
		tracerProvider = nooptrace.NewTracerProvider()
		meterProvider = noopmetric.NewMeterProvider()
	} else {
		traceOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithHeaders(cfg.OTLPHeaders),
		}
		if cfg.OTLPInsecure {
			traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		}

		traceExporter, err := otlptracegrpc.New(context.Background(), traceOpts...)
		if err != nil {
			return Providers{}, fmt.Errorf("build trace exporter: %w", err)
		}

		sdkTP := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(selectSampler(cfg)),
		)
		tracerProvider = sdkTP
		shutdowns = append(shutdowns, sdkTP.Shutdown)

		metricOpts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithHeaders(cfg.OTLPHeaders),
		}
		if cfg.OTLPInsecure {
			metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		}

		metricExporter, err := otlpmetricgrpc.New(context.Background(), metricOpts...)
		if err != nil {
			return Providers{}, fmt.Errorf("build metric exporter: %w", err)
		}

		sdkMP := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
			sdkmetric.WithResource(res),
		)
		meterProvider = sdkMP
		shutdowns = append(shutdowns, sdkMP.Shutdown)
	}

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)

	tracer := tracerProvider.Tracer(cfg.ServiceName)
	meter := meterProvider.Meter(cfg.ServiceName)

	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var base slog.Handler
	if cfg.LogJSON {
		base = slog.NewJSONHandler(os.Stdout, handlerOpts)
	} else {
		base = slog.NewTextHandler(os.Stdout, handlerOpts)
	}

	logger := slog.New(NewTracingHandler(base, cfg.ServiceName, cfg.Environment, cfg.Mode))

	shutdownTimeout := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
	if cfg.ShutdownTimeoutSec == 0 {
		shutdownTimeout = defaultShutdownTimeoutSec * time.Second
	}

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		var errs []error
		for _, fn := range shutdowns {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("observability shutdown: %v", errs)
		}
		return nil
	}

	return Providers{Tracer: tracer, Meter: meter, Logger: logger, Shutdown: shutdown}, nil
}

// selectSampler mirrors the OTEL_TRACES_SAMPLER / OTEL_TRACES_SAMPLER_ARG
// env var convention instead of inventing a bespoke flag set.
func selectSampler(cfg Config) sdktrace.Sampler {
	name := strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_TRACES_SAMPLER")))

	switch name {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(samplerRatio(cfg))
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(samplerRatio(cfg)))
	default:
		if cfg.TraceVerbose || cfg.DebugTrace {
			return sdktrace.AlwaysSample()
		}
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(samplerRatio(cfg)))
	}
}

func samplerRatio(cfg Config) float64 {
	if raw := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	if cfg.SampleRatio > 0 {
		return cfg.SampleRatio
	}
	return 1.0
}

// ParseOTLPHeaders parses a comma-separated key=value list, the format
// used by OTEL_EXPORTER_OTLP_HEADERS.
func ParseOTLPHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	if raw == "" {
		return headers
	}

	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 {
			continue
		}
		headers[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return headers
}
