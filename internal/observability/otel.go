// Package observability configures OpenTelemetry tracing for the engine.
package observability

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/abhisek/drillz/internal/logger"
)

type Config struct {
	ServiceName string
	Version     string

	// Writer receives exported spans. Defaults to stderr so command output
	// on stdout stays clean.
	Writer io.Writer

	// SampleRatio is the fraction of root spans recorded, in [0,1].
	SampleRatio float64

	// Pretty indents the exported JSON.
	Pretty bool
}

// ConfigFromEnv reads DRILLZ_TRACE_RATIO and DRILLZ_TRACE_PRETTY.
func ConfigFromEnv(version string) Config {
	cfg := Config{ServiceName: "drillz", Version: version, SampleRatio: 1}
	if v := getEnv("DRILLZ_TRACE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.SampleRatio = min(1, max(0, f))
		}
	}
	cfg.Pretty = isTrue(getEnv("DRILLZ_TRACE_PRETTY"))
	return cfg
}

// Enabled reports whether DRILLZ_TRACE asks for tracing.
func Enabled() bool {
	return isTrue(getEnv("DRILLZ_TRACE"))
}

// Setup installs a global tracer provider exporting to cfg.Writer and
// returns its shutdown function, which flushes pending spans.
func Setup(ctx context.Context, log *logger.Logger, cfg Config) (func(context.Context) error, error) {
	if log == nil {
		log = logger.Nop()
	}
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "drillz"
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", name),
		attribute.String("service.version", strings.TrimSpace(cfg.Version)),
	))
	if err != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
	}

	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if cfg.Pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Debug("otel tracing initialized", "service", name, "ratio", cfg.SampleRatio)
	return tp.Shutdown, nil
}

func isTrue(v string) bool {
	v = strings.ToLower(v)
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
