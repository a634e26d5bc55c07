package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing provider.
type TracingConfig struct {
	// Enabled enables trace export.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// ServiceName is the name reported on every span.
	ServiceName string `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`

	// ServiceVersion is the version reported on every span.
	ServiceVersion string `yaml:"serviceVersion,omitempty" json:"serviceVersion,omitempty"`

	// Endpoint is the OTLP collector endpoint.
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// Insecure disables TLS for the exporter connection.
	Insecure bool `yaml:"insecure,omitempty" json:"insecure,omitempty"`

	// SampleRate is the sampling rate (0.0 to 1.0).
	SampleRate float64 `yaml:"sampleRate,omitempty" json:"sampleRate,omitempty"`

	// BatchTimeout is the maximum time to wait before exporting a batch.
	BatchTimeout time.Duration `yaml:"batchTimeout,omitempty" json:"batchTimeout,omitempty"`
}

// DefaultTracingConfig returns a TracingConfig with default values.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		Enabled:      false,
		ServiceName:  "cordon",
		Endpoint:     "localhost:4317",
		Insecure:     true,
		SampleRate:   1.0,
		BatchTimeout: 5 * time.Second,
	}
}

// TracingProvider manages the OpenTelemetry trace provider.
type TracingProvider struct {
	config         *TracingConfig
	tracerProvider *sdktrace.TracerProvider
	logger         Logger
}

// NewTracingProvider creates a new tracing provider.
func NewTracingProvider(config *TracingConfig, logger Logger) *TracingProvider {
	if config == nil {
		config = DefaultTracingConfig()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &TracingProvider{
		config: config,
		logger: logger,
	}
}

// Start initializes the tracer provider and installs it globally.
func (p *TracingProvider) Start(ctx context.Context) error {
	if !p.config.Enabled {
		return nil
	}

	res, err := p.createResource(ctx)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := p.createExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to create exporter: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(
		exporter,
		sdktrace.WithBatchTimeout(p.config.BatchTimeout),
	)

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
		sdktrace.WithSampler(p.createSampler()),
	)

	otel.SetTracerProvider(p.tracerProvider)

	p.logger.Info("tracing provider started",
		String("service", p.config.ServiceName),
		String("endpoint", p.config.Endpoint),
	)

	return nil
}

// Stop shuts down the tracing provider, flushing pending spans.
func (p *TracingProvider) Stop(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil
	}
	return p.tracerProvider.Shutdown(ctx)
}

// Tracer returns a tracer with the given name.
func (p *TracingProvider) Tracer(name string) trace.Tracer {
	if p.tracerProvider == nil {
		return otel.GetTracerProvider().Tracer(name)
	}
	return p.tracerProvider.Tracer(name)
}

// createResource creates the OpenTelemetry resource.
func (p *TracingProvider) createResource(ctx context.Context) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(p.config.ServiceName),
			semconv.ServiceVersion(p.config.ServiceVersion),
		),
		resource.WithHost(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
	)
}

// createExporter creates an OTLP gRPC exporter.
func (p *TracingProvider) createExporter(ctx context.Context) (*otlptrace.Exporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(p.config.Endpoint),
	}
	if p.config.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

// createSampler creates the trace sampler.
func (p *TracingProvider) createSampler() sdktrace.Sampler {
	if p.config.SampleRate <= 0 {
		return sdktrace.NeverSample()
	}
	if p.config.SampleRate >= 1.0 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.TraceIDRatioBased(p.config.SampleRate)
}
