// Package observability provides structured logging and distributed
// tracing for the authorization service.
//
// Logging is backed by zap behind a small Logger interface so packages
// can take a logger without depending on zap directly. Tracing is
// OpenTelemetry with an OTLP gRPC exporter; when tracing is disabled the
// global no-op tracer provider is used and span creation is free.
package observability
