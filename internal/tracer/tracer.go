// Package tracer provides the tracing hooks of statement execution. It wraps
// OpenTelemetry and defaults to a no-op tracer.
package tracer

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans around executed statements.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span is the subset of an OpenTelemetry span used by the executor.
type Span interface {
	SetAttributes(attrs ...attribute.KeyValue)
	RecordError(err error)
	SetStatus(code codes.Code, description string)
	End()
}

// NoopTracer is a tracer that does nothing. It is the default tracer.
type NoopTracer struct{}

// StartSpan returns the context unchanged with a no-op span.
func (n *NoopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, &NoopSpan{}
}

// NoopSpan is a span that does nothing.
type NoopSpan struct{}

// SetAttributes does nothing.
func (n *NoopSpan) SetAttributes(_ ...attribute.KeyValue) {}

// RecordError does nothing.
func (n *NoopSpan) RecordError(_ error) {}

// SetStatus does nothing.
func (n *NoopSpan) SetStatus(_ codes.Code, _ string) {}

// End does nothing.
func (n *NoopSpan) End() {}

// OtelTracer adapts an OpenTelemetry tracer.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer creates a new OpenTelemetry tracer adapter.
// The provided tracer must not be nil.
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

// StartSpan starts a client span.
func (t *OtelTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	return ctx, &OtelSpan{span: span}
}

// OtelSpan wraps an OpenTelemetry span.
type OtelSpan struct {
	span trace.Span
}

// SetAttributes sets OpenTelemetry attributes on the span.
func (s *OtelSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// RecordError records an error on the OpenTelemetry span.
func (s *OtelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

// SetStatus sets the status of the OpenTelemetry span.
func (s *OtelSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// End completes the OpenTelemetry span.
func (s *OtelSpan) End() {
	s.span.End()
}

// StatementInfo describes one executed statement.
type StatementInfo struct {
	// ID is the per-execution statement id.
	ID string
	// Op is the synthesizer operation, e.g. "updateNonEmptyById".
	Op string
	// SQL is the text submitted to the driver.
	SQL string
	// Database is the dialect name (mysql, postgres, sqlite).
	Database string
	// Table is the unquoted entity table.
	Table    string
	Duration time.Duration
	// Rows is the number of rows affected or returned.
	Rows  int64
	Error error
}

// SpanName returns the span name of a statement: "sqlassist.<op>".
func SpanName(op string) string {
	if op == "" {
		op = "statement"
	}
	return "sqlassist." + op
}

// AddStatementAttributes records info on span using the OpenTelemetry
// database semantic conventions and sets the span status.
// See: https://opentelemetry.io/docs/specs/semconv/database/
func AddStatementAttributes(span Span, info *StatementInfo) {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", info.Database),
		attribute.String("db.statement", info.SQL),
		attribute.String("db.operation", DetectOperation(info.SQL)),
		attribute.Float64("db.duration_ms", float64(info.Duration.Microseconds())/1000.0),
	}
	if info.ID != "" {
		attrs = append(attrs, attribute.String("sqlassist.statement_id", info.ID))
	}
	if info.Op != "" {
		attrs = append(attrs, attribute.String("sqlassist.op", info.Op))
	}
	if info.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", info.Table))
	}
	if info.Rows > 0 {
		attrs = append(attrs, attribute.Int64("db.rows_affected", info.Rows))
	}
	span.SetAttributes(attrs...)

	if info.Error != nil {
		span.RecordError(info.Error)
		span.SetStatus(codes.Error, info.Error.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// DetectOperation returns the leading SQL keyword in upper case: SELECT,
// INSERT, REPLACE, UPDATE, DELETE, or UNKNOWN.
func DetectOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	switch kw := strings.ToUpper(fields[0]); kw {
	case "SELECT", "INSERT", "REPLACE", "UPDATE", "DELETE":
		return kw
	case "WITH":
		return "SELECT"
	default:
		return "UNKNOWN"
	}
}
