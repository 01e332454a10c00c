package telemetry

import (
	"context"
	"time"

	"todolists/internal/core/port"
)

// NoOpProbe implements Telemetry with no operations - useful for testing or when telemetry is disabled
type NoOpProbe struct{}

func NewNoOpProbe() port.Telemetry {
	return &NoOpProbe{}
}

// NoOpSpan implements the Span interface with no operations
type NoOpSpan struct{}

func (s *NoOpSpan) End()                                       {}
func (s *NoOpSpan) SetAttributes(attrs map[string]interface{}) {}
func (s *NoOpSpan) SetStatus(code string, message string)      {}
func (s *NoOpSpan) RecordError(err error)                      {}

func (p *NoOpProbe) StartRepositorySpan(ctx context.Context, operation string, entity string, attrs map[string]interface{}) (context.Context, port.Span) {
	return ctx, &NoOpSpan{}
}

func (p *NoOpProbe) StartServiceSpan(ctx context.Context, service string, operation string, attrs map[string]interface{}) (context.Context, port.Span) {
	return ctx, &NoOpSpan{}
}

func (p *NoOpProbe) RecordRepositoryOperation(ctx context.Context, operation string, entity string, duration time.Duration, err error) {
}

func (p *NoOpProbe) RecordRepositoryQuery(ctx context.Context, operation string, entity string, query string, args []interface{}) {
}

func (p *NoOpProbe) RecordServiceOperation(ctx context.Context, service string, operation string, duration time.Duration, err error) {
}

func (p *NoOpProbe) RecordBusinessEvent(ctx context.Context, event string, entity string, entityID int64, metadata map[string]interface{}) {
}

func (p *NoOpProbe) RecordError(ctx context.Context, operation string, err error, metadata map[string]interface{}) {
}

// TelemetryOperation measures a repository operation from start to End.
type TelemetryOperation struct {
	probe     port.Telemetry
	ctx       context.Context
	span      port.Span
	startTime time.Time
	operation string
	entity    string
}

// StartOperation opens a repository span and starts the clock.
func StartOperation(probe port.Telemetry, ctx context.Context, operation, entity string, attrs map[string]interface{}) (context.Context, *TelemetryOperation) {
	ctx, span := probe.StartRepositorySpan(ctx, operation, entity, attrs)

	return ctx, &TelemetryOperation{
		probe:     probe,
		ctx:       ctx,
		span:      span,
		startTime: time.Now(),
		operation: operation,
		entity:    entity,
	}
}

func (op *TelemetryOperation) Query(query string, args []interface{}) {
	op.probe.RecordRepositoryQuery(op.ctx, op.operation, op.entity, query, args)
}

func (op *TelemetryOperation) SetAttributes(attrs map[string]interface{}) {
	op.span.SetAttributes(attrs)
}

// End records the outcome and closes the span. It returns err unchanged.
func (op *TelemetryOperation) End(err error) error {
	duration := time.Since(op.startTime)

	op.span.SetAttributes(map[string]interface{}{
		"operation.duration_ns": duration.Nanoseconds(),
	})

	if err != nil {
		op.span.SetStatus("error", err.Error())
		op.span.RecordError(err)
	} else {
		op.span.SetStatus("ok", "")
	}

	op.probe.RecordRepositoryOperation(op.ctx, op.operation, op.entity, duration, err)
	op.span.End()

	return err
}
