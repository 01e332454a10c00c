package service

import (
	"context"
	"time"

	"todolists/internal/core/port"
)

func endSpan(ctx context.Context, probe port.Telemetry, span port.Span, service, operation string, startTime time.Time, err error) {
	if err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus("ok", "")
	}

	probe.RecordServiceOperation(ctx, service, operation, time.Since(startTime), err)
	span.End()
}
