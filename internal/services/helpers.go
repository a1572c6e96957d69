package services

import (
	"context"
	"time"

	"scholarhub/internal/events"
	"scholarhub/internal/metrics"
	"scholarhub/internal/sequence"

	"go.uber.org/zap"
)

// allocateID draws the next value of counter. A failure aborts the
// caller's creation with an infrastructure error.
func allocateID(ctx context.Context, seq sequence.Generator, counter string, logger *zap.Logger) (int64, error) {
	id, err := seq.Next(ctx, counter)
	metrics.ObserveAllocation(counter, err)
	if err != nil {
		logger.Error("Failed to allocate identifier", zap.String("counter", counter), zap.Error(err))
		return 0, NewInfrastructureError("failed to allocate identifier", err)
	}
	return id, nil
}

// publish hands evt to the bus without waiting for handlers. Delivery
// failures are logged and never fail the caller.
func publish(ctx context.Context, bus events.EventBus, logger *zap.Logger, evt events.Event) {
	if bus == nil {
		return
	}
	if err := bus.PublishAsync(ctx, evt); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("event_type", evt.GetEventType()),
			zap.String("event_id", evt.GetEventID()),
			zap.Error(err))
	}
}

func defaultNow() time.Time { return time.Now().UTC() }

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
