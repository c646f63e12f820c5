package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/stream-herald/telemetry"
)

// StartPoller drives the engine at a fixed interval until ctx is cancelled.
// The first tick runs immediately so a fresh deploy doesn't sit silent for a
// full interval.
func StartPoller(ctx context.Context, e *Engine, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	slog.Info("poller started", slog.Duration("interval", interval))
	for {
		if ctx.Err() != nil {
			return
		}
		runOnce(ctx, e)
		select {
		case <-ctx.Done():
			slog.Info("poller stopped")
			return
		case <-ticker.C:
		}
	}
}

func runOnce(ctx context.Context, e *Engine) {
	corr := uuid.New().String()
	ctx = telemetry.WithCorrelation(ctx, corr)
	ctx, span := telemetry.StartSpan(ctx, "poller", "watch.tick")
	defer span.End()

	start := time.Now()
	events := e.RunTick(ctx)
	d := time.Since(start)
	telemetry.CountTick(d)

	log := telemetry.LoggerWithCorr(ctx)
	for _, ev := range events {
		log.Info("transition detected",
			slog.String("streamer", ev.Account),
			slog.String("kind", ev.Kind.String()))
	}
	log.Debug("tick complete",
		slog.Int("transitions", len(events)),
		slog.Duration("took", d))
}
