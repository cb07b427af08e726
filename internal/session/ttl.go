package session

import (
	"context"
	"log/slog"
	"time"
)

const ttlWorkerInterval = time.Minute

// CleanupCallback is called for each session removed by the TTL worker.
type CleanupCallback func(sessionID string)

// StartTTLWorker runs a background goroutine that periodically removes
// sessions idle for longer than ttl.
func StartTTLWorker(ctx context.Context, mgr *Manager, ttl time.Duration, onCleanup CleanupCallback) {
	ticker := time.NewTicker(ttlWorkerInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("TTL worker started", "interval", ttlWorkerInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				cleanupExpiredSessions(mgr, ttl, onCleanup)
			case <-ctx.Done():
				slog.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func cleanupExpiredSessions(mgr *Manager, ttl time.Duration, onCleanup CleanupCallback) {
	expired := mgr.Sweep(ttl)
	if len(expired) == 0 {
		return
	}

	for _, id := range expired {
		if onCleanup != nil {
			onCleanup(id)
		}
	}
	slog.Info("TTL worker cleanup completed", "cleaned", len(expired), "remaining", mgr.Len())
}
