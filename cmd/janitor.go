package cmd

import (
	"context"
	"time"

	"ticket-booking/internal/data/repository"

	"go.uber.org/zap"
)

// sessionGrace keeps expired sessions around briefly so a late logout
// still finds its row.
const sessionGrace = time.Hour

// SessionJanitor purges expired sessions every interval until ctx is done.
func SessionJanitor(ctx context.Context, sessions repository.SessionRepository, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeExpired(ctx, sessionGrace)
			if err != nil {
				logger.Warn("Failed to purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("Purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}
