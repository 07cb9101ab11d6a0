package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Locker hands out a cross-replica lock per job. *cache.JobLock implements it.
type Locker interface {
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (func(), error)
}

// runLocked runs fn when the named lock is free. A nil locker always runs.
// It reports whether fn ran.
func runLocked(ctx context.Context, lock Locker, name string, ttl time.Duration, fn func(ctx context.Context)) bool {
	if lock != nil {
		release, err := lock.TryAcquire(ctx, name, ttl)
		if err != nil {
			log.Warn().Err(err).Str("job", name).Msg("Job lock unavailable, skipping tick")
			return false
		}
		if release == nil {
			log.Debug().Str("job", name).Msg("Job running on another replica")
			return false
		}
		defer release()
	}
	fn(ctx)
	return true
}

// loop calls tick every interval until ctx is canceled.
func loop(ctx context.Context, name string, interval time.Duration, tick func(ctx context.Context)) {
	log.Info().Str("job", name).Dur("interval", interval).Msg("Starting worker")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tick(ctx)
		case <-ctx.Done():
			log.Info().Str("job", name).Msg("Worker stopped")
			return
		}
	}
}
