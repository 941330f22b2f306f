package scheduler

import (
	"context"
	"fmt"
	"time"

	"dharmaverse/logger"
	"dharmaverse/models"
	"dharmaverse/ratelimit"
	"dharmaverse/services"
)

// ExpireLiveStreams ends broadcasts that have been live longer than maxAge.
func ExpireLiveStreams(streams services.LiveStreamService, activity services.ActivityService, maxAge time.Duration, now func() time.Time) Job {
	if now == nil {
		now = time.Now
	}
	return Job{
		Name: "expire_live_streams",
		Run: func(ctx context.Context) error {
			count, err := streams.ExpireStale(ctx, now().Add(-maxAge))
			if err != nil {
				return err
			}
			if count == 0 {
				return nil
			}

			logger.WithFields(map[string]interface{}{
				"count":   count,
				"max_age": maxAge.String(),
			}).Info("Expired stale live streams")

			details := fmt.Sprintf("Automatically ended %d live stream(s) older than %s", count, maxAge)
			return activity.Log(ctx, "system", "System", models.ActionExpireLiveStream, details)
		},
	}
}

// SweepRateLimits drops idle rate-limit keys.
func SweepRateLimits(stores ...*ratelimit.Store) Job {
	return Job{
		Name: "sweep_rate_limits",
		Run: func(ctx context.Context) error {
			removed := 0
			for _, store := range stores {
				removed += store.Sweep()
			}
			if removed > 0 {
				logger.Debug("Removed %d idle rate limit entries", removed)
			}
			return nil
		},
	}
}
