package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/questeded/quested/internal/logger"
)

// TokenPurger deletes expired refresh, recovery and confirmation tokens.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeExpiredTokensTask removes auth tokens past their expiry.
type PurgeExpiredTokensTask struct{}

// Config returns the queue configuration for token purge tasks.
func (t PurgeExpiredTokensTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "purge_expired_tokens",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PurgeExpiredTokensProcessor creates a processor function for PurgeExpiredTokensTask.
func PurgeExpiredTokensProcessor(purger TokenPurger, log *logger.Logger) backlite.QueueProcessor[PurgeExpiredTokensTask] {
	return func(ctx context.Context, task PurgeExpiredTokensTask) error {
		if purger == nil {
			return fmt.Errorf("token purger not configured")
		}

		deleted, err := purger.PurgeExpired(ctx)
		if err != nil {
			return fmt.Errorf("purge expired tokens: %w", err)
		}

		log.Info("Purged expired auth tokens", "deleted", deleted)
		return nil
	}
}

// NewPurgeExpiredTokensQueue creates a backlite queue for token purge tasks.
func NewPurgeExpiredTokensQueue(purger TokenPurger, log *logger.Logger) backlite.Queue {
	return backlite.NewQueue(PurgeExpiredTokensProcessor(purger, log))
}
