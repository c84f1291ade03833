package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const bestEffortTimeout = 5 * time.Second

// bestEffort runs fn asynchronously with its own bounded context. Failures
// and panics are logged and never reach the caller: these are side effects
// (event publishes, activity log writes) that must not block or fail a
// recipient's navigation.
func bestEffort(log *zap.Logger, task string, fn func(context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("best-effort task panicked", zap.String("task", task), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), bestEffortTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Warn("best-effort task failed", zap.String("task", task), zap.Error(err))
		}
	}()
}
