package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/astree/pulse/internal/repo"
)

// retryBackoff is the pause before the single retry of a failed store
// operation.
const retryBackoff = 100 * time.Millisecond

// retryOnce runs op and, when it fails with a transient store error, retries
// it exactly once after a short backoff. Service sentinels, not-found results,
// and context cancellation are surfaced immediately; those are not transient.
func retryOnce(ctx context.Context, name string, op func() error) error {
	err := op()
	if err == nil || !isTransient(err) {
		return err
	}

	log.Warn().Err(err).Str("op", name).Msg("store operation failed, retrying once")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(retryBackoff):
	}
	return op()
}

// isTransient reports whether err looks like an I/O level store failure
// rather than a deliberate business outcome.
func isTransient(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, gorm.ErrDuplicatedKey),
		repo.IsNotFound(err),
		errors.Is(err, ErrInvalidReactionType),
		errors.Is(err, ErrSubjectNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrNotificationNotFound),
		errors.Is(err, ErrForbiddenNotification):
		return false
	}
	// SQLite reports uniqueness violations as plain errors.
	return !strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
