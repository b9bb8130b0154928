package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// SessionPurger deletes session audit rows whose expiry passed before cutoff.
// Implemented by the auth repository.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionPurgeJob removes stale session audit rows. Tokens themselves expire
// in Redis; this only keeps the audit table from growing without bound.
type SessionPurgeJob struct {
	purger SessionPurger
	logger *slog.Logger
	clock  func() time.Time
}

// NewSessionPurgeJob initialises the purge handler.
func NewSessionPurgeJob(purger SessionPurger, logger *slog.Logger) *SessionPurgeJob {
	return &SessionPurgeJob{
		purger: purger,
		logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the purge.
func (j *SessionPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.purger == nil {
		return errors.New("session purge: handler not configured")
	}
	var payload SessionPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.GraceHours < 0 {
		payload.GraceHours = 0
	}

	cutoff := j.clock().Add(-time.Duration(payload.GraceHours) * time.Hour)
	deleted, err := j.purger.PurgeExpiredSessions(ctx, cutoff)
	if err != nil {
		if j.logger != nil {
			j.logger.Error("session purge", slog.Any("error", err))
		}
		return err
	}
	if j.logger != nil {
		j.logger.Info("session purge complete", slog.Int64("deleted", deleted))
	}
	return nil
}
