package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/fasops-io/fasops/testing"
)

type fakePurger struct {
	cutoff  time.Time
	deleted int64
	err     error
	calls   int
}

func (f *fakePurger) PurgeExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestSessionPurgeAppliesGrace(t *testing.T) {
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	purger := &fakePurger{deleted: 7}
	job := NewSessionPurgeJob(purger, nil)
	job.clock = func() time.Time { return now }

	task, err := NewSessionPurgeTask(SessionPurgePayload{GraceHours: 24})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, 1, purger.calls)
	assert.True(t, purger.cutoff.Equal(now.Add(-24*time.Hour)), "cutoff %v", purger.cutoff)
}

func TestSessionPurgeNegativeGraceClamped(t *testing.T) {
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	purger := &fakePurger{}
	job := NewSessionPurgeJob(purger, nil)
	job.clock = func() time.Time { return now }

	task, err := NewSessionPurgeTask(SessionPurgePayload{GraceHours: -5})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.True(t, purger.cutoff.Equal(now), "cutoff %v", purger.cutoff)
}

func TestSessionPurgeBadPayloadSkipsRetry(t *testing.T) {
	job := NewSessionPurgeJob(&fakePurger{}, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskSessionPurge, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSessionPurgePropagatesError(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	job := NewSessionPurgeJob(purger, nil)

	task, err := NewSessionPurgeTask(SessionPurgePayload{})
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}
