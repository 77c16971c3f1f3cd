package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/jobs"
	"go.uber.org/zap"
)

type fakeSweeper struct {
	calls  atomic.Int32
	marked int64
	err    error
}

func (f *fakeSweeper) MarkOverdue(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("expected a deadline")
	}
	return f.marked, f.err
}

type fakeReminders struct {
	calls atomic.Int32
}

func (f *fakeReminders) SendOverdueReminders(ctx context.Context) (int, int, error) {
	f.calls.Add(1)
	return 1, 0, nil
}

func TestScheduler_AddAndRemoveJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("b", "0 0 6 * * *", func() {}))
	require.NoError(t, s.AddJob("a", "@every 1h", func() {}))
	assert.Equal(t, []string{"a", "b"}, s.GetJobNames())

	err := s.AddJob("a", "@every 1h", func() {})
	assert.Error(t, err)

	err = s.AddJob("bad", "not a schedule", func() {})
	assert.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, s.GetJobNames())

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetJobNames())
	assert.Error(t, s.RemoveJob("a"))

	_, ok := s.NextRun("missing")
	assert.False(t, ok)
}

func TestScheduler_NextRunAfterStart(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	require.NoError(t, s.AddJob("hourly", "@every 1h", func() {}))

	s.Start()
	defer s.Stop()

	next, ok := s.NextRun("hourly")
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), next, time.Minute)
}

func TestOverdueJob_Run(t *testing.T) {
	t.Run("sweeps then sends reminders", func(t *testing.T) {
		sweeper := &fakeSweeper{marked: 2}
		reminders := &fakeReminders{}

		jobs.NewOverdueJob(sweeper, reminders, zap.NewNop(), time.Minute).Run()

		assert.Equal(t, int32(1), sweeper.calls.Load())
		assert.Equal(t, int32(1), reminders.calls.Load())
	})

	t.Run("sweep failure still sends reminders", func(t *testing.T) {
		sweeper := &fakeSweeper{err: errors.New("db down")}
		reminders := &fakeReminders{}

		jobs.NewOverdueJob(sweeper, reminders, zap.NewNop(), 0).Run()

		assert.Equal(t, int32(1), reminders.calls.Load())
	})

	t.Run("no reminder sender", func(t *testing.T) {
		sweeper := &fakeSweeper{}

		jobs.NewOverdueJob(sweeper, nil, zap.NewNop(), time.Minute).Run()

		assert.Equal(t, int32(1), sweeper.calls.Load())
	})
}

func TestRegisterOverdueJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	sweeper := &fakeSweeper{}

	require.NoError(t, jobs.RegisterOverdueJob(s, sweeper, nil, zap.NewNop(), "0 0 6 * * *", time.Minute, true))
	assert.Equal(t, []string{jobs.OverdueJobName}, s.GetJobNames())

	assert.Eventually(t, func() bool { return sweeper.calls.Load() == 1 }, time.Second, 10*time.Millisecond)

	err := jobs.RegisterOverdueJob(s, sweeper, nil, zap.NewNop(), "0 0 6 * * *", time.Minute, false)
	assert.Error(t, err)
}
