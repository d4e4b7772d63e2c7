package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name  string
	err   error
	calls atomic.Int64
}

func (j *fakeJob) Name() string        { return j.name }
func (j *fakeJob) Description() string { return "test job" }

func (j *fakeJob) Run(ctx context.Context) error {
	j.calls.Add(1)
	return j.err
}

func quietConfig() Config {
	return Config{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		TickInterval: 5 * time.Millisecond,
	}
}

func TestScheduler_RegisterValidation(t *testing.T) {
	s := New(quietConfig())

	require.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	require.ErrorIs(t, s.Register(&fakeJob{name: "a"}, nil), ErrNilSchedule)

	require.NoError(t, s.Register(&fakeJob{name: "a"}, NewIntervalSchedule(time.Minute)))
	err := s.Register(&fakeJob{name: "a"}, NewIntervalSchedule(time.Minute))
	require.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(quietConfig())
	job := &fakeJob{name: "refresh"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "refresh")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.Equal(t, "refresh", result.JobName)
	assert.Equal(t, int64(1), job.calls.Load())

	_, err = s.RunNow(context.Background(), "missing")
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNowRecordsFailure(t *testing.T) {
	s := New(quietConfig())
	boom := errors.New("warehouse unreachable")
	job := &fakeJob{name: "refresh", err: boom}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "refresh")
	require.ErrorIs(t, err, boom)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, boom, result.Error)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, int64(1), infos[0].RunCount)
	assert.Equal(t, int64(1), infos[0].FailCount)
	require.NotNil(t, infos[0].LastResult)
	assert.False(t, infos[0].LastResult.Success)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(quietConfig())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	s := New(quietConfig())
	job := &fakeJob{name: "refresh"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	require.Eventually(t, func() bool {
		return job.calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond, "the scheduler must keep running a due interval job")
}

func TestScheduler_ListJobs(t *testing.T) {
	s := New(quietConfig())
	require.NoError(t, s.Register(&fakeJob{name: "refresh"}, NewIntervalSchedule(30*time.Minute)))

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "refresh", infos[0].Name)
	assert.Equal(t, "@every 30m0s", infos[0].Schedule)
	assert.False(t, infos[0].NextRun.IsZero())
	assert.Nil(t, infos[0].LastResult)
}
