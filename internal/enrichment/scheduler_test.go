package enrichment

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphastack/backend/pkg/logger"
)

type slowRunner struct {
	calls atomic.Int64
	block chan struct{}
	fail  bool
}

func (r *slowRunner) Run(ctx context.Context) (RunResult, error) {
	r.calls.Add(1)
	if r.block != nil {
		<-r.block
	}
	if r.fail {
		return RunResult{}, assert.AnError
	}
	return RunResult{RunID: "run-test", Items: 1}, nil
}

func TestTick_RunsOnce(t *testing.T) {
	runner := &slowRunner{}
	s := NewScheduler(runner, time.Minute, logger.NewNop())

	s.tick(context.Background())

	assert.Equal(t, int64(1), runner.calls.Load())

	st := s.Status()
	assert.False(t, st.Running)
	assert.Equal(t, int64(1), st.RunCount)
	require.NotNil(t, st.LastRun)
}

func TestTick_SkipsWhileInFlight(t *testing.T) {
	runner := &slowRunner{block: make(chan struct{})}
	s := NewScheduler(runner, time.Minute, logger.NewNop())

	done := make(chan struct{})
	go func() {
		s.tick(context.Background())
		close(done)
	}()

	// wait until the first pass is in flight
	require.Eventually(t, func() bool {
		return s.Status().Running
	}, time.Second, 5*time.Millisecond)

	// a tick during an active pass is dropped, not queued
	s.tick(context.Background())
	assert.Equal(t, int64(1), runner.calls.Load())

	close(runner.block)
	<-done

	assert.False(t, s.Status().Running)
	assert.Equal(t, int64(1), s.Status().RunCount, "skipped ticks do not count as runs")
}

func TestTick_FailureReleasesGuard(t *testing.T) {
	runner := &slowRunner{fail: true}
	s := NewScheduler(runner, time.Minute, logger.NewNop())

	s.tick(context.Background())

	st := s.Status()
	assert.False(t, st.Running, "guard must release after a failed pass")
	assert.Nil(t, st.LastRun, "failed passes do not record a completion time")

	// the next tick proceeds normally
	runner.fail = false
	s.tick(context.Background())
	require.NotNil(t, s.Status().LastRun)
}

func TestStartStop(t *testing.T) {
	runner := &slowRunner{}
	s := NewScheduler(runner, time.Hour, logger.NewNop())

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	// the immediate pass fires without waiting for the first interval
	require.Eventually(t, func() bool {
		return runner.calls.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	st := s.Status()
	require.NotNil(t, st.NextRun)
	assert.True(t, st.NextRun.After(time.Now()))

	assert.Error(t, s.Start(context.Background()), "double start rejected")
}
