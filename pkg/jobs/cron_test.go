package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	s := NewScheduler(nil, nil)
	err := s.Add("broken", "not a spec", time.Second, func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestSchedulerRunsTask(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	var runs int32
	require.NoError(t, s.Add("tick", "@every 1s", time.Second, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		atomic.AddInt32(&runs, 1)
		return nil
	}))

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}
