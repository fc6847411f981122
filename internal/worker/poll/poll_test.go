package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleFromConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	s := ScheduleFromConfig("unset")
	assert.Equal(t, Schedule{
		Interval:      10 * time.Second,
		BatchSize:     100,
		RetryInterval: 30 * time.Second,
		Lease:         60 * time.Second,
	}, s)

	viper.Set("outbox.poll_interval_seconds", 2)
	viper.Set("outbox.batch_size", 7)
	viper.Set("outbox.retry_interval_seconds", 5)
	viper.Set("outbox.lease_seconds", 15)

	s = ScheduleFromConfig("outbox")
	assert.Equal(t, 2*time.Second, s.Interval)
	assert.Equal(t, 7, s.BatchSize)
	assert.Equal(t, 5*time.Second, s.RetryInterval)
	assert.Equal(t, 15*time.Second, s.Lease)
}

func TestSchedule_Backoff(t *testing.T) {
	s := Schedule{RetryInterval: 30 * time.Second}

	assert.Equal(t, 30*time.Second, s.Backoff(0))
	assert.Equal(t, 60*time.Second, s.Backoff(1))
	assert.Equal(t, 120*time.Second, s.Backoff(2))
	assert.Equal(t, 240*time.Second, s.Backoff(3))
}

func TestLoop_TicksUntilStopped(t *testing.T) {
	var ticks atomic.Int32
	l := NewLoop("test", time.Millisecond, func(context.Context) {
		ticks.Add(1)
	})

	done := make(chan struct{})
	go func() {
		l.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	l.Stop()
	l.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "loop did not stop")
	}
}

func TestLoop_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop("test", time.Hour, func(context.Context) {})

	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "loop did not stop")
	}
}
