package poll

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Schedule is how a queue worker polls its table and spaces out retries.
type Schedule struct {
	Interval      time.Duration
	BatchSize     int
	RetryInterval time.Duration
	// Lease is how long a claimed row stays invisible to other claimers.
	Lease time.Duration
}

// ScheduleFromConfig reads <prefix>.poll_interval_seconds, <prefix>.batch_size,
// <prefix>.retry_interval_seconds and <prefix>.lease_seconds. Unset keys fall back
// to 10s, 100, 30s and 60s.
func ScheduleFromConfig(prefix string) Schedule {
	return Schedule{
		Interval:      seconds(prefix+".poll_interval_seconds", 10),
		BatchSize:     intOr(prefix+".batch_size", 100),
		RetryInterval: seconds(prefix+".retry_interval_seconds", 30),
		Lease:         seconds(prefix+".lease_seconds", 60),
	}
}

// Backoff is RetryInterval * 2^attempt.
func (s Schedule) Backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt)) * float64(s.RetryInterval))
}

func seconds(key string, fallback int) time.Duration {
	return time.Duration(intOr(key, fallback)) * time.Second
}

func intOr(key string, fallback int) int {
	if v := viper.GetInt(key); v > 0 {
		return v
	}

	return fallback
}

// Loop calls tick on every interval until the context is done or Stop is called.
type Loop struct {
	name     string
	interval time.Duration
	tick     func(ctx context.Context)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop named for its log lines.
func NewLoop(name string, interval time.Duration, tick func(ctx context.Context)) *Loop {
	return &Loop{
		name:     name,
		interval: interval,
		tick:     tick,
		stopCh:   make(chan struct{}),
	}
}

// Start blocks until ctx is done or Stop is called.
func (l *Loop) Start(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	slog.Info("Worker started", "worker", l.name, "poll_interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Worker shutting down", "worker", l.name)

			return
		case <-l.stopCh:
			slog.Info("Worker stopped", "worker", l.name)

			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// Stop ends Start. Calling it more than once is safe.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
}
