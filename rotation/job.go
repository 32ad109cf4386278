package rotation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job runs rotation passes on a fixed interval
type Job struct {
	rotator  *Rotator
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewJob creates a rotation job. A non-positive interval defaults to one hour.
func NewJob(rotator *Rotator, interval time.Duration) *Job {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Job{
		rotator:  rotator,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start runs one pass immediately and then one per interval. It blocks
// until ctx is cancelled or Stop is called.
func (j *Job) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	slog.Info("rotation job started", "interval", j.interval, "datasets", j.rotator.Datasets())

	j.runPass(ctx)

	for {
		select {
		case <-ticker.C:
			j.runPass(ctx)
		case <-j.stopChan:
			slog.Info("rotation job stopped")
			return
		case <-ctx.Done():
			slog.Info("rotation job context cancelled")
			return
		}
	}
}

// Stop signals the loop to exit. It is safe to call more than once.
func (j *Job) Stop() {
	j.stopOnce.Do(func() { close(j.stopChan) })
}

func (j *Job) runPass(ctx context.Context) {
	report, err := j.rotator.RunRotationPass(ctx)
	if err != nil {
		slog.Error("rotation pass aborted", "error", err)
		return
	}
	if report.TotalRemoved > 0 {
		slog.Info("rotation pass finished",
			"removed", report.TotalRemoved, "usage_before", report.UsageBefore, "usage_after", report.UsageAfter)
	}
}
