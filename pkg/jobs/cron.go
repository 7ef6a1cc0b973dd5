package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task is a periodic unit of work run by the Scheduler.
type Task func(ctx context.Context) error

// Scheduler runs tasks on cron specs. Overlapping runs of the same task are skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler builds a scheduler evaluating specs in loc.
func NewScheduler(loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLogger := cron.VerbosePrintfLogger(zap.NewStdLog(logger.Named("cron")))
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers task under spec. Each run gets its own context bounded by timeout.
func (s *Scheduler) Add(name, spec string, timeout time.Duration, task Task) error {
	if timeout <= 0 {
		timeout = time.Minute
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(s.ctx, timeout)
		defer cancel()
		start := time.Now()
		if err := task(ctx); err != nil {
			s.logger.Error("scheduled task failed", zap.String("task", name), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
			return
		}
		s.logger.Debug("scheduled task finished", zap.String("task", name), zap.Duration("elapsed", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule %s with %q: %w", name, spec, err)
	}
	s.logger.Info("task scheduled", zap.String("task", name), zap.String("spec", spec))
	return nil
}

// Start begins running scheduled tasks in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs, cancels running ones and waits for them to return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
}
