package history

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wealth-planner/internal/logger"
)

// DefaultSchedule runs daily at 23:30:00 (seconds field first).
const DefaultSchedule = "0 30 23 * * *"

// Scheduler runs Recorder.RecordAll on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	recorder *Recorder
	logger   *zap.Logger
	timeout  time.Duration
	ctx      context.Context
}

// NewScheduler creates a Scheduler. schedule uses the six-field cron format
// with seconds. timeout bounds each run (0 means no bound).
func NewScheduler(recorder *Recorder, schedule string, timeout time.Duration, l *zap.Logger) (*Scheduler, error) {
	l = logger.OrNop(l)
	s := &Scheduler{
		recorder: recorder,
		logger:   l,
		timeout:  timeout,
		ctx:      context.Background(),
	}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{l.Sugar()}),
		// Recover sits inside SkipIfStillRunning so a panicking run still
		// releases the running slot.
		cron.WithChain(
			cron.SkipIfStillRunning(cronLogger{l.Sugar()}),
			cron.Recover(cronLogger{l.Sugar()}),
		),
	)
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid history schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins scheduling. Runs inherit ctx; cancel it to abort an in-flight run.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.logger.Info("history scheduler started", zap.Int("entries", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop stops scheduling and returns a context done when running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce records today's snapshots immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (Summary, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.recorder.RecordAll(ctx, s.recorder.now())
}

func (s *Scheduler) run() {
	if _, err := s.RunOnce(s.ctx); err != nil {
		s.logger.Error("history run failed", zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
