// Package jobs runs the scheduled background work: lookup cache warm-up and
// the daily QC snapshot.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/qctrack/qctrack-backend/internal/metrics"
)

const defaultTimeout = 5 * time.Minute

type Job struct {
	Name string
	// Spec is a six-field cron expression (seconds first).
	Spec string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLogger{log}))),
		log:     log,
		timeout: defaultTimeout,
	}
}

// Add registers job. An empty spec disables it.
func (s *Scheduler) Add(job Job) error {
	if job.Spec == "" {
		s.log.Info("cron job disabled", zap.String("job", job.Name))
		return nil
	}
	if _, err := s.cron.AddFunc(job.Spec, func() { s.RunOnce(context.Background(), job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
	}
	s.log.Info("cron job scheduled", zap.String("job", job.Name), zap.String("spec", job.Spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("cron scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop prevents new runs; the returned context is done once running jobs
// finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce executes job with a bounded context, then logs and counts the run.
func (s *Scheduler) RunOnce(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	err := job.Run(ctx)
	metrics.CronRunsTotal.WithLabelValues(job.Name, metrics.Result(err)).Inc()

	fields := []zap.Field{zap.String("job", job.Name), zap.Duration("took", time.Since(started))}
	if err != nil {
		s.log.Error("cron job failed", append(fields, zap.Error(err))...)
		return err
	}
	s.log.Info("cron job finished", fields...)
	return nil
}

// cronLogger adapts zap to cron.Logger for panic recovery output.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
