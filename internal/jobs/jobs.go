package jobs

import (
	"context"

	"go.uber.org/zap"

	"github.com/qctrack/qctrack-backend/config"
)

const (
	JobWarmLookups   = "warm-lookups"
	JobDailySnapshot = "daily-snapshot"
)

type Warmer interface {
	Warm(ctx context.Context) error
}

type Snapshotter interface {
	Snapshot(ctx context.Context) (int64, error)
}

func WarmLookups(spec string, w Warmer) Job {
	return Job{Name: JobWarmLookups, Spec: spec, Run: w.Warm}
}

func DailySnapshot(spec string, s Snapshotter, log *zap.Logger) Job {
	return Job{
		Name: JobDailySnapshot,
		Spec: spec,
		Run: func(ctx context.Context) error {
			n, err := s.Snapshot(ctx)
			if err != nil {
				return err
			}
			log.Info("daily snapshot written", zap.Int64("projects", n))
			return nil
		},
	}
}

// Register adds the standard jobs to s using the configured schedules.
func Register(s *Scheduler, cfg *config.CronConfig, w Warmer, snap Snapshotter, log *zap.Logger) error {
	for _, job := range []Job{
		WarmLookups(cfg.WarmLookups, w),
		DailySnapshot(cfg.DailySnapshot, snap, log),
	} {
		if err := s.Add(job); err != nil {
			return err
		}
	}
	return nil
}
