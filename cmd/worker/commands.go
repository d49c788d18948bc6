package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qctrack/qctrack-backend/config"
	"github.com/qctrack/qctrack-backend/internal/bootstrap"
	"github.com/qctrack/qctrack-backend/internal/importer"
	"github.com/qctrack/qctrack-backend/internal/jobs"
	"github.com/qctrack/qctrack-backend/internal/logging"
	"github.com/qctrack/qctrack-backend/internal/storage/postgres"
)

// env is the connection set a command needs. close releases it.
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	services *bootstrap.Services
	close    func()
}

type envOptions struct {
	pool  bool
	redis bool
}

func openEnv(ctx context.Context, opt envOptions) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		return nil, err
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		_ = log.Sync()
	}

	db, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, func() { db.Close() })
	infra := bootstrap.Infra{Config: cfg, Log: log, DB: db}

	if opt.pool {
		pool, err := bootstrap.OpenPool(ctx, &cfg.Database)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, pool.Close)
		infra.Pool = pool
	}
	if opt.redis {
		rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
		if err != nil {
			closeAll()
			return nil, err
		}
		if rdb != nil {
			closers = append(closers, func() { rdb.Close() })
			infra.Redis = rdb
		}
	}

	return &env{cfg: cfg, log: log, services: bootstrap.NewServices(infra), close: closeAll}, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			// OpenDB migrates regardless of DB_MIGRATE here.
			cfg.Database.Migrate = true
			db, err := bootstrap.OpenDB(cmd.Context(), &cfg.Database, log)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}

func warmLookupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warm-lookups",
		Short: "Reload every lookup list into the Redis cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), envOptions{redis: true})
			if err != nil {
				return err
			}
			defer e.close()
			return jobs.NewScheduler(e.log).RunOnce(cmd.Context(), jobs.WarmLookups("", e.services.Lookups))
		},
	}
}

func snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Write today's QC snapshot for every live project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), envOptions{})
			if err != nil {
				return err
			}
			defer e.close()
			return jobs.NewScheduler(e.log).RunOnce(cmd.Context(), jobs.DailySnapshot("", e.services.Reports, e.log))
		},
	}
}

type importFunc func(ctx context.Context, im *importer.Importer, projectID int64, f *os.File) (int64, error)

func importActivities(ctx context.Context, im *importer.Importer, projectID int64, f *os.File) (int64, error) {
	return im.Activities(ctx, projectID, f)
}

func importDiscrepancies(ctx context.Context, im *importer.Importer, projectID int64, f *os.File) (int64, error) {
	return im.Discrepancies(ctx, projectID, f)
}

func importCmd(use, short string, run importFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <projectId> <file>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			e, err := openEnv(cmd.Context(), envOptions{pool: true})
			if err != nil {
				return err
			}
			defer e.close()

			n, err := run(cmd.Context(), e.services.Importer, projectID, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into project %d\n", n, projectID)
			return nil
		},
	}
}

func parseProjectID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}
