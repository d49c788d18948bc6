package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qctrack/qctrack-backend/config"
	"github.com/qctrack/qctrack-backend/internal/metrics"
)

type fakeWarmer struct{ err error }

func (f fakeWarmer) Warm(context.Context) error { return f.err }

type fakeSnapshotter struct{ calls int }

func (f *fakeSnapshotter) Snapshot(ctx context.Context) (int64, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("expected a bounded context")
	}
	return 4, nil
}

func TestRunOnce_CountsResults(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	ok := metrics.CronRunsTotal.WithLabelValues(JobWarmLookups, "success")
	failed := metrics.CronRunsTotal.WithLabelValues(JobWarmLookups, "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	require.NoError(t, s.RunOnce(context.Background(), WarmLookups("", fakeWarmer{})))
	err := s.RunOnce(context.Background(), WarmLookups("", fakeWarmer{err: errors.New("redis down")}))
	assert.EqualError(t, err, "redis down")

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestRunOnce_BoundsContext(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	snap := &fakeSnapshotter{}

	require.NoError(t, s.RunOnce(context.Background(), DailySnapshot("", snap, zap.NewNop())))
	assert.Equal(t, 1, snap.calls)
}

func TestRegister(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	err := Register(s, &config.CronConfig{WarmLookups: "0 0 * * * *", DailySnapshot: ""},
		fakeWarmer{}, &fakeSnapshotter{}, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 1, "an empty schedule disables the job")

	err = Register(NewScheduler(zap.NewNop()), &config.CronConfig{WarmLookups: "every hour"},
		fakeWarmer{}, &fakeSnapshotter{}, zap.NewNop())
	assert.ErrorContains(t, err, "warm-lookups")
}
