package metrics_test

import (
	"testing"
	"time"

	"github.com/l1jgo/origin/internal/core/di"
	"github.com/l1jgo/origin/internal/core/system"
	"github.com/l1jgo/origin/internal/metrics"
	"github.com/l1jgo/origin/internal/timer"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFrame(t *testing.T) {
	c := metrics.NewCollector()
	c.ObserveFrame(2*time.Millisecond, 3)
	c.ObserveFrame(time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Frames))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.FixedSteps))
	assert.Equal(t, 1, testutil.CollectAndCount(c.FrameDuration))
}

func TestRegistryExposesAllMetrics(t *testing.T) {
	c := metrics.NewCollector()
	c.Timers.WithLabelValues("scaled").Set(0)

	n, err := testutil.GatherAndCount(c.Registry())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestSystemSamplesCoreAndTimers(t *testing.T) {
	core := system.NewCore(nil)
	core.Initialize(di.New(nil))

	timers, err := system.RegisterSystem(core, timer.Key, timer.Driver(timer.NewSystem(0, nil)))
	require.NoError(t, err)
	ts := timers.(*timer.System)

	c := metrics.NewCollector()
	_, err = system.RegisterSystem(core, metrics.Key, metrics.Reporter(metrics.NewSystem(c, core, ts)))
	require.NoError(t, err)

	ts.AddTimer(nil, 1, true, false)
	ts.AddTimer(nil, 5, false, true)

	core.Tick(2, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Services))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Tickable))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Timers.WithLabelValues("scaled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Timers.WithLabelValues("unscaled")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.TimerFired))

	rep := system.MustGetService(core, metrics.Key)
	snap := rep.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, timer.Key.ID(), snap[0].ID)
	assert.Equal(t, metrics.Key.ID(), snap[1].ID)
	assert.Equal(t, system.PriorityMetrics, snap[1].Priority)

	core.Tick(1, 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(c.TimerFired))

	core.Shutdown()
	assert.Empty(t, rep.Snapshot())
}
