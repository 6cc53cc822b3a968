package timer_test

import (
	"testing"

	"github.com/l1jgo/origin/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(n *int) timer.Callback {
	return func(...any) { *n++ }
}

func TestLoopTimerCatchesUpWithinOneAdvance(t *testing.T) {
	s := timer.NewSystem(0, nil)
	fired := 0
	id := s.AddTimer(counter(&fired), 1.0, true, false)

	s.Advance(2.5, timer.Scaled)

	assert.Equal(t, 2, fired)
	assert.Equal(t, 0.5, s.GetLeftTime(id))
	assert.True(t, s.Running(id))
}

func TestLoopTimerFiresKTimes(t *testing.T) {
	tests := []struct {
		name    string
		period  float64
		k       int
		epsilon float64
	}{
		{"one period", 1, 1, 0.5},
		{"three halves", 0.5, 3, 0.25},
		{"many quarters", 0.25, 17, 0.125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := timer.NewSystem(0, nil)
			fired := 0
			id := s.AddTimer(counter(&fired), tt.period, true, false)

			s.Advance(float64(tt.k)*tt.period+tt.epsilon, timer.Scaled)

			assert.Equal(t, tt.k, fired)
			assert.InDelta(t, tt.period-tt.epsilon, s.GetLeftTime(id), 1e-9)
		})
	}
}

func TestOneShotFiresOnceAndIsForgotten(t *testing.T) {
	s := timer.NewSystem(0, nil)
	var got []any
	id := s.AddTimer(func(args ...any) { got = append(got, args...) }, 0.5, false, false, "a", 7)

	s.Advance(0.25, timer.Scaled)
	assert.Empty(t, got)
	assert.Equal(t, 0.25, s.GetLeftTime(id))

	s.Advance(5, timer.Scaled)
	assert.Equal(t, []any{"a", 7}, got)
	assert.False(t, s.Running(id))
	assert.Zero(t, s.GetLeftTime(id))
	assert.Zero(t, s.Count(timer.Scaled))

	s.Advance(5, timer.Scaled)
	assert.Len(t, got, 2)
}

func TestDomainsAdvanceIndependently(t *testing.T) {
	s := timer.NewSystem(0, nil)
	scaled, unscaled := 0, 0
	s.AddTimer(counter(&scaled), 1, false, false)
	s.AddTimer(counter(&unscaled), 1, false, true)

	// game paused: scaled time frozen, real time moves
	s.Update(0, 1)
	assert.Equal(t, 0, scaled)
	assert.Equal(t, 1, unscaled)

	s.Update(1, 0)
	assert.Equal(t, 1, scaled)
}

func TestPauseFreezesRemaining(t *testing.T) {
	s := timer.NewSystem(0, nil)
	fired := 0
	id := s.AddTimer(counter(&fired), 1, false, false)

	s.Advance(0.5, timer.Scaled)
	s.PauseTimer(id)
	assert.False(t, s.Running(id))

	s.Advance(10, timer.Scaled)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 0.5, s.GetLeftTime(id))

	s.ResumeTimer(id)
	s.Advance(0.5, timer.Scaled)
	assert.Equal(t, 1, fired)
}

func TestRemoveInsideOwnCallbackStopsLoop(t *testing.T) {
	s := timer.NewSystem(0, nil)
	fired := 0
	var id int
	id = s.AddTimer(func(...any) {
		fired++
		s.RemoveTimer(id)
	}, 1, true, false)

	s.Advance(10, timer.Scaled)
	assert.Equal(t, 1, fired)
	assert.False(t, s.Running(id))

	s.Advance(10, timer.Scaled)
	assert.Equal(t, 1, fired)
	assert.Zero(t, s.Count(timer.Scaled))
}

func TestRemoveOtherTimerDuringPass(t *testing.T) {
	s := timer.NewSystem(0, nil)
	var order []string
	var second int
	s.AddTimer(func(...any) {
		order = append(order, "first")
		s.RemoveTimer(second)
	}, 1, false, false)
	second = s.AddTimer(func(...any) { order = append(order, "second") }, 1, false, false)
	s.AddTimer(func(...any) { order = append(order, "third") }, 1, false, false)

	s.Advance(1, timer.Scaled)
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestAddDuringPassWaitsForNextAdvance(t *testing.T) {
	s := timer.NewSystem(0, nil)
	inner := 0
	s.AddTimer(func(...any) {
		s.AddTimer(counter(&inner), 0, false, false)
	}, 1, false, false)

	s.Advance(1, timer.Scaled)
	assert.Equal(t, 0, inner)
	assert.Equal(t, 1, s.Count(timer.Scaled))

	s.Advance(0, timer.Scaled)
	assert.Equal(t, 1, inner)
}

func TestRemoveAllInsideCallback(t *testing.T) {
	s := timer.NewSystem(0, nil)
	fired := 0
	s.AddTimer(func(...any) {
		fired++
		s.RemoveAllTimer()
	}, 1, true, false)
	s.AddTimer(counter(&fired), 1, false, false)
	s.AddTimer(counter(&fired), 1, false, true)

	s.Advance(1, timer.Scaled)
	assert.Equal(t, 1, fired)
	assert.Zero(t, s.Count(timer.Scaled))
	assert.Zero(t, s.Count(timer.Unscaled))
}

func TestResetSwitchesDomain(t *testing.T) {
	s := timer.NewSystem(0, nil)
	fired := 0
	id := s.AddTimer(counter(&fired), 1, false, false)

	s.ResetTimer(id, 2, true, true)
	assert.Equal(t, 0, s.Count(timer.Scaled))
	assert.Equal(t, 1, s.Count(timer.Unscaled))
	assert.Equal(t, 2.0, s.GetLeftTime(id))

	s.Advance(5, timer.Scaled)
	assert.Equal(t, 0, fired)

	s.Advance(4, timer.Unscaled)
	assert.Equal(t, 2, fired)
}

func TestResetDuringPassMovesToOtherDomain(t *testing.T) {
	s := timer.NewSystem(0, nil)
	fired := 0
	var id int
	id = s.AddTimer(func(...any) {
		fired++
		if fired == 1 {
			s.ResetTimer(id, 3, false, true)
		}
	}, 1, true, false)

	s.Advance(1, timer.Scaled)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, s.Count(timer.Scaled))
	assert.Equal(t, 1, s.Count(timer.Unscaled))
	assert.Equal(t, 3.0, s.GetLeftTime(id))

	s.Advance(3, timer.Unscaled)
	assert.Equal(t, 2, fired)
	assert.False(t, s.Running(id))
}

func TestResetCallbackSwapsCallback(t *testing.T) {
	s := timer.NewSystem(0, nil)
	a, b := 0, 0
	id := s.AddTimer(counter(&a), 1, false, false)
	s.ResetTimerCallback(id, counter(&b), 0.5, false, false)

	s.Advance(0.5, timer.Scaled)
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
}

func TestOneShotRearmedByCallbackSurvives(t *testing.T) {
	s := timer.NewSystem(0, nil)
	fired := 0
	var id int
	id = s.AddTimer(func(...any) {
		fired++
		if fired < 3 {
			s.ResetTimer(id, 1, false, false)
		}
	}, 1, false, false)

	for i := 0; i < 5; i++ {
		s.Advance(1, timer.Scaled)
	}
	assert.Equal(t, 3, fired)
	assert.Zero(t, s.Count(timer.Scaled))
}

func TestResetFromCallbackWaitsForNextPass(t *testing.T) {
	s := timer.NewSystem(0, nil)
	later := s.AddTimer(nil, 5, false, false)
	s.AddTimer(func(...any) { s.ResetTimer(later, 1, false, false) }, 0.1, false, false)

	s.Advance(0.5, timer.Scaled)
	assert.Equal(t, 1.0, s.GetLeftTime(later))
	assert.True(t, s.Running(later))

	s.Advance(1, timer.Scaled)
	assert.Zero(t, s.Count(timer.Scaled))
}

func TestResetToZeroFromCallbackFiresNextAdvance(t *testing.T) {
	s := timer.NewSystem(0, nil)
	fired := 0
	target := s.AddTimer(counter(&fired), 3, false, false)
	s.AddTimer(func(...any) { s.ResetTimer(target, 0, false, false) }, 0.5, false, false)

	s.Advance(1, timer.Scaled)
	assert.Equal(t, 0, fired)
	assert.Zero(t, s.GetLeftTime(target))

	s.Advance(0.1, timer.Scaled)
	assert.Equal(t, 1, fired)
}

func TestStaleIdsAreTolerated(t *testing.T) {
	s := timer.NewSystem(0, nil)
	assert.NotPanics(t, func() {
		s.PauseTimer(42)
		s.ResumeTimer(42)
		s.RemoveTimer(42)
		s.ResetTimer(42, 1, true, true)
		s.ResetTimerCallback(42, nil, 1, false, false)
	})
	assert.False(t, s.Running(42))
	assert.Zero(t, s.GetLeftTime(42))
}

func TestIdsAreNeverReused(t *testing.T) {
	s := timer.NewSystem(0, nil)
	a := s.AddTimer(nil, 1, false, false)
	s.RemoveTimer(a)
	b := s.AddTimer(nil, 1, false, false)
	s.RemoveAllTimer()
	c := s.AddTimer(nil, 1, false, false)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestCatchUpIsCapped(t *testing.T) {
	s := timer.NewSystem(3, nil)
	fired := 0
	id := s.AddTimer(counter(&fired), 1, true, false)

	s.Advance(10.5, timer.Scaled)

	assert.Equal(t, 4, fired)
	assert.Equal(t, 0.5, s.GetLeftTime(id))
}

func TestZeroPeriodLoopFiresOncePerAdvance(t *testing.T) {
	s := timer.NewSystem(0, nil)
	fired := 0
	s.AddTimer(counter(&fired), 0, true, false)

	s.Advance(0.1, timer.Scaled)
	s.Advance(0.1, timer.Scaled)
	assert.Equal(t, 2, fired)
	assert.Equal(t, uint64(2), s.Fired())
}

func TestShutdownDropsEverything(t *testing.T) {
	s := timer.NewSystem(0, nil)
	require.NoError(t, s.Init())
	s.AddTimer(nil, 1, false, false)
	s.AddTimer(nil, 1, true, true)
	s.Shutdown()
	assert.Zero(t, s.Count(timer.Scaled))
	assert.Zero(t, s.Count(timer.Unscaled))
}
