package timer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSorted(t *testing.T, s *System) {
	t.Helper()
	for d := range s.lanes {
		l := s.lanes[d]
		assert.Empty(t, l.pending, "pending left behind in %s lane", Domain(d))
		for i := 1; i < len(l.timers); i++ {
			require.LessOrEqual(t, l.timers[i-1].remaining, l.timers[i].remaining,
				"%s lane out of order at %d", Domain(d), i)
		}
	}
}

func TestInsertKeepsAscendingOrderWithTiesAtTail(t *testing.T) {
	s := NewSystem(0, nil)
	a := s.AddTimer(nil, 3, false, false)
	b := s.AddTimer(nil, 1, false, false)
	c := s.AddTimer(nil, 2, false, false)
	d := s.AddTimer(nil, 1, false, false)

	ids := make([]int, 0, 4)
	for _, tm := range s.lanes[Scaled].timers {
		ids = append(ids, tm.id)
	}
	assert.Equal(t, []int{b, d, c, a}, ids)
}

func TestLanesStaySortedUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := NewSystem(0, nil)
	var ids []int

	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(6); op {
		case 0, 1:
			delay := float64(rng.Intn(40)+1) / 8
			ids = append(ids, s.AddTimer(nil, delay, rng.Intn(2) == 0, rng.Intn(2) == 0))
		case 2:
			if len(ids) > 0 {
				s.PauseTimer(ids[rng.Intn(len(ids))])
			}
		case 3:
			if len(ids) > 0 {
				s.ResumeTimer(ids[rng.Intn(len(ids))])
			}
		case 4:
			if len(ids) > 0 {
				s.ResetTimer(ids[rng.Intn(len(ids))], float64(rng.Intn(16)+1)/4, rng.Intn(2) == 0, rng.Intn(2) == 0)
			}
		case 5:
			s.Update(float64(rng.Intn(24))/8, float64(rng.Intn(24))/8)
		}
		assertSorted(t, s)
	}
}

func TestTombstonesAreCompactedOncePerPass(t *testing.T) {
	s := NewSystem(0, nil)
	var victims []int
	for i := 0; i < 5; i++ {
		victims = append(victims, s.AddTimer(nil, 2, true, false))
	}
	s.AddTimer(func(...any) {
		for _, id := range victims {
			s.RemoveTimer(id)
		}
		// 走訪中只標記，不移動底層陣列
		assert.Len(t, s.lanes[Scaled].timers, 6)
	}, 1, false, false)

	s.Advance(1, Scaled)
	assert.Empty(t, s.lanes[Scaled].timers)
	assert.Empty(t, s.byID)
}
