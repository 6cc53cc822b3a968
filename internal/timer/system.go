package timer

import (
	"cmp"
	"math"
	"slices"

	"github.com/l1jgo/origin/internal/core/system"
	"go.uber.org/zap"
)

// DefaultMaxCatchUp bounds the extra passes one Advance spends re-firing
// looping timers whose period is shorter than the frame delta.
const DefaultMaxCatchUp = 1000

// lane is one time domain's countdown list, ascending by remaining.
type lane struct {
	timers  []*timer
	pending []*timer // added while walking, merged after the pass
	walking bool
}

// System is the timer service: two independent countdown lanes advanced once
// per frame. Single-goroutine access only (frame thread).
type System struct {
	log        *zap.Logger
	lanes      [2]lane
	byID       map[int]*timer
	nextID     int
	maxCatchUp int
	fired      uint64
}

var (
	_ Driver         = (*System)(nil)
	_ system.System  = (*System)(nil)
	_ system.Updater = (*System)(nil)
)

func NewSystem(maxCatchUp int, log *zap.Logger) *System {
	if maxCatchUp <= 0 {
		maxCatchUp = DefaultMaxCatchUp
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &System{
		log:        log,
		byID:       make(map[int]*timer),
		maxCatchUp: maxCatchUp,
	}
}

func (s *System) Priority() int { return system.PriorityTimer }

func (s *System) Init() error { return nil }

func (s *System) Shutdown() {
	s.RemoveAllTimer()
}

// Update advances the scaled lane by elapsed and the unscaled lane by realElapsed.
func (s *System) Update(elapsed, realElapsed float64) {
	s.Advance(elapsed, Scaled)
	s.Advance(realElapsed, Unscaled)
}

func (s *System) AddTimer(cb Callback, delay float64, loop, unscaled bool, args ...any) int {
	s.nextID++
	t := &timer{
		id:        s.nextID,
		remaining: delay,
		period:    delay,
		loop:      loop,
		domain:    domainOf(unscaled),
		running:   true,
		cb:        cb,
		args:      args,
	}
	s.byID[t.id] = t
	s.place(t)
	return t.id
}

func (s *System) PauseTimer(id int) {
	if t := s.lookup(id); t != nil {
		t.running = false
	}
}

func (s *System) ResumeTimer(id int) {
	if t := s.lookup(id); t != nil {
		t.running = true
	}
}

func (s *System) Running(id int) bool {
	t := s.lookup(id)
	return t != nil && t.running
}

func (s *System) GetLeftTime(id int) float64 {
	if t := s.lookup(id); t != nil {
		return t.remaining
	}
	return 0
}

func (s *System) ResetTimer(id int, period float64, loop, unscaled bool) {
	s.ResetTimerCallback(id, nil, period, loop, unscaled)
}

func (s *System) ResetTimerCallback(id int, cb Callback, period float64, loop, unscaled bool) {
	t := s.lookup(id)
	if t == nil {
		return
	}
	if cb != nil {
		t.cb = cb
	}
	target := domainOf(unscaled)
	src := &s.lanes[t.domain]

	if src.walking {
		// 走訪中：舊項目標記刪除，以同 id 新項目等下一次 pass
		moved := &timer{id: t.id, domain: target, running: t.running, cb: t.cb, args: t.args}
		moved.rearm(period, loop)
		t.removed = true
		s.byID[id] = moved
		s.place(moved)
		return
	}

	src.splice(t)
	t.domain = target
	t.rearm(period, loop)
	s.place(t)
}

func (s *System) RemoveTimer(id int) {
	t := s.lookup(id)
	if t == nil {
		return
	}
	delete(s.byID, id)
	t.removed = true
	if l := &s.lanes[t.domain]; !l.walking {
		l.splice(t)
	}
}

func (s *System) RemoveAllTimer() {
	clear(s.byID)
	for i := range s.lanes {
		l := &s.lanes[i]
		for _, t := range l.timers {
			t.removed = true
		}
		for _, t := range l.pending {
			t.removed = true
		}
		if l.walking {
			continue // swept when the pass ends
		}
		clear(l.timers)
		l.timers = l.timers[:0]
		clear(l.pending)
		l.pending = l.pending[:0]
	}
}

// Advance walks domain d once, firing every running timer that reaches zero.
// Looping timers that are still due after one period are re-fired in extra
// passes, at most maxCatchUp of them; the rest of the backlog is dropped.
func (s *System) Advance(delta float64, d Domain) {
	l := &s.lanes[d]
	if l.walking || len(l.timers) == 0 {
		return
	}
	l.walking = true
	n := len(l.timers)

	straggling := false
	for i := 0; i < n; i++ {
		t := l.timers[i]
		if t.removed || !t.running {
			continue
		}
		t.remaining -= delta
		if t.remaining <= 0 && s.expire(t) {
			straggling = true
		}
	}

	for pass := 0; straggling; pass++ {
		if pass == s.maxCatchUp {
			s.dropBacklog(l, n)
			break
		}
		straggling = false
		for i := 0; i < n; i++ {
			t := l.timers[i]
			if t.removed || !t.running || t.remaining > 0 {
				continue
			}
			if s.expire(t) {
				straggling = true
			}
		}
	}

	l.walking = false
	l.compact()
}

// expire fires t and settles it. It reports whether t is still due.
func (s *System) expire(t *timer) bool {
	s.fired++
	if t.cb != nil {
		t.cb(t.args...)
	}
	if t.removed || t.remaining > 0 {
		// removed or re-armed by its own callback
		return false
	}
	if !t.loop {
		t.removed = true
		if s.byID[t.id] == t {
			delete(s.byID, t.id)
		}
		return false
	}
	if t.period <= 0 {
		t.remaining = 0
		return false
	}
	// 累加週期而非重設，保留超出的時間
	t.remaining += t.period
	return t.remaining <= 0
}

func (s *System) dropBacklog(l *lane, n int) {
	for i := 0; i < n; i++ {
		t := l.timers[i]
		if t.removed || !t.running || !t.loop || t.period <= 0 || t.remaining > 0 {
			continue
		}
		skipped := math.Floor(-t.remaining/t.period) + 1
		t.remaining += skipped * t.period
		if t.remaining <= 0 {
			t.remaining += t.period
		}
		s.log.Warn("timer catch-up capped",
			zap.Int("id", t.id),
			zap.Float64("period", t.period),
			zap.Float64("dropped_periods", skipped),
		)
	}
}

// Count returns the number of live timers in domain d.
func (s *System) Count(d Domain) int {
	n := 0
	l := &s.lanes[d]
	for _, t := range l.timers {
		if !t.removed {
			n++
		}
	}
	for _, t := range l.pending {
		if !t.removed {
			n++
		}
	}
	return n
}

// Fired returns how many callbacks have fired since construction.
func (s *System) Fired() uint64 { return s.fired }

func (s *System) lookup(id int) *timer {
	t := s.byID[id]
	if t == nil || t.removed {
		return nil
	}
	return t
}

func (s *System) place(t *timer) {
	l := &s.lanes[t.domain]
	if l.walking {
		l.pending = append(l.pending, t)
		return
	}
	l.insert(t)
}

func (t *timer) rearm(period float64, loop bool) {
	t.period = period
	t.remaining = period
	t.loop = loop
}

// insert places t before the first timer with strictly more time left.
func (l *lane) insert(t *timer) {
	i := 0
	for ; i < len(l.timers); i++ {
		if l.timers[i].remaining > t.remaining {
			break
		}
	}
	l.timers = slices.Insert(l.timers, i, t)
}

func (l *lane) splice(t *timer) {
	if i := slices.Index(l.timers, t); i >= 0 {
		l.timers = slices.Delete(l.timers, i, i+1)
		return
	}
	if i := slices.Index(l.pending, t); i >= 0 {
		l.pending = slices.Delete(l.pending, i, i+1)
	}
}

// compact sweeps tombstones, merges pending additions and restores order.
func (l *lane) compact() {
	kept := l.timers[:0]
	for _, t := range l.timers {
		if !t.removed {
			kept = append(kept, t)
		}
	}
	clear(l.timers[len(kept):])
	l.timers = kept

	for _, t := range l.pending {
		if !t.removed {
			l.timers = append(l.timers, t)
		}
	}
	clear(l.pending)
	l.pending = l.pending[:0]

	slices.SortStableFunc(l.timers, func(a, b *timer) int {
		return cmp.Compare(a.remaining, b.remaining)
	})
}
