package clock

import "time"

// FrameTime is the logic-frame snapshot. All values are seconds.
type FrameTime struct {
	Time              float64 // scaled time since start
	DeltaTime         float64 // scaled delta of this frame
	UnscaledDeltaTime float64
	UnscaledTime      float64
	FrameCount        int
}

// FixedTime is the fixed-step snapshot.
type FixedTime struct {
	Time      float64 // scaled fixed time since start
	DeltaTime float64 // the fixed step
}

// Options configures a Slicing.
type Options struct {
	Scale         float64       // game speed multiplier
	MaxDelta      time.Duration // real delta clamp per frame; 0 disables
	FixedStep     time.Duration // 0 disables fixed stepping
	MaxFixedSteps int           // fixed steps per frame before the backlog is dropped
}

// Slicing is the frame-level authoritative time source. Only the frame
// thread advances it; consumers read value snapshots.
type Slicing struct {
	frame FrameTime
	fixed FixedTime

	scale  float64
	paused bool

	maxDelta       float64
	fixedStep      float64
	maxFixedSteps  int
	accumulator    float64
	stepsThisFrame int
}

func NewSlicing(opts Options) *Slicing {
	s := &Slicing{
		maxDelta:      opts.MaxDelta.Seconds(),
		fixedStep:     opts.FixedStep.Seconds(),
		maxFixedSteps: opts.MaxFixedSteps,
	}
	s.SetScale(opts.Scale)
	if s.maxFixedSteps <= 0 {
		s.maxFixedSteps = 1
	}
	return s
}

// Frame returns the current frame snapshot.
func (s *Slicing) Frame() FrameTime { return s.frame }

// Fixed returns the current fixed-step snapshot.
func (s *Slicing) Fixed() FixedTime { return s.fixed }

// Scale returns the game speed multiplier.
func (s *Slicing) Scale() float64 { return s.scale }

// SetScale sets the game speed multiplier. Negative values clamp to zero.
func (s *Slicing) SetScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	s.scale = scale
}

// Pause freezes scaled time; unscaled time keeps running.
func (s *Slicing) Pause() { s.paused = true }

func (s *Slicing) Resume() { s.paused = false }

func (s *Slicing) Paused() bool { return s.paused }

// BeginFrame advances one logic frame by realDelta seconds of wall time.
func (s *Slicing) BeginFrame(realDelta float64) FrameTime {
	if realDelta < 0 {
		realDelta = 0
	}
	if s.maxDelta > 0 && realDelta > s.maxDelta {
		realDelta = s.maxDelta
	}
	scaled := realDelta * s.scale
	if s.paused {
		scaled = 0
	}

	s.frame.DeltaTime = scaled
	s.frame.UnscaledDeltaTime = realDelta
	s.frame.Time += scaled
	s.frame.UnscaledTime += realDelta
	s.frame.FrameCount++

	if s.fixedStep > 0 {
		s.accumulator += scaled
	}
	s.stepsThisFrame = 0
	return s.frame
}

// NextFixedStep consumes one fixed step from the accumulator. Call it in a
// loop after BeginFrame; it returns false once the accumulator is drained or
// the per-frame step budget is spent, in which case the backlog is dropped.
func (s *Slicing) NextFixedStep() (FixedTime, bool) {
	if s.fixedStep <= 0 || s.accumulator < s.fixedStep {
		return s.fixed, false
	}
	if s.stepsThisFrame >= s.maxFixedSteps {
		// 追不上就丟掉積壓，避免死亡螺旋
		s.accumulator = 0
		return s.fixed, false
	}
	s.stepsThisFrame++
	s.accumulator -= s.fixedStep
	s.fixed.DeltaTime = s.fixedStep
	s.fixed.Time += s.fixedStep
	return s.fixed, true
}
