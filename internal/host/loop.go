package host

import (
	"context"
	"errors"
	"time"

	"github.com/l1jgo/origin/internal/clock"
	"github.com/l1jgo/origin/internal/core/system"
	"go.uber.org/zap"
)

// ErrReentrantTick is returned when Step is called from inside a frame.
var ErrReentrantTick = errors.New("host: re-entrant frame step")

const postQueueSize = 64

// FrameObserver receives per-frame timing, e.g. for metrics.
type FrameObserver interface {
	ObserveFrame(d time.Duration, fixedSteps int)
}

// Loop is the frame-tick source: it samples wall time once per logic frame,
// feeds the core the scaled and unscaled deltas, then drains the fixed steps.
type Loop struct {
	core     *system.Core
	clock    *clock.Slicing
	rate     time.Duration
	log      *zap.Logger
	observer FrameObserver

	posted   chan func()
	last     time.Time
	stepping bool
}

func NewLoop(core *system.Core, clk *clock.Slicing, rate time.Duration, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		core:   core,
		clock:  clk,
		rate:   rate,
		log:    log,
		posted: make(chan func(), postQueueSize),
	}
}

func (l *Loop) SetObserver(o FrameObserver) { l.observer = o }

// Clock returns the time source. Frame thread only.
func (l *Loop) Clock() *clock.Slicing { return l.clock }

// Post queues fn to run on the frame thread before the next frame.
// Safe from any goroutine; returns false when the queue is full.
func (l *Loop) Post(fn func()) bool {
	select {
	case l.posted <- fn:
		return true
	default:
		return false
	}
}

// Step runs one logic frame at wall time now.
func (l *Loop) Step(now time.Time) error {
	if l.stepping {
		return ErrReentrantTick
	}
	l.stepping = true
	defer func() { l.stepping = false }()

	l.drainPosted()

	var realDelta float64
	if !l.last.IsZero() {
		realDelta = now.Sub(l.last).Seconds()
	}
	l.last = now

	start := time.Now()
	f := l.clock.BeginFrame(realDelta)
	l.core.Tick(f.DeltaTime, f.UnscaledDeltaTime)

	steps := 0
	for {
		ft, ok := l.clock.NextFixedStep()
		if !ok {
			break
		}
		l.core.FixedTick(ft.DeltaTime)
		steps++
	}

	if l.observer != nil {
		l.observer.ObserveFrame(time.Since(start), steps)
	}
	return nil
}

func (l *Loop) drainPosted() {
	for {
		select {
		case fn := <-l.posted:
			fn()
		default:
			return
		}
	}
}

// Run ticks at the configured rate until ctx is done, then shuts the core down.
func (l *Loop) Run(ctx context.Context) error {
	defer l.core.Shutdown()

	ticker := time.NewTicker(l.rate)
	defer ticker.Stop()

	l.last = time.Now()
	l.log.Info("frame loop started", zap.Duration("rate", l.rate))

	for {
		select {
		case <-ctx.Done():
			l.drainPosted()
			l.log.Info("frame loop stopped")
			return nil
		case now := <-ticker.C:
			if err := l.Step(now); err != nil {
				return err
			}
		}
	}
}
