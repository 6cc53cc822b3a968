package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/l1jgo/origin/internal/clock"
	"github.com/l1jgo/origin/internal/config"
	"github.com/l1jgo/origin/internal/core/system"
	"github.com/l1jgo/origin/internal/data"
	"github.com/l1jgo/origin/internal/debug"
	"github.com/l1jgo/origin/internal/host"
	"github.com/l1jgo/origin/internal/metrics"
	"github.com/l1jgo/origin/internal/procedure"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Runtime is the assembled client runtime.
type Runtime struct {
	Config   *config.Config
	Log      *zap.Logger
	Level    zap.AtomicLevel
	Session  SessionID
	Core     *system.Core
	Clock    *clock.Slicing
	Metrics  *metrics.Collector
	Services *Services
	Loop     *host.Loop
	Debug    *debug.Server // nil when disabled
}

// BootReport summarizes what Boot started.
type BootReport struct {
	Procedures int
	Entry      string
	Timers     int
}

// Boot applies the bootstrap manifest: the script procedures it enables are
// handed to the procedure driver, the entry procedure is started and manifest timers are
// scheduled. Call it on the frame thread before Run.
func (rt *Runtime) Boot() (BootReport, error) {
	var rep BootReport
	m, err := data.LoadManifest(rt.Config.Scripting.Manifest)
	if err != nil {
		return rep, err
	}

	defined := rt.Services.Scripts.Procedures()
	known := make([]string, 0, len(defined))
	for _, p := range defined {
		known = append(known, p.Name())
	}
	if err := m.Validate(known); err != nil {
		return rep, fmt.Errorf("bootstrap manifest: %w", err)
	}

	var procs []procedure.Procedure
	var names []string
	for _, p := range defined {
		if m.Enabled(p.Name()) {
			procs = append(procs, p)
			names = append(names, p.Name())
		}
	}

	if len(procs) > 0 {
		if err := rt.Services.Procedures.Initialize(procs...); err != nil {
			return rep, err
		}
		entry := m.Entry
		if entry == "" {
			entry = names[0]
		}
		if err := rt.Services.Procedures.Start(entry); err != nil {
			return rep, err
		}
		rep.Procedures = len(procs)
		rep.Entry = entry
	}

	for _, t := range m.Timers {
		if _, err := rt.Services.Scripts.CallTimer(t.Func, t.Loop, t.Unscaled, t.Delay); err != nil {
			return rep, fmt.Errorf("bootstrap timer: %w", err)
		}
		rep.Timers++
	}
	return rep, nil
}

// Apply takes the live-tunable part of a reloaded config. Frame thread only;
// use WatchConfig to get here from the watcher goroutine.
func (rt *Runtime) Apply(cfg *config.Config) {
	if cfg.Frame.GameSpeed != rt.Clock.Scale() {
		rt.Log.Info("game speed changed",
			zap.Float64("from", rt.Clock.Scale()),
			zap.Float64("to", cfg.Frame.GameSpeed),
		)
		rt.Clock.SetScale(cfg.Frame.GameSpeed)
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err == nil && level != rt.Level.Level() {
		rt.Log.Info("log level changed", zap.Stringer("to", level))
		rt.Level.SetLevel(level)
	}
}

// WatchConfig reloads path on change and applies it on the frame thread.
func (rt *Runtime) WatchConfig(path string) (*config.Watcher, error) {
	w, err := config.NewWatcher(path, func(cfg *config.Config) {
		if !rt.Loop.Post(func() { rt.Apply(cfg) }) {
			rt.Log.Warn("frame queue full, config change dropped")
		}
	}, rt.Log.Named("config"))
	if err != nil {
		return nil, err
	}
	w.Start()
	return w, nil
}

// Run starts the debug server if enabled and drives frames until ctx is done.
// Services are shut down before Run returns.
func (rt *Runtime) Run(ctx context.Context) error {
	if rt.Debug != nil {
		if err := rt.Debug.Start(); err != nil {
			rt.Core.Shutdown()
			return err
		}
	}

	runErr := rt.Loop.Run(ctx)

	if rt.Debug != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.Debug.Shutdown(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			rt.Log.Warn("debug server shutdown", zap.Error(err))
		}
	}
	return runErr
}
