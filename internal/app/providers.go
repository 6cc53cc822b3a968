package app

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/google/wire"
	"github.com/l1jgo/origin/internal/clock"
	"github.com/l1jgo/origin/internal/config"
	"github.com/l1jgo/origin/internal/core/di"
	"github.com/l1jgo/origin/internal/core/system"
	"github.com/l1jgo/origin/internal/debug"
	"github.com/l1jgo/origin/internal/host"
	"github.com/l1jgo/origin/internal/metrics"
	"github.com/l1jgo/origin/internal/procedure"
	"github.com/l1jgo/origin/internal/scripting"
	"github.com/l1jgo/origin/internal/timer"
	"go.uber.org/zap"
)

// SessionID tags every log line of one run.
type SessionID string

func NewSessionID() SessionID { return SessionID(uuid.NewString()) }

// Services are the built-in services, resolved once at boot.
type Services struct {
	Timers     timer.Driver
	Procedures procedure.Driver
	Scripts    scripting.Host
	Reporter   metrics.Reporter
}

// RuntimeSet provides everything InitializeRuntime needs beyond its inputs.
var RuntimeSet = wire.NewSet(
	ProvideCore,
	ProvideClock,
	metrics.NewCollector,
	ProvideServices,
	ProvideLoop,
	ProvideDebugServer,
	wire.Struct(new(Runtime), "*"),
)

// ProvideCore builds the service core wired to a fresh container.
func ProvideCore(log *zap.Logger) *system.Core {
	core := system.NewCore(log.Named("core"))
	core.Initialize(di.New(nil))
	return core
}

func ProvideClock(cfg *config.Config) *clock.Slicing {
	return clock.NewSlicing(clock.Options{
		Scale:         cfg.Frame.GameSpeed,
		MaxDelta:      cfg.Frame.MaxDelta,
		FixedStep:     cfg.Frame.FixedStep,
		MaxFixedSteps: cfg.Frame.MaxFixedSteps,
	})
}

// ProvideServices binds the built-in services. The timer and script host are
// instantiated now; the procedure driver is pulled in lazily by the script
// host's factory. On failure everything already live is shut down.
func ProvideServices(core *system.Core, cfg *config.Config, log *zap.Logger, collector *metrics.Collector) (_ *Services, err error) {
	defer func() {
		if err != nil {
			core.Shutdown()
		}
	}()

	var key []byte
	if cfg.Scripting.KeyFile != "" {
		k, err := scripting.LoadKey(cfg.Scripting.KeyFile)
		if err != nil {
			return nil, err
		}
		key = k
	}

	err = system.BindSingleton(core, timer.Key, func(*di.Container) (timer.Driver, error) {
		return timer.NewSystem(cfg.Timer.MaxCatchUp, log.Named("timer")), nil
	}, true)
	if err != nil {
		return nil, fmt.Errorf("bind timer: %w", err)
	}

	err = system.BindSingleton(core, procedure.Key, func(*di.Container) (procedure.Driver, error) {
		return procedure.NewSystem(log.Named("procedure")), nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("bind procedure: %w", err)
	}

	err = system.BindSingleton(core, scripting.Key, func(*di.Container) (scripting.Host, error) {
		timers, err := system.GetService(core, timer.Key)
		if err != nil {
			return nil, err
		}
		procs, err := system.GetService(core, procedure.Key)
		if err != nil {
			return nil, err
		}
		opts := scripting.Options{Dir: cfg.Scripting.Dir, Key: key}
		return scripting.NewEngine(opts, timers, procs, log.Named("lua")), nil
	}, true)
	if err != nil {
		return nil, fmt.Errorf("bind scripting: %w", err)
	}

	svc := &Services{
		Timers:     system.MustGetService(core, timer.Key),
		Procedures: system.MustGetService(core, procedure.Key),
		Scripts:    system.MustGetService(core, scripting.Key),
	}

	stats, _ := svc.Timers.(metrics.TimerStats)
	svc.Reporter, err = system.RegisterSystem(core, metrics.Key, metrics.Reporter(metrics.NewSystem(collector, core, stats)))
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	return svc, nil
}

func ProvideLoop(core *system.Core, clk *clock.Slicing, cfg *config.Config, log *zap.Logger, collector *metrics.Collector) *host.Loop {
	loop := host.NewLoop(core, clk, cfg.Frame.Rate, log.Named("loop"))
	loop.SetObserver(collector)
	return loop
}

// ProvideDebugServer returns nil when the debug server is disabled.
func ProvideDebugServer(cfg *config.Config, svc *Services, collector *metrics.Collector, log *zap.Logger) *debug.Server {
	if !cfg.Debug.Enabled {
		return nil
	}
	h := debug.NewRouter(collector.Registry(), svc.Reporter.Snapshot)
	return debug.NewServer(cfg.Debug.BindAddress, h, log.Named("debug"))
}
