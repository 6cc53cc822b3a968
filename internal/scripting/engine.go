package scripting

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l1jgo/origin/internal/core/di"
	"github.com/l1jgo/origin/internal/core/system"
	"github.com/l1jgo/origin/internal/procedure"
	"github.com/l1jgo/origin/internal/timer"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

var ErrNoFunction = errors.New("scripting: lua global is not a function")

// Host is the scripting capability.
type Host interface {
	// Procedures returns the procedures defined by scripts, in definition order.
	Procedures() []procedure.Procedure
	// CallTimer schedules the global Lua function fn as a timer callback.
	CallTimer(fn string, loop, unscaled bool, delay float64) (int, error)
	DoString(name, src string) error
}

// Key is the capability surface the script host is registered under.
var Key = di.Capability[Host]("scripting.Host")

// Options configures an Engine.
type Options struct {
	Dir string
	Key []byte // nil rejects sealed scripts
}

// Engine wraps a single gopher-lua VM and exposes the timer, procedure and
// log APIs to scripts. Single-goroutine access only (frame thread).
type Engine struct {
	vm   *lua.LState
	log  *zap.Logger
	opts Options

	timers timer.Driver
	procs  procedure.Driver

	defined []procedure.Procedure
	names   map[string]struct{}
}

var (
	_ Host           = (*Engine)(nil)
	_ system.System  = (*Engine)(nil)
	_ system.Updater = (*Engine)(nil)
)

// NewEngine creates the Lua VM and installs the runtime API. Scripts are
// loaded by Init.
func NewEngine(opts Options, timers timer.Driver, procs procedure.Driver, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:     vm,
		log:    log,
		opts:   opts,
		timers: timers,
		procs:  procs,
		names:  make(map[string]struct{}),
	}
	e.openTimer()
	e.openProcedure()
	e.openLog()
	return e
}

func (e *Engine) Priority() int { return system.PriorityScripting }

func (e *Engine) Init() error {
	if err := e.loadDir(e.opts.Dir); err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	return nil
}

func (e *Engine) Shutdown() {
	e.Close()
}

// Update calls the global on_update(dt, real_dt) when scripts define it.
func (e *Engine) Update(elapsed, realElapsed float64) {
	if e.vm == nil {
		return
	}
	fn, ok := e.vm.GetGlobal("on_update").(*lua.LFunction)
	if !ok {
		return
	}
	e.call("on_update", fn, lua.LNumber(elapsed), lua.LNumber(realElapsed))
}

// loadDir loads all .lua and sealed scripts in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch {
		case strings.HasSuffix(entry.Name(), SealedExt):
			if err := e.loadSealed(path); err != nil {
				return err
			}
		case filepath.Ext(entry.Name()) == ".lua":
			if err := e.vm.DoFile(path); err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
		default:
			continue
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) loadSealed(path string) error {
	if e.opts.Key == nil {
		return fmt.Errorf("load %s: %w", path, ErrNoKey)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	plain, err := Open(e.opts.Key, raw)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return e.doChunk(path, plain)
}

func (e *Engine) doChunk(name string, src []byte) error {
	fn, err := e.vm.Load(bytes.NewReader(src), name)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}
	e.vm.Push(fn)
	if err := e.vm.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// DoString runs a Lua chunk.
func (e *Engine) DoString(name, src string) error {
	return e.doChunk(name, []byte(src))
}

func (e *Engine) Procedures() []procedure.Procedure {
	return append([]procedure.Procedure(nil), e.defined...)
}

func (e *Engine) CallTimer(name string, loop, unscaled bool, delay float64) (int, error) {
	fn, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoFunction, name)
	}
	return e.timers.AddTimer(e.luaCallback(name, fn), delay, loop, unscaled), nil
}

// call runs fn protected. Lua errors are logged and never reach the frame.
func (e *Engine) call(name string, fn *lua.LFunction, args ...lua.LValue) {
	if e.vm == nil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
	}
}

// luaCallback adapts a Lua function to a timer callback. Extra AddTimer
// args are Lua values and are passed back unchanged.
func (e *Engine) luaCallback(name string, fn *lua.LFunction) timer.Callback {
	return func(args ...any) {
		lArgs := make([]lua.LValue, 0, len(args))
		for _, a := range args {
			if v, ok := a.(lua.LValue); ok {
				lArgs = append(lArgs, v)
			}
		}
		e.call(name, fn, lArgs...)
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	if e.vm != nil {
		e.vm.Close()
		e.vm = nil
	}
}
