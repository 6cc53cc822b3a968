package scripting

import (
	"github.com/l1jgo/origin/internal/procedure"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// openTimer installs the global timer table:
//
//	id = timer.add(delay, fn [, loop [, unscaled [, ...]]])
//	timer.remove(id) timer.pause(id) timer.resume(id) timer.remove_all()
//	timer.running(id) -> bool, timer.left(id) -> seconds
//	timer.reset(id, period, loop, unscaled [, fn])
func (e *Engine) openTimer() {
	t := e.vm.NewTable()
	e.vm.SetFuncs(t, map[string]lua.LGFunction{
		"add": func(L *lua.LState) int {
			delay := float64(L.CheckNumber(1))
			fn := L.CheckFunction(2)
			loop := L.OptBool(3, false)
			unscaled := L.OptBool(4, false)
			var args []any
			for i := 5; i <= L.GetTop(); i++ {
				args = append(args, L.Get(i))
			}
			id := e.timers.AddTimer(e.luaCallback("timer", fn), delay, loop, unscaled, args...)
			L.Push(lua.LNumber(id))
			return 1
		},
		"remove": func(L *lua.LState) int {
			e.timers.RemoveTimer(L.CheckInt(1))
			return 0
		},
		"pause": func(L *lua.LState) int {
			e.timers.PauseTimer(L.CheckInt(1))
			return 0
		},
		"resume": func(L *lua.LState) int {
			e.timers.ResumeTimer(L.CheckInt(1))
			return 0
		},
		"running": func(L *lua.LState) int {
			L.Push(lua.LBool(e.timers.Running(L.CheckInt(1))))
			return 1
		},
		"left": func(L *lua.LState) int {
			L.Push(lua.LNumber(e.timers.GetLeftTime(L.CheckInt(1))))
			return 1
		},
		"reset": func(L *lua.LState) int {
			id := L.CheckInt(1)
			period := float64(L.CheckNumber(2))
			loop := L.OptBool(3, false)
			unscaled := L.OptBool(4, false)
			if fn, ok := L.Get(5).(*lua.LFunction); ok {
				e.timers.ResetTimerCallback(id, e.luaCallback("timer", fn), period, loop, unscaled)
			} else {
				e.timers.ResetTimer(id, period, loop, unscaled)
			}
			return 0
		},
		"remove_all": func(L *lua.LState) int {
			e.timers.RemoveAllTimer()
			return 0
		},
	})
	e.vm.SetGlobal("timer", t)
}

// openProcedure installs procedure.define{name=, enter=, update=, leave=}
// and procedure.change(name).
func (e *Engine) openProcedure() {
	t := e.vm.NewTable()
	e.vm.SetFuncs(t, map[string]lua.LGFunction{
		"define": func(L *lua.LState) int {
			def := L.CheckTable(1)
			name := lStr(def, "name")
			if name == "" {
				L.ArgError(1, "procedure needs a name")
				return 0
			}
			if _, dup := e.names[name]; dup {
				L.RaiseError("procedure %q already defined", name)
				return 0
			}
			e.names[name] = struct{}{}
			e.defined = append(e.defined, &scriptProcedure{
				e:      e,
				name:   name,
				enter:  lFunc(def, "enter"),
				update: lFunc(def, "update"),
				leave:  lFunc(def, "leave"),
			})
			return 0
		},
		"change": func(L *lua.LState) int {
			if err := e.procs.Change(L.CheckString(1)); err != nil {
				L.RaiseError("%s", err.Error())
			}
			return 0
		},
	})
	e.vm.SetGlobal("procedure", t)
}

// openLog routes log.info/warn/error(msg) into the engine logger.
func (e *Engine) openLog() {
	emit := func(write func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			write(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}
	}
	t := e.vm.NewTable()
	e.vm.SetFuncs(t, map[string]lua.LGFunction{
		"info":  emit(e.log.Info),
		"warn":  emit(e.log.Warn),
		"error": emit(e.log.Error),
	})
	e.vm.SetGlobal("log", t)
}

// scriptProcedure is a procedure whose hooks are Lua functions.
type scriptProcedure struct {
	procedure.Base
	e      *Engine
	name   string
	enter  *lua.LFunction
	update *lua.LFunction
	leave  *lua.LFunction
}

func (p *scriptProcedure) Name() string { return p.name }

func (p *scriptProcedure) OnEnter(procedure.Driver) {
	if p.enter != nil {
		p.e.call(p.name+".enter", p.enter)
	}
}

func (p *scriptProcedure) OnUpdate(_ procedure.Driver, elapsed, realElapsed float64) {
	if p.update != nil {
		p.e.call(p.name+".update", p.update, lua.LNumber(elapsed), lua.LNumber(realElapsed))
	}
}

func (p *scriptProcedure) OnLeave(_ procedure.Driver, shutdown bool) {
	if p.leave != nil {
		p.e.call(p.name+".leave", p.leave, lua.LBool(shutdown))
	}
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// lFunc reads an optional function field from a Lua table.
func lFunc(t *lua.LTable, key string) *lua.LFunction {
	fn, _ := t.RawGetString(key).(*lua.LFunction)
	return fn
}
