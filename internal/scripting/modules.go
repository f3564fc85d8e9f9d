package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerModules installs the arena global table into L:
//
//	arena.random(n)  -> integer in [1, n]
//	arena.chance(p)  -> true with probability p
//	arena.log(msg)   -> writes msg to the server log
//	arena.say(line)  -> forwards line to Manager.Announce
func (m *Manager) registerModules(L *lua.LState, scope string) {
	mod := L.NewTable()
	L.SetField(mod, "random", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n <= 0 {
			L.ArgError(1, "n must be > 0")
			return 0
		}
		L.Push(lua.LNumber(m.roller.Pick(n) + 1))
		return 1
	}))
	L.SetField(mod, "chance", L.NewFunction(func(L *lua.LState) int {
		p := float64(L.CheckNumber(1))
		L.Push(lua.LBool(m.roller.Chance(p)))
		return 1
	}))
	L.SetField(mod, "log", L.NewFunction(func(L *lua.LState) int {
		m.logger.Info("lua", zap.String("scope", scope), zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetField(mod, "say", L.NewFunction(func(L *lua.LState) int {
		line := L.CheckString(1)
		if m.Announce != nil {
			m.Announce(scope, line)
		}
		return 0
	}))
	L.SetGlobal("arena", mod)
}
