package scripting

import (
	lua "github.com/yuin/gopher-lua"
)

// ReactHook is the Lua global consulted for persona reactions:
//
//	function react(persona, event, fields) return "line" or nil end
const ReactHook = "react"

// React asks scope's scripts for a persona's line about event. fields is
// exposed to Lua as a string-keyed table.
//
// Postcondition: Returns ("", false) when no script handles the event or the
// hook fails; otherwise the returned string is non-empty.
func (m *Manager) React(scope, persona, event string, fields map[string]string) (string, bool) {
	ret, _ := m.call(scope, ReactHook, func(L *lua.LState) []lua.LValue {
		tbl := L.NewTable()
		for k, v := range fields {
			tbl.RawSetString(k, lua.LString(v))
		}
		return []lua.LValue{lua.LString(persona), lua.LString(event), tbl}
	})
	s, ok := ret.(lua.LString)
	if !ok || s == "" {
		return "", false
	}
	return string(s), true
}
