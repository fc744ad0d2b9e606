package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine Lua table into L:
//
//	engine.ability_mod(score) -> floor((score - 10) / 2)
//	engine.log(msg)           -> debug log line
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetFuncs(engine, map[string]lua.LGFunction{
		"ability_mod": func(L *lua.LState) int {
			score := L.CheckInt(1)
			d := score - 10
			if d < 0 {
				d--
			}
			L.Push(lua.LNumber(d / 2))
			return 1
		},
		"log": func(L *lua.LState) int {
			m.logger.Debug("lua", zap.String("msg", L.CheckString(1)))
			return 0
		},
	})
	L.SetGlobal("engine", engine)
}
