package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/combatflow/internal/game/dice"
)

// RegisterModules registers the engine table into L:
//
//	engine.roll(expr)  -> integer value of a dice expression
//	engine.test(expr)  -> boolean outcome of a dice expression
//	engine.log(msg)    -> writes msg to the debug log
//
// Malformed expressions raise a Lua error.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "roll", L.NewFunction(m.luaRoll))
	L.SetField(engine, "test", L.NewFunction(m.luaTest))
	L.SetField(engine, "log", L.NewFunction(m.luaLog))
	L.SetGlobal("engine", engine)
}

func (m *Manager) luaRoll(L *lua.LState) int {
	v, err := m.eval.Evaluate(dice.Expression(L.CheckString(1)))
	if err != nil {
		L.RaiseError("engine.roll: %s", err.Error())
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (m *Manager) luaTest(L *lua.LState) int {
	ok, err := m.eval.Test(dice.Expression(L.CheckString(1)))
	if err != nil {
		L.RaiseError("engine.test: %s", err.Error())
		return 0
	}
	L.Push(lua.LBool(ok))
	return 1
}

func (m *Manager) luaLog(L *lua.LState) int {
	m.logger.Debug("lua", zap.String("msg", L.CheckString(1)))
	return 0
}
