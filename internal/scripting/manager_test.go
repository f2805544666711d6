package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/combatflow/internal/game/dice"
	"github.com/cory-johannsen/combatflow/internal/scripting"
)

// fixedSource always rolls the highest face.
type fixedSource struct{}

func (fixedSource) Intn(n int) int { return n - 1 }

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	mgr := scripting.NewManager(dice.NewEvaluator(fixedSource{}, logger), logger, 0)
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func TestManager_LoadDir_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function test_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.LoadDir("brute", dir))
	ret, err := mgr.CallHook("brute", "test_hook", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
}

func TestManager_CallHook_MissingHook_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("brute", `-- no functions`))
	ret, err := mgr.CallHook("brute", "nonexistent_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_UnknownScript_LogsInfoReturnsNil(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret, err := mgr.CallHook("no_such_script", "some_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.InfoLevel).Len(), "expected Info log for missing script")
}

func TestManager_CallHookWith_BuildsTableArgs(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadString("brute", `
		function weigh(self)
			if self.hp == nil then
				error("no hp")
			end
			return self.hp * 2
		end
	`))
	ret, err := mgr.CallHookWith("brute", "weigh", func(L *lua.LState) []lua.LValue {
		tbl := L.NewTable()
		L.SetField(tbl, "hp", lua.LNumber(6))
		return []lua.LValue{tbl}
	})
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(12), ret)

	ret, err = mgr.CallHookWith("brute", "weigh", func(L *lua.LState) []lua.LValue {
		return []lua.LValue{L.NewTable()}
	})
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestManager_CallHook_RuntimeError_WarnLogNoPanic(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadString("brute", `
		function bad_hook()
			error("intentional error")
		end
	`))
	ret, err := mgr.CallHook("brute", "bad_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len(), "expected Warn log for Lua runtime error")
}

func TestManager_Call_PropagatesRuntimeError(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("brute", `function bad() error("boom") end`))
	_, err := mgr.Call("brute", "bad")
	assert.ErrorContains(t, err, "boom")

	_, err = mgr.Call("absent", "bad")
	assert.Error(t, err)
}

func TestManager_Call_InstructionLimitPerCall(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(dice.NewEvaluator(fixedSource{}, nil), zap.New(core), 200)
	defer mgr.Close()
	require.NoError(t, mgr.LoadString("loop", `
		function spin() while true do end end
		function cheap() return 1 end
	`))

	_, err := mgr.Call("loop", "spin")
	assert.Error(t, err)
	for i := 0; i < 5; i++ {
		ret, err := mgr.Call("loop", "cheap")
		require.NoError(t, err, "the limit is re-armed for every call")
		assert.Equal(t, lua.LNumber(1), ret)
	}
}

func TestManager_EngineModule(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadString("dice", `
		function roll() return engine.roll("2d6+1") end
		function check() return engine.test("1d6>5") end
		function bad() return engine.roll("2D6") end
		function say() engine.log("hello") end
	`))

	ret, err := mgr.Call("dice", "roll")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(13), ret)

	ret, err = mgr.Call("dice", "check")
	require.NoError(t, err)
	assert.Equal(t, lua.LTrue, ret)

	_, err = mgr.Call("dice", "bad")
	assert.Error(t, err)

	_, err = mgr.Call("dice", "say")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("lua").Len())
}

func TestManager_LoadGlobal_CallHookFallback(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "global.lua", `
		function global_hook()
			return 42
		end
	`)
	require.NoError(t, mgr.LoadGlobal(dir))
	ret, err := mgr.CallHook("unknown", "global_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(42), ret)
}

func TestManager_LoadDir_InvalidLua_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `this is not valid lua @@@@`)
	assert.Error(t, mgr.LoadDir("bad", dir))
	assert.False(t, mgr.Has("bad"))
	assert.Error(t, mgr.LoadString("", "x = 1"))
}

func TestManager_LoadDir_MultipleFiles_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`base_val = 10`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`
		function get_val() return base_val end
	`), 0644))
	require.NoError(t, mgr.LoadDir("ordered", dir))
	ret, err := mgr.CallHook("ordered", "get_val")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(10), ret)
}

func TestManager_Do_BuildsTables(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("t", `function count(tbl) return #tbl end`))
	var got lua.LValue
	err := mgr.Do("t", func(L *lua.LState) error {
		tbl := L.NewTable()
		tbl.Append(lua.LString("a"))
		tbl.Append(lua.LString("b"))
		var err error
		got, err = scripting.CallFunc(L, "count", tbl)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(2), got)
}

func TestProperty_CallHookMissingScriptNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t)
	rapid.Check(t, func(rt *rapid.T) {
		id := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "script")
		hook := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "hook")
		ret, err := mgr.CallHook(id, hook)
		if err != nil || ret != lua.LNil {
			rt.Fatalf("expected (LNil, nil), got (%v, %v)", ret, err)
		}
	})
}

func TestManager_ConcurrentSameScript_NoRace(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("conc", `
		function concurrent_hook(a, b)
			return a + b
		end
	`))

	const goroutines = 10
	const callsEach = 5
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				ret, err := mgr.CallHook("conc", "concurrent_hook", lua.LNumber(1), lua.LNumber(2))
				assert.NoError(t, err)
				assert.Equal(t, lua.LNumber(3), ret)
			}
		}()
	}
	wg.Wait()
}

func TestManager_Close_ReleasesScripts(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("closing", `function get_x() return 1 end`))
	mgr.Close()
	assert.False(t, mgr.Has("closing"))
	ret, err := mgr.CallHook("closing", "get_x")
	assert.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}
