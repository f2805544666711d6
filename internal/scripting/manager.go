package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/combatflow/internal/game/dice"
)

// globalScriptID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no script VM is found.
const globalScriptID = "__global__"

// vm is one sandboxed LState. An LState is single-threaded, so every use
// holds mu.
type vm struct {
	mu sync.Mutex
	L  *lua.LState
}

// Manager owns one sandboxed VM per script ID and dispatches calls into them.
//
// Manager is safe for concurrent use. Calls into the same VM are serialised;
// different VMs run concurrently.
type Manager struct {
	mu        sync.RWMutex
	vms       map[string]*vm
	eval      *dice.Evaluator
	logger    *zap.Logger
	instLimit int
}

// NewManager creates a Manager whose VMs expose engine.roll and engine.test
// backed by eval.
//
// Precondition: eval must be non-nil. A nil logger disables logging.
// instLimit caps opcodes per load or call; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(eval *dice.Evaluator, logger *zap.Logger, instLimit int) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		vms:       make(map[string]*vm),
		eval:      eval,
		logger:    logger,
		instLimit: instLimit,
	}
}

// LoadDir creates a sandboxed VM for id, registers the engine module, then
// executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: id must be non-empty; scriptDir must be a readable directory.
// Postcondition: the VM replaces any previous VM for id; returns error on Lua load failure.
func (m *Manager) LoadDir(id, scriptDir string) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, id, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	return m.load(id, func(L *lua.LState) error {
		for _, path := range luaFiles {
			if err := L.DoFile(path); err != nil {
				return fmt.Errorf("scripting: loading %q for %q: %w", path, id, err)
			}
		}
		return nil
	})
}

// LoadString creates a sandboxed VM for id from a single chunk of source.
//
// Postcondition: the VM replaces any previous VM for id; returns error on Lua load failure.
func (m *Manager) LoadString(id, src string) error {
	return m.load(id, func(L *lua.LState) error {
		if err := L.DoString(src); err != nil {
			return fmt.Errorf("scripting: loading script %q: %w", id, err)
		}
		return nil
	})
}

// LoadGlobal creates the "__global__" VM for shared scripts, used as a
// CallHook fallback for unknown IDs.
func (m *Manager) LoadGlobal(scriptDir string) error {
	return m.LoadDir(globalScriptID, scriptDir)
}

func (m *Manager) load(id string, run func(L *lua.LState) error) error {
	if id == "" {
		return fmt.Errorf("scripting: script id must not be empty")
	}
	L := NewSandboxedState()
	m.RegisterModules(L)

	release := Limit(L, m.instLimit)
	err := run(L)
	release()
	if err != nil {
		L.Close()
		return err
	}

	m.mu.Lock()
	if old, ok := m.vms[id]; ok {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.vms[id] = &vm{L: L}
	m.mu.Unlock()
	return nil
}

// Has reports whether a VM is loaded for id.
func (m *Manager) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vms[id]
	return ok
}

// Do runs f with exclusive access to id's VM under a fresh instruction limit.
// f may build tables and call functions on L but must not retain it.
//
// Postcondition: returns an error if id has no VM, or f's error.
func (m *Manager) Do(id string, f func(L *lua.LState) error) error {
	m.mu.RLock()
	v, ok := m.vms[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("scripting: no VM for script %q", id)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	release := Limit(v.L, m.instLimit)
	defer release()
	return f(v.L)
}

// Call calls the named global function in id's VM and returns its first
// result. An undefined function yields (LNil, nil). Lua runtime errors,
// including exceeding the instruction limit, are returned.
func (m *Manager) Call(id, fn string, args ...lua.LValue) (lua.LValue, error) {
	ret := lua.LValue(lua.LNil)
	err := m.Do(id, func(L *lua.LState) error {
		var err error
		ret, err = CallFunc(L, fn, args...)
		return err
	})
	return ret, err
}

// CallHook calls the named Lua global function in id's VM. If id has no VM,
// the __global__ VM is tried as a fallback. Returns (LNil, nil) if the hook
// is not defined or no VM exists. Lua runtime errors are logged at Warn level
// and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(id, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.CallHookWith(id, hook, func(*lua.LState) []lua.LValue { return args })
}

// CallHookWith behaves like CallHook but builds the arguments inside the
// target VM, so hooks can receive tables.
func (m *Manager) CallHookWith(id, hook string, build func(L *lua.LState) []lua.LValue) (lua.LValue, error) {
	target := id
	if !m.Has(id) {
		target = globalScriptID
	}
	if !m.Has(target) {
		m.logger.Info("scripting: no VM for script",
			zap.String("script", id),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	ret := lua.LValue(lua.LNil)
	err := m.Do(target, func(L *lua.LState) error {
		var err error
		ret, err = CallFunc(L, hook, build(L)...)
		return err
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("script", id),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	return ret, nil
}

// Close shuts down every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, v := range m.vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
		delete(m.vms, id)
	}
}

// CallFunc calls global fn on L in protected mode and returns its first
// result, or LNil when fn is not defined.
func CallFunc(L *lua.LState, fn string, args ...lua.LValue) (lua.LValue, error) {
	f := L.GetGlobal(fn)
	if f == lua.LNil {
		return lua.LNil, nil
	}
	if err := L.CallByParam(lua.P{Fn: f, NRet: 1, Protect: true}, args...); err != nil {
		return lua.LNil, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}
