package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Manager owns one sandboxed LState holding the arena's combat hooks. It
// implements the resolver's damage hook: when the loaded scripts define
// on_damage, every resolved hit passes through it.
//
// The lock serializes hook dispatch; the LState itself is single-threaded.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel func()
	logger *zap.Logger
}

// NewManager creates an empty Manager. Until LoadDir succeeds, every hook is
// a pass-through.
//
// Precondition: logger must not be nil.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{logger: logger}
}

// LoadDir creates a sandboxed VM, registers the engine module, then executes
// every *.lua file in scriptDir in lexicographic order. A repeat call
// replaces the previous VM.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: The VM is live, or the previous VM (if any) is retained and
// an error returned.
func (m *Manager) LoadDir(scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.registerModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		if m.cancel != nil {
			m.cancel()
		}
		m.state.Close()
	}
	m.state = L
	m.cancel = cancel
	m.mu.Unlock()
	return nil
}

// Close tears down the VM. Hooks dispatched afterwards are pass-throughs.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		if m.cancel != nil {
			m.cancel()
		}
		m.state.Close()
		m.state = nil
		m.cancel = nil
	}
}

// ModifyDamage dispatches the on_damage hook:
//
//	function on_damage(attacker_id, defender_id, damage) return damage end
//
// Returns the hook's numeric result, or the input damage unchanged when no VM
// is loaded, the hook is undefined, the hook errors, or it returns a
// non-number. Lua runtime errors are logged at Warn level and never propagate
// into combat resolution.
func (m *Manager) ModifyDamage(attackerID, defenderID string, damage int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return damage
	}
	L := m.state

	fn := L.GetGlobal("on_damage")
	if fn == lua.LNil {
		return damage
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(attackerID), lua.LString(defenderID), lua.LNumber(damage)); err != nil {
		m.logger.Warn("scripting: on_damage runtime error",
			zap.String("attacker", attackerID),
			zap.String("defender", defenderID),
			zap.Error(err),
		)
		return damage
	}

	ret := L.Get(-1)
	L.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		m.logger.Warn("scripting: on_damage returned non-number",
			zap.String("returned", ret.Type().String()),
		)
		return damage
	}
	return int(n)
}
