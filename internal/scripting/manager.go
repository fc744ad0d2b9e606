package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrNotLoaded is returned by CallPredicate before any scripts are loaded.
var ErrNotLoaded = errors.New("scripting: no scripts loaded")

// ErrUnknownPredicate is returned when the named predicate is not a Lua function.
var ErrUnknownPredicate = errors.New("scripting: unknown predicate")

// Manager owns one sandboxed LState holding predicate scripts.
//
// Manager is safe for concurrent use; calls into the LState are serialized.
type Manager struct {
	mu        sync.Mutex
	state     *lua.LState
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// LoadDir creates a fresh sandboxed VM, registers the engine module, then
// executes every *.lua file in scriptDir in lexicographic order. The previous
// VM, if any, is replaced only when every file loads.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Returns an error on read or Lua load failure.
func (m *Manager) LoadDir(scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	return m.load(instLimit, func(L *lua.LState) error {
		for _, path := range luaFiles {
			if err := L.DoFile(path); err != nil {
				return fmt.Errorf("scripting: loading %q: %w", path, err)
			}
		}
		return nil
	})
}

// LoadString replaces the VM with one that has executed src.
func (m *Manager) LoadString(src string, instLimit int) error {
	return m.load(instLimit, func(L *lua.LState) error {
		if err := L.DoString(src); err != nil {
			return fmt.Errorf("scripting: loading source: %w", err)
		}
		return nil
	})
}

func (m *Manager) load(instLimit int, run func(L *lua.LState) error) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	if err := run(L); err != nil {
		L.Close()
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
	}
	m.state = L
	m.instLimit = instLimit
	return nil
}

// HasPredicate reports whether name is a loaded Lua function.
func (m *Manager) HasPredicate(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return false
	}
	_, ok := m.state.GetGlobal(name).(*lua.LFunction)
	return ok
}

// CallPredicate calls the Lua global function name with snap as a table and
// returns the truthiness of its first result. Each call gets a fresh
// instruction budget.
//
// Postcondition: Returns ErrNotLoaded, ErrUnknownPredicate, or a wrapped Lua
// runtime error; runtime errors are also logged at Warn.
func (m *Manager) CallPredicate(ctx context.Context, name string, snap Snapshot) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return false, ErrNotLoaded
	}
	L := m.state
	fn, ok := L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownPredicate, name)
	}

	cancel := Limit(ctx, L, m.instLimit)
	defer cancel()
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, snap.Table(L)); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("predicate", name),
			zap.String("character", snap.ID),
			zap.Error(err),
		)
		return false, fmt.Errorf("scripting: calling %q: %w", name, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret), nil
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}
