// Package scripting provides a sandboxed GopherLua environment for combat
// tuning hooks. It has no dependency on game domain packages; the resolver
// attaches a Manager through the damage hook interface.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed by a
// Manager's VM when no override is configured.
const DefaultInstructionLimit = 100_000

// unsafeGlobals are the base-library entry points stripped from every VM.
// Hooks receive all combat data as arguments and must not load code or touch
// the host.
var unsafeGlobals = []string{"dofile", "loadfile", "load", "collectgarbage", "require"}

// stepLimiter is a context.Context whose Done() cancels itself after a fixed
// number of calls. GopherLua consults Done() once per opcode, so the limiter
// terminates a VM after exactly that many instructions regardless of what the
// script does.
type stepLimiter struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func newStepLimiter(limit int) (*stepLimiter, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	sl := &stepLimiter{Context: base, cancel: cancel}
	sl.left.Store(int64(limit))
	return sl, cancel
}

// Done decrements the remaining opcode count and fires the cancellation once
// it is exhausted. The VM stops on the next opcode boundary.
func (sl *stepLimiter) Done() <-chan struct{} {
	if sl.left.Add(-1) <= 0 {
		sl.cancel()
	}
	return sl.Context.Done()
}

// NewSandboxedState creates a GopherLua LState with only the base, table,
// string, and math libraries open, the unsafe base globals removed, and
// execution capped at instLimit opcodes.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a non-nil LState ready for DoFile. The caller owns
// the LState and must call L.Close() when done; the cancel function releases
// the limiter context.
func NewSandboxedState(instLimit int) (*lua.LState, context.CancelFunc) {
	limit := instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	limiter, cancel := newStepLimiter(limit)
	L.SetContext(limiter)
	return L, cancel
}
