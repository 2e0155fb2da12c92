package filter

import (
	"fmt"
	"log"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Script is an optional Lua hook that runs after the banned-word check.
// The script file must define (or return) a table named "filter" with a
// check(text) function; a truthy return value filters the message.
//
// A failing script never blocks the relay path: errors are logged and the
// message is admitted.
type Script struct {
	mu sync.Mutex
	L  *lua.LState
}

// LoadScript loads and executes a Lua filter script.
func LoadScript(path string) (*Script, error) {
	L := lua.NewState(lua.Options{
		CallStackSize: 120,
		RegistrySize:  120 * 20,
	})

	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("load filter script %s: %w", path, err)
	}

	s := &Script{L: L}
	if s.checkFn() == nil {
		L.Close()
		return nil, fmt.Errorf("filter script %s: no filter.check function", path)
	}
	return s, nil
}

// Close shuts down the Lua VM.
func (s *Script) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.L.Close()
}

// Check runs the script against the text. It returns true if the script
// rejects the message.
func (s *Script) Check(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn := s.checkFn()
	if fn == nil {
		return false
	}

	if err := s.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(text)); err != nil {
		log.Printf("filter script error: %v", err)
		return false
	}

	ret := s.L.Get(-1)
	s.L.Pop(1)
	return lua.LVAsBool(ret)
}

// checkFn finds the check function on the filter table - either the return
// value of the script or a global named "filter".
func (s *Script) checkFn() *lua.LFunction {
	tbl := s.filterTable()
	if tbl == nil {
		return nil
	}
	fn, ok := tbl.RawGetString("check").(*lua.LFunction)
	if !ok {
		return nil
	}
	return fn
}

func (s *Script) filterTable() *lua.LTable {
	// Check top of stack first (return value)
	if tbl, ok := s.L.Get(-1).(*lua.LTable); ok {
		return tbl
	}

	if tbl, ok := s.L.GetGlobal("filter").(*lua.LTable); ok {
		return tbl
	}

	return nil
}
