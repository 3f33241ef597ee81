package vm

import "sync"

// ---------------------------------------------------------------------------
// SymbolTable: Interned strings
// ---------------------------------------------------------------------------

// Symbol is an interned string handle. Two symbols from the same table are
// equal iff their strings are equal.
type Symbol uint32

// EmptySymbol is the interned empty string. Every SymbolTable reserves it as
// ID 0, so it doubles as "no name" for tuple slots.
const EmptySymbol Symbol = 0

// IsEmpty reports whether s is the empty string (an absent slot name).
func (s Symbol) IsEmpty() bool {
	return s == EmptySymbol
}

// SymbolTable interns strings to unique IDs.
// Symbols are immutable, so tables may be shared across goroutines.
type SymbolTable struct {
	mu     sync.RWMutex
	byName map[string]Symbol // name -> ID
	byID   []string          // ID -> name
}

// NewSymbolTable creates a symbol table holding only the empty string.
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{
		byName: make(map[string]Symbol),
		byID:   make([]string, 0, 256),
	}
	st.byName[""] = EmptySymbol
	st.byID = append(st.byID, "")
	return st
}

// Intern returns the symbol for name, creating a new one if needed.
func (st *SymbolTable) Intern(name string) Symbol {
	// Fast path: read-only lookup
	st.mu.RLock()
	if id, ok := st.byName[name]; ok {
		st.mu.RUnlock()
		return id
	}
	st.mu.RUnlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	// Double-check after acquiring write lock
	if id, ok := st.byName[name]; ok {
		return id
	}

	id := Symbol(len(st.byID))
	st.byName[name] = id
	st.byID = append(st.byID, name)
	return id
}

// Lookup returns the symbol for name without interning it.
func (st *SymbolTable) Lookup(name string) (Symbol, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.byName[name]
	return id, ok
}

// Name returns the string for a symbol, or "" if invalid.
func (st *SymbolTable) Name(id Symbol) string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if int(id) >= len(st.byID) {
		return ""
	}
	return st.byID[id]
}

// Len returns the number of interned symbols, including the empty string.
func (st *SymbolTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID)
}

// All returns all interned strings in ID order.
func (st *SymbolTable) All() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	result := make([]string, len(st.byID))
	copy(result, st.byID)
	return result
}

// StringValue interns s and returns it as a string Value.
func (st *SymbolTable) StringValue(s string) Value {
	return FromSymbol(st.Intern(s))
}
