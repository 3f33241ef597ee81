package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Tuple type descriptors
// ---------------------------------------------------------------------------

// TupleKind separates fixed-shape tuples from runtime-growable ones.
type TupleKind uint8

const (
	Static TupleKind = iota
	Dynamic
)

func (k TupleKind) String() string {
	if k == Dynamic {
		return "dynamic"
	}
	return "static"
}

// Slot is one declared tuple property. Index is its 0-based position; an
// empty Name means the slot is positional only.
type Slot struct {
	Index int
	Name  Symbol
	Type  Type
}

// SlotSpec is the input to NewTupleType.
type SlotSpec struct {
	Name Symbol
	Type Type
}

// TupleType describes a tuple's declared slots. It owns its slots and is
// never mutated after NewTupleType returns.
type TupleType struct {
	kind    TupleKind
	slots   []Slot
	byName  map[Symbol]int
	symbols *SymbolTable
}

// EmptyDynamic is the descriptor of the empty dynamic tuple [].
var EmptyDynamic = &TupleType{kind: Dynamic, byName: map[Symbol]int{}}

// NewTupleType builds a descriptor. Names must be pairwise distinct, and a
// pending self may only appear inside function types, never as a value.
func NewTupleType(symbols *SymbolTable, kind TupleKind, specs []SlotSpec) (*TupleType, error) {
	t := &TupleType{
		kind:    kind,
		slots:   make([]Slot, len(specs)),
		byName:  make(map[Symbol]int, len(specs)),
		symbols: symbols,
	}
	for i, spec := range specs {
		if spec.Type == nil {
			return nil, compileErr(CodeUnresolvedAlias, "slot %d has no type", i)
		}
		if !spec.Name.IsEmpty() {
			if prev, dup := t.byName[spec.Name]; dup {
				return nil, compileErr(CodeDuplicateName, "property %q declared at %d and %d",
					symbolName(symbols, spec.Name), prev, i)
			}
			t.byName[spec.Name] = i
		}
		if holdsPendingSelf(spec.Type) {
			return nil, compileErr(CodeInfiniteTupleRecursion,
				"slot %d holds self by value; self may only appear in function types", i)
		}
		t.slots[i] = Slot{Index: i, Name: spec.Name, Type: spec.Type}
	}
	return t, nil
}

// holdsPendingSelf reports whether building a default value of t would
// require the tuple currently being defined.
func holdsPendingSelf(t Type) bool {
	switch tt := t.(type) {
	case *SelfType:
		return tt.state == SelfPending
	case *TupleType:
		for _, s := range tt.slots {
			if holdsPendingSelf(s.Type) {
				return true
			}
		}
	}
	return false
}

func (t *TupleType) typeNode() {}

// Kind returns Static or Dynamic.
func (t *TupleType) Kind() TupleKind { return t.kind }

// IsDynamic reports whether values of this type may grow.
func (t *TupleType) IsDynamic() bool { return t.kind == Dynamic }

// Len returns the number of declared slots.
func (t *TupleType) Len() int { return len(t.slots) }

// Slots returns a copy of the declared slots.
func (t *TupleType) Slots() []Slot {
	out := make([]Slot, len(t.slots))
	copy(out, t.slots)
	return out
}

// Symbols returns the table the slot names were interned in.
func (t *TupleType) Symbols() *SymbolTable { return t.symbols }

// NameAt returns the name of slot i (EmptySymbol if unnamed).
func (t *TupleType) NameAt(i int) Symbol { return t.slots[i].Name }

// phase is the phase at which lookups against this descriptor are checked.
func (t *TupleType) phase() Phase {
	if t.kind == Dynamic {
		return Runtime
	}
	return CompileTime
}

// LookupName returns the index of the slot called name.
func (t *TupleType) LookupName(name Symbol) (int, error) {
	if !name.IsEmpty() {
		if i, ok := t.byName[name]; ok {
			return i, nil
		}
	}
	return -1, NewError(CodeNoSuchProperty, t.phase(), "no property %q in %s", symbolName(t.symbols, name), t)
}

// LookupIndex returns slot i.
func (t *TupleType) LookupIndex(i uint64) (Slot, error) {
	if i >= uint64(len(t.slots)) {
		return Slot{}, NewError(CodeIndexOutOfRange, t.phase(),
			"index %d out of range for %s with %d slots", i, t, len(t.slots))
	}
	return t.slots[i], nil
}

// Equal reports structural equality with another descriptor.
func (t *TupleType) Equal(o *TupleType) bool {
	return TypesEqual(t, o)
}

func (t *TupleType) String() string {
	var b strings.Builder
	lp, rp := "(", ")"
	if t.kind == Dynamic {
		lp, rp = "[", "]"
	}
	b.WriteString(lp)
	for i, s := range t.slots {
		if i > 0 {
			b.WriteString(", ")
		}
		if !s.Name.IsEmpty() {
			b.WriteString(symbolName(t.symbols, s.Name))
			b.WriteString(": ")
		}
		b.WriteString(typeName(s.Type))
	}
	b.WriteString(rp)
	return b.String()
}

// sameSlotName compares slot i of a with slot j of b, falling back to the
// strings when the descriptors were interned in different tables.
func sameSlotName(a, b *TupleType, i, j int) bool {
	na, nb := a.slots[i].Name, b.slots[j].Name
	if a.symbols == b.symbols || na.IsEmpty() || nb.IsEmpty() {
		return na == nb
	}
	return a.symbols.Name(na) == b.symbols.Name(nb)
}

func symbolName(st *SymbolTable, s Symbol) string {
	if st == nil {
		return fmt.Sprintf("#%d", s)
	}
	return st.Name(s)
}
