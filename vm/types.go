package vm

import (
	"fmt"
	"strings"
)

// Type is a resolved type reference. Types are immutable once built and may
// be shared freely between values and goroutines.
type Type interface {
	String() string
	typeNode()
}

// ---------------------------------------------------------------------------
// Primitive types
// ---------------------------------------------------------------------------

// IntegralType is one of the eight fixed-width integer kinds.
type IntegralType struct {
	Name   string
	Width  uint8 // 8, 16, 32 or 64
	Signed bool
}

func (t *IntegralType) String() string { return t.Name }
func (t *IntegralType) typeNode()      {}

// mask returns the bit mask covering the type's width.
func (t *IntegralType) mask() uint64 {
	if t.Width == 64 {
		return ^uint64(0)
	}
	return (uint64(1) << t.Width) - 1
}

// StringType is the interned string type.
type StringType struct{}

func (t *StringType) String() string { return "string" }
func (t *StringType) typeNode()      {}

// Primitive singletons. Kinds are compared by identity.
var (
	Int8   = &IntegralType{Name: "i8", Width: 8, Signed: true}
	Int16  = &IntegralType{Name: "i16", Width: 16, Signed: true}
	Int32  = &IntegralType{Name: "i32", Width: 32, Signed: true}
	Int64  = &IntegralType{Name: "i64", Width: 64, Signed: true}
	Uint8  = &IntegralType{Name: "u8", Width: 8}
	Uint16 = &IntegralType{Name: "u16", Width: 16}
	Uint32 = &IntegralType{Name: "u32", Width: 32}
	Uint64 = &IntegralType{Name: "u64", Width: 64}

	String = &StringType{}
)

var primitivesByName = map[string]Type{
	"i8":     Int8,
	"i16":    Int16,
	"i32":    Int32,
	"i64":    Int64,
	"u8":     Uint8,
	"u16":    Uint16,
	"u32":    Uint32,
	"u64":    Uint64,
	"string": String,
}

// PrimitiveByName returns the primitive type spelled name.
func PrimitiveByName(name string) (Type, bool) {
	t, ok := primitivesByName[name]
	return t, ok
}

// ---------------------------------------------------------------------------
// Function types
// ---------------------------------------------------------------------------

// FuncType is the type of a function-valued slot. It is the only place a
// tuple definition may refer to itself through self.
type FuncType struct {
	Params []Type
	Result Type // nil for no result
}

// NewFuncType builds a function type.
func NewFuncType(result Type, params ...Type) *FuncType {
	ps := make([]Type, len(params))
	copy(ps, params)
	return &FuncType{Params: ps, Result: result}
}

func (t *FuncType) String() string {
	var b strings.Builder
	b.WriteString("fn(")
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(typeName(p))
	}
	b.WriteString(")")
	if t.Result != nil {
		b.WriteString(" -> ")
		b.WriteString(typeName(t.Result))
	}
	return b.String()
}
func (t *FuncType) typeNode() {}

// ---------------------------------------------------------------------------
// Self placeholder
// ---------------------------------------------------------------------------

// SelfState tracks the two-phase life of a self binding.
type SelfState int

const (
	SelfPending SelfState = iota
	SelfResolved
)

// SelfType is the placeholder issued for self while a tuple definition is
// still being built. It is patched exactly once with the finished descriptor.
type SelfType struct {
	state  SelfState
	target *TupleType
}

// NewSelfType returns a pending placeholder.
func NewSelfType() *SelfType {
	return &SelfType{}
}

// State returns the binding state.
func (t *SelfType) State() SelfState { return t.state }

// Target returns the resolved descriptor, or nil while pending.
func (t *SelfType) Target() *TupleType { return t.target }

// Complete resolves the placeholder. It may only be called once.
func (t *SelfType) Complete(desc *TupleType) error {
	if desc == nil {
		return compileErr(CodeUnresolvedAlias, "self completed without a descriptor")
	}
	if t.state == SelfResolved {
		return compileErr(CodeDuplicateAlias, "self already resolved to %s", desc)
	}
	t.target = desc
	t.state = SelfResolved
	return nil
}

// String prints "self"; printing the target would recurse.
func (t *SelfType) String() string { return "self" }
func (t *SelfType) typeNode()      {}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// Underlying follows resolved self placeholders to their descriptor.
// A pending placeholder is returned unchanged.
func Underlying(t Type) Type {
	if s, ok := t.(*SelfType); ok && s.state == SelfResolved {
		return s.target
	}
	return t
}

func typeName(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// TypesEqual reports structural type equality. Static and dynamic tuple
// descriptors are equal iff kinds match and their slots agree element-wise.
func TypesEqual(a, b Type) bool {
	return typesEqual(a, b, make(map[[2]*TupleType]bool))
}

func typesEqual(a, b Type, seen map[[2]*TupleType]bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	a, b = Underlying(a), Underlying(b)
	if a == b {
		return true
	}
	switch at := a.(type) {
	case *IntegralType, *StringType:
		// Primitive singletons are only equal by identity.
		return false
	case *FuncType:
		bt, ok := b.(*FuncType)
		if !ok || len(at.Params) != len(bt.Params) {
			return false
		}
		for i := range at.Params {
			if !typesEqual(at.Params[i], bt.Params[i], seen) {
				return false
			}
		}
		if (at.Result == nil) != (bt.Result == nil) {
			return false
		}
		return at.Result == nil || typesEqual(at.Result, bt.Result, seen)
	case *TupleType:
		bt, ok := b.(*TupleType)
		if !ok || at.kind != bt.kind || len(at.slots) != len(bt.slots) {
			return false
		}
		pair := [2]*TupleType{at, bt}
		if seen[pair] {
			// Recursive self references: assume equal while comparing.
			return true
		}
		seen[pair] = true
		for i := range at.slots {
			if !sameSlotName(at, bt, i, i) {
				return false
			}
			if !typesEqual(at.slots[i].Type, bt.slots[i].Type, seen) {
				return false
			}
		}
		return true
	case *SelfType:
		// Pending placeholders are only equal to themselves.
		return false
	default:
		panic(fmt.Sprintf("vm.TypesEqual: unknown type %T", a))
	}
}
