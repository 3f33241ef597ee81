// Package compiler is the compile-time half of the tuploid engine: the alias
// table that turns type expressions into vm types, and the checker that
// resolves static property accesses and plans assignments.
package compiler

import (
	"strings"

	"github.com/chazu/tuploid/vm"
)

// ---------------------------------------------------------------------------
// Type expressions: what the front end hands over for type positions
// ---------------------------------------------------------------------------

// TypeExpr is the interface implemented by all type expression nodes.
type TypeExpr interface {
	String() string
	typeExpr() // marker method
}

// PrimExpr names a primitive type: i8 ... u64 or string.
type PrimExpr struct {
	Name string
}

func (e *PrimExpr) String() string { return e.Name }
func (e *PrimExpr) typeExpr()      {}

// NamedExpr refers to an alias by name.
type NamedExpr struct {
	Name string
}

func (e *NamedExpr) String() string { return e.Name }
func (e *NamedExpr) typeExpr()      {}

// SelfExpr refers to the tuple type currently being defined.
type SelfExpr struct{}

func (e *SelfExpr) String() string { return "self" }
func (e *SelfExpr) typeExpr()      {}

// RefExpr wraps a type the front end has already resolved.
type RefExpr struct {
	Type vm.Type
}

func (e *RefExpr) String() string { return e.Type.String() }
func (e *RefExpr) typeExpr()      {}

// SlotExpr is one slot of a tuple type expression. Name may be empty.
type SlotExpr struct {
	Name string
	Type TypeExpr
}

// TupleExpr is a tuple type: (a: i8, i16) when static, [a: i8] when dynamic.
type TupleExpr struct {
	Kind  vm.TupleKind
	Slots []SlotExpr
}

func (e *TupleExpr) String() string {
	var b strings.Builder
	lp, rp := "(", ")"
	if e.Kind == vm.Dynamic {
		lp, rp = "[", "]"
	}
	b.WriteString(lp)
	for i, s := range e.Slots {
		if i > 0 {
			b.WriteString(", ")
		}
		if s.Name != "" {
			b.WriteString(s.Name)
			b.WriteString(": ")
		}
		b.WriteString(s.Type.String())
	}
	b.WriteString(rp)
	return b.String()
}
func (e *TupleExpr) typeExpr() {}

// FuncExpr is a function type. Result may be nil.
type FuncExpr struct {
	Params []TypeExpr
	Result TypeExpr
}

func (e *FuncExpr) String() string {
	parts := make([]string, len(e.Params))
	for i, p := range e.Params {
		parts[i] = p.String()
	}
	s := "fn(" + strings.Join(parts, ", ") + ")"
	if e.Result != nil {
		s += " -> " + e.Result.String()
	}
	return s
}
func (e *FuncExpr) typeExpr() {}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// Prim returns a primitive type expression.
func Prim(name string) TypeExpr { return &PrimExpr{Name: name} }

// Named returns an alias reference.
func Named(name string) TypeExpr { return &NamedExpr{Name: name} }

// Self returns a reference to the enclosing tuple definition.
func Self() TypeExpr { return &SelfExpr{} }

// Ref wraps an already resolved type.
func Ref(t vm.Type) TypeExpr { return &RefExpr{Type: t} }

// Field returns a slot; pass "" for an unnamed slot.
func Field(name string, t TypeExpr) SlotExpr { return SlotExpr{Name: name, Type: t} }

// Tuple returns a static tuple type expression.
func Tuple(slots ...SlotExpr) *TupleExpr { return &TupleExpr{Kind: vm.Static, Slots: slots} }

// DynTuple returns a dynamic tuple type expression.
func DynTuple(slots ...SlotExpr) *TupleExpr { return &TupleExpr{Kind: vm.Dynamic, Slots: slots} }

// Func returns a function type expression.
func Func(result TypeExpr, params ...TypeExpr) *FuncExpr {
	return &FuncExpr{Params: params, Result: result}
}
