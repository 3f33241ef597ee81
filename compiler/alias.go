package compiler

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/tuploid/vm"
)

// ---------------------------------------------------------------------------
// AliasTable: name -> type bindings
// ---------------------------------------------------------------------------

// selfName is the reserved name of the enclosing-tuple binding.
const selfName = "self"

// aliasScope is one lexical level of alias bindings.
type aliasScope struct {
	bindings map[string]vm.Type
}

// AliasTable binds names to types. Ordinary aliases are resolved when they
// are defined and may not refer to themselves; only self, opened with
// BeginSelfBinding, may be recursive.
type AliasTable struct {
	symbols *vm.SymbolTable
	scopes  []*aliasScope

	// selfs holds the placeholders of the tuple definitions currently open,
	// innermost last.
	selfs []*vm.SelfType

	// defining holds the names whose definitions are being lowered.
	defining map[string]bool

	log commonlog.Logger
}

// NewAliasTable creates a table with a single (global) scope. Slot names are
// interned in symbols.
func NewAliasTable(symbols *vm.SymbolTable) *AliasTable {
	return &AliasTable{
		symbols:  symbols,
		scopes:   []*aliasScope{{bindings: make(map[string]vm.Type)}},
		defining: make(map[string]bool),
		log:      commonlog.GetLogger("tuploid.compiler"),
	}
}

// Symbols returns the table slot names are interned in.
func (a *AliasTable) Symbols() *vm.SymbolTable { return a.symbols }

// PushScope opens a nested scope. Names defined in it shadow outer ones.
func (a *AliasTable) PushScope() {
	a.scopes = append(a.scopes, &aliasScope{bindings: make(map[string]vm.Type)})
}

// PopScope discards the innermost scope. The global scope is never popped.
func (a *AliasTable) PopScope() {
	if len(a.scopes) > 1 {
		a.scopes = a.scopes[:len(a.scopes)-1]
	}
}

// Depth returns the number of open scopes, including the global one.
func (a *AliasTable) Depth() int { return len(a.scopes) }

// Define binds name to the type expr denotes in the innermost scope.
func (a *AliasTable) Define(name string, expr TypeExpr) (vm.Type, error) {
	if err := a.checkFree(name); err != nil {
		return nil, err
	}

	a.defining[name] = true
	t, err := a.Lower(expr)
	delete(a.defining, name)
	if err != nil {
		return nil, err
	}

	a.bind(name, t)
	return t, nil
}

func (a *AliasTable) checkFree(name string) error {
	if name == selfName {
		return vm.NewError(vm.CodeDuplicateAlias, vm.CompileTime, "%q is reserved", selfName)
	}
	if _, dup := a.scopes[len(a.scopes)-1].bindings[name]; dup {
		return vm.NewError(vm.CodeDuplicateAlias, vm.CompileTime, "alias %q already defined in this scope", name)
	}
	return nil
}

func (a *AliasTable) bind(name string, t vm.Type) {
	a.scopes[len(a.scopes)-1].bindings[name] = t
	a.log.Debugf("alias %s = %s", name, t)
}

// BeginSelfBinding opens a tuple definition and returns the pending self
// placeholder for it. Types built from the placeholder become usable once
// CompleteSelfBinding patches it.
func (a *AliasTable) BeginSelfBinding() *vm.SelfType {
	self := vm.NewSelfType()
	a.selfs = append(a.selfs, self)
	return self
}

// CompleteSelfBinding resolves the innermost open self to desc and closes
// the definition.
func (a *AliasTable) CompleteSelfBinding(desc *vm.TupleType) error {
	if len(a.selfs) == 0 {
		return vm.NewError(vm.CodeUnresolvedAlias, vm.CompileTime, "no open self binding to complete")
	}
	self := a.selfs[len(a.selfs)-1]
	if err := self.Complete(desc); err != nil {
		return err
	}
	a.selfs = a.selfs[:len(a.selfs)-1]
	return nil
}

// AbortSelfBinding closes the innermost definition without resolving it,
// after its body failed to build. The placeholder stays pending forever.
func (a *AliasTable) AbortSelfBinding() {
	if len(a.selfs) > 0 {
		a.selfs = a.selfs[:len(a.selfs)-1]
	}
}

// Resolve returns the type bound to name. self resolves to the innermost
// open definition's placeholder and is unbound outside any definition.
func (a *AliasTable) Resolve(name string) (vm.Type, error) {
	if name == selfName {
		if len(a.selfs) == 0 {
			return nil, vm.NewError(vm.CodeUnresolvedAlias, vm.CompileTime, "self used outside a tuple definition")
		}
		return a.selfs[len(a.selfs)-1], nil
	}
	if a.defining[name] {
		return nil, vm.NewError(vm.CodeCyclicAliasWithoutSelf, vm.CompileTime,
			"alias %q refers to itself; use self inside a tuple definition", name)
	}
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if t, ok := a.scopes[i].bindings[name]; ok {
			return t, nil
		}
	}
	return nil, vm.NewError(vm.CodeUnresolvedAlias, vm.CompileTime, "unknown type %q", name)
}

// Lower turns a type expression into a vm type.
func (a *AliasTable) Lower(expr TypeExpr) (vm.Type, error) {
	switch e := expr.(type) {
	case *PrimExpr:
		if t, ok := vm.PrimitiveByName(e.Name); ok {
			return t, nil
		}
		return a.Resolve(e.Name)
	case *NamedExpr:
		if t, ok := vm.PrimitiveByName(e.Name); ok {
			return t, nil
		}
		return a.Resolve(e.Name)
	case *SelfExpr:
		return a.Resolve(selfName)
	case *RefExpr:
		return e.Type, nil
	case *TupleExpr:
		if e == nil {
			return nil, errMissingType()
		}
		specs := make([]vm.SlotSpec, len(e.Slots))
		for i, s := range e.Slots {
			t, err := a.Lower(s.Type)
			if err != nil {
				return nil, err
			}
			specs[i] = vm.SlotSpec{Name: a.symbols.Intern(s.Name), Type: t}
		}
		return vm.NewTupleType(a.symbols, e.Kind, specs)
	case *FuncExpr:
		if e == nil {
			return nil, errMissingType()
		}
		params := make([]vm.Type, len(e.Params))
		for i, p := range e.Params {
			t, err := a.Lower(p)
			if err != nil {
				return nil, err
			}
			params[i] = t
		}
		var result vm.Type
		if e.Result != nil {
			t, err := a.Lower(e.Result)
			if err != nil {
				return nil, err
			}
			result = t
		}
		return vm.NewFuncType(result, params...), nil
	case nil:
		return nil, errMissingType()
	default:
		return nil, vm.NewError(vm.CodeUnresolvedAlias, vm.CompileTime, "unknown type expression %T", expr)
	}
}

func errMissingType() error {
	return vm.NewError(vm.CodeUnresolvedAlias, vm.CompileTime, "missing type")
}

// DefineTuple defines a possibly self-referential tuple type. self inside
// body refers to the tuple being defined; it is only legal inside function
// types. An empty name builds the type without binding it.
func (a *AliasTable) DefineTuple(name string, body *TupleExpr) (*vm.TupleType, error) {
	if body == nil {
		return nil, errMissingType()
	}
	if name != "" {
		if err := a.checkFree(name); err != nil {
			return nil, err
		}
		a.defining[name] = true
		defer delete(a.defining, name)
	}

	a.BeginSelfBinding()
	t, err := a.Lower(body)
	if err != nil {
		a.AbortSelfBinding()
		return nil, err
	}
	desc := t.(*vm.TupleType)
	if err := a.CompleteSelfBinding(desc); err != nil {
		return nil, err
	}

	if name != "" {
		a.bind(name, desc)
	}
	return desc, nil
}
