package compiler

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/tuploid/vm"
)

// ---------------------------------------------------------------------------
// Checker: compile-time property access and assignment checks
// ---------------------------------------------------------------------------

// Checker performs the checks that can be decided from types alone. Errors
// it returns are compile-time errors; anything that depends on a dynamic
// tuple's live shape is deferred to the vm.
type Checker struct {
	aliases *AliasTable
	errors  []error
	log     commonlog.Logger
}

// NewChecker creates a checker over an alias table.
func NewChecker(aliases *AliasTable) *Checker {
	return &Checker{
		aliases: aliases,
		log:     commonlog.GetLogger("tuploid.compiler"),
	}
}

// Errors returns the errors recorded so far.
func (c *Checker) Errors() []error {
	return c.errors
}

func (c *Checker) record(err error) error {
	if err != nil {
		c.errors = append(c.errors, err)
	}
	return err
}

// PropertyExpr is an access expression as the front end sees it: a name, a
// literal index, or an index computed at runtime.
type PropertyExpr struct {
	Name    string
	Index   uint64
	ByName  bool
	Literal bool
}

// NameProp returns a by-name access.
func NameProp(name string) PropertyExpr { return PropertyExpr{Name: name, ByName: true} }

// LiteralIndex returns an access by a constant index.
func LiteralIndex(i uint64) PropertyExpr { return PropertyExpr{Index: i, Literal: true} }

// ComputedIndex returns an access by an index only known at runtime.
func ComputedIndex() PropertyExpr { return PropertyExpr{} }

func (p PropertyExpr) String() string {
	switch {
	case p.ByName:
		return "." + p.Name
	case p.Literal:
		return fmt.Sprintf(".%d", p.Index)
	default:
		return ".[expr]"
	}
}

// Access is the outcome of resolving a property access.
type Access struct {
	// Key is the runtime key. Static by-name accesses are rewritten to
	// ByIndex. Meaningless when Computed is set.
	Key vm.PropertyKey
	// Slot is the declared slot, when the access was resolved statically.
	Slot *vm.Slot
	// Computed is set when the index is only known at runtime; the vm
	// checks its range.
	Computed bool
	// Dynamic is set for dynamic tuples: everything is checked at runtime.
	Dynamic bool
}

// ResolveAccess resolves p against the type of the tuple being accessed.
// Static names and literal indices are checked here; computed indices and
// dynamic tuples are never rejected, since only runtime can judge them.
func (c *Checker) ResolveAccess(t vm.Type, p PropertyExpr) (Access, error) {
	tt, ok := vm.Underlying(t).(*vm.TupleType)
	if !ok {
		return Access{}, c.record(vm.NewError(vm.CodeTypeMismatch, vm.CompileTime,
			"property access %s on non-tuple type %s", p, t))
	}

	if tt.IsDynamic() {
		acc := Access{Dynamic: true, Computed: !p.ByName && !p.Literal}
		if p.ByName {
			acc.Key = vm.ByName(c.aliases.symbols.Intern(p.Name))
		} else {
			acc.Key = vm.ByIndex(p.Index)
		}
		return acc, nil
	}

	switch {
	case p.ByName:
		sym, ok := c.aliases.symbols.Lookup(p.Name)
		if !ok {
			return Access{}, c.record(vm.NewError(vm.CodeNoSuchProperty, vm.CompileTime,
				"no property %q in %s", p.Name, tt))
		}
		i, err := tt.LookupName(sym)
		if err != nil {
			return Access{}, c.record(err)
		}
		slot := tt.Slots()[i]
		return Access{Key: vm.ByIndex(uint64(i)), Slot: &slot}, nil
	case p.Literal:
		slot, err := tt.LookupIndex(p.Index)
		if err != nil {
			return Access{}, c.record(err)
		}
		return Access{Key: vm.ByIndex(p.Index), Slot: &slot}, nil
	default:
		return Access{Computed: true}, nil
	}
}

// CheckAssign plans an assignment of a src-typed value into a dst-typed
// binding. RuleSubset still requires the vm's runtime check.
func (c *Checker) CheckAssign(src, dst vm.Type) (vm.Rule, error) {
	rule, err := vm.Plan(src, dst)
	if err != nil {
		return 0, c.record(err)
	}
	c.log.Debugf("assign %s -> %s: %s", src, dst, rule)
	return rule, nil
}

// CheckTupleLiteral checks a literal of n values against a static tuple
// type; dynamic tuple literals are not constrained.
func (c *Checker) CheckTupleLiteral(t vm.Type, values []vm.Type) error {
	tt, ok := vm.Underlying(t).(*vm.TupleType)
	if !ok {
		return c.record(vm.NewError(vm.CodeTypeMismatch, vm.CompileTime, "tuple literal for non-tuple type %s", t))
	}
	if tt.IsDynamic() {
		return nil
	}
	if len(values) != tt.Len() {
		return c.record(vm.NewError(vm.CodeIncompatibleTupleShape, vm.CompileTime,
			"%d values for %s with %d slots", len(values), tt, tt.Len()))
	}
	for i, s := range tt.Slots() {
		if _, err := vm.Plan(values[i], s.Type); err != nil {
			return c.record(fmt.Errorf("slot %d of %s: %w", i, tt, err))
		}
	}
	return nil
}
