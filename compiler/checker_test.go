package compiler

import (
	"errors"
	"testing"

	"github.com/chazu/tuploid/vm"
)

func scenario(t *testing.T) (*Checker, vm.Type) {
	t.Helper()
	a := newTable()
	typ, err := a.Define("T", Tuple(Field("", Prim("i8")), Field("second", Prim("i16")), Field("", Prim("i32"))))
	if err != nil {
		t.Fatal(err)
	}
	return NewChecker(a), typ
}

func TestResolveStaticName(t *testing.T) {
	c, typ := scenario(t)
	acc, err := c.ResolveAccess(typ, NameProp("second"))
	if err != nil {
		t.Fatal(err)
	}
	if acc.Key.IsName() || acc.Key.Index() != 1 {
		t.Errorf("key = %+v, want ByIndex(1)", acc.Key)
	}
	if acc.Slot == nil || acc.Slot.Type != vm.Int16 {
		t.Errorf("slot = %+v, want i16", acc.Slot)
	}
	if acc.Dynamic || acc.Computed {
		t.Error("static name access should be fully resolved")
	}
}

func TestResolveStaticErrorsAreCompileTime(t *testing.T) {
	c, typ := scenario(t)
	cases := []struct {
		name string
		p    PropertyExpr
		want error
	}{
		{"unknown name", NameProp("third"), vm.ErrNoSuchProperty},
		{"literal out of range", LiteralIndex(3), vm.ErrIndexOutOfRange},
	}
	for _, tc := range cases {
		_, err := c.ResolveAccess(typ, tc.p)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
			continue
		}
		if p, _ := vm.PhaseOf(err); p != vm.CompileTime {
			t.Errorf("%s: phase = %s, want compile-time", tc.name, p)
		}
	}
	if len(c.Errors()) != len(cases) {
		t.Errorf("recorded %d errors, want %d", len(c.Errors()), len(cases))
	}
}

func TestComputedIndexIsDeferred(t *testing.T) {
	c, typ := scenario(t)
	acc, err := c.ResolveAccess(typ, ComputedIndex())
	if err != nil {
		t.Fatalf("computed index must not be rejected statically: %v", err)
	}
	if !acc.Computed {
		t.Error("Computed should be set")
	}
}

func TestDynamicAccessIsDeferred(t *testing.T) {
	a := newTable()
	dyn, err := a.Define("D", DynTuple())
	if err != nil {
		t.Fatal(err)
	}
	c := NewChecker(a)
	for _, p := range []PropertyExpr{NameProp("anything"), LiteralIndex(99), ComputedIndex()} {
		acc, err := c.ResolveAccess(dyn, p)
		if err != nil {
			t.Errorf("%s on dynamic tuple rejected statically: %v", p, err)
		}
		if !acc.Dynamic {
			t.Errorf("%s: Dynamic should be set", p)
		}
	}
}

func TestResolveOnNonTuple(t *testing.T) {
	c := NewChecker(newTable())
	if _, err := c.ResolveAccess(vm.Int8, NameProp("x")); !errors.Is(err, vm.ErrTypeMismatch) {
		t.Errorf("err = %v, want TypeMismatch", err)
	}
}

func TestCheckAssign(t *testing.T) {
	a := newTable()
	s, _ := a.Define("S", Tuple(Field("a", Prim("i32"))))
	wide, _ := a.Define("W", Tuple(Field("a", Prim("i32")), Field("b", Prim("i32"))))
	other, _ := a.Define("O", Tuple(Field("a", Prim("i32")), Field("c", Prim("i32"))))
	dyn, _ := a.Define("D", DynTuple())
	c := NewChecker(a)

	rules := []struct {
		src, dst vm.Type
		want     vm.Rule
	}{
		{s, wide, vm.RuleWiden},
		{s, dyn, vm.RuleMerge},
		{dyn, wide, vm.RuleSubset},
		{dyn, other, vm.RuleSubset},
		{dyn, dyn, vm.RuleCopy},
	}
	for _, r := range rules {
		got, err := c.CheckAssign(r.src, r.dst)
		if err != nil || got != r.want {
			t.Errorf("CheckAssign(%s, %s) = %s, %v; want %s", r.src, r.dst, got, err, r.want)
		}
	}

	_, err := c.CheckAssign(wide, other)
	if !errors.Is(err, vm.ErrIncompatibleTupleShape) {
		t.Errorf("CheckAssign(W, O) err = %v, want IncompatibleTupleShape", err)
	}
}

func TestCheckTupleLiteral(t *testing.T) {
	c, typ := scenario(t)
	if err := c.CheckTupleLiteral(typ, []vm.Type{vm.Int8, vm.Int16, vm.Int32}); err != nil {
		t.Errorf("matching literal: %v", err)
	}
	err := c.CheckTupleLiteral(typ, []vm.Type{vm.Int8, vm.Int16})
	if !errors.Is(err, vm.ErrIncompatibleTupleShape) {
		t.Errorf("short literal err = %v, want IncompatibleTupleShape", err)
	}
	err = c.CheckTupleLiteral(typ, []vm.Type{vm.Int8, vm.Int8, vm.Int32})
	if !errors.Is(err, vm.ErrTypeMismatch) {
		t.Errorf("wrong kind err = %v, want TypeMismatch", err)
	}
}

// TestFrontToBack runs the scenario from type definition through the
// checker into the vm, the way a back end would.
func TestFrontToBack(t *testing.T) {
	a := newTable()
	st := a.Symbols()
	typ, err := a.Define("T", Tuple(Field("", Prim("i8")), Field("second", Prim("i16")), Field("", Prim("i32"))))
	if err != nil {
		t.Fatal(err)
	}
	c := NewChecker(a)
	e := vm.NewEngineWithSymbols(st, vm.Options{})

	binding := e.Default(typ)
	acc, err := c.ResolveAccess(typ, NameProp("second"))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Set(binding.Tuple(), acc.Key, vm.FromInt16(8)); err != nil {
		t.Fatal(err)
	}
	if got := e.Format(binding); got != "(0, second: 8, 0)" {
		t.Errorf("binding = %s, want (0, second: 8, 0)", got)
	}
}
