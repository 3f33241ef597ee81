package vm

import (
	"errors"
	"testing"
)

func TestPlan(t *testing.T) {
	st := NewSymbolTable()
	s := mustTuple(t, st, Static, field(st, "a", Int8))
	sWide := mustTuple(t, st, Static, field(st, "a", Int8), field(st, "b", String))
	sSame := mustTuple(t, st, Static, field(st, "a", Int8))
	sOther := mustTuple(t, st, Static, field(st, "b", Int8))
	sKind := mustTuple(t, st, Static, field(st, "a", Int16), field(st, "b", String))
	d := mustTuple(t, st, Dynamic, field(st, "a", Int8))

	cases := []struct {
		name     string
		src, dst Type
		rule     Rule
		code     ErrorCode
	}{
		{"same descriptor", s, s, RuleCopy, 0},
		{"equal descriptors", s, sSame, RuleCopy, 0},
		{"prefix", s, sWide, RuleWiden, 0},
		{"narrowing", sWide, s, 0, CodeIncompatibleTupleShape},
		{"renamed", s, sOther, 0, CodeIncompatibleTupleShape},
		{"slot kind differs", s, sKind, 0, CodeIncompatibleTupleShape},
		{"dynamic to static", d, sWide, RuleSubset, 0},
		{"static to dynamic", sWide, d, RuleMerge, 0},
		{"dynamic to dynamic", d, EmptyDynamic, RuleCopy, 0},
		{"primitive", Int8, Int8, RuleCopy, 0},
		{"primitive width", Int8, Int16, 0, CodeTypeMismatch},
		{"tuple to primitive", s, Int8, 0, CodeTypeMismatch},
	}
	for _, c := range cases {
		rule, err := Plan(c.src, c.dst)
		if c.code != 0 {
			if CodeOf(err) != c.code {
				t.Errorf("%s: err = %v, want %s", c.name, err, c.code)
			}
			if p, _ := PhaseOf(err); p != CompileTime {
				t.Errorf("%s: phase = %s, want compile-time", c.name, p)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
			continue
		}
		if rule != c.rule {
			t.Errorf("%s: rule = %s, want %s", c.name, rule, c.rule)
		}
	}
}

func TestWidenDefaultEqualsTargetDefault(t *testing.T) {
	st := NewSymbolTable()
	inner := mustTuple(t, st, Static, field(st, "x", Int8))
	innerWide := mustTuple(t, st, Static, field(st, "x", Int8), field(st, "y", Uint32))
	dyn := mustTuple(t, st, Dynamic, field(st, "d", String))

	pairs := []struct{ s, t *TupleType }{
		{
			mustTuple(t, st, Static),
			mustTuple(t, st, Static, field(st, "a", Int8)),
		},
		{
			mustTuple(t, st, Static, field(st, "", Int8), field(st, "second", Int16)),
			mustTuple(t, st, Static, field(st, "", Int8), field(st, "second", Int16), field(st, "", Int32)),
		},
		{
			// Nested slot widened too.
			mustTuple(t, st, Static, field(st, "in", inner)),
			mustTuple(t, st, Static, field(st, "in", innerWide), field(st, "dyn", dyn)),
		},
	}
	for _, p := range pairs {
		got, err := Convert(Default(p.s), p.t)
		if err != nil {
			t.Errorf("Convert(default %s, %s): %v", p.s, p.t, err)
			continue
		}
		if want := Default(p.t); !Equal(got, want) {
			t.Errorf("Convert(default %s) = %s, want %s", p.s, Format(st, got), Format(st, want))
		}
	}
}

func TestWidenKeepsSourceValues(t *testing.T) {
	e := NewEngine(Options{})
	st := e.Symbols
	s := mustTuple(t, st, Static, field(st, "", Int8), field(st, "second", Int16))
	wide := mustTuple(t, st, Static, field(st, "", Int8), field(st, "second", Int16), field(st, "", Int32))

	src, err := NewTuple(s, []Value{FromInt8(3), FromInt16(4)})
	if err != nil {
		t.Fatal(err)
	}
	got, err := Convert(FromTuple(src), wide)
	if err != nil {
		t.Fatal(err)
	}
	if f := e.Format(got); f != "(3, second: 4, 0)" {
		t.Errorf("widened = %s, want (3, second: 4, 0)", f)
	}
	if got.Tuple().Type() != wide {
		t.Error("widened value should carry the target descriptor")
	}

	_, err = Convert(got, s)
	if !errors.Is(err, ErrIncompatibleTupleShape) {
		t.Errorf("narrowing err = %v, want IncompatibleTupleShape", err)
	}
}

// mergeScenario builds the dynamic tuple [b: 7] and merges (a: i32) into it.
func mergeScenario(t *testing.T, e *Engine) (Value, *TupleType) {
	t.Helper()
	st := e.Symbols
	dyn, err := NewDynamicTuple(st, Entry{Name: st.Intern("b"), Value: FromInt32(7)})
	if err != nil {
		t.Fatal(err)
	}
	binding := FromTuple(dyn)
	aType := mustTuple(t, st, Static, field(st, "a", Int32))
	a, err := NewTuple(aType, []Value{FromInt32(1)})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Assign(&binding, EmptyDynamic, FromTuple(a)); err != nil {
		t.Fatalf("Assign static into dynamic: %v", err)
	}
	return binding, aType
}

func TestMergeScenario(t *testing.T) {
	e := NewEngine(Options{})
	st := e.Symbols
	binding, _ := mergeScenario(t, e)

	tup := binding.Tuple()
	if tup.Len() != 2 {
		t.Fatalf("merged shape = %s, want two slots", e.Format(binding))
	}
	a, err := e.Get(tup, ByName(st.Intern("a")))
	if err != nil || a.Int64() != 1 {
		t.Errorf("a = %v, %v; want 1", a, err)
	}
	b, err := e.Get(tup, ByName(st.Intern("b")))
	if err != nil || b.Int64() != 7 {
		t.Errorf("b = %v, %v; want 7", b, err)
	}

	ab := mustTuple(t, st, Static, field(st, "a", Int32), field(st, "b", Int32))
	got, err := Convert(binding, ab)
	if err != nil {
		t.Fatalf("convert to %s: %v", ab, err)
	}
	if f := e.Format(got); f != "(a: 1, b: 7)" {
		t.Errorf("converted = %s, want (a: 1, b: 7)", f)
	}

	ac := mustTuple(t, st, Static, field(st, "a", Int32), field(st, "c", Int32))
	_, err = Convert(binding, ac)
	if !errors.Is(err, ErrSubsetMismatch) {
		t.Errorf("convert to %s err = %v, want SubsetMismatch", ac, err)
	}
	if p, _ := PhaseOf(err); p != Runtime {
		t.Errorf("phase = %s, want runtime", p)
	}
}

func TestMergeIsIdempotentOnUntouchedSlots(t *testing.T) {
	e := NewEngine(Options{})
	st := e.Symbols
	binding, aType := mergeScenario(t, e)
	if err := e.Set(binding.Tuple(), ByName(st.Intern("z")), st.StringValue("keep")); err != nil {
		t.Fatal(err)
	}

	src, err := NewTuple(aType, []Value{FromInt32(42)})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Assign(&binding, EmptyDynamic, FromTuple(src)); err != nil {
		t.Fatal(err)
	}
	first := binding.Clone()
	if err := e.Assign(&binding, EmptyDynamic, FromTuple(src)); err != nil {
		t.Fatal(err)
	}
	if !Equal(first, binding) {
		t.Errorf("second merge changed the tuple: %s -> %s", e.Format(first), e.Format(binding))
	}
	if f := e.Format(binding); f != `[b: 7, a: 42, z: "keep"]` {
		t.Errorf("tuple = %s, want [b: 7, a: 42, z: \"keep\"]", f)
	}
}

func TestMergeUnnamedByOrdinal(t *testing.T) {
	e := NewEngine(Options{})
	st := e.Symbols
	dyn, err := NewDynamicTuple(st, Entry{Value: FromInt8(1)}, Entry{Name: st.Intern("n"), Value: FromInt8(2)})
	if err != nil {
		t.Fatal(err)
	}
	binding := FromTuple(dyn)
	s := mustTuple(t, st, Static, field(st, "", Int8), field(st, "", Int8))
	src, err := NewTuple(s, []Value{FromInt8(10), FromInt8(20)})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Assign(&binding, EmptyDynamic, FromTuple(src)); err != nil {
		t.Fatal(err)
	}
	// The first unnamed slot is overwritten; there is no second one, so it
	// is appended after the named slot.
	if f := e.Format(binding); f != "[10, n: 2, 20]" {
		t.Errorf("tuple = %s, want [10, n: 2, 20]", f)
	}
}

func TestRepeatedUnnamedMerge(t *testing.T) {
	e := NewEngine(Options{})
	st := e.Symbols
	dyn, err := NewDynamicTuple(st, Entry{Name: st.Intern("b"), Value: FromInt32(7)})
	if err != nil {
		t.Fatal(err)
	}
	binding := FromTuple(dyn)
	pair := mustTuple(t, st, Static, field(st, "", Int32), field(st, "", Int32))
	src, err := NewTuple(pair, []Value{FromInt32(10), FromInt32(20)})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := e.Assign(&binding, EmptyDynamic, FromTuple(src)); err != nil {
			t.Fatal(err)
		}
		if f := e.Format(binding); f != "[b: 7, 10, 20]" {
			t.Fatalf("after merge %d: tuple = %s, want [b: 7, 10, 20]", i+1, f)
		}
	}

	back, err := Convert(binding, pair)
	if err != nil {
		t.Fatalf("convert back to %s: %v", pair, err)
	}
	if !Equal(back, FromTuple(src)) {
		t.Errorf("round trip = %s, want (10, 20)", e.Format(back))
	}
}

func TestSubsetDropsExtraSlots(t *testing.T) {
	e := NewEngine(Options{})
	st := e.Symbols
	dyn, err := NewDynamicTuple(st,
		Entry{Name: st.Intern("x"), Value: FromInt8(9)},
		Entry{Name: st.Intern("a"), Value: FromInt32(1)},
	)
	if err != nil {
		t.Fatal(err)
	}
	target := mustTuple(t, st, Static, field(st, "a", Int32))
	got, err := Convert(FromTuple(dyn), target)
	if err != nil {
		t.Fatal(err)
	}
	if f := e.Format(got); f != "(a: 1)" {
		t.Errorf("converted = %s, want (a: 1)", f)
	}
	if got.Tuple().Len() != 1 || got.Tuple().ExtraLen() != 0 {
		t.Error("result should be exactly target-shaped")
	}
}

func TestSubsetValueMismatch(t *testing.T) {
	e := NewEngine(Options{})
	st := e.Symbols
	dyn, err := NewDynamicTuple(st, Entry{Name: st.Intern("a"), Value: FromInt8(1)})
	if err != nil {
		t.Fatal(err)
	}
	target := mustTuple(t, st, Static, field(st, "a", Int32))
	_, err = Convert(FromTuple(dyn), target)
	if !errors.Is(err, ErrSubsetMismatch) {
		t.Fatalf("err = %v, want SubsetMismatch", err)
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("err = %v, want TypeMismatch cause", err)
	}
}

func TestSubsetNested(t *testing.T) {
	e := NewEngine(Options{})
	st := e.Symbols
	innerDyn, err := NewDynamicTuple(st,
		Entry{Name: st.Intern("x"), Value: FromInt8(4)},
		Entry{Name: st.Intern("junk"), Value: FromInt8(0)},
	)
	if err != nil {
		t.Fatal(err)
	}
	outer, err := NewDynamicTuple(st, Entry{Name: st.Intern("in"), Value: FromTuple(innerDyn)})
	if err != nil {
		t.Fatal(err)
	}
	inner := mustTuple(t, st, Static, field(st, "x", Int8))
	target := mustTuple(t, st, Static, field(st, "in", inner))

	got, err := Convert(FromTuple(outer), target)
	if err != nil {
		t.Fatal(err)
	}
	if f := e.Format(got); f != "(in: (x: 4))" {
		t.Errorf("converted = %s, want (in: (x: 4))", f)
	}
}

func TestSubsetUnnamedByOrdinal(t *testing.T) {
	e := NewEngine(Options{})
	st := e.Symbols
	dyn, err := NewDynamicTuple(st, Entry{Value: FromInt8(1)}, Entry{Name: st.Intern("k"), Value: FromInt8(2)})
	if err != nil {
		t.Fatal(err)
	}
	ok := mustTuple(t, st, Static, field(st, "", Int8), field(st, "k", Int8))
	if _, err := Convert(FromTuple(dyn), ok); err != nil {
		t.Errorf("convert to %s: %v", ok, err)
	}
	bad := mustTuple(t, st, Static, field(st, "", Int8), field(st, "", Int8))
	if _, err := Convert(FromTuple(dyn), bad); !errors.Is(err, ErrSubsetMismatch) {
		t.Errorf("convert to %s err = %v, want SubsetMismatch", bad, err)
	}

	// Unnamed slots pair up by ordinal even when named slots sit between them.
	spread, err := NewDynamicTuple(st,
		Entry{Name: st.Intern("k"), Value: FromInt8(3)},
		Entry{Value: FromInt8(4)},
		Entry{Name: st.Intern("j"), Value: FromInt8(5)},
		Entry{Value: FromInt8(6)},
	)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Convert(FromTuple(spread), bad)
	if err != nil {
		t.Fatalf("convert spread to %s: %v", bad, err)
	}
	if f := e.Format(got); f != "(4, 6)" {
		t.Errorf("converted = %s, want (4, 6)", f)
	}
}

func TestFailedAssignLeavesTargetUnmodified(t *testing.T) {
	e := NewEngine(Options{})
	st := e.Symbols
	target := mustTuple(t, st, Static, field(st, "a", Int32), field(st, "c", Int32))
	binding := Default(target)
	if err := e.Set(binding.Tuple(), ByName(st.Intern("a")), FromInt32(5)); err != nil {
		t.Fatal(err)
	}
	before := binding.Clone()

	dyn, err := NewDynamicTuple(st, Entry{Name: st.Intern("a"), Value: FromInt32(99)})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Assign(&binding, target, FromTuple(dyn)); !errors.Is(err, ErrSubsetMismatch) {
		t.Fatalf("Assign err = %v, want SubsetMismatch", err)
	}
	if !Equal(before, binding) {
		t.Errorf("failed Assign changed binding to %s", e.Format(binding))
	}
}

func TestDynamicToDynamicCopies(t *testing.T) {
	e := NewEngine(Options{})
	st := e.Symbols
	src, err := NewDynamicTuple(st, Entry{Name: st.Intern("q"), Value: FromInt8(1)})
	if err != nil {
		t.Fatal(err)
	}
	binding := Default(mustTuple(t, st, Dynamic, field(st, "old", Int8)))
	if err := e.Assign(&binding, EmptyDynamic, FromTuple(src)); err != nil {
		t.Fatal(err)
	}
	if f := e.Format(binding); f != "[q: 1]" {
		t.Errorf("binding = %s, want [q: 1]", f)
	}
	if binding.Tuple() == src {
		t.Error("assignment aliased the source tuple")
	}
}

func TestConvertStaticIntoFreshDynamic(t *testing.T) {
	e := NewEngine(Options{})
	st := e.Symbols
	s := mustTuple(t, st, Static, field(st, "a", Int8), field(st, "", String))
	d := mustTuple(t, st, Dynamic, field(st, "a", Int8), field(st, "z", Uint8))
	src, err := NewTuple(s, []Value{FromInt8(3), st.StringValue("hi")})
	if err != nil {
		t.Fatal(err)
	}
	got, err := Convert(FromTuple(src), d)
	if err != nil {
		t.Fatal(err)
	}
	if f := e.Format(got); f != `[a: 3, z: 0, "hi"]` {
		t.Errorf("converted = %s, want [a: 3, z: 0, \"hi\"]", f)
	}
}

func TestConvertPendingSelf(t *testing.T) {
	_, err := Convert(FromInt8(1), NewSelfType())
	if !errors.Is(err, ErrUnresolvedAlias) {
		t.Errorf("err = %v, want UnresolvedAlias", err)
	}
}
