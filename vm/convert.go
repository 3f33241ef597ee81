package vm

// ---------------------------------------------------------------------------
// Assignment / conversion
// ---------------------------------------------------------------------------

// Rule is the assignment rule that applies between two types.
type Rule int

const (
	// RuleCopy copies slot for slot: identical static descriptors, dynamic
	// into dynamic, or matching primitives.
	RuleCopy Rule = iota
	// RuleWiden assigns a static tuple into a static type it is a prefix of.
	RuleWiden
	// RuleSubset assigns a dynamic tuple into a static type; checked at runtime.
	RuleSubset
	// RuleMerge assigns a static tuple into a dynamic one.
	RuleMerge
)

func (r Rule) String() string {
	switch r {
	case RuleWiden:
		return "widen"
	case RuleSubset:
		return "subset"
	case RuleMerge:
		return "merge"
	default:
		return "copy"
	}
}

// Plan decides, from types alone, which rule assigns src into dst. Any error
// it returns is a compile-time error; RuleSubset still needs a runtime check.
func Plan(src, dst Type) (Rule, error) {
	s, d := Underlying(src), Underlying(dst)
	if _, ok := s.(*SelfType); ok {
		return 0, compileErr(CodeUnresolvedAlias, "self used before its definition completed")
	}
	if _, ok := d.(*SelfType); ok {
		return 0, compileErr(CodeUnresolvedAlias, "self used before its definition completed")
	}

	st, sIsTuple := s.(*TupleType)
	dt, dIsTuple := d.(*TupleType)
	if !sIsTuple || !dIsTuple {
		if TypesEqual(s, d) {
			return RuleCopy, nil
		}
		return 0, compileErr(CodeTypeMismatch, "cannot assign %s to %s", typeName(s), typeName(d))
	}

	switch {
	case st.kind == Static && dt.kind == Static:
		if st == dt {
			return RuleCopy, nil
		}
		if err := checkPrefix(st, dt); err != nil {
			return 0, err
		}
		if len(st.slots) == len(dt.slots) && TypesEqual(st, dt) {
			return RuleCopy, nil
		}
		return RuleWiden, nil
	case st.kind == Dynamic && dt.kind == Static:
		return RuleSubset, nil
	case st.kind == Static && dt.kind == Dynamic:
		return RuleMerge, nil
	default:
		return RuleCopy, nil
	}
}

// checkPrefix verifies that s's slots are exactly a prefix of d's slots.
func checkPrefix(s, d *TupleType) error {
	if len(s.slots) > len(d.slots) {
		return compileErr(CodeIncompatibleTupleShape,
			"%s has more slots than %s", s, d)
	}
	_, mm := matchShape(d.slots[:len(s.slots)], s, matchPrefix, func(ti, si int) error {
		_, err := Plan(s.slots[si].Type, d.slots[ti].Type)
		return err
	})
	if mm != nil {
		e := compileErr(CodeIncompatibleTupleShape, "%s is not a prefix of %s at slot %d", s, d, mm.target)
		e.Cause = mm.cause
		return e
	}
	return nil
}

// Convert returns a fresh value of type target built from v by the
// assignment rules. v is never modified and the result never aliases it.
func Convert(v Value, target Type) (Value, error) {
	t := Underlying(target)
	if _, ok := t.(*SelfType); ok {
		return Value{}, compileErr(CodeUnresolvedAlias, "self used before its definition completed")
	}
	tt, ok := t.(*TupleType)
	if !ok {
		if v.kind == KindTuple || !TypesEqual(v.typ, t) {
			return Value{}, compileErr(CodeTypeMismatch, "cannot assign %s value to %s",
				typeName(TypeOf(v)), typeName(t))
		}
		return v, nil
	}
	if v.kind != KindTuple {
		return Value{}, compileErr(CodeTypeMismatch, "cannot assign %s value to %s",
			typeName(TypeOf(v)), tt)
	}

	src := v.tuple
	switch {
	case !src.IsDynamic() && tt.kind == Static:
		return widen(src, tt)
	case src.IsDynamic() && tt.kind == Static:
		return subset(src, tt)
	case !src.IsDynamic() && tt.kind == Dynamic:
		out := Default(tt).tuple
		merge(out, src)
		return FromTuple(out), nil
	default:
		return v.Clone(), nil
	}
}

// widen copies a static tuple into a static type whose slots it prefixes;
// the remaining target slots are defaulted.
func widen(src *Tuple, dst *TupleType) (Value, error) {
	if src.typ == dst {
		return FromTuple(src.Clone()), nil
	}
	if err := checkPrefix(src.typ, dst); err != nil {
		return Value{}, err
	}
	fixed := make([]Value, len(dst.slots))
	for i, s := range dst.slots {
		if i >= len(src.fixed) {
			fixed[i] = Default(s.Type)
			continue
		}
		conv, err := Convert(src.fixed[i], s.Type)
		if err != nil {
			return Value{}, err
		}
		fixed[i] = conv
	}
	return FromTuple(&Tuple{typ: dst, fixed: fixed}), nil
}

// subset builds a dst-shaped tuple from the live shape of a dynamic tuple.
// Every target slot must be present with a convertible value; source slots
// the target does not mention are dropped.
func subset(src *Tuple, dst *TupleType) (Value, error) {
	staged := make([]Value, len(dst.slots))
	_, mm := matchShape(dst.slots, src, matchSubset, func(ti, si int) error {
		conv, err := Convert(src.at(si), dst.slots[ti].Type)
		if err != nil {
			return err
		}
		staged[ti] = conv
		return nil
	})
	if mm != nil {
		slot := dst.slots[mm.target]
		var e *Error
		if mm.source < 0 {
			if slot.Name.IsEmpty() {
				e = runtimeErr(CodeSubsetMismatch, "no unnamed property for slot %d of %s", mm.target, dst)
			} else {
				e = runtimeErr(CodeSubsetMismatch, "no property %q for %s",
					symbolName(dst.symbols, slot.Name), dst)
			}
		} else {
			e = runtimeErr(CodeSubsetMismatch, "property %d is not assignable to slot %d of %s",
				mm.source, mm.target, dst)
			e.Cause = mm.cause
		}
		return Value{}, e
	}
	return FromTuple(&Tuple{typ: dst, fixed: staged}), nil
}

// mergeOp is one staged write of a merge: overwrite index, or append when
// index is -1.
type mergeOp struct {
	index int
	name  Symbol
	value Value
}

// merge writes every slot of a static src into the dynamic dst, overwriting
// slots with the same identity and appending the rest. Slots only dst has
// are left alone. Identities are resolved against dst's shape before the
// first write; the k-th unnamed source slot is the k-th unnamed slot of dst,
// and appending in source order keeps that true for the next merge.
func merge(dst, src *Tuple) (overwritten, appended int) {
	ops := make([]mergeOp, src.Len())
	unnamed := 0
	for i := range ops {
		name := src.NameAt(i)
		ops[i] = mergeOp{index: findSlot(dst, name, unnamed), name: name, value: src.at(i).Clone()}
		if name.IsEmpty() {
			unnamed++
		}
	}
	for _, op := range ops {
		if op.index >= 0 {
			dst.setAt(op.index, op.value)
			overwritten++
			continue
		}
		dst.appendSlot(op.name, op.value)
		appended++
	}
	return overwritten, appended
}
