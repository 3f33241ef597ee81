package vm

// ---------------------------------------------------------------------------
// Tuple values
// ---------------------------------------------------------------------------

// extraSlot is a property appended to a dynamic tuple at runtime.
type extraSlot struct {
	name  Symbol
	value Value
}

// Tuple is the storage of one tuple value.
//
// fixed is aligned with typ's declared slots. extra is only ever non-empty
// for dynamic tuples and is append-only, so an index handed out for the live
// shape (fixed ++ extra) stays valid for the life of the tuple.
type Tuple struct {
	typ *TupleType
	// symbols names the tuple's slots in messages; nil falls back to the
	// descriptor's table.
	symbols *SymbolTable
	fixed   []Value
	extra   []extraSlot
	// extraByName indexes named extra slots by their offset in extra.
	extraByName map[Symbol]int
}

// NewTuple builds a tuple of type typ from one value per declared slot.
// Static slots convert each value into the declared slot type; dynamic
// slots take values as given.
func NewTuple(typ *TupleType, values []Value) (*Tuple, error) {
	if len(values) != len(typ.slots) {
		return nil, compileErr(CodeIncompatibleTupleShape,
			"%d values for %s with %d slots", len(values), typ, len(typ.slots))
	}
	fixed := make([]Value, len(values))
	for i, v := range values {
		if typ.kind == Dynamic {
			fixed[i] = v.Clone()
			continue
		}
		conv, err := Convert(v, typ.slots[i].Type)
		if err != nil {
			return nil, err
		}
		fixed[i] = conv
	}
	return &Tuple{typ: typ, fixed: fixed}, nil
}

// Entry is one property of a dynamic tuple literal.
type Entry struct {
	Name  Symbol
	Value Value
}

// NewDynamicTuple builds a dynamic tuple whose whole shape is runtime
// appended, as a literal like [x: 5, 7] produces. Entry names come from st.
func NewDynamicTuple(st *SymbolTable, entries ...Entry) (*Tuple, error) {
	t := &Tuple{typ: EmptyDynamic, symbols: st}
	for i, e := range entries {
		if !e.Name.IsEmpty() && t.indexOfName(e.Name) >= 0 {
			return nil, runtimeErr(CodeDuplicateName, "property %q repeated at %d", t.nameOf(e.Name), i)
		}
		t.appendSlot(e.Name, e.Value.Clone())
	}
	return t, nil
}

// Type returns the descriptor the tuple was built from.
func (t *Tuple) Type() *TupleType { return t.typ }

// IsDynamic reports whether the tuple may grow.
func (t *Tuple) IsDynamic() bool { return t.typ.kind == Dynamic }

// Len returns the size of the live shape.
func (t *Tuple) Len() int { return len(t.fixed) + len(t.extra) }

// NameAt returns the name of live slot i (EmptySymbol if unnamed).
func (t *Tuple) NameAt(i int) Symbol {
	if i < len(t.fixed) {
		return t.typ.slots[i].Name
	}
	return t.extra[i-len(t.fixed)].name
}

// Names returns the live shape's names in order.
func (t *Tuple) Names() []Symbol {
	out := make([]Symbol, t.Len())
	for i := range out {
		out[i] = t.NameAt(i)
	}
	return out
}

// nameOf resolves a slot name for messages.
func (t *Tuple) nameOf(name Symbol) string {
	st := t.symbols
	if st == nil {
		st = t.typ.symbols
	}
	return symbolName(st, name)
}

// ExtraLen returns the number of runtime-appended slots.
func (t *Tuple) ExtraLen() int { return len(t.extra) }

// At returns a copy of live slot i. It panics if i is out of range.
func (t *Tuple) At(i int) Value { return t.at(i).Clone() }

func (t *Tuple) at(i int) Value {
	if i < len(t.fixed) {
		return t.fixed[i]
	}
	return t.extra[i-len(t.fixed)].value
}

func (t *Tuple) setAt(i int, v Value) {
	if i < len(t.fixed) {
		t.fixed[i] = v
		return
	}
	t.extra[i-len(t.fixed)].value = v
}

// indexOfName returns the live index of name, or -1.
func (t *Tuple) indexOfName(name Symbol) int {
	if name.IsEmpty() {
		return -1
	}
	if i, ok := t.typ.byName[name]; ok {
		return i
	}
	if i, ok := t.extraByName[name]; ok {
		return len(t.fixed) + i
	}
	return -1
}

// Append adds a slot to the end of a dynamic tuple's live shape and returns
// its index. The tuple takes a copy of v.
func (t *Tuple) Append(name Symbol, v Value) (int, error) {
	if !t.IsDynamic() {
		return -1, compileErr(CodeIncompatibleTupleShape, "cannot append to static tuple %s", t.typ)
	}
	if t.indexOfName(name) >= 0 {
		return -1, runtimeErr(CodeDuplicateName, "property %q already present in %s", t.nameOf(name), t.typ)
	}
	return t.appendSlot(name, v.Clone()), nil
}

// appendSlot grows a dynamic tuple and returns the new slot's live index.
func (t *Tuple) appendSlot(name Symbol, v Value) int {
	if !name.IsEmpty() {
		if t.extraByName == nil {
			t.extraByName = make(map[Symbol]int)
		}
		t.extraByName[name] = len(t.extra)
	}
	t.extra = append(t.extra, extraSlot{name: name, value: v})
	return t.Len() - 1
}

// Clone returns a deep copy sharing only the immutable descriptor.
func (t *Tuple) Clone() *Tuple {
	c := &Tuple{typ: t.typ, symbols: t.symbols, fixed: make([]Value, len(t.fixed))}
	for i, v := range t.fixed {
		c.fixed[i] = v.Clone()
	}
	if len(t.extra) > 0 {
		c.extra = make([]extraSlot, len(t.extra))
		for i, e := range t.extra {
			c.extra[i] = extraSlot{name: e.name, value: e.value.Clone()}
		}
		c.extraByName = make(map[Symbol]int, len(t.extraByName))
		for k, v := range t.extraByName {
			c.extraByName[k] = v
		}
	}
	return c
}

// Equal compares two tuples. Static tuples must have equal descriptors;
// dynamic tuples are compared by live shape.
func (t *Tuple) Equal(o *Tuple) bool {
	if t.IsDynamic() != o.IsDynamic() || t.Len() != o.Len() {
		return false
	}
	if !t.IsDynamic() && !TypesEqual(t.typ, o.typ) {
		return false
	}
	for i := 0; i < t.Len(); i++ {
		if t.NameAt(i) != o.NameAt(i) || !Equal(t.at(i), o.at(i)) {
			return false
		}
	}
	return true
}
