package vm

import (
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Engine: the runtime entry points used by a back end
// ---------------------------------------------------------------------------

// Options tune runtime behaviour.
type Options struct {
	// IndexGrowth lets Set(ByIndex(n)) on a dynamic tuple append an unnamed
	// slot when n equals the current length. Any larger index is still out
	// of range. Off by default.
	IndexGrowth bool
}

// Engine bundles the symbol table and options shared by one program's
// values. It holds no per-value state; tuples stay single-owner.
type Engine struct {
	Symbols *SymbolTable
	opts    Options
	log     commonlog.Logger
}

// NewEngine creates an engine with a fresh symbol table.
func NewEngine(opts Options) *Engine {
	return NewEngineWithSymbols(NewSymbolTable(), opts)
}

// NewEngineWithSymbols creates an engine sharing an existing symbol table,
// typically the one the front end interned names into.
func NewEngineWithSymbols(st *SymbolTable, opts Options) *Engine {
	return &Engine{
		Symbols: st,
		opts:    opts,
		log:     commonlog.GetLogger("tuploid.vm"),
	}
}

// Options returns the engine's options.
func (e *Engine) Options() Options { return e.opts }

// Intern interns s in the engine's symbol table.
func (e *Engine) Intern(s string) Symbol { return e.Symbols.Intern(s) }

// Default is the package-level Default; kept on Engine so a back end can
// work against one object.
func (e *Engine) Default(t Type) Value { return Default(t) }

// Format renders v with the engine's symbol table.
func (e *Engine) Format(v Value) string { return Format(e.Symbols, v) }

// ---------------------------------------------------------------------------
// Property access
// ---------------------------------------------------------------------------

// PropertyKey addresses a tuple slot by position or by name.
type PropertyKey struct {
	byName bool
	index  uint64
	name   Symbol
}

// ByIndex addresses the slot at position i of the live shape.
func ByIndex(i uint64) PropertyKey { return PropertyKey{index: i} }

// ByName addresses the slot called name.
func ByName(name Symbol) PropertyKey { return PropertyKey{byName: true, name: name} }

// IsName reports whether the key addresses a slot by name.
func (k PropertyKey) IsName() bool { return k.byName }

// Index returns the position of a ByIndex key.
func (k PropertyKey) Index() uint64 { return k.index }

// Name returns the name of a ByName key.
func (k PropertyKey) Name() Symbol { return k.name }

// resolve maps key onto a live index of t.
func (e *Engine) resolve(t *Tuple, key PropertyKey) (int, error) {
	if key.byName {
		if !t.IsDynamic() {
			// Static names are normally resolved by the checker; reaching
			// here with an unknown name means type checking was skipped.
			return t.typ.LookupName(key.name)
		}
		if i := t.indexOfName(key.name); i >= 0 {
			return i, nil
		}
		return -1, runtimeErr(CodeNoSuchProperty, "no property %q in %s",
			e.Symbols.Name(key.name), e.Format(FromTuple(t)))
	}
	if key.index >= uint64(t.Len()) {
		return -1, runtimeErr(CodeIndexOutOfRange, "index %d out of range for tuple of length %d",
			key.index, t.Len())
	}
	return int(key.index), nil
}

// Get returns a copy of the slot addressed by key.
func (e *Engine) Get(t *Tuple, key PropertyKey) (Value, error) {
	i, err := e.resolve(t, key)
	if err != nil {
		return Value{}, err
	}
	return t.at(i).Clone(), nil
}

// Set stores a copy of v in the slot addressed by key. Static slots take v
// by the assignment rules of their declared type, so a static tuple stored
// into a dynamic-typed slot merges into the tuple already there. On a
// dynamic tuple an unknown name appends a new slot; indices past the end are
// out of range unless IndexGrowth is on and the index equals the length. On
// error t is unchanged.
func (e *Engine) Set(t *Tuple, key PropertyKey, v Value) error {
	if t.IsDynamic() {
		return e.setDynamic(t, key, v)
	}
	i, err := e.resolve(t, key)
	if err != nil {
		return err
	}
	return e.Assign(&t.fixed[i], t.typ.slots[i].Type, v)
}

func (e *Engine) setDynamic(t *Tuple, key PropertyKey, v Value) error {
	if key.byName {
		if key.name.IsEmpty() {
			return runtimeErr(CodeNoSuchProperty, "empty property name")
		}
		if i := t.indexOfName(key.name); i >= 0 {
			t.setAt(i, v.Clone())
			return nil
		}
		i := t.appendSlot(key.name, v.Clone())
		e.log.Debugf("appended property %q at %d", e.Symbols.Name(key.name), i)
		return nil
	}
	n := uint64(t.Len())
	switch {
	case key.index < n:
		t.setAt(int(key.index), v.Clone())
		return nil
	case key.index == n && e.opts.IndexGrowth:
		t.appendSlot(EmptySymbol, v.Clone())
		e.log.Debugf("appended unnamed property at %d", n)
		return nil
	default:
		return runtimeErr(CodeIndexOutOfRange, "index %d out of range for tuple of length %d", key.index, n)
	}
}

// ---------------------------------------------------------------------------
// Assignment
// ---------------------------------------------------------------------------

// Convert is the package-level Convert with debug logging.
func (e *Engine) Convert(v Value, target Type) (Value, error) {
	out, err := Convert(v, target)
	if err != nil {
		e.log.Debugf("convert to %s failed: %s", typeName(target), err)
	}
	return out, err
}

// Assign stores src into the binding *dst whose declared type is declared.
// A static tuple assigned into a dynamic binding merges into the existing
// tuple; every other case replaces *dst with Convert(src, declared). Either
// the assignment fully succeeds or *dst is untouched.
func (e *Engine) Assign(dst *Value, declared Type, src Value) error {
	if dt, ok := Underlying(declared).(*TupleType); ok && dt.kind == Dynamic &&
		src.kind == KindTuple && !src.tuple.IsDynamic() &&
		dst.kind == KindTuple && dst.tuple.IsDynamic() {
		overwritten, appended := merge(dst.tuple, src.tuple)
		e.log.Debugf("merged %s: %d overwritten, %d appended", src.tuple.typ, overwritten, appended)
		return nil
	}
	v, err := e.Convert(src, declared)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
