package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindInvalid ValueKind = iota
	KindIntegral
	KindString
	KindFunc
	KindTuple
)

func (k ValueKind) String() string {
	switch k {
	case KindIntegral:
		return "integral"
	case KindString:
		return "string"
	case KindFunc:
		return "func"
	case KindTuple:
		return "tuple"
	default:
		return "invalid"
	}
}

// Value is a tagged variant over the engine's value kinds.
//
// Encoding:
//   - Integral: typ is the *IntegralType, bits holds the value truncated to width
//   - String: typ is String, bits holds the Symbol
//   - Func: typ is the *FuncType, bits holds an opaque function handle (0 = unbound)
//   - Tuple: tuple points at the exclusively owned *Tuple
//
// The zero Value is invalid.
type Value struct {
	kind  ValueKind
	typ   Type
	bits  uint64
	tuple *Tuple
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsValid returns false for the zero Value.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsIntegral returns true if v holds an integer.
func (v Value) IsIntegral() bool { return v.kind == KindIntegral }

// IsString returns true if v holds an interned string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsFunc returns true if v holds a function handle.
func (v Value) IsFunc() bool { return v.kind == KindFunc }

// IsTuple returns true if v holds a tuple.
func (v Value) IsTuple() bool { return v.kind == KindTuple }

// TypeOf returns the type v was built with. Dynamic tuples report the
// descriptor they were initialised from; their live shape may be larger.
func TypeOf(v Value) Type {
	if v.kind == KindTuple {
		return v.tuple.typ
	}
	return v.typ
}

// ---------------------------------------------------------------------------
// Integral operations
// ---------------------------------------------------------------------------

// FromInt creates an integral Value of kind t, truncating n to t's width.
func FromInt(t *IntegralType, n int64) Value {
	return Value{kind: KindIntegral, typ: t, bits: uint64(n) & t.mask()}
}

// FromUint creates an integral Value of kind t, truncating n to t's width.
func FromUint(t *IntegralType, n uint64) Value {
	return Value{kind: KindIntegral, typ: t, bits: n & t.mask()}
}

// FromInt8 and friends build values of the matching kind.
func FromInt8(n int8) Value     { return FromInt(Int8, int64(n)) }
func FromInt16(n int16) Value   { return FromInt(Int16, int64(n)) }
func FromInt32(n int32) Value   { return FromInt(Int32, int64(n)) }
func FromInt64(n int64) Value   { return FromInt(Int64, n) }
func FromUint8(n uint8) Value   { return FromUint(Uint8, uint64(n)) }
func FromUint16(n uint16) Value { return FromUint(Uint16, uint64(n)) }
func FromUint32(n uint32) Value { return FromUint(Uint32, uint64(n)) }
func FromUint64(n uint64) Value { return FromUint(Uint64, n) }

// IntegralType returns the integer kind of v.
// Panics if v is not integral.
func (v Value) IntegralType() *IntegralType {
	if v.kind != KindIntegral {
		panic("Value.IntegralType: not an integral")
	}
	return v.typ.(*IntegralType)
}

// Bits returns the raw, width-truncated bits of an integral value.
// Panics if v is not integral.
func (v Value) Bits() uint64 {
	if v.kind != KindIntegral {
		panic("Value.Bits: not an integral")
	}
	return v.bits
}

// Int64 returns v sign-extended (signed kinds) or zero-extended.
// Panics if v is not integral.
func (v Value) Int64() int64 {
	t := v.IntegralType()
	if t.Signed && t.Width < 64 {
		shift := 64 - uint(t.Width)
		return int64(v.bits<<shift) >> shift
	}
	return int64(v.bits)
}

// Uint64 returns the zero-extended bits of v.
// Panics if v is not integral.
func (v Value) Uint64() uint64 {
	return v.Bits()
}

// ---------------------------------------------------------------------------
// String operations
// ---------------------------------------------------------------------------

// FromSymbol creates a string Value from an interned handle.
func FromSymbol(s Symbol) Value {
	return Value{kind: KindString, typ: String, bits: uint64(s)}
}

// Symbol returns the interned handle of a string value.
// Panics if v is not a string.
func (v Value) Symbol() Symbol {
	if v.kind != KindString {
		panic("Value.Symbol: not a string")
	}
	return Symbol(v.bits)
}

// ---------------------------------------------------------------------------
// Function handles
// ---------------------------------------------------------------------------

// FromFunc creates a function value. ref is an opaque handle owned by the
// host; 0 means unbound.
func FromFunc(t *FuncType, ref uint64) Value {
	return Value{kind: KindFunc, typ: t, bits: ref}
}

// FuncRef returns the function handle.
// Panics if v is not a function.
func (v Value) FuncRef() uint64 {
	if v.kind != KindFunc {
		panic("Value.FuncRef: not a function")
	}
	return v.bits
}

// ---------------------------------------------------------------------------
// Tuple operations
// ---------------------------------------------------------------------------

// FromTuple wraps t. The Value takes ownership of t.
func FromTuple(t *Tuple) Value {
	return Value{kind: KindTuple, tuple: t}
}

// Tuple returns the tuple held by v.
// Panics if v is not a tuple.
func (v Value) Tuple() *Tuple {
	if v.kind != KindTuple {
		panic("Value.Tuple: not a tuple")
	}
	return v.tuple
}

// Clone returns a deep copy. Nested tuples are copied, never shared.
func (v Value) Clone() Value {
	if v.kind == KindTuple {
		return FromTuple(v.tuple.Clone())
	}
	return v
}

// Equal reports deep value equality.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindIntegral:
		return a.typ == b.typ && a.bits == b.bits
	case KindString:
		return a.bits == b.bits
	case KindFunc:
		return a.bits == b.bits && TypesEqual(a.typ, b.typ)
	case KindTuple:
		return a.tuple.Equal(b.tuple)
	default:
		return true
	}
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

// Format renders v, resolving names and strings through st.
func Format(st *SymbolTable, v Value) string {
	var b strings.Builder
	formatValue(&b, st, v)
	return b.String()
}

func formatValue(b *strings.Builder, st *SymbolTable, v Value) {
	switch v.kind {
	case KindIntegral:
		if v.IntegralType().Signed {
			b.WriteString(strconv.FormatInt(v.Int64(), 10))
		} else {
			b.WriteString(strconv.FormatUint(v.bits, 10))
		}
	case KindString:
		b.WriteString(strconv.Quote(symbolName(st, Symbol(v.bits))))
	case KindFunc:
		if v.bits == 0 {
			b.WriteString("<unbound fn>")
		} else {
			fmt.Fprintf(b, "<fn %d>", v.bits)
		}
	case KindTuple:
		formatTuple(b, st, v.tuple)
	default:
		b.WriteString("<invalid>")
	}
}

func formatTuple(b *strings.Builder, st *SymbolTable, t *Tuple) {
	lp, rp := "(", ")"
	if t.IsDynamic() {
		lp, rp = "[", "]"
	}
	b.WriteString(lp)
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if name := t.NameAt(i); !name.IsEmpty() {
			b.WriteString(symbolName(st, name))
			b.WriteString(": ")
		}
		formatValue(b, st, t.at(i))
	}
	b.WriteString(rp)
}
