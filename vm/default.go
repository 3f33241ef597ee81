package vm

import "fmt"

// Default returns the zero value of t: integral zero of the same kind, the
// empty string, an unbound function, or a tuple whose declared slots are
// recursively defaulted and which has no appended slots.
//
// Default panics on a self placeholder that is still pending; descriptors
// reject such slots, so only a caller holding the raw placeholder can hit it.
func Default(t Type) Value {
	switch tt := Underlying(t).(type) {
	case *IntegralType:
		return Value{kind: KindIntegral, typ: tt}
	case *StringType:
		return FromSymbol(EmptySymbol)
	case *FuncType:
		return FromFunc(tt, 0)
	case *TupleType:
		fixed := make([]Value, len(tt.slots))
		for i, s := range tt.slots {
			fixed[i] = Default(s.Type)
		}
		return FromTuple(&Tuple{typ: tt, fixed: fixed})
	case *SelfType:
		panic("vm.Default: self used before its definition completed")
	default:
		panic(fmt.Sprintf("vm.Default: unknown type %T", t))
	}
}
