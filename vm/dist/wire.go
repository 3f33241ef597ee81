package dist

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/tuploid/vm"
)

// cborEncMode uses canonical mode so equal values encode to equal bytes
// and hash identically.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dist: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// EncodeType converts t to its wire form. Slot names are read from each
// descriptor's own symbol table.
func EncodeType(t vm.Type) (*WireType, error) {
	return encodeType(t, nil)
}

func encodeType(t vm.Type, open []*vm.TupleType) (*WireType, error) {
	switch tt := t.(type) {
	case *vm.IntegralType:
		return &WireType{Kind: WireIntegral, Name: tt.Name}, nil
	case *vm.StringType:
		return &WireType{Kind: WireString}, nil
	case *vm.FuncType:
		w := &WireType{Kind: WireFunc, Params: make([]WireType, len(tt.Params))}
		for i, p := range tt.Params {
			pw, err := encodeType(p, open)
			if err != nil {
				return nil, err
			}
			w.Params[i] = *pw
		}
		if tt.Result != nil {
			rw, err := encodeType(tt.Result, open)
			if err != nil {
				return nil, err
			}
			w.Result = rw
		}
		return w, nil
	case *vm.SelfType:
		if tt.State() != vm.SelfResolved {
			return nil, fmt.Errorf("dist: cannot encode pending self")
		}
		for i := len(open) - 1; i >= 0; i-- {
			if open[i] == tt.Target() {
				return &WireType{Kind: WireSelf, SelfDepth: len(open) - 1 - i}, nil
			}
		}
		// self of a tuple we are not inside: spell the tuple out.
		return encodeType(tt.Target(), open)
	case *vm.TupleType:
		w := &WireType{Kind: WireTuple, Dynamic: tt.IsDynamic(), Slots: make([]WireSlot, tt.Len())}
		open = append(open, tt)
		for i, s := range tt.Slots() {
			sw, err := encodeType(s.Type, open)
			if err != nil {
				return nil, err
			}
			w.Slots[i] = WireSlot{Name: slotName(tt.Symbols(), s.Name), Type: *sw}
		}
		return w, nil
	default:
		return nil, fmt.Errorf("dist: cannot encode type %T", t)
	}
}

func slotName(st *vm.SymbolTable, s vm.Symbol) string {
	if s.IsEmpty() || st == nil {
		return ""
	}
	return st.Name(s)
}

// DecodeType rebuilds a type from its wire form, interning names in st.
// Self back-references go through the same pending/resolved handshake as
// a freshly defined recursive type.
func DecodeType(st *vm.SymbolTable, w *WireType) (vm.Type, error) {
	return decodeType(st, w, nil)
}

func decodeType(st *vm.SymbolTable, w *WireType, open []*vm.SelfType) (vm.Type, error) {
	switch w.Kind {
	case WireIntegral:
		t, ok := vm.PrimitiveByName(w.Name)
		if !ok {
			return nil, fmt.Errorf("dist: unknown integral type %q", w.Name)
		}
		if _, isInt := t.(*vm.IntegralType); !isInt {
			return nil, fmt.Errorf("dist: %q is not an integral type", w.Name)
		}
		return t, nil
	case WireString:
		return vm.String, nil
	case WireFunc:
		params := make([]vm.Type, len(w.Params))
		for i := range w.Params {
			p, err := decodeType(st, &w.Params[i], open)
			if err != nil {
				return nil, err
			}
			params[i] = p
		}
		var result vm.Type
		if w.Result != nil {
			r, err := decodeType(st, w.Result, open)
			if err != nil {
				return nil, err
			}
			result = r
		}
		return vm.NewFuncType(result, params...), nil
	case WireSelf:
		i := len(open) - 1 - w.SelfDepth
		if w.SelfDepth < 0 || i < 0 {
			return nil, fmt.Errorf("dist: self reference %d escapes its definition", w.SelfDepth)
		}
		return open[i], nil
	case WireTuple:
		self := vm.NewSelfType()
		open = append(open, self)
		specs := make([]vm.SlotSpec, len(w.Slots))
		for i := range w.Slots {
			t, err := decodeType(st, &w.Slots[i].Type, open)
			if err != nil {
				return nil, err
			}
			specs[i] = vm.SlotSpec{Name: st.Intern(w.Slots[i].Name), Type: t}
		}
		kind := vm.Static
		if w.Dynamic {
			kind = vm.Dynamic
		}
		desc, err := vm.NewTupleType(st, kind, specs)
		if err != nil {
			return nil, fmt.Errorf("dist: decode tuple type: %w", err)
		}
		if err := self.Complete(desc); err != nil {
			return nil, err
		}
		return desc, nil
	default:
		return nil, fmt.Errorf("dist: unknown wire kind %d", w.Kind)
	}
}

// ---------------------------------------------------------------------------
// Values
// ---------------------------------------------------------------------------

// EncodeValue converts v to its wire form, reading strings from st.
func EncodeValue(st *vm.SymbolTable, v vm.Value) (*WireValue, error) {
	switch v.Kind() {
	case vm.KindIntegral:
		return &WireValue{Kind: WireIntegral, Type: &WireType{Kind: WireIntegral, Name: v.IntegralType().Name}, Bits: v.Bits()}, nil
	case vm.KindString:
		sym := v.Symbol()
		if int(sym) >= st.Len() {
			return nil, fmt.Errorf("dist: string symbol %d is not in the symbol table", sym)
		}
		return &WireValue{Kind: WireString, Str: st.Name(sym)}, nil
	case vm.KindFunc:
		ft, err := EncodeType(vm.TypeOf(v))
		if err != nil {
			return nil, err
		}
		return &WireValue{Kind: WireFunc, Type: ft, Bits: v.FuncRef()}, nil
	case vm.KindTuple:
		return encodeTuple(st, v.Tuple())
	default:
		return nil, fmt.Errorf("dist: cannot encode invalid value")
	}
}

func encodeTuple(st *vm.SymbolTable, t *vm.Tuple) (*WireValue, error) {
	tw, err := EncodeType(t.Type())
	if err != nil {
		return nil, err
	}
	w := &WireValue{Kind: WireTuple, Type: tw}
	fixed := t.Type().Len()
	for i := 0; i < t.Len(); i++ {
		ev, err := EncodeValue(st, t.At(i))
		if err != nil {
			return nil, fmt.Errorf("dist: slot %d: %w", i, err)
		}
		if i < fixed {
			w.Fixed = append(w.Fixed, *ev)
			continue
		}
		w.Extra = append(w.Extra, WireEntry{Name: slotName(st, t.NameAt(i)), Value: *ev})
	}
	return w, nil
}

// DecodeValue rebuilds a value from its wire form, interning strings and
// names in st. Static tuples are checked against their declared slot types.
func DecodeValue(st *vm.SymbolTable, w *WireValue) (vm.Value, error) {
	switch w.Kind {
	case WireIntegral:
		if w.Type == nil {
			return vm.Value{}, fmt.Errorf("dist: integral without type")
		}
		t, err := decodeType(st, w.Type, nil)
		if err != nil {
			return vm.Value{}, err
		}
		it, ok := t.(*vm.IntegralType)
		if !ok {
			return vm.Value{}, fmt.Errorf("dist: integral with type %s", t)
		}
		return vm.FromUint(it, w.Bits), nil
	case WireString:
		return st.StringValue(w.Str), nil
	case WireFunc:
		if w.Type == nil {
			return vm.Value{}, fmt.Errorf("dist: func without type")
		}
		t, err := decodeType(st, w.Type, nil)
		if err != nil {
			return vm.Value{}, err
		}
		ft, ok := t.(*vm.FuncType)
		if !ok {
			return vm.Value{}, fmt.Errorf("dist: func with type %s", t)
		}
		return vm.FromFunc(ft, w.Bits), nil
	case WireTuple:
		return decodeTuple(st, w)
	default:
		return vm.Value{}, fmt.Errorf("dist: unknown wire kind %d", w.Kind)
	}
}

func decodeTuple(st *vm.SymbolTable, w *WireValue) (vm.Value, error) {
	if w.Type == nil {
		return vm.Value{}, fmt.Errorf("dist: tuple without type")
	}
	t, err := decodeType(st, w.Type, nil)
	if err != nil {
		return vm.Value{}, err
	}
	desc, ok := t.(*vm.TupleType)
	if !ok {
		return vm.Value{}, fmt.Errorf("dist: tuple with type %s", t)
	}
	fixed := make([]vm.Value, len(w.Fixed))
	for i := range w.Fixed {
		v, err := DecodeValue(st, &w.Fixed[i])
		if err != nil {
			return vm.Value{}, fmt.Errorf("dist: slot %d: %w", i, err)
		}
		fixed[i] = v
	}
	tup, err := vm.NewTuple(desc, fixed)
	if err != nil {
		return vm.Value{}, fmt.Errorf("dist: decode tuple: %w", err)
	}
	for i := range w.Extra {
		v, err := DecodeValue(st, &w.Extra[i].Value)
		if err != nil {
			return vm.Value{}, fmt.Errorf("dist: extra slot %d: %w", i, err)
		}
		if _, err := tup.Append(st.Intern(w.Extra[i].Name), v); err != nil {
			return vm.Value{}, fmt.Errorf("dist: extra slot %d: %w", i, err)
		}
	}
	return vm.FromTuple(tup), nil
}

// ---------------------------------------------------------------------------
// Envelopes
// ---------------------------------------------------------------------------

func seal(content Content, payload any) ([]byte, error) {
	data, err := cborEncMode.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(&Envelope{
		Hash:    sha256.Sum256(data),
		Version: WireVersion,
		Content: content,
		Payload: data,
	})
}

func unseal(data []byte, content Content, payload any) error {
	var env Envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("dist: unmarshal envelope: %w", err)
	}
	if env.Version != WireVersion {
		return fmt.Errorf("dist: wire version %d, want %d", env.Version, WireVersion)
	}
	if env.Content != content {
		return fmt.Errorf("dist: envelope holds content %d, want %d", env.Content, content)
	}
	if sha256.Sum256(env.Payload) != env.Hash {
		return fmt.Errorf("dist: payload hash mismatch")
	}
	if err := cbor.Unmarshal(env.Payload, payload); err != nil {
		return fmt.Errorf("dist: unmarshal payload: %w", err)
	}
	return nil
}

// MarshalValue serializes v to CBOR bytes.
func MarshalValue(st *vm.SymbolTable, v vm.Value) ([]byte, error) {
	w, err := EncodeValue(st, v)
	if err != nil {
		return nil, err
	}
	return seal(ContentValue, w)
}

// UnmarshalValue deserializes a value, interning strings in st.
func UnmarshalValue(st *vm.SymbolTable, data []byte) (vm.Value, error) {
	var w WireValue
	if err := unseal(data, ContentValue, &w); err != nil {
		return vm.Value{}, err
	}
	return DecodeValue(st, &w)
}

// MarshalType serializes a type to CBOR bytes.
func MarshalType(t vm.Type) ([]byte, error) {
	w, err := EncodeType(t)
	if err != nil {
		return nil, err
	}
	return seal(ContentType, w)
}

// UnmarshalType deserializes a type, interning names in st.
func UnmarshalType(st *vm.SymbolTable, data []byte) (vm.Type, error) {
	var w WireType
	if err := unseal(data, ContentType, &w); err != nil {
		return nil, err
	}
	return DecodeType(st, &w)
}

// Handoff copies v from one owner's symbol table into another's by way of
// the wire form. The result shares nothing with v.
func Handoff(from, to *vm.SymbolTable, v vm.Value) (vm.Value, error) {
	data, err := MarshalValue(from, v)
	if err != nil {
		return vm.Value{}, err
	}
	return UnmarshalValue(to, data)
}
