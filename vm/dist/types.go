// Package dist implements the wire form of tuploid values and types. A tuple
// handed to another owner (another goroutine, process or store) is encoded
// to canonical CBOR and decoded into the receiver's symbol table, so the two
// sides never share a tuple.
package dist

// WireKind identifies what a WireType or WireValue holds.
type WireKind uint8

const (
	WireIntegral WireKind = 1
	WireString   WireKind = 2
	WireFunc     WireKind = 3
	WireTuple    WireKind = 4
	WireSelf     WireKind = 5 // types only
)

// WireVersion is bumped whenever the encoding changes incompatibly.
const WireVersion byte = 1

// WireType is the self-describing form of a vm.Type. Names travel as strings.
type WireType struct {
	Kind    WireKind   `cbor:"1,keyasint"`
	Name    string     `cbor:"2,keyasint,omitempty"` // primitive name
	Dynamic bool       `cbor:"3,keyasint,omitempty"`
	Slots   []WireSlot `cbor:"4,keyasint,omitempty"`
	Params  []WireType `cbor:"5,keyasint,omitempty"`
	Result  *WireType  `cbor:"6,keyasint,omitempty"`
	// SelfDepth counts enclosing tuple definitions outward from the
	// innermost for a WireSelf back-reference.
	SelfDepth int `cbor:"7,keyasint,omitempty"`
}

// WireSlot is one declared tuple slot.
type WireSlot struct {
	Name string   `cbor:"1,keyasint,omitempty"`
	Type WireType `cbor:"2,keyasint"`
}

// WireValue is the self-describing form of a vm.Value.
type WireValue struct {
	Kind  WireKind    `cbor:"1,keyasint"`
	Type  *WireType   `cbor:"2,keyasint,omitempty"`
	Bits  uint64      `cbor:"3,keyasint,omitempty"`
	Str   string      `cbor:"4,keyasint,omitempty"`
	Fixed []WireValue `cbor:"5,keyasint,omitempty"`
	Extra []WireEntry `cbor:"6,keyasint,omitempty"`
}

// WireEntry is a runtime-appended slot of a dynamic tuple.
type WireEntry struct {
	Name  string    `cbor:"1,keyasint,omitempty"`
	Value WireValue `cbor:"2,keyasint"`
}

// Content identifies what an Envelope's payload encodes.
type Content uint8

const (
	ContentValue Content = 1
	ContentType  Content = 2
)

// Envelope wraps an encoded payload with its content hash so a receiver can
// reject corrupted data before decoding it.
type Envelope struct {
	Hash    [32]byte `cbor:"1,keyasint"`
	Version byte     `cbor:"2,keyasint"`
	Content Content  `cbor:"3,keyasint"`
	Payload []byte   `cbor:"4,keyasint"`
}
