package vm

// shape is an ordered list of slot names: a descriptor's declared slots or
// a tuple's live slots.
type shape interface {
	Len() int
	NameAt(i int) Symbol
}

type matchMode int

const (
	// matchPrefix pairs target slot i with source slot i; names (or their
	// absence) must be identical.
	matchPrefix matchMode = iota
	// matchSubset pairs a named target slot with the source slot of the same
	// name anywhere in the shape, and the k-th unnamed target slot with the
	// k-th unnamed source slot.
	matchSubset
)

// shapeMismatch describes why matchShape failed. source is -1 when the
// target slot had no counterpart at all.
type shapeMismatch struct {
	target int
	source int
	cause  error
}

// findSlot locates the slot with the given identity. A named slot is found
// by name. An unnamed slot is identified by its ordinal among the unnamed
// slots of its shape, so named slots in between never shift it.
func findSlot(src shape, name Symbol, ordinal int) int {
	if !name.IsEmpty() {
		if t, ok := src.(*Tuple); ok {
			return t.indexOfName(name)
		}
		for i := 0; i < src.Len(); i++ {
			if src.NameAt(i) == name {
				return i
			}
		}
		return -1
	}
	for i := 0; i < src.Len(); i++ {
		if !src.NameAt(i).IsEmpty() {
			continue
		}
		if ordinal == 0 {
			return i
		}
		ordinal--
	}
	return -1
}

// matchShape pairs every target slot with a source slot and checks each pair
// with compatible. It returns, for each target slot, the source index it
// pairs with. Nothing is written anywhere, so callers can stage a full
// conversion before touching the destination.
func matchShape(target []Slot, src shape, mode matchMode, compatible func(ti, si int) error) ([]int, *shapeMismatch) {
	pairs := make([]int, len(target))
	unnamed := 0
	for ti, slot := range target {
		si := -1
		switch mode {
		case matchPrefix:
			if ti < src.Len() && src.NameAt(ti) == slot.Name {
				si = ti
			}
		case matchSubset:
			si = findSlot(src, slot.Name, unnamed)
		}
		if slot.Name.IsEmpty() {
			unnamed++
		}
		if si < 0 {
			return nil, &shapeMismatch{target: ti, source: -1}
		}
		if err := compatible(ti, si); err != nil {
			return nil, &shapeMismatch{target: ti, source: si, cause: err}
		}
		pairs[ti] = si
	}
	return pairs, nil
}
