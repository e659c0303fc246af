package adfa

// bitmapBlock is the number of characters one bitmap block covers.
const bitmapBlock = 256

// BitmapEntry locates the bits of one state in a Bitmap.
type BitmapEntry struct {
	Offset int
	Mask   byte
}

// Bitmap records, for every state that delegates to a base, which bytes are
// delegated. Eight states share a 256-byte block, one mask bit each, so the
// emitter can test delegation with a single table lookup.
type Bitmap struct {
	Table   []byte
	entries map[StateID]BitmapEntry
	states  []StateID
}

func (d *DFA) buildBitmap() {
	b := &Bitmap{entries: make(map[StateID]BitmapEntry)}
	for _, s := range d.states {
		if s.Go.Base != NoState {
			b.insert(s)
		}
	}
	if len(b.states) > 0 {
		d.Bitmap = b
		d.log.Log("Bitmap: %d states in %d bytes", len(b.states), len(b.Table))
	}
}

func (b *Bitmap) insert(s *State) {
	n := len(b.states)
	if n%8 == 0 {
		b.Table = append(b.Table, make([]byte, bitmapBlock)...)
	}
	e := BitmapEntry{
		Offset: (n / 8) * bitmapBlock,
		Mask:   byte(0x80) >> uint(n%8),
	}

	var lo uint32
	for _, sp := range s.Go.Spans {
		if sp.To == s.Go.Base {
			for c := lo; c < sp.Ub && c < bitmapBlock; c++ {
				b.Table[e.Offset+int(c)] |= e.Mask
			}
		}
		lo = sp.Ub
	}

	b.entries[s.ID] = e
	b.states = append(b.states, s.ID)
}

// Entry returns the bitmap location of a state.
func (b *Bitmap) Entry(id StateID) (BitmapEntry, bool) {
	e, ok := b.entries[id]
	return e, ok
}

// Lookup reports whether state id delegates byte c to its base.
func (b *Bitmap) Lookup(id StateID, c byte) bool {
	e, ok := b.entries[id]
	if !ok {
		return false
	}
	return b.Table[e.Offset+int(c)]&e.Mask != 0
}

// States returns the states recorded in the bitmap, in insertion order.
func (b *Bitmap) States() []StateID {
	return b.states
}
