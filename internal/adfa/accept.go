package adfa

import "github.com/KromDaniel/lexgen/internal/tcmd"

// AcceptTrans is one entry of an accept table: the state to continue at
// after restoring the saved position, and the tags to finalize on the way.
type AcceptTrans struct {
	State StateID
	Tags  tcmd.ID
}

// AcceptTable is a deduplicating table of fallback transitions. Indices are
// stable for the lifetime of the automaton that owns the table.
type AcceptTable struct {
	entries []AcceptTrans
	index   map[AcceptTrans]int
}

// Insert returns the index of t, adding it if it is not present.
func (a *AcceptTable) Insert(t AcceptTrans) int {
	if i, ok := a.index[t]; ok {
		return i
	}
	if a.index == nil {
		a.index = make(map[AcceptTrans]int)
	}
	i := len(a.entries)
	a.entries = append(a.entries, t)
	a.index[t] = i
	return i
}

// At returns entry i.
func (a *AcceptTable) At(i int) AcceptTrans {
	if i < 0 || i >= len(a.entries) {
		fatalf("accept table index %d out of range [0, %d)", i, len(a.entries))
	}
	return a.entries[i]
}

// Len returns the number of entries.
func (a *AcceptTable) Len() int {
	return len(a.entries)
}

// Entries returns the entries in index order. The result must not be modified.
func (a *AcceptTable) Entries() []AcceptTrans {
	return a.entries
}

// retag replaces the tags of entry i, keeping its index.
func (a *AcceptTable) retag(i int, tags tcmd.ID) {
	t := a.At(i)
	delete(a.index, t)
	t.Tags = tags
	a.entries[i] = t
	if _, ok := a.index[t]; !ok {
		a.index[t] = i
	}
}
