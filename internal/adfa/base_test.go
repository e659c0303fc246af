package adfa

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// twinYAML has two fallback states for rule A with identical transitions,
// so the continuation of one can delegate everything to the other.
const twinYAML = `
name: Twin
charset: [0, 97, 98, 99, 256]
rules:
  - name: A
states:
  - arcs: [-1, 1, 2, -1]
  - arcs: [-1, 1, 1, 3]
    rule: 0
  - arcs: [-1, 1, 1, 3]
    rule: 0
  - arcs: [-1, 1, -1, -1]
fill: [1, 0, 0, 0]
`

func TestBaseStateScenario(t *testing.T) {
	in, pool := decode(t, twinYAML)
	opts := DefaultOptions()
	opts.Bitmaps = true
	d := build(t, in, pool, opts)

	require.Equal(t, 8, d.Len())
	require.Equal(t, []AcceptTrans{{State: 4}}, d.Accepts.Entries())
	require.Equal(t, Save{Slot: 0}, actionOf(d, 1))
	require.Equal(t, Save{Slot: 0}, actionOf(d, 2))
	require.Equal(t, Move{}, actionOf(d, 6))
	require.Equal(t, Move{}, actionOf(d, 7))

	require.Equal(t, NoState, d.State(6).Go.Base)
	require.Equal(t, StateID(6), d.State(7).Go.Base)
	require.Equal(t, []Span{{Ub: 256, Edge: Edge{To: 6}}}, d.State(7).Go.Spans)
	if diff := cmp.Diff(d.Unpack(6), d.Unpack(7)); diff != "" {
		t.Errorf("Unpack() mismatch (-want +got):\n%s", diff)
	}

	require.NotNil(t, d.Bitmap)
	require.Equal(t, []StateID{7}, d.Bitmap.States())
	for c := 0; c < 256; c++ {
		require.True(t, d.Bitmap.Lookup(7, byte(c)))
	}

	for _, input := range []string{"a", "ab", "b", "bc", "bca", "bcb", "x", ""} {
		want := in.DFA.Exec(pool, []byte(input), true)
		require.Equal(t, want, d.Exec([]byte(input)), "input %q", input)
	}
}

func TestMerge(t *testing.T) {
	fg := []Span{
		{Ub: 10, Edge: Edge{To: 1}},
		{Ub: 20, Edge: Edge{To: 2}},
		{Ub: 256, Edge: Edge{To: 3}},
	}
	bg := []Span{
		{Ub: 10, Edge: Edge{To: 1}},
		{Ub: 15, Edge: Edge{To: 5}},
		{Ub: 256, Edge: Edge{To: 3}},
	}

	want := []Span{
		{Ub: 10, Edge: Edge{To: 9}},
		{Ub: 20, Edge: Edge{To: 2}},
		{Ub: 256, Edge: Edge{To: 9}},
	}
	if diff := cmp.Diff(want, merge(fg, bg, 9)); diff != "" {
		t.Errorf("merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeComparesTags(t *testing.T) {
	fg := []Span{{Ub: 256, Edge: Edge{To: 1, Tags: 2}}}
	bg := []Span{{Ub: 256, Edge: Edge{To: 1, Tags: 3}}}

	if diff := cmp.Diff(fg, merge(fg, bg, 9)); diff != "" {
		t.Errorf("merge() mismatch (-want +got):\n%s", diff)
	}
}

// TestUnpackRestoresTables compares the tables of every state with and
// without base states: delegation must be exactly reversible.
func TestUnpackRestoresTables(t *testing.T) {
	plain := DefaultOptions()
	plain.BaseStates = false
	plain.HoistTags = false
	based := plain
	based.BaseStates = true
	based.Bitmaps = true

	r := rand.New(rand.NewSource(11))
	delegated := 0
	for i := 0; i < 500; i++ {
		in, pool := randomAutomaton(r)
		want := build(t, in, pool, plain)
		got := build(t, in, pool, based)
		require.Equal(t, want.Len(), got.Len())

		for _, s := range got.States() {
			if Terminal(s.Action) {
				continue
			}
			if diff := cmp.Diff(normalize(want.State(s.ID).Go.Spans), got.Unpack(s.ID)); diff != "" {
				t.Fatalf("automaton %d state %d: Unpack() mismatch (-want +got):\n%s", i, s.ID, diff)
			}
			if s.Go.Base == NoState {
				continue
			}
			delegated++
			require.Zero(t, s.Fill, "automaton %d state %d delegates with fill", i, s.ID)
			require.Less(t, len(s.Go.Spans), len(want.State(s.ID).Go.Spans))
			require.False(t, got.delegates(s.Go.Base, s.ID), "automaton %d state %d: cyclic delegation", i, s.ID)
			requireBitmap(t, got, s)
		}
	}
	t.Logf("%d delegating states checked", delegated)
}

func requireBitmap(t *testing.T, d *DFA, s *State) {
	t.Helper()
	require.NotNil(t, d.Bitmap)
	_, ok := d.Bitmap.Entry(s.ID)
	require.True(t, ok, "state %d missing from bitmap", s.ID)
	for c := 0; c < 256; c++ {
		sp := s.Go.find(uint32(c))
		want := sp.To == s.Go.Base
		require.Equal(t, want, d.Bitmap.Lookup(s.ID, byte(c)), "state %d byte %d", s.ID, c)
	}
}

func TestBaseStatePolicy(t *testing.T) {
	strict := DefaultOptions()
	strict.BasePolicy.MinSharers = 1000

	r := rand.New(rand.NewSource(5))
	for i := 0; i < 200; i++ {
		in, pool := randomAutomaton(r)
		d := build(t, in, pool, strict)
		for _, s := range d.States() {
			require.Equal(t, NoState, s.Go.Base, "automaton %d state %d", i, s.ID)
		}
	}
}

func TestBitmapLayout(t *testing.T) {
	b := &Bitmap{entries: make(map[StateID]BitmapEntry)}
	for i := 0; i < 9; i++ {
		s := newState(StateID(i))
		s.Go.Base = 100
		s.Go.Spans = []Span{
			{Ub: uint32(i), Edge: Edge{To: 1}},
			{Ub: uint32(i) + 1, Edge: Edge{To: 100}},
			{Ub: 256, Edge: Edge{To: 1}},
		}
		b.insert(s)
	}

	require.Len(t, b.Table, 512)
	e, ok := b.Entry(8)
	require.True(t, ok)
	require.Equal(t, BitmapEntry{Offset: 256, Mask: 0x80}, e)
	e, _ = b.Entry(3)
	require.Equal(t, BitmapEntry{Offset: 0, Mask: 0x10}, e)

	for i := 0; i < 9; i++ {
		for c := 0; c < 12; c++ {
			require.Equal(t, c == i, b.Lookup(StateID(i), byte(c)), "state %d byte %d", i, c)
		}
	}
	require.False(t, b.Lookup(42, 0))
	require.Len(t, b.States(), 9)
}
