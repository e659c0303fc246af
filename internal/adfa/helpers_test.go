package adfa

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KromDaniel/lexgen/internal/dfa"
	"github.com/KromDaniel/lexgen/internal/rule"
	"github.com/KromDaniel/lexgen/internal/tcmd"
)

// prefixYAML describes rules A = "a" and B = "abc" with a tag on B
// recording the position of 'c'.
const prefixYAML = `
name: Lex
cond: init
charset: [0, 97, 98, 99, 100, 256]
rules:
  - name: A
  - name: B
tags:
  - name: c
commands:
  - [{set: 1}]
states:
  - arcs: [-1, 1, -1, -1, -1]
  - arcs: [-1, -1, 2, -1, -1]
    rule: 0
  - arcs: [-1, -1, -1, 3, -1]
    tags: [0, 0, 0, 1, 0]
  - arcs: [-1, -1, -1, -1, -1]
    rule: 1
fill: [1, 2, 1, 0]
finvers: [1]
maxtagver: 1
`

// disjointYAML describes rules A = "a" and B = "b": no rule is a prefix
// of another, so nothing needs a fallback.
const disjointYAML = `
name: Lex
charset: [0, 97, 98, 99, 256]
rules:
  - name: A
  - name: B
states:
  - arcs: [-1, 1, 2, -1]
  - arcs: [-1, -1, -1, -1]
    rule: 0
  - arcs: [-1, -1, -1, -1]
    rule: 1
fill: [1, 0, 0]
`

func decode(t *testing.T, src string) (*dfa.Input, *tcmd.Pool) {
	t.Helper()
	pool := tcmd.NewPool()
	in, err := dfa.Decode(strings.NewReader(src), pool)
	require.NoError(t, err)
	return in, pool
}

func metaOf(in *dfa.Input) Meta {
	return Meta{Loc: in.Loc, Name: in.Name, Cond: in.Cond, Setup: in.Setup, KeySize: 4}
}

// build runs the whole pipeline.
func build(t *testing.T, in *dfa.Input, pool *tcmd.Pool, opts Options) *DFA {
	t.Helper()
	d, err := New(in.DFA, pool, in.Fill, metaOf(in), opts)
	require.NoError(t, err)
	d.Prepare()
	d.Reorder()
	return d
}

func actionOf(d *DFA, id StateID) Action {
	return d.State(id).Action
}

// randomAutomaton builds a valid input automaton over four character
// classes, with random rules, tags, fallback structure and fill.
func randomAutomaton(r *rand.Rand) (*dfa.Input, *tcmd.Pool) {
	pool := tcmd.NewPool()
	const maxTagVer = 3

	randomCmd := func() tcmd.ID {
		if r.Intn(3) == 0 {
			return tcmd.Empty
		}
		var ops []tcmd.Op
		for i := r.Intn(2) + 1; i > 0; i-- {
			lhs := r.Intn(maxTagVer) + 1
			switch r.Intn(3) {
			case 0:
				ops = append(ops, tcmd.Op{Kind: tcmd.OpSet, Lhs: lhs})
			case 1:
				ops = append(ops, tcmd.Op{Kind: tcmd.OpReset, Lhs: lhs})
			default:
				ops = append(ops, tcmd.Op{Kind: tcmd.OpCopy, Lhs: lhs, Rhs: r.Intn(maxTagVer) + 1})
			}
		}
		return pool.Insert(ops)
	}

	charset := []uint32{0, 'a', 'b', 'c', 256}
	nchars := len(charset) - 1
	nrules := r.Intn(3) + 1
	n := r.Intn(6) + 1

	d := &dfa.DFA{
		Charset:   charset,
		FinVers:   []int{1, 2},
		MaxTagVer: maxTagVer,
		EOFRule:   rule.None,
		DefRule:   rule.None,
	}
	for i := 0; i < nrules; i++ {
		d.Rules = append(d.Rules, rule.Rule{Name: string(rune('A' + i)), Ltag: i, Htag: i})
	}
	d.Tags = []rule.Tag{{Name: "x"}, {Name: "y"}}

	for i := 0; i < n; i++ {
		s := dfa.State{
			Arcs: make([]int, nchars),
			Tags: make([]tcmd.ID, nchars),
			Rule: rule.None,
		}
		for c := range s.Arcs {
			s.Arcs[c] = dfa.Nil
			if r.Intn(2) == 0 {
				s.Arcs[c] = r.Intn(n)
				s.Tags[c] = randomCmd()
			}
		}
		if r.Intn(2) == 0 {
			s.Rule = r.Intn(nrules)
			s.RuleTags = randomCmd()
			s.FallTags = randomCmd()
		}
		d.States = append(d.States, s)
	}
	// Every state is reachable from a smaller one. Each spanning arc takes
	// its own slot, so a later one never replaces an earlier one.
	spanning := make(map[[2]int]bool)
	for i := 1; i < n; i++ {
		slot := [2]int{r.Intn(i), r.Intn(nchars)}
		for spanning[slot] {
			slot = [2]int{r.Intn(i), r.Intn(nchars)}
		}
		spanning[slot] = true
		d.States[slot[0]].Arcs[slot[1]] = i
		d.States[slot[0]].Tags[slot[1]] = randomCmd()
	}
	// Sometimes the head consumes every symbol.
	if r.Intn(4) == 0 {
		for c, to := range d.States[0].Arcs {
			if to == dfa.Nil {
				d.States[0].Arcs[c] = r.Intn(n)
				d.States[0].Tags[c] = randomCmd()
			}
		}
	}

	if r.Intn(3) == 0 {
		d.DefRule = r.Intn(nrules)
	}
	if r.Intn(3) == 0 {
		d.Rules = append(d.Rules, rule.Rule{Name: "EOF", Ltag: 0, Htag: 0})
		d.EOFRule = len(d.Rules) - 1
	}

	fill := make([]int, n)
	for i := range fill {
		if r.Intn(2) == 0 {
			fill[i] = r.Intn(3)
		}
	}
	if err := d.Validate(pool); err != nil {
		panic(err)
	}
	return &dfa.Input{DFA: d, Fill: fill, Name: "Rand"}, pool
}

func randomInput(r *rand.Rand) []byte {
	const alphabet = "abcx"
	in := make([]byte, r.Intn(8))
	for i := range in {
		in[i] = alphabet[r.Intn(len(alphabet))]
	}
	return in
}

// optionSets covers every stage on and off, in both skip modes and both
// tag timings.
func optionSets() map[string]Options {
	none := DefaultOptions()
	none.SplitStates, none.BaseStates, none.HoistTags = false, false, false

	split := none
	split.SplitStates = true

	base := split
	base.BaseStates = true
	base.Bitmaps = true

	noLookahead := DefaultOptions()
	noLookahead.Lookahead = false

	eager := DefaultOptions()
	eager.EagerSkip = true

	sharers := DefaultOptions()
	sharers.BasePolicy = BaseStatePolicy{MinSavedSpans: 2, MaxDeltaSpans: 1, MinSharers: 2}

	return map[string]Options{
		"none":         none,
		"split":        split,
		"split+base":   base,
		"default":      DefaultOptions(),
		"no-lookahead": noLookahead,
		"eager":        eager,
		"policy":       sharers,
	}
}
