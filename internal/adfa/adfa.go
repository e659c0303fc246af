// Package adfa turns a minimized tagged automaton into an action-annotated
// automaton ready for code emission.
//
// Every state gets an Action telling the emitter what to generate on entry.
// The pipeline splits fallback states to support longest match with
// backtracking, lets similar states share transition tables through base
// states, hoists tag commands off transitions and finally linearizes the
// states for code layout. None of the stages changes what the automaton
// matches.
package adfa

import (
	"fmt"
	"sort"

	"github.com/KromDaniel/lexgen/internal/dfa"
	"github.com/KromDaniel/lexgen/internal/rule"
	"github.com/KromDaniel/lexgen/internal/tcmd"
)

// Meta is the per-automaton metadata the emitter needs.
type Meta struct {
	Loc   rule.Loc
	Name  string
	Cond  string
	Setup string
	// KeySize is the width in bytes of the state key type.
	KeySize int
}

// DFA is an action-annotated automaton for one lexer condition.
// It owns its states and its accept table; it is built once by New and
// must not be copied.
type DFA struct {
	Meta

	Accepts AcceptTable

	// LbChar and UbChar bound the characters that have a transition.
	LbChar uint32
	UbChar uint32

	Head     StateID
	Default  StateID // "no match" state, NoState until needed
	EOFState StateID // state matching EOFRule, or NoState
	// FinStates maps a rule to the state that matches it, after Prepare, or
	// NoState when nothing leads to such a state.
	FinStates []StateID

	Charset  []uint32
	Rules    []rule.Rule
	Tags     []rule.Tag
	FinVers  []int
	MTagVers []int
	Pool     *tcmd.Pool

	STagNames []string
	STagVars  []string
	MTagNames []string
	MTagVars  []string

	MaxFill           int
	MaxNMatch         int
	NeedBackup        bool
	NeedAccept        bool
	OldStyleCtxMarker bool
	MaxTagVer         int
	DefRule           int
	EOFRule           int

	// Bitmap is set by Prepare when bitmaps are enabled.
	Bitmap *Bitmap

	states   []*State
	order    []StateID
	alphabet uint32
	opts     Options
	log      *Logger
	prepared bool
}

// New builds the automaton for one condition. fill holds the lookahead
// requirement of every input state. Structural problems in the input are
// reported as errors wrapping ErrMalformed.
func New(in *dfa.DFA, pool *tcmd.Pool, fill []int, meta Meta, opts Options) (*DFA, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := in.Validate(pool); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(fill) != len(in.States) {
		return nil, fmt.Errorf("%w: %d fill values for %d states", ErrMalformed, len(fill), len(in.States))
	}
	for i, f := range fill {
		if f < 0 {
			return nil, fmt.Errorf("%w: state %d has negative fill %d", ErrMalformed, i, f)
		}
	}

	name := meta.Name
	if meta.Cond != "" {
		name += ":" + meta.Cond
	}
	d := &DFA{
		Meta:      meta,
		Head:      0,
		Default:   NoState,
		EOFState:  NoState,
		Charset:   in.Charset,
		Rules:     in.Rules,
		Tags:      in.Tags,
		FinVers:   in.FinVers,
		MTagVers:  in.MTagVers,
		Pool:      pool,
		MaxTagVer: in.MaxTagVer,
		DefRule:   in.DefRule,
		EOFRule:   in.EOFRule,
		alphabet:  in.Charset[len(in.Charset)-1],
		opts:      opts,
		log:       NewLogger(opts.Verbose, name),
	}
	if opts.LogOutput != nil {
		d.log.SetOutput(opts.LogOutput)
	}

	for range in.States {
		d.addState(NoState)
	}
	for i := range in.States {
		t := &in.States[i]
		s := d.states[i]
		s.Rule = t.Rule
		s.RuleTags = t.RuleTags
		s.FallTags = t.FallTags
		s.Fill = fill[i]
		s.Go.Spans = spansOf(in, t)
	}

	d.computeBounds()
	d.markFallback(in)
	d.MaxNMatch = countMatches(in)
	for _, s := range d.states {
		d.NeedBackup = d.NeedBackup || s.Fallback
	}
	d.NeedAccept = d.MaxNMatch > 1
	d.collectTagNames()
	d.OldStyleCtxMarker = opts.LegacyCtxMarker && d.MaxTagVer == 1 && onlyTrailing(d.Tags)

	if d.EOFRule != rule.None {
		eof := d.addState(NoState)
		eof.SetRule(d.EOFRule)
		d.EOFState = eof.ID
		d.states[d.Head].Go.EOF = Edge{To: eof.ID}
	}

	d.log.Section("Construction")
	d.log.Log("States: %d, character range: [%d, %d)", len(d.states), d.LbChar, d.UbChar)
	d.log.Log("Rules: %d, tags: %d, max tag version: %d", len(d.Rules), len(d.Tags), d.MaxTagVer)
	d.log.Log("Max matches at one state: %d", d.MaxNMatch)
	return d, nil
}

// State returns the state with the given id.
func (d *DFA) State(id StateID) *State {
	return d.states[id]
}

// States returns all states in construction order.
func (d *DFA) States() []*State {
	return d.states
}

// Len returns the number of states.
func (d *DFA) Len() int {
	return len(d.states)
}

// Order returns the code layout order.
func (d *DFA) Order() []StateID {
	return append([]StateID(nil), d.order...)
}

// Alphabet returns the exclusive upper bound of the character range that
// transition tables cover.
func (d *DFA) Alphabet() uint32 {
	return d.alphabet
}

// Options returns the options the automaton was built with.
func (d *DFA) Options() Options {
	return d.opts
}

// addState allocates a state and places it after the given state in the
// layout order, or at the end for NoState.
func (d *DFA) addState(after StateID) *State {
	s := newState(StateID(len(d.states)))
	d.states = append(d.states, s)

	pos := len(d.order)
	if after != NoState {
		for i, id := range d.order {
			if id == after {
				pos = i + 1
				break
			}
		}
	}
	d.order = append(d.order, NoState)
	copy(d.order[pos+1:], d.order[pos:])
	d.order[pos] = s.ID
	return s
}

func spansOf(in *dfa.DFA, t *dfa.State) []Span {
	edge := func(c int) Edge {
		if t.Arcs[c] == dfa.Nil {
			return Edge{To: NoState}
		}
		return Edge{To: StateID(t.Arcs[c]), Tags: t.Tags[c]}
	}

	var spans []Span
	n := in.NChars()
	for c := 0; c < n; {
		e := edge(c)
		for c++; c < n && edge(c) == e; c++ {
		}
		spans = append(spans, Span{Ub: in.Charset[c], Edge: e})
	}
	return spans
}

func (d *DFA) computeBounds() {
	first := true
	for _, s := range d.states {
		var lb uint32
		for _, sp := range s.Go.Spans {
			if sp.To != NoState {
				if first || lb < d.LbChar {
					d.LbChar = lb
				}
				if first || sp.Ub > d.UbChar {
					d.UbChar = sp.Ub
				}
				first = false
			}
			lb = sp.Ub
		}
	}
}

// markFallback flags final states that can continue into non-final states:
// a failure there must come back to their match.
func (d *DFA) markFallback(in *dfa.DFA) {
	for i := range in.States {
		t := &in.States[i]
		if !t.Final() {
			continue
		}
		for _, to := range t.Arcs {
			if to != dfa.Nil && !in.States[to].Final() {
				d.states[i].Fallback = true
				break
			}
		}
	}
}

// countMatches returns the largest number of distinct rules a failure at
// one state may report: one for final states, the rules of every fallback
// state that reaches it through non-final states otherwise.
func countMatches(in *dfa.DFA) int {
	pending := make([]map[int]bool, len(in.States))
	var queue []int
	add := func(s, r int) {
		if pending[s] == nil {
			pending[s] = make(map[int]bool)
		}
		if !pending[s][r] {
			pending[s][r] = true
			queue = append(queue, s)
		}
	}

	for i := range in.States {
		t := &in.States[i]
		if !t.Final() {
			continue
		}
		for _, to := range t.Arcs {
			if to != dfa.Nil && !in.States[to].Final() {
				add(to, t.Rule)
			}
		}
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, to := range in.States[s].Arcs {
			if to == dfa.Nil || in.States[to].Final() {
				continue
			}
			for r := range pending[s] {
				add(to, r)
			}
		}
	}

	most := 0
	for i := range in.States {
		n := len(pending[i])
		if in.States[i].Final() {
			n = 1
		}
		if n > most {
			most = n
		}
	}
	return most
}

func (d *DFA) collectTagNames() {
	stags, mtags := map[string]bool{}, map[string]bool{}
	for _, t := range d.Tags {
		if t.Name == "" || t.Trailing {
			continue
		}
		if t.History {
			mtags[t.Name] = true
		} else {
			stags[t.Name] = true
		}
	}

	vers := map[int]bool{}
	use := func(id tcmd.ID) {
		for _, v := range d.Pool.Registers(id) {
			vers[v] = true
		}
	}
	for _, s := range d.states {
		for _, sp := range s.Go.Spans {
			use(sp.Tags)
		}
		use(s.RuleTags)
		use(s.FallTags)
	}
	for _, v := range d.FinVers {
		vers[v] = true
	}

	multi := map[int]bool{}
	for _, v := range d.MTagVers {
		multi[v] = true
	}
	svars, mvars := map[string]bool{}, map[string]bool{}
	for v := range vers {
		name := fmt.Sprintf("%s%d", d.opts.TagPrefix, v)
		if multi[v] {
			mvars[name] = true
		} else {
			svars[name] = true
		}
	}

	d.STagNames = sortedKeys(stags)
	d.MTagNames = sortedKeys(mtags)
	d.STagVars = sortedKeys(svars)
	d.MTagVars = sortedKeys(mvars)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func onlyTrailing(tags []rule.Tag) bool {
	for _, t := range tags {
		if !t.Trailing {
			return false
		}
	}
	return len(tags) > 0
}
