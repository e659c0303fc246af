package adfa

import (
	"github.com/KromDaniel/lexgen/internal/rule"
)

// Prepare assigns actions and runs the stages enabled in the options:
// state splitting, base-state selection and tag hoisting. It must be called
// exactly once, before Reorder.
func (d *DFA) Prepare() {
	if d.prepared {
		fatalf("automaton %q prepared twice", d.Name)
	}
	d.prepared = true

	d.log.Section("Actions")
	orig := d.dispatching()

	ruleStates := d.bindRules(orig)
	d.bindDefault(orig)
	if d.Default != NoState {
		d.bindSaves(orig, ruleStates)
	}
	d.FinStates = ruleStates

	if d.opts.SplitStates {
		d.log.Section("Splitting")
		d.splitFallback(orig, ruleStates)
	}

	if d.opts.BaseStates {
		d.log.Section("Base States")
		d.findBaseStates()
		if d.opts.Bitmaps && d.alphabet <= 256 {
			d.buildBitmap()
		}
	}

	d.states[d.Head].SetInitial()

	if d.opts.HoistTags {
		d.log.Section("Tag Hoisting")
		if d.opts.EagerSkip {
			d.hoistTags()
		} else {
			d.hoistTagsAndSkip()
		}
		d.hoistEntryTags()
	}
}

// dispatching returns the states that still need an action, in layout order.
func (d *DFA) dispatching() []StateID {
	var ids []StateID
	for _, id := range d.order {
		if _, ok := d.states[id].Action.(Plain); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// bindRules sends the missing transitions of final states to the state
// matching their rule, running their rule tags.
func (d *DFA) bindRules(ids []StateID) []StateID {
	ruleStates := make([]StateID, len(d.Rules))
	for i := range ruleStates {
		ruleStates[i] = NoState
	}
	if d.EOFState != NoState {
		ruleStates[d.EOFRule] = d.EOFState
	}

	for _, id := range ids {
		s := d.states[id]
		if !s.Final() {
			continue
		}
		for i := range s.Go.Spans {
			if s.Go.Spans[i].To == NoState {
				s.Go.Spans[i].Edge = Edge{To: d.ruleState(ruleStates, s.Rule, id), Tags: s.RuleTags}
			}
		}
		if s.Go.EOF.To == NoState {
			s.Go.EOF = Edge{To: d.ruleState(ruleStates, s.Rule, id), Tags: s.RuleTags}
		}
	}
	return ruleStates
}

// ruleState returns the state matching rule r, creating it after the given
// state on first use. Rule states only exist once something leads to them.
func (d *DFA) ruleState(ruleStates []StateID, r int, after StateID) StateID {
	if ruleStates[r] == NoState {
		n := d.addState(after)
		n.SetRule(r)
		ruleStates[r] = n.ID
		d.log.State(n.ID, "matches rule %d", r)
	}
	return ruleStates[r]
}

// bindDefault sends every remaining missing transition to the default state.
func (d *DFA) bindDefault(ids []StateID) {
	target := func(after StateID) StateID {
		if d.Default == NoState {
			d.Default = d.addState(after).ID
			d.log.State(d.Default, "default state")
		}
		return d.Default
	}
	for _, id := range ids {
		s := d.states[id]
		for i := range s.Go.Spans {
			if s.Go.Spans[i].To == NoState {
				s.Go.Spans[i].Edge = Edge{To: target(id)}
			}
		}
		if s.Go.EOF.To == NoState {
			s.Go.EOF = Edge{To: target(id)}
		}
	}
}

// bindSaves gives every fallback state a save slot and turns the default
// state into the dispatch over those slots.
func (d *DFA) bindSaves(ids []StateID, ruleStates []StateID) {
	for _, id := range ids {
		s := d.states[id]
		if !s.Fallback {
			continue
		}
		slot := d.Accepts.Insert(AcceptTrans{State: d.ruleState(ruleStates, s.Rule, id), Tags: s.FallTags})
		s.SetSave(slot)
		d.log.State(id, "saves slot %d (rule %d)", slot, s.Rule)
	}

	def := d.states[d.Default]
	if d.Accepts.Len() > 0 {
		def.SetAccept()
		d.log.State(def.ID, "accepts over %d slots", d.Accepts.Len())
	} else {
		def.SetRule(d.DefRule)
	}
}

// splitFallback splits every fallback state that can finish its own match
// into a save part and a move part that holds the transitions.
func (d *DFA) splitFallback(ids []StateID, ruleStates []StateID) {
	for _, id := range ids {
		s := d.states[id]
		if !s.Fallback {
			continue
		}
		for _, sp := range s.Go.Spans {
			if sp.To == ruleStates[s.Rule] {
				s.IsBase = true
				m := d.split(s)
				d.log.State(id, "split, transitions moved to state %d", m.ID)
				break
			}
		}
	}
}

// split moves the transitions of s into a new Move state and leaves s with
// a single transition into it. The EOF edge stays on s.
func (d *DFA) split(s *State) *State {
	m := d.addState(s.ID)
	m.SetMove()
	m.Rule = s.Rule
	m.Fill = s.Fill
	m.RuleTags = s.RuleTags
	m.FallTags = s.FallTags
	m.Fallback = true
	m.Go = s.Go

	s.Rule = rule.None
	s.Go = Go{
		Spans: []Span{{Ub: d.alphabet, Edge: Edge{To: m.ID}}},
		EOF:   m.Go.EOF,
		Base:  NoState,
	}
	return m
}
