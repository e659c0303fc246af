package adfa

import "github.com/KromDaniel/lexgen/internal/tcmd"

// sharedTags returns the tag command of the first span and whether every
// span runs the same one.
func sharedTags(spans []Span) (tcmd.ID, bool) {
	for _, sp := range spans[1:] {
		if sp.Tags != spans[0].Tags {
			return spans[0].Tags, false
		}
	}
	return spans[0].Tags, true
}

// hoistTags moves a tag command shared by all spans onto the state. Used
// with eager skip, where consuming is not a transition concern.
func (d *DFA) hoistTags() {
	for _, s := range d.states {
		if Terminal(s.Action) || len(s.Go.Spans) == 0 {
			continue
		}
		if tags, ok := sharedTags(s.Go.Spans); ok && tags != tcmd.Empty {
			d.liftSpanTags(s, tags)
		}
	}
}

// hoistTagsAndSkip moves shared tag commands and the shared decision to
// consume onto the state. Tags and skip are ordered relative to each other,
// so one can only be hoisted past the other when both are hoisted: with
// lookahead tags the skip waits for the tags, otherwise the tags wait for
// the skip.
func (d *DFA) hoistTagsAndSkip() {
	for _, s := range d.states {
		spans := s.Go.Spans
		if Terminal(s.Action) || len(spans) == 0 {
			continue
		}

		tags, hoistTags := sharedTags(spans)
		skip := Consumes(d.states[spans[0].To].Action)
		hoistSkip := true
		for _, sp := range spans[1:] {
			if Consumes(d.states[sp.To].Action) != skip {
				hoistSkip = false
				break
			}
		}

		if d.opts.Lookahead {
			hoistSkip = hoistSkip && hoistTags
		} else {
			hoistTags = hoistTags && hoistSkip
		}

		if hoistTags && tags != tcmd.Empty {
			d.liftSpanTags(s, tags)
		}
		if hoistSkip && skip {
			s.Go.Skip = true
			d.log.State(s.ID, "skip hoisted")
		}
	}
}

func (d *DFA) liftSpanTags(s *State, tags tcmd.ID) {
	s.Go.Tags = tags
	for i := range s.Go.Spans {
		s.Go.Spans[i].Tags = tcmd.Empty
	}
	d.log.State(s.ID, "tags %s hoisted from %d spans", d.Pool.String(tags), len(s.Go.Spans))
}

// hoistEntryTags moves a tag command shared by every inbound edge of a
// state onto the state's entry. Only states whose entry happens at the same
// input position as their inbound edges qualify.
func (d *DFA) hoistEntryTags() {
	type inbound struct {
		tags  tcmd.ID
		n     int
		mixed bool
	}
	in := make([]inbound, len(d.states))
	note := func(to StateID, tags tcmd.ID) {
		e := &in[to]
		if e.n == 0 {
			e.tags = tags
		} else if e.tags != tags {
			e.mixed = true
		}
		e.n++
	}

	accepts := false
	for _, s := range d.states {
		if _, ok := s.Action.(Accept); ok {
			accepts = true
		}
		if Terminal(s.Action) {
			continue
		}
		for _, sp := range s.Go.Spans {
			note(sp.To, sp.Tags)
		}
		note(s.Go.EOF.To, s.Go.EOF.Tags)
	}
	if accepts {
		for _, e := range d.Accepts.Entries() {
			note(e.State, e.Tags)
		}
	}

	for _, s := range d.states {
		e := in[s.ID]
		if s.ID == d.Head || e.n == 0 || e.mixed || e.tags == tcmd.Empty {
			continue
		}
		if !d.entryAtEdgePosition(s) {
			continue
		}
		s.EntryTags = e.tags
		d.clearInbound(s.ID, accepts)
		d.log.State(s.ID, "tags %s hoisted from %d inbound edges", d.Pool.String(e.tags), e.n)
	}
}

// entryAtEdgePosition reports whether entering s happens at the input
// position its inbound edge tags observe.
func (d *DFA) entryAtEdgePosition(s *State) bool {
	return d.opts.EagerSkip || !d.opts.Lookahead || !Consumes(s.Action)
}

func (d *DFA) clearInbound(to StateID, accepts bool) {
	for _, s := range d.states {
		if Terminal(s.Action) {
			continue
		}
		for i := range s.Go.Spans {
			if s.Go.Spans[i].To == to {
				s.Go.Spans[i].Tags = tcmd.Empty
			}
		}
		if s.Go.EOF.To == to {
			s.Go.EOF.Tags = tcmd.Empty
		}
	}
	if accepts {
		for i, e := range d.Accepts.Entries() {
			if e.State == to {
				d.Accepts.retag(i, tcmd.Empty)
			}
		}
	}
}
