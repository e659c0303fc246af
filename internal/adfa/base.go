package adfa

// findBaseStates lets states delegate the character ranges they share with
// a base state's transition table. Only states without a fill requirement
// delegate, since the base re-dispatches without refilling.
func (d *DFA) findBaseStates() {
	policy := d.opts.BasePolicy
	saved := make(map[StateID][]Span)

	for _, id := range d.order {
		s := d.states[id]
		if s.Fill != 0 || Terminal(s.Action) || s.Go.Base != NoState {
			continue
		}
		for _, sp := range s.Go.Spans {
			if !d.states[sp.To].IsBase {
				continue
			}
			base := d.states[sp.To].Go.Spans[0].To
			if base == id || d.delegates(base, id) {
				break
			}
			spans := merge(s.Go.Spans, d.states[base].Go.Spans, base)
			if d.worthDelegating(s.Go.Spans, spans, base) {
				saved[id] = s.Go.Spans
				s.Go.Spans = spans
				s.Go.Base = base
				d.log.State(id, "delegates to base %d (%d -> %d spans)", base, len(saved[id]), len(spans))
			}
			break
		}
	}

	if policy.MinSharers > 1 {
		sharers := make(map[StateID]int)
		for id := range saved {
			sharers[d.states[id].Go.Base]++
		}
		for id, spans := range saved {
			s := d.states[id]
			if sharers[s.Go.Base] < policy.MinSharers {
				d.log.State(id, "keeps its table, base %d has %d sharers", s.Go.Base, sharers[s.Go.Base])
				s.Go.Spans = spans
				s.Go.Base = NoState
			}
		}
	}
}

// delegates reports whether from reaches to by following bases.
func (d *DFA) delegates(from, to StateID) bool {
	for b := d.states[from].Go.Base; b != NoState; b = d.states[b].Go.Base {
		if b == to {
			return true
		}
	}
	return false
}

func (d *DFA) worthDelegating(old, merged []Span, base StateID) bool {
	policy := d.opts.BasePolicy
	saved := len(old) - len(merged)
	if saved <= 0 || saved < policy.MinSavedSpans {
		return false
	}
	if policy.MaxDeltaSpans > 0 {
		delta := 0
		for _, sp := range merged {
			if sp.To != base {
				delta++
			}
		}
		if delta > policy.MaxDeltaSpans {
			return false
		}
	}
	return true
}

// merge overlays fg on bg: ranges where both take the same edge go to base.
func merge(fg, bg []Span, base StateID) []Span {
	var out []Span
	i, j := 0, 0
	for i < len(fg) && j < len(bg) {
		e := fg[i].Edge
		if e == bg[j].Edge {
			e = Edge{To: base}
		}
		ub := fg[i].Ub
		if bg[j].Ub < ub {
			ub = bg[j].Ub
		}
		if n := len(out); n > 0 && out[n-1].Edge == e {
			out[n-1].Ub = ub
		} else {
			out = append(out, Span{Ub: ub, Edge: e})
		}

		switch {
		case bg[j].Ub < fg[i].Ub:
			j++
		case fg[i].Ub < bg[j].Ub:
			i++
		default:
			i++
			j++
		}
	}
	return out
}

// Unpack returns the full transition table of a state, expanding ranges
// delegated to its base.
func (d *DFA) Unpack(id StateID) []Span {
	s := d.states[id]
	if s.Go.Base == NoState {
		return normalize(append([]Span(nil), s.Go.Spans...))
	}

	full := d.Unpack(s.Go.Base)
	var out []Span
	var lo uint32
	for _, sp := range s.Go.Spans {
		if sp.To != s.Go.Base {
			out = append(out, sp)
			lo = sp.Ub
			continue
		}
		for _, b := range full {
			if b.Ub <= lo {
				continue
			}
			ub := b.Ub
			if sp.Ub < ub {
				ub = sp.Ub
			}
			out = append(out, Span{Ub: ub, Edge: b.Edge})
			if b.Ub >= sp.Ub {
				break
			}
		}
		lo = sp.Ub
	}
	return normalize(out)
}

func normalize(spans []Span) []Span {
	var out []Span
	for _, sp := range spans {
		if n := len(out); n > 0 && out[n-1].Edge == sp.Edge {
			out[n-1].Ub = sp.Ub
			continue
		}
		out = append(out, sp)
	}
	return out
}
