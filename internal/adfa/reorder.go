package adfa

// Reorder lays the states out in depth-first order from the head, so that
// a state tends to sit next to the state it falls through to. Successors are
// visited in span order, then the EOF edge, then accept table entries.
func (d *DFA) Reorder() {
	placed := make([]bool, len(d.states))
	order := make([]StateID, 0, len(d.states))

	var visit func(id StateID)
	visit = func(id StateID) {
		placed[id] = true
		order = append(order, id)
		for _, to := range d.layoutSuccessors(d.states[id]) {
			if to != NoState && !placed[to] {
				visit(to)
			}
		}
	}
	visit(d.Head)

	if len(order) != len(d.states) {
		var lost []StateID
		for id, ok := range placed {
			if !ok {
				lost = append(lost, StateID(id))
			}
		}
		fatalf("states %v are unreachable from the head", lost)
	}
	d.order = order
	d.log.Section("Layout")
	d.log.Log("Order: %v", order)
	if d.log.Enabled() {
		for _, id := range order {
			d.log.State(id, "%s", d.states[id].Action)
		}
	}
}

func (d *DFA) layoutSuccessors(s *State) []StateID {
	out := s.successors()
	if _, ok := s.Action.(Accept); ok {
		for _, e := range d.Accepts.Entries() {
			out = append(out, e.State)
		}
	}
	return out
}
