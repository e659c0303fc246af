package adfa

import "github.com/KromDaniel/lexgen/internal/rule"

// Stats are the figures of one automaton that shape the emitted prologue.
type Stats struct {
	MaxFill    int
	MaxNMatch  int
	NeedBackup bool
	NeedAccept bool
}

// Summary accumulates Stats over every automaton of a lexer.
type Summary struct {
	Automata   int
	States     int
	MaxFill    int
	MaxNMatch  int
	NeedBackup bool
	NeedAccept bool
	// UsedYYAccept is set once an accept table needs the yyaccept variable
	// to tell more than one entry apart.
	UsedYYAccept bool
}

// Add folds the figures of one automaton into the summary.
func (s *Summary) Add(st Stats, states, accepts int) {
	s.Automata++
	s.States += states
	if st.MaxFill > s.MaxFill {
		s.MaxFill = st.MaxFill
	}
	if st.MaxNMatch > s.MaxNMatch {
		s.MaxNMatch = st.MaxNMatch
	}
	s.NeedBackup = s.NeedBackup || st.NeedBackup
	s.NeedAccept = s.NeedAccept || st.NeedAccept
	s.UsedYYAccept = s.UsedYYAccept || (st.NeedAccept && accepts > 1)
}

// CalcStats computes the figures of the prepared automaton, stores them on
// d and folds them into sum when it is not nil.
func (d *DFA) CalcStats(sum *Summary) Stats {
	var st Stats
	for _, s := range d.states {
		if s.Fill > st.MaxFill {
			st.MaxFill = s.Fill
		}
		n := 0
		switch a := s.Action.(type) {
		case Save:
			st.NeedBackup = true
		case Initial:
			if a.Save != NoSave {
				st.NeedBackup = true
			}
		case Accept:
			st.NeedAccept = true
			n = d.acceptedRules()
		case MatchRule:
			if a.Rule != rule.None {
				n = 1
			}
		}
		if n > st.MaxNMatch {
			st.MaxNMatch = n
		}
	}

	d.MaxFill = st.MaxFill
	d.MaxNMatch = st.MaxNMatch
	d.NeedBackup = st.NeedBackup
	d.NeedAccept = st.NeedAccept
	if sum != nil {
		sum.Add(st, len(d.states), d.Accepts.Len())
	}
	return st
}

// acceptedRules counts the distinct rules the accept table can dispatch to.
func (d *DFA) acceptedRules() int {
	rules := make(map[int]bool)
	for _, e := range d.Accepts.Entries() {
		if a, ok := d.states[e.State].Action.(MatchRule); ok {
			rules[a.Rule] = true
		}
	}
	return len(rules)
}
