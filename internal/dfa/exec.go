package dfa

import (
	"github.com/KromDaniel/lexgen/internal/rule"
	"github.com/KromDaniel/lexgen/internal/tcmd"
)

// Match is the outcome of running an automaton over one input.
// Rule is the matched rule (or the default rule when nothing matched),
// Len the length of the match and Tags the final value of every tag.
type Match struct {
	Rule int
	Len  int
	Tags []int
}

// Exec runs the automaton from the start of input and returns the longest
// match. With lookahead, transition tags observe the position of the
// character being read; without it they observe the position after it.
// End of input behaves like a missing transition, except in the initial
// state of an automaton with an end-of-input rule.
func (d *DFA) Exec(pool *tcmd.Pool, input []byte, lookahead bool) Match {
	regs := make([]int, d.MaxTagVer+1)
	for i := range regs {
		regs[i] = tcmd.Nil
	}

	s, pos := 0, 0
	last, lastPos := -1, 0
	for {
		st := &d.States[s]
		if st.Final() {
			last, lastPos = s, pos
		}

		if pos == len(input) {
			if s == 0 && d.EOFRule != rule.None {
				return d.match(d.EOFRule, pos, regs)
			}
			return d.fail(pool, st, last, lastPos, pos, regs)
		}

		c := d.Class(uint32(input[pos]))
		if c < 0 || st.Arcs[c] == Nil {
			return d.fail(pool, st, last, lastPos, pos, regs)
		}

		if lookahead {
			pool.Apply(st.Tags[c], regs, pos)
			pos++
		} else {
			pos++
			pool.Apply(st.Tags[c], regs, pos)
		}
		s = st.Arcs[c]
	}
}

func (d *DFA) fail(pool *tcmd.Pool, st *State, last, lastPos, pos int, regs []int) Match {
	switch {
	case st.Final():
		pool.Apply(st.RuleTags, regs, pos)
		return d.match(st.Rule, pos, regs)
	case last >= 0:
		fs := &d.States[last]
		pool.Apply(fs.FallTags, regs, lastPos)
		return d.match(fs.Rule, lastPos, regs)
	}
	return d.match(d.DefRule, pos, regs)
}

func (d *DFA) match(r, pos int, regs []int) Match {
	m := Match{Rule: r, Len: pos}
	if len(d.FinVers) > 0 {
		m.Tags = make([]int, len(d.FinVers))
		for t, v := range d.FinVers {
			m.Tags[t] = regs[v]
		}
	}
	return m
}
