package adfa

import (
	"github.com/KromDaniel/lexgen/internal/dfa"
	"github.com/KromDaniel/lexgen/internal/tcmd"
)

// Exec runs the prepared automaton over input the way emitted code would:
// entry tags, eager skip, the state action, the end-of-input check, then
// go-level and span-level tags and skips in the order the lookahead mode
// prescribes. It returns the same match as the input automaton's executor.
func (d *DFA) Exec(input []byte) dfa.Match {
	regs := make([]int, d.MaxTagVer+1)
	for i := range regs {
		regs[i] = tcmd.Nil
	}

	eager, lookahead := d.opts.EagerSkip, d.opts.Lookahead
	cur, marker, slot := 0, 0, -1
	id, entered := d.Head, false

	limit := (len(input) + 2) * (len(d.states) + 1)
	for step := 0; ; step++ {
		if step > limit {
			fatalf("no progress at state %d, position %d", id, cur)
		}
		s := d.states[id]

		d.Pool.Apply(s.EntryTags, regs, cur)
		if eager && entered && Consumes(s.Action) {
			cur++
		}

		switch a := s.Action.(type) {
		case Save:
			marker, slot = cur, a.Slot
		case Initial:
			if a.Save != NoSave {
				marker, slot = cur, a.Save
			}
		case MatchRule:
			return d.match(a.Rule, cur, regs)
		case Accept:
			if slot < 0 {
				return d.match(d.DefRule, cur, regs)
			}
			cur = marker
			e := d.Accepts.At(slot)
			d.Pool.Apply(e.Tags, regs, cur)
			id, entered = e.State, true
			continue
		}

		if cur >= len(input) {
			d.Pool.Apply(s.Go.EOF.Tags, regs, cur)
			id, entered = s.Go.EOF.To, true
			continue
		}

		sp := s.Go.find(uint32(input[cur]))
		if sp == nil {
			fatalf("state %d has no transition on %d", id, input[cur])
		}
		skip := !eager && !s.Go.Skip && Consumes(d.states[sp.To].Action)
		if lookahead {
			d.Pool.Apply(s.Go.Tags, regs, cur)
			if s.Go.Skip {
				cur++
			}
			d.Pool.Apply(sp.Tags, regs, cur)
			if skip {
				cur++
			}
		} else {
			if s.Go.Skip {
				cur++
			}
			d.Pool.Apply(s.Go.Tags, regs, cur)
			if skip {
				cur++
			}
			d.Pool.Apply(sp.Tags, regs, cur)
		}
		id, entered = sp.To, true
	}
}

func (d *DFA) match(r, pos int, regs []int) dfa.Match {
	m := dfa.Match{Rule: r, Len: pos}
	if len(d.FinVers) > 0 {
		m.Tags = make([]int, len(d.FinVers))
		for t, v := range d.FinVers {
			m.Tags[t] = regs[v]
		}
	}
	return m
}
