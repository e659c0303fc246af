// Package dfa describes the minimized tagged automaton produced by the
// determinization front end. It is the read-only input of the adfa stage.
package dfa

import (
	"errors"
	"fmt"

	"github.com/KromDaniel/lexgen/internal/rule"
	"github.com/KromDaniel/lexgen/internal/tcmd"
)

// Nil marks a missing transition.
const Nil = -1

// ErrInvalid is returned for structurally inconsistent automata.
var ErrInvalid = errors.New("invalid automaton")

// State is one automaton state. Arcs and Tags are indexed by character class.
type State struct {
	Arcs     []int
	Tags     []tcmd.ID
	Rule     int     // rule.None unless final
	RuleTags tcmd.ID // run when the state's rule is matched
	FallTags tcmd.ID // run when the match is recovered by fallback
}

// Final reports whether the state matches a rule.
func (s *State) Final() bool {
	return s.Rule != rule.None
}

// DFA is a minimized tagged automaton. State 0 is the initial state.
type DFA struct {
	// Charset holds class boundaries: class c covers [Charset[c], Charset[c+1]).
	Charset   []uint32
	States    []State
	Rules     []rule.Rule
	Tags      []rule.Tag
	FinVers   []int // final register of each tag
	MTagVers  []int // registers of multi-valued tags
	MaxTagVer int
	EOFRule   int
	DefRule   int
}

// NChars returns the number of character classes.
func (d *DFA) NChars() int {
	return len(d.Charset) - 1
}

// Class returns the character class of c, or -1 if c is outside the charset.
func (d *DFA) Class(c uint32) int {
	lo, hi := 0, d.NChars()
	if hi <= 0 || c < d.Charset[0] || c >= d.Charset[hi] {
		return -1
	}
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if c < d.Charset[mid] {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// Validate checks the automaton against the pool its tag commands come from.
func (d *DFA) Validate(pool *tcmd.Pool) error {
	if len(d.Charset) < 2 {
		return fmt.Errorf("%w: charset needs at least one class", ErrInvalid)
	}
	if d.Charset[0] != 0 {
		return fmt.Errorf("%w: charset must start at 0, got %d", ErrInvalid, d.Charset[0])
	}
	for i := 1; i < len(d.Charset); i++ {
		if d.Charset[i] <= d.Charset[i-1] {
			return fmt.Errorf("%w: charset boundary %d is not increasing", ErrInvalid, i)
		}
	}
	if last := d.Charset[len(d.Charset)-1]; last < 256 {
		return fmt.Errorf("%w: charset must cover all bytes, ends at %d", ErrInvalid, last)
	}
	if len(d.States) == 0 {
		return fmt.Errorf("%w: no states", ErrInvalid)
	}
	if err := d.checkRule(d.EOFRule, "eof rule"); err != nil {
		return err
	}
	if err := d.checkRule(d.DefRule, "default rule"); err != nil {
		return err
	}

	nchars := d.NChars()
	for i := range d.States {
		s := &d.States[i]
		if len(s.Arcs) != nchars || len(s.Tags) != nchars {
			return fmt.Errorf("%w: state %d has %d arcs and %d tags, want %d",
				ErrInvalid, i, len(s.Arcs), len(s.Tags), nchars)
		}
		for c, to := range s.Arcs {
			if to != Nil && (to < 0 || to >= len(d.States)) {
				return fmt.Errorf("%w: state %d class %d goes to unknown state %d", ErrInvalid, i, c, to)
			}
			if err := d.checkTags(pool, s.Tags[c]); err != nil {
				return fmt.Errorf("state %d class %d: %w", i, c, err)
			}
		}
		if err := d.checkRule(s.Rule, fmt.Sprintf("state %d", i)); err != nil {
			return err
		}
		if err := d.checkTags(pool, s.RuleTags); err != nil {
			return fmt.Errorf("state %d rule tags: %w", i, err)
		}
		if err := d.checkTags(pool, s.FallTags); err != nil {
			return fmt.Errorf("state %d fallback tags: %w", i, err)
		}
	}

	if len(d.FinVers) != len(d.Tags) {
		return fmt.Errorf("%w: %d final versions for %d tags", ErrInvalid, len(d.FinVers), len(d.Tags))
	}
	for t, v := range d.FinVers {
		if v < 1 || v > d.MaxTagVer {
			return fmt.Errorf("%w: tag %d has final version %d outside [1, %d]", ErrInvalid, t, v, d.MaxTagVer)
		}
	}
	for _, v := range d.MTagVers {
		if v < 1 || v > d.MaxTagVer {
			return fmt.Errorf("%w: multi-valued version %d outside [1, %d]", ErrInvalid, v, d.MaxTagVer)
		}
	}

	if unreached := d.unreachable(); len(unreached) > 0 {
		return fmt.Errorf("%w: states %v are unreachable", ErrInvalid, unreached)
	}
	return nil
}

func (d *DFA) checkRule(r int, what string) error {
	if r != rule.None && (r < 0 || r >= len(d.Rules)) {
		return fmt.Errorf("%w: %s refers to unknown rule %d", ErrInvalid, what, r)
	}
	return nil
}

func (d *DFA) checkTags(pool *tcmd.Pool, id tcmd.ID) error {
	if !pool.Valid(id) {
		return fmt.Errorf("%w: unknown tag command %d", ErrInvalid, id)
	}
	for _, r := range pool.Registers(id) {
		if r < 1 || r > d.MaxTagVer {
			return fmt.Errorf("%w: tag command %d uses register %d outside [1, %d]", ErrInvalid, id, r, d.MaxTagVer)
		}
	}
	return nil
}

func (d *DFA) unreachable() []int {
	seen := make([]bool, len(d.States))
	seen[0] = true
	stack := []int{0}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, to := range d.States[s].Arcs {
			if to != Nil && !seen[to] {
				seen[to] = true
				stack = append(stack, to)
			}
		}
	}
	var out []int
	for i, ok := range seen {
		if !ok {
			out = append(out, i)
		}
	}
	return out
}
