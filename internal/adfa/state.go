package adfa

import (
	"github.com/KromDaniel/lexgen/internal/rule"
	"github.com/KromDaniel/lexgen/internal/tcmd"
)

// StateID addresses a state within its automaton.
type StateID int

// NoState marks a missing transition target.
const NoState StateID = -1

// Edge is a transition target together with the tag command run on the way.
type Edge struct {
	To   StateID
	Tags tcmd.ID
}

// Span is the edge taken by characters [previous span's Ub, Ub).
type Span struct {
	Ub uint32
	Edge
}

// Go is the transition table of a state.
type Go struct {
	Spans []Span
	// EOF is taken when the input is exhausted. It bypasses Tags and Skip.
	EOF Edge
	// Tags is run before dispatch, on behalf of every span.
	Tags tcmd.ID
	// Skip consumes the character before dispatch, on behalf of every span.
	Skip bool
	// Base is the state that spans pointing at it delegate to, or NoState.
	Base StateID
}

// find returns the span covering c.
func (g *Go) find(c uint32) *Span {
	lo, hi := 0, len(g.Spans)
	for lo < hi {
		mid := (lo + hi) / 2
		if g.Spans[mid].Ub <= c {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == len(g.Spans) {
		return nil
	}
	return &g.Spans[lo]
}

// State is one node of the action-annotated automaton.
type State struct {
	ID StateID
	// Fill is the number of input characters that must be buffered on entry.
	Fill int
	// Fallback is set on states whose match may be recovered after a
	// longer match attempt fails.
	Fallback bool
	Rule     int
	RuleTags tcmd.ID
	FallTags tcmd.ID
	// EntryTags is run on entry, on behalf of every inbound edge.
	EntryTags tcmd.ID
	// IsBase marks the save part of a split state; its successor is a
	// transition table that other states may delegate to.
	IsBase bool
	Go     Go
	Action Action
}

func newState(id StateID) *State {
	return &State{
		ID:     id,
		Rule:   rule.None,
		Action: Plain{},
		Go: Go{
			EOF:  Edge{To: NoState},
			Base: NoState,
		},
	}
}

// Final reports whether the state carries a matched rule.
func (s *State) Final() bool {
	return s.Rule != rule.None
}

// successors returns the transition targets of s: spans in order, then the
// EOF edge.
func (s *State) successors() []StateID {
	if Terminal(s.Action) {
		return nil
	}
	out := make([]StateID, 0, len(s.Go.Spans)+1)
	for _, sp := range s.Go.Spans {
		out = append(out, sp.To)
	}
	return append(out, s.Go.EOF.To)
}
