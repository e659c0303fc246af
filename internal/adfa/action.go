package adfa

import "fmt"

// NoSave marks an Initial action that does not save the input position.
const NoSave = -1

// Action is what the emitter generates when execution reaches a state.
// It is one of Plain, Initial, Save, Move, Accept and MatchRule.
type Action interface {
	isAction()
	String() string
}

// Plain is an ordinary state: consume the character and dispatch.
type Plain struct{}

// Initial is the entry point of the automaton. Save is a slot of the accept
// table when the initial state is also a fallback state, NoSave otherwise.
type Initial struct {
	Save int
}

// Save records the input position and the accept table slot to fall back to.
type Save struct {
	Slot int
}

// Move dispatches on the current character without consuming it.
type Move struct{}

// Accept restores the saved position and dispatches over the owning
// automaton's accept table.
type Accept struct{}

// MatchRule jumps to the action of Rule.
type MatchRule struct {
	Rule int
}

func (Plain) isAction()     {}
func (Initial) isAction()   {}
func (Save) isAction()      {}
func (Move) isAction()      {}
func (Accept) isAction()    {}
func (MatchRule) isAction() {}

func (Plain) String() string { return "plain" }

func (a Initial) String() string {
	if a.Save == NoSave {
		return "initial"
	}
	return fmt.Sprintf("initial save %d", a.Save)
}

func (a Save) String() string      { return fmt.Sprintf("save %d", a.Slot) }
func (Move) String() string        { return "move" }
func (Accept) String() string      { return "accept" }
func (a MatchRule) String() string { return fmt.Sprintf("rule %d", a.Rule) }

// SetSave makes a plain state save the input position into slot.
func (s *State) SetSave(slot int) {
	s.requirePlain("save")
	s.Action = Save{Slot: slot}
}

// SetInitial marks the entry state. A save slot is kept; marking an
// initial state again is a no-op.
func (s *State) SetInitial() {
	switch a := s.Action.(type) {
	case Plain:
		s.Action = Initial{Save: NoSave}
	case Save:
		s.Action = Initial{Save: a.Slot}
	case Initial:
	default:
		fatalf("state %d: cannot make %s state initial", s.ID, a)
	}
}

// SetMove makes a plain state re-dispatch without consuming.
func (s *State) SetMove() {
	s.requirePlain("move")
	s.Action = Move{}
}

// SetAccept makes a plain state dispatch over the accept table.
func (s *State) SetAccept() {
	s.requirePlain("accept")
	s.Action = Accept{}
}

// SetRule makes a plain state match rule r.
func (s *State) SetRule(r int) {
	s.requirePlain("rule")
	s.Action = MatchRule{Rule: r}
}

func (s *State) requirePlain(to string) {
	if _, ok := s.Action.(Plain); !ok {
		fatalf("state %d: cannot change %s action to %s", s.ID, s.Action, to)
	}
}

// Consumes reports whether entering a state with action a consumes the
// character that led to it.
func Consumes(a Action) bool {
	switch a.(type) {
	case MatchRule, Move, Accept:
		return false
	}
	return true
}

// Terminal reports whether a state with action a has no transitions.
func Terminal(a Action) bool {
	switch a.(type) {
	case MatchRule, Accept:
		return true
	}
	return false
}
