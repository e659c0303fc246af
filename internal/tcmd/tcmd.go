// Package tcmd implements the pool of tag commands shared by the automata of one build.
// A tag command is an immutable sequence of register operations that record
// submatch positions. Commands are interned: equal sequences get equal IDs,
// so comparing IDs is enough to compare commands.
package tcmd

import (
	"fmt"
	"strings"
)

// ID identifies a pooled tag command.
type ID uint32

// Empty is the command with no operations. It is always present in a pool.
const Empty ID = 0

// Nil is the register value of a tag that has not been set.
const Nil = -1

// OpKind selects what an operation writes into its register.
type OpKind uint8

const (
	// OpSet stores the current input position.
	OpSet OpKind = iota
	// OpReset stores Nil.
	OpReset
	// OpCopy stores the value of another register.
	OpCopy
)

// Op is a single register operation. Registers are tag versions (>= 1).
type Op struct {
	Kind OpKind
	Lhs  int
	Rhs  int // source register of OpCopy
}

func (o Op) String() string {
	switch o.Kind {
	case OpSet:
		return fmt.Sprintf("t%d=p", o.Lhs)
	case OpReset:
		return fmt.Sprintf("t%d=nil", o.Lhs)
	case OpCopy:
		return fmt.Sprintf("t%d=t%d", o.Lhs, o.Rhs)
	}
	return fmt.Sprintf("op(%d)", o.Kind)
}

// Pool interns tag commands.
type Pool struct {
	cmds  [][]Op
	index map[string]ID
}

// NewPool creates a pool holding only the empty command.
func NewPool() *Pool {
	return &Pool{
		cmds:  [][]Op{nil},
		index: map[string]ID{"": Empty},
	}
}

// Insert interns ops and returns its ID. An empty sequence yields Empty.
func (p *Pool) Insert(ops []Op) ID {
	key := commandKey(ops)
	if id, ok := p.index[key]; ok {
		return id
	}
	id := ID(len(p.cmds))
	p.cmds = append(p.cmds, append([]Op(nil), ops...))
	p.index[key] = id
	return id
}

// Valid reports whether id was issued by this pool.
func (p *Pool) Valid(id ID) bool {
	return int(id) < len(p.cmds)
}

// Len returns the number of interned commands, including Empty.
func (p *Pool) Len() int {
	return len(p.cmds)
}

// Ops returns the operations of id. The result must not be modified.
func (p *Pool) Ops(id ID) []Op {
	return p.cmds[id]
}

// Apply runs the command id over regs with pos as the current input position.
func (p *Pool) Apply(id ID, regs []int, pos int) {
	for _, op := range p.cmds[id] {
		switch op.Kind {
		case OpSet:
			regs[op.Lhs] = pos
		case OpReset:
			regs[op.Lhs] = Nil
		case OpCopy:
			regs[op.Lhs] = regs[op.Rhs]
		}
	}
}

// Registers returns every register read or written by id.
func (p *Pool) Registers(id ID) []int {
	var regs []int
	for _, op := range p.cmds[id] {
		regs = append(regs, op.Lhs)
		if op.Kind == OpCopy {
			regs = append(regs, op.Rhs)
		}
	}
	return regs
}

// String renders id for diagnostics.
func (p *Pool) String(id ID) string {
	if id == Empty {
		return ""
	}
	parts := make([]string, len(p.cmds[id]))
	for i, op := range p.cmds[id] {
		parts[i] = op.String()
	}
	return strings.Join(parts, " ")
}

func commandKey(ops []Op) string {
	var sb strings.Builder
	for _, op := range ops {
		fmt.Fprintf(&sb, "%d:%d:%d;", op.Kind, op.Lhs, op.Rhs)
	}
	return sb.String()
}
