package adfa

import (
	"fmt"
	"io"
	"strings"

	"github.com/KromDaniel/lexgen/internal/tcmd"
)

// WriteDot writes the automaton as a Graphviz digraph: states in layout
// order, one edge per span, dashed EOF edges and dotted accept entries.
func (d *DFA) WriteDot(w io.Writer) error {
	var b strings.Builder

	name := d.Name
	if d.Cond != "" {
		name += ":" + d.Cond
	}
	if name == "" {
		name = "adfa"
	}
	fmt.Fprintf(&b, "digraph %q {\n", name)
	b.WriteString("\trankdir=LR\n\tnode [shape=box]\n")

	for _, id := range d.order {
		fmt.Fprintf(&b, "\t%d [label=\"%s\"]\n", id, d.dotLabel(d.states[id]))
	}
	for _, id := range d.order {
		s := d.states[id]
		if _, ok := s.Action.(Accept); ok {
			for i, e := range d.Accepts.Entries() {
				fmt.Fprintf(&b, "\t%d -> %d [label=\"%d%s\" style=dotted]\n", id, e.State, i, d.tagSuffix(e.Tags))
			}
			continue
		}
		if Terminal(s.Action) {
			continue
		}

		var lo uint32
		for _, sp := range s.Go.Spans {
			label := rangeLabel(lo, sp.Ub)
			if sp.To == s.Go.Base {
				label = "base " + label
			}
			fmt.Fprintf(&b, "\t%d -> %d [label=\"%s%s\"]\n", id, sp.To, label, d.tagSuffix(sp.Tags))
			lo = sp.Ub
		}
		if s.Go.EOF.To != NoState {
			fmt.Fprintf(&b, "\t%d -> %d [label=\"eof%s\" style=dashed]\n", id, s.Go.EOF.To, d.tagSuffix(s.Go.EOF.Tags))
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func (d *DFA) dotLabel(s *State) string {
	label := fmt.Sprintf("%d: %s", s.ID, s.Action)
	if s.Fill > 0 {
		label += fmt.Sprintf(" fill %d", s.Fill)
	}
	if s.EntryTags != tcmd.Empty {
		label += " / entry " + d.Pool.String(s.EntryTags)
	}
	if s.Go.Tags != tcmd.Empty {
		label += " / " + d.Pool.String(s.Go.Tags)
	}
	if s.Go.Skip {
		label += " / skip"
	}
	return label
}

func (d *DFA) tagSuffix(tags tcmd.ID) string {
	if tags == tcmd.Empty {
		return ""
	}
	return " / " + d.Pool.String(tags)
}

func rangeLabel(lo, ub uint32) string {
	if ub == lo+1 {
		return charLabel(lo)
	}
	return charLabel(lo) + "-" + charLabel(ub-1)
}

func charLabel(c uint32) string {
	if c >= 0x21 && c <= 0x7e && c != '"' && c != '\\' {
		return string(rune(c))
	}
	return fmt.Sprintf("0x%02X", c)
}
