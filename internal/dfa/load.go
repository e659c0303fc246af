package dfa

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/KromDaniel/lexgen/internal/rule"
	"github.com/KromDaniel/lexgen/internal/tcmd"
)

// File is the YAML interchange form of an automaton handed over by the
// determinization front end.
//
// Tag commands are listed once under commands and referenced from states by
// number: 0 is the empty command, k is commands[k-1].
type File struct {
	Name      string      `yaml:"name"`
	Cond      string      `yaml:"cond"`
	Loc       rule.Loc    `yaml:"loc"`
	Setup     string      `yaml:"setup"`
	Charset   []uint32    `yaml:"charset"`
	Rules     []rule.Rule `yaml:"rules"`
	Tags      []rule.Tag  `yaml:"tags"`
	Commands  [][]OpSpec  `yaml:"commands"`
	States    []StateSpec `yaml:"states"`
	Fill      []int       `yaml:"fill"`
	FinVers   []int       `yaml:"finvers"`
	MTagVers  []int       `yaml:"mtagvers"`
	MaxTagVer int         `yaml:"maxtagver"`
	EOFRule   *int        `yaml:"eof_rule"`
	DefRule   *int        `yaml:"def_rule"`
}

// OpSpec is one register operation; exactly one field is set.
type OpSpec struct {
	Set   *int  `yaml:"set,omitempty"`
	Reset *int  `yaml:"reset,omitempty"`
	Copy  []int `yaml:"copy,omitempty"` // [dst, src]
}

// StateSpec is one state of a File.
type StateSpec struct {
	Arcs     []int `yaml:"arcs"`
	Tags     []int `yaml:"tags,omitempty"`
	Rule     *int  `yaml:"rule,omitempty"`
	RuleTags int   `yaml:"rule_tags,omitempty"`
	FallTags int   `yaml:"fall_tags,omitempty"`
}

// Input is a decoded automaton together with its metadata.
type Input struct {
	DFA   *DFA
	Fill  []int
	Name  string
	Cond  string
	Loc   rule.Loc
	Setup string
}

// Load reads an automaton file, interning its tag commands into pool.
func Load(path string, pool *tcmd.Pool) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open automaton: %w", err)
	}
	defer f.Close()

	in, err := Decode(f, pool)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Decode parses an automaton file, interning its tag commands into pool.
func Decode(r io.Reader, pool *tcmd.Pool) (*Input, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode automaton: %w", err)
	}
	return file.Build(pool)
}

// Build converts the file into an automaton and validates it.
func (f *File) Build(pool *tcmd.Pool) (*Input, error) {
	ids := make([]tcmd.ID, len(f.Commands)+1)
	for i, spec := range f.Commands {
		ops, err := convertOps(spec)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
		ids[i+1] = pool.Insert(ops)
	}
	cmd := func(k int) (tcmd.ID, error) {
		if k < 0 || k >= len(ids) {
			return 0, fmt.Errorf("%w: unknown command %d", ErrInvalid, k)
		}
		return ids[k], nil
	}

	d := &DFA{
		Charset:   f.Charset,
		Rules:     f.Rules,
		Tags:      f.Tags,
		FinVers:   f.FinVers,
		MTagVers:  f.MTagVers,
		MaxTagVer: f.MaxTagVer,
		EOFRule:   optionalRule(f.EOFRule),
		DefRule:   optionalRule(f.DefRule),
		States:    make([]State, len(f.States)),
	}
	if d.FinVers == nil {
		d.FinVers = []int{}
	}

	for i, spec := range f.States {
		s := State{
			Arcs: spec.Arcs,
			Tags: make([]tcmd.ID, len(spec.Arcs)),
			Rule: optionalRule(spec.Rule),
		}
		if len(spec.Tags) > 0 && len(spec.Tags) != len(spec.Arcs) {
			return nil, fmt.Errorf("%w: state %d has %d tags for %d arcs", ErrInvalid, i, len(spec.Tags), len(spec.Arcs))
		}
		for c, k := range spec.Tags {
			id, err := cmd(k)
			if err != nil {
				return nil, fmt.Errorf("state %d: %w", i, err)
			}
			s.Tags[c] = id
		}
		var err error
		if s.RuleTags, err = cmd(spec.RuleTags); err != nil {
			return nil, fmt.Errorf("state %d: %w", i, err)
		}
		if s.FallTags, err = cmd(spec.FallTags); err != nil {
			return nil, fmt.Errorf("state %d: %w", i, err)
		}
		d.States[i] = s
	}

	if err := d.Validate(pool); err != nil {
		return nil, err
	}

	fill := f.Fill
	if fill == nil {
		fill = make([]int, len(d.States))
	}
	return &Input{
		DFA:   d,
		Fill:  fill,
		Name:  f.Name,
		Cond:  f.Cond,
		Loc:   f.Loc,
		Setup: f.Setup,
	}, nil
}

func convertOps(specs []OpSpec) ([]tcmd.Op, error) {
	ops := make([]tcmd.Op, 0, len(specs))
	for j, s := range specs {
		switch {
		case s.Set != nil && s.Reset == nil && s.Copy == nil:
			ops = append(ops, tcmd.Op{Kind: tcmd.OpSet, Lhs: *s.Set})
		case s.Reset != nil && s.Set == nil && s.Copy == nil:
			ops = append(ops, tcmd.Op{Kind: tcmd.OpReset, Lhs: *s.Reset})
		case len(s.Copy) == 2 && s.Set == nil && s.Reset == nil:
			ops = append(ops, tcmd.Op{Kind: tcmd.OpCopy, Lhs: s.Copy[0], Rhs: s.Copy[1]})
		default:
			return nil, fmt.Errorf("%w: operation %d must have exactly one of set, reset, copy [dst, src]", ErrInvalid, j)
		}
	}
	return ops, nil
}

func optionalRule(r *int) int {
	if r == nil {
		return rule.None
	}
	return *r
}
