// Package lexgen turns the tagged automata of a lexer into Go matching
// functions. Each input file holds the automaton of one lexer condition;
// Build prepares every automaton and writes them into one generated file.
package lexgen

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/KromDaniel/lexgen/internal/adfa"
	"github.com/KromDaniel/lexgen/internal/dfa"
	"github.com/KromDaniel/lexgen/internal/emit"
	"github.com/KromDaniel/lexgen/internal/tcmd"
)

// Options configures a build.
type Options struct {
	// Inputs are the automaton files, one per lexer condition.
	Inputs []string `yaml:"inputs"`

	// OutputFile is the path where generated code will be written
	OutputFile string `yaml:"output"`

	// Package is the Go package name for the generated code
	Package string `yaml:"package"`

	// DotFile, when set, receives a Graphviz digraph of every prepared automaton
	DotFile string `yaml:"dot"`

	// KeySize is the width in bytes of the accept slot variable (1, 2, 4 or 8)
	KeySize int `yaml:"key_size"`

	// Automaton controls the preparation pipeline
	Automaton adfa.Options `yaml:"automaton"`

	// Verbose logs the pipeline decisions to LogOutput (stderr by default)
	Verbose   bool      `yaml:"verbose"`
	LogOutput io.Writer `yaml:"-"`
}

// DefaultOptions returns the options of a regular build.
func DefaultOptions() Options {
	return Options{
		Package:   "lexer",
		KeySize:   4,
		Automaton: adfa.DefaultOptions(),
	}
}

// LoadOptions reads options from a YAML file. Fields missing from the file
// keep their default values.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read options: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && err != io.EOF {
		return opts, fmt.Errorf("failed to decode options %s: %w", path, err)
	}
	return opts, nil
}

// Validate checks if the options are valid.
func (o Options) Validate() error {
	if len(o.Inputs) == 0 {
		return fmt.Errorf("inputs cannot be empty")
	}
	if o.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if o.Package == "" {
		return fmt.Errorf("package cannot be empty")
	}
	switch o.KeySize {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("key size must be 1, 2, 4 or 8, got %d", o.KeySize)
	}
	if err := o.Automaton.Validate(); err != nil {
		return fmt.Errorf("automaton: %w", err)
	}
	return nil
}

// Result describes a finished build.
type Result struct {
	// Functions are the generated function names, in input order.
	Functions []string
	// Summary accumulates the figures of every automaton.
	Summary adfa.Summary
}

// Build prepares every input automaton and writes the generated code.
// Invalid inputs are reported as errors; inconsistencies inside the
// pipeline panic with *adfa.InternalError.
func Build(opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	pool := tcmd.NewPool()
	em := emit.New(opts.Package)
	res := &Result{}
	var dot bytes.Buffer

	for _, path := range opts.Inputs {
		in, err := dfa.Load(path, pool)
		if err != nil {
			return nil, err
		}
		d, err := Prepare(in, pool, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		d.CalcStats(&res.Summary)

		name, err := em.Add(d)
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}
		res.Functions = append(res.Functions, name)

		if opts.DotFile != "" {
			if err := d.WriteDot(&dot); err != nil {
				return nil, err
			}
		}
	}

	if err := em.Save(opts.OutputFile); err != nil {
		return nil, err
	}
	if opts.DotFile != "" {
		if err := os.WriteFile(opts.DotFile, dot.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write dot file: %w", err)
		}
	}
	return res, nil
}

// Prepare runs the pipeline on one decoded automaton: construction,
// action assignment and the enabled optimizations, then layout.
func Prepare(in *dfa.Input, pool *tcmd.Pool, opts Options) (*adfa.DFA, error) {
	aopts := opts.Automaton
	aopts.Verbose = aopts.Verbose || opts.Verbose
	if opts.LogOutput != nil {
		aopts.LogOutput = opts.LogOutput
	}
	meta := adfa.Meta{
		Loc:     in.Loc,
		Name:    in.Name,
		Cond:    in.Cond,
		Setup:   in.Setup,
		KeySize: opts.KeySize,
	}
	d, err := adfa.New(in.DFA, pool, in.Fill, meta, aopts)
	if err != nil {
		return nil, err
	}
	d.Prepare()
	d.Reorder()
	return d, nil
}
