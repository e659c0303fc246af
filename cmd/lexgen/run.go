package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KromDaniel/lexgen/internal/dfa"
	"github.com/KromDaniel/lexgen/internal/rule"
	"github.com/KromDaniel/lexgen/internal/tcmd"
	"github.com/KromDaniel/lexgen/pkg/lexgen"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	pipeline pipelineFlags
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <automaton.yaml> <input>...",
		Short: "Match inputs with the prepared automaton",
		Long: `Match every input with the prepared automaton and print the matched rule,
the match length and the final tag values. Each result is checked against
the input automaton; a disagreement is an error.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, opts, args[0], args[1:])
		},
	}

	opts.pipeline.register(cmd)

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions, path string, inputs []string) error {
	lopts, err := opts.pipeline.options(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	pool := tcmd.NewPool()
	in, err := dfa.Load(path, pool)
	if err != nil {
		return err
	}
	d, err := lexgen.Prepare(in, pool, lopts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, input := range inputs {
		got := d.Exec([]byte(input))
		want := in.DFA.Exec(pool, []byte(input), lopts.Automaton.Lookahead)
		fmt.Fprintf(out, "%q: %s\n", input, formatMatch(in.DFA, got))
		if !sameMatch(got, want) {
			return fmt.Errorf("%q: prepared automaton matched %s, input automaton %s",
				input, formatMatch(in.DFA, got), formatMatch(in.DFA, want))
		}
	}
	return nil
}

func formatMatch(d *dfa.DFA, m dfa.Match) string {
	var b strings.Builder
	if m.Rule == rule.None {
		b.WriteString("no match")
	} else {
		b.WriteString(d.Rules[m.Rule].Name)
	}
	fmt.Fprintf(&b, " len %d", m.Len)
	for t, v := range m.Tags {
		if v == tcmd.Nil {
			fmt.Fprintf(&b, " %s=nil", d.Tags[t].Name)
		} else {
			fmt.Fprintf(&b, " %s=%d", d.Tags[t].Name, v)
		}
	}
	return b.String()
}

func sameMatch(a, b dfa.Match) bool {
	if a.Rule != b.Rule || a.Len != b.Len || len(a.Tags) != len(b.Tags) {
		return false
	}
	for i := range a.Tags {
		if a.Tags[i] != b.Tags[i] {
			return false
		}
	}
	return true
}
