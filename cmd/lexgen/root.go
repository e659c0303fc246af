package main

import (
	"github.com/spf13/cobra"

	"github.com/KromDaniel/lexgen/pkg/lexgen"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Config  string
}

// NewRootCommand creates the root command for the lexgen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lexgen",
		Short: "lexgen generates Go lexers from tagged automata",
		Long: `lexgen reads the minimized tagged automata of a lexer, one file per
condition, annotates every state with the action the generated code runs on
entry and emits one Go matching function per automaton.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log pipeline decisions to stderr")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML options file")

	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewDotCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// pipelineFlags are the automaton options every command accepts. They
// override the options file only when given explicitly.
type pipelineFlags struct {
	keySize         int
	splitStates     bool
	baseStates      bool
	bitmaps         bool
	hoistTags       bool
	eagerSkip       bool
	lookahead       bool
	legacyCtxMarker bool
}

func (p *pipelineFlags) register(cmd *cobra.Command) {
	def := lexgen.DefaultOptions()
	f := cmd.Flags()
	f.IntVar(&p.keySize, "key-size", def.KeySize, "width in bytes of the accept slot variable (1, 2, 4 or 8)")
	f.BoolVar(&p.splitStates, "split-states", def.Automaton.SplitStates, "split fallback states into save and move parts")
	f.BoolVar(&p.baseStates, "base-states", def.Automaton.BaseStates, "let states delegate shared transitions to a base state")
	f.BoolVar(&p.bitmaps, "bitmaps", def.Automaton.Bitmaps, "build the delegation bitmap")
	f.BoolVar(&p.hoistTags, "hoist-tags", def.Automaton.HoistTags, "hoist shared tag commands onto states")
	f.BoolVar(&p.eagerSkip, "eager-skip", def.Automaton.EagerSkip, "consume input on state entry")
	f.BoolVar(&p.lookahead, "lookahead", def.Automaton.Lookahead, "run transition tags before consuming the character")
	f.BoolVar(&p.legacyCtxMarker, "legacy-ctxmarker", def.Automaton.LegacyCtxMarker, "use a single context marker for trailing contexts")
}

// options loads the options file, if any, and applies the flags that were
// set on the command line.
func (p *pipelineFlags) options(cmd *cobra.Command, root *RootOptions) (lexgen.Options, error) {
	opts := lexgen.DefaultOptions()
	if root.Config != "" {
		var err error
		if opts, err = lexgen.LoadOptions(root.Config); err != nil {
			return opts, err
		}
	}
	if root.Verbose {
		opts.Verbose = true
		opts.LogOutput = cmd.ErrOrStderr()
	}

	f := cmd.Flags()
	a := &opts.Automaton
	if f.Changed("key-size") {
		opts.KeySize = p.keySize
	}
	for name, set := range map[string]struct {
		dst *bool
		val bool
	}{
		"split-states":     {&a.SplitStates, p.splitStates},
		"base-states":      {&a.BaseStates, p.baseStates},
		"bitmaps":          {&a.Bitmaps, p.bitmaps},
		"hoist-tags":       {&a.HoistTags, p.hoistTags},
		"eager-skip":       {&a.EagerSkip, p.eagerSkip},
		"lookahead":        {&a.Lookahead, p.lookahead},
		"legacy-ctxmarker": {&a.LegacyCtxMarker, p.legacyCtxMarker},
	} {
		if f.Changed(name) {
			*set.dst = set.val
		}
	}
	return opts, nil
}
