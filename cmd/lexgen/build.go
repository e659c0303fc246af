package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KromDaniel/lexgen/pkg/lexgen"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	pipeline pipelineFlags
	Output   string
	Package  string
	Dot      string
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build [automaton.yaml...]",
		Short: "Generate Go matching functions",
		Long: `Generate one Go matching function per automaton file. Files listed in the
options file come first, followed by the arguments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, args)
		},
	}

	opts.pipeline.register(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output Go file")
	cmd.Flags().StringVarP(&opts.Package, "package", "p", "", "package of the generated code")
	cmd.Flags().StringVar(&opts.Dot, "dot", "", "also write a Graphviz digraph of every automaton")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *BuildOptions, args []string) error {
	bopts, err := opts.pipeline.options(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	bopts.Inputs = append(bopts.Inputs, args...)
	if opts.Output != "" {
		bopts.OutputFile = opts.Output
	}
	if opts.Package != "" {
		bopts.Package = opts.Package
	}
	if opts.Dot != "" {
		bopts.DotFile = opts.Dot
	}

	res, err := lexgen.Build(bopts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generated %d function(s) in %s\n", len(res.Functions), bopts.OutputFile)
	for _, fn := range res.Functions {
		fmt.Fprintf(out, "  %s\n", fn)
	}
	s := res.Summary
	fmt.Fprintf(out, "States: %d, max fill: %d, max matches: %d, backup: %t, accept: %t\n",
		s.States, s.MaxFill, s.MaxNMatch, s.NeedBackup, s.UsedYYAccept)
	return nil
}
