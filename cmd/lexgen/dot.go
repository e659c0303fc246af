package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KromDaniel/lexgen/internal/dfa"
	"github.com/KromDaniel/lexgen/internal/tcmd"
	"github.com/KromDaniel/lexgen/pkg/lexgen"
)

// DotOptions holds flags for the dot command.
type DotOptions struct {
	*RootOptions
	pipeline pipelineFlags
	Output   string
}

// NewDotCommand creates the dot command.
func NewDotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dot <automaton.yaml>",
		Short: "Print the prepared automaton as a Graphviz digraph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDot(cmd, opts, args[0])
		},
	}

	opts.pipeline.register(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func runDot(cmd *cobra.Command, opts *DotOptions, path string) error {
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

	if opts.Output == "" {
		return d.WriteDot(cmd.OutOrStdout())
	}
	var buf bytes.Buffer
	if err := d.WriteDot(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write dot file: %w", err)
	}
	return nil
}
