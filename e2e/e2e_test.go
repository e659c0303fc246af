package e2e

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dave/jennifer/jen"

	"github.com/KromDaniel/lexgen/internal/dfa"
	"github.com/KromDaniel/lexgen/internal/tcmd"
	"github.com/KromDaniel/lexgen/pkg/lexgen"
)

// testCase is one automaton file with the characters its inputs are drawn
// from.
type testCase struct {
	path     string
	alphabet string
}

var fixedCases = []testCase{
	{automatonPath("prefix"), "abcd"},
	{automatonPath("keywords"), "if z"},
	{automatonPath("twin"), "abcx"},
}

// optionSets are the pipeline configurations every automaton is built with.
var optionSets = []struct {
	name   string
	modify func(o *lexgen.Options)
}{
	{"Default", func(o *lexgen.Options) {}},
	{"Bitmaps", func(o *lexgen.Options) { o.Automaton.Bitmaps = true }},
	{"EagerSkip", func(o *lexgen.Options) {
		o.Automaton.EagerSkip = true
		o.Automaton.Bitmaps = true
	}},
	{"NoLookahead", func(o *lexgen.Options) { o.Automaton.Lookahead = false }},
	{"Plain", func(o *lexgen.Options) {
		o.Automaton.SplitStates = false
		o.Automaton.BaseStates = false
		o.Automaton.HoistTags = false
		o.KeySize = 1
	}},
}

// TestE2E generates a lexer for every option set, writes a table test of
// the expected matches next to it and runs it with the go tool.
func TestE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("e2e tests run the go tool")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go tool not found")
	}

	tempDir := t.TempDir()
	testCases := append(append([]testCase(nil), fixedCases...), randomCases(t, filepath.Join(tempDir, "automata"))...)

	for _, set := range optionSets {
		set := set
		t.Run(set.name, func(t *testing.T) {
			caseDir := filepath.Join(tempDir, set.name)
			if err := os.MkdirAll(caseDir, 0755); err != nil {
				t.Fatalf("Failed to create test directory: %v", err)
			}

			// Step 1: Generate code using lexgen
			opts := lexgen.DefaultOptions()
			opts.Package = "generated"
			opts.OutputFile = filepath.Join(caseDir, "lexer.go")
			for _, tc := range testCases {
				opts.Inputs = append(opts.Inputs, tc.path)
			}
			set.modify(&opts)

			res, err := lexgen.Build(opts)
			if err != nil {
				t.Fatalf("Failed to generate code: %v", err)
			}

			// Step 2: Write the expected matches of the input automata
			if err := writeTestFile(filepath.Join(caseDir, "lexer_test.go"), testCases, res.Functions, opts.Automaton.Lookahead); err != nil {
				t.Fatalf("Failed to write test file: %v", err)
			}

			// Step 3: Initialize go module in the test directory
			initCmd := exec.Command("go", "mod", "init", "testmodule")
			initCmd.Dir = caseDir
			if output, err := initCmd.CombinedOutput(); err != nil {
				t.Fatalf("Failed to initialize go module:\nOutput: %s\nError: %v", string(output), err)
			}

			// Step 4: Run the generated tests
			cmd := exec.Command("go", "test", "-v", "-count=1")
			cmd.Dir = caseDir
			output, err := cmd.CombinedOutput()
			if err != nil {
				t.Fatalf("Generated tests failed:\nOutput: %s\nError: %v", string(output), err)
			}

			if n := countTests(string(output)); n != len(testCases) {
				t.Fatalf("ran %d generated tests, want %d. Output: %s", n, len(testCases), string(output))
			}
		})
	}
}

func automatonPath(name string) string {
	return filepath.Join("..", "testdata", "automata", name+".yaml")
}

// writeTestFile writes one table test per generated function. Expected
// results come from the input automata.
func writeTestFile(path string, testCases []testCase, funcs []string, lookahead bool) error {
	f := jen.NewFile("generated")
	f.Func().Id("equalTags").Params(jen.List(jen.Id("a"), jen.Id("b")).Index().Int()).Bool().Block(
		jen.If(jen.Len(jen.Id("a")).Op("!=").Len(jen.Id("b"))).Block(jen.Return(jen.False())),
		jen.For(jen.Id("i").Op(":=").Range().Id("a")).Block(
			jen.If(jen.Id("a").Index(jen.Id("i")).Op("!=").Id("b").Index(jen.Id("i"))).Block(jen.Return(jen.False())),
		),
		jen.Return(jen.True()),
	)

	for i, tc := range testCases {
		pool := tcmd.NewPool()
		in, err := dfa.Load(tc.path, pool)
		if err != nil {
			return err
		}

		var cases []jen.Code
		for _, input := range inputs(tc.alphabet, 4) {
			m := in.DFA.Exec(pool, []byte(input), lookahead)
			tags := jen.Nil()
			if m.Tags != nil {
				vals := make([]jen.Code, len(m.Tags))
				for j, v := range m.Tags {
					vals[j] = jen.Lit(v)
				}
				tags = jen.Index().Int().Values(vals...)
			}
			cases = append(cases, jen.Values(jen.Lit(input), jen.Lit(m.Rule), jen.Lit(m.Len), tags))
		}

		fn := funcs[i]
		f.Func().Id("Test"+fn).Params(jen.Id("t").Op("*").Qual("testing", "T")).Block(
			jen.Id("tests").Op(":=").Index().Struct(
				jen.Id("input").String(),
				jen.Id("rule").Int(),
				jen.Id("n").Int(),
				jen.Id("tags").Index().Int(),
			).Values(cases...),
			jen.For(jen.List(jen.Id("_"), jen.Id("tt")).Op(":=").Range().Id("tests")).Block(
				jen.List(jen.Id("rule"), jen.Id("n"), jen.Id("tags")).Op(":=").Id(fn).Call(jen.Index().Byte().Call(jen.Id("tt").Dot("input"))),
				jen.If(
					jen.Id("rule").Op("!=").Id("tt").Dot("rule").
						Op("||").Id("n").Op("!=").Id("tt").Dot("n").
						Op("||").Op("!").Id("equalTags").Call(jen.Id("tags"), jen.Id("tt").Dot("tags")),
				).Block(
					jen.Id("t").Dot("Errorf").Call(
						jen.Lit(fn+"(%q) = %d, %d, %v; want %d, %d, %v"),
						jen.Id("tt").Dot("input"), jen.Id("rule"), jen.Id("n"), jen.Id("tags"),
						jen.Id("tt").Dot("rule"), jen.Id("tt").Dot("n"), jen.Id("tt").Dot("tags"),
					),
				),
			),
		)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save test file: %w", err)
	}
	return nil
}

// inputs returns every string over alphabet of length at most n.
func inputs(alphabet string, n int) []string {
	out := []string{""}
	level := []string{""}
	for i := 0; i < n; i++ {
		var next []string
		for _, s := range level {
			for _, c := range alphabet {
				next = append(next, s+string(c))
			}
		}
		out = append(out, next...)
		level = next
	}
	return out
}

// countTests counts the number of tests that were executed by parsing the output
func countTests(output string) int {
	count := 0
	for _, line := range strings.Split(output, "\n") {
		// Look for lines like "=== RUN   TestLexInit"
		if strings.HasPrefix(strings.TrimSpace(line), "=== RUN") {
			count++
		}
	}
	return count
}

func TestInputs(t *testing.T) {
	got := inputs("ab", 2)
	want := []string{"", "a", "b", "aa", "ab", "ba", "bb"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("inputs(\"ab\", 2) = %q, want %q", got, want)
	}
}
