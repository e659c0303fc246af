// Package emit generates Go source from prepared action-annotated automata.
//
// Each automaton becomes one function that matches a single token at the
// start of its input. States become labels, transitions become gotos and
// the accept table becomes a switch over the saved slot. The generated code
// follows the same runtime model as (*adfa.DFA).Exec.
package emit

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/KromDaniel/lexgen/internal/adfa"
	"github.com/KromDaniel/lexgen/internal/codegen"
	"github.com/KromDaniel/lexgen/internal/rule"
	"github.com/KromDaniel/lexgen/internal/tcmd"
)

// Emitter collects the functions of one generated file.
type Emitter struct {
	file  *jen.File
	names map[string]bool
}

// New creates an emitter for a file in package pkg.
func New(pkg string) *Emitter {
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by lexgen. DO NOT EDIT.")
	return &Emitter{file: f, names: make(map[string]bool)}
}

// Add emits the matching function of a prepared and reordered automaton
// and returns its name.
func (e *Emitter) Add(d *adfa.DFA) (string, error) {
	name := codegen.FuncName(d.Name, d.Cond)
	if e.names[name] {
		return "", fmt.Errorf("duplicate function %s for %s", name, describe(d))
	}
	order := d.Order()
	if len(order) == 0 || order[0] != d.Head {
		return "", fmt.Errorf("%s: automaton is not laid out", describe(d))
	}
	if n, limit := d.Accepts.Len(), maxSlots(d.KeySize); n > limit {
		return "", fmt.Errorf("%s: %d accept entries do not fit a %d-byte key", describe(d), n, d.KeySize)
	}
	e.names[name] = true

	g := &gen{d: d, name: name, opts: d.Options()}
	g.collectTargets()

	if d.Bitmap != nil {
		e.file.Var().Id(g.bitmapName()).Op("=").Index(jen.Lit(len(d.Bitmap.Table))).Byte().Values(g.bitmapValues()...)
		e.file.Line()
	}

	ruleNames := make([]jen.Code, len(d.Rules))
	for i, r := range d.Rules {
		ruleNames[i] = jen.Lit(r.Name)
	}
	e.file.Commentf("%sRules names the rules %s returns, by index.", name, name)
	e.file.Var().Id(name+"Rules").Op("=").Index().String().Values(ruleNames...)
	e.file.Line()

	g.doc(e.file)
	e.file.Func().Id(name).
		Params(jen.Id(codegen.InputName).Index().Byte()).
		Params(jen.Int(), jen.Int(), jen.Index().Int()).
		Block(g.body()...)
	e.file.Line()
	return name, nil
}

// Render writes the generated file.
func (e *Emitter) Render(w io.Writer) error {
	if err := e.file.Render(w); err != nil {
		return fmt.Errorf("failed to render generated code: %w", err)
	}
	return nil
}

// Source renders the generated file to a string.
func (e *Emitter) Source() (string, error) {
	var sb strings.Builder
	if err := e.Render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Save writes the generated file to path.
func (e *Emitter) Save(path string) error {
	if err := e.file.Save(path); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

func describe(d *adfa.DFA) string {
	if d.Cond == "" {
		return fmt.Sprintf("automaton %q", d.Name)
	}
	return fmt.Sprintf("automaton %q condition %q", d.Name, d.Cond)
}

// gen emits the body of one function.
type gen struct {
	d       *adfa.DFA
	name    string
	opts    adfa.Options
	targets map[adfa.StateID]bool
	// readsChar is set when some state branches on the current character.
	readsChar bool
}

// collectTargets records the states some goto jumps to; only those get a
// label, since Go rejects unused labels.
func (g *gen) collectTargets() {
	g.targets = make(map[adfa.StateID]bool)
	for _, s := range g.d.States() {
		switch s.Action.(type) {
		case adfa.Accept:
			for _, e := range g.d.Accepts.Entries() {
				g.targets[e.State] = true
			}
		case adfa.MatchRule:
		default:
			for _, sp := range s.Go.Spans {
				g.targets[sp.To] = true
			}
			g.targets[s.Go.EOF.To] = true
			g.readsChar = g.readsChar || g.branches(s)
		}
	}
}

// branches reports whether dispatch in s depends on the current character.
func (g *gen) branches(s *adfa.State) bool {
	return len(s.Go.Spans) > 1 || (g.d.Bitmap != nil && s.Go.Base != adfa.NoState)
}

func (g *gen) bitmapName() string {
	return codegen.BitmapPrefix + g.name
}

func (g *gen) bitmapValues() []jen.Code {
	vals := make([]jen.Code, len(g.d.Bitmap.Table))
	for i, b := range g.d.Bitmap.Table {
		vals[i] = jen.Lit(int(b))
	}
	return vals
}

func (g *gen) body() []jen.Code {
	d := g.d
	code := []jen.Code{
		jen.Id(codegen.InputLenName).Op(":=").Len(jen.Id(codegen.InputName)),
		jen.Id(codegen.CursorName).Op(":=").Lit(0),
	}
	if g.readsChar {
		code = append(code, jen.Var().Id(codegen.CharName).Int())
	}
	if d.Accepts.Len() > 0 {
		code = append(code,
			jen.Id(codegen.MarkerName).Op(":=").Lit(0),
			jen.Var().Id(codegen.AcceptName).Add(g.keyType()).Op("=").Lit(-1),
		)
	}
	if d.MaxTagVer > 0 {
		code = append(code,
			jen.Commentf("registers: %s", strings.Join(registers(d), " ")),
			jen.Var().Id(codegen.TagsName).Index(jen.Lit(d.MaxTagVer+1)).Int(),
			jen.For(jen.Id("i").Op(":=").Range().Id(codegen.TagsName)).Block(
				jen.Id(codegen.TagsName).Index(jen.Id("i")).Op("=").Lit(tcmd.Nil),
			),
		)
		if len(d.FinVers) == 0 {
			code = append(code, jen.Id("_").Op("=").Id(codegen.TagsName))
		}
	}

	if g.eagerHead() {
		code = append(code, jen.Goto().Id(codegen.InitLabel))
	} else {
		code = append(code, jen.Goto().Id(codegen.StateLabel(int(d.Head))))
	}

	for _, id := range d.Order() {
		code = append(code, g.state(d.State(id))...)
	}
	return code
}

// doc writes the comment block of the matching function.
func (g *gen) doc(f *jen.File) {
	d := g.d
	if d.Loc.File != "" {
		f.Commentf("%s is generated from %s.", g.name, d.Loc)
	}
	f.Commentf("%s matches one token at the start of input. It returns the index of", g.name)
	f.Comment("the matched rule, the length of the match and the final tag values.")
	if len(d.STagNames) > 0 {
		f.Commentf("Tags: %s.", strings.Join(d.STagNames, ", "))
	}
	if len(d.MTagNames) > 0 {
		f.Commentf("History tags: %s.", strings.Join(d.MTagNames, ", "))
	}
	if d.OldStyleCtxMarker {
		f.Comment("Trailing contexts share a single context marker.")
	}
	if d.UbChar > d.LbChar {
		f.Commentf("Transitions cover characters [%d, %d).", d.LbChar, d.UbChar)
	}
	if d.Setup != "" {
		f.Commentf("Setup: %s", d.Setup)
	}
}

// keyType is the type of the accept slot variable, sized by the state key.
func (g *gen) keyType() *jen.Statement {
	switch g.d.KeySize {
	case 1:
		return jen.Int8()
	case 2:
		return jen.Int16()
	case 4:
		return jen.Int32()
	}
	return jen.Int()
}

// maxSlots is the number of accept slots a key of the given size can
// address, next to the -1 of an empty save.
func maxSlots(keySize int) int {
	switch keySize {
	case 1:
		return math.MaxInt8 + 1
	case 2:
		return math.MaxInt16 + 1
	case 4:
		return math.MaxInt32 + 1
	}
	return math.MaxInt
}

// eagerHead reports whether the head needs a separate entry point that
// skips the eager consume of re-entries.
func (g *gen) eagerHead() bool {
	return g.opts.EagerSkip
}

func (g *gen) state(s *adfa.State) []jen.Code {
	var code []jen.Code
	label := codegen.StateLabel(int(s.ID))

	var entry []jen.Code
	entry = append(entry, g.tags(s.EntryTags)...)
	if g.opts.EagerSkip && adfa.Consumes(s.Action) {
		entry = append(entry, jen.Id(codegen.CursorName).Op("++"))
	}

	if s.ID == g.d.Head && g.eagerHead() {
		if g.targets[s.ID] {
			code = append(code, jen.Id(label).Op(":"), jen.Block(entry...))
		}
		code = append(code, jen.Id(codegen.InitLabel).Op(":"))
		entry = nil
	} else if g.targets[s.ID] || s.ID == g.d.Head {
		code = append(code, jen.Id(label).Op(":"))
	}

	body := []jen.Code{jen.Comment(fmt.Sprintf("state %d: %s", s.ID, s.Action))}
	body = append(body, entry...)

	switch a := s.Action.(type) {
	case adfa.MatchRule:
		return append(code, jen.Block(append(body, g.match(a.Rule))...))
	case adfa.Accept:
		return append(code, jen.Block(append(body, g.accept()...)...))
	case adfa.Save:
		body = append(body, g.save(a.Slot)...)
	case adfa.Initial:
		if a.Save != adfa.NoSave {
			body = append(body, g.save(a.Save)...)
		}
	}
	body = append(body, g.dispatch(s)...)
	return append(code, jen.Block(body...))
}

func (g *gen) save(slot int) []jen.Code {
	return []jen.Code{
		jen.Id(codegen.MarkerName).Op("=").Id(codegen.CursorName),
		jen.Id(codegen.AcceptName).Op("=").Lit(slot),
	}
}

func (g *gen) match(r int) jen.Code {
	var tags jen.Code = jen.Nil()
	if len(g.d.FinVers) > 0 {
		vals := make([]jen.Code, len(g.d.FinVers))
		for i, v := range g.d.FinVers {
			vals[i] = jen.Id(codegen.TagsName).Index(jen.Lit(v))
		}
		tags = jen.Index().Int().Values(vals...)
	}
	ret := jen.Return(jen.Lit(r), jen.Id(codegen.CursorName), tags)
	if r != rule.None && r < len(g.d.Rules) {
		ret.Comment(g.d.Rules[r].Name)
	}
	return ret
}

func (g *gen) accept() []jen.Code {
	entries := g.d.Accepts.Entries()
	code := []jen.Code{
		jen.If(jen.Id(codegen.AcceptName).Op("<").Lit(0)).Block(g.match(g.d.DefRule)),
		jen.Id(codegen.CursorName).Op("=").Id(codegen.MarkerName),
	}
	if len(entries) == 1 {
		return append(code, g.acceptEntry(entries[0])...)
	}

	cases := make([]jen.Code, len(entries))
	for i, e := range entries {
		if i == len(entries)-1 {
			cases[i] = jen.Default().Block(g.acceptEntry(e)...)
		} else {
			cases[i] = jen.Case(jen.Lit(i)).Block(g.acceptEntry(e)...)
		}
	}
	return append(code, jen.Switch(jen.Id(codegen.AcceptName)).Block(cases...))
}

func (g *gen) acceptEntry(e adfa.AcceptTrans) []jen.Code {
	return append(g.tags(e.Tags), jen.Goto().Id(codegen.StateLabel(int(e.State))))
}

// dispatch emits the end-of-input check, the go-level tags and skip and the
// switch over the spans of s.
func (g *gen) dispatch(s *adfa.State) []jen.Code {
	eof := append(g.tags(s.Go.EOF.Tags), jen.Goto().Id(codegen.StateLabel(int(s.Go.EOF.To))))
	code := []jen.Code{
		jen.If(jen.Id(codegen.CursorName).Op(">=").Id(codegen.InputLenName)).Block(eof...),
	}
	if g.branches(s) {
		code = append(code, jen.Id(codegen.CharName).Op("=").Int().Call(jen.Id(codegen.InputName).Index(jen.Id(codegen.CursorName))))
	}

	skip := jen.Id(codegen.CursorName).Op("++")
	if g.opts.Lookahead {
		code = append(code, g.tags(s.Go.Tags)...)
		if s.Go.Skip {
			code = append(code, skip)
		}
	} else {
		if s.Go.Skip {
			code = append(code, skip)
		}
		code = append(code, g.tags(s.Go.Tags)...)
	}

	if bm := g.d.Bitmap; bm != nil && s.Go.Base != adfa.NoState {
		if e, ok := bm.Entry(s.ID); ok {
			code = append(code,
				jen.If(jen.Id(g.bitmapName()).Index(jen.Lit(e.Offset).Op("+").Id(codegen.CharName)).Op("&").Lit(int(e.Mask)).Op("!=").Lit(0)).Block(
					jen.Goto().Id(codegen.StateLabel(int(s.Go.Base))),
				),
			)
		}
	}

	spans := s.Go.Spans
	if len(spans) == 1 {
		return append(code, g.transition(s, spans[0].Edge)...)
	}
	cases := make([]jen.Code, len(spans))
	for i, sp := range spans {
		if i == len(spans)-1 {
			cases[i] = jen.Default().Block(g.transition(s, sp.Edge)...)
		} else {
			cases[i] = jen.Case(jen.Id(codegen.CharName).Op("<").Lit(int(sp.Ub))).Block(g.transition(s, sp.Edge)...)
		}
	}
	return append(code, jen.Switch().Block(cases...))
}

func (g *gen) transition(s *adfa.State, e adfa.Edge) []jen.Code {
	var code []jen.Code
	skip := !g.opts.EagerSkip && !s.Go.Skip && adfa.Consumes(g.d.State(e.To).Action)
	if g.opts.Lookahead {
		code = append(code, g.tags(e.Tags)...)
		if skip {
			code = append(code, jen.Id(codegen.CursorName).Op("++"))
		}
	} else {
		if skip {
			code = append(code, jen.Id(codegen.CursorName).Op("++"))
		}
		code = append(code, g.tags(e.Tags)...)
	}
	return append(code, jen.Goto().Id(codegen.StateLabel(int(e.To))))
}

func (g *gen) tags(id tcmd.ID) []jen.Code {
	var code []jen.Code
	for _, op := range g.d.Pool.Ops(id) {
		lhs := jen.Id(codegen.TagsName).Index(jen.Lit(op.Lhs))
		switch op.Kind {
		case tcmd.OpSet:
			code = append(code, lhs.Op("=").Id(codegen.CursorName))
		case tcmd.OpReset:
			code = append(code, lhs.Op("=").Lit(tcmd.Nil))
		case tcmd.OpCopy:
			code = append(code, lhs.Op("=").Id(codegen.TagsName).Index(jen.Lit(op.Rhs)))
		}
	}
	return code
}

// registers names the tag registers the automaton uses, single-valued first.
func registers(d *adfa.DFA) []string {
	regs := make([]string, 0, len(d.STagVars)+len(d.MTagVars))
	regs = append(regs, d.STagVars...)
	return append(regs, d.MTagVars...)
}
