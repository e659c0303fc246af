// Package rule holds the rule and tag tables shared by the automata of a build.
package rule

import "fmt"

// None marks the absence of a rule.
const None = -1

// Loc is a position in the lexer specification.
type Loc struct {
	File string `yaml:"file"`
	Line int    `yaml:"line"`
	Col  int    `yaml:"col"`
}

func (l Loc) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Col)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Rule is one lexer rule. Tags [Ltag, Htag) belong to it.
type Rule struct {
	Name string `yaml:"name"`
	Loc  Loc    `yaml:"loc"`
	Ltag int    `yaml:"ltag"`
	Htag int    `yaml:"htag"`
}

// Tag is a capture point. History tags are multi-valued.
type Tag struct {
	Name     string `yaml:"name"`
	History  bool   `yaml:"history"`
	Trailing bool   `yaml:"trailing"`
}
