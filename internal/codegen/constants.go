// Package codegen provides naming helpers and the identifiers used in
// emitted lexer code.
package codegen

import (
	"fmt"
	"strings"
)

// Variable names used in generated code
const (
	InputName    = "input"
	InputLenName = "l"
	CursorName   = "cursor"
	MarkerName   = "marker"
	CharName     = "yych"
	AcceptName   = "yyaccept"
	TagsName     = "yyt"
	BitmapPrefix = "yybm"
	InitLabel    = "yyInit"
)

// StateLabel returns the label name for a state.
func StateLabel(id int) string {
	return fmt.Sprintf("yy%d", id)
}

// FuncName builds the exported name of the function matching one lexer
// condition, e.g. "Lex" and "init" give "LexInit".
func FuncName(name, cond string) string {
	var sb strings.Builder
	for _, part := range []string{name, cond} {
		for _, word := range strings.FieldsFunc(part, notIdent) {
			sb.WriteString(UpperFirst(word))
		}
	}
	s := sb.String()
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "Lex" + s
	}
	return s
}

func notIdent(r rune) bool {
	return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
}

// UpperFirst converts the first character of a string to uppercase.
func UpperFirst(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]&^0x20) + s[1:]
}
