package parse

import (
	"errors"

	"github.com/susji/sol0/node"
	"github.com/susji/sol0/token"
)

var reserved = map[string]struct{}{
	"contract": {}, "struct": {}, "function": {}, "returns": {},
	"if": {}, "else": {}, "while": {}, "for": {}, "break": {},
	"continue": {}, "return": {}, "throw": {}, "assembly": {},
	"storage": {}, "memory": {}, "calldata": {},
}

// IsReserved tells whether name is a keyword and cannot be used as an
// identifier.
func IsReserved(name string) bool {
	_, ok := reserved[name]
	return ok
}

// Type parses a type name:
//
// <tp> = <id> { "[" "]" }
//
// Whether the identifier names an elementary type or a struct is resolved
// during analysis.
func (p *Parser) Type(toks *token.Tokens) (*node.TypeName, error) {
	atom := toks.Peek()
	if atom == nil {
		return nil, EOT
	}
	if atom.Kind() != token.Id || IsReserved(atom.Value()) {
		return nil, errors.New("not a type name")
	}
	toks.Pop()
	ret := node.Store(atom, &node.TypeName{Name: atom.Value()}).(*node.TypeName)
	for {
		bra, ket := toks.Peek(), toks.PeekN(1)
		if bra == nil || ket == nil ||
			bra.Kind() != token.LBrack || ket.Kind() != token.RBrack {
			break
		}
		toks.Pop()
		toks.Pop()
		ret.ArrayLevel++
	}
	node.Finish(ret, toks.Last())
	return ret, nil
}

// looksLikeDecl tells whether the upcoming tokens start a variable
// declaration. A type name followed by a location keyword or an identifier
// can never start an expression, so no symbol information is needed.
func looksLikeDecl(toks *token.Tokens) bool {
	first := toks.Peek()
	if first == nil || first.Kind() != token.Id || IsReserved(first.Value()) {
		return false
	}
	i := 1
	for {
		bra, ket := toks.PeekN(i), toks.PeekN(i+1)
		if bra == nil || ket == nil ||
			bra.Kind() != token.LBrack || ket.Kind() != token.RBrack {
			break
		}
		i += 2
	}
	next := toks.PeekN(i)
	return next != nil && next.Kind() == token.Id
}
