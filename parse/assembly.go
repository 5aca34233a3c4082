package parse

import (
	"github.com/susji/sol0/node"
	"github.com/susji/sol0/token"
)

// Assembly parses an inline assembly block. Its contents are not interpreted;
// we only balance the braces and remember every identifier mentioned within.
//
// <asm> = "assembly" "{" { <any token> } "}"
func (p *Parser) Assembly(toks *token.Tokens) (node.Node, error) {
	first := toks.Pop()
	if first == nil || !first.Is("assembly") {
		return nil, p.errorf(first, "expecting `assembly', got %v", first)
	}
	lcurly := toks.Peek()
	if err := toks.Accept(token.LCurly); err != nil {
		return nil, p.errorf(first, "assembly missing '{': %w", err)
	}
	ret := node.Store(first, &node.InlineAssembly{}).(*node.InlineAssembly)
	depth := 1
	afterdot := false
	for depth > 0 {
		cur := toks.Pop()
		if cur == nil {
			return nil, p.errorf(lcurly, "assembly block not terminated")
		}
		switch cur.Kind() {
		case token.LCurly:
			depth++
		case token.RCurly:
			depth--
		case token.Id:
			// Suffixes such as "slot" in "x.slot" are not references.
			if !afterdot {
				ref := node.Store(cur, &node.Identifier{Name: cur.Value()}).(*node.Identifier)
				ret.Refs = append(ret.Refs, ref)
			}
		}
		afterdot = cur.Kind() == token.Dot
	}
	node.Finish(ret, toks.Last())
	return ret, nil
}
