// Package parse builds a sol0 syntax tree out of tokens.
package parse

import (
	"github.com/susji/sol0/node"
	"github.com/susji/sol0/token"
)

type Parser struct {
	fn   string
	unit *node.SourceUnit
	errs []error
	toks *token.Tokens
}

func (p *Parser) Errors() []error {
	if len(p.errs) == 0 {
		return nil
	}
	return p.errs
}

func (p *Parser) Unit() *node.SourceUnit {
	return p.unit
}

func (p *Parser) Fn() string {
	return p.fn
}

// Parse parses a sequence of contracts. On errors, the returned unit still
// contains every contract which was parsed successfully.
func (p *Parser) Parse(toks *token.Tokens) error {
	p.errs = []error{}
	p.toks = toks
	first := toks.Peek()
	if first == nil {
		p.unit = node.At(p.location(nil).Span, &node.SourceUnit{}).(*node.SourceUnit)
		return nil
	}
	p.unit = node.Store(first, &node.SourceUnit{}).(*node.SourceUnit)
	for toks.Len() > 0 {
		cur := toks.Peek()
		nerrs := len(p.errs)
		if c, err := p.Contract(toks); err == nil {
			p.unit.Contracts = append(p.unit.Contracts, c)
		} else {
			if len(p.errs) == nerrs {
				p.errorf(cur, "invalid contract: %w", err)
			}
			// If we completely failed in parsing, rewind until the next
			// contract. This gives us a better chance to catch multiple
			// errors.
			toks.Pop()
			for toks.Len() > 0 && !toks.Peek().Is("contract") {
				toks.Pop()
			}
		}
	}
	node.Finish(p.unit, toks.Last())
	if len(p.errs) > 0 {
		return ErrParse
	}
	return nil
}

func New() *Parser {
	return NewFile("<stdin>")
}

func NewFile(fn string) *Parser {
	return &Parser{
		fn: fn,
	}
}
