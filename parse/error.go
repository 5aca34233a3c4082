package parse

import (
	"errors"

	"github.com/susji/sol0/report"
	"github.com/susji/sol0/token"
)

var (
	ErrParse    = errors.New("parsing met with error(s)")
	ErrBlock    = errors.New("block contained errors")
	ErrNotBlock = errors.New("not a block")
	EOT         = token.EOT
)

func (p *Parser) location(tok *token.Token) report.Location {
	loc := report.Location{File: p.fn}
	if tok != nil {
		loc.Span = tok.Span()
	} else if p.toks != nil && p.toks.Last() != nil {
		loc.Span = p.toks.Last().Span()
	}
	return loc
}

// errorf records a parser diagnostic located at tok. A nil tok means the end
// of input and the diagnostic is located at the last token seen.
func (p *Parser) errorf(tok *token.Token, format string, a ...interface{}) error {
	err := report.Errorf(report.ParserError, p.location(tok), format, a...)
	p.errs = append(p.errs, err)
	return err
}
