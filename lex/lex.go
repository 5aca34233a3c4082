// Package lex turns sol0 source text into tokens.
package lex

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/susji/sol0/report"
	"github.com/susji/sol0/span"
	"github.com/susji/sol0/token"
)

var (
	ErrScan           = errors.New("invalid token")
	ErrUnexpectedRune = errors.New("unexpected character")
)

func spanOf(from, to scanner.Position) span.Span {
	return span.Span{
		Lineno0: from.Line,
		Col0:    from.Column,
		Lineno:  to.Line,
		Col:     to.Column,
	}
}

// Lex tokenizes src. Comments are dropped. Lexing continues after errors so
// that all of them are reported at once.
func Lex(src []byte, fn string) (*token.Tokens, []error) {
	toks := &token.Tokens{}
	var errs []error
	// Offsets the scanner already complained about.
	flagged := map[int]bool{}

	var s scanner.Scanner
	s.Init(bytes.NewReader(src))
	s.Filename = fn
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings |
		scanner.ScanComments | scanner.SkipComments
	s.Error = func(s *scanner.Scanner, msg string) {
		pos := s.Pos()
		flagged[pos.Offset] = true
		errs = append(errs, report.Errorf(
			report.ParserError,
			report.Location{File: fn, Span: spanOf(pos, pos)},
			"%w: %s", ErrScan, msg))
	}

	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		start := s.Position
		text := s.TokenText()
		var kind token.Kind
		value := text
		switch tok {
		case scanner.Ident:
			switch text {
			case "true":
				kind = token.True
			case "false":
				kind = token.False
			default:
				kind = token.Id
			}
		case scanner.Int:
			kind = token.DecNum
			if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
				kind = token.HexNum
			}
		case scanner.String:
			kind = token.StrLit
			if uq, err := strconv.Unquote(text); err == nil {
				value = uq
			}
		default:
			// Operators are at most two runes long, so one rune of lookahead
			// is enough to pick the longest match.
			if k, ok := token.Lookup(text + string(s.Peek())); ok {
				s.Next()
				kind = k
				value = k.String()
			} else if k, ok := token.Lookup(text); ok {
				kind = k
			} else if flagged[start.Offset] {
				continue
			} else {
				errs = append(errs, report.Errorf(
					report.ParserError,
					report.Location{File: fn, Span: spanOf(start, s.Pos())},
					"%w: %q", ErrUnexpectedRune, text))
				continue
			}
		}
		toks.Add(token.New(kind, spanOf(start, s.Pos()), value))
	}
	return toks, errs
}
