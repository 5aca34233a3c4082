package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/susji/sol0/span"
)

var EOT = errors.New("end of tokens")

// Tokens implements a FIFO for individual tokens.
type Tokens struct {
	toks []Token
	last *Token
}

type Token struct {
	span  span.Span
	kind  Kind
	value string
}

func New(kind Kind, span span.Span, value string) Token {
	if !validkind(kind) {
		panic(fmt.Sprintf("invalid token kind: %v", kind))
	}
	return Token{
		kind:  kind,
		value: value,
		span:  span,
	}
}

type Kind int

const (
	Id = iota
	DecNum
	HexNum
	StrLit
	LParen
	RParen
	LBrack
	RBrack
	LCurly
	RCurly
	Comma // 10
	Semicolon
	Dot
	Exclam
	Plus
	Minus
	Star
	Slash
	Percent
	Lt
	Gt // 20
	Le
	Ge
	Eq
	Ne
	Assign
	AssignPlus
	AssignMinus
	AssignStar
	AssignSlash
	AssignPercent // 30
	DAmpersand
	DPipe
	DPlus
	DMinus
	Quest
	Colon
	ColonAssign
	True
	False
)

var toknames = [...]string{
	"id",
	"decnum",
	"hexnum",
	"strlit",
	"(",
	")",
	"[",
	"]",
	"{",
	"}",
	",",
	";",
	".",
	"!",
	"+",
	"-",
	"*",
	"/",
	"%",
	"<",
	">",
	"<=",
	">=",
	"==",
	"!=",
	"=",
	"+=",
	"-=",
	"*=",
	"/=",
	"%=",
	"&&",
	"||",
	"++",
	"--",
	"?",
	":",
	":=",
	"true",
	"false",
}

// Lookup finds the kind of a punctuation token from its textual form.
func Lookup(punct string) (Kind, bool) {
	for i := LParen; i < True; i++ {
		if toknames[i] == punct {
			return Kind(i), true
		}
	}
	return 0, false
}

func (k Kind) String() string {
	return toknames[k]
}

func validkind(kind Kind) bool {
	return kind >= 0 && int(kind) <= (len(toknames)-1)
}

func (tok *Token) String() string {
	switch tok.kind {
	case Id, HexNum, DecNum:
		return tok.value
	case StrLit:
		return fmt.Sprintf("%q", tok.value)
	default:
		return fmt.Sprintf("%q", toknames[tok.kind])
	}
}

func (tok *Token) Value() string {
	return tok.value
}

func (tok *Token) Kind() Kind {
	return tok.kind
}

func (tok *Token) Lineno() int {
	return tok.span.Lineno0
}

func (tok *Token) Col() int {
	return tok.span.Col0
}

func (tok *Token) Span() span.Span {
	return tok.span
}

// Is tells whether tok is the identifier or keyword word.
func (tok *Token) Is(word string) bool {
	return tok != nil && tok.kind == Id && tok.value == word
}

func (toks *Tokens) Add(tok Token) *Tokens {
	toks.toks = append(toks.toks, tok)
	return toks
}

func (toks *Tokens) String() string {
	b := &strings.Builder{}
	for _, tok := range toks.toks {
		b.WriteString(
			fmt.Sprintf("[%d:%d] %s\n", tok.Lineno(), tok.Col(), tok.String()))
	}
	return b.String()
}

func (toks *Tokens) Len() int {
	return len(toks.toks)
}

func (toks *Tokens) Pop() *Token {
	if toks.Len() == 0 {
		return nil
	}
	var tok Token
	tok, toks.toks = toks.toks[0], toks.toks[1:]
	toks.last = &tok
	return &tok
}

// Last returns the most recently popped token.
func (toks *Tokens) Last() *Token {
	return toks.last
}

// Peek returns the current token-to-be-parsed.
func (toks *Tokens) Peek() *Token {
	if toks.Len() == 0 {
		return nil
	}
	return &toks.toks[0]
}

// PeekN returns the token n positions ahead of the current one.
func (toks *Tokens) PeekN(n int) *Token {
	if n >= toks.Len() {
		return nil
	}
	return &toks.toks[n]
}

func (toks *Tokens) Accept(kind Kind) error {
	cur := toks.Peek()
	if cur == nil {
		return EOT
	}
	got := cur.Kind()
	if got != kind {
		return fmt.Errorf("expecting %q, got %v", toknames[kind], cur)
	}
	toks.Pop()
	return nil
}

// AcceptWord pops the current token if it is the keyword word.
func (toks *Tokens) AcceptWord(word string) bool {
	if toks.Peek().Is(word) {
		toks.Pop()
		return true
	}
	return false
}

func (toks *Tokens) Find(kinds ...Kind) *Token {
	find := map[Kind]struct{}{}
	for _, kind := range kinds {
		find[kind] = struct{}{}
	}
	for {
		cur := toks.Peek()
		if cur == nil {
			return nil
		}
		if _, ok := find[cur.Kind()]; ok {
			return cur
		}
		toks.Pop()
	}
}
