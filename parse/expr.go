package parse

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/susji/sol0/node"
	"github.com/susji/sol0/token"
)

func precedenceb(tok *token.Token) int {
	// Assignment operators have no precedence here as they are only permitted
	// at statement level, see "<simple>". This means that our grammar will not
	// permit chained assignments, eg. "a = b = c".
	switch tok.Kind() {
	case token.Quest:
		return 0
	case token.DPipe:
		return 1
	case token.DAmpersand:
		return 2
	case token.Eq, token.Ne:
		return 3
	case token.Lt, token.Gt, token.Le, token.Ge:
		return 4
	case token.Plus, token.Minus:
		return 5
	case token.Star, token.Slash, token.Percent:
		return 6
	default:
		panic(fmt.Sprintf("invalid binary operator: %s", tok))
	}
}

func precedenceu(tok *token.Token) int {
	switch tok.Kind() {
	case token.Exclam, token.Minus:
		return 7
	default:
		panic(fmt.Sprintf("invalid unary operator: %s", tok))
	}
}

func isleftassocb(tok *token.Token) bool {
	return tok.Kind() != token.Quest
}

var tok_to_unop = map[token.Kind]node.KindOpUn{
	token.Minus:  node.OPUN_NEG,
	token.Exclam: node.OPUN_LOGNOT,
}

var tok_to_binop = map[token.Kind]node.KindOpBin{
	token.Plus:       node.OPBIN_ADD,
	token.Minus:      node.OPBIN_SUB,
	token.Star:       node.OPBIN_MUL,
	token.Slash:      node.OPBIN_DIV,
	token.Percent:    node.OPBIN_MOD,
	token.Le:         node.OPBIN_LE,
	token.Ge:         node.OPBIN_GE,
	token.Lt:         node.OPBIN_LT,
	token.Gt:         node.OPBIN_GT,
	token.Eq:         node.OPBIN_EQ,
	token.Ne:         node.OPBIN_NE,
	token.DAmpersand: node.OPBIN_AND,
	token.DPipe:      node.OPBIN_OR,
}

var ErrNotExpr = errors.New("not an expression")

func (p *Parser) expratom(toks *token.Tokens) (node.Node, error) {
	this := toks.Peek()
	if this == nil {
		return nil, EOT
	}
	if unop, ok := tok_to_unop[this.Kind()]; ok {
		// All unary operators bind right, hence the +1 to their precedence.
		nextminprec := precedenceu(this) + 1
		toks.Pop()
		n, err := p.exprparse(toks, nextminprec)
		if err != nil {
			return nil, err
		}
		return node.At(this.Span().To(n.Span()), &node.OpUnary{
			Op: unop,
			To: n,
		}), nil
	}
	switch this.Kind() {
	case token.LParen:
		toks.Pop()
		parexpr, err := p.exprparse(toks, 0)
		if err != nil {
			return nil, err
		}
		if err := toks.Accept(token.RParen); err != nil {
			return nil, p.errorf(this, "unbalanced parentheses: %w", err)
		}
		return parexpr, nil
	case token.DecNum, token.HexNum:
		toks.Pop()
		base := 10
		val := this.Value()
		if this.Kind() == token.HexNum {
			base = 16
			val = val[2:]
		}
		if _, ok := new(big.Int).SetString(val, base); !ok {
			return nil, p.errorf(this, "invalid integer %q", this.Value())
		}
		return node.Store(this, &node.Numeric{Value: this.Value(), Base: base}), nil
	case token.Id:
		if IsReserved(this.Value()) {
			return nil, p.errorf(this,
				"reserved identifier %q in expression", this.Value())
		}
		toks.Pop()
		return node.Store(this, &node.Identifier{Name: this.Value()}), nil
	case token.True, token.False:
		toks.Pop()
		return node.Store(this, &node.Bool{Value: this.Kind() == token.True}), nil
	case token.StrLit:
		toks.Pop()
		return node.Store(this, &node.StrLit{Value: this.Value()}), nil
	}
	return nil, p.errorf(this, "%w: unexpected %v", ErrNotExpr, this)
}

func (p *Parser) callArgs(toks *token.Tokens, op *token.Token) ([]node.Node, error) {
	args := []node.Node{}
	// We may have the case without arguments, ie. "()".
	if err := toks.Accept(token.RParen); err == nil {
		return args, nil
	}
	for {
		arg, err := p.exprparse(toks, 0)
		if err != nil {
			return nil, p.errorf(op, "invalid function argument: %w", err)
		}
		args = append(args, arg)
		if err := toks.Accept(token.Comma); err == nil {
			// ',' -> more args
			continue
		} else if err := toks.Accept(token.RParen); err == nil {
			// ')' => end of args
			return args, nil
		} else {
			// no ')' or ',' => error
			return nil, p.errorf(op,
				"unbalanced parentheses in function call: %w", err)
		}
	}
}

func (p *Parser) exprparse(toks *token.Tokens, minprec int) (node.Node, error) {
	lhs, err := p.expratom(toks)
	if err != nil {
		return nil, err
	}
out:
	for {
		op := toks.Peek()
		if op == nil {
			break out
		}
		// We treat function calls (), index accesses [] and member accesses .
		// as special, maximally greedy postfix operators with the highest
		// precedence. All other binary operators are treated with the
		// precedence-climbing machinery.
		switch op.Kind() {
		case token.LBrack:
			toks.Pop()
			index, err := p.exprparse(toks, 0)
			if err != nil {
				return nil, p.errorf(op, "invalid index: %w", err)
			}
			if err := toks.Accept(token.RBrack); err != nil {
				return nil, p.errorf(op, "unbalanced index access: %w", err)
			}
			lhs = node.At(lhs.Span().To(toks.Last().Span()), &node.Index{
				X:     lhs,
				Index: index,
			})
			continue out
		case token.LParen:
			toks.Pop()
			args, err := p.callArgs(toks, op)
			if err != nil {
				return nil, err
			}
			lhs = node.At(lhs.Span().To(toks.Last().Span()), &node.Call{
				Fn:   lhs,
				Args: args,
			})
			continue out
		case token.Dot:
			toks.Pop()
			name := toks.Peek()
			if name == nil || name.Kind() != token.Id {
				return nil, p.errorf(op, "expecting member name, got %v", name)
			}
			toks.Pop()
			lhs = node.At(lhs.Span().To(name.Span()), &node.Member{
				X:    lhs,
				Name: name.Value(),
			})
			continue out
		}
		binop, ok := tok_to_binop[op.Kind()]
		if !ok && op.Kind() != token.Quest {
			break out
		}
		// All of this is just vanilla precedence-climbing.
		prec := precedenceb(op)
		if prec < minprec {
			break out
		}
		nextminprec := prec
		if isleftassocb(op) {
			nextminprec++
		}
		toks.Pop()
		if op.Kind() == token.Quest {
			iftrue, err := p.exprparse(toks, 0)
			if err != nil {
				return nil, err
			}
			if err := toks.Accept(token.Colon); err != nil {
				return nil, p.errorf(op, "conditional missing ':': %w", err)
			}
			iffalse, err := p.exprparse(toks, nextminprec)
			if err != nil {
				return nil, err
			}
			lhs = node.At(lhs.Span().To(iffalse.Span()), &node.Conditional{
				Cond:  lhs,
				True:  iftrue,
				False: iffalse,
			})
			continue out
		}
		rhs, err := p.exprparse(toks, nextminprec)
		if err != nil {
			return nil, err
		}
		lhs = node.At(lhs.Span().To(rhs.Span()), &node.OpBinary{
			Op:    binop,
			Left:  lhs,
			Right: rhs,
		})
	}
	return lhs, nil
}

// Expr parses an expression.
//
// <exp>    = <prefix> <suffix>
// <prefix> = <num> | <strlit> | true | false
//          | "(" <exp> ")"
//          | <unop> <exp>
//          | <exp> "[" <exp> "]"
//          | <exp> "(" [ <exp> ("," <exp> )*] ")"
//          | <exp> "." <fid>
//          | <vid>
// <suffix> =
//          | <binop> <exp>
//          | "?" <exp> ":" <exp>
//          | ε
//
// Our precedence climbing is implemented mainly by following Norvell at
//
//	https://www.engr.mun.ca/~theo/Misc/exp_parsing.htm#climbing
func (p *Parser) Expr(toks *token.Tokens) (node.Node, error) {
	return p.exprparse(toks, 0)
}
