package parse

import (
	"errors"

	"github.com/susji/sol0/node"
	"github.com/susji/sol0/token"
)

var tok_to_asnop = map[token.Kind]node.KindOpAsn{
	token.Assign:        node.OPASN_PLAIN,
	token.AssignPlus:    node.OPASN_ADD,
	token.AssignMinus:   node.OPASN_SUB,
	token.AssignStar:    node.OPASN_MUL,
	token.AssignSlash:   node.OPASN_DIV,
	token.AssignPercent: node.OPASN_MOD,
}

var tok_to_stmtsuffix = map[token.Kind]node.KindOpUn{
	token.DPlus:  node.OPUN_ADDONESUFFIX,
	token.DMinus: node.OPUN_SUBONESUFFIX,
}

// SimpleStmt roughly implements "<simple>". As lvalues are a limited subset of
// expressions, we parse any expression on the left-hand side. Later on, in
// analysis, we make sure that we have received acceptable lvalues.
//
// <simple> = <vardecl> [ "=" <exp> ]
//          | <exp> <asnop> <exp>
//          | <exp> "++"
//          | <exp> "--"
//          | <exp>
func (p *Parser) SimpleStmt(toks *token.Tokens) (node.Node, error) {
	first := toks.Peek()
	if first == nil {
		return nil, EOT
	}
	if looksLikeDecl(toks) {
		vd, err := p.VarDecl(toks, true)
		if err != nil {
			return nil, err
		}
		ret := node.Store(first, &node.VarDeclStmt{Decl: vd}).(*node.VarDeclStmt)
		if err := toks.Accept(token.Assign); err == nil {
			init, err := p.Expr(toks)
			if err != nil {
				return nil, p.errorf(first, "erroneous variable initializer: %w", err)
			}
			ret.Init = init
		}
		node.Finish(ret, toks.Last())
		return ret, nil
	}
	lv, err := p.Expr(toks)
	if err != nil {
		return nil, err
	}
	next := toks.Peek()
	if next == nil {
		return node.At(lv.Span(), &node.ExprStmt{Expr: lv}), nil
	}
	if ak, ok := tok_to_asnop[next.Kind()]; ok {
		// Looks like an assignment statement.
		toks.Pop()
		rv, err := p.Expr(toks)
		if err != nil {
			return nil, p.errorf(next, "invalid rvalue: %w", err)
		}
		return node.At(lv.Span().To(rv.Span()), &node.OpAssign{
			Op:   ak,
			To:   lv,
			What: rv,
		}), nil
	} else if ak, ok := tok_to_stmtsuffix[next.Kind()]; ok {
		// Suffix-operation statement.
		toks.Pop()
		return node.At(lv.Span().To(next.Span()), &node.OpUnary{
			Op: ak,
			To: lv,
		}), nil
	}
	// A plain expression-looking thing.
	return node.At(lv.Span(), &node.ExprStmt{Expr: lv}), nil
}

// Block parses a brace-delimited statement sequence. A malformed statement is
// skipped up to the next ';' so that all errors within the block are found.
// In that case, the whole block is consumed and ErrBlock is returned.
func (p *Parser) Block(toks *token.Tokens) (*node.Block, error) {
	first := toks.Peek()
	if first == nil {
		return nil, EOT
	}
	if first.Kind() != token.LCurly {
		return nil, ErrNotBlock
	}
	toks.Pop()
	ret := node.Store(first, &node.Block{}).(*node.Block)
	stmts := []node.Node{}
	inerror := false
	for toks.Peek() != nil && toks.Peek().Kind() != token.RCurly {
		cur := toks.Peek()
		nerrs := len(p.errs)
		stmt, err := p.Stmt(toks)
		if err != nil {
			inerror = true
			if len(p.errs) == nerrs {
				p.errorf(cur, "invalid statement: %w", err)
			}
			if errors.Is(err, ErrBlock) {
				// The erroneous statement ended with a block, which has been
				// consumed already.
				continue
			}
			// Attempt finding next statement for the block for more errors.
			if stop := toks.Find(token.Semicolon, token.RCurly); stop != nil &&
				stop.Kind() == token.Semicolon {
				toks.Pop()
			}
			continue
		}
		stmts = append(stmts, stmt)
	}
	if err := toks.Accept(token.RCurly); err != nil {
		return nil, p.errorf(
			first,
			"block not terminated: %w", err)
	}
	if inerror {
		return nil, ErrBlock
	}
	ret.Value = stmts
	node.Finish(ret, toks.Last())
	return ret, nil
}

func (p *Parser) parenExpr(toks *token.Tokens, first *token.Token) (node.Node, error) {
	if err := toks.Accept(token.LParen); err != nil {
		return nil, p.errorf(first, "`%s' condition missing '('", first.Value())
	}
	cond, err := p.Expr(toks)
	if err != nil {
		return nil, err
	}
	if err := toks.Accept(token.RParen); err != nil {
		return nil, p.errorf(first, "`%s' condition missing ')'", first.Value())
	}
	return cond, nil
}

func (p *Parser) endStmt(toks *token.Tokens, first *token.Token, n node.Node) (node.Node, error) {
	if err := toks.Accept(token.Semicolon); err != nil {
		return nil, p.errorf(first, "statement missing ';'")
	}
	node.Finish(n, toks.Last())
	return n, nil
}

func (p *Parser) Stmt(toks *token.Tokens) (node.Node, error) {
	first := toks.Peek()
	if first == nil {
		return nil, EOT
	}
	// Plain block?
	if first.Kind() == token.LCurly {
		block, err := p.Block(toks)
		if err != nil {
			return nil, err
		}
		return block, nil
	}
	if first.Kind() != token.Id {
		return p.simpleStmtSemicolon(toks, first)
	}
	switch first.Value() {
	case "if":
		toks.Pop()
		cond, err := p.parenExpr(toks, first)
		if err != nil {
			return nil, err
		}
		ret := node.Store(first, &node.If{Cond: cond}).(*node.If)
		bodytrue, err := p.Stmt(toks)
		if err != nil && !errors.Is(err, ErrBlock) {
			return nil, err
		}
		ret.True = bodytrue
		// A true branch with errors has still been consumed, so the else
		// branch is parsed for more errors.
		if toks.AcceptWord("else") {
			bodyfalse, ferr := p.Stmt(toks)
			if ferr != nil {
				return nil, ferr
			}
			ret.False = bodyfalse
		}
		if err != nil {
			return nil, err
		}
		node.Finish(ret, toks.Last())
		return ret, nil
	case "while":
		toks.Pop()
		cond, err := p.parenExpr(toks, first)
		if err != nil {
			return nil, err
		}
		body, err := p.Stmt(toks)
		if err != nil {
			return nil, err
		}
		ret := node.Store(first, &node.While{
			Cond: cond,
			Body: body,
		})
		node.Finish(ret, toks.Last())
		return ret, nil
	case "for":
		return p.forStmt(toks)
	case "return":
		toks.Pop()
		ret := node.Store(first, &node.Return{}).(*node.Return)
		if next := toks.Peek(); next != nil && next.Kind() != token.Semicolon {
			expr, err := p.Expr(toks)
			if err != nil {
				return nil, p.errorf(first, "invalid return expression: %w", err)
			}
			ret.Expr = expr
		}
		return p.endStmt(toks, first, ret)
	case "break":
		toks.Pop()
		return p.endStmt(toks, first, node.Store(first, &node.Break{}))
	case "continue":
		toks.Pop()
		return p.endStmt(toks, first, node.Store(first, &node.Continue{}))
	case "throw":
		toks.Pop()
		return p.endStmt(toks, first, node.Store(first, &node.Throw{}))
	case "assembly":
		return p.Assembly(toks)
	case "else":
		toks.Pop()
		return nil, p.errorf(first, "`else' without `if'")
	default:
		return p.simpleStmtSemicolon(toks, first)
	}
}

func (p *Parser) simpleStmtSemicolon(toks *token.Tokens, first *token.Token) (node.Node, error) {
	ss, err := p.SimpleStmt(toks)
	if err != nil {
		return nil, err
	}
	return p.endStmt(toks, first, ss)
}

// forStmt parses
//
// "for" "(" [ <simple> ] ";" [ <exp> ] ";" [ <simple> ] ")" <stmt>
func (p *Parser) forStmt(toks *token.Tokens) (node.Node, error) {
	first := toks.Pop()
	if err := toks.Accept(token.LParen); err != nil {
		return nil, p.errorf(first, "`for' missing '('")
	}
	var init, cond, oneach node.Node
	var err error
	if next := toks.Peek(); next != nil && next.Kind() != token.Semicolon {
		if init, err = p.SimpleStmt(toks); err != nil {
			return nil, err
		}
	}
	if err := toks.Accept(token.Semicolon); err != nil {
		return nil, p.errorf(first, "`for' missing ';' after initializer")
	}
	if next := toks.Peek(); next != nil && next.Kind() != token.Semicolon {
		if cond, err = p.Expr(toks); err != nil {
			return nil, err
		}
	}
	if err := toks.Accept(token.Semicolon); err != nil {
		return nil, p.errorf(first, "`for' missing ';' after condition")
	}
	if next := toks.Peek(); next != nil && next.Kind() != token.RParen {
		if oneach, err = p.SimpleStmt(toks); err != nil {
			return nil, err
		}
		if _, ok := oneach.(*node.VarDeclStmt); ok {
			return nil, p.errorf(first, "`for' step cannot declare a variable")
		}
	}
	if err := toks.Accept(token.RParen); err != nil {
		return nil, p.errorf(first, "`for' missing ')'")
	}
	body, err := p.Stmt(toks)
	if err != nil {
		return nil, err
	}
	ret := node.Store(first, &node.For{
		Init:   init,
		Cond:   cond,
		OnEach: oneach,
		Body:   body,
	})
	node.Finish(ret, toks.Last())
	return ret, nil
}
