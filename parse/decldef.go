package parse

import (
	"errors"

	"github.com/susji/sol0/node"
	"github.com/susji/sol0/token"
)

// VarDecl parses
//
// <vardecl> = <tp> [ <location> ] <vid>
//
// When named is false, the variable name may be left out as with unnamed
// return parameters.
func (p *Parser) VarDecl(toks *token.Tokens, named bool) (*node.VarDecl, error) {
	first := toks.Peek()
	if first == nil {
		return nil, EOT
	}
	tn, err := p.Type(toks)
	if err != nil {
		return nil, p.errorf(first, "expecting a type: %w", err)
	}
	ret := node.Store(first, &node.VarDecl{Type: tn}).(*node.VarDecl)
	if next := toks.Peek(); next != nil && next.Kind() == token.Id {
		if loc, ok := node.LocationFromWord(next.Value()); ok {
			toks.Pop()
			ret.Location = loc
		}
	}
	next := toks.Peek()
	switch {
	case next != nil && next.Kind() == token.Id && !IsReserved(next.Value()):
		toks.Pop()
		ret.Name = next.Value()
	case next != nil && next.Kind() == token.Id:
		return nil, p.errorf(next,
			"reserved identifier %q for variable declaration", next.Value())
	case named:
		return nil, p.errorf(next, "expecting variable name, got %v", next)
	}
	node.Finish(ret, toks.Last())
	return ret, nil
}

func (p *Parser) FuncParams(toks *token.Tokens, named bool) ([]*node.VarDecl, error) {
	first := toks.Peek()
	if first == nil {
		return nil, EOT
	}
	if err := toks.Accept(token.LParen); err != nil {
		return nil, p.errorf(first, "parameter list missing '(': %w", err)
	}
	params := []*node.VarDecl{}
	if err := toks.Accept(token.RParen); err == nil {
		return params, nil
	}
params:
	for {
		pdecl, err := p.VarDecl(toks, named)
		if err != nil {
			return nil, err
		}
		params = append(params, pdecl)

		parorcomma := toks.Peek()
		if parorcomma == nil {
			return nil,
				p.errorf(first, "unexpected end of parameter list")
		}
		switch parorcomma.Kind() {
		case token.RParen:
			break params
		case token.Comma:
			toks.Pop()
		default:
			return nil,
				p.errorf(parorcomma, "unexpected %v in parameter list", parorcomma)
		}
	}
	if err := toks.Accept(token.RParen); err != nil {
		return nil,
			p.errorf(first, "unterminated parameter list: %w", err)
	}
	return params, nil
}

// FunDef parses a function declaration or definition:
//
// <fundef> = "function" <fid> <params> { <modifier> }
//            [ "returns" <params> ] ( <block> | ";" )
func (p *Parser) FunDef(toks *token.Tokens) (*node.FunDef, error) {
	first := toks.Peek()
	if first == nil {
		return nil, EOT
	}
	if !toks.AcceptWord("function") {
		return nil, p.errorf(first, "expecting `function', got %v", first)
	}
	name := toks.Peek()
	if name == nil || name.Kind() != token.Id || IsReserved(name.Value()) {
		return nil, p.errorf(name, "expecting function name, got %v", name)
	}
	toks.Pop()
	ret := node.Store(first, &node.FunDef{Name: name.Value()}).(*node.FunDef)
	params, err := p.FuncParams(toks, false)
	if err != nil {
		return nil, err
	}
	ret.Params = params
	for {
		next := toks.Peek()
		if next == nil || next.Kind() != token.Id {
			break
		}
		if next.Value() == "returns" {
			if ret.Returns != nil {
				return nil, p.errorf(next, "duplicate `returns'")
			}
			toks.Pop()
			rets, err := p.FuncParams(toks, false)
			if err != nil {
				return nil, err
			}
			ret.Returns = rets
			continue
		}
		if IsReserved(next.Value()) {
			return nil, p.errorf(next, "unexpected %q in function header", next.Value())
		}
		toks.Pop()
		ret.Modifiers = append(ret.Modifiers, next.Value())
	}
	if err := toks.Accept(token.Semicolon); err == nil {
		node.Finish(ret, toks.Last())
		return ret, nil
	}
	body, err := p.Block(toks)
	if err != nil {
		if errors.Is(err, ErrNotBlock) {
			return nil, p.errorf(toks.Peek(),
				"function %q: expecting body or ';', got %v", ret.Name, toks.Peek())
		}
		return nil, err
	}
	ret.Body = body
	node.Finish(ret, toks.Last())
	return ret, nil
}

func (p *Parser) StructDef(toks *token.Tokens) (*node.StructDef, error) {
	first := toks.Peek()
	if first == nil {
		return nil, EOT
	}
	if !toks.AcceptWord("struct") {
		return nil, p.errorf(first, "expecting `struct', got %v", first)
	}
	name := toks.Peek()
	if name == nil || name.Kind() != token.Id || IsReserved(name.Value()) {
		return nil, p.errorf(name, "expecting struct name, got %v", name)
	}
	toks.Pop()
	if err := toks.Accept(token.LCurly); err != nil {
		return nil, p.errorf(name, "struct definition missing '{': %w", err)
	}
	ret := node.Store(first, &node.StructDef{Name: name.Value()}).(*node.StructDef)
	for cur := toks.Peek(); cur != nil && cur.Kind() != token.RCurly; cur = toks.Peek() {
		m, err := p.VarDecl(toks, true)
		if err != nil {
			return nil, err
		}
		if m.Location != node.LOC_DEFAULT {
			return nil, p.errorf(cur, "struct member %q cannot have a data location", m.Name)
		}
		if err := toks.Accept(token.Semicolon); err != nil {
			return nil, p.errorf(cur, "struct member missing ';'")
		}
		ret.Members = append(ret.Members, m)
	}
	if err := toks.Accept(token.RCurly); err != nil {
		return nil, p.errorf(first, "struct definition missing '}'")
	}
	if len(ret.Members) == 0 {
		return nil, p.errorf(first, "struct without any members")
	}
	node.Finish(ret, toks.Last())
	return ret, nil
}

// Contract parses
//
// <contract> = "contract" <cid> "{" { <structdef> | <fundef> | <vardecl> ";" } "}"
//
// A malformed member is skipped so that errors in later members are found as
// well.
func (p *Parser) Contract(toks *token.Tokens) (*node.Contract, error) {
	first := toks.Peek()
	if first == nil {
		return nil, EOT
	}
	if !toks.AcceptWord("contract") {
		return nil, p.errorf(first, "expecting `contract', got %v", first)
	}
	name := toks.Peek()
	if name == nil || name.Kind() != token.Id || IsReserved(name.Value()) {
		return nil, p.errorf(name, "expecting contract name, got %v", name)
	}
	toks.Pop()
	if err := toks.Accept(token.LCurly); err != nil {
		return nil, p.errorf(name, "contract missing '{': %w", err)
	}
	ret := node.Store(first, &node.Contract{Name: name.Value()}).(*node.Contract)
	for cur := toks.Peek(); cur != nil && cur.Kind() != token.RCurly; cur = toks.Peek() {
		var err error
		switch {
		case cur.Is("struct"):
			var sd *node.StructDef
			if sd, err = p.StructDef(toks); err == nil {
				ret.Structs = append(ret.Structs, sd)
			}
		case cur.Is("function"):
			var fd *node.FunDef
			if fd, err = p.FunDef(toks); err == nil {
				ret.Functions = append(ret.Functions, fd)
			}
		default:
			var vd *node.VarDecl
			if vd, err = p.VarDecl(toks, true); err == nil {
				if err = toks.Accept(token.Semicolon); err != nil {
					p.errorf(cur, "state variable missing ';'")
				} else {
					ret.StateVars = append(ret.StateVars, vd)
				}
			}
		}
		// A function body with errors has been consumed completely by the
		// block-level recovery.
		if err != nil && !errors.Is(err, ErrBlock) {
			skipMember(toks)
		}
	}
	if err := toks.Accept(token.RCurly); err != nil {
		return nil, p.errorf(first, "contract %q not terminated: %w", ret.Name, err)
	}
	node.Finish(ret, toks.Last())
	return ret, nil
}

// skipMember advances to the start of the next contract member or to the
// closing brace of the contract.
func skipMember(toks *token.Tokens) {
	depth := 0
	for toks.Len() > 0 {
		cur := toks.Peek()
		switch {
		case cur.Kind() == token.LCurly:
			depth++
		case cur.Kind() == token.RCurly && depth == 0:
			return
		case cur.Kind() == token.RCurly:
			depth--
			if depth == 0 {
				toks.Pop()
				return
			}
		case depth > 0:
		case cur.Kind() == token.Semicolon:
			toks.Pop()
			return
		case cur.Is("function") || cur.Is("struct"):
			// Both always consume their keyword, so the failed member did
			// not start here.
			return
		}
		toks.Pop()
	}
}
