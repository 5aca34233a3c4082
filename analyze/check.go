package analyze

// Most code in this file is related to checking the syntax tree we get from
// parsing. We do the whole thing with a single depth-first-traversal pass per
// function. This means that during checking, we maintain several data
// structures inside *Analyzer, which are primarily maps where the unique Node
// identifier (NodeId) is the key.

import (
	"errors"
	"fmt"

	"github.com/susji/sol0/node"
	"github.com/susji/sol0/types"
)

var (
	ErrCondType            = errors.New("condition not boolean")
	ErrVarNotDefined       = errors.New("undeclared identifier")
	ErrShadows             = errors.New("this declaration shadows an existing declaration")
	ErrArithNonInteger     = errors.New("non-integer arithmetic")
	ErrCompareNonInteger   = errors.New("non-integer comparison")
	ErrCompareTypes        = errors.New("types for comparison do not match")
	ErrLogicNonBool        = errors.New("logical operator needs booleans")
	ErrNegateNonBool       = errors.New("cannot negate non-boolean")
	ErrNegateNonInteger    = errors.New("cannot negate non-integer")
	ErrAssignTypeMismatch  = errors.New("type is not implicitly convertible to expected type")
	ErrAssignNotLValue     = errors.New("expression has to be an lvalue")
	ErrFuncallNotFunction  = errors.New("expression is not callable")
	ErrFuncallArgType      = errors.New("invalid type for argument in function call")
	ErrFuncallArgsAmount   = errors.New("wrong argument count for function call")
	ErrBuiltinNotCalled    = errors.New("builtin function can only be called")
	ErrIndexNotArray       = errors.New("indexed expression has to be an array")
	ErrIndexNotInt         = errors.New("index has to be an integer")
	ErrMemberNotStruct     = errors.New("member access needs a struct")
	ErrMemberNotFound      = errors.New("member not found")
	ErrTernaryTypes        = errors.New("true and false expressions have incompatible types")
	ErrContinueOutsideLoop = errors.New("`continue' not permitted outside loops")
	ErrBreakOutsideLoop    = errors.New("`break' not permitted outside loops")
	ErrReturnArity         = errors.New("different number of arguments in return statement than in returns declaration")
	ErrReturnMistyped      = errors.New("return argument type is not implicitly convertible to expected type")
	ErrDeclNotInBlock      = errors.New("variable declarations can only be used inside blocks")
)

var (
	typeBool = types.NewType(types.TYPE_BOOL, 0)
	typeUint = types.NewType(types.TYPE_UINT, 0)
	typeVoid = types.NewType(types.TYPE_VOID, 0)
)

func (s *Analyzer) checkContract(c *node.Contract) {
	s.contract = &contract{
		node:      c,
		structs:   map[string]*types.Struct{},
		statevars: map[string]*node.VarDecl{},
		functions: map[string]*node.FunDef{},
	}
	defer func() { s.contract = nil }()

	s.buildStructs(c)
	for _, vd := range c.StateVars {
		if _, ok := s.contract.statevars[vd.Name]; ok {
			s.declErrorf(vd, "%w: %q", ErrStateAlreadyDefined, vd.Name)
			continue
		}
		s.contract.statevars[vd.Name] = vd
		t, err := s.declType(vd, declState)
		if err != nil {
			s.declErrorf(vd, "state variable %q: %w", vd.Name, err)
			continue
		}
		s.res.VarTypes[vd] = t
	}
	for _, fd := range c.Functions {
		if _, ok := s.contract.functions[fd.Name]; ok {
			s.declErrorf(fd, "%w: %q", ErrFuncAlreadyDefined, fd.Name)
			continue
		}
		if _, ok := s.contract.statevars[fd.Name]; ok {
			s.declErrorf(fd, "%w: %q", ErrStateAlreadyDefined, fd.Name)
			continue
		}
		s.contract.functions[fd.Name] = fd
		if f, err := s.FunctionFromNode(fd); err == nil {
			s.res.Functions[fd] = f
		}
	}
	for _, fd := range c.Functions {
		s.checkFunction(fd)
	}
}

func (s *Analyzer) checkFunction(fd *node.FunDef) {
	if !fd.Implemented() {
		return
	}
	s.withFunction(fd, func() {
		s.withScope(fd, func() {
			for _, vd := range fd.Params {
				s.declare(vd)
			}
			for _, vd := range fd.Returns {
				s.declare(vd)
			}
			s.check(fd.Body)
		})
	})
}

// declare brings a variable into the current scope. Unnamed parameters are
// not visible anywhere.
func (s *Analyzer) declare(vd *node.VarDecl) {
	if vd.Name == "" {
		return
	}
	if _, ok := s.contract.statevars[vd.Name]; ok {
		s.warnf(vd, "%w", ErrShadows)
	} else if _, ok := s.contract.functions[vd.Name]; ok {
		s.warnf(vd, "%w", ErrShadows)
	}
	if err := s.scope.add(vd); err != nil {
		s.declErrorf(vd, "%w: %q", err, vd.Name)
	}
}

func (s *Analyzer) check(n node.Node) {
	switch t := n.(type) {
	case *node.Block:
		s.withScope(t, func() {
			for _, stmt := range t.Value {
				s.check(stmt)
			}
		})
	case *node.VarDeclStmt:
		s.checkVarDeclStmt(t)
	case *node.ExprStmt:
		s.check(t.Expr)
	case *node.OpAssign:
		s.checkAssign(t)
	case *node.If:
		s.checkCond(t.Cond)
		s.checkBody(t.True)
		if t.False != nil {
			s.checkBody(t.False)
		}
	case *node.While:
		s.checkCond(t.Cond)
		s.withLoop(t, func() {
			s.checkBody(t.Body)
		})
	case *node.For:
		s.withScope(t, func() {
			if t.Init != nil {
				s.check(t.Init)
			}
			if t.Cond != nil {
				s.checkCond(t.Cond)
			}
			s.withLoop(t, func() {
				s.checkBody(t.Body)
			})
			if t.OnEach != nil {
				s.check(t.OnEach)
			}
		})
	case *node.Break:
		if s.currentLoop() == nil {
			s.errorf(t, "%w", ErrBreakOutsideLoop)
		}
	case *node.Continue:
		if s.currentLoop() == nil {
			s.errorf(t, "%w", ErrContinueOutsideLoop)
		}
	case *node.Return:
		s.checkReturn(t)
	case *node.Throw:
	case *node.InlineAssembly:
		s.checkAssembly(t)
	case *node.OpUnary:
		s.checkUnary(t)
	case *node.OpBinary:
		s.checkBinary(t)
	case *node.Conditional:
		s.checkConditional(t)
	case *node.Call:
		s.checkCall(t)
	case *node.Member:
		s.checkMember(t)
	case *node.Index:
		s.checkIndex(t)
	case *node.Identifier:
		s.checkIdentifier(t)
	case *node.Numeric:
		s.setType(t, typeUint.Copy())
	case *node.Bool:
		s.setType(t, typeBool.Copy())
	case *node.StrLit:
		st := types.NewType(types.TYPE_STRING, 0)
		st.Location = node.LOC_MEMORY
		s.setType(t, st)
	default:
		panic(fmt.Sprintf("unexpected node: %s", n))
	}
}

// checkBody checks the body of a conditional or a loop.
func (s *Analyzer) checkBody(n node.Node) {
	if _, ok := n.(*node.VarDeclStmt); ok {
		s.errorf(n, "%w", ErrDeclNotInBlock)
		return
	}
	s.check(n)
}

func (s *Analyzer) checkCond(cond node.Node) {
	s.check(cond)
	if k := s.getType(cond); k != nil && !k.IsBool() {
		s.errorf(cond, "%w: got %s", ErrCondType, k)
	}
}

func (s *Analyzer) checkVarDeclStmt(vds *node.VarDeclStmt) {
	vd := vds.Decl
	t, err := s.declType(vd, declLocal)
	if err != nil {
		s.declErrorf(vd, "%w", err)
	}
	// The initializer is checked before the variable comes into scope.
	if vds.Init != nil {
		s.check(vds.Init)
		if it := s.getType(vds.Init); t != nil && it != nil && !it.AssignableTo(t) {
			s.errorf(vds.Init, "%w: %s to %s", ErrAssignTypeMismatch, it, t)
		}
	}
	if t != nil {
		s.res.VarTypes[vd] = t
	}
	s.declare(vd)
}

func (s *Analyzer) checkAssign(a *node.OpAssign) {
	s.check(a.What)
	s.check(a.To)
	// For an lvalue to be valid, it has to be a variable, a struct member or
	// an array element.
	if !s.isAssignable(a.To) {
		s.errorf(a.To, "%w: %s", ErrAssignNotLValue, a.To)
		return
	}
	kt := s.getType(a.To)
	kw := s.getType(a.What)
	if kt == nil || kw == nil {
		return
	}
	if a.Op != node.OPASN_PLAIN {
		if !kt.IsInteger() || !kw.IsInteger() {
			s.errorf(a, "%w: %s vs. %s", ErrArithNonInteger, kt, kw)
		}
		return
	}
	if !kw.AssignableTo(kt) {
		s.errorf(a, "%w: %s to %s", ErrAssignTypeMismatch, kw, kt)
	}
}

func (s *Analyzer) checkReturn(r *node.Return) {
	if r.Expr == nil {
		return
	}
	s.check(r.Expr)
	fd := s.curFunction()
	if len(fd.Returns) != 1 {
		s.errorf(r, "%w: got 1, want %d", ErrReturnArity, len(fd.Returns))
		return
	}
	et := s.getType(r.Expr)
	rt := s.res.VarTypes[fd.Returns[0]]
	if et != nil && rt != nil && !et.AssignableTo(rt) {
		s.errorf(r.Expr, "%w: %s to %s", ErrReturnMistyped, et, rt)
	}
}

// checkAssembly binds the identifiers of an assembly block which name local
// variables. Everything else is opaque to us.
func (s *Analyzer) checkAssembly(asm *node.InlineAssembly) {
	for _, ref := range asm.Refs {
		if vd := s.scope.get(ref.Name); vd != nil {
			s.res.Decls[ref.Id()] = vd
		}
	}
}

func (s *Analyzer) checkIdentifier(id *node.Identifier) {
	if vd := s.scope.get(id.Name); vd != nil {
		s.res.Decls[id.Id()] = vd
		if t := s.res.VarTypes[vd]; t != nil {
			s.setType(id, t)
		}
		s.setAssignable(id)
		return
	}
	if vd, ok := s.contract.statevars[id.Name]; ok {
		s.res.StateRefs[id.Id()] = vd
		if t := s.res.VarTypes[vd]; t != nil {
			s.setType(id, t)
		}
		s.setAssignable(id)
		return
	}
	if fd, ok := s.contract.functions[id.Name]; ok {
		if f := s.res.Functions[fd]; f != nil {
			s.setType(id, types.NewTypeExtra(types.TYPE_FUNC, 0, f))
		}
		return
	}
	if types.LookupBuiltin(id.Name) != types.BUILTIN_NONE {
		s.errorf(id, "%w: %q", ErrBuiltinNotCalled, id.Name)
		return
	}
	s.declErrorf(id, "%w: %q", ErrVarNotDefined, id.Name)
}

func (s *Analyzer) checkUnary(u *node.OpUnary) {
	s.check(u.To)
	k := s.getType(u.To)
	switch u.Op {
	case node.OPUN_LOGNOT:
		s.setType(u, typeBool.Copy())
		if k != nil && !k.IsBool() {
			s.errorf(u, "%w: got %s", ErrNegateNonBool, k)
		}
	case node.OPUN_NEG:
		if k == nil {
			return
		}
		if !k.IsInteger() {
			s.errorf(u, "%w: got %s", ErrNegateNonInteger, k)
			return
		}
		s.setType(u, k.Copy())
	case node.OPUN_ADDONESUFFIX, node.OPUN_SUBONESUFFIX:
		if !s.isAssignable(u.To) {
			s.errorf(u.To, "%w: %s", ErrAssignNotLValue, u.To)
			return
		}
		if k == nil {
			return
		}
		if !k.IsInteger() {
			s.errorf(u, "%w: got %s", ErrArithNonInteger, k)
			return
		}
		s.setType(u, k.Copy())
	default:
		panic(fmt.Sprintf("unexpected unary operator: %s", u.Op))
	}
}

func (s *Analyzer) checkBinary(b *node.OpBinary) {
	s.check(b.Left)
	s.check(b.Right)
	kl := s.getType(b.Left)
	kr := s.getType(b.Right)
	switch b.Op {
	case node.OPBIN_ADD, node.OPBIN_SUB, node.OPBIN_MUL, node.OPBIN_DIV, node.OPBIN_MOD:
		if kl == nil || kr == nil {
			return
		}
		if !kl.IsInteger() || !kr.IsInteger() {
			s.errorf(b, "%w: %s vs. %s", ErrArithNonInteger, kl, kr)
			return
		}
		s.setType(b, kl.Copy())
	case node.OPBIN_LT, node.OPBIN_GT, node.OPBIN_LE, node.OPBIN_GE:
		// Comparison unconditionally results in boolean.
		s.setType(b, typeBool.Copy())
		if kl != nil && kr != nil && (!kl.IsInteger() || !kr.IsInteger()) {
			s.errorf(b, "%w: %s vs. %s", ErrCompareNonInteger, kl, kr)
		}
	case node.OPBIN_EQ, node.OPBIN_NE:
		s.setType(b, typeBool.Copy())
		if kl == nil || kr == nil {
			return
		}
		if !kl.Matches(kr) || kl.IsReference() || kl.Type == types.TYPE_FUNC {
			s.errorf(b, "%w: %s vs. %s", ErrCompareTypes, kl, kr)
		}
	case node.OPBIN_AND, node.OPBIN_OR:
		s.setType(b, typeBool.Copy())
		if kl != nil && kr != nil && (!kl.IsBool() || !kr.IsBool()) {
			s.errorf(b, "%w: %s vs. %s", ErrLogicNonBool, kl, kr)
		}
	default:
		panic(fmt.Sprintf("unexpected binary operator: %s", b.Op))
	}
}

func (s *Analyzer) checkConditional(c *node.Conditional) {
	s.checkCond(c.Cond)
	s.check(c.True)
	s.check(c.False)
	kt := s.getType(c.True)
	kf := s.getType(c.False)
	if kt == nil || kf == nil {
		return
	}
	if !kt.Matches(kf) {
		s.errorf(c, "%w: %s vs. %s", ErrTernaryTypes, kt, kf)
		return
	}
	ret := kt.Copy()
	ret.Pointer = false
	s.setType(c, ret)
}

func (s *Analyzer) isBuiltin(name string) bool {
	if types.LookupBuiltin(name) == types.BUILTIN_NONE || s.scope.get(name) != nil {
		return false
	}
	_, isstate := s.contract.statevars[name]
	_, isfunc := s.contract.functions[name]
	return !isstate && !isfunc
}

func (s *Analyzer) checkCall(c *node.Call) {
	for _, arg := range c.Args {
		s.check(arg)
	}
	if id, ok := c.Fn.(*node.Identifier); ok && s.isBuiltin(id.Name) {
		b := types.LookupBuiltin(id.Name)
		s.res.Builtins[c.Id()] = b
		s.checkBuiltin(c, b)
		s.setType(c, typeVoid.Copy())
		return
	}
	s.check(c.Fn)
	ft := s.getType(c.Fn)
	if ft == nil {
		return
	}
	if ft.Type != types.TYPE_FUNC {
		s.errorf(c.Fn, "%w: %s", ErrFuncallNotFunction, ft)
		return
	}
	if id, ok := c.Fn.(*node.Identifier); ok {
		s.res.Callees[c.Id()] = s.contract.functions[id.Name]
	}
	f := ft.Extra.(*types.Function)
	if len(c.Args) != len(f.Params) {
		s.errorf(c, "%w: got %d, want %d", ErrFuncallArgsAmount, len(c.Args), len(f.Params))
	} else {
		for i, arg := range c.Args {
			at := s.getType(arg)
			if at != nil && !at.AssignableTo(&f.Params[i]) {
				s.errorf(arg, "%w: %s to %s", ErrFuncallArgType, at, &f.Params[i])
			}
		}
	}
	switch len(f.Returns) {
	case 0:
		s.setType(c, typeVoid.Copy())
	case 1:
		ret := f.Returns[0].Copy()
		ret.Pointer = false
		s.setType(c, ret)
	default:
		s.setType(c, types.NewType(types.TYPE_TUPLE, 0))
	}
}

func (s *Analyzer) checkBuiltin(c *node.Call, b types.BuiltinEnum) {
	argtype := func(i int, want types.TypeEnum) {
		if at := s.getType(c.Args[i]); at != nil && (at.Type != want || at.ArrayLevel > 0) {
			s.errorf(c.Args[i], "%w: %s to %s", ErrFuncallArgType, at, want)
		}
	}
	var lo, hi int
	switch b {
	case types.BUILTIN_REQUIRE:
		lo, hi = 1, 2
	case types.BUILTIN_ASSERT:
		lo, hi = 1, 1
	case types.BUILTIN_REVERT:
		lo, hi = 0, 1
	default:
		panic(fmt.Sprintf("unexpected builtin: %d", b))
	}
	if len(c.Args) < lo || len(c.Args) > hi {
		s.errorf(c, "%w: %s got %d", ErrFuncallArgsAmount, b, len(c.Args))
		return
	}
	for i := range c.Args {
		if i == 0 && b != types.BUILTIN_REVERT {
			argtype(i, types.TYPE_BOOL)
		} else {
			argtype(i, types.TYPE_STRING)
		}
	}
}

func (s *Analyzer) checkMember(m *node.Member) {
	s.check(m.X)
	xt := s.getType(m.X)
	if xt == nil {
		return
	}
	if xt.ArrayLevel > 0 && m.Name == "length" {
		s.setType(m, typeUint.Copy())
		return
	}
	if xt.Type != types.TYPE_STRUCT || xt.ArrayLevel > 0 {
		s.errorf(m, "%w: got %s", ErrMemberNotStruct, xt)
		return
	}
	st := xt.Extra.(*types.Struct)
	f := st.Fields.Find(m.Name)
	if f == nil {
		s.errorf(m, "%w: %q in %s", ErrMemberNotFound, m.Name, st.Name)
		return
	}
	s.setType(m, f.Member(xt.Location))
	s.setAssignable(m)
}

func (s *Analyzer) checkIndex(ix *node.Index) {
	s.check(ix.X)
	s.check(ix.Index)
	xt := s.getType(ix.X)
	it := s.getType(ix.Index)
	if it != nil && !it.IsInteger() {
		s.errorf(ix.Index, "%w: got %s", ErrIndexNotInt, it)
	}
	if xt == nil {
		return
	}
	if xt.ArrayLevel == 0 {
		s.errorf(ix.X, "%w: got %s", ErrIndexNotArray, xt)
		return
	}
	nt := xt.Copy()
	nt.DecArray()
	nt.Pointer = false
	s.setType(ix, nt)
	s.setAssignable(ix)
}
