package analyze_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susji/sol0/analyze"
	"github.com/susji/sol0/lex"
	"github.com/susji/sol0/node"
	"github.com/susji/sol0/parse"
	"github.com/susji/sol0/report"
	"github.com/susji/sol0/types"
)

func nodes(t *testing.T, code string) (*node.SourceUnit, *analyze.Analyzer) {
	t.Helper()
	toks, lexerrs := lex.Lex([]byte(code), "t.sol")
	require.Empty(t, lexerrs)

	p := parse.NewFile("t.sol")
	perr := p.Parse(toks)
	if perr != nil {
		t.Log("parse errors:    ", p.Errors())
	}
	require.NoError(t, perr)
	return p.Unit(), analyze.New(p.Fn())
}

func fun(body string) string {
	return `
contract C {
    struct S { uint a; uint[] xs; }
    S s;
    uint n;
    function g(S storage p) internal returns (uint) { return p.a; }
    function f(bool c, S memory m) internal returns (S storage r) {
        ` + body + `
    }
}`
}

func TestSmoke(t *testing.T) {
	u, s := nodes(t, fun("r = s;"))
	assert.Empty(t, s.Analyze(u))
}

func TestErrors(t *testing.T) {
	type entry struct {
		body    string
		wanterr error
	}
	table := []entry{
		{"uint x; x = 1; return s;", nil},
		{"S storage p = s; p.a = 1; p.xs[0] = 2; g(p);", nil},
		{"S storage p; p = s; if (c && p.a > 1) { p.a++; }", nil},
		{"require(c); require(c, \"no\"); assert(!c); revert(); revert(\"x\");", nil},
		{"for (uint i = 0; i < s.xs.length; i++) { if (i == 3) break; continue; }", nil},
		{"uint x = c ? 1 : 2; while (x > 0) { x -= 1; }", nil},
		{"assembly { let y := r.slot }", nil},
		{"if (n) {}", analyze.ErrCondType},
		{"while (1 + 1) {}", analyze.ErrCondType},
		{"x = 1;", analyze.ErrVarNotDefined},
		{"uint c;", analyze.ErrVarAlreadyDefined},
		{"{ uint x; } { uint x; } uint x; { uint x; }", analyze.ErrVarAlreadyDefined},
		{"S p;", analyze.ErrLocationMissing},
		{"uint storage x;", analyze.ErrLocationNotReference},
		{"T storage p;", analyze.ErrTypeUnrecognized},
		{"S storage p = m;", analyze.ErrAssignTypeMismatch},
		{"S storage p; p = m;", analyze.ErrAssignTypeMismatch},
		{"uint x; x = c;", analyze.ErrAssignTypeMismatch},
		{"1 = 2;", analyze.ErrAssignNotLValue},
		{"g = 2;", analyze.ErrAssignNotLValue},
		{"c++;", analyze.ErrArithNonInteger},
		{"uint x = n + c;", analyze.ErrArithNonInteger},
		{"bool b = n < c;", analyze.ErrCompareNonInteger},
		{"bool b = s == s;", analyze.ErrCompareTypes},
		{"bool b = c || n;", analyze.ErrLogicNonBool},
		{"bool b = !n;", analyze.ErrNegateNonBool},
		{"uint x = -c;", analyze.ErrNegateNonInteger},
		{"n();", analyze.ErrFuncallNotFunction},
		{"g();", analyze.ErrFuncallArgsAmount},
		{"g(m);", analyze.ErrFuncallArgType},
		{"require(n);", analyze.ErrFuncallArgType},
		{"assert(c, c);", analyze.ErrFuncallArgsAmount},
		{"uint x = require;", analyze.ErrBuiltinNotCalled},
		{"uint x = n[0];", analyze.ErrIndexNotArray},
		{"uint x = s.xs[c];", analyze.ErrIndexNotInt},
		{"uint x = n.a;", analyze.ErrMemberNotStruct},
		{"uint x = s.b;", analyze.ErrMemberNotFound},
		{"uint x = c ? 1 : c;", analyze.ErrTernaryTypes},
		{"break;", analyze.ErrBreakOutsideLoop},
		{"continue;", analyze.ErrContinueOutsideLoop},
		{"return 1;", analyze.ErrReturnMistyped},
		{"return m;", analyze.ErrReturnMistyped},
		{"if (c) uint x;", analyze.ErrDeclNotInBlock},
	}
	for _, cur := range table {
		t.Run(cur.body, func(t *testing.T) {
			u, s := nodes(t, fun(cur.body))
			errs := s.Analyze(u)
			t.Log(errs)
			if cur.wanterr == nil {
				assert.False(t, analyze.ContainsErrors(errs))
				return
			}
			require.NotEmpty(t, errs)
			found := false
			for _, err := range errs {
				found = found || errors.Is(err, cur.wanterr)
			}
			assert.True(t, found, "want %v", cur.wanterr)
		})
	}
}

func TestReturnArity(t *testing.T) {
	u, s := nodes(t, `
contract C {
    function f() { return 1; }
    function g() returns (uint, uint) { return 1; }
}`)
	errs := s.Analyze(u)
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, analyze.ErrReturnArity)
	}
}

func TestDeclarations(t *testing.T) {
	u, s := nodes(t, `
contract C {
    struct S { uint a; }
    struct S { uint b; }
    struct R { R inner; }
    struct Q { Q[] inner; }
    uint x;
    uint x;
    function f() {}
    function f() {}
    function x() {}
    uint storage y;
}`)
	errs := s.Analyze(u)
	want := []error{
		analyze.ErrStructAlreadyDefined,
		analyze.ErrStructRecursive,
		analyze.ErrStateAlreadyDefined,
		analyze.ErrLocationStateVariable,
		analyze.ErrFuncAlreadyDefined,
		analyze.ErrStateAlreadyDefined,
	}
	require.Len(t, errs, len(want))
	for i := range want {
		assert.ErrorIs(t, errs[i], want[i])
		var d *report.Diagnostic
		require.ErrorAs(t, errs[i], &d)
		assert.Equal(t, report.DeclarationError, d.Severity)
	}
}

func TestShadowingWarns(t *testing.T) {
	u, s := nodes(t, `
contract C {
    uint n;
    function f() { uint n; n = 1; }
}`)
	errs := s.Analyze(u)
	require.Len(t, errs, 1)
	assert.False(t, analyze.ContainsErrors(errs))
	assert.ErrorIs(t, errs[0], analyze.ErrShadows)
}

func TestResults(t *testing.T) {
	u, s := nodes(t, fun(`
        S storage p;
        uint k;
        assembly { p := sload(k) }
        require(c);
        p.a = n;
        r = p;`))
	require.Empty(t, s.Analyze(u))
	res := s.Results()
	f := u.Contracts[0].Functions[1]
	body := f.Body.Value

	p := body[0].(*node.VarDeclStmt).Decl
	k := body[1].(*node.VarDeclStmt).Decl
	assert.True(t, res.StorageLocated(p))
	assert.False(t, res.StorageLocated(k))
	assert.True(t, res.StorageLocated(f.Returns[0]))
	assert.False(t, res.StorageLocated(f.Params[1]))
	assert.True(t, res.VarTypes[p].Pointer)

	asm := body[2].(*node.InlineAssembly)
	require.Len(t, asm.Refs, 3)
	assert.Equal(t, p, res.Declaration(asm.Refs[0].Id()))
	assert.Nil(t, res.Declaration(asm.Refs[1].Id()))
	assert.Equal(t, k, res.Declaration(asm.Refs[2].Id()))

	req := body[3].(*node.ExprStmt).Expr.(*node.Call)
	assert.Equal(t, types.BuiltinEnum(types.BUILTIN_REQUIRE), res.Builtin(req.Id()))

	asn := body[4].(*node.OpAssign)
	base := asn.To.(*node.Member).X
	assert.Equal(t, p, res.Declaration(base.Id()))
	n := asn.What.(*node.Identifier)
	assert.Nil(t, res.Declaration(n.Id()))
	assert.Equal(t, u.Contracts[0].StateVars[1], res.StateRefs[n.Id()])
	assert.Equal(t, "uint", res.TypeOf(n).String())
}
