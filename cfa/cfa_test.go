package cfa_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/susji/sol0/analyze"
	"github.com/susji/sol0/cfa"
	"github.com/susji/sol0/cfg"
	"github.com/susji/sol0/lex"
	"github.com/susji/sol0/node"
	"github.com/susji/sol0/parse"
	"github.com/susji/sol0/report"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type pipeline struct {
	unit     *node.SourceUnit
	results  *analyze.Results
	cfg      *cfg.CFG
	reporter *report.Reporter
}

func compile(t *testing.T, code string) *pipeline {
	t.Helper()
	toks, lexerrs := lex.Lex([]byte(code), "t.sol")
	require.Empty(t, lexerrs)
	p := parse.NewFile("t.sol")
	perr := p.Parse(toks)
	if perr != nil {
		t.Log("parse errors:    ", p.Errors())
	}
	require.NoError(t, perr)

	a := analyze.New(p.Fn())
	errs := a.Analyze(p.Unit())
	require.False(t, analyze.ContainsErrors(errs), "%v", errs)

	reporter := report.New()
	c := cfg.New(a.Results(), reporter)
	require.True(t, c.ConstructFlow(p.Unit()))
	return &pipeline{
		unit:     p.Unit(),
		results:  a.Results(),
		cfg:      c,
		reporter: reporter,
	}
}

func (p *pipeline) analyze(opts cfa.Options) bool {
	return cfa.New("t.sol", p.cfg, p.results, p.reporter, opts).Analyze(p.unit)
}

// summary renders diagnostics as "Severity line: message".
func summary(diags []*report.Diagnostic) []string {
	ret := []string{}
	for _, d := range diags {
		ret = append(ret, fmt.Sprintf("%s %d: %s", d.Severity, d.Location.Span.Lineno0, d.Message()))
	}
	return ret
}

const unsafe = "this variable is of storage pointer type and is accessed without prior assignment"

func TestMergeThenRead(t *testing.T) {
	p := compile(t, `
contract C {
    struct S { uint a; }
    S s;
    function f(bool c) internal returns (uint) {
        S storage p;
        if (c) {
            p = s;
        }
        return p.a;
    }
}`)
	assert.False(t, p.analyze(cfa.DefaultOptions()))
	diags := p.reporter.Diagnostics()
	if diff := cmp.Diff([]string{"TypeError 10: " + unsafe}, summary(diags)); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, diags, 1)
	assert.True(t, errors.Is(diags[0], cfa.ErrUnassignedStorage))
	assert.Equal(t, 16, diags[0].Location.Span.Col0)
}

func TestScenarios(t *testing.T) {
	type entry struct {
		name string
		body string
		want []string
	}
	table := []entry{
		{
			"assigned on both arms",
			"S storage p; if (c) { p = s; } else { p = s; } return p.a;",
			[]string{},
		},
		{
			"initialized",
			"S storage p = s; return p.a;",
			[]string{},
		},
		{
			"memory local",
			"S memory m; return m.a;",
			[]string{},
		},
		{
			"read on reverting path",
			"S storage p; if (c) { uint z = p.a; revert(); } p = s; return p.a;",
			[]string{},
		},
		{
			"require guards nothing",
			"S storage p; require(p.a > 0); p = s; return 0;",
			[]string{"TypeError 1: " + unsafe},
		},
		{
			"assembly assigns",
			"S storage p; assembly { p.slot := 0 } return p.a;",
			[]string{},
		},
		{
			"loop carried",
			"S storage p; while (c) { uint z = p.a; p = s; } return 0;",
			[]string{"TypeError 1: " + unsafe},
		},
		{
			"two reads",
			"S storage p; S storage q; uint z = q.a; z = p.a; p = s; q = s; return z;",
			[]string{"TypeError 1: " + unsafe, "TypeError 1: " + unsafe},
		},
		{
			"unreachable",
			"return 0; uint z = 1; if (c) { z = 2; }",
			[]string{"Warning 1: unreachable code", "Warning 1: unreachable code"},
		},
		{
			"break skips rest",
			"bool d = c; while (d) { break; d = false; } return 0;",
			[]string{"Warning 1: unreachable code"},
		},
	}
	for _, e := range table {
		t.Run(e.name, func(t *testing.T) {
			p := compile(t, `contract C { struct S { uint a; } S s; function f(bool c) internal returns (uint) { `+
				e.body+` } }`)
			p.analyze(cfa.DefaultOptions())
			if diff := cmp.Diff(e.want, summary(p.reporter.Diagnostics())); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnassignedReturnParameter(t *testing.T) {
	p := compile(t, `
contract C {
    struct S { uint a; }
    S s;
    function f(bool c) internal returns (S storage r) {
        if (c) {
            r = s;
        }
    }
    function g() internal returns (S storage r) {
        return s;
    }
    function h(bool c) internal returns (S storage r) {
        require(c);
        r = s;
    }
}`)
	assert.False(t, p.analyze(cfa.DefaultOptions()))
	if diff := cmp.Diff([]string{"TypeError 5: " + unsafe}, summary(p.reporter.Diagnostics())); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestOptions(t *testing.T) {
	code := `
contract C {
    struct S { uint a; }
    function f() internal returns (S storage r) {
        return r;
        r = r;
    }
}`
	type entry struct {
		opts cfa.Options
		ok   bool
		want []string
	}
	table := []entry{
		{cfa.DefaultOptions(), false, []string{"TypeError 5: " + unsafe, "Warning 6: unreachable code"}},
		{cfa.Options{UnassignedStorage: true}, false, []string{"TypeError 5: " + unsafe}},
		{cfa.Options{UnreachableCode: true}, true, []string{"Warning 6: unreachable code"}},
		{cfa.Options{}, true, []string{}},
	}
	for i, e := range table {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			p := compile(t, code)
			assert.Equal(t, e.ok, p.analyze(e.opts))
			if diff := cmp.Diff(e.want, summary(p.reporter.Diagnostics())); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	code := "contract C {\n    struct S { uint a; }\n    S s;\n"
	for i := 0; i < 16; i++ {
		code += fmt.Sprintf("    function f%d(bool c) internal returns (S storage r) { S storage p; if (c) { p = s; } r = p; return r; uint z = %d; }\n", i, i)
	}
	code += "}"

	seq := compile(t, code)
	assert.False(t, seq.analyze(cfa.DefaultOptions()))
	want := summary(seq.reporter.Diagnostics())
	require.Len(t, want, 32)

	for _, workers := range []int{2, 4, 32} {
		par := compile(t, code)
		opts := cfa.DefaultOptions()
		opts.Workers = workers
		assert.False(t, par.analyze(opts))
		if diff := cmp.Diff(want, summary(par.reporter.Diagnostics())); diff != "" {
			t.Errorf("workers=%d: diagnostics mismatch (-want +got):\n%s", workers, diff)
		}
	}
}

func TestMissingFlowPanics(t *testing.T) {
	p := compile(t, `contract C { function f() internal { } }`)
	empty := cfg.New(p.results, p.reporter)
	assert.Panics(t, func() {
		cfa.New("t.sol", empty, p.results, p.reporter, cfa.DefaultOptions()).Analyze(p.unit)
	})
}

func TestUnreachableStatements(t *testing.T) {
	p := compile(t, `
contract C {
    function f(bool c) internal {
        uint x = 1;
        while (c) {
            continue;
            x = 2;
        }
        throw;
        if (c) {
            x = 3;
        }
        x = 4;
    }
}`)
	var ff *cfg.FunctionFlow
	for _, fd := range p.cfg.Functions() {
		ff = p.cfg.FunctionFlow(fd)
	}
	require.NotNil(t, ff)
	var lines []int
	for _, stmt := range cfa.Unreachable(p.cfg, ff) {
		lines = append(lines, stmt.Span().Lineno0)
	}
	assert.Equal(t, []int{7, 10, 13}, lines)
}
