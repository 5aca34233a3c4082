package cfa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susji/sol0/cfa"
	"github.com/susji/sol0/cfg"
	"github.com/susji/sol0/node"
	"github.com/susji/sol0/span"
)

// graph helps building flows by hand.
type graph struct {
	c       cfg.NodeContainer
	ff      *cfg.FunctionFlow
	storage map[*node.VarDecl]bool
	line    int
}

func newGraph() *graph {
	g := &graph{storage: map[*node.VarDecl]bool{}}
	g.ff = &cfg.FunctionFlow{Function: &node.FunDef{Name: "f"}}
	g.ff.Entry = g.node()
	g.ff.Exit = g.node()
	g.ff.Revert = g.node()
	return g
}

func (g *graph) StorageLocated(decl *node.VarDecl) bool {
	return g.storage[decl]
}

func (g *graph) node() *cfg.Node {
	n := g.c.NewNode()
	g.ff.Nodes = append(g.ff.Nodes, n)
	return n
}

func (g *graph) edge(from, to *cfg.Node) {
	from.Exits = append(from.Exits, to)
	to.Entries = append(to.Entries, from)
}

func (g *graph) at() span.Span {
	g.line++
	return span.Span{Lineno0: g.line, Col0: 1, Lineno: g.line, Col: 2}
}

func (g *graph) decl(name string, storage bool) *node.VarDecl {
	vd := node.At(g.at(), &node.VarDecl{Name: name}).(*node.VarDecl)
	g.storage[vd] = storage
	return vd
}

func (g *graph) ident(vd *node.VarDecl) node.Node {
	return node.At(g.at(), &node.Identifier{Name: vd.Name})
}

func (g *graph) occur(n *cfg.Node, vd *node.VarDecl, kind cfg.OccurrenceKind, at node.Node) *cfg.VariableOccurrence {
	if at == nil {
		at = g.ident(vd)
	}
	occ := &cfg.VariableOccurrence{Declaration: vd, Kind: kind, Node: at}
	n.Block.Occurrences = append(n.Block.Occurrences, occ)
	return occ
}

func (g *graph) solve(t *testing.T) *cfa.Fixpoint {
	t.Helper()
	require.NoError(t, g.ff.Validate())
	return cfa.Solve(g.ff, g)
}

func TestStraightLineRead(t *testing.T) {
	g := newGraph()
	x := g.decl("x", true)
	g.occur(g.ff.Entry, x, cfg.Declaration, x)
	read := g.occur(g.ff.Entry, x, cfg.Access, nil)
	g.edge(g.ff.Entry, g.ff.Exit)

	fp := g.solve(t)
	assert.Equal(t, []*cfg.VariableOccurrence{read}, fp.Unsafe)
	assert.Contains(t, fp.Unassigned[g.ff.Exit.ID], x)
	assert.Contains(t, fp.UnassignedAccess[g.ff.Exit.ID], read)
}

func TestNoFlagAfterAssignment(t *testing.T) {
	g := newGraph()
	x := g.decl("x", true)
	g.occur(g.ff.Entry, x, cfg.Declaration, x)
	g.occur(g.ff.Entry, x, cfg.Assignment, nil)
	g.occur(g.ff.Entry, x, cfg.Access, nil)
	g.edge(g.ff.Entry, g.ff.Exit)

	fp := g.solve(t)
	assert.Empty(t, fp.Unsafe)
	assert.Empty(t, fp.Unassigned[g.ff.Exit.ID])
}

func TestJoinIsPessimistic(t *testing.T) {
	g := newGraph()
	x := g.decl("x", true)
	g.occur(g.ff.Entry, x, cfg.Declaration, x)
	assigns, skips, merge := g.node(), g.node(), g.node()
	g.occur(assigns, x, cfg.Assignment, nil)
	read := g.occur(merge, x, cfg.Access, nil)
	g.edge(g.ff.Entry, assigns)
	g.edge(g.ff.Entry, skips)
	g.edge(assigns, merge)
	g.edge(skips, merge)
	g.edge(merge, g.ff.Exit)

	fp := g.solve(t)
	assert.Equal(t, []*cfg.VariableOccurrence{read}, fp.Unsafe)
	assert.Contains(t, fp.Unassigned[skips.ID], x)
	assert.Contains(t, fp.Unassigned[merge.ID], x)
}

func TestInlineAssemblyClears(t *testing.T) {
	g := newGraph()
	x := g.decl("x", true)
	g.occur(g.ff.Entry, x, cfg.Declaration, x)
	g.occur(g.ff.Entry, x, cfg.InlineAssembly, nil)
	g.occur(g.ff.Entry, x, cfg.Access, nil)
	g.edge(g.ff.Entry, g.ff.Exit)

	assert.Empty(t, g.solve(t).Unsafe)
}

func TestNonStorageExempt(t *testing.T) {
	g := newGraph()
	x := g.decl("x", false)
	g.occur(g.ff.Entry, x, cfg.Declaration, x)
	g.occur(g.ff.Entry, x, cfg.Access, nil)
	g.edge(g.ff.Entry, g.ff.Exit)

	fp := g.solve(t)
	assert.Empty(t, fp.Unsafe)
	assert.Contains(t, fp.Unassigned[g.ff.Exit.ID], x)
}

func TestRevertPathExempt(t *testing.T) {
	g := newGraph()
	x := g.decl("x", true)
	g.occur(g.ff.Entry, x, cfg.Declaration, x)
	failing := g.node()
	read := g.occur(failing, x, cfg.Access, nil)
	g.edge(g.ff.Entry, failing)
	g.edge(failing, g.ff.Revert)
	g.edge(g.ff.Entry, g.ff.Exit)

	fp := g.solve(t)
	assert.Empty(t, fp.Unsafe)
	assert.Contains(t, fp.UnassignedAccess[g.ff.Revert.ID], read)
}

func TestDeterministicOrdering(t *testing.T) {
	g := newGraph()
	x := g.decl("x", true)
	y := g.decl("y", true)
	g.occur(g.ff.Entry, x, cfg.Declaration, x)
	g.occur(g.ff.Entry, y, cfg.Declaration, y)
	early := g.ident(x)
	late := g.ident(y)
	require.Less(t, early.Id(), late.Id())

	// Discovered in reverse source order.
	first, second := g.node(), g.node()
	g.edge(g.ff.Entry, first)
	g.edge(first, second)
	g.edge(second, g.ff.Exit)
	lateocc := g.occur(first, y, cfg.Access, late)
	earlyocc := g.occur(second, x, cfg.Access, early)
	// Same node, distinct declarations.
	shared := g.ident(x)
	xshared := g.occur(second, x, cfg.Access, shared)
	yshared := g.occur(first, y, cfg.Access, shared)

	for i := 0; i < 3; i++ {
		fp := g.solve(t)
		assert.Equal(t, []*cfg.VariableOccurrence{earlyocc, lateocc, xshared, yshared}, fp.Unsafe)
	}
}

func TestLoopReachesFixpoint(t *testing.T) {
	g := newGraph()
	x := g.decl("x", true)
	g.occur(g.ff.Entry, x, cfg.Declaration, x)
	cond, body := g.node(), g.node()
	g.edge(g.ff.Entry, cond)
	g.edge(cond, body)
	g.edge(cond, g.ff.Exit)
	read := g.occur(body, x, cfg.Access, nil)
	g.occur(body, x, cfg.Assignment, nil)
	g.edge(body, cond)

	fp := g.solve(t)
	assert.Equal(t, []*cfg.VariableOccurrence{read}, fp.Unsafe)

	again := cfa.Solve(g.ff, g)
	assert.Equal(t, fp, again)
}

func TestNodesVisitedWithoutGrowth(t *testing.T) {
	g := newGraph()
	x := g.decl("x", true)
	later := g.node()
	g.edge(g.ff.Entry, later)
	g.edge(later, g.ff.Exit)
	g.occur(later, x, cfg.Declaration, x)
	read := g.occur(later, x, cfg.Access, nil)

	assert.Equal(t, []*cfg.VariableOccurrence{read}, g.solve(t).Unsafe)
}

func TestExitBlockReads(t *testing.T) {
	g := newGraph()
	r := g.decl("r", true)
	g.occur(g.ff.Entry, r, cfg.Declaration, r)
	g.edge(g.ff.Entry, g.ff.Exit)
	read := g.occur(g.ff.Exit, r, cfg.Access, r)

	fp := g.solve(t)
	assert.Equal(t, []*cfg.VariableOccurrence{read}, fp.Unsafe)
	assert.Empty(t, fp.UnassignedAccess[g.ff.Exit.ID])
}

func TestUnreachableExit(t *testing.T) {
	g := newGraph()
	x := g.decl("x", true)
	g.occur(g.ff.Entry, x, cfg.Declaration, x)
	g.occur(g.ff.Entry, x, cfg.Access, nil)
	g.edge(g.ff.Entry, g.ff.Revert)

	fp := g.solve(t)
	assert.Empty(t, fp.Unsafe)
	assert.NotContains(t, fp.Unassigned, g.ff.Exit.ID)
}

func TestUnknownKindPanics(t *testing.T) {
	g := newGraph()
	x := g.decl("x", true)
	g.occur(g.ff.Entry, x, cfg.OccurrenceKind(42), nil)
	g.edge(g.ff.Entry, g.ff.Exit)
	assert.Panics(t, func() {
		cfa.Solve(g.ff, g)
	})
}
