package cfa

import (
	"container/list"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/susji/sol0/cfg"
	"github.com/susji/sol0/node"
)

// TypeInfo is what the analysis needs to know about declared types.
type TypeInfo interface {
	StorageLocated(decl *node.VarDecl) bool
}

type VarSet map[*node.VarDecl]struct{}
type OccurrenceSet map[*cfg.VariableOccurrence]struct{}

func (s VarSet) clone() VarSet {
	ret := make(VarSet, len(s))
	for k := range s {
		ret[k] = struct{}{}
	}
	return ret
}

func (s OccurrenceSet) clone() OccurrenceSet {
	ret := make(OccurrenceSet, len(s))
	for k := range s {
		ret[k] = struct{}{}
	}
	return ret
}

// Fixpoint holds the dataflow state reaching the start of each node, keyed by
// node ID. Nodes which were never reached have no entries.
type Fixpoint struct {
	// Unassigned is the set of variables which are declared but possibly not
	// assigned.
	Unassigned map[int]VarSet
	// UnassignedAccess is the set of storage pointer reads which possibly
	// happened before any assignment.
	UnassignedAccess map[int]OccurrenceSet
	// Unsafe lists the reads possibly dangling when the function exits
	// normally, in reporting order.
	Unsafe []*cfg.VariableOccurrence
}

// transfer applies the occurrences of n to copies of the incoming sets.
func transfer(n *cfg.Node, unassigned VarSet, access OccurrenceSet, ti TypeInfo) (VarSet, OccurrenceSet) {
	unassigned = unassigned.clone()
	access = access.clone()
	for _, occ := range n.Block.Occurrences {
		switch occ.Kind {
		case cfg.Declaration:
			unassigned[occ.Declaration] = struct{}{}
		case cfg.Assignment, cfg.InlineAssembly:
			delete(unassigned, occ.Declaration)
		case cfg.Access:
			if _, ok := unassigned[occ.Declaration]; ok && ti.StorageLocated(occ.Declaration) {
				access[occ] = struct{}{}
			}
		default:
			panic(fmt.Sprintf("unhandled occurrence kind %d", occ.Kind))
		}
	}
	return unassigned, access
}

// unionVars adds src to the set of node id and tells whether it grew.
func unionVars(m map[int]VarSet, id int, src VarSet) bool {
	dst, ok := m[id]
	if !ok {
		dst = VarSet{}
		m[id] = dst
	}
	grew := false
	for k := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = struct{}{}
			grew = true
		}
	}
	return grew
}

func unionOccurrences(m map[int]OccurrenceSet, id int, src OccurrenceSet) bool {
	dst, ok := m[id]
	if !ok {
		dst = OccurrenceSet{}
		m[id] = dst
	}
	grew := false
	for k := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = struct{}{}
			grew = true
		}
	}
	return grew
}

func less(a, b *cfg.VariableOccurrence) bool {
	if a.Node.Id() != b.Node.Id() {
		return a.Node.Id() < b.Node.Id()
	}
	if a.Declaration.Id() != b.Declaration.Id() {
		return a.Declaration.Id() < b.Declaration.Id()
	}
	return a.Kind < b.Kind
}

// Solve runs the forward worklist analysis of ff to its fixed point. A node
// is processed again whenever its incoming sets grow; a node is processed at
// least once if it is reachable from the entry, even when it receives
// nothing.
func Solve(ff *cfg.FunctionFlow, ti TypeInfo) *Fixpoint {
	fp := &Fixpoint{
		Unassigned:       map[int]VarSet{ff.Entry.ID: {}},
		UnassignedAccess: map[int]OccurrenceSet{ff.Entry.ID: {}},
	}
	visited := map[int]struct{}{}

	worklist := list.New()
	worklist.PushBack(ff.Entry)
	for worklist.Len() > 0 {
		n := worklist.Remove(worklist.Front()).(*cfg.Node)
		visited[n.ID] = struct{}{}
		unassigned, access := transfer(n, fp.Unassigned[n.ID], fp.UnassignedAccess[n.ID], ti)
		for _, succ := range n.Exits {
			grew := unionVars(fp.Unassigned, succ.ID, unassigned)
			if unionOccurrences(fp.UnassignedAccess, succ.ID, access) {
				grew = true
			}
			if _, seen := visited[succ.ID]; grew || !seen {
				worklist.PushBack(succ)
			}
		}
	}

	if _, ok := visited[ff.Exit.ID]; ok {
		// The exit block reads the return parameters.
		_, access := transfer(ff.Exit, fp.Unassigned[ff.Exit.ID], fp.UnassignedAccess[ff.Exit.ID], ti)
		fp.Unsafe = maps.Keys(access)
		slices.SortFunc(fp.Unsafe, less)
	}
	return fp
}
