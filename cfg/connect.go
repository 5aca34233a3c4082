package cfg

// The contents of this file are responsible for finding connections between
// nodes in a CFG. "A connection" is a directed path with a start and an end.
// As starts and ends are sought with caller-provided callbacks over the
// statements of each node, there should be enough flexibility.

import (
	"github.com/yourbasic/graph"

	"github.com/susji/sol0/node"
)

type NodeCb func(n node.Node) bool

// iterator exposes a container as a graph for traversal. Edge costs carry no
// meaning.
type iterator struct {
	c *NodeContainer
}

func (it iterator) Order() int {
	return it.c.Len()
}

func (it iterator) Visit(v int, do func(w int, c int64) bool) bool {
	for _, exit := range it.c.Node(v).Exits {
		if do(exit.ID, 0) {
			return true
		}
	}
	return false
}

// Reachable returns the set of nodes which can be reached from the entry of
// ff, the entry included.
func (c *CFG) Reachable(ff *FunctionFlow) NodeSet {
	ret := NodeSet{}
	ret.add(ff.Entry)
	graph.BFS(iterator{&c.container}, ff.Entry.ID, func(_, w int, _ int64) {
		ret.add(c.container.Node(w))
	})
	return ret
}

func stmtinblock(cb NodeCb, b *Block) bool {
	for _, stmt := range b.Statements {
		if cb(stmt) {
			return true
		}
	}
	return false
}

// Connect is used to determine whether there is at least one possible path
// from a statement matching start to a statement matching end. If start is
// nil, it is interpreted as function entry. A statement is considered
// connected to every statement starting later in the same node.
func (c *CFG) Connect(ff *FunctionFlow, start, end NodeCb) bool {
	if end == nil {
		panic("no end cb")
	}
	reach := c.Reachable(ff)
	for _, n := range ff.Nodes {
		if !reach.seen(n) {
			continue
		}
		if start == nil {
			if stmtinblock(end, &n.Block) {
				return true
			}
			continue
		}
		for i, stmt := range n.Block.Statements {
			if !start(stmt) {
				continue
			}
			rest := &Block{Statements: n.Block.Statements[i+1:]}
			if stmtinblock(end, rest) {
				return true
			}
			if c.reaches(n, end) {
				return true
			}
		}
	}
	return false
}

// reaches tells whether a statement matching end can execute after leaving
// from. A loop may lead back to from itself.
func (c *CFG) reaches(from *Node, end NodeCb) bool {
	for _, exit := range from.Exits {
		if stmtinblock(end, &exit.Block) {
			return true
		}
		found := false
		graph.BFS(iterator{&c.container}, exit.ID, func(_, w int, _ int64) {
			if !found && stmtinblock(end, &c.container.Node(w).Block) {
				found = true
			}
		})
		if found {
			return true
		}
	}
	return false
}
