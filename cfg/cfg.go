// Package cfg contains everything relevant for representing the control flow
// of a sol0 contract. The graph's nodes hold basic blocks and the edges are
// the possible transfers of control between them. A basic block is a linear
// sequence of variable occurrences without any branches.
//
// When considering the compiler pipeline, successful CFG formation relies on
// previous type-checking and on resolving identifiers to declarations.
//
// A flow is independently formed for each implemented function, but all nodes
// of one source unit live in a single NodeContainer.
package cfg

import (
	"fmt"

	"github.com/susji/sol0/node"
	"github.com/susji/sol0/report"
	"github.com/susji/sol0/types"
)

type OccurrenceKind int

const (
	Declaration OccurrenceKind = iota
	Access
	Assignment
	InlineAssembly
)

var occurrencekindnames = [...]string{
	"declaration",
	"access",
	"assignment",
	"inline-assembly",
}

func (k OccurrenceKind) String() string {
	if k < 0 || int(k) >= len(occurrencekindnames) {
		return fmt.Sprintf("OccurrenceKind(%d)", int(k))
	}
	return occurrencekindnames[k]
}

// VariableOccurrence is one mention of a local variable. Node is where the
// mention happened and is used for locating diagnostics and ordering them.
type VariableOccurrence struct {
	Declaration *node.VarDecl
	Kind        OccurrenceKind
	Node        node.Node
}

func (o *VariableOccurrence) String() string {
	return fmt.Sprintf("(%s %q)", o.Kind, o.Declaration.Name)
}

// Block is the contents of a CFG node. Statements lists the statements which
// start executing within the block.
type Block struct {
	Occurrences []*VariableOccurrence
	Return      *node.Return
	Statements  []node.Node
}

type Node struct {
	ID      int
	Block   Block
	Entries []*Node
	Exits   []*Node
}

func (n *Node) String() string {
	return fmt.Sprintf("(cfg-node %d %v)", n.ID, n.Block.Occurrences)
}

// NodeContainer owns every node of a CFG. Node IDs are indices into the
// container.
type NodeContainer struct {
	nodes []*Node
}

func (c *NodeContainer) NewNode() *Node {
	n := &Node{ID: len(c.nodes)}
	c.nodes = append(c.nodes, n)
	return n
}

func (c *NodeContainer) Len() int {
	return len(c.nodes)
}

func (c *NodeContainer) Node(id int) *Node {
	return c.nodes[id]
}

// FunctionFlow is the flow of a single function. Entry has no entries, and
// neither Exit nor Revert have exits. Nodes lists every node allocated for
// the function in allocation order.
type FunctionFlow struct {
	Function *node.FunDef
	Entry    *Node
	Exit     *Node
	Revert   *Node
	Nodes    []*Node
}

// Bindings is what CFG construction needs to know about names.
type Bindings interface {
	// Declaration returns the local variable an identifier refers to, or
	// nil if the identifier does not name a local variable.
	Declaration(id node.NodeId) *node.VarDecl
	// Builtin tells which builtin a call invokes.
	Builtin(id node.NodeId) types.BuiltinEnum
}

// CFG represents the control flow of every implemented function in a source
// unit.
type CFG struct {
	container NodeContainer
	bindings  Bindings
	reporter  *report.Reporter
	flows     map[*node.FunDef]*FunctionFlow
	order     []*node.FunDef
}

func New(bindings Bindings, reporter *report.Reporter) *CFG {
	return &CFG{
		bindings: bindings,
		reporter: reporter,
		flows:    map[*node.FunDef]*FunctionFlow{},
	}
}

// ConstructFlow forms the flow of each implemented function. It returns
// whether the diagnostics reported so far contain only warnings.
func (c *CFG) ConstructFlow(unit *node.SourceUnit) bool {
	for _, con := range unit.Contracts {
		for _, fd := range con.Functions {
			if !fd.Implemented() {
				continue
			}
			if _, ok := c.flows[fd]; ok {
				panic(fmt.Sprintf("flow for %q constructed twice", fd.Name))
			}
			ff := form(&c.container, c.bindings, fd)
			if err := ff.Validate(); err != nil {
				panic(fmt.Sprintf("malformed flow for %q: %v", fd.Name, err))
			}
			c.flows[fd] = ff
			c.order = append(c.order, fd)
		}
	}
	return c.reporter.ContainsOnlyWarnings()
}

// FunctionFlow returns the flow of fd. Asking for a function which has no flow
// is a programming error.
func (c *CFG) FunctionFlow(fd *node.FunDef) *FunctionFlow {
	ff, ok := c.flows[fd]
	if !ok {
		panic(fmt.Sprintf("no flow constructed for function %q", fd.Name))
	}
	return ff
}

// Functions lists the functions with a flow in source order.
func (c *CFG) Functions() []*node.FunDef {
	return c.order
}

func (c *CFG) Container() *NodeContainer {
	return &c.container
}
