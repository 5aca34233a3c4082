package cfg

// The code in this file is responsible for building the CFG of a function.
// Our approach is simple recursion over the syntax tree while keeping track of
// the "current node", the node into which the occurrences of the statement at
// hand are appended. Whenever control may branch, new nodes are created,
// connected and one of them becomes the current node.
//
// A statement which unconditionally leaves the current path (return, break,
// continue, throw, revert) connects the current node to its target and then
// continues in a fresh node without entries. Whatever follows is thus
// unreachable, but its occurrences are still recorded.
//
// "break" and "continue" are handled via a few closures passed around in
// "branch loop", which generate suitable edges for the innermost loop.
//
//     while (c) {         <-- condition node, entered from before the loop
//         if (d) {        <-- body node
//             break;      <-- edge to the node after the loop
//         }
//         x = 1;          <-- node after the if, edge back to the condition
//     }
//     return;             <-- node after the loop

import (
	"fmt"

	"github.com/susji/sol0/node"
	"github.com/susji/sol0/types"
)

type branchLoop struct {
	onBreak, onContinue func(*Node)
}

type builder struct {
	container *NodeContainer
	bindings  Bindings
	flow      *FunctionFlow
	current   *Node
	loop      *branchLoop
}

func connect(from, to *Node) {
	from.Exits = append(from.Exits, to)
	to.Entries = append(to.Entries, from)
}

func (b *builder) newnode() *Node {
	n := b.container.NewNode()
	b.flow.Nodes = append(b.flow.Nodes, n)
	return n
}

func (b *builder) occur(decl *node.VarDecl, kind OccurrenceKind, at node.Node) {
	b.current.Block.Occurrences = append(b.current.Block.Occurrences,
		&VariableOccurrence{Declaration: decl, Kind: kind, Node: at})
}

// leave connects the current node to target and continues in a fresh node.
func (b *builder) leave(target *Node) {
	connect(b.current, target)
	b.current = b.newnode()
}

// split evaluates what in a new node reached from the current one and merges
// the result with the path which skipped it.
func (b *builder) split(what func()) {
	from := b.current
	b.current = b.newnode()
	connect(from, b.current)
	what()
	after := b.newnode()
	connect(b.current, after)
	connect(from, after)
	b.current = after
}

func (b *builder) assignable(n node.Node) *node.VarDecl {
	if id, ok := n.(*node.Identifier); ok {
		return b.bindings.Declaration(id.Id())
	}
	return nil
}

// lvalue records a write to n. Writing a whole variable assigns it. Writing a
// member or an element reads the variable holding the reference.
func (b *builder) lvalue(n node.Node, compound bool) {
	decl := b.assignable(n)
	if decl == nil {
		b.expr(n)
		return
	}
	if compound {
		b.occur(decl, Access, n)
	}
	b.occur(decl, Assignment, n)
}

func (b *builder) expr(n node.Node) {
	switch t := n.(type) {
	case *node.Identifier:
		if decl := b.bindings.Declaration(t.Id()); decl != nil {
			b.occur(decl, Access, t)
		}
	case *node.Numeric, *node.Bool, *node.StrLit:
	case *node.OpUnary:
		switch t.Op {
		case node.OPUN_ADDONESUFFIX, node.OPUN_SUBONESUFFIX:
			b.lvalue(t.To, true)
		default:
			b.expr(t.To)
		}
	case *node.OpBinary:
		b.expr(t.Left)
		if t.Op.ShortCircuit() {
			b.split(func() { b.expr(t.Right) })
		} else {
			b.expr(t.Right)
		}
	case *node.Conditional:
		b.expr(t.Cond)
		b.branch(func() { b.expr(t.True) }, func() { b.expr(t.False) })
	case *node.Call:
		b.call(t)
	case *node.Member:
		b.expr(t.X)
	case *node.Index:
		b.expr(t.X)
		b.expr(t.Index)
	default:
		panic(fmt.Sprintf("unexpected expression: %s", n))
	}
}

// branch evaluates both arms in their own nodes and merges them.
func (b *builder) branch(iftrue, iffalse func()) {
	from := b.current
	b.current = b.newnode()
	connect(from, b.current)
	iftrue()
	trueend := b.current
	falseend := from
	if iffalse != nil {
		b.current = b.newnode()
		connect(from, b.current)
		iffalse()
		falseend = b.current
	}
	after := b.newnode()
	connect(trueend, after)
	connect(falseend, after)
	b.current = after
}

// call handles builtins specially. Calls to other functions do not affect
// the variables of the caller.
func (b *builder) call(c *node.Call) {
	builtin := b.bindings.Builtin(c.Id())
	if builtin == types.BUILTIN_NONE {
		b.expr(c.Fn)
	}
	for _, arg := range c.Args {
		b.expr(arg)
	}
	switch builtin {
	case types.BUILTIN_REVERT:
		b.leave(b.flow.Revert)
	case types.BUILTIN_REQUIRE, types.BUILTIN_ASSERT:
		connect(b.current, b.flow.Revert)
		next := b.newnode()
		connect(b.current, next)
		b.current = next
	}
}

func (b *builder) loopBody(body node.Node, lp *branchLoop) {
	outer := b.loop
	b.loop = lp
	b.stmt(body)
	b.loop = outer
}

func (b *builder) stmt(n node.Node) {
	if _, ok := n.(*node.Block); !ok {
		b.current.Block.Statements = append(b.current.Block.Statements, n)
	}
	switch t := n.(type) {
	case *node.Block:
		for _, stmt := range t.Value {
			b.stmt(stmt)
		}
	case *node.VarDeclStmt:
		if t.Init != nil {
			b.expr(t.Init)
		}
		b.occur(t.Decl, Declaration, t.Decl)
		if t.Init != nil {
			b.occur(t.Decl, Assignment, t)
		}
	case *node.ExprStmt:
		b.expr(t.Expr)
	case *node.OpAssign:
		b.expr(t.What)
		b.lvalue(t.To, t.Op != node.OPASN_PLAIN)
	case *node.OpUnary:
		b.expr(t)
	case *node.If:
		b.expr(t.Cond)
		var iffalse func()
		if t.False != nil {
			iffalse = func() { b.stmt(t.False) }
		}
		b.branch(func() { b.stmt(t.True) }, iffalse)
	case *node.While:
		cond := b.newnode()
		connect(b.current, cond)
		b.current = cond
		b.expr(t.Cond)
		condend := b.current
		body := b.newnode()
		after := b.newnode()
		connect(condend, body)
		connect(condend, after)
		b.current = body
		b.loopBody(t.Body, &branchLoop{
			onBreak:    func(from *Node) { connect(from, after) },
			onContinue: func(from *Node) { connect(from, cond) },
		})
		connect(b.current, cond)
		b.current = after
	case *node.For:
		if t.Init != nil {
			b.stmt(t.Init)
		}
		cond := b.newnode()
		connect(b.current, cond)
		b.current = cond
		if t.Cond != nil {
			b.expr(t.Cond)
		}
		condend := b.current
		body := b.newnode()
		post := b.newnode()
		after := b.newnode()
		connect(condend, body)
		if t.Cond != nil {
			connect(condend, after)
		}
		b.current = body
		b.loopBody(t.Body, &branchLoop{
			onBreak:    func(from *Node) { connect(from, after) },
			onContinue: func(from *Node) { connect(from, post) },
		})
		connect(b.current, post)
		b.current = post
		if t.OnEach != nil {
			b.stmt(t.OnEach)
		}
		connect(b.current, cond)
		b.current = after
	case *node.Break:
		if b.loop == nil {
			panic("missing loop params on break")
		}
		b.loop.onBreak(b.current)
		b.current = b.newnode()
	case *node.Continue:
		if b.loop == nil {
			panic("missing loop params on continue")
		}
		b.loop.onContinue(b.current)
		b.current = b.newnode()
	case *node.Return:
		if t.Expr != nil {
			b.expr(t.Expr)
			for _, ret := range b.flow.Function.Returns {
				b.occur(ret, Assignment, t)
			}
		}
		b.current.Block.Return = t
		b.leave(b.flow.Exit)
	case *node.Throw:
		b.leave(b.flow.Revert)
	case *node.InlineAssembly:
		for _, ref := range t.Refs {
			if decl := b.bindings.Declaration(ref.Id()); decl != nil {
				b.occur(decl, InlineAssembly, ref)
			}
		}
	default:
		panic(fmt.Sprintf("unexpected statement: %s", n))
	}
}

// form builds the flow of an implemented function. Return parameters are
// declared on entry and read when the function exits normally.
func form(container *NodeContainer, bindings Bindings, fd *node.FunDef) *FunctionFlow {
	b := &builder{
		container: container,
		bindings:  bindings,
		flow:      &FunctionFlow{Function: fd},
	}
	b.flow.Entry = b.newnode()
	b.flow.Exit = b.newnode()
	b.flow.Revert = b.newnode()

	b.current = b.flow.Entry
	for _, ret := range fd.Returns {
		b.occur(ret, Declaration, ret)
	}
	b.stmt(fd.Body)
	connect(b.current, b.flow.Exit)

	b.current = b.flow.Exit
	for _, ret := range fd.Returns {
		b.occur(ret, Access, ret)
	}
	return b.flow
}
