// Package node defines the sol0 syntax tree.
package node

import (
	"fmt"
	"strings"

	"github.com/susji/sol0/span"
)

type Common struct {
	id   NodeId
	span span.Span
}

// Node is the interface, which must be implemented by all syntax tree nodes.
// All Nodes must be able to produce their unique identifier, their source
// span, and stringify themselves in a sexpr.
type Node interface {
	String() string
	Id() NodeId
	Span() span.Span
	common() *Common
}

// Loop is a pseudo-interface used to tag valid loop constructs, namely "while"
// and "for".
type Loop interface {
	Node
	Loop()
}

type SourceUnit struct {
	Common
	Contracts []*Contract
}

type Contract struct {
	Common
	Name      string
	Structs   []*StructDef
	StateVars []*VarDecl
	Functions []*FunDef
}

type StructDef struct {
	Common
	Name    string
	Members []*VarDecl
}

// TypeName is a type as written in the source: an elementary type or a
// struct name, followed by zero or more "[]".
type TypeName struct {
	Common
	Name       string
	ArrayLevel int
}

type DataLocation int

const (
	LOC_DEFAULT = iota
	LOC_STORAGE
	LOC_MEMORY
	LOC_CALLDATA
)

var locnames = [...]string{
	"",
	"storage",
	"memory",
	"calldata",
}

func (l DataLocation) String() string {
	return locnames[l]
}

// LocationFromWord maps a data location keyword to its DataLocation.
func LocationFromWord(word string) (DataLocation, bool) {
	for i := LOC_STORAGE; i < len(locnames); i++ {
		if locnames[i] == word {
			return DataLocation(i), true
		}
	}
	return LOC_DEFAULT, false
}

type VarDecl struct {
	Common
	Type     *TypeName
	Location DataLocation
	Name     string
}

type FunDef struct {
	Common
	Name      string
	Params    []*VarDecl
	Returns   []*VarDecl
	Modifiers []string
	Body      *Block
}

// Implemented tells whether the function has a body.
func (f *FunDef) Implemented() bool {
	return f.Body != nil
}

type Block struct {
	Common
	Value []Node
}

type VarDeclStmt struct {
	Common
	Decl *VarDecl
	Init Node
}

type ExprStmt struct {
	Common
	Expr Node
}

type If struct {
	Common
	Cond        Node
	True, False Node
}

type While struct {
	Common
	Cond, Body Node
}

type For struct {
	Common
	Init, Cond, OnEach, Body Node
}

type Break struct {
	Common
}

type Continue struct {
	Common
}

type Return struct {
	Common
	Expr Node
}

type Throw struct {
	Common
}

// InlineAssembly is an opaque block of low-level code. Only the identifiers
// it mentions are kept.
type InlineAssembly struct {
	Common
	Refs []*Identifier
}

type Identifier struct {
	Common
	Name string
}

type Numeric struct {
	Common
	Value string
	Base  int
}

type Bool struct {
	Common
	Value bool
}

type StrLit struct {
	Common
	Value string
}

type OpUnary struct {
	Common
	Op KindOpUn
	To Node
}

type OpBinary struct {
	Common
	Op          KindOpBin
	Left, Right Node
}

type OpAssign struct {
	Common
	Op       KindOpAsn
	To, What Node
}

type Conditional struct {
	Common
	Cond        Node
	True, False Node
}

type Call struct {
	Common
	Fn   Node
	Args []Node
}

type Member struct {
	Common
	X    Node
	Name string
}

type Index struct {
	Common
	X, Index Node
}

type KindOpBin int
type KindOpUn int
type KindOpAsn int

const (
	OPUN_NEG = iota
	OPUN_LOGNOT
	OPUN_ADDONESUFFIX
	OPUN_SUBONESUFFIX
)

var opunnames = [...]string{
	"u-",
	"!",
	"s++",
	"s--",
}

func (op KindOpUn) String() string {
	return opunnames[op]
}

const (
	OPBIN_ADD = iota
	OPBIN_SUB
	OPBIN_MUL
	OPBIN_DIV
	OPBIN_MOD
	OPBIN_LE
	OPBIN_GE
	OPBIN_LT
	OPBIN_GT
	OPBIN_EQ
	OPBIN_NE
	OPBIN_AND
	OPBIN_OR
)

var opbinnames = [...]string{
	"+",
	"-",
	"*",
	"/",
	"%",
	"<=",
	">=",
	"<",
	">",
	"==",
	"!=",
	"&&",
	"||",
}

func (op KindOpBin) String() string {
	return opbinnames[op]
}

// ShortCircuit tells whether the right operand is evaluated conditionally.
func (op KindOpBin) ShortCircuit() bool {
	return op == OPBIN_AND || op == OPBIN_OR
}

const (
	OPASN_PLAIN = iota
	OPASN_ADD
	OPASN_SUB
	OPASN_MUL
	OPASN_DIV
	OPASN_MOD
)

var opasnnames = [...]string{
	"=",
	"+=",
	"-=",
	"*=",
	"/=",
	"%=",
}

func (op KindOpAsn) String() string {
	return opasnnames[op]
}

func str(n Node) string {
	if n == nil {
		return "nil"
	}
	return n.String()
}

func (c *Common) Id() NodeId {
	return c.id
}

func (c *Common) Span() span.Span {
	return c.span
}

func (c *Common) common() *Common {
	return c
}

func (n *SourceUnit) String() string {
	b := &strings.Builder{}
	b.WriteString("(unit")
	for _, c := range n.Contracts {
		b.WriteString(" " + c.String())
	}
	b.WriteString(")")
	return b.String()
}

func (n *Contract) String() string {
	b := &strings.Builder{}
	b.WriteString(fmt.Sprintf("(contract %q", n.Name))
	for _, s := range n.Structs {
		b.WriteString(" " + s.String())
	}
	for _, v := range n.StateVars {
		b.WriteString(" " + v.String())
	}
	for _, f := range n.Functions {
		b.WriteString(" " + f.String())
	}
	b.WriteString(")")
	return b.String()
}

func (n *StructDef) String() string {
	return fmt.Sprintf("(def-struct %q %s)", n.Name, VarDecls(n.Members))
}

func (n *TypeName) String() string {
	return fmt.Sprintf("(type %q)", n.Name+strings.Repeat("[]", n.ArrayLevel))
}

func (n *VarDecl) String() string {
	if n.Location == LOC_DEFAULT {
		return fmt.Sprintf("(vardecl %q %s)", n.Name, n.Type)
	}
	return fmt.Sprintf("(vardecl %q %s %s)", n.Name, n.Type, n.Location)
}

type VarDecls []*VarDecl

func (p VarDecls) String() string {
	b := &strings.Builder{}
	b.WriteString("(vardecls")
	for _, cur := range p {
		b.WriteString(fmt.Sprintf(" %s", cur))
	}
	b.WriteString(")")
	return b.String()
}

func (n *FunDef) String() string {
	body := "'unimplemented"
	if n.Body != nil {
		body = n.Body.String()
	}
	return fmt.Sprintf("(fundef %q %s %s %v %s)",
		n.Name, VarDecls(n.Params), VarDecls(n.Returns), n.Modifiers, body)
}

func (n *Block) String() string {
	b := &strings.Builder{}
	b.WriteString("(begin")
	for _, stmt := range n.Value {
		b.WriteString(fmt.Sprintf(" %s", stmt))
	}
	b.WriteString(")")
	return b.String()
}

func (n *VarDeclStmt) String() string {
	if n.Init == nil {
		return fmt.Sprintf("(declare %s)", n.Decl)
	}
	return fmt.Sprintf("(declare %s %s)", n.Decl, n.Init)
}

func (n *ExprStmt) String() string {
	return fmt.Sprintf("(expr %s)", n.Expr)
}

func (n *If) String() string {
	if n.False == nil {
		return fmt.Sprintf("(if %s %s 'noelse)", n.Cond, n.True)
	}
	return fmt.Sprintf("(if %s %s %s)", n.Cond, n.True, n.False)
}

func (n *While) String() string {
	return fmt.Sprintf("(while %s %s)", n.Cond, n.Body)
}

func (n *For) String() string {
	return fmt.Sprintf("(for %s %s %s %s)", str(n.Init), str(n.Cond), str(n.OnEach), n.Body)
}

func (n *Break) String() string {
	return "(break)"
}

func (n *Continue) String() string {
	return "(continue)"
}

func (n *Return) String() string {
	if n.Expr == nil {
		return "(return)"
	}
	return fmt.Sprintf("(return %s)", n.Expr)
}

func (n *Throw) String() string {
	return "(throw)"
}

func (n *InlineAssembly) String() string {
	names := make([]string, 0, len(n.Refs))
	for _, ref := range n.Refs {
		names = append(names, ref.Name)
	}
	return fmt.Sprintf("(assembly %v)", names)
}

func (n *Identifier) String() string {
	return n.Name
}

func (n *Numeric) String() string {
	return n.Value
}

func (n *Bool) String() string {
	if n.Value {
		return "#t"
	}
	return "#f"
}

func (n *StrLit) String() string {
	return fmt.Sprintf("%q", n.Value)
}

func (n *OpUnary) String() string {
	return fmt.Sprintf("(%s %s)", n.Op, n.To)
}

func (n *OpBinary) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Op, n.Left, n.Right)
}

func (n *OpAssign) String() string {
	return fmt.Sprintf("(assign%s %s %s)", n.Op, n.To, n.What)
}

func (n *Conditional) String() string {
	return fmt.Sprintf("(? %s %s %s)", n.Cond, n.True, n.False)
}

func (n *Call) String() string {
	b := &strings.Builder{}
	b.WriteString(fmt.Sprintf("(call %s", n.Fn))
	for _, arg := range n.Args {
		b.WriteString(fmt.Sprintf(" %s", arg))
	}
	b.WriteString(")")
	return b.String()
}

func (n *Member) String() string {
	return fmt.Sprintf("(. %s %s)", n.X, n.Name)
}

func (n *Index) String() string {
	return fmt.Sprintf("([] %s %s)", n.X, n.Index)
}

// NodeCallback is called by Walk for each individual Node encountered. The
// integer argument is the current recursion depth. NodeCallback has to return
// a boolean, which indicates whether to continue recursion for the present
// path.
type NodeCallback func(Node, int) bool

func walk(node Node, cb NodeCallback, depth int) {
	if !cb(node, depth) {
		return
	}
	sub := []Node{}
	a := func(n Node) {
		if n != nil {
			sub = append(sub, n)
		}
	}
	switch t := node.(type) {
	case *SourceUnit:
		for _, c := range t.Contracts {
			a(c)
		}
	case *Contract:
		for _, s := range t.Structs {
			a(s)
		}
		for _, v := range t.StateVars {
			a(v)
		}
		for _, f := range t.Functions {
			a(f)
		}
	case *StructDef:
		for _, m := range t.Members {
			a(m)
		}
	case *VarDecl:
		a(t.Type)
	case *FunDef:
		for _, p := range t.Params {
			a(p)
		}
		for _, r := range t.Returns {
			a(r)
		}
		if t.Body != nil {
			a(t.Body)
		}
	case *Block:
		for _, stmt := range t.Value {
			a(stmt)
		}
	case *VarDeclStmt:
		a(t.Decl)
		a(t.Init)
	case *ExprStmt:
		a(t.Expr)
	case *If:
		a(t.Cond)
		a(t.True)
		a(t.False)
	case *While:
		a(t.Cond)
		a(t.Body)
	case *For:
		a(t.Init)
		a(t.Cond)
		a(t.OnEach)
		a(t.Body)
	case *Return:
		a(t.Expr)
	case *InlineAssembly:
		for _, ref := range t.Refs {
			a(ref)
		}
	case *OpUnary:
		a(t.To)
	case *OpBinary:
		a(t.Left)
		a(t.Right)
	case *OpAssign:
		a(t.To)
		a(t.What)
	case *Conditional:
		a(t.Cond)
		a(t.True)
		a(t.False)
	case *Call:
		a(t.Fn)
		for _, arg := range t.Args {
			a(arg)
		}
	case *Member:
		a(t.X)
	case *Index:
		a(t.X)
		a(t.Index)
	default:
	}
	for _, n := range sub {
		walk(n, cb, depth+1)
	}
}

// Walk performs a pre-order traversal of a syntax tree defined by node.
func Walk(node Node, cb NodeCallback) {
	walk(node, cb, 0)
}

func (l *While) Loop() {}
func (l *For) Loop()   {}
