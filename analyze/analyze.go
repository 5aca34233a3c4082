// package analyze is responsible for variable scoping, name resolution and
// type checking.
package analyze

import (
	"errors"
	"fmt"

	"github.com/susji/sol0/node"
	"github.com/susji/sol0/report"
	"github.com/susji/sol0/types"
)

var (
	ErrStructAlreadyDefined = errors.New("struct already defined")
	ErrFuncAlreadyDefined   = errors.New("function already defined")
	ErrStateAlreadyDefined  = errors.New("state variable already defined")
	ErrStructRecursive      = errors.New("recursive struct definition")
)

// contract holds the names visible everywhere within one contract.
type contract struct {
	node      *node.Contract
	structs   map[string]*types.Struct
	statevars map[string]*node.VarDecl
	functions map[string]*node.FunDef
}

// Analyzer maintains the state when we check a syntax tree. This state means
// mainly information about user-defined types (structs) and type-checking
// (what is some node's type).
type Analyzer struct {
	fn   string
	errs []error

	// res will contain everything that it's meant to be passed onwards after
	// the analysis stage.
	res *Results

	// The stuff below this comment is used to maintain state while
	// checking.

	// contract is the contract we're currently analyzing
	contract *contract
	// scope is the current, parent-linked & nested variable scope
	scope *scope
	// curfunc stores the function we're currently analyzing
	curfunc *node.FunDef

	// loops is a LIFO of loops used to connect "break" and "continue"
	loops []node.Loop
	// canassign keeps track of valid lvalues
	canassign map[node.NodeId]struct{}
}

func (s *Analyzer) Results() *Results {
	return s.res
}

func (s *Analyzer) reset() {
	s.errs = []error{}
	s.scope = nil
	s.res = &Results{
		NodeTypes: NodeTypes{},
		VarTypes:  VarTypes{},
		Decls:     Decls{},
		StateRefs: Decls{},
		Callees:   map[node.NodeId]*node.FunDef{},
		Builtins:  map[node.NodeId]types.BuiltinEnum{},
		Structs:   Structs{},
		Functions: Functions{},
	}
	s.canassign = map[node.NodeId]struct{}{}
}

func New(fn string) *Analyzer {
	ret := &Analyzer{fn: fn}
	ret.reset()
	return ret
}

func (s *Analyzer) setAssignable(n node.Node) {
	s.canassign[n.Id()] = struct{}{}
}

func (s *Analyzer) isAssignable(n node.Node) bool {
	_, ok := s.canassign[n.Id()]
	return ok
}

func (s *Analyzer) setType(n node.Node, k *types.Type) {
	if _, ok := s.res.NodeTypes[n.Id()]; ok {
		panic(fmt.Sprintf("nodetype defined twice for %s", n))
	}
	s.res.NodeTypes[n.Id()] = k
}

func (s *Analyzer) getType(n node.Node) *types.Type {
	return s.res.NodeTypes[n.Id()]
}

func (s *Analyzer) diag(sev report.Severity, n node.Node, format string, a ...interface{}) error {
	err := report.Errorf(sev, report.Location{File: s.fn, Span: n.Span()}, format, a...)
	s.errs = append(s.errs, err)
	return err
}

// errorf records a type error located at n.
func (s *Analyzer) errorf(n node.Node, format string, a ...interface{}) error {
	return s.diag(report.TypeError, n, format, a...)
}

// declErrorf records a declaration error located at n.
func (s *Analyzer) declErrorf(n node.Node, format string, a ...interface{}) error {
	return s.diag(report.DeclarationError, n, format, a...)
}

func (s *Analyzer) warnf(n node.Node, format string, a ...interface{}) {
	s.diag(report.Warning, n, format, a...)
}

// Analyze finds declaration and type errors. It uses depth-first traversal
// of the syntax tree defined by the given root node. Warnings are returned
// along with errors.
func (s *Analyzer) Analyze(unit *node.SourceUnit) (errs []error) {
	for _, c := range unit.Contracts {
		s.checkContract(c)
	}
	return s.errs
}

func (s *Analyzer) withScope(n node.Node, what func()) {
	s.scope = newScope(s.scope, n)
	what()
	s.scope = s.scope.parent
}

func (s *Analyzer) withFunction(f *node.FunDef, what func()) {
	// Since we do not support closures or nested functions of any kind, we can
	// keep a track of the current function through one pointer.
	s.curfunc = f
	what()
	s.curfunc = nil
}

func (s *Analyzer) curFunction() *node.FunDef {
	return s.curfunc
}

func (s *Analyzer) withLoop(l node.Loop, what func()) {
	s.loops = append(s.loops, l)
	what()
	s.loops = s.loops[:len(s.loops)-1]
}

func (s *Analyzer) currentLoop() node.Loop {
	if len(s.loops) == 0 {
		return nil
	}
	return s.loops[len(s.loops)-1]
}
