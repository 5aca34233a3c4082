package analyze

import (
	"errors"

	"github.com/susji/sol0/node"
)

var ErrVarAlreadyDefined = errors.New("identifier already declared")

type scope struct {
	parent *scope
	node   node.Node
	vars   map[string]*node.VarDecl
}

func newScope(parent *scope, from node.Node) *scope {
	return &scope{
		parent: parent,
		vars:   map[string]*node.VarDecl{},
		node:   from,
	}
}

func (s *scope) add(vd *node.VarDecl) error {
	// Local variables may not shadow each other, so we have to do a recursive
	// search before agreeing.
	if s.get(vd.Name) != nil {
		return ErrVarAlreadyDefined
	}
	s.vars[vd.Name] = vd
	return nil
}

func (s *scope) get(name string) *node.VarDecl {
	cur := s
	for cur != nil {
		if vd, ok := cur.vars[name]; ok {
			return vd
		}
		cur = cur.parent
	}
	return nil
}
