package analyze

import (
	"github.com/susji/sol0/node"
	"github.com/susji/sol0/types"
)

type Functions map[*node.FunDef]*types.Function
type Structs map[*node.StructDef]*types.Struct
type NodeTypes map[node.NodeId]*types.Type
type VarTypes map[*node.VarDecl]*types.Type
type Decls map[node.NodeId]*node.VarDecl

// Results should contain everything that should be passed onwards from the
// analysis stage. This means at least the following things:
//
//  1. How the expressions and declarations are typed
//  2. Which declaration each identifier refers to
//  3. Which calls are calls to builtins
type Results struct {
	NodeTypes NodeTypes
	VarTypes  VarTypes
	// Decls maps identifiers to the local variables, parameters and return
	// parameters they refer to.
	Decls Decls
	// StateRefs maps identifiers to the state variables they refer to.
	StateRefs Decls
	// Callees and Builtins are keyed by the NodeId of the call.
	Callees   map[node.NodeId]*node.FunDef
	Builtins  map[node.NodeId]types.BuiltinEnum
	Structs   Structs
	Functions Functions
}

// Declaration returns the local declaration an identifier refers to, or nil.
func (r *Results) Declaration(id node.NodeId) *node.VarDecl {
	return r.Decls[id]
}

// Builtin tells which builtin, if any, the given call node invokes.
func (r *Results) Builtin(id node.NodeId) types.BuiltinEnum {
	return r.Builtins[id]
}

// StorageLocated tells whether the variable declared by decl is a reference
// into storage.
func (r *Results) StorageLocated(decl *node.VarDecl) bool {
	t, ok := r.VarTypes[decl]
	return ok && t.DataStoredIn(node.LOC_STORAGE)
}

// TypeOf returns the type of an expression.
func (r *Results) TypeOf(n node.Node) *types.Type {
	return r.NodeTypes[n.Id()]
}
