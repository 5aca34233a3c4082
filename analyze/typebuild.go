package analyze

import (
	"errors"
	"fmt"

	"github.com/susji/sol0/node"
	"github.com/susji/sol0/types"
)

var (
	ErrTypeUnrecognized      = errors.New("identifier not found or not unique")
	ErrLocationMissing       = errors.New("data location must be \"storage\", \"memory\" or \"calldata\" for variable, but none was given")
	ErrLocationNotReference  = errors.New("data location can only be specified for array, struct or mapping types")
	ErrLocationStateVariable = errors.New("data location cannot be specified for state variables")
)

type declKind int

const (
	declLocal = iota
	declParam
	declState
	declMember
)

// TypeFromName resolves a type name within the current contract.
func (s *Analyzer) TypeFromName(tn *node.TypeName) (*types.Type, error) {
	if t, ok := types.Elementary(tn.Name); ok {
		t.ArrayLevel = tn.ArrayLevel
		return t, nil
	}
	if s.contract != nil {
		if st, ok := s.contract.structs[tn.Name]; ok {
			return types.NewTypeExtra(types.TYPE_STRUCT, tn.ArrayLevel, st), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrTypeUnrecognized, tn.Name)
}

// declType builds the type of a variable declaration and checks that its data
// location suits the kind of declaration. Local variables and parameters of
// storage reference type become storage pointers.
func (s *Analyzer) declType(vd *node.VarDecl, kind declKind) (*types.Type, error) {
	t, err := s.TypeFromName(vd.Type)
	if err != nil {
		return nil, err
	}
	switch kind {
	case declState:
		if vd.Location != node.LOC_DEFAULT {
			return nil, ErrLocationStateVariable
		}
		if t.IsReference() {
			t.Location = node.LOC_STORAGE
		}
	case declMember:
	case declLocal, declParam:
		switch {
		case t.IsReference() && vd.Location == node.LOC_DEFAULT:
			return nil, ErrLocationMissing
		case !t.IsReference() && vd.Location != node.LOC_DEFAULT:
			return nil, ErrLocationNotReference
		}
		t.Location = vd.Location
		t.Pointer = vd.Location == node.LOC_STORAGE
	}
	return t, nil
}

// buildStructs registers the structs of a contract. All struct names are
// known before any member type is resolved, so members may refer to structs
// defined later on.
func (s *Analyzer) buildStructs(c *node.Contract) {
	for _, sd := range c.Structs {
		if _, ok := s.contract.structs[sd.Name]; ok {
			s.declErrorf(sd, "%w: %q", ErrStructAlreadyDefined, sd.Name)
			continue
		}
		st := &types.Struct{Name: sd.Name}
		s.contract.structs[sd.Name] = st
		s.res.Structs[sd] = st
	}
	for _, sd := range c.Structs {
		st := s.res.Structs[sd]
		if st == nil {
			continue
		}
		for _, m := range sd.Members {
			t, err := s.declType(m, declMember)
			if err != nil {
				s.declErrorf(m, "struct member %q: %w", m.Name, err)
				continue
			}
			if st.Fields.Find(m.Name) != nil {
				s.declErrorf(m, "%w: %q", ErrVarAlreadyDefined, m.Name)
				continue
			}
			st.Fields = append(st.Fields, types.StructField{Name: m.Name, Type: *t})
		}
	}
	for _, sd := range c.Structs {
		if st := s.res.Structs[sd]; st != nil && recursive(st, st, map[*types.Struct]bool{}) {
			s.declErrorf(sd, "%w: %q", ErrStructRecursive, sd.Name)
		}
	}
}

// recursive tells whether cur contains root by value.
func recursive(root, cur *types.Struct, seen map[*types.Struct]bool) bool {
	if seen[cur] {
		return false
	}
	seen[cur] = true
	for _, f := range cur.Fields {
		if f.Type.Type != types.TYPE_STRUCT || f.Type.ArrayLevel > 0 {
			continue
		}
		next := f.Type.Extra.(*types.Struct)
		if next == root || recursive(root, next, seen) {
			return true
		}
	}
	return false
}

// FunctionFromNode builds the type of a function and records the types of
// its parameters.
func (s *Analyzer) FunctionFromNode(fd *node.FunDef) (*types.Function, error) {
	ret := &types.Function{Name: fd.Name}
	var errs []error
	build := func(vds []*node.VarDecl) types.Types {
		ts := types.Types{}
		for _, vd := range vds {
			t, err := s.declType(vd, declParam)
			if err != nil {
				errs = append(errs, s.declErrorf(vd, "%w", err))
				continue
			}
			s.res.VarTypes[vd] = t
			ts = append(ts, *t)
		}
		return ts
	}
	ret.Params = build(fd.Params)
	ret.Returns = build(fd.Returns)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return ret, nil
}
