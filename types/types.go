// Package types captures everything we need to know about a sol0 syntax tree
// node's type.
package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/susji/sol0/node"
)

type TypeEnum int
type Types []Type

const (
	TYPE_UINT = iota
	TYPE_INT
	TYPE_BOOL
	TYPE_ADDRESS
	TYPE_STRING
	TYPE_BYTES
	TYPE_STRUCT
	TYPE_FUNC
	TYPE_VOID
	TYPE_TUPLE
)

var typenames = [...]string{
	"uint",
	"int",
	"bool",
	"address",
	"string",
	"bytes",
	"struct",
	"func",
	"void",
	"tuple",
}

// Type is used to propagate type information from variable declarations to
// expressions. Location is meaningful only for reference types. Pointer marks
// a reference which does not own its data, that is, a local variable or a
// parameter referring to data living elsewhere.
type Type struct {
	Type       TypeEnum
	Bits       int
	ArrayLevel int
	Location   node.DataLocation
	Pointer    bool
	Extra      ExtraType // Used for structs and functions
}

type ExtraType interface {
	IsExtra()
}

type Function struct {
	Name    string
	Params  Types
	Returns Types
}

type StructField struct {
	Name string
	Type Type
}

type StructFields []StructField

type Struct struct {
	Name   string
	Fields StructFields
}

type BuiltinEnum int

const (
	BUILTIN_NONE = iota
	BUILTIN_REQUIRE
	BUILTIN_ASSERT
	BUILTIN_REVERT
)

var builtinnames = [...]string{
	"",
	"require",
	"assert",
	"revert",
}

func (b BuiltinEnum) String() string {
	return builtinnames[b]
}

// LookupBuiltin tells whether name refers to a builtin function.
func LookupBuiltin(name string) BuiltinEnum {
	for i := BUILTIN_REQUIRE; i < len(builtinnames); i++ {
		if builtinnames[i] == name {
			return BuiltinEnum(i)
		}
	}
	return BUILTIN_NONE
}

func NewType(t TypeEnum, arraylevel int) *Type {
	ret := &Type{
		Type:       t,
		ArrayLevel: arraylevel,
	}
	if t == TYPE_UINT || t == TYPE_INT {
		ret.Bits = 256
	}
	return ret
}

func NewTypeExtra(t TypeEnum, arraylevel int, extra ExtraType) *Type {
	ret := NewType(t, arraylevel)
	ret.Extra = extra
	return ret
}

// Elementary returns the type named by an elementary type name such as
// "uint", "int64" or "address".
func Elementary(name string) (*Type, bool) {
	for _, pfx := range []string{"uint", "int"} {
		if !strings.HasPrefix(name, pfx) {
			continue
		}
		t := NewType(TYPE_UINT, 0)
		if pfx == "int" {
			t.Type = TYPE_INT
		}
		rest := name[len(pfx):]
		if rest == "" {
			return t, true
		}
		bits, err := strconv.Atoi(rest)
		if err != nil || bits < 8 || bits > 256 || bits%8 != 0 {
			return nil, false
		}
		t.Bits = bits
		return t, true
	}
	switch name {
	case "bool":
		return NewType(TYPE_BOOL, 0), true
	case "address":
		return NewType(TYPE_ADDRESS, 0), true
	case "string":
		return NewType(TYPE_STRING, 0), true
	case "bytes":
		return NewType(TYPE_BYTES, 0), true
	}
	return nil, false
}

// IsReference tells whether values of the type live in a data location.
func (t *Type) IsReference() bool {
	if t.ArrayLevel > 0 {
		return true
	}
	switch t.Type {
	case TYPE_STRING, TYPE_BYTES, TYPE_STRUCT:
		return true
	}
	return false
}

// DataStoredIn tells whether t is a reference type located in loc.
func (t *Type) DataStoredIn(loc node.DataLocation) bool {
	return t.IsReference() && t.Location == loc
}

func (t *Type) IsInteger() bool {
	return t.ArrayLevel == 0 && (t.Type == TYPE_UINT || t.Type == TYPE_INT)
}

func (t *Type) IsBool() bool {
	return t.ArrayLevel == 0 && t.Type == TYPE_BOOL
}

// Matches compares the shape of two types. Integer widths, data locations and
// the pointer flag are not considered.
func (k *Type) Matches(k2 *Type) bool {
	if k.IsInteger() && k2.IsInteger() {
		return true
	}
	if k.Type != k2.Type || k.ArrayLevel != k2.ArrayLevel {
		return false
	}
	// If the type assertions fail, then it's correct to panic because it's a
	// bug somewhere, and the result of matching would be nonsensical.
	switch k.Type {
	case TYPE_STRUCT:
		s := k.Extra.(*Struct)
		s2 := k2.Extra.(*Struct)
		return s.Name == s2.Name
	case TYPE_FUNC:
		f := k.Extra.(*Function)
		f2 := k2.Extra.(*Function)
		return f.Matches(f2)
	default:
		return true
	}
}

// AssignableTo tells whether a value of type t may be assigned to a variable
// of type dst. A storage pointer may only be bound to storage.
func (t *Type) AssignableTo(dst *Type) bool {
	if !t.Matches(dst) {
		return false
	}
	if dst.IsReference() && dst.Pointer && dst.Location == node.LOC_STORAGE {
		return t.DataStoredIn(node.LOC_STORAGE)
	}
	return true
}

func (f *Function) Matches(f2 *Function) bool {
	return f.Returns.Matches(f2.Returns) && f.Params.Matches(f2.Params)
}

func (t Types) Matches(t2 Types) bool {
	if len(t) != len(t2) {
		return false
	}
	for i := range t {
		if !t[i].Matches(&t2[i]) {
			return false
		}
	}
	return true
}

func (sm StructFields) Find(name string) *StructField {
	for i := range sm {
		if sm[i].Name == name {
			return &sm[i]
		}
	}
	return nil
}

// Member returns the type of a member access into a struct located in loc.
// Reference-typed members inherit the location of the enclosing struct.
func (sf *StructField) Member(loc node.DataLocation) *Type {
	ret := sf.Type.Copy()
	if ret.IsReference() {
		ret.Location = loc
		ret.Pointer = false
	}
	return ret
}

func (t *Type) string() string {
	pn := typenames[t.Type]
	switch t.Type {
	case TYPE_UINT, TYPE_INT:
		if t.Bits != 256 {
			pn += strconv.Itoa(t.Bits)
		}
	case TYPE_STRUCT:
		if st, ok := t.Extra.(*Struct); ok {
			pn = st.Name
		}
	}
	pn += strings.Repeat("[]", t.ArrayLevel)
	if t.IsReference() && t.Location != node.LOC_DEFAULT {
		pn += " " + t.Location.String()
		if t.Pointer {
			pn += " pointer"
		}
	}
	return pn
}

func (t *Type) String() string {
	return t.string()
}

func (f *Function) String() string {
	if f == nil {
		return "(function nil)"
	}
	return fmt.Sprintf("(def-function %q %s %s)", f.Name, f.Params, f.Returns)
}

func (f *Struct) String() string {
	if f == nil {
		return "(def-struct nil)"
	}
	return fmt.Sprintf("(def-struct %q %s)", f.Name, f.Fields)
}

func (p Types) String() string {
	b := &strings.Builder{}
	b.WriteString("(types")
	for _, cur := range p {
		b.WriteString(fmt.Sprintf(" %q", cur.String()))
	}
	b.WriteString(")")
	return b.String()
}

func (sm StructFields) String() string {
	b := &strings.Builder{}
	b.WriteString("(struct-members")
	for _, cur := range sm {
		b.WriteString(fmt.Sprintf(" %s", cur.String()))
	}
	b.WriteString(")")
	return b.String()
}

func (sm *StructField) String() string {
	return fmt.Sprintf("(struct-member %q %q)", sm.Name, &sm.Type)
}

func (t *Type) Copy() *Type {
	ret := *t
	return &ret
}

func (t TypeEnum) String() string {
	return typenames[t]
}

func (t *Type) IncArray() {
	t.ArrayLevel++
}

func (t *Type) DecArray() {
	t.ArrayLevel--
	if t.ArrayLevel < 0 {
		panic("ArrayLevel < 0")
	}
}

func (ie *Function) IsExtra() {}
func (ie *Struct) IsExtra()   {}
