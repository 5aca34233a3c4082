package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susji/sol0/node"
	"github.com/susji/sol0/types"
)

func TestElementary(t *testing.T) {
	type entry struct {
		name string
		ok   bool
		want string
	}
	table := []entry{
		{"uint", true, "uint"},
		{"uint8", true, "uint8"},
		{"int256", true, "int"},
		{"uint7", false, ""},
		{"uint264", false, ""},
		{"bool", true, "bool"},
		{"address", true, "address"},
		{"bytes", true, "bytes"},
		{"S", false, ""},
	}
	for _, e := range table {
		got, ok := types.Elementary(e.name)
		require.Equal(t, e.ok, ok, e.name)
		if ok {
			assert.Equal(t, e.want, got.String(), e.name)
		}
	}
}

func TestStoragePointerAssignability(t *testing.T) {
	st := &types.Struct{Name: "S"}
	ptr := types.NewTypeExtra(types.TYPE_STRUCT, 0, st)
	ptr.Location = node.LOC_STORAGE
	ptr.Pointer = true

	state := types.NewTypeExtra(types.TYPE_STRUCT, 0, st)
	state.Location = node.LOC_STORAGE

	mem := types.NewTypeExtra(types.TYPE_STRUCT, 0, st)
	mem.Location = node.LOC_MEMORY

	assert.True(t, state.AssignableTo(ptr))
	assert.True(t, ptr.AssignableTo(ptr))
	assert.False(t, mem.AssignableTo(ptr))
	assert.True(t, state.AssignableTo(mem))
	assert.True(t, ptr.DataStoredIn(node.LOC_STORAGE))
	assert.Equal(t, "S storage pointer", ptr.String())

	other := types.NewTypeExtra(types.TYPE_STRUCT, 0, &types.Struct{Name: "T"})
	other.Location = node.LOC_STORAGE
	assert.False(t, other.AssignableTo(ptr))
}

func TestMemberInheritsLocation(t *testing.T) {
	xs := types.NewType(types.TYPE_UINT, 1)
	xs.Location = node.LOC_MEMORY
	xs.Pointer = true
	fields := types.StructFields{
		{Name: "a", Type: *types.NewType(types.TYPE_UINT, 0)},
		{Name: "xs", Type: *xs},
	}
	require.Nil(t, fields.Find("b"))
	m := fields.Find("xs").Member(node.LOC_STORAGE)
	assert.Equal(t, node.DataLocation(node.LOC_STORAGE), m.Location)
	assert.False(t, m.Pointer)
	assert.True(t, m.IsReference())
	assert.True(t, fields.Find("a").Member(node.LOC_STORAGE).IsInteger())
}

func TestIntegersMatch(t *testing.T) {
	u8, _ := types.Elementary("uint8")
	i, _ := types.Elementary("int")
	b, _ := types.Elementary("bool")
	assert.True(t, u8.Matches(i))
	assert.False(t, u8.Matches(b))
	assert.Equal(t, types.BuiltinEnum(types.BUILTIN_REVERT), types.LookupBuiltin("revert"))
	assert.Equal(t, types.BuiltinEnum(types.BUILTIN_NONE), types.LookupBuiltin("f"))
}
