package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-nvm3/types"
)

func TestOrderedObjectMapPreservesFirstInsertionOrder(t *testing.T) {
	m := types.NewOrderedObjectMap()
	m.Set(types.NVMObject{Key: 1, Payload: []byte("a")})
	m.Set(types.NVMObject{Key: 2, Payload: []byte("b")})
	m.Set(types.NVMObject{Key: 1, Payload: []byte("a-overwritten")})

	require.Equal(t, []uint32{1, 2}, m.Keys())

	obj, ok := m.Get(1)
	require.True(t, ok)
	require.Equal(t, []byte("a-overwritten"), obj.Payload)
}

func TestOrderedObjectMapDeleteThenReinsertMovesToEnd(t *testing.T) {
	m := types.NewOrderedObjectMap()
	m.Set(types.NVMObject{Key: 1})
	m.Set(types.NVMObject{Key: 2})
	m.Delete(1)
	require.Equal(t, []uint32{2}, m.Keys())

	m.Set(types.NVMObject{Key: 1})
	require.Equal(t, []uint32{2, 1}, m.Keys())
}

func TestOrderedObjectMapDeleteMissingKeyIsNoop(t *testing.T) {
	m := types.NewOrderedObjectMap()
	m.Set(types.NVMObject{Key: 1})
	m.Delete(42)
	require.Equal(t, []uint32{1}, m.Keys())
}
