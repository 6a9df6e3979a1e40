package compaction_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-nvm3/compaction"
	"github.com/deploymenttheory/go-nvm3/types"
)

func TestCompactLastWriteWins(t *testing.T) {
	log := []types.Object{
		{Key: 1, Type: types.DataSmall, Payload: []byte{0x01}},
		{Key: 1, Type: types.DataSmall, Payload: []byte{0x02}},
	}
	live := compaction.Compact(log, nil)
	require.Equal(t, 1, live.Len())
	got, ok := live.Get(1)
	require.True(t, ok)
	require.Equal(t, []byte{0x02}, got.Payload)
}

func TestCompactDeleteSupersedes(t *testing.T) {
	log := []types.Object{
		{Key: 1, Type: types.DataSmall, Payload: []byte{0x01}},
		{Key: 1, Type: types.Deleted},
	}
	live := compaction.Compact(log, nil)
	require.Equal(t, 0, live.Len())
	_, ok := live.Get(1)
	require.False(t, ok)
}

func TestCompactPreservesInsertionOrder(t *testing.T) {
	log := []types.Object{
		{Key: 2, Type: types.DataSmall, Payload: []byte{0x02}},
		{Key: 1, Type: types.DataSmall, Payload: []byte{0x01}},
		{Key: 2, Type: types.DataSmall, Payload: []byte{0x22}},
	}
	live := compaction.Compact(log, nil)
	require.Equal(t, []uint32{2, 1}, live.Keys())
}

func TestCompactReassemblesFragmentChain(t *testing.T) {
	log := []types.Object{
		{Key: 9, Type: types.DataLarge, Fragment: types.FragmentFirst, Payload: []byte{0xAA, 0xBB}},
		{Key: 9, Type: types.Link, Fragment: types.FragmentNext, Payload: []byte{0xCC, 0xDD}},
		{Key: 9, Type: types.Link, Fragment: types.FragmentLast, Payload: []byte{0xEE}},
	}
	live := compaction.Compact(log, nil)
	got, ok := live.Get(9)
	require.True(t, ok)
	require.Equal(t, types.DataLarge, got.Type)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}, got.Payload)
}

func TestCompactNewFirstFragmentDiscardsPreviousPartial(t *testing.T) {
	log := []types.Object{
		{Key: 9, Type: types.DataLarge, Fragment: types.FragmentFirst, Payload: []byte{0xAA}},
		{Key: 9, Type: types.Link, Fragment: types.FragmentNext, Payload: []byte{0xBB}},
		{Key: 9, Type: types.DataLarge, Fragment: types.FragmentFirst, Payload: []byte{0x01}},
		{Key: 9, Type: types.Link, Fragment: types.FragmentLast, Payload: []byte{0x02}},
	}
	live := compaction.Compact(log, nil)
	got, ok := live.Get(9)
	require.True(t, ok)
	require.Equal(t, []byte{0x01, 0x02}, got.Payload)
}

func TestCompactReportsOrphanedFragment(t *testing.T) {
	log := []types.Object{
		{Key: 3, Type: types.Link, Fragment: types.FragmentNext, Payload: []byte{0x01}},
	}
	var orphaned []uint32
	live := compaction.Compact(log, func(key uint32) { orphaned = append(orphaned, key) })
	require.Equal(t, []uint32{3}, orphaned)
	require.Equal(t, 0, live.Len())
}

func TestCompactDetectsTruncatedChain(t *testing.T) {
	log := []types.Object{
		{Key: 4, Type: types.DataLarge, Fragment: types.FragmentFirst, Payload: []byte{0x01}},
		{Key: 4, Type: types.Link, Fragment: types.FragmentNext, Payload: []byte{0x02}},
	}
	live := compaction.Compact(log, nil)
	require.Equal(t, 0, live.Len())
	truncated := compaction.TruncatedKeys(log, live)
	require.Equal(t, []uint32{4}, truncated)
}

func TestCompactDeleteClearsOutstandingFragment(t *testing.T) {
	log := []types.Object{
		{Key: 6, Type: types.DataLarge, Fragment: types.FragmentFirst, Payload: []byte{0x01}},
		{Key: 6, Type: types.Deleted},
	}
	live := compaction.Compact(log, nil)
	truncated := compaction.TruncatedKeys(log, live)
	require.Empty(t, truncated)
}
