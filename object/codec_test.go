package object_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-nvm3/object"
	"github.com/deploymenttheory/go-nvm3/types"
)

func TestWriteThenReadDataSmallRoundTrips(t *testing.T) {
	obj := types.Object{Key: 0x00123, Type: types.DataSmall, Payload: []byte{0xDE, 0xAD, 0xBE, 0xEF}}

	buf, err := object.WriteObject(obj)
	require.NoError(t, err)

	got, consumed, err := object.ReadObject(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(buf), consumed)
	require.Equal(t, obj.Key, got.Key)
	require.Equal(t, obj.Type, got.Type)
	require.Equal(t, obj.Payload, got.Payload)
}

func TestWriteThenReadEmptyDataSmall(t *testing.T) {
	obj := types.Object{Key: 5, Type: types.DataSmall, Payload: []byte{}}
	buf, err := object.WriteObject(obj)
	require.NoError(t, err)

	got, _, err := object.ReadObject(buf, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{}, got.Payload)
}

func TestWriteThenReadDeletedHasNoPayload(t *testing.T) {
	obj := types.Object{Key: 7, Type: types.Deleted}
	buf, err := object.WriteObject(obj)
	require.NoError(t, err)
	require.Len(t, buf, 8) // 6-byte header aligned up to 8

	got, _, err := object.ReadObject(buf, 0)
	require.NoError(t, err)
	require.Nil(t, got.Payload)
	require.Equal(t, types.Deleted, got.Type)
}

func TestWriteThenReadCounter(t *testing.T) {
	obj := types.Object{Key: 99, Type: types.CounterSmall, Payload: []byte{1, 2, 3, 4}}
	buf, err := object.WriteObject(obj)
	require.NoError(t, err)

	got, _, err := object.ReadObject(buf, 0)
	require.NoError(t, err)
	require.Equal(t, obj.Payload, got.Payload)
}

func TestReadObjectDetectsCRCMismatch(t *testing.T) {
	obj := types.Object{Key: 1, Type: types.DataSmall, Payload: []byte{0x01}}
	buf, err := object.WriteObject(obj)
	require.NoError(t, err)

	buf[4] ^= 0xFF // corrupt CRC byte

	_, _, err = object.ReadObject(buf, 0)
	require.ErrorIs(t, err, types.ErrObjectCRCMismatch)
}

func TestReadObjectUnknownType(t *testing.T) {
	buf := make([]byte, 8)
	var word uint32 = 7 // type bits 0-2 = 7, not a valid ObjectType
	types.PutUint32(buf, 0, word)
	_, _, err := object.ReadObject(buf, 0)
	require.ErrorIs(t, err, types.ErrUnknownObjectType)
}

func TestReadObjectsStopsAtErasedPattern(t *testing.T) {
	obj1, _ := object.WriteObject(types.Object{Key: 1, Type: types.DataSmall, Payload: []byte{0xAA}})
	obj2, _ := object.WriteObject(types.Object{Key: 2, Type: types.DataSmall, Payload: []byte{0xBB, 0xCC}})

	body := append(append([]byte{}, obj1...), obj2...)
	for len(body) < 64 {
		body = append(body, 0xFF)
	}

	objs, err := object.ReadObjects(body)
	require.NoError(t, err)
	require.Len(t, objs, 2)
	require.Equal(t, uint32(1), objs[0].Key)
	require.Equal(t, uint32(2), objs[1].Key)
}

func TestFragmentLargeObjectFitsWhole(t *testing.T) {
	obj := types.Object{Key: 3, Type: types.DataLarge, Payload: make([]byte, 20)}
	frags, err := object.FragmentLargeObject(obj, 2048, 2028)
	require.NoError(t, err)
	require.Len(t, frags, 1)
	require.Equal(t, types.FragmentNone, frags[0].Fragment)
	require.Equal(t, types.DataLarge, frags[0].Type)
}

func TestFragmentLargeObjectSplitsAcrossPages(t *testing.T) {
	pageBody := 2028
	payload := make([]byte, 2*pageBody-8)
	for i := range payload {
		payload[i] = byte(i)
	}
	obj := types.Object{Key: 4, Type: types.DataLarge, Payload: payload}

	frags, err := object.FragmentLargeObject(obj, pageBody, pageBody)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(frags), 2)
	require.Equal(t, types.FragmentFirst, frags[0].Fragment)
	require.Equal(t, types.DataLarge, frags[0].Type)
	for _, f := range frags[1 : len(frags)-1] {
		require.Equal(t, types.FragmentNext, f.Fragment)
		require.Equal(t, types.Link, f.Type)
	}
	last := frags[len(frags)-1]
	require.Equal(t, types.FragmentLast, last.Fragment)
	require.Equal(t, types.Link, last.Type)

	var reassembled []byte
	for _, f := range frags {
		reassembled = append(reassembled, f.Payload...)
	}
	require.Equal(t, payload, reassembled)
}

func TestFragmentLargeObjectInsufficientFirstFit(t *testing.T) {
	obj := types.Object{Key: 5, Type: types.DataLarge, Payload: make([]byte, 100)}
	_, err := object.FragmentLargeObject(obj, 5, 2028)
	require.ErrorIs(t, err, types.ErrInsufficientSpace)
}

func TestWriteObjectRejectsOversizedSmallPayload(t *testing.T) {
	obj := types.Object{Key: 1, Type: types.DataSmall, Payload: make([]byte, 200)}
	_, err := object.WriteObject(obj)
	require.ErrorIs(t, err, types.ErrInvalidOption)
}
