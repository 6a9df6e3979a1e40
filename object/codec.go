// Package object implements the NVM3 object codec: decoding and encoding
// one self-describing record from a page's byte stream, and splitting an
// oversized payload into the fragment chain a page-by-page placement pass
// can write out one fragment per page.
//
// Wire layout (little-endian throughout):
//
//	bytes 0-3   control word, bit-packed:
//	              bits 0-2   object type (3 bits)
//	              bits 3-4   fragment status (2 bits; only meaningful for
//	                         DataLarge/CounterLarge/Link)
//	              bits 5-24  key (20 bits)
//	              bits 25-31 length (7 bits; payload length for DataSmall,
//	                         unused (0) for everything else)
//	bytes 4-5   header CRC-16/CCITT (over the control word, plus the
//	            extended length word when present)
//	bytes 6-9   extended length (uint32), present only for DataLarge/Link:
//	            this fragment's payload length (CounterLarge, like
//	            CounterSmall, carries no extended length)
//	bytes ...   payload (absent for Deleted, CounterPayloadSize for
//	            counters, declared length otherwise)
//	padding     to the next 4-byte boundary, not part of the object
//
// Grounded on apfs/pkg_old/container/object.go's ExtractObjectHeader
// (offset-by-offset decode with a bounds check before each slice),
// generalized from APFS's fixed 32-byte object header to NVM3's bit-packed
// 4-byte control word. The CRC itself is checked the way
// internal/parsers/objects/object_checksum_verifier.go checks Fletcher64:
// zero the checksum field, recompute, compare — here there is no field to
// zero since the CRC sits in its own 2-byte slot rather than being folded
// into the word it protects.
package object

import (
	"github.com/deploymenttheory/go-nvm3/integrity"
	"github.com/deploymenttheory/go-nvm3/types"
)

// smallHeaderSize is types.ObjectSmallHeaderSize (the bit-packed control
// word) plus the 2-byte CRC trailer every object carries.
const smallHeaderSize = types.ObjectSmallHeaderSize + 2

// largeHeaderSize additionally carries the 4-byte extended length word
// DataLarge/Link records need.
const largeHeaderSize = smallHeaderSize + 4

// minFragmentPayload is the smallest payload slice fragment_large_object
// will ever place in a fragment; below this, splitting wouldn't make
// progress.
const minFragmentPayload = 1

func isLargeShaped(t types.ObjectType) bool {
	return t.IsLarge() || t == types.Link
}

// ReadObject decodes one object starting at offset within window, returning
// the decoded object and the number of bytes consumed (including alignment
// padding).
func ReadObject(window []byte, offset int) (types.Object, int, error) {
	if offset+smallHeaderSize > len(window) {
		return types.Object{}, 0, wrapOffset(types.ErrShortBuffer, offset)
	}

	word, err := le32(window, offset)
	if err != nil {
		return types.Object{}, 0, wrapOffset(types.ErrShortBuffer, offset)
	}

	objType := types.ObjectType(types.Bits(word, 0, 3))
	fragment := types.FragmentStatus(types.Bits(word, 3, 2))
	key := types.Bits(word, 5, 20)
	smallLength := int(types.Bits(word, 25, 7))

	if !validObjectType(objType) {
		return types.Object{}, 0, wrapOffset(types.ErrUnknownObjectType, offset).WithKey(key)
	}

	crcStored, err := le16(window, offset+4)
	if err != nil {
		return types.Object{}, 0, wrapOffset(types.ErrShortBuffer, offset).WithKey(key)
	}

	headerSize := smallHeaderSize
	payloadLen := 0

	switch {
	case objType == types.Deleted:
		payloadLen = 0
	case objType.IsCounter():
		payloadLen = types.CounterPayloadSize
	case objType == types.DataSmall:
		payloadLen = smallLength
	case isLargeShaped(objType):
		headerSize = largeHeaderSize
		if offset+largeHeaderSize > len(window) {
			return types.Object{}, 0, wrapOffset(types.ErrShortBuffer, offset).WithKey(key)
		}
		extLen, err := le32(window, offset+smallHeaderSize)
		if err != nil {
			return types.Object{}, 0, wrapOffset(types.ErrShortBuffer, offset).WithKey(key)
		}
		payloadLen = int(extLen)
	}

	if offset+headerSize+payloadLen > len(window) {
		return types.Object{}, 0, wrapOffset(types.ErrShortBuffer, offset).WithKey(key)
	}

	if integrity.CRC16CCITT(crcInput(window, offset, headerSize)) != crcStored {
		return types.Object{}, 0, wrapOffset(types.ErrObjectCRCMismatch, offset).WithKey(key)
	}

	obj := types.Object{Key: key, Type: objType, Fragment: fragment}
	if payloadLen > 0 {
		obj.Payload = append([]byte(nil), window[offset+headerSize:offset+headerSize+payloadLen]...)
	} else if objType != types.Deleted {
		obj.Payload = []byte{}
	}

	consumed := types.AlignUp4(headerSize + payloadLen)
	if offset+consumed > len(window) {
		consumed = headerSize + payloadLen
	}
	return obj, consumed, nil
}

// crcInput returns the header bytes the CRC covers: the control word, plus
// the extended length word when the header is large-shaped.
func crcInput(window []byte, offset, headerSize int) []byte {
	n := types.ObjectSmallHeaderSize
	if headerSize == largeHeaderSize {
		n += 4
	}
	buf := make([]byte, 0, n)
	buf = append(buf, window[offset:offset+types.ObjectSmallHeaderSize]...)
	if headerSize == largeHeaderSize {
		buf = append(buf, window[offset+smallHeaderSize:offset+smallHeaderSize+4]...)
	}
	return buf
}

// ReadObjects decodes every object in pageBody in order, stopping cleanly
// when the next word is the erased pattern (all 0xFF) or the body is
// exhausted.
func ReadObjects(pageBody []byte) ([]types.Object, error) {
	var objs []types.Object
	offset := 0
	for offset < len(pageBody) {
		if isErasedFrom(pageBody, offset) {
			break
		}
		obj, consumed, err := ReadObject(pageBody, offset)
		if err != nil {
			return objs, err
		}
		if consumed <= 0 {
			return objs, wrapOffset(types.ErrShortBuffer, offset)
		}
		objs = append(objs, obj)
		offset += consumed
	}
	return objs, nil
}

// isErasedFrom reports whether the remaining bytes from offset begin with a
// full erased 4-byte word (or the body has fewer than 4 bytes left, which
// can only be trailing erased padding in a well-formed page).
func isErasedFrom(pageBody []byte, offset int) bool {
	remaining := pageBody[offset:]
	if len(remaining) < 4 {
		for _, b := range remaining {
			if b != types.ErasedByte {
				return false
			}
		}
		return true
	}
	for _, b := range remaining[:4] {
		if b != types.ErasedByte {
			return false
		}
	}
	return true
}

// WriteObject emits obj's header (with freshly computed CRC), any extended
// length word, payload, and 4-byte alignment padding.
func WriteObject(obj types.Object) ([]byte, error) {
	if !validObjectType(obj.Type) {
		return nil, wrapOffset(types.ErrUnknownObjectType, 0).WithKey(obj.Key)
	}
	if obj.Key >= 1<<20 {
		return nil, wrapOffset(types.ErrInvalidOption, 0).WithKey(obj.Key)
	}

	payload := obj.Payload
	smallLength := 0
	headerSize := smallHeaderSize
	var extLen uint32

	switch {
	case obj.Type == types.Deleted:
		payload = nil
	case obj.Type.IsCounter():
		if len(payload) != types.CounterPayloadSize {
			return nil, wrapOffset(types.ErrInvalidOption, 0).WithKey(obj.Key)
		}
	case obj.Type == types.DataSmall:
		if len(payload) > 0x7F {
			return nil, wrapOffset(types.ErrInvalidOption, 0).WithKey(obj.Key)
		}
		smallLength = len(payload)
	case isLargeShaped(obj.Type):
		headerSize = largeHeaderSize
		extLen = uint32(len(payload))
	}

	total := types.AlignUp4(headerSize + len(payload))
	out := make([]byte, total)

	var word uint32
	word = types.SetBits(word, 0, 3, uint32(obj.Type))
	word = types.SetBits(word, 3, 2, uint32(obj.Fragment))
	word = types.SetBits(word, 5, 20, obj.Key)
	word = types.SetBits(word, 25, 7, uint32(smallLength))
	types.PutUint32(out, 0, word)

	if headerSize == largeHeaderSize {
		types.PutUint32(out, smallHeaderSize, extLen)
	}
	types.PutUint16(out, types.ObjectSmallHeaderSize, integrity.CRC16CCITT(crcInput(out, 0, headerSize)))

	copy(out[headerSize:headerSize+len(payload)], payload)
	for i := headerSize + len(payload); i < total; i++ {
		out[i] = 0
	}
	return out, nil
}

// FragmentLargeObject splits obj's payload so that a first fragment fits
// firstFit bytes (header + partial payload) and each subsequent fragment
// fits subsequentFit bytes (a full page body). If the whole object already
// fits in firstFit, it returns a single unfragmented record
// (Fragment == FragmentNone). Small objects must never reach this function;
// the placement algorithm advances to the next page for them instead.
func FragmentLargeObject(obj types.Object, firstFit, subsequentFit int) ([]types.Object, error) {
	if !isLargeShaped(obj.Type) || obj.Type == types.Link {
		return nil, wrapOffset(types.ErrInvalidOption, 0).WithKey(obj.Key)
	}

	wholeHeaderSize := largeHeaderSize
	if obj.Type.IsCounter() {
		wholeHeaderSize = smallHeaderSize
	}
	if wholeHeaderSize+len(obj.Payload) <= firstFit {
		return []types.Object{{Key: obj.Key, Type: obj.Type, Fragment: types.FragmentNone, Payload: obj.Payload}}, nil
	}

	if firstFit < largeHeaderSize+minFragmentPayload {
		return nil, wrapOffset(types.ErrInsufficientSpace, 0).WithKey(obj.Key)
	}

	firstPayloadLen := firstFit - largeHeaderSize
	remaining := obj.Payload[firstPayloadLen:]
	fragments := []types.Object{{
		Key: obj.Key, Type: obj.Type, Fragment: types.FragmentFirst,
		Payload: obj.Payload[:firstPayloadLen],
	}}

	subsequentPayloadCap := subsequentFit - largeHeaderSize
	for len(remaining) > 0 {
		if subsequentPayloadCap < minFragmentPayload {
			return nil, wrapOffset(types.ErrInsufficientSpace, 0).WithKey(obj.Key)
		}
		n := subsequentPayloadCap
		status := types.FragmentNext
		if n >= len(remaining) {
			n = len(remaining)
			status = types.FragmentLast
		}
		fragments = append(fragments, types.Object{
			Key: obj.Key, Type: types.Link, Fragment: status,
			Payload: remaining[:n],
		})
		remaining = remaining[n:]
	}
	return fragments, nil
}

func validObjectType(t types.ObjectType) bool {
	switch t {
	case types.DataSmall, types.DataLarge, types.CounterSmall, types.CounterLarge, types.Deleted, types.Link:
		return true
	default:
		return false
	}
}

func wrapOffset(sentinel error, offset int) *types.CodecError {
	return types.NewCodecError(sentinel, offset)
}

func le16(buf []byte, offset int) (uint16, error) {
	if offset+2 > len(buf) {
		return 0, types.ErrShortBuffer
	}
	return uint16(buf[offset]) | uint16(buf[offset+1])<<8, nil
}

func le32(buf []byte, offset int) (uint32, error) {
	if offset+4 > len(buf) {
		return 0, types.ErrShortBuffer
	}
	return uint32(buf[offset]) | uint32(buf[offset+1])<<8 | uint32(buf[offset+2])<<16 | uint32(buf[offset+3])<<24, nil
}
