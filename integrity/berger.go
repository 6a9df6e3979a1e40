// Package integrity implements the two leaf integrity primitives the NVM3
// codec layers on top of: Berger coding for the page erase counter and
// CRC-16/CCITT for object headers. Both are pure functions with no
// dependency on the rest of the codec, grounded on the explicit
// word-at-a-time integer math style of
// internal/parsers/objects/object_checksum_verifier.go's fletcher64 in the
// teacher repo, generalized from Fletcher64 to Berger coding and CRC-16.
package integrity

import "math/bits"

// BergerCode returns the Berger code of value's low widthBits bits: the
// count of zero bits, truncated to the code's own width
// (ceil(log2(widthBits+1)) bits, per spec §4.1).
func BergerCode(value uint32, widthBits uint) uint32 {
	v := value & lowMask(widthBits)
	zeroBits := widthBits - uint(bits.OnesCount32(v))
	return uint32(zeroBits) & lowMask(codeWidth(widthBits))
}

// Validate reports whether code is the correct Berger code of value's low
// widthBits bits.
func Validate(value uint32, code uint32, widthBits uint) bool {
	return BergerCode(value, widthBits) == code&lowMask(codeWidth(widthBits))
}

// codeWidth returns ceil(log2(widthBits+1)), the number of bits needed to
// represent every possible zero-bit count from 0 to widthBits inclusive.
func codeWidth(widthBits uint) uint {
	n := uint64(widthBits) + 1
	w := uint(0)
	for uint64(1)<<w < n {
		w++
	}
	return w
}

func lowMask(width uint) uint32 {
	if width >= 32 {
		return 0xFFFFFFFF
	}
	return (uint32(1) << width) - 1
}
