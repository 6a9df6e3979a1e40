// Package types holds the wire-level constants, enums and structs shared
// by every layer of the NVM3 codec (integrity, object, page, image,
// compaction) so none of them need to import one another for plumbing.
package types

// Region sizes. Fixed by construction, never stored in the media.
const (
	// ApplicationRegionSize is the size in bytes of the application region,
	// starting at offset 0 of the image.
	ApplicationRegionSize = 0x3000
	// ProtocolRegionSize is the size in bytes of the protocol region,
	// immediately following the application region.
	ProtocolRegionSize = 0xC000
	// DefaultImageSize is ApplicationRegionSize + ProtocolRegionSize.
	DefaultImageSize = ApplicationRegionSize + ProtocolRegionSize
)

// Page geometry.
const (
	// DefaultPageSize is also the maximum page size participating in layout
	// math; a larger declared page size is clamped to this value.
	DefaultPageSize = 2048
	// MinPageSize is the smallest legal page size.
	MinPageSize = 512
	// MaxDeclaredPageSize is the largest page size the device-info field can
	// represent (bits 13-15 encode log2(size/512), 0..7).
	MaxDeclaredPageSize = 65536
	// PageHeaderSize is the size in bytes of the fixed page header.
	PageHeaderSize = 20
	// PageMagic is the constant value identifying a valid page header.
	PageMagic = 0xB29A
	// SupportedPageVersion is the only page format version this codec reads
	// or writes.
	SupportedPageVersion = 1
	// EraseCountWidth is the width in bits of the erase-count field.
	EraseCountWidth = 27
)

// Object geometry.
const (
	// ObjectSmallHeaderSize is the size in bytes of the bit-packed object
	// control word (type + fragment-status + key + length). The 2-byte
	// header CRC follows it and is not counted here.
	ObjectSmallHeaderSize = 4
	// WordAlignment is the byte alignment objects (including their padding)
	// are rounded up to within a page.
	WordAlignment = 4
	// CounterPayloadSize is the fixed payload size of counter objects.
	CounterPayloadSize = 4
	// ErasedByte is the value flash reads back as before anything is
	// written; a run of this byte marks the unused tail of a page.
	ErasedByte = 0xFF
)

// Page status values (spec §6), stored in the 32-bit status field.
const (
	PageStatusOK              uint32 = 0xFFFFFFFF
	PageStatusOKErasePending  uint32 = 0xFFFFA5A5
	PageStatusBad             uint32 = 0x0000FFFF
	PageStatusBadErasePending uint32 = 0x0000A5A5
)

// DefaultDeviceFamily is the 11-bit device-family value EncodeOptions uses
// when the caller does not override it.
const DefaultDeviceFamily uint16 = 2047
