// Package page implements the NVM3 page codec: decoding and encoding a
// page's fixed 20-byte header and the object stream in its body.
//
// Header layout (20 bytes, little-endian), grounded directly on
// apfs/pkg/container/nxsuperblock.go's ReadNXSuperblock/WriteNXSuperblock
// pair — the clearest example in the teacher corpus of "slice fixed
// little-endian offsets, verify an integrity code, validate, then mirror
// the same offsets on write":
//
//	bytes 0-1   version (u16), must equal SupportedPageVersion
//	bytes 2-3   magic (u16), must equal PageMagic
//	bytes 4-7   erase-count word: low 27 bits value, high 5 bits Berger code
//	bytes 8-11  erase-count-inverse word: same encoding of ^eraseCount
//	bytes 12-15 status (u32)
//	bytes 16-17 device-info (u16): bits 0-10 device family, bit 11 write
//	            size class, bit 12 memory-mapped, bits 13-15 page-size class
//	bytes 18-19 format-info (u16): bit 0 clear means encrypted
package page

import (
	"github.com/deploymenttheory/go-nvm3/integrity"
	"github.com/deploymenttheory/go-nvm3/object"
	"github.com/deploymenttheory/go-nvm3/types"
)

const bergerCodeWidth = 5 // ceil(log2(27+1))

// ReadPage validates and decodes the page header at offset in buffer, then
// decodes its object body, returning the page and the number of bytes this
// page physically occupies (its actual, clamped size).
func ReadPage(buffer []byte, offset int) (types.Page, int, error) {
	if offset+types.PageHeaderSize > len(buffer) {
		return types.Page{}, 0, types.NewCodecError(types.ErrShortBuffer, offset)
	}
	raw := buffer[offset : offset+types.PageHeaderSize]

	header, err := decodeHeader(raw, offset)
	if err != nil {
		return types.Page{}, 0, err
	}

	bodyStart := offset + types.PageHeaderSize
	bodyEnd := offset + header.ActualSize
	if bodyEnd > len(buffer) {
		return types.Page{}, 0, types.NewCodecError(types.ErrShortBuffer, offset)
	}

	objs, err := object.ReadObjects(buffer[bodyStart:bodyEnd])
	if err != nil {
		if ce, ok := err.(*types.CodecError); ok {
			ce.Offset += bodyStart
		}
		return types.Page{Header: header}, header.ActualSize, err
	}

	return types.Page{Header: header, Objects: objs}, header.ActualSize, nil
}

func decodeHeader(raw []byte, offset int) (types.PageHeader, error) {
	version := le16(raw, 0)
	magic := le16(raw, 2)
	if magic != types.PageMagic {
		return types.PageHeader{}, types.NewCodecError(types.ErrBadMagic, offset)
	}
	if version != types.SupportedPageVersion {
		return types.PageHeader{}, types.NewCodecError(types.ErrUnsupportedVersion, offset)
	}

	eraseWord := le32(raw, 4)
	eraseInvWord := le32(raw, 8)

	eraseCount := types.Bits(eraseWord, 0, types.EraseCountWidth)
	eraseCode := types.Bits(eraseWord, types.EraseCountWidth, bergerCodeWidth)
	if !integrity.Validate(eraseCount, eraseCode, types.EraseCountWidth) {
		return types.PageHeader{}, types.NewCodecError(types.ErrBergerMismatch, offset)
	}

	eraseInv := types.Bits(eraseInvWord, 0, types.EraseCountWidth)
	eraseInvCode := types.Bits(eraseInvWord, types.EraseCountWidth, bergerCodeWidth)
	if !integrity.Validate(eraseInv, eraseInvCode, types.EraseCountWidth) {
		return types.PageHeader{}, types.NewCodecError(types.ErrBergerMismatch, offset)
	}

	mask27 := uint32(1)<<types.EraseCountWidth - 1
	if eraseCount != (^eraseInv)&mask27 {
		return types.PageHeader{}, types.NewCodecError(types.ErrEraseCountComplementMismatch, offset)
	}

	status := le32(raw, 12)
	deviceInfo := le16(raw, 16)
	formatInfo := le16(raw, 18)

	sizeClass := types.Bits(uint32(deviceInfo), 13, 3)
	declaredSize := types.MinPageSize << sizeClass
	actualSize := declaredSize
	if actualSize > types.DefaultPageSize {
		actualSize = types.DefaultPageSize
	}

	writeSize := types.WriteSingle
	if types.Bits(uint32(deviceInfo), 11, 1) == 1 {
		writeSize = types.WriteDual
	}

	return types.PageHeader{
		Offset:        offset,
		Version:       version,
		EraseCount:    eraseCount,
		EraseCountInv: eraseInv,
		Status:        status,
		DeviceFamily:  uint16(types.Bits(uint32(deviceInfo), 0, 11)),
		WriteSize:     writeSize,
		MemoryMapped:  types.Bits(uint32(deviceInfo), 12, 1) == 1,
		DeclaredSize:  declaredSize,
		ActualSize:    actualSize,
		Encrypted:     types.Bits(uint32(formatInfo), 0, 1) == 0,
	}, nil
}

// WritePageHeader emits header as 20 bytes with freshly computed Berger
// codes for the erase count and its complement.
func WritePageHeader(header types.PageHeader) []byte {
	out := make([]byte, types.PageHeaderSize)
	types.PutUint16(out, 0, header.Version)
	types.PutUint16(out, 2, types.PageMagic)

	mask27 := uint32(1)<<types.EraseCountWidth - 1
	eraseCount := header.EraseCount & mask27
	eraseInv := (^eraseCount) & mask27

	eraseCode := integrity.BergerCode(eraseCount, types.EraseCountWidth)
	eraseInvCode := integrity.BergerCode(eraseInv, types.EraseCountWidth)

	var eraseWord, eraseInvWord uint32
	eraseWord = types.SetBits(eraseWord, 0, types.EraseCountWidth, eraseCount)
	eraseWord = types.SetBits(eraseWord, types.EraseCountWidth, bergerCodeWidth, eraseCode)
	eraseInvWord = types.SetBits(eraseInvWord, 0, types.EraseCountWidth, eraseInv)
	eraseInvWord = types.SetBits(eraseInvWord, types.EraseCountWidth, bergerCodeWidth, eraseInvCode)

	types.PutUint32(out, 4, eraseWord)
	types.PutUint32(out, 8, eraseInvWord)
	types.PutUint32(out, 12, header.Status)

	sizeClass := pageSizeClass(header.DeclaredSize)
	var deviceInfo uint32
	deviceInfo = types.SetBits(deviceInfo, 0, 11, uint32(header.DeviceFamily))
	if header.WriteSize == types.WriteDual {
		deviceInfo = types.SetBits(deviceInfo, 11, 1, 1)
	}
	if header.MemoryMapped {
		deviceInfo = types.SetBits(deviceInfo, 12, 1, 1)
	}
	deviceInfo = types.SetBits(deviceInfo, 13, 3, sizeClass)
	types.PutUint16(out, 16, uint16(deviceInfo))

	var formatInfo uint32
	if !header.Encrypted {
		formatInfo = types.SetBits(formatInfo, 0, 1, 1)
	}
	types.PutUint16(out, 18, uint16(formatInfo))

	return out
}

// pageSizeClass returns ceil(log2(size/MinPageSize)), the 3-bit encoding
// WritePageHeader stores in the device-info field.
func pageSizeClass(size int) uint32 {
	class := uint32(0)
	for types.MinPageSize<<class < size {
		class++
	}
	return class
}

func le16(buf []byte, offset int) uint16 {
	return uint16(buf[offset]) | uint16(buf[offset+1])<<8
}

func le32(buf []byte, offset int) uint32 {
	return uint32(buf[offset]) | uint32(buf[offset+1])<<8 | uint32(buf[offset+2])<<16 | uint32(buf[offset+3])<<24
}
