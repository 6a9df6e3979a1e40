package types

// EncodeOptions configures EncodeImage. All fields have spec-mandated
// defaults; see DefaultEncodeOptions.
type EncodeOptions struct {
	// PageSize is the page size declared in every page header. Both regions
	// are laid out with it clamped to DefaultPageSize, and that clamped size
	// must divide both ApplicationRegionSize and ProtocolRegionSize.
	PageSize int
	// DeviceFamily is the 11-bit device family value stamped into every
	// page header.
	DeviceFamily uint16
	// WriteSize is the write-granularity class stamped into every page
	// header.
	WriteSize WriteSizeClass
	// MemoryMapped is the memory-mapped flag stamped into every page
	// header.
	MemoryMapped bool
}

// DefaultEncodeOptions returns the spec §6 defaults.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		PageSize:     DefaultPageSize,
		DeviceFamily: DefaultDeviceFamily,
		WriteSize:    WriteDual,
		MemoryMapped: true,
	}
}

// Image is the fully parsed result of ParseImage: both regions' pages in
// ring order, and both regions' compacted live object maps.
type Image struct {
	ApplicationPages []Page
	ProtocolPages    []Page

	ApplicationObjects *OrderedObjectMap
	ProtocolObjects    *OrderedObjectMap
}
