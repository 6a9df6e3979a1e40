package types

// PageHeader is the decoded form of a page's fixed 20-byte header.
type PageHeader struct {
	// Offset is this page's byte offset within the image. Parse-time only;
	// meaningless (and unused) when building a page for encoding.
	Offset int

	// Version is the page format version. Only SupportedPageVersion is
	// understood by this codec.
	Version uint16

	// EraseCount is the 27-bit monotonic erase counter used to order pages
	// within a region's ring.
	EraseCount uint32
	// EraseCountInv is the stored bitwise complement of EraseCount, used
	// only to cross-validate EraseCount on read.
	EraseCountInv uint32

	// Status is the page's raw 32-bit status word (see PageStatus).
	Status uint32

	// DeviceFamily is the 11-bit device family field.
	DeviceFamily uint16
	// WriteSize is the page's write-granularity class.
	WriteSize WriteSizeClass
	// MemoryMapped reports whether the page is memory-mapped.
	MemoryMapped bool

	// DeclaredSize is the page size as encoded in the header's 3-bit size
	// field (512..65536), before clamping.
	DeclaredSize int
	// ActualSize is DeclaredSize clamped to DefaultPageSize: the value all
	// layout math in this codec uses.
	ActualSize int

	// Encrypted reports whether the page's contents are encrypted.
	Encrypted bool
}

// Page is a fully decoded page: its header plus the ordered objects found
// in its body.
type Page struct {
	Header  PageHeader
	Objects []Object
}
