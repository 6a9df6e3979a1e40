package image

import (
	"github.com/deploymenttheory/go-nvm3/object"
	"github.com/deploymenttheory/go-nvm3/page"
	"github.com/deploymenttheory/go-nvm3/types"
)

// EncodeImage lays appObjects and protoObjects out as a fresh image: the
// application region first, then the protocol region, each filled with
// freshly headed pages at erase count 0 (spec §9: this tool produces fresh
// images, never patches an existing one).
//
// Grounded on apfs/pkg/container/container.go's WriteNXSuperblock
// field-by-field emission style, extended into a placement loop because
// NVM3 packs a variable object stream across many pages rather than
// emitting one fixed superblock.
func EncodeImage(appObjects, protoObjects *types.OrderedObjectMap, opts types.EncodeOptions) ([]byte, error) {
	if opts.PageSize <= 0 {
		opts = types.DefaultEncodeOptions()
	}

	appRegion, err := encodeRegion(appObjects.Objects(), types.ApplicationRegionSize, opts)
	if err != nil {
		return nil, err
	}
	protoRegion, err := encodeRegion(protoObjects.Objects(), types.ProtocolRegionSize, opts)
	if err != nil {
		return nil, err
	}

	return append(appRegion, protoRegion...), nil
}

// encodeRegion allocates regionSize bytes of freshly headed, erased pages
// and places objects into them in order, per spec §4.5. Pages are laid out
// at opts.PageSize clamped to DefaultPageSize; each header still declares
// opts.PageSize.
//
//   - Deleted entries are skipped: a live map from compaction never holds
//     them, and one set by a caller writes nothing.
//   - DataSmall/CounterSmall records that don't fit in the remaining space
//     of the current page advance to the next page rather than splitting;
//     so does a CounterLarge, whose fixed 4-byte payload is never
//     fragmented.
//   - DataLarge records that don't fit whole are fragmented; when
//     fragmentation produces more than one record, each fragment after the
//     first starts a fresh page.
func encodeRegion(objects []types.NVMObject, regionSize int, opts types.EncodeOptions) ([]byte, error) {
	pageSize := opts.PageSize
	if pageSize > types.DefaultPageSize {
		pageSize = types.DefaultPageSize
	}
	if regionSize%pageSize != 0 {
		return nil, types.NewCodecError(types.ErrInvalidOption, 0)
	}
	bodySize := pageSize - types.PageHeaderSize
	numPages := regionSize / pageSize

	out := make([]byte, regionSize)
	for i := range out {
		out[i] = types.ErasedByte
	}
	for i := 0; i < numPages; i++ {
		h := types.PageHeader{
			Version:      types.SupportedPageVersion,
			EraseCount:   0,
			Status:       types.PageStatusOK,
			DeviceFamily: opts.DeviceFamily,
			WriteSize:    opts.WriteSize,
			MemoryMapped: opts.MemoryMapped,
			DeclaredSize: opts.PageSize,
		}
		copy(out[i*pageSize:], page.WritePageHeader(h))
	}

	pageIndex := 0
	cursor := 0

	writeBytes := func(b []byte) {
		start := pageIndex*pageSize + types.PageHeaderSize + cursor
		copy(out[start:], b)
		cursor += len(b)
	}

	advancePage := func() error {
		pageIndex++
		cursor = 0
		if pageIndex >= numPages {
			return types.NewCodecError(types.ErrInsufficientSpace, pageIndex*pageSize)
		}
		return nil
	}

	for _, obj := range objects {
		if obj.Type == types.Deleted {
			continue
		}
		wireObj := types.Object{Key: obj.Key, Type: obj.Type, Payload: obj.Payload}

		if !obj.Type.IsLarge() {
			wire, err := object.WriteObject(wireObj)
			if err != nil {
				return nil, err
			}
			if cursor+len(wire) > bodySize {
				if err := advancePage(); err != nil {
					return nil, err
				}
			}
			if cursor+len(wire) > bodySize {
				return nil, types.NewCodecError(types.ErrInsufficientSpace, pageIndex*pageSize).WithKey(obj.Key)
			}
			writeBytes(wire)
			continue
		}

		firstFit := bodySize - cursor
		frags, err := object.FragmentLargeObject(wireObj, firstFit, bodySize)
		if err != nil {
			if advErr := advancePage(); advErr != nil {
				return nil, advErr
			}
			frags, err = object.FragmentLargeObject(wireObj, bodySize, bodySize)
			if err != nil {
				return nil, err
			}
		}

		for i, frag := range frags {
			wire, werr := object.WriteObject(frag)
			if werr != nil {
				return nil, werr
			}
			if i > 0 {
				if err := advancePage(); err != nil {
					return nil, err
				}
			}
			writeBytes(wire)
		}
	}

	return out, nil
}
