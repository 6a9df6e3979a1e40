// Package image implements the top-level NVM3 image codec: walking a flat
// buffer page by page, partitioning pages into the application and protocol
// regions, ordering each region's pages into ring order, and handing the
// resulting object log to the compaction package.
//
// Grounded on internal/services/checkpoint_discovery_service.go's
// FindLatestValidSuperblock: scan a fixed area for candidate headers,
// validate each, order by a monotonic counter. NVM3 generalizes this from
// "keep only the single largest-counter candidate" to "keep every page,
// sorted ascending by counter" — the ring, not just its head, is what
// compaction needs.
package image

import (
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-nvm3/compaction"
	"github.com/deploymenttheory/go-nvm3/page"
	"github.com/deploymenttheory/go-nvm3/types"
)

// ParseConfig carries the parser's caller-selectable behavior: a verbose
// logger (nil disables logging) and an error-recovery policy.
type ParseConfig struct {
	Logger logrus.FieldLogger
	Policy types.ErrorPolicy
}

// ParseImage decodes buffer into a fully compacted Image: both regions'
// pages in ring order, and both regions' live key->object maps.
func ParseImage(buffer []byte, cfg ParseConfig) (*types.Image, error) {
	log := cfg.Logger
	if log == nil {
		silent := logrus.New()
		silent.SetLevel(logrus.PanicLevel)
		log = silent
	}

	var appPages, protoPages []types.Page
	offset := 0
	for offset < len(buffer) {
		p, n, err := page.ReadPage(buffer, offset)
		if err != nil {
			log.WithError(err).WithField("offset", offset).Debug("nvm3: page decode failed")
			if cfg.Policy == types.PolicySkipPage {
				n = nextPageSizeGuess(appPages, protoPages)
				if n <= 0 {
					return nil, err
				}
				offset += n
				continue
			}
			return nil, err
		}

		region := Application
		if offset >= types.ApplicationRegionSize {
			region = Protocol
		}
		log.WithField("offset", offset).
			WithField("region", region.String()).
			WithField("erase_count", p.Header.EraseCount).
			WithField("objects", len(p.Objects)).
			Debug("nvm3: decoded page")

		if region == Application {
			appPages = append(appPages, p)
		} else {
			protoPages = append(protoPages, p)
		}
		offset += n
	}

	appPages = ringOrder(appPages)
	protoPages = ringOrder(protoPages)

	appLive := compaction.Compact(flattenObjects(appPages), orphanLogger(log, "application"))
	protoLive := compaction.Compact(flattenObjects(protoPages), orphanLogger(log, "protocol"))

	return &types.Image{
		ApplicationPages:   appPages,
		ProtocolPages:      protoPages,
		ApplicationObjects: appLive,
		ProtocolObjects:    protoLive,
	}, nil
}

// Application and Protocol alias types.RegionKind's values for readability
// at the call sites in this file.
const (
	Application = types.Application
	Protocol    = types.Protocol
)

// ringOrder sorts pages by erase count ascending, tie-breaking by physical
// offset ascending, per spec §4.4: the oldest surviving erase marks the
// start of the ring, since NVM3 stores no separate head pointer.
func ringOrder(pages []types.Page) []types.Page {
	sorted := append([]types.Page(nil), pages...)
	for i := 1; i < len(sorted); i++ {
		j := i
		for j > 0 && less(sorted[j], sorted[j-1]) {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
			j--
		}
	}
	return sorted
}

func less(a, b types.Page) bool {
	if a.Header.EraseCount != b.Header.EraseCount {
		return a.Header.EraseCount < b.Header.EraseCount
	}
	return a.Header.Offset < b.Header.Offset
}

func flattenObjects(pages []types.Page) []types.Object {
	var out []types.Object
	for _, p := range pages {
		out = append(out, p.Objects...)
	}
	return out
}

func orphanLogger(log logrus.FieldLogger, region string) func(uint32) {
	return func(key uint32) {
		log.WithField("region", region).WithField("key", key).
			Debug("nvm3: orphaned fragment ignored")
	}
}

// nextPageSizeGuess is used only under PolicySkipPage when a header fails
// to decode: it falls back to the size of the last successfully decoded
// page in either region, since the corrupt page's own declared size can't
// be trusted.
func nextPageSizeGuess(appPages, protoPages []types.Page) int {
	if n := len(protoPages); n > 0 {
		return protoPages[n-1].Header.ActualSize
	}
	if n := len(appPages); n > 0 {
		return appPages[n-1].Header.ActualSize
	}
	return types.DefaultPageSize
}
