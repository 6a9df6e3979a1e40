// Package nvm3 reads and writes NVM3-format flash images used by Silicon
// Labs Z-Wave controllers: fixed application and protocol regions, each a
// ring of erase-counted pages holding a self-describing object log that
// compacts down to a live key -> value map.
//
// The package surface is deliberately small: ParseImage decodes a whole
// image buffer into its compacted form, EncodeImage lays a compacted form
// back out as a fresh image. Everything else (page/object layout, the
// integrity codes, compaction) is plumbing callers don't need to see.
package nvm3

import (
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-nvm3/image"
	"github.com/deploymenttheory/go-nvm3/types"
)

// Image is the fully parsed result of ParseImage.
type Image = types.Image

// EncodeOptions configures EncodeImage.
type EncodeOptions = types.EncodeOptions

// DefaultEncodeOptions returns this module's default encoding
// configuration (page size, device family, write size class).
func DefaultEncodeOptions() EncodeOptions {
	return types.DefaultEncodeOptions()
}

// ErrorPolicy controls how ParseImage reacts to a page it cannot decode.
type ErrorPolicy = types.ErrorPolicy

// Error policies, passed to WithErrorPolicy.
const (
	PolicyFailFast = types.PolicyFailFast
	PolicySkipPage = types.PolicySkipPage
)

// Sentinel errors. Use errors.Is against these regardless of how deeply a
// returned error has been wrapped.
var (
	ErrShortBuffer                  = types.ErrShortBuffer
	ErrBadMagic                     = types.ErrBadMagic
	ErrUnsupportedVersion           = types.ErrUnsupportedVersion
	ErrBergerMismatch               = types.ErrBergerMismatch
	ErrEraseCountComplementMismatch = types.ErrEraseCountComplementMismatch
	ErrObjectCRCMismatch            = types.ErrObjectCRCMismatch
	ErrUnknownObjectType            = types.ErrUnknownObjectType
	ErrTruncatedObject              = types.ErrTruncatedObject
	ErrOrphanedFragment             = types.ErrOrphanedFragment
	ErrInsufficientSpace            = types.ErrInsufficientSpace
	ErrInvalidOption                = types.ErrInvalidOption
)

// OrderedObjectMap is the insertion-order-preserving key -> NVMObject map
// ParseImage returns and EncodeImage consumes.
type OrderedObjectMap = types.OrderedObjectMap

// NewOrderedObjectMap returns an empty OrderedObjectMap, ready for Set
// calls before a call to EncodeImage.
func NewOrderedObjectMap() *OrderedObjectMap {
	return types.NewOrderedObjectMap()
}

// NVMObject is one live, compacted object: a key, its type, and its fully
// reassembled payload.
type NVMObject = types.NVMObject

// ObjectType is the wire type of an object.
type ObjectType = types.ObjectType

// Object types, passed in NVMObject.Type.
const (
	DataSmall    = types.DataSmall
	DataLarge    = types.DataLarge
	CounterSmall = types.CounterSmall
	CounterLarge = types.CounterLarge
	Deleted      = types.Deleted
)

// ParseOption customizes ParseImage. The zero-option call, ParseImage(buf),
// uses a silent logger and PolicyFailFast.
type ParseOption func(*image.ParseConfig)

// WithVerbose routes ParseImage's per-page and per-skipped-error
// diagnostics to logger instead of discarding them.
func WithVerbose(logger logrus.FieldLogger) ParseOption {
	return func(cfg *image.ParseConfig) {
		cfg.Logger = logger
	}
}

// WithErrorPolicy overrides the default fail-fast reaction to a page-level
// decode error.
func WithErrorPolicy(policy ErrorPolicy) ParseOption {
	return func(cfg *image.ParseConfig) {
		cfg.Policy = policy
	}
}

// ParseImage decodes buffer into an Image: both regions' pages in ring
// order, and both regions' compacted live object maps.
func ParseImage(buffer []byte, opts ...ParseOption) (*Image, error) {
	cfg := image.ParseConfig{
		Logger: silentLogger(),
		Policy: types.PolicyFailFast,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return image.ParseImage(buffer, cfg)
}

// EncodeImage lays appObjects and protoObjects out as a fresh image buffer.
func EncodeImage(appObjects, protoObjects *OrderedObjectMap, opts EncodeOptions) ([]byte, error) {
	return image.EncodeImage(appObjects, protoObjects, opts)
}

// silentLogger returns a logrus logger configured to discard everything,
// the default when the caller does not pass WithVerbose.
func silentLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}
