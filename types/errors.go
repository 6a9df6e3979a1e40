package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors, one per spec §7 error kind. Wrap with CodecError to add
// the offending byte offset and (where applicable) object key; callers can
// still match with errors.Is against these values.
var (
	ErrShortBuffer                  = errors.New("nvm3: buffer ends inside a declared page or object")
	ErrBadMagic                     = errors.New("nvm3: bad page magic")
	ErrUnsupportedVersion           = errors.New("nvm3: unsupported page version")
	ErrBergerMismatch               = errors.New("nvm3: berger code mismatch on erase count")
	ErrEraseCountComplementMismatch = errors.New("nvm3: erase count does not match its stored complement")
	ErrObjectCRCMismatch            = errors.New("nvm3: object header crc mismatch")
	ErrUnknownObjectType            = errors.New("nvm3: unknown object type")
	ErrTruncatedObject              = errors.New("nvm3: fragmented object missing its last fragment")
	ErrOrphanedFragment             = errors.New("nvm3: fragment without a preceding first fragment")
	ErrInsufficientSpace            = errors.New("nvm3: region has no room left for remaining objects")
	ErrInvalidOption                = errors.New("nvm3: invalid encode option")
)

// CodecError decorates a sentinel error with the byte offset it was
// detected at and, for object-layer errors, the key of the object involved.
// Unwrap returns the sentinel, so errors.Is(err, types.ErrBadMagic) works
// through any number of wrapping layers.
type CodecError struct {
	Offset int
	Key    *uint32
	Err    error
}

// NewCodecError builds a CodecError with a stack trace attached to Err.
func NewCodecError(sentinel error, offset int) *CodecError {
	return &CodecError{Offset: offset, Err: errors.WithStack(sentinel)}
}

// WithKey attaches an object key to the error and returns the receiver for
// chaining at the call site.
func (e *CodecError) WithKey(key uint32) *CodecError {
	e.Key = &key
	return e
}

// Error implements error.
func (e *CodecError) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("%s at offset 0x%x, key 0x%05x", rootMessage(e.Err), e.Offset, *e.Key)
	}
	return fmt.Sprintf("%s at offset 0x%x", rootMessage(e.Err), e.Offset)
}

// Unwrap allows errors.Is/errors.As to see through to the sentinel.
func (e *CodecError) Unwrap() error {
	return e.Err
}

// rootMessage returns the message of the innermost, non-stack-decorated
// error so CodecError.Error() doesn't repeat pkg/errors' own formatting.
func rootMessage(err error) string {
	type causer interface{ Cause() error }
	for {
		c, ok := err.(causer)
		if !ok {
			return err.Error()
		}
		err = c.Cause()
	}
}
