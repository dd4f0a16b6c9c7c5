package vault

import "errors"

// Sentinel errors for the I/O- and format-shaped failures of Volume.Save
// and Volume Load: everything else in this package reports failure through
// plain (value, bool) / bool / count returns, since there is nothing to
// wrap on a path lookup or a capacity check that's expected to fail often.
var (
	// ErrNotRegularFile is returned by Load when the target path exists
	// but is not a regular file (a directory, a device, ...).
	ErrNotRegularFile = errors.New("vault: not a regular file")

	// ErrEmptyFile is returned by Load for a zero-byte file.
	ErrEmptyFile = errors.New("vault: empty file")

	// ErrWrongSignature is returned by Load when the leading bytes after
	// the length prefix are not "=VOL".
	ErrWrongSignature = errors.New("vault: wrong signature")

	// ErrWrongEndianness is returned by Load when the encoded endianness
	// byte does not match the host.
	ErrWrongEndianness = errors.New("vault: wrong endianness")

	// ErrTruncated is returned when the buffer ends before a length-
	// prefixed field can be fully read.
	ErrTruncated = errors.New("vault: truncated data")

	// ErrTrailingBytes is returned when bytes remain after the root node
	// has been fully consumed.
	ErrTrailingBytes = errors.New("vault: trailing bytes after root node")

	// ErrUnknownValueKind is returned when a VALUE record's kind field is
	// outside the closed {u32,u64,f32,f64,str,bin} set.
	ErrUnknownValueKind = errors.New("vault: unknown value kind")

	// ErrPayloadTooLarge is returned when a decoded name or str/bin
	// payload exceeds its size limit.
	ErrPayloadTooLarge = errors.New("vault: payload exceeds size limit")

	// ErrCapacityExceeded is returned by Load when a decoded node would
	// exceed maxSubnodes or maxValues.
	ErrCapacityExceeded = errors.New("vault: capacity exceeded while loading")

	// ErrDepthExceeded is returned by Load when a decoded node tree
	// exceeds volumeMaxDepth.
	ErrDepthExceeded = errors.New("vault: depth exceeded while loading")
)
