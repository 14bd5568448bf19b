// Package snaperr defines the typed error kinds shared across the snapshot
// store. Accessors wrap one of these sentinels with fmt.Errorf("...: %w", ...)
// so callers can still errors.Is against the kind.
package snaperr

import "errors"

var (
	// ErrIoError is an mmap/open/read failure at the OS level.
	ErrIoError = errors.New("io error")

	// ErrCorruptHeader means a segment's fixed header or dictionaries are malformed.
	ErrCorruptHeader = errors.New("corrupt segment header")

	// ErrCorruptIndex means an index file's fixed header or tables are malformed.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrUnsupportedVersion means the version byte/number is outside the known range.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrDecodeFailure means RLP or word payload decoding failed for one record.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrCorruptSnapshot means an invariant was violated (e.g. header.number < block_from).
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrOutOfRange means an ordinal fell outside [0, key_count).
	ErrOutOfRange = errors.New("ordinal out of range")

	// ErrInvalidName means a filename did not match the canonical grammar.
	ErrInvalidName = errors.New("invalid snapshot file name")

	// ErrEmptySnapshot means iteration over a segment yielded no records.
	ErrEmptySnapshot = errors.New("empty snapshot")
)
