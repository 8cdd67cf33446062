package spk

import (
	"errors"

	"github.com/sverrewl/spike-spk/internal/chunk"
	"github.com/sverrewl/spike-spk/internal/squash"
)

// Sentinel errors re-exported from internal/chunk.
var (
	// ErrCorrupt is returned for any structural decode failure: a wrong
	// tag, a truncated record, a terminator with a nonzero length, or a
	// package envelope whose declared span does not advance the stream.
	ErrCorrupt = chunk.ErrCorrupt

	// ErrInvalidName is returned when a resolved file name is not valid UTF-8.
	ErrInvalidName = chunk.ErrInvalidName
)

// Sentinel errors specific to the spk package.
var (
	// ErrUnsupported is returned by Open for a path whose shape is not a
	// recognized archive form.
	ErrUnsupported = errors.New("spk: unsupported archive path")

	// ErrNoSplitVolume is returned when a directory or SquashFS image does
	// not resolve to exactly one expected archive file.
	ErrNoSplitVolume = squash.ErrNoArchive

	// ErrDigestMismatch is returned by Verify when a file's bytes do not
	// match its recorded digests.
	ErrDigestMismatch = errors.New("spk: digest verification failed")
)
