package spk

import (
	"fmt"

	"github.com/opencontainers/go-digest"

	"github.com/sverrewl/spike-spk/internal/chunk"
)

// PackageType identifies the on-disk package kind.
type PackageType = chunk.PackageType

// Package type constants.
const (
	PackageSpike1 = chunk.PackageSpike1
	PackageGame   = chunk.PackageGame
	PackageSpike2 = chunk.PackageSpike2
)

// Version is a package's (major, minor, patch) version triple.
type Version struct {
	Major, Minor, Patch uint8
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Package is one named, versioned, typed collection of file entries.
// Packages are constructed fully during container decode and immutable
// thereafter.
type Package struct {
	// Name is the package name, decoded from the fixed NUL-padded field.
	Name string

	// ID is the short package identifier. Legacy archives leave the field
	// zero-filled, so ID may be empty; that is not a failure.
	ID string

	Version Version
	Type    PackageType

	// Files holds the package's entries in on-disk order.
	Files []FileEntry
}

// FileEntry is one file's metadata within a package.
//
// The data offset and stored size are only meaningful once the owning
// package's data segment header has been processed; Parse finalizes them
// to stream-absolute values before returning.
type FileEntry struct {
	// Name is the file name, resolved from the package's string table.
	Name string

	// Size is the declared file size. It may legitimately differ from the
	// number of bytes actually stored.
	Size uint64

	// Mode is the file's mode/permission word.
	Mode uint16

	// HMAC is the 20-byte keyed digest of the file content. The decoder
	// carries it unverified; see Archive.Verify.
	HMAC [20]byte

	// MD5 is the 16-byte content digest, likewise unverified.
	MD5 [16]byte

	offset   uint64
	dataSize uint64
}

// Offset returns the stream-absolute offset of the file's stored bytes.
func (f FileEntry) Offset() uint64 {
	return f.offset
}

// StoredSize returns the number of bytes actually stored for the file.
func (f FileEntry) StoredSize() uint64 {
	return f.dataSize
}

// ContentDigest returns the recorded MD5 digest in algorithm:hex form.
func (f FileEntry) ContentDigest() digest.Digest {
	return digest.NewDigestFromBytes("md5", f.MD5[:])
}

// KeyedDigest returns the recorded keyed digest in algorithm:hex form.
func (f FileEntry) KeyedDigest() digest.Digest {
	return digest.NewDigestFromBytes("hmac-sha1", f.HMAC[:])
}
