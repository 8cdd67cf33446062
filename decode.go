package spk

import (
	"fmt"
	"io"

	"github.com/sverrewl/spike-spk/internal/chunk"
)

// Parse decodes an SPK container from a byte source positioned at the
// container header.
//
// Decoding is strictly sequential: one forward pass per package, with
// bounded excursions to resolve file names from the string table. Any
// malformed chunk aborts the whole decode; no partial index is returned.
// The source is retained by the Archive for later ReadFile calls.
func Parse(src io.ReadSeeker, opts ...Option) (*Archive, error) {
	a := &Archive{src: src}
	for _, opt := range opts {
		opt(a)
	}

	hdr, err := chunk.ReadHeader(src)
	if err != nil {
		return nil, err
	}

	// The declared count is untrusted; grow as packages actually decode
	// rather than preallocating from it.
	for i := uint32(0); i < hdr.PackageCount; i++ {
		pkg, next, err := a.decodePackage(src)
		if err != nil {
			return nil, fmt.Errorf("package %d: %w", i, err)
		}
		a.Packages = append(a.Packages, pkg)

		// Jump by the envelope-declared span rather than the bytes
		// actually consumed. This is what tolerates undocumented padding
		// or trailing bytes inside a package region.
		if _, err := src.Seek(next, io.SeekStart); err != nil {
			return nil, fmt.Errorf("package %d: %w", i, err)
		}
	}
	return a, nil
}

// decodePackage reads one package's chunk sequence and returns the
// decoded package together with the absolute offset of the next
// package's envelope.
func (a *Archive) decodePackage(r io.ReadSeeker) (Package, int64, error) {
	envPos, err := pos(r)
	if err != nil {
		return Package{}, 0, err
	}
	env, err := chunk.ReadEnvelope(r)
	if err != nil {
		return Package{}, 0, err
	}
	next := envPos + int64(env.OffsetToNext())
	if next <= envPos {
		return Package{}, 0, fmt.Errorf("%w: envelope span %#x does not advance", ErrCorrupt, env.OffsetToNext())
	}

	meta, err := chunk.ReadMetadata(r)
	if err != nil {
		return Package{}, 0, err
	}

	if aux, ok := probeAux(r); ok {
		a.log().Debug("auxiliary record", "package", meta.Name(), "payload", aux.Payload)
	} else {
		a.log().Debug("auxiliary record absent", "package", meta.Name())
	}

	tablePos, err := pos(r)
	if err != nil {
		return Package{}, 0, err
	}
	if _, err := chunk.ReadStringTable(r); err != nil {
		return Package{}, 0, err
	}
	// Name pointers are relative to the table's storage, which starts
	// after its 8 bytes of tag and length.
	nameBase := tablePos + 8

	var files []FileEntry
	for {
		rec, err := chunk.ReadFileRecord(r, nameBase)
		if err != nil {
			return Package{}, 0, err
		}
		if _, done := rec.(chunk.Terminator); done {
			break
		}
		wide := chunk.Normalize(rec)
		files = append(files, FileEntry{
			Name:     wide.Name,
			Size:     wide.FileSize,
			Mode:     wide.Mode,
			HMAC:     wide.HMAC,
			MD5:      wide.MD5,
			offset:   wide.DataOffset,
			dataSize: wide.DataSize,
		})
	}

	dataPos, err := pos(r)
	if err != nil {
		return Package{}, 0, err
	}
	dh, err := chunk.ReadDataHeader(r)
	if err != nil {
		return Package{}, 0, err
	}

	// Offsets were relative to the data segment; make them absolute.
	base := uint64(dataPos) + dh.Len.HeaderSize()
	for i := range files {
		files[i].offset += base
	}

	return Package{
		Name:    meta.Name(),
		ID:      meta.ID(),
		Version: Version{Major: meta.Major, Minor: meta.Minor, Patch: meta.Patch},
		Type:    meta.Type,
		Files:   files,
	}, next, nil
}

// probeAux attempts to read the auxiliary record that may follow package
// metadata. Its contents are not load-bearing for the rest of the
// grammar, so a failed decode restores the cursor and reports absence
// instead of aborting the package.
func probeAux(r io.ReadSeeker) (chunk.Aux, bool) {
	cur, err := pos(r)
	if err != nil {
		return chunk.Aux{}, false
	}
	aux, err := chunk.ReadAux(r)
	if err != nil {
		_, _ = r.Seek(cur, io.SeekStart) //nolint:errcheck // position is re-checked by the next chunk read
		return chunk.Aux{}, false
	}
	return aux, true
}

func pos(r io.Seeker) (int64, error) {
	return r.Seek(0, io.SeekCurrent)
}
