// Package chunk decodes the tagged records that make up an SPK container.
//
// The grammar is positional: each record begins with a fixed 4-byte tag,
// and a tag other than the one expected at that position is a structural
// failure, not something to skip. All multi-byte integers are
// little-endian.
package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Sentinel errors surfaced through the public spk package.
var (
	// ErrCorrupt is returned for any structural decode failure: a wrong
	// tag, a truncated record, or a terminator with a nonzero length.
	ErrCorrupt = errors.New("spk: corrupt archive")

	// ErrInvalidName is returned when a resolved file name is not valid UTF-8.
	ErrInvalidName = errors.New("spk: file name is not valid UTF-8")
)

// Chunk tags, in grammar order.
var (
	TagHeader      = [4]byte{'S', 'P', 'K', 'S'}
	TagEnvelope    = [4]byte{'S', 'P', 'K', '0'}
	TagMetadata    = [4]byte{'S', 'I', 'D', 'X'}
	TagAux         = [4]byte{'S', 'Z', '6', '4'}
	TagStringTable = [4]byte{'S', 'T', 'R', 'S'}
	TagFileNarrow  = [4]byte{'F', 'I', 'N', 'F'}
	TagFileWide    = [4]byte{'F', 'I', '6', '4'}
	TagTerminator  = [4]byte{'F', 'E', 'N', 'D'}
	TagDataHeader  = [4]byte{'S', 'D', 'A', 'T'}
)

// PackageType is the on-disk package kind tag.
type PackageType uint8

const (
	PackageSpike1 PackageType = 1
	PackageGame   PackageType = 2
	PackageSpike2 PackageType = 3
)

func (t PackageType) String() string {
	switch t {
	case PackageSpike1:
		return "spike1"
	case PackageGame:
		return "game"
	case PackageSpike2:
		return "spike2"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// PathPrefix returns the root under which this package's file names are
// resolved by consumers. Game packages live under /games/.
func (t PackageType) PathPrefix() string {
	if t == PackageGame {
		return "/games/"
	}
	return "/"
}

func readTag(r io.Reader, want [4]byte) error {
	var got [4]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return fmt.Errorf("%w: tag %q: %v", ErrCorrupt, want[:], err)
	}
	if got != want {
		return fmt.Errorf("%w: unexpected tag %q, want %q", ErrCorrupt, got[:], want[:])
	}
	return nil
}

// Header is the top-level SPKS chunk. It appears exactly once, at
// stream offset 0.
type Header struct {
	Len          ByteLen
	PackageCount uint32
}

// ReadHeader decodes the container header.
func ReadHeader(r io.Reader) (Header, error) {
	if err := readTag(r, TagHeader); err != nil {
		return Header{}, err
	}
	bl, err := ReadByteLen(r)
	if err != nil {
		return Header{}, err
	}
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("%w: package count: %v", ErrCorrupt, err)
	}
	return Header{Len: bl, PackageCount: binary.LittleEndian.Uint32(buf[:])}, nil
}

// Envelope is the SPK0 chunk. Its only job is to state the total span of
// one package's region so the decoder can jump to the next package even
// when the grammar inside the region is not fully consumed.
type Envelope struct {
	Len ByteLen
}

// ReadEnvelope decodes a package envelope.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	if err := readTag(r, TagEnvelope); err != nil {
		return Envelope{}, err
	}
	bl, err := ReadByteLen(r)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Len: bl}, nil
}

// OffsetToNext returns the distance from the envelope's tag to the next
// package's envelope tag.
func (e Envelope) OffsetToNext() uint64 {
	return e.Len.HeaderSize() + e.Len.ByteLen()
}

// Fixed-width SIDX payload after its length field.
const metadataBodySize = 29 + 3 + 3 + 1 + 12

// Metadata is the SIDX chunk: the package's identity.
type Metadata struct {
	Len ByteLen

	// RawName is NUL-padded. Recent archives put a three-character
	// package ID at the end of the name field; older archives leave
	// those bytes as NULs.
	RawName [29]byte
	RawID   [3]byte

	Major, Minor, Patch uint8
	Type                PackageType
}

// ReadMetadata decodes package metadata.
func ReadMetadata(r io.Reader) (Metadata, error) {
	if err := readTag(r, TagMetadata); err != nil {
		return Metadata{}, err
	}
	bl, err := ReadByteLen(r)
	if err != nil {
		return Metadata{}, err
	}
	var buf [metadataBodySize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Metadata{}, fmt.Errorf("%w: package metadata: %v", ErrCorrupt, err)
	}
	m := Metadata{Len: bl}
	copy(m.RawName[:], buf[0:29])
	copy(m.RawID[:], buf[29:32])
	m.Major, m.Minor, m.Patch = buf[32], buf[33], buf[34]
	m.Type = PackageType(buf[35])
	switch m.Type {
	case PackageSpike1, PackageSpike2, PackageGame:
	default:
		return Metadata{}, fmt.Errorf("%w: unknown package type %d", ErrCorrupt, buf[35])
	}
	// buf[36:48] is reserved.
	return m, nil
}

// Name returns the package name with trailing NULs trimmed.
func (m Metadata) Name() string {
	return trimNul(m.RawName[:])
}

// ID returns the short package identifier, empty on legacy archives.
func (m Metadata) ID() string {
	return trimNul(m.RawID[:])
}

func trimNul(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Aux is the SZ64 chunk. Its semantics are unknown; only its wire shape
// (tag, 32-bit length, 8-byte payload) is pinned down. Callers probe for
// it and treat a decode failure as absence.
type Aux struct {
	Len     uint32
	Payload uint64
}

// ReadAux decodes an auxiliary record.
func ReadAux(r io.Reader) (Aux, error) {
	if err := readTag(r, TagAux); err != nil {
		return Aux{}, err
	}
	var buf [12]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Aux{}, fmt.Errorf("%w: auxiliary record: %v", ErrCorrupt, err)
	}
	return Aux{
		Len:     binary.LittleEndian.Uint32(buf[:4]),
		Payload: binary.LittleEndian.Uint64(buf[4:]),
	}, nil
}

// StringTable is the STRS chunk header. The raw string storage that
// follows is left in the stream; file records address into it relative
// to the table's position plus the 8 bytes of tag and length.
type StringTable struct {
	Len uint32
}

// ReadStringTable decodes the string table header and skips its storage,
// leaving the cursor on the first file record.
func ReadStringTable(r io.ReadSeeker) (StringTable, error) {
	if err := readTag(r, TagStringTable); err != nil {
		return StringTable{}, err
	}
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return StringTable{}, fmt.Errorf("%w: string table length: %v", ErrCorrupt, err)
	}
	n := binary.LittleEndian.Uint32(buf[:])
	if _, err := r.Seek(int64(n), io.SeekCurrent); err != nil {
		return StringTable{}, fmt.Errorf("%w: string table storage: %v", ErrCorrupt, err)
	}
	return StringTable{Len: n}, nil
}

// DataHeader is the SDAT chunk. Its position plus its header size is the
// base address for every file data offset in the package.
type DataHeader struct {
	Len ByteLen
}

// ReadDataHeader decodes a data segment header.
func ReadDataHeader(r io.Reader) (DataHeader, error) {
	if err := readTag(r, TagDataHeader); err != nil {
		return DataHeader{}, err
	}
	bl, err := ReadByteLen(r)
	if err != nil {
		return DataHeader{}, err
	}
	return DataHeader{Len: bl}, nil
}
