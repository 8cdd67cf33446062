package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// Record widths after the tag: length field, name pointer, three sizes,
// mode, padding, and the two digests.
const (
	fileNarrowBodySize = 4 + 4 + 4 + 4 + 4 + 2 + 3 + 20 + 16 + 3
	fileWideBodySize   = 4 + 8 + 8 + 8 + 8 + 2 + 3 + 20 + 16 + 7
)

// FileRecord is one element of a package's file list: a narrow entry, a
// wide entry, or the terminator that ends the list.
type FileRecord interface {
	fileRecord()
}

// FileNarrow is the FINF record with 32-bit size and offset fields.
type FileNarrow struct {
	Name       string
	FileSize   uint32
	DataOffset uint32
	DataSize   uint32
	Mode       uint16
	HMAC       [20]byte
	MD5        [16]byte
}

// FileWide is the FI64 record, the canonical shape all entries are
// normalized to. DataOffset is relative to the package's data segment
// until the decoder finalizes it.
type FileWide struct {
	Name       string
	FileSize   uint64
	DataOffset uint64
	DataSize   uint64
	Mode       uint16
	HMAC       [20]byte
	MD5        [16]byte
}

// Terminator is the FEND record ending a file list.
type Terminator struct{}

func (FileNarrow) fileRecord() {}
func (FileWide) fileRecord()   {}
func (Terminator) fileRecord() {}

// ReadFileRecord decodes the next file record. nameBase is the absolute
// stream position of the string table's storage; name pointers are
// offsets from it. The cursor always ends at the next sibling record,
// even though resolving the name seeks away mid-decode.
func ReadFileRecord(r io.ReadSeeker, nameBase int64) (FileRecord, error) {
	var tag [4]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, fmt.Errorf("%w: file record tag: %v", ErrCorrupt, err)
	}
	switch tag {
	case TagTerminator:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("%w: terminator: %v", ErrCorrupt, err)
		}
		if n := binary.LittleEndian.Uint32(buf[:]); n != 0 {
			return nil, fmt.Errorf("%w: terminator with nonzero length %d", ErrCorrupt, n)
		}
		return Terminator{}, nil
	case TagFileNarrow:
		return readFileNarrow(r, nameBase)
	case TagFileWide:
		return readFileWide(r, nameBase)
	default:
		return nil, fmt.Errorf("%w: unexpected tag %q in file list", ErrCorrupt, tag[:])
	}
}

func readFileNarrow(r io.ReadSeeker, nameBase int64) (FileNarrow, error) {
	var buf [fileNarrowBodySize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return FileNarrow{}, fmt.Errorf("%w: file entry: %v", ErrCorrupt, err)
	}
	f := FileNarrow{
		FileSize:   binary.LittleEndian.Uint32(buf[8:12]),
		DataOffset: binary.LittleEndian.Uint32(buf[12:16]),
		DataSize:   binary.LittleEndian.Uint32(buf[16:20]),
		Mode:       binary.LittleEndian.Uint16(buf[20:22]),
	}
	copy(f.HMAC[:], buf[25:45])
	copy(f.MD5[:], buf[45:61])
	name, err := resolveName(r, nameBase, uint64(binary.LittleEndian.Uint32(buf[4:8])))
	if err != nil {
		return FileNarrow{}, err
	}
	f.Name = name
	return f, nil
}

func readFileWide(r io.ReadSeeker, nameBase int64) (FileWide, error) {
	var buf [fileWideBodySize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return FileWide{}, fmt.Errorf("%w: file entry: %v", ErrCorrupt, err)
	}
	f := FileWide{
		FileSize:   binary.LittleEndian.Uint64(buf[12:20]),
		DataOffset: binary.LittleEndian.Uint64(buf[20:28]),
		DataSize:   binary.LittleEndian.Uint64(buf[28:36]),
		Mode:       binary.LittleEndian.Uint16(buf[36:38]),
	}
	copy(f.HMAC[:], buf[41:61])
	copy(f.MD5[:], buf[61:77])
	name, err := resolveName(r, nameBase, binary.LittleEndian.Uint64(buf[4:12]))
	if err != nil {
		return FileWide{}, err
	}
	f.Name = name
	return f, nil
}

// Normalize converts a narrow record to the wide shape by zero-widening
// each numeric field; a wide record passes through unchanged. Callers
// must branch on Terminator before calling; normalizing one is a
// programming error, not a decode failure.
func Normalize(rec FileRecord) FileWide {
	switch f := rec.(type) {
	case FileWide:
		return f
	case FileNarrow:
		return FileWide{
			Name:       f.Name,
			FileSize:   uint64(f.FileSize),
			DataOffset: uint64(f.DataOffset),
			DataSize:   uint64(f.DataSize),
			Mode:       f.Mode,
			HMAC:       f.HMAC,
			MD5:        f.MD5,
		}
	default:
		panic(fmt.Sprintf("chunk: Normalize called on %T", rec))
	}
}

// resolveName reads the NUL-terminated name at nameBase+off and restores
// the cursor on every exit path, so sequential record decoding is never
// disturbed by the excursion.
func resolveName(r io.ReadSeeker, nameBase int64, off uint64) (name string, err error) {
	cur, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", err
	}
	defer func() {
		if _, serr := r.Seek(cur, io.SeekStart); serr != nil && err == nil {
			err = serr
		}
	}()

	if _, err := r.Seek(nameBase+int64(off), io.SeekStart); err != nil {
		return "", fmt.Errorf("%w: name pointer %#x: %v", ErrCorrupt, off, err)
	}
	raw, err := readCString(r)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, raw)
	}
	return string(raw), nil
}

func readCString(r io.Reader) ([]byte, error) {
	var out []byte
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if i := bytes.IndexByte(buf[:n], 0); i >= 0 {
				return append(out, buf[:i]...), nil
			}
			out = append(out, buf[:n]...)
		}
		if err == io.EOF {
			return nil, fmt.Errorf("%w: unterminated name", ErrCorrupt)
		}
		if err != nil {
			return nil, err
		}
	}
}
