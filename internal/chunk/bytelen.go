package chunk

import (
	"encoding/binary"
	"fmt"
	"io"
)

// extendedSentinel marks the 64-bit length encoding. A legacy length is a
// plain magnitude and never occupies this position with all bits set.
const extendedSentinel = 0xffffffff

// ByteLen is the dual on-disk encoding for a chunk's payload size: a plain
// 32-bit value (8-byte header), or a 64-bit value announced by an all-ones
// sentinel in the 32-bit slot (16-byte header).
//
// For the extended form the stored value includes the chunk's own 4 tag
// bytes; for the legacy form it does not.
type ByteLen struct {
	value    uint64
	extended bool
}

// ReadByteLen decodes a ByteLen from a stream positioned just after a
// chunk tag.
func ReadByteLen(r io.Reader) (ByteLen, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return ByteLen{}, fmt.Errorf("%w: byte length: %v", ErrCorrupt, err)
	}
	v := binary.LittleEndian.Uint32(buf[:4])
	if v != extendedSentinel {
		return ByteLen{value: uint64(v)}, nil
	}
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return ByteLen{}, fmt.Errorf("%w: extended byte length: %v", ErrCorrupt, err)
	}
	return ByteLen{value: binary.LittleEndian.Uint64(buf[:]), extended: true}, nil
}

// ByteLen returns the declared payload length.
func (b ByteLen) ByteLen() uint64 {
	return b.value
}

// HeaderSize returns the number of bytes occupied by the tag and the
// length encoding: 8 for the legacy form, 16 for the extended form.
func (b ByteLen) HeaderSize() uint64 {
	if b.extended {
		return 16
	}
	return 8
}

// Extended reports whether the 64-bit encoding was used.
func (b ByteLen) Extended() bool {
	return b.extended
}
