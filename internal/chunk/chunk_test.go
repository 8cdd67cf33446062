package chunk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	buf.Write(TagHeader[:])
	buf.Write(le32(0x1000))
	buf.Write(le32(3))

	hdr, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint32(3), hdr.PackageCount)
	assert.Equal(t, uint64(0x1000), hdr.Len.ByteLen())
}

func TestReadHeaderWrongTag(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	buf.Write(TagEnvelope[:])
	buf.Write(le32(0x1000))
	buf.Write(le32(3))

	_, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestEnvelopeOffsetToNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want uint64
	}{
		{
			name: "legacy",
			data: append(TagEnvelope[:], le32(0x80)...),
			want: 8 + 0x80,
		},
		{
			name: "extended",
			data: append(append(TagEnvelope[:], le32(0xffffffff)...), le64(0x80)...),
			want: 16 + 0x80,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, err := ReadEnvelope(bytes.NewReader(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.OffsetToNext())
		})
	}
}

func metadataBytes(name, id string, major, minor, patch, typ byte) []byte {
	var buf bytes.Buffer
	buf.Write(TagMetadata[:])
	buf.Write(le32(metadataBodySize))
	var nameField [29]byte
	copy(nameField[:], name)
	buf.Write(nameField[:])
	var idField [3]byte
	copy(idField[:], id)
	buf.Write(idField[:])
	buf.Write([]byte{major, minor, patch, typ})
	buf.Write(make([]byte, 12))
	return buf.Bytes()
}

func TestReadMetadata(t *testing.T) {
	t.Parallel()

	m, err := ReadMetadata(bytes.NewReader(metadataBytes("base", "SKK", 1, 2, 3, 2)))
	require.NoError(t, err)
	assert.Equal(t, "base", m.Name())
	assert.Equal(t, "SKK", m.ID())
	assert.Equal(t, [3]uint8{1, 2, 3}, [3]uint8{m.Major, m.Minor, m.Patch})
	assert.Equal(t, PackageGame, m.Type)
}

func TestReadMetadataLegacyID(t *testing.T) {
	t.Parallel()

	// Older archives zero-fill the identifier; that is not a failure.
	m, err := ReadMetadata(bytes.NewReader(metadataBytes("base", "", 0, 9, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, "", m.ID())
	assert.Equal(t, PackageSpike1, m.Type)
}

func TestReadMetadataUnknownType(t *testing.T) {
	t.Parallel()

	_, err := ReadMetadata(bytes.NewReader(metadataBytes("base", "", 1, 0, 0, 7)))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestReadMetadataTruncated(t *testing.T) {
	t.Parallel()

	data := metadataBytes("base", "", 1, 0, 0, 1)
	_, err := ReadMetadata(bytes.NewReader(data[:20]))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestPackageTypePathPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/games/", PackageGame.PathPrefix())
	assert.Equal(t, "/", PackageSpike1.PathPrefix())
	assert.Equal(t, "/", PackageSpike2.PathPrefix())
}

func TestReadAux(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	buf.Write(TagAux[:])
	buf.Write(le32(8))
	buf.Write(le64(0xdeadbeef))

	aux, err := ReadAux(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint32(8), aux.Len)
	assert.Equal(t, uint64(0xdeadbeef), aux.Payload)

	_, err = ReadAux(bytes.NewReader(metadataBytes("x", "", 0, 0, 0, 1)))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestReadStringTableSkipsStorage(t *testing.T) {
	t.Parallel()

	storage := []byte("a.txt\x00b.bin\x00")
	var buf bytes.Buffer
	buf.Write(TagStringTable[:])
	buf.Write(le32(uint32(len(storage))))
	buf.Write(storage)
	buf.Write(TagTerminator[:])

	r := bytes.NewReader(buf.Bytes())
	st, err := ReadStringTable(r)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(storage)), st.Len)

	// Cursor must land on the first file record.
	var tag [4]byte
	_, err = r.Read(tag[:])
	require.NoError(t, err)
	assert.Equal(t, TagTerminator, tag)
}

func TestReadDataHeader(t *testing.T) {
	t.Parallel()

	legacy := append(TagDataHeader[:], le32(0x20)...)
	dh, err := ReadDataHeader(bytes.NewReader(legacy))
	require.NoError(t, err)
	assert.Equal(t, uint64(8), dh.Len.HeaderSize())

	extended := append(append(TagDataHeader[:], le32(0xffffffff)...), le64(0x20)...)
	dh, err = ReadDataHeader(bytes.NewReader(extended))
	require.NoError(t, err)
	assert.Equal(t, uint64(16), dh.Len.HeaderSize())
}
