package squash

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVolumes(t *testing.T, parts ...string) string {
	t.Helper()

	dir := t.TempDir()
	for i, part := range parts {
		name := filepath.Join(dir, "image."+padIndex(i))
		require.NoError(t, os.WriteFile(name, []byte(part), 0o644))
	}
	return filepath.Join(dir, "image.000")
}

func padIndex(i int) string {
	return string([]byte{'0' + byte(i/100), '0' + byte(i/10%10), '0' + byte(i%10)})
}

func TestOpenVolumes(t *testing.T) {
	t.Parallel()

	first := writeVolumes(t, "hello", " ", "world")
	src, err := openVolumes(first)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, int64(len("hello world")), src.size)
	assert.Len(t, src.files, 3)
}

func TestVolumeSourceReadAt(t *testing.T) {
	t.Parallel()

	first := writeVolumes(t, "hello", " ", "world")
	src, err := openVolumes(first)
	require.NoError(t, err)
	defer src.Close()

	tests := []struct {
		name string
		off  int64
		n    int
		want string
	}{
		{name: "within first volume", off: 1, n: 3, want: "ell"},
		{name: "across volumes", off: 3, n: 5, want: "lo wo"},
		{name: "whole stream", off: 0, n: 11, want: "hello world"},
		{name: "tail", off: 8, n: 3, want: "rld"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.n)
			n, err := src.ReadAt(buf, tt.off)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(buf[:n]))
		})
	}
}

func TestVolumeSourceSkipsEmptyVolume(t *testing.T) {
	t.Parallel()

	first := writeVolumes(t, "hello", "", "world")
	src, err := openVolumes(first)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, int64(len("helloworld")), src.size)
	assert.Len(t, src.files, 2)

	buf := make([]byte, 10)
	n, err := src.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "helloworld", string(buf[:n]))

	// Reads spanning the seam between the surviving volumes.
	n, err = src.ReadAt(buf[:4], 3)
	require.NoError(t, err)
	assert.Equal(t, "lowo", string(buf[:n]))
}

func TestVolumeSourceReadAtPastEnd(t *testing.T) {
	t.Parallel()

	first := writeVolumes(t, "abc")
	src, err := openVolumes(first)
	require.NoError(t, err)
	defer src.Close()

	buf := make([]byte, 4)
	_, err = src.ReadAt(buf, 99)
	assert.True(t, errors.Is(err, io.EOF))

	n, err := src.ReadAt(buf, 1)
	assert.Equal(t, 2, n)
	assert.True(t, errors.Is(err, io.EOF))
}

func TestOpenVolumesMissingFirst(t *testing.T) {
	t.Parallel()

	_, err := openVolumes(filepath.Join(t.TempDir(), "image.000"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractNotSquashFS(t *testing.T) {
	t.Parallel()

	first := writeVolumes(t, "this is not a squashfs image at all")
	_, err := Extract(first)
	require.Error(t, err)
}
