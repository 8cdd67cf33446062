package spk

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/sverrewl/spike-spk/internal/squash"
)

// Open decodes the archive at path.
//
// The path may name a single-file container (.spk), the first volume of
// a split SquashFS-embedded container (.000), a directory containing
// exactly one such first volume, or a zstd-compressed container (.zst).
// Any other shape returns ErrUnsupported.
func Open(path string, opts ...Option) (*Archive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		matches, err := filepath.Glob(filepath.Join(path, "*.000"))
		if err != nil {
			return nil, err
		}
		if len(matches) != 1 {
			return nil, fmt.Errorf("%w: %d first volumes in %s", ErrNoSplitVolume, len(matches), path)
		}
		return openSplit(matches[0], opts)
	}

	switch filepath.Ext(path) {
	case ".spk":
		return openFile(path, opts)
	case ".000":
		return openSplit(path, opts)
	case ".zst":
		return openZstd(path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
}

func openFile(path string, opts []Option) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	a, err := Parse(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

func openSplit(path string, opts []Option) (*Archive, error) {
	data, err := squash.Extract(path)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(data), opts...)
}

func openZstd(path string, opts []Option) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("spk: zstd: %w", err)
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("spk: zstd: %w", err)
	}
	return Parse(bytes.NewReader(data), opts...)
}
