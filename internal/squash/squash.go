// Package squash reconstructs an SPK container that is stored inside a
// SquashFS image physically split across numbered volume files
// (archive.000, archive.001, ...).
package squash

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/CalebQ42/squashfs"
)

// ErrNoArchive is returned when the volume set or the image inside it
// does not resolve to exactly one archive.
var ErrNoArchive = errors.New("spk: does not contain exactly one split archive")

// Extract reassembles the SquashFS image starting at the given first
// volume, locates the single .spk file inside it, and returns that
// file's bytes.
func Extract(first string) ([]byte, error) {
	src, err := openVolumes(first)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	img, err := squashfs.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("spk: squashfs: %w", err)
	}
	matches, err := fs.Glob(img, "*.spk")
	if err != nil {
		return nil, fmt.Errorf("spk: squashfs: %w", err)
	}
	if len(matches) != 1 {
		return nil, fmt.Errorf("%w: %d .spk files in image", ErrNoArchive, len(matches))
	}
	data, err := fs.ReadFile(img, matches[0])
	if err != nil {
		return nil, fmt.Errorf("spk: squashfs: %w", err)
	}
	return data, nil
}

// volumeSource presents a set of numbered volume files as one ReaderAt.
type volumeSource struct {
	files []*os.File
	// starts[i] is the offset of files[i] within the logical stream.
	starts []int64
	size   int64
}

// openVolumes opens first and every consecutively numbered sibling.
// Volume names share the stem and count up from .000 with no gaps.
func openVolumes(first string) (*volumeSource, error) {
	stem := first[:len(first)-len("000")]
	src := &volumeSource{}
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s%03d", stem, i)
		f, err := os.Open(name)
		if errors.Is(err, os.ErrNotExist) && i > 0 {
			break
		}
		if err != nil {
			src.Close()
			return nil, err
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			src.Close()
			return nil, err
		}
		// A zero-size volume contributes nothing and would leave a
		// duplicate start offset in the index; skip it but keep counting.
		if info.Size() == 0 {
			f.Close()
			continue
		}
		src.files = append(src.files, f)
		src.starts = append(src.starts, src.size)
		src.size += info.Size()
	}
	return src, nil
}

func (v *volumeSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= v.size {
		return 0, io.EOF
	}
	total := 0
	for len(p) > 0 {
		i := sort.Search(len(v.starts), func(i int) bool { return v.starts[i] > off }) - 1
		f := v.files[i]
		n, err := f.ReadAt(p, off-v.starts[i])
		total += n
		off += int64(n)
		p = p[n:]
		if err != nil && !errors.Is(err, io.EOF) {
			return total, err
		}
		if off >= v.size {
			if len(p) > 0 {
				return total, io.EOF
			}
			break
		}
		if n == 0 {
			return total, io.ErrNoProgress
		}
	}
	return total, nil
}

func (v *volumeSource) Close() error {
	var err error
	for _, f := range v.files {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
