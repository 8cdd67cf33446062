package spk

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Extract writes every file of every package under dir.
//
// Files land under the package type's path prefix, so game package
// contents end up below dir/games. Reads serialize on the archive's
// source lock while file write-out runs on multiple goroutines.
func (a *Archive) Extract(dir string) error {
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, pkg := range a.Packages {
		root := filepath.Join(dir, filepath.FromSlash(strings.Trim(pkg.Type.PathPrefix(), "/")))
		for _, f := range pkg.Files {
			g.Go(func() error {
				return a.extractFile(root, f)
			})
		}
	}
	return g.Wait()
}

func (a *Archive) extractFile(root string, f FileEntry) error {
	name := strings.TrimPrefix(f.Name, "/")
	if !fs.ValidPath(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, f.Name)
	}
	data, err := a.ReadFile(f)
	if err != nil {
		return err
	}

	dest := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	mode := fs.FileMode(f.Mode & 0o777)
	if mode == 0 {
		mode = 0o644
	}
	if err := os.WriteFile(dest, data, mode); err != nil {
		return err
	}
	a.log().Debug("extracted", "file", f.Name, "bytes", len(data))
	return nil
}
