// Package spk decodes SPK archive containers: chunk-based bundles of
// named, versioned sub-packages, each carrying a table of file entries
// with digests and byte ranges into an appended data blob.
//
// Decoding is a single forward pass that resolves the container's chunk
// grammar into an immutable package/file index. File contents are then
// retrieved by random access through a lock-guarded byte source.
//
// # Quick Start
//
// Open an archive and read a file:
//
//	archive, err := spk.Open("game.spk")
//	if err != nil {
//	    return err
//	}
//	defer archive.Close()
//	for _, pkg := range archive.Packages {
//	    for _, f := range pkg.Files {
//	        data, err := archive.ReadFile(f)
//	        // ...
//	    }
//	}
//
// Open also accepts the first volume of a split archive (a SquashFS
// image holding the container, spread across numbered .000, .001, ...
// files), a directory containing exactly one such first volume, or a
// zstd-compressed container (.zst).
//
// Decoding never verifies file digests; use [Archive.Verify] to check a
// file's keyed and content digests against its bytes.
package spk
