package spk

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
)

// Archive is the decoded package/file index plus a handle to the
// underlying byte source.
//
// The index is immutable after Parse and may be read from any number of
// goroutines. The byte source supports only one seek+read sequence at a
// time, so content reads are serialized by an internal lock; each read
// completes atomically with respect to concurrent callers.
type Archive struct {
	// Packages holds the container's packages in on-disk order.
	Packages []Package

	mu     sync.Mutex
	src    io.ReadSeeker
	logger *slog.Logger
}

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger used for debug output during decoding and
// reads. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// ReadFile reads the stored bytes of f from the archive's byte source.
//
// The source is seeked to the entry's resolved absolute offset and
// exactly StoredSize bytes are read under the archive lock. Short reads
// and I/O faults are returned as-is, never retried. Nothing is cached:
// repeated reads re-fetch from the source.
func (a *Archive) ReadFile(f FileEntry) ([]byte, error) {
	if f.dataSize > math.MaxInt || f.offset > math.MaxInt64 {
		return nil, fmt.Errorf("%w: stored range %d+%d for %s", ErrCorrupt, f.offset, f.dataSize, f.Name)
	}
	buf := make([]byte, f.dataSize)

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.src.Seek(int64(f.offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("spk: read %s: %w", f.Name, err)
	}
	if _, err := io.ReadFull(a.src, buf); err != nil {
		return nil, fmt.Errorf("spk: read %s: %w", f.Name, err)
	}
	return buf, nil
}

// Close releases the underlying byte source if it is closeable.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
