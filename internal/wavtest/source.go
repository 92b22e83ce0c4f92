package wavtest

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// ErrInjected is returned by FailingReaderAt while it is armed.
var ErrInjected = errors.New("injected read failure")

// SparseSource is an io.ReaderAt holding real header bytes followed by zeros
// up to a virtual size.
type SparseSource struct {
	head []byte
	size int64
}

// NewSparseSource returns a source of size bytes starting with head.
func NewSparseSource(head []byte, size int64) *SparseSource {
	return &SparseSource{head: head, size: size}
}

// Size returns the virtual length.
func (s *SparseSource) Size() int64 {
	return s.size
}

// Head returns the real bytes.
func (s *SparseSource) Head() []byte {
	return s.head
}

// ReadAt implements io.ReaderAt.
func (s *SparseSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	}

	if off >= s.size {
		return 0, io.EOF
	}

	n := len(p)
	if rest := s.size - off; int64(n) > rest {
		n = int(rest)
	}

	copied := 0
	if off < int64(len(s.head)) {
		copied = copy(p[:n], s.head[off:])
	}

	clear(p[copied:n])

	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// FailingReaderAt wraps a source and fails reads reaching FailFrom or beyond
// while armed.
type FailingReaderAt struct {
	R        io.ReaderAt
	FailFrom int64
	armed    atomic.Bool
}

// Arm makes subsequent reads past FailFrom fail.
func (f *FailingReaderAt) Arm() { f.armed.Store(true) }

// Disarm restores normal reads.
func (f *FailingReaderAt) Disarm() { f.armed.Store(false) }

// ReadAt implements io.ReaderAt.
func (f *FailingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if f.armed.Load() && off+int64(len(p)) > f.FailFrom {
		return 0, ErrInjected
	}

	return f.R.ReadAt(p, off)
}

// WriteFile writes data to a file in a per-test temporary directory and
// returns its path.
func WriteFile(tb testing.TB, name string, data []byte) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)

	err := os.WriteFile(path, data, 0o644)
	if err != nil {
		tb.Fatalf("failed to write %s: %v", path, err)
	}

	return path
}
