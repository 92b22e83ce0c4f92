package bwav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
)

const (
	chunkHeaderSize = 8
	riffHeaderSize  = 12
	// sizePlaceholder is the 32-bit size RF64 writers store when the real size
	// lives in the ds64 chunk.
	sizePlaceholder = 0xFFFFFFFF
)

// ChunkScanner walks the chunk headers of a container one at a time.
// It reads 8 header bytes per step and never touches chunk payloads.
type ChunkScanner struct {
	r     io.ReaderAt
	start int64
	pos   int64
	end   int64
	kind  ContainerKind
	sizes *DS64
	err   error
}

// NewChunkScanner returns a scanner over r walking from start to end.
// kind selects how placeholder sizes are treated.
func NewChunkScanner(r io.ReaderAt, start, end int64, kind ContainerKind) *ChunkScanner {
	return &ChunkScanner{
		r:     r,
		start: start,
		pos:   start,
		end:   end,
		kind:  kind,
	}
}

// UseSizes installs the ds64 size table consulted for the remaining chunks.
func (s *ChunkScanner) UseSizes(ds *DS64) {
	s.sizes = ds
}

// Offset returns the position of the next chunk header.
func (s *ChunkScanner) Offset() int64 {
	return s.pos
}

// Reset rewinds the scanner to its start offset and clears any error.
func (s *ChunkScanner) Reset() {
	s.pos = s.start
	s.err = nil
}

// Next returns the next chunk descriptor. It returns io.EOF once the end of
// the stream is reached. Errors are sticky until Reset is called.
func (s *ChunkScanner) Next() (ChunkDescriptor, error) {
	if s.err != nil {
		return ChunkDescriptor{}, s.err
	}

	desc, err := s.next()
	if err != nil {
		s.err = err
		return ChunkDescriptor{}, err
	}

	return desc, nil
}

// All returns the remaining chunks as a sequence. Iteration stops after the
// first error, which is yielded with a zero descriptor.
func (s *ChunkScanner) All() iter.Seq2[ChunkDescriptor, error] {
	return func(yield func(ChunkDescriptor, error) bool) {
		for {
			desc, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}

			if !yield(desc, err) || err != nil {
				return
			}
		}
	}
}

func (s *ChunkScanner) next() (ChunkDescriptor, error) {
	if s.pos >= s.end {
		return ChunkDescriptor{}, io.EOF
	}

	if s.end-s.pos < chunkHeaderSize {
		return ChunkDescriptor{}, fmt.Errorf("%w at offset %d: %d bytes left", ErrTruncatedChunkHeader, s.pos, s.end-s.pos)
	}

	var hdr [chunkHeaderSize]byte

	err := readFullAt(s.r, hdr[:], s.pos)
	if err != nil {
		return ChunkDescriptor{}, ioFailure("read chunk header", err)
	}

	tag := FourCC(hdr[:4])
	declared := binary.LittleEndian.Uint32(hdr[4:])
	offset := s.pos + chunkHeaderSize

	size, err := s.resolve(tag, declared)
	if err != nil {
		return ChunkDescriptor{}, err
	}

	if size > uint64(s.end-offset) {
		return ChunkDescriptor{}, fmt.Errorf("%w: %s at offset %d declares %d bytes, %d left",
			ErrTruncatedChunkBody, tag, offset, size, s.end-offset)
	}

	// the pad byte of the last chunk is often missing; the next call then
	// starts past end and reports io.EOF.
	s.pos = offset + int64(size) + int64(size&1)

	return ChunkDescriptor{
		Tag:          tag,
		DeclaredSize: declared,
		Offset:       uint64(offset),
		Size:         size,
	}, nil
}

func (s *ChunkScanner) resolve(tag FourCC, declared uint32) (uint64, error) {
	if s.kind != RF64 {
		return uint64(declared), nil
	}

	if s.sizes == nil {
		if declared == sizePlaceholder {
			return 0, fmt.Errorf("%w: %s appears before ds64", ErrMissingSizeOverride, tag)
		}

		return uint64(declared), nil
	}

	return s.sizes.ResolveSize(tag, declared)
}

func readFullAt(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}

	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}

	return err
}
