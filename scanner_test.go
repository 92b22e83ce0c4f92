package bwav

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/cwbudde/bwav/internal/wavtest"
)

func scanAll(t *testing.T, data []byte, kind ContainerKind, sizes *DS64) ([]ChunkDescriptor, error) {
	t.Helper()

	s := NewChunkScanner(bytes.NewReader(data), riffHeaderSize, int64(len(data)), kind)
	s.UseSizes(sizes)

	var out []ChunkDescriptor

	for desc, err := range s.All() {
		if err != nil {
			return out, err
		}

		out = append(out, desc)
	}

	return out, nil
}

func TestChunkScannerStandardRIFF(t *testing.T) {
	data := wavtest.NewRIFF().
		Chunk("fmt ", wavtest.PCMFormat(1, 44100, 16)).
		Chunk("odd ", []byte{1, 2, 3}).
		Chunk("data", wavtest.PCM16(1, 2, 3)).
		Bytes()

	chunks, err := scanAll(t, data, StandardRIFF, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	want := []ChunkDescriptor{
		{Tag: TagFmt, DeclaredSize: 16, Offset: 20, Size: 16},
		{Tag: FourCC{'o', 'd', 'd', ' '}, DeclaredSize: 3, Offset: 44, Size: 3},
		{Tag: TagData, DeclaredSize: 6, Offset: 56, Size: 6},
	}

	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}

	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %+v, want %+v", i, chunks[i], want[i])
		}
	}
}

func TestChunkScannerMissingFinalPad(t *testing.T) {
	data := wavtest.NewRIFF().
		Chunk("fmt ", wavtest.PCMFormat(1, 8000, 8)).
		Chunk("data", wavtest.PCM8(1, 2, 3)).
		Bytes()
	data = data[:len(data)-1]

	chunks, err := scanAll(t, data, StandardRIFF, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(chunks) != 2 || chunks[1].Size != 3 {
		t.Fatalf("chunks=%+v", chunks)
	}
}

func TestChunkScannerErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		kind    ContainerKind
		wantErr error
	}{
		{
			name: "truncated header",
			data: wavtest.NewRIFF().
				Chunk("fmt ", wavtest.PCMFormat(1, 8000, 8)).
				Trailing([]byte("dat")).
				Bytes(),
			kind:    StandardRIFF,
			wantErr: ErrTruncatedChunkHeader,
		},
		{
			name: "body past end",
			data: wavtest.NewRIFF().
				ChunkWithSize("data", 100, []byte{1, 2}).
				Bytes(),
			kind:    StandardRIFF,
			wantErr: ErrTruncatedChunkBody,
		},
		{
			name: "placeholder before ds64",
			data: wavtest.NewRF64().NoDS64().
				ChunkWithSize("bext", wavtest.Placeholder, nil).
				Bytes(),
			kind:    RF64,
			wantErr: ErrMissingSizeOverride,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scanAll(t, tt.data, tt.kind, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err=%v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChunkScannerStickyErrorAndReset(t *testing.T) {
	data := wavtest.NewRIFF().
		Chunk("fmt ", wavtest.PCMFormat(1, 8000, 8)).
		ChunkWithSize("data", 100, []byte{1, 2}).
		Bytes()

	s := NewChunkScanner(bytes.NewReader(data), riffHeaderSize, int64(len(data)), StandardRIFF)

	if _, err := s.Next(); err != nil {
		t.Fatalf("first chunk: %v", err)
	}

	_, err := s.Next()
	if !errors.Is(err, ErrTruncatedChunkBody) {
		t.Fatalf("second chunk err=%v", err)
	}

	if _, again := s.Next(); !errors.Is(again, ErrTruncatedChunkBody) {
		t.Fatalf("error not sticky: %v", again)
	}

	s.Reset()

	if s.Offset() != riffHeaderSize {
		t.Fatalf("offset after reset=%d", s.Offset())
	}

	desc, err := s.Next()
	if err != nil || desc.Tag != TagFmt {
		t.Fatalf("after reset: %+v, %v", desc, err)
	}
}

func TestChunkScannerEOF(t *testing.T) {
	data := wavtest.NewRIFF().Chunk("data", nil).Bytes()
	s := NewChunkScanner(bytes.NewReader(data), riffHeaderSize, int64(len(data)), StandardRIFF)

	if _, err := s.Next(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v, want io.EOF", err)
	}
}

func TestChunkScannerIOFailure(t *testing.T) {
	data := wavtest.NewRIFF().Chunk("fmt ", wavtest.PCMFormat(1, 8000, 8)).Bytes()
	src := &wavtest.FailingReaderAt{R: bytes.NewReader(data), FailFrom: 0}
	src.Arm()

	s := NewChunkScanner(src, riffHeaderSize, int64(len(data)), StandardRIFF)

	_, err := s.Next()
	if !errors.Is(err, ErrIO) || !errors.Is(err, wavtest.ErrInjected) {
		t.Fatalf("err=%v, want ErrIO wrapping the source error", err)
	}
}

func TestChunkScannerStandardRIFFIgnoresPlaceholderSemantics(t *testing.T) {
	// a standard RIFF chunk declaring 0xFFFFFFFF keeps that size and so
	// overruns the stream
	data := wavtest.NewRIFF().ChunkWithSize("data", wavtest.Placeholder, []byte{0, 0}).Bytes()

	_, err := scanAll(t, data, StandardRIFF, &DS64{DataSize: 2})
	if !errors.Is(err, ErrTruncatedChunkBody) {
		t.Fatalf("err=%v, want ErrTruncatedChunkBody", err)
	}
}
