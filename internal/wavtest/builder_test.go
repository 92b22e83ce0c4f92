package wavtest

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestBuilderRIFFLayout(t *testing.T) {
	data := NewRIFF().
		Chunk("fmt ", PCMFormat(1, 44100, 16)).
		Chunk("LIST", []byte{1, 2, 3}).
		Chunk("data", PCM16(1, 2)).
		Bytes()

	if got := binary.LittleEndian.Uint32(data[4:8]); int(got) != len(data)-8 {
		t.Fatalf("riff size=%d, want %d", got, len(data)-8)
	}

	chunks, err := ParseChunks(data)
	if err != nil {
		t.Fatalf("ParseChunks: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}

	list, pos := FindChunk(chunks, "LIST")
	if list == nil || pos != 1 || list.Size != 3 {
		t.Fatalf("LIST chunk=%+v at %d", list, pos)
	}

	if _, pos := FindChunk(chunks, "bext"); pos != -1 {
		t.Fatalf("unexpected bext at %d", pos)
	}
}

func TestBuilderRF64WritesDS64(t *testing.T) {
	data := NewRF64().
		Chunk("fmt ", PCMFormat(2, 48000, 24)).
		Chunk("data", PCM24(1, 2, 3, 4)).
		SampleCount(2).
		Bytes()

	if got := binary.LittleEndian.Uint32(data[4:8]); got != Placeholder {
		t.Fatalf("header size=%#x, want placeholder", got)
	}

	if string(data[12:16]) != "ds64" {
		t.Fatalf("first chunk %q, want ds64", data[12:16])
	}

	ds := data[20:48]
	if got := binary.LittleEndian.Uint64(ds[0:]); int(got) != len(data)-8 {
		t.Fatalf("ds64 riff size=%d, want %d", got, len(data)-8)
	}

	if got := binary.LittleEndian.Uint64(ds[8:]); got != 12 {
		t.Fatalf("ds64 data size=%d, want 12", got)
	}

	if got := binary.LittleEndian.Uint64(ds[16:]); got != 2 {
		t.Fatalf("ds64 sample count=%d, want 2", got)
	}
}

func TestSparseSource(t *testing.T) {
	src := NewRF64().Chunk("fmt ", PCMFormat(1, 8000, 8)).Sparse(5 << 30)

	if want := int64(len(src.Head())) + 5<<30; src.Size() != want {
		t.Fatalf("size=%d, want %d", src.Size(), want)
	}

	buf := make([]byte, 16)

	n, err := src.ReadAt(buf, src.Size()-8)
	if n != 8 || !errors.Is(err, io.EOF) {
		t.Fatalf("ReadAt at tail: n=%d err=%v", n, err)
	}

	n, err = src.ReadAt(buf[:4], 0)
	if n != 4 || err != nil || string(buf[:4]) != "RF64" {
		t.Fatalf("ReadAt head: n=%d err=%v %q", n, err, buf[:4])
	}
}

func TestFailingReaderAt(t *testing.T) {
	src := &FailingReaderAt{R: NewSparseSource([]byte("abcdef"), 6), FailFrom: 4}
	buf := make([]byte, 2)

	src.Arm()

	if _, err := src.ReadAt(buf, 3); !errors.Is(err, ErrInjected) {
		t.Fatalf("armed read err=%v, want ErrInjected", err)
	}

	if _, err := src.ReadAt(buf, 0); err != nil {
		t.Fatalf("read before FailFrom: %v", err)
	}

	src.Disarm()

	if n, err := src.ReadAt(buf, 3); n != 2 || err != nil {
		t.Fatalf("disarmed read n=%d err=%v", n, err)
	}
}
