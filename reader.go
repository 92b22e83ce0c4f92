package bwav

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

// ContainerKind tells a standard RIFF file from a 64-bit one.
type ContainerKind int

const (
	// StandardRIFF is a RIFF/WAVE container with 32-bit sizes.
	StandardRIFF ContainerKind = iota
	// RF64 is an RF64 or BW64 container whose sizes live in a ds64 chunk.
	RF64
)

func (k ContainerKind) String() string {
	switch k {
	case StandardRIFF:
		return "RIFF"
	case RF64:
		return "RF64"
	default:
		return fmt.Sprintf("ContainerKind(%d)", int(k))
	}
}

// Metadata chunks larger than this are not loaded in memory.
const maxPayloadSize = 64 << 20

// Reader gives access to a WAVE, Broadcast-WAVE, RF64 or BW64 file.
//
// The chunk index is built once by Open or NewReader and never changes.
// Format and metadata are decoded on first use.
type Reader struct {
	src    io.ReaderAt
	closer io.Closer
	size   int64

	form     FourCC
	kind     ContainerKind
	riffSize uint64
	ds64     *DS64
	index    *ChunkIndex

	format func() (Format, error)
	bext   func() (*BroadcastExtension, error)
	chna   func() (ChannelMap, error)
}

// Open opens the file at path. The returned Reader owns the file handle and
// must be closed.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ioFailure("open", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, ioFailure("stat", err)
	}

	r, err := NewReader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, err
	}

	r.closer = file

	return r, nil
}

// NewReader indexes the size bytes of src. Structural errors, a missing ds64
// in an RF64 file and a missing fmt or data chunk fail the call.
func NewReader(src io.ReaderAt, size int64) (*Reader, error) {
	r := &Reader{
		src:  src,
		size: size,
	}

	err := r.readHeader()
	if err != nil {
		return nil, err
	}

	err = r.buildIndex()
	if err != nil {
		return nil, err
	}

	for _, tag := range []FourCC{TagFmt, TagData} {
		if _, ok := r.index.Find(tag); !ok {
			return nil, missingChunk(tag)
		}
	}

	r.format = sync.OnceValues(r.decodeFormat)
	r.bext = sync.OnceValues(r.decodeBroadcastExtension)
	r.chna = sync.OnceValues(r.decodeChannelMap)

	return r, nil
}

// Close closes the file opened by Open. It is a no-op for readers built with
// NewReader.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}

	err := r.closer.Close()
	r.closer = nil

	return err
}

func (r *Reader) readHeader() error {
	if r.size < riffHeaderSize {
		return fmt.Errorf("%w: %d bytes is too short for a RIFF header", ErrNotWave, r.size)
	}

	var hdr [riffHeaderSize]byte

	err := readFullAt(r.src, hdr[:], 0)
	if err != nil {
		return ioFailure("read RIFF header", err)
	}

	r.form = FourCC(hdr[0:4])

	switch r.form {
	case TagRIFF:
		r.kind = StandardRIFF
	case TagRF64, TagBW64:
		r.kind = RF64
	default:
		return fmt.Errorf("%w: form %q", ErrNotWave, r.form.String())
	}

	if FourCC(hdr[8:12]) != TagWAVE {
		return fmt.Errorf("%w: %s form type %q", ErrNotWave, r.form, FourCC(hdr[8:12]).String())
	}

	r.riffSize = uint64(binary.LittleEndian.Uint32(hdr[4:8]))

	return nil
}

func (r *Reader) buildIndex() error {
	scanner := NewChunkScanner(r.src, riffHeaderSize, r.size, r.kind)

	var chunks []ChunkDescriptor

	for desc, err := range scanner.All() {
		if err != nil {
			return fmt.Errorf("failed to index chunks: %w", err)
		}

		if r.kind == RF64 && len(chunks) == 0 {
			err = r.useDS64(scanner, desc)
			if err != nil {
				return err
			}
		}

		chunks = append(chunks, desc)
	}

	if r.kind == RF64 && len(chunks) == 0 {
		return fmt.Errorf("%w: %s container has no ds64 chunk", ErrMissingRequiredChunk, r.form)
	}

	r.index = newChunkIndex(chunks)

	return nil
}

func (r *Reader) useDS64(scanner *ChunkScanner, desc ChunkDescriptor) error {
	if desc.Tag != TagDS64 {
		return fmt.Errorf("%w: %s container starts with %s instead of ds64", ErrMissingRequiredChunk, r.form, desc.Tag)
	}

	payload, err := r.payload(desc)
	if err != nil {
		return err
	}

	ds, err := DecodeDS64(payload)
	if err != nil {
		return fmt.Errorf("failed to decode ds64: %w", err)
	}

	r.ds64 = ds
	r.riffSize = ds.RIFFSize
	scanner.UseSizes(ds)

	return nil
}

func (r *Reader) payload(desc ChunkDescriptor) ([]byte, error) {
	if desc.Size > maxPayloadSize {
		return nil, fmt.Errorf("%w: %s payload of %d bytes is too large to load", ErrMalformedChunk, desc.Tag, desc.Size)
	}

	buf := make([]byte, desc.Size)

	err := readFullAt(r.src, buf, int64(desc.Offset))
	if err != nil {
		return nil, ioFailure(fmt.Sprintf("read %s chunk", desc.Tag), err)
	}

	return buf, nil
}

func (r *Reader) chunkPayload(tag FourCC) ([]byte, error) {
	desc, ok := r.index.Find(tag)
	if !ok {
		return nil, missingChunk(tag)
	}

	return r.payload(desc)
}

func (r *Reader) decodeFormat() (Format, error) {
	payload, err := r.chunkPayload(TagFmt)
	if err != nil {
		return Format{}, err
	}

	return DecodeFormat(payload)
}

func (r *Reader) decodeBroadcastExtension() (*BroadcastExtension, error) {
	payload, err := r.chunkPayload(TagBext)
	if err != nil {
		return nil, err
	}

	return DecodeBroadcastExtension(payload)
}

func (r *Reader) decodeChannelMap() (ChannelMap, error) {
	payload, err := r.chunkPayload(TagChna)
	if err != nil {
		return nil, err
	}

	format, err := r.format()
	if err != nil {
		return nil, err
	}

	return DecodeChannelMap(payload, format)
}

func (r *Reader) factSampleCount() (uint64, error) {
	desc, ok := r.index.Find(TagFact)
	if !ok {
		return 0, missingChunk(TagFact)
	}

	if desc.Size < 4 {
		return 0, fmt.Errorf("%w: fact is %d bytes", ErrMalformedChunk, desc.Size)
	}

	var raw [4]byte

	err := readFullAt(r.src, raw[:], int64(desc.Offset))
	if err != nil {
		return 0, ioFailure("read fact chunk", err)
	}

	count := binary.LittleEndian.Uint32(raw[:])
	if count == sizePlaceholder && r.ds64 != nil {
		return r.ds64.SampleCount, nil
	}

	return uint64(count), nil
}
