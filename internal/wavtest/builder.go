// Package wavtest builds synthetic WAVE, RF64 and BW64 files for tests.
package wavtest

import (
	"encoding/binary"
	"math"
)

// Placeholder is the 32-bit size RF64 writers put in headers whose real size
// lives in ds64.
const Placeholder = math.MaxUint32

// Override is one ds64 size table entry.
type Override struct {
	Tag  string
	Size uint64
}

type chunk struct {
	tag      string
	declared *uint32
	payload  []byte
}

// Builder assembles a container chunk by chunk. RF64 and BW64 builders write
// a ds64 chunk first unless RawDS64 or NoDS64 is used.
type Builder struct {
	form      string
	formType  string
	chunks    []chunk
	riffSize  *uint32
	autoDS64  bool
	rawDS64   []byte
	samples   uint64
	overrides []Override
	dataSize  *uint64
	trailing  []byte
}

// NewRIFF returns a builder for a standard RIFF/WAVE file.
func NewRIFF() *Builder {
	return &Builder{form: "RIFF", formType: "WAVE"}
}

// NewRF64 returns a builder for an RF64/WAVE file.
func NewRF64() *Builder {
	return &Builder{form: "RF64", formType: "WAVE", autoDS64: true}
}

// NewBW64 returns a builder for a BW64/WAVE file.
func NewBW64() *Builder {
	return &Builder{form: "BW64", formType: "WAVE", autoDS64: true}
}

// FormType replaces the WAVE form type.
func (b *Builder) FormType(formType string) *Builder {
	b.formType = formType
	return b
}

// Chunk appends a chunk whose header size is the payload length.
func (b *Builder) Chunk(tag string, payload []byte) *Builder {
	b.chunks = append(b.chunks, chunk{tag: tag, payload: payload})
	return b
}

// ChunkWithSize appends a chunk whose header declares size regardless of the
// payload length.
func (b *Builder) ChunkWithSize(tag string, size uint32, payload []byte) *Builder {
	b.chunks = append(b.chunks, chunk{tag: tag, declared: &size, payload: payload})
	return b
}

// RIFFSize forces the size field of the outer header.
func (b *Builder) RIFFSize(size uint32) *Builder {
	b.riffSize = &size
	return b
}

// SampleCount sets the ds64 sample count.
func (b *Builder) SampleCount(n uint64) *Builder {
	b.samples = n
	return b
}

// SizeOverride adds a ds64 table entry.
func (b *Builder) SizeOverride(tag string, size uint64) *Builder {
	b.overrides = append(b.overrides, Override{Tag: tag, Size: size})
	return b
}

// RawDS64 writes payload as the first chunk instead of a generated ds64.
func (b *Builder) RawDS64(payload []byte) *Builder {
	b.autoDS64 = false
	b.rawDS64 = payload
	return b
}

// NoDS64 leaves the ds64 chunk out.
func (b *Builder) NoDS64() *Builder {
	b.autoDS64 = false
	b.rawDS64 = nil
	return b
}

// Trailing appends raw bytes after the last chunk.
func (b *Builder) Trailing(raw []byte) *Builder {
	b.trailing = raw
	return b
}

// Bytes returns the assembled file.
func (b *Builder) Bytes() []byte {
	return b.assemble(nil)
}

// Sparse returns the file with a zero-filled data chunk of dataSize bytes
// appended as the last chunk, without allocating the audio.
func (b *Builder) Sparse(dataSize uint64) *SparseSource {
	head := b.assemble(&dataSize)
	total := uint64(len(head)) + dataSize + dataSize&1

	return NewSparseSource(head, int64(total))
}

func (b *Builder) assemble(sparseData *uint64) []byte {
	rf64 := b.form != "RIFF"

	var body []byte

	dataSize := b.virtualDataSize(sparseData)
	// virtual audio bytes following the data header
	tail := uint64(0)
	if sparseData != nil {
		tail = *sparseData + *sparseData&1
	}

	writeChunks := func(ds64 []byte) []byte {
		var out []byte
		if ds64 != nil {
			out = appendChunk(out, "ds64", uint32(len(ds64)), ds64)
		}

		for _, c := range b.chunks {
			size := uint32(len(c.payload))
			if c.declared != nil {
				size = *c.declared
			} else if rf64 && c.tag == "data" {
				size = Placeholder
			}

			out = appendChunk(out, c.tag, size, c.payload)
		}

		if sparseData != nil {
			size := uint32(Placeholder)
			if !rf64 && *sparseData < Placeholder {
				size = uint32(*sparseData)
			}

			out = append(out, b.header("data", size)...)
		}

		return out
	}

	switch {
	case b.autoDS64:
		// the ds64 size doesn't depend on its content
		probe := DS64(0, 0, 0, b.overrides...)
		riffSize := uint64(4+len(writeChunks(probe))) + tail + uint64(len(b.trailing))
		body = writeChunks(DS64(riffSize, dataSize, b.samples, b.overrides...))
	case b.rawDS64 != nil:
		body = writeChunks(b.rawDS64)
	default:
		body = writeChunks(nil)
	}

	body = append(body, b.trailing...)

	size := uint32(Placeholder)
	if !rf64 {
		total := uint64(4+len(body)) + tail
		if total < Placeholder {
			size = uint32(total)
		}
	}

	if b.riffSize != nil {
		size = *b.riffSize
	}

	out := make([]byte, 0, riffHeaderSize+len(body))
	out = append(out, b.header(b.form, size)...)
	out = append(out, b.formType...)
	out = append(out, body...)

	return out
}

func (b *Builder) virtualDataSize(sparseData *uint64) uint64 {
	if sparseData != nil {
		return *sparseData
	}

	for _, c := range b.chunks {
		if c.tag == "data" {
			return uint64(len(c.payload))
		}
	}

	return 0
}

func (b *Builder) header(tag string, size uint32) []byte {
	out := make([]byte, chunkHeaderSize)
	copy(out, tag)
	binary.LittleEndian.PutUint32(out[4:], size)

	return out
}

const (
	chunkHeaderSize = 8
	riffHeaderSize  = 12
)

func appendChunk(out []byte, tag string, size uint32, payload []byte) []byte {
	var hdr [chunkHeaderSize]byte
	copy(hdr[:], tag)
	binary.LittleEndian.PutUint32(hdr[4:], size)

	out = append(out, hdr[:]...)
	out = append(out, payload...)

	if len(payload)%2 == 1 {
		out = append(out, 0)
	}

	return out
}
