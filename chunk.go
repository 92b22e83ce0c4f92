package bwav

import (
	"strings"

	"github.com/go-audio/riff"
)

// FourCC is a four character chunk or form identifier.
type FourCC [4]byte

func (f FourCC) String() string {
	return strings.TrimRight(string(f[:]), "\x00")
}

var (
	// TagRIFF is the form tag of a standard RIFF container.
	TagRIFF = FourCC(riff.RiffID)
	// TagRF64 is the form tag of an EBU RF64 container.
	TagRF64 = FourCC{'R', 'F', '6', '4'}
	// TagBW64 is the form tag of an ITU-R BS.2088 BW64 container.
	TagBW64 = FourCC{'B', 'W', '6', '4'}
	// TagWAVE is the form type shared by every supported container.
	TagWAVE = FourCC(riff.WavFormatID)

	// TagFmt is the chunk ID of the format chunk.
	TagFmt = FourCC(riff.FmtID)
	// TagData is the chunk ID of the audio data chunk.
	TagData = FourCC(riff.DataFormatID)
	// TagDS64 is the chunk ID of the RF64 size override chunk.
	TagDS64 = FourCC{'d', 's', '6', '4'}
	// TagFact is the chunk ID of the fact chunk.
	TagFact = FourCC{'f', 'a', 'c', 't'}
	// TagBext is the chunk ID of the broadcast extension chunk.
	TagBext = FourCC{'b', 'e', 'x', 't'}
	// TagChna is the chunk ID of the BS.2088 channel allocation chunk.
	TagChna = FourCC{'c', 'h', 'n', 'a'}
	// TagIXML is the chunk ID of the iXML chunk.
	TagIXML = FourCC{'i', 'X', 'M', 'L'}
	// TagAXML is the chunk ID of the ADM XML chunk.
	TagAXML = FourCC{'a', 'x', 'm', 'l'}
	// TagJunk is the chunk ID of a filler chunk.
	TagJunk = FourCC{'J', 'U', 'N', 'K'}
	// TagFLLR is the chunk ID of the Pro Tools filler chunk.
	TagFLLR = FourCC{'F', 'L', 'L', 'R'}
)

// ChunkDescriptor locates one chunk in the container.
type ChunkDescriptor struct {
	Tag FourCC
	// DeclaredSize is the 32-bit size found in the chunk header.
	DeclaredSize uint32
	// Offset is the absolute position of the chunk payload.
	Offset uint64
	// Size is the payload size after ds64 correction, without the pad byte.
	Size uint64
}

// HeaderOffset returns the absolute position of the chunk header.
func (c ChunkDescriptor) HeaderOffset() uint64 {
	return c.Offset - chunkHeaderSize
}

// End returns the position following the payload and its pad byte.
func (c ChunkDescriptor) End() uint64 {
	return c.Offset + c.Size + c.Size&1
}

// Corrected reports if the payload size was taken from a ds64 chunk.
func (c ChunkDescriptor) Corrected() bool {
	return c.Size != uint64(c.DeclaredSize)
}

// ChunkIndex is the ordered, read-only list of the chunks of a file.
type ChunkIndex struct {
	chunks []ChunkDescriptor
	first  map[FourCC]int
}

func newChunkIndex(chunks []ChunkDescriptor) *ChunkIndex {
	idx := &ChunkIndex{
		chunks: chunks,
		first:  make(map[FourCC]int, len(chunks)),
	}

	for i, c := range chunks {
		if _, ok := idx.first[c.Tag]; !ok {
			idx.first[c.Tag] = i
		}
	}

	return idx
}

// Len returns the number of chunks.
func (idx *ChunkIndex) Len() int {
	if idx == nil {
		return 0
	}

	return len(idx.chunks)
}

// All returns a copy of the descriptors in on-disk order.
func (idx *ChunkIndex) All() []ChunkDescriptor {
	if idx == nil {
		return nil
	}

	return append([]ChunkDescriptor(nil), idx.chunks...)
}

// Tags returns the chunk tags in on-disk order.
func (idx *ChunkIndex) Tags() []FourCC {
	if idx == nil {
		return nil
	}

	out := make([]FourCC, len(idx.chunks))
	for i, c := range idx.chunks {
		out[i] = c.Tag
	}

	return out
}

// Find returns the first chunk carrying tag.
func (idx *ChunkIndex) Find(tag FourCC) (ChunkDescriptor, bool) {
	i := idx.Position(tag)
	if i < 0 {
		return ChunkDescriptor{}, false
	}

	return idx.chunks[i], true
}

// FindNth returns the n-th (0-based) chunk carrying tag.
func (idx *ChunkIndex) FindNth(tag FourCC, n int) (ChunkDescriptor, bool) {
	if idx == nil {
		return ChunkDescriptor{}, false
	}

	for _, c := range idx.chunks {
		if c.Tag != tag {
			continue
		}

		if n == 0 {
			return c, true
		}

		n--
	}

	return ChunkDescriptor{}, false
}

// Position returns the on-disk ordinal of the first chunk carrying tag, or -1.
func (idx *ChunkIndex) Position(tag FourCC) int {
	if idx == nil {
		return -1
	}

	i, ok := idx.first[tag]
	if !ok {
		return -1
	}

	return i
}
