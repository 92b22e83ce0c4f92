package bwav

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/google/uuid"
)

// Format tags found in the fmt chunk or in the first two bytes of an
// extensible sub-format.
const (
	FormatPCM        uint16 = 0x0001
	FormatADPCM      uint16 = 0x0002
	FormatIEEEFloat  uint16 = 0x0003
	FormatALaw       uint16 = 0x0006
	FormatMuLaw      uint16 = 0x0007
	FormatMPEG       uint16 = 0x0050
	FormatExtensible uint16 = 0xFFFE
)

const (
	fmtMinimalSize      = 16
	fmtExtensionMinSize = 22
)

var (
	// KSDATAFORMAT_SUBTYPE_* GUIDs share this tail after the format tag.
	ksSubFormatTail = [12]byte{0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

	ambisonicPCM   = guidFromUUID(uuid.MustParse("00000001-0721-11d3-8644-c8c1ca000000"))
	ambisonicFloat = guidFromUUID(uuid.MustParse("00000003-0721-11d3-8644-c8c1ca000000"))
)

// FormatExtension carries the WAVE_FORMAT_EXTENSIBLE fields.
type FormatExtension struct {
	ValidBitsPerSample uint16
	ChannelMask        uint32
	// SubFormat is the sub-format GUID in its on-disk byte order.
	SubFormat [16]byte
}

// SubFormatID returns the sub-format GUID in canonical form.
func (e FormatExtension) SubFormatID() uuid.UUID {
	return uuidFromGUID(e.SubFormat)
}

// Format describes the samples of a file, whichever fmt layout was on disk.
type Format struct {
	// Tag is the effective format code. For extensible files it is taken from
	// the sub-format GUID.
	Tag uint16
	// DeclaredTag is the format code stored in the fmt chunk.
	DeclaredTag   uint16
	ChannelCount  uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	// Extended is set when the fmt chunk uses the extensible layout.
	Extended *FormatExtension
}

// DecodeFormat decodes a fmt chunk payload. Unknown format tags are not an
// error here; they are rejected when audio frames are requested.
func DecodeFormat(payload []byte) (Format, error) {
	if len(payload) < fmtMinimalSize {
		return Format{}, fmt.Errorf("%w: fmt is %d bytes, need %d", ErrMalformedChunk, len(payload), fmtMinimalSize)
	}

	chunk := &riff.Chunk{
		ID:   TagFmt,
		Size: len(payload),
		R:    bytes.NewReader(payload),
	}

	var head struct {
		FormatTag     uint16
		ChannelCount  uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}

	err := chunk.ReadLE(&head)
	if err != nil {
		return Format{}, fmt.Errorf("failed to read fmt chunk: %w", err)
	}

	f := Format{
		Tag:           head.FormatTag,
		DeclaredTag:   head.FormatTag,
		ChannelCount:  head.ChannelCount,
		SampleRate:    head.SampleRate,
		ByteRate:      head.ByteRate,
		BlockAlign:    head.BlockAlign,
		BitsPerSample: head.BitsPerSample,
	}

	if head.FormatTag != FormatExtensible || len(payload) < fmtMinimalSize+2 {
		return f, nil
	}

	var extSize uint16

	err = chunk.ReadLE(&extSize)
	if err != nil {
		return Format{}, fmt.Errorf("failed to read fmt extension size: %w", err)
	}

	if extSize < fmtExtensionMinSize || len(payload) < fmtMinimalSize+2+fmtExtensionMinSize {
		return f, nil
	}

	ext := &FormatExtension{}

	err = chunk.ReadLE(&ext.ValidBitsPerSample)
	if err != nil {
		return Format{}, fmt.Errorf("failed to read valid bits per sample: %w", err)
	}

	err = chunk.ReadLE(&ext.ChannelMask)
	if err != nil {
		return Format{}, fmt.Errorf("failed to read channel mask: %w", err)
	}

	err = chunk.ReadLE(&ext.SubFormat)
	if err != nil {
		return Format{}, fmt.Errorf("failed to read sub-format: %w", err)
	}

	f.Extended = ext
	f.Tag = binary.LittleEndian.Uint16(ext.SubFormat[:2])

	return f, nil
}

// Clone returns a deep copy.
func (f Format) Clone() Format {
	if f.Extended != nil {
		ext := *f.Extended
		f.Extended = &ext
	}

	return f
}

// IsExtensible reports if the fmt chunk used the extensible layout.
func (f Format) IsExtensible() bool {
	return f.Extended != nil
}

// IsFloat reports if samples are IEEE floating point.
func (f Format) IsFloat() bool {
	return f.Tag == FormatIEEEFloat
}

// IsInteger reports if samples are linear integer PCM.
func (f Format) IsInteger() bool {
	return f.Tag == FormatPCM
}

// IsAmbisonic reports if the sub-format is one of the AMBISONIC_B_FORMAT GUIDs.
func (f Format) IsAmbisonic() bool {
	if f.Extended == nil {
		return false
	}

	return f.Extended.SubFormat == ambisonicPCM || f.Extended.SubFormat == ambisonicFloat
}

// ContainerBytesPerSample returns the bytes one sample of one channel
// occupies in a frame.
func (f Format) ContainerBytesPerSample() int {
	if f.ChannelCount == 0 {
		return 0
	}

	return int(f.BlockAlign) / int(f.ChannelCount)
}

// ExpectedBlockAlign returns the block alignment implied by the channel count
// and bit depth.
func (f Format) ExpectedBlockAlign() uint16 {
	return f.ChannelCount * uint16(bytesPerSample(int(f.BitsPerSample)))
}

// Speakers returns the speaker positions named by the channel mask, in
// channel order. It returns nil without an extensible channel mask.
func (f Format) Speakers() []SpeakerPosition {
	if f.Extended == nil {
		return nil
	}

	return speakersFromMask(f.Extended.ChannelMask)
}

// AudioFormat converts to the go-audio representation.
func (f Format) AudioFormat() *audio.Format {
	return &audio.Format{
		NumChannels: int(f.ChannelCount),
		SampleRate:  int(f.SampleRate),
	}
}

// FormatName returns a short name for a format tag.
func FormatName(tag uint16) string {
	switch tag {
	case FormatPCM:
		return "PCM"
	case FormatADPCM:
		return "ADPCM"
	case FormatIEEEFloat:
		return "IEEE float"
	case FormatALaw:
		return "A-law"
	case FormatMuLaw:
		return "mu-law"
	case FormatMPEG:
		return "MPEG"
	case FormatExtensible:
		return "extensible"
	default:
		return fmt.Sprintf("format 0x%04X", tag)
	}
}

// SubFormatGUID returns the KSDATAFORMAT sub-format GUID for a format tag, in
// on-disk byte order.
func SubFormatGUID(formatTag uint16) [16]byte {
	var guid [16]byte
	binary.LittleEndian.PutUint32(guid[:4], uint32(formatTag))
	copy(guid[4:], ksSubFormatTail[:])

	return guid
}

// GUIDs store their first three fields little endian.
func uuidFromGUID(g [16]byte) uuid.UUID {
	var u uuid.UUID
	copy(u[:], g[:])
	u[0], u[1], u[2], u[3] = g[3], g[2], g[1], g[0]
	u[4], u[5] = g[5], g[4]
	u[6], u[7] = g[7], g[6]

	return u
}

func guidFromUUID(u uuid.UUID) [16]byte {
	var g [16]byte
	copy(g[:], u[:])
	g[0], g[1], g[2], g[3] = u[3], u[2], u[1], u[0]
	g[4], g[5] = u[5], u[4]
	g[6], g[7] = u[7], u[6]

	return g
}

func bytesPerSample(bitDepth int) int {
	if bitDepth <= 0 {
		return 0
	}

	return (bitDepth-1)/8 + 1
}
