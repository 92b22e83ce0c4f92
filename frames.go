package bwav

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
)

type sampleKind int

const (
	sampleInteger sampleKind = iota + 1
	sampleFloat
)

// 8-bit PCM is unsigned and centred on this value.
const pcm8Center = 128

// AudioFrameReader reads interleaved frames from the data chunk.
// It keeps its own frame cursor; one reader must not be shared between
// goroutines, but several readers may share an io.ReaderAt that supports
// concurrent ReadAt calls, such as *os.File.
type AudioFrameReader struct {
	r      io.ReaderAt
	offset uint64
	size   uint64
	format Format
	kind   sampleKind
	width  int
	frames uint64
	cursor uint64
	frame  []byte
	bulk   []byte
}

// NewAudioFrameReader returns a frame reader over the data chunk described by
// data. It fails with ErrUnsupportedFormatTag when the format's samples can't
// be decoded.
func NewAudioFrameReader(r io.ReaderAt, data ChunkDescriptor, format Format) (*AudioFrameReader, error) {
	kind, width, err := sampleLayout(format)
	if err != nil {
		return nil, err
	}

	return &AudioFrameReader{
		r:      r,
		offset: data.Offset,
		size:   data.Size,
		format: format.Clone(),
		kind:   kind,
		width:  width,
		frames: data.Size / uint64(format.BlockAlign),
		frame:  make([]byte, format.BlockAlign),
	}, nil
}

func sampleLayout(f Format) (sampleKind, int, error) {
	if f.ChannelCount == 0 || f.BlockAlign == 0 || f.BlockAlign%f.ChannelCount != 0 {
		return 0, 0, fmt.Errorf("%w: %d channels with block align %d", ErrMalformedChunk, f.ChannelCount, f.BlockAlign)
	}

	width := f.ContainerBytesPerSample()

	switch f.Tag {
	case FormatPCM:
		if width >= 1 && width <= 4 {
			return sampleInteger, width, nil
		}
	case FormatIEEEFloat:
		if width == 4 || width == 8 {
			return sampleFloat, width, nil
		}
	default:
		return 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedFormatTag, FormatName(f.Tag))
	}

	return 0, 0, fmt.Errorf("%w: %s with %d-byte samples", ErrUnsupportedFormatTag, FormatName(f.Tag), width)
}

// Format returns the format frames are decoded with.
func (fr *AudioFrameReader) Format() Format {
	return fr.format.Clone()
}

// FrameLength returns the number of whole frames in the data chunk.
func (fr *AudioFrameReader) FrameLength() uint64 {
	return fr.frames
}

// Position returns the index of the next frame to be read.
func (fr *AudioFrameReader) Position() uint64 {
	return fr.cursor
}

// Seek moves the cursor to a frame index and returns it. Seeking past the
// last frame is allowed; the next read then reports 0 frames.
func (fr *AudioFrameReader) Seek(frame uint64) uint64 {
	fr.cursor = frame
	return fr.cursor
}

// CreateIntFrameBuffer returns a buffer holding one integer frame.
func (fr *AudioFrameReader) CreateIntFrameBuffer() []int32 {
	return make([]int32, fr.format.ChannelCount)
}

// CreateFloatFrameBuffer returns a buffer holding one floating point frame.
func (fr *AudioFrameReader) CreateFloatFrameBuffer() []float32 {
	return make([]float32, fr.format.ChannelCount)
}

// ReadIntegerFrame decodes the frame at the cursor into buf, one sample per
// channel, and advances the cursor. It returns 1, or 0 once no whole frame is
// left. 8-bit samples are re-centred around zero.
func (fr *AudioFrameReader) ReadIntegerFrame(buf []int32) (int, error) {
	if fr.kind != sampleInteger {
		return 0, fmt.Errorf("%w: %s samples can't be read as integers", ErrFormatMismatch, FormatName(fr.format.Tag))
	}

	err := fr.checkFrameBuffer(len(buf))
	if err != nil {
		return 0, err
	}

	ok, err := fr.readFrame()
	if !ok || err != nil {
		return 0, err
	}

	for ch := range int(fr.format.ChannelCount) {
		buf[ch] = decodeIntSample(fr.frame[ch*fr.width:], fr.width)
	}

	fr.cursor++

	return 1, nil
}

// ReadFloatFrame decodes the frame at the cursor into buf and advances the
// cursor. It returns 1, or 0 once no whole frame is left. 64-bit samples are
// narrowed to float32.
func (fr *AudioFrameReader) ReadFloatFrame(buf []float32) (int, error) {
	if fr.kind != sampleFloat {
		return 0, fmt.Errorf("%w: %s samples can't be read as floats", ErrFormatMismatch, FormatName(fr.format.Tag))
	}

	err := fr.checkFrameBuffer(len(buf))
	if err != nil {
		return 0, err
	}

	ok, err := fr.readFrame()
	if !ok || err != nil {
		return 0, err
	}

	for ch := range int(fr.format.ChannelCount) {
		buf[ch] = decodeFloatSample(fr.frame[ch*fr.width:], fr.width)
	}

	fr.cursor++

	return 1, nil
}

// ReadIntBuffer fills buf.Data with as many whole frames as fit and returns
// the number of frames read.
func (fr *AudioFrameReader) ReadIntBuffer(buf *audio.IntBuffer) (int, error) {
	if buf == nil {
		return 0, nil
	}

	if fr.kind != sampleInteger {
		return 0, fmt.Errorf("%w: %s samples can't be read as integers", ErrFormatMismatch, FormatName(fr.format.Tag))
	}

	raw, n, err := fr.readFrames(len(buf.Data))
	if n == 0 || err != nil {
		return 0, err
	}

	for i := range n * int(fr.format.ChannelCount) {
		buf.Data[i] = int(decodeIntSample(raw[i*fr.width:], fr.width))
	}

	buf.Format = fr.format.AudioFormat()
	buf.SourceBitDepth = fr.width * 8

	return n, nil
}

// ReadFloat32Buffer fills buf.Data with as many whole frames as fit and
// returns the number of frames read.
func (fr *AudioFrameReader) ReadFloat32Buffer(buf *audio.Float32Buffer) (int, error) {
	if buf == nil {
		return 0, nil
	}

	if fr.kind != sampleFloat {
		return 0, fmt.Errorf("%w: %s samples can't be read as floats", ErrFormatMismatch, FormatName(fr.format.Tag))
	}

	raw, n, err := fr.readFrames(len(buf.Data))
	if n == 0 || err != nil {
		return 0, err
	}

	for i := range n * int(fr.format.ChannelCount) {
		buf.Data[i] = decodeFloatSample(raw[i*fr.width:], fr.width)
	}

	buf.Format = fr.format.AudioFormat()
	buf.SourceBitDepth = fr.width * 8

	return n, nil
}

func (fr *AudioFrameReader) checkFrameBuffer(n int) error {
	if n < int(fr.format.ChannelCount) {
		return fmt.Errorf("%w: frame buffer holds %d samples, need %d", audio.ErrInvalidBuffer, n, fr.format.ChannelCount)
	}

	return nil
}

// readFrame loads the frame at the cursor. The cursor is left alone.
func (fr *AudioFrameReader) readFrame() (bool, error) {
	if fr.cursor >= fr.frames {
		return false, nil
	}

	pos := fr.offset + fr.cursor*uint64(fr.format.BlockAlign)

	err := readFullAt(fr.r, fr.frame, int64(pos))
	if err != nil {
		return false, ioFailure(fmt.Sprintf("read frame %d", fr.cursor), err)
	}

	return true, nil
}

// readFrames loads up to samples/channels frames and advances the cursor.
func (fr *AudioFrameReader) readFrames(samples int) ([]byte, int, error) {
	if fr.cursor >= fr.frames {
		return nil, 0, nil
	}

	want := uint64(samples / int(fr.format.ChannelCount))
	want = min(want, fr.frames-fr.cursor)

	if want == 0 {
		return nil, 0, nil
	}

	size := int(want) * int(fr.format.BlockAlign)
	if cap(fr.bulk) < size {
		fr.bulk = make([]byte, size)
	}

	raw := fr.bulk[:size]
	pos := fr.offset + fr.cursor*uint64(fr.format.BlockAlign)

	err := readFullAt(fr.r, raw, int64(pos))
	if err != nil {
		return nil, 0, ioFailure(fmt.Sprintf("read frames from %d", fr.cursor), err)
	}

	fr.cursor += want

	return raw, int(want), nil
}

// decodeIntSample converts one little-endian sample of width bytes.
func decodeIntSample(b []byte, width int) int32 {
	switch width {
	case 1:
		return int32(b[0]) - pcm8Center
	case 2:
		return int32(int16(binary.LittleEndian.Uint16(b)))
	case 3:
		return audio.Int24LETo32(b[:3])
	default:
		return int32(binary.LittleEndian.Uint32(b))
	}
}

func decodeFloatSample(b []byte, width int) float32 {
	if width == 8 {
		return float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	}

	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
