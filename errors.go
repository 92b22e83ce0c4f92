package bwav

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedChunkHeader is returned when fewer than 8 bytes remain where
	// a chunk header is expected.
	ErrTruncatedChunkHeader = errors.New("truncated chunk header")
	// ErrTruncatedChunkBody is returned when a chunk's size points past the end
	// of the stream.
	ErrTruncatedChunkBody = errors.New("truncated chunk body")
	// ErrMissingSizeOverride is returned when a chunk declares the RF64 size
	// placeholder but the ds64 chunk carries no size for it.
	ErrMissingSizeOverride = errors.New("missing ds64 size override")
	// ErrMissingRequiredChunk is returned when a chunk needed for an operation
	// is not present in the file.
	ErrMissingRequiredChunk = errors.New("required chunk missing")
	// ErrUnsupportedFormatTag is returned when audio samples are requested from
	// a format this package can't decode.
	ErrUnsupportedFormatTag = errors.New("unsupported format tag")
	// ErrChannelCountMismatch is returned when a channel map doesn't describe
	// the same number of channels as the fmt chunk.
	ErrChannelCountMismatch = errors.New("channel count mismatch")
	// ErrFormatMismatch is returned when integer samples are requested from a
	// floating point file or the other way around.
	ErrFormatMismatch = errors.New("sample format mismatch")
	// ErrIO wraps failures of the underlying byte source.
	ErrIO = errors.New("i/o failure")

	// ErrNotWave is returned when the stream isn't a RIFF, RF64 or BW64 WAVE
	// container.
	ErrNotWave = errors.New("not a WAVE container")
	// ErrMalformedChunk is returned when a chunk payload is too short or
	// internally inconsistent.
	ErrMalformedChunk = errors.New("malformed chunk")
)

func ioFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

func missingChunk(tag FourCC) error {
	return fmt.Errorf("%w: %s", ErrMissingRequiredChunk, tag)
}
