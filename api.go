package bwav

import (
	"fmt"
	"time"
)

// Container returns the container kind.
func (r *Reader) Container() ContainerKind {
	return r.kind
}

// FormTag returns the outer form tag: RIFF, RF64 or BW64.
func (r *Reader) FormTag() FourCC {
	return r.form
}

// RIFFSize returns the container size, taken from ds64 for RF64 files.
func (r *Reader) RIFFSize() uint64 {
	return r.riffSize
}

// Size returns the length of the underlying byte source.
func (r *Reader) Size() int64 {
	return r.size
}

// DS64 returns a copy of the ds64 chunk, or nil for standard RIFF files.
func (r *Reader) DS64() *DS64 {
	return r.ds64.Clone()
}

// Index returns the chunk index.
func (r *Reader) Index() *ChunkIndex {
	return r.index
}

// Chunks returns a copy of the chunk descriptors in on-disk order.
func (r *Reader) Chunks() []ChunkDescriptor {
	return r.index.All()
}

// Format returns the decoded fmt chunk.
func (r *Reader) Format() (Format, error) {
	f, err := r.format()
	if err != nil {
		return Format{}, err
	}

	return f.Clone(), nil
}

// FrameLength returns the number of whole frames in the data chunk.
func (r *Reader) FrameLength() (uint64, error) {
	f, err := r.format()
	if err != nil {
		return 0, err
	}

	if f.BlockAlign == 0 {
		return 0, fmt.Errorf("%w: block align is 0", ErrMalformedChunk)
	}

	data, _ := r.index.Find(TagData)

	return data.Size / uint64(f.BlockAlign), nil
}

// Duration returns the play time of the data chunk.
func (r *Reader) Duration() (time.Duration, error) {
	frames, err := r.FrameLength()
	if err != nil {
		return 0, err
	}

	f, _ := r.format()

	return framesDuration(frames, f.SampleRate), nil
}

// SampleCount returns the fact chunk's sample count, corrected through ds64
// for RF64 files.
func (r *Reader) SampleCount() (uint64, error) {
	return r.factSampleCount()
}

// BroadcastExtension returns the decoded bext chunk.
func (r *Reader) BroadcastExtension() (*BroadcastExtension, error) {
	bext, err := r.bext()
	if err != nil {
		return nil, err
	}

	return bext.Clone(), nil
}

// UMID returns the UMID stored in the bext chunk. It returns nil without an
// error when the bext chunk carries no UMID.
func (r *Reader) UMID() (*UMID, error) {
	bext, err := r.bext()
	if err != nil {
		return nil, err
	}

	return bext.DecodedUMID(), nil
}

// ChannelMap returns the decoded chna chunk.
func (r *Reader) ChannelMap() (ChannelMap, error) {
	m, err := r.chna()
	if err != nil {
		return nil, err
	}

	return m.Clone(), nil
}

// IXML returns the raw iXML chunk.
func (r *Reader) IXML() ([]byte, error) {
	return r.chunkPayload(TagIXML)
}

// AXML returns the raw ADM XML chunk.
func (r *Reader) AXML() ([]byte, error) {
	return r.chunkPayload(TagAXML)
}

// ChunkPayload returns the payload of the first chunk carrying tag.
func (r *Reader) ChunkPayload(tag FourCC) ([]byte, error) {
	return r.chunkPayload(tag)
}

// AudioFrameReader returns a new frame reader positioned at frame 0.
func (r *Reader) AudioFrameReader() (*AudioFrameReader, error) {
	f, err := r.format()
	if err != nil {
		return nil, err
	}

	data, _ := r.index.Find(TagData)

	return NewAudioFrameReader(r.src, data, f)
}

// Validate checks the file against the regimes of policy.
func (r *Reader) Validate(policy ValidationPolicy) Report {
	in := ValidationInput{
		Container:  r.kind,
		RIFFSize:   r.riffSize,
		StreamSize: uint64(r.size),
		Index:      r.index,
		DS64:       r.ds64,
	}

	f, err := r.format()
	if err != nil {
		in.FormatErr = err
	} else {
		in.Format = &f
	}

	if bext, err := r.bext(); err == nil {
		in.BroadcastExtension = bext
	}

	return Validate(in, policy)
}
