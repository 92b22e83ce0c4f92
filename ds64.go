package bwav

import (
	"bytes"
	"fmt"

	"github.com/go-audio/riff"
)

const (
	ds64BaseSize  = 28
	ds64EntrySize = 12
)

// SizeOverride is one entry of the ds64 chunk size table.
type SizeOverride struct {
	Tag  FourCC
	Size uint64
}

// DS64 holds the 64-bit sizes of an RF64/BW64 container.
type DS64 struct {
	RIFFSize    uint64
	DataSize    uint64
	SampleCount uint64
	Overrides   []SizeOverride
}

// DecodeDS64 decodes a ds64 chunk payload.
func DecodeDS64(payload []byte) (*DS64, error) {
	if len(payload) < ds64BaseSize {
		return nil, fmt.Errorf("%w: ds64 is %d bytes, need %d", ErrMalformedChunk, len(payload), ds64BaseSize)
	}

	chunk := &riff.Chunk{
		ID:   TagDS64,
		Size: len(payload),
		R:    bytes.NewReader(payload),
	}

	ds := &DS64{}

	err := chunk.ReadLE(&ds.RIFFSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read ds64 riff size: %w", err)
	}

	err = chunk.ReadLE(&ds.DataSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read ds64 data size: %w", err)
	}

	err = chunk.ReadLE(&ds.SampleCount)
	if err != nil {
		return nil, fmt.Errorf("failed to read ds64 sample count: %w", err)
	}

	var tableLen uint32

	err = chunk.ReadLE(&tableLen)
	if err != nil {
		return nil, fmt.Errorf("failed to read ds64 table length: %w", err)
	}

	if uint64(tableLen)*ds64EntrySize > uint64(len(payload)-ds64BaseSize) {
		return nil, fmt.Errorf("%w: ds64 table declares %d entries in %d bytes",
			ErrMalformedChunk, tableLen, len(payload)-ds64BaseSize)
	}

	ds.Overrides = make([]SizeOverride, tableLen)
	for i := range ds.Overrides {
		var entry struct {
			Tag  [4]byte
			Size uint64
		}

		err = chunk.ReadLE(&entry)
		if err != nil {
			return nil, fmt.Errorf("failed to read ds64 table entry %d: %w", i, err)
		}

		ds.Overrides[i] = SizeOverride{Tag: entry.Tag, Size: entry.Size}
	}

	return ds, nil
}

// Override returns the table size recorded for tag.
func (ds *DS64) Override(tag FourCC) (uint64, bool) {
	if ds == nil {
		return 0, false
	}

	for _, o := range ds.Overrides {
		if o.Tag == tag {
			return o.Size, true
		}
	}

	return 0, false
}

// ResolveSize returns the true size of a chunk given its 32-bit header size.
// The data chunk always takes the ds64 data size. Other chunks keep their
// header size unless it is the placeholder, in which case the size table must
// provide it. A nil DS64 resolves every chunk to its header size.
func (ds *DS64) ResolveSize(tag FourCC, declared uint32) (uint64, error) {
	if ds == nil {
		return uint64(declared), nil
	}

	if tag == TagData {
		return ds.DataSize, nil
	}

	if declared != sizePlaceholder {
		return uint64(declared), nil
	}

	size, ok := ds.Override(tag)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingSizeOverride, tag)
	}

	return size, nil
}

// Clone returns a deep copy.
func (ds *DS64) Clone() *DS64 {
	if ds == nil {
		return nil
	}

	out := *ds
	out.Overrides = append([]SizeOverride(nil), ds.Overrides...)

	return &out
}
