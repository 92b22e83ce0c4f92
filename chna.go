package bwav

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// chna layout, ITU-R BS.2088.
const (
	chnaHeaderSize     = 4
	chnaEntrySize      = 40
	chnaTrackUIDLen    = 12
	chnaTrackFormatLen = 14
	chnaPackFormatLen  = 11
)

// ChannelDescriptor describes one channel of the file.
type ChannelDescriptor struct {
	// ChannelIndex is the 0-based channel in each frame.
	ChannelIndex uint16
	// Speaker comes from the fmt channel mask, SpeakerUnassigned without one.
	Speaker SpeakerPosition
	// Tracks lists the ADM references chna assigns to the channel, in
	// on-disk order. There is at least one.
	Tracks []ADMTrack
}

// ADMTrack is one chna entry.
type ADMTrack struct {
	TrackUID       string
	TrackFormatRef string
	PackFormatRef  string
}

// ChannelMap is the decoded chna chunk, one descriptor per channel.
type ChannelMap []ChannelDescriptor

// DecodeChannelMap decodes a chna chunk payload against the file's format.
// The track count of the chunk must equal the format's channel count and
// every channel needs at least one entry.
func DecodeChannelMap(payload []byte, format Format) (ChannelMap, error) {
	if len(payload) < chnaHeaderSize {
		return nil, fmt.Errorf("%w: chna is %d bytes", ErrMalformedChunk, len(payload))
	}

	numTracks := binary.LittleEndian.Uint16(payload[0:2])
	numUIDs := binary.LittleEndian.Uint16(payload[2:4])

	if numTracks != format.ChannelCount {
		return nil, fmt.Errorf("%w: chna lists %d tracks, fmt declares %d channels",
			ErrChannelCountMismatch, numTracks, format.ChannelCount)
	}

	if chnaHeaderSize+int(numUIDs)*chnaEntrySize > len(payload) {
		return nil, fmt.Errorf("%w: chna declares %d entries in %d bytes", ErrMalformedChunk, numUIDs, len(payload))
	}

	speakers := format.Speakers()
	out := make(ChannelMap, format.ChannelCount)

	for ch := range out {
		out[ch] = ChannelDescriptor{
			ChannelIndex: uint16(ch),
			Speaker:      SpeakerUnassigned,
		}

		if ch < len(speakers) {
			out[ch].Speaker = speakers[ch]
		}
	}

	for i := range int(numUIDs) {
		entry := payload[chnaHeaderSize+i*chnaEntrySize : chnaHeaderSize+(i+1)*chnaEntrySize]

		trackIndex := binary.LittleEndian.Uint16(entry[0:2])
		if trackIndex == 0 {
			// unused slot
			continue
		}

		if trackIndex > format.ChannelCount {
			return nil, fmt.Errorf("%w: chna entry %d refers to track %d of %d",
				ErrChannelCountMismatch, i, trackIndex, format.ChannelCount)
		}

		desc := &out[trackIndex-1]
		desc.Tracks = append(desc.Tracks, ADMTrack{
			TrackUID:       chnaString(entry[2 : 2+chnaTrackUIDLen]),
			TrackFormatRef: chnaString(entry[14 : 14+chnaTrackFormatLen]),
			PackFormatRef:  chnaString(entry[28 : 28+chnaPackFormatLen]),
		})
	}

	for _, desc := range out {
		if len(desc.Tracks) == 0 {
			return nil, fmt.Errorf("%w: chna assigns no track to channel %d of %d",
				ErrChannelCountMismatch, desc.ChannelIndex, format.ChannelCount)
		}
	}

	return out, nil
}

// Channel returns the descriptor of a 0-based channel.
func (m ChannelMap) Channel(index uint16) (ChannelDescriptor, bool) {
	if int(index) >= len(m) {
		return ChannelDescriptor{}, false
	}

	return m[index], true
}

// Clone returns a deep copy.
func (m ChannelMap) Clone() ChannelMap {
	if m == nil {
		return nil
	}

	out := make(ChannelMap, len(m))
	for i, d := range m {
		d.Tracks = append([]ADMTrack(nil), d.Tracks...)
		out[i] = d
	}

	return out
}

func chnaString(b []byte) string {
	return strings.TrimRight(nullTermStr(b), " ")
}
