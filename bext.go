package bwav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// bext layout, EBU Tech 3285.
const (
	bextDescriptionLen         = 256
	bextOriginatorLen          = 32
	bextOriginatorReferenceLen = 32
	bextOriginationDateLen     = 10
	bextOriginationTimeLen     = 8
	bextUMIDLen                = 64
	bextLoudnessLen            = 10
	bextReservedLen            = 190
	bextBaseSize               = 602
)

var errBadOriginationStamp = errors.New("bad origination date/time")

// Loudness holds the EBU R128 values of a version 1 or later bext chunk. Values are
// stored in hundredths of LU, LUFS or dBTP.
type Loudness struct {
	Value                int16
	Range                int16
	MaxTruePeakLevel     int16
	MaxMomentaryLoudness int16
	MaxShortTermLoudness int16
}

// IntegratedLUFS returns the integrated loudness in LUFS.
func (l Loudness) IntegratedLUFS() float64 { return float64(l.Value) / 100 }

// RangeLU returns the loudness range in LU.
func (l Loudness) RangeLU() float64 { return float64(l.Range) / 100 }

// TruePeakDBTP returns the maximum true peak level in dBTP.
func (l Loudness) TruePeakDBTP() float64 { return float64(l.MaxTruePeakLevel) / 100 }

// BroadcastExtension is the decoded bext chunk.
type BroadcastExtension struct {
	Description         string
	Originator          string
	OriginatorReference string
	// OriginationDate is stored as yyyy-mm-dd.
	OriginationDate string
	// OriginationTime is stored as hh:mm:ss.
	OriginationTime string
	// TimeReference is the first sample count since midnight.
	TimeReference uint64
	Version       uint16
	// UMID is the raw SMPTE UMID field, see DecodeUMID.
	UMID [64]byte
	// Loudness is set for version 1 and later.
	Loudness      *Loudness
	Reserved      []byte
	CodingHistory string
}

// DecodeBroadcastExtension decodes a bext chunk payload. Fields missing from
// a short payload are left zero.
func DecodeBroadcastExtension(payload []byte) (*BroadcastExtension, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty bext chunk", ErrMalformedChunk)
	}

	bext := &BroadcastExtension{}
	offset := 0

	take := func(n int) []byte {
		out := make([]byte, n)
		if offset < len(payload) {
			end := min(offset+n, len(payload))
			copy(out, payload[offset:end])
		}

		offset += n

		return out
	}

	readFixedString := func(n int) string {
		s := nullTermStr(take(n))
		return strings.TrimRight(s, " ")
	}

	bext.Description = readFixedString(bextDescriptionLen)
	bext.Originator = readFixedString(bextOriginatorLen)
	bext.OriginatorReference = readFixedString(bextOriginatorReferenceLen)
	bext.OriginationDate = readFixedString(bextOriginationDateLen)
	bext.OriginationTime = readFixedString(bextOriginationTimeLen)

	timeRefLow := binary.LittleEndian.Uint32(take(4))
	timeRefHigh := binary.LittleEndian.Uint32(take(4))
	bext.TimeReference = uint64(timeRefHigh)<<32 | uint64(timeRefLow)
	bext.Version = binary.LittleEndian.Uint16(take(2))

	copy(bext.UMID[:], take(bextUMIDLen))

	reserved := take(bextReservedLen)
	if bext.Version >= 1 {
		bext.Loudness = &Loudness{
			Value:                int16(binary.LittleEndian.Uint16(reserved[0:2])),
			Range:                int16(binary.LittleEndian.Uint16(reserved[2:4])),
			MaxTruePeakLevel:     int16(binary.LittleEndian.Uint16(reserved[4:6])),
			MaxMomentaryLoudness: int16(binary.LittleEndian.Uint16(reserved[6:8])),
			MaxShortTermLoudness: int16(binary.LittleEndian.Uint16(reserved[8:10])),
		}
		reserved = reserved[bextLoudnessLen:]
	}

	bext.Reserved = reserved

	if offset < len(payload) {
		codingHistory := bytes.TrimRight(payload[offset:], "\x00")
		bext.CodingHistory = string(codingHistory)
	}

	return bext, nil
}

// Clone returns a deep copy.
func (b *BroadcastExtension) Clone() *BroadcastExtension {
	if b == nil {
		return nil
	}

	out := *b
	out.Reserved = append([]byte(nil), b.Reserved...)

	if b.Loudness != nil {
		l := *b.Loudness
		out.Loudness = &l
	}

	return &out
}

// DecodedUMID decodes the UMID field. It returns nil when the field is empty.
func (b *BroadcastExtension) DecodedUMID() *UMID {
	if b == nil {
		return nil
	}

	return DecodeUMID(b.UMID)
}

// OriginationTimestamp combines the origination date and time. EBU Tech 3285
// allows any separator between the numeric fields.
func (b *BroadcastExtension) OriginationTimestamp() (time.Time, error) {
	if b == nil {
		return time.Time{}, nil
	}

	date, clock := b.OriginationDate, b.OriginationTime
	if len(date) != bextOriginationDateLen || len(clock) != bextOriginationTimeLen {
		return time.Time{}, fmt.Errorf("%w: %q %q", errBadOriginationStamp, date, clock)
	}

	fields := []string{date[0:4], date[5:7], date[8:10], clock[0:2], clock[3:5], clock[6:8]}
	nums := make([]int, len(fields))

	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q %q", errBadOriginationStamp, date, clock)
		}

		nums[i] = n
	}

	return time.Date(nums[0], time.Month(nums[1]), nums[2], nums[3], nums[4], nums[5], 0, time.UTC), nil
}

// TimeReferenceDuration converts the time reference to a duration since
// midnight at the given sample rate.
func (b *BroadcastExtension) TimeReferenceDuration(sampleRate uint32) time.Duration {
	if b == nil {
		return 0
	}

	return framesDuration(b.TimeReference, sampleRate)
}
