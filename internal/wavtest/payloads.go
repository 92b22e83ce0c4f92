package wavtest

import (
	"encoding/binary"
	"math"
)

// KSDATAFORMAT GUID tail following the format tag.
var ksTail = [12]byte{0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// DS64 returns a ds64 payload.
func DS64(riffSize, dataSize, sampleCount uint64, table ...Override) []byte {
	out := make([]byte, 28, 28+12*len(table))
	binary.LittleEndian.PutUint64(out[0:], riffSize)
	binary.LittleEndian.PutUint64(out[8:], dataSize)
	binary.LittleEndian.PutUint64(out[16:], sampleCount)
	binary.LittleEndian.PutUint32(out[24:], uint32(len(table)))

	for _, o := range table {
		var entry [12]byte
		copy(entry[:4], o.Tag)
		binary.LittleEndian.PutUint64(entry[4:], o.Size)
		out = append(out, entry[:]...)
	}

	return out
}

// Fmt returns a 16-byte fmt payload with explicit fields.
func Fmt(tag, channels uint16, sampleRate, byteRate uint32, blockAlign, bits uint16) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint16(out[0:], tag)
	binary.LittleEndian.PutUint16(out[2:], channels)
	binary.LittleEndian.PutUint32(out[4:], sampleRate)
	binary.LittleEndian.PutUint32(out[8:], byteRate)
	binary.LittleEndian.PutUint16(out[12:], blockAlign)
	binary.LittleEndian.PutUint16(out[14:], bits)

	return out
}

// PCMFormat returns a consistent 16-byte fmt payload for integer PCM.
func PCMFormat(channels uint16, sampleRate uint32, bits uint16) []byte {
	align := channels * ((bits + 7) / 8)
	return Fmt(1, channels, sampleRate, sampleRate*uint32(align), align, bits)
}

// FloatFormat returns a consistent 16-byte fmt payload for IEEE float.
func FloatFormat(channels uint16, sampleRate uint32, bits uint16) []byte {
	align := channels * (bits / 8)
	return Fmt(3, channels, sampleRate, sampleRate*uint32(align), align, bits)
}

// ExtensibleFormat returns a 40-byte WAVE_FORMAT_EXTENSIBLE payload.
func ExtensibleFormat(channels uint16, sampleRate uint32, bits, validBits uint16, mask uint32, subFormat [16]byte) []byte {
	align := channels * ((bits + 7) / 8)
	out := Fmt(0xFFFE, channels, sampleRate, sampleRate*uint32(align), align, bits)

	var ext [24]byte
	binary.LittleEndian.PutUint16(ext[0:], 22)
	binary.LittleEndian.PutUint16(ext[2:], validBits)
	binary.LittleEndian.PutUint32(ext[4:], mask)
	copy(ext[8:], subFormat[:])

	return append(out, ext[:]...)
}

// SubFormat returns the KSDATAFORMAT sub-format GUID of a format tag.
func SubFormat(tag uint16) [16]byte {
	var g [16]byte
	binary.LittleEndian.PutUint16(g[:], tag)
	copy(g[4:], ksTail[:])

	return g
}

// Bext holds the fields written by BextPayload.
type Bext struct {
	Description         string
	Originator          string
	OriginatorReference string
	OriginationDate     string
	OriginationTime     string
	TimeReference       uint64
	Version             uint16
	UMID                [64]byte
	// Loudness is written in the first ten reserved bytes.
	Loudness      [5]int16
	CodingHistory string
}

// BextPayload returns a bext payload: the 602-byte record followed by the
// coding history.
func BextPayload(b Bext) []byte {
	out := make([]byte, 602, 602+len(b.CodingHistory))
	copy(out[0:256], b.Description)
	copy(out[256:288], b.Originator)
	copy(out[288:320], b.OriginatorReference)
	copy(out[320:330], b.OriginationDate)
	copy(out[330:338], b.OriginationTime)
	binary.LittleEndian.PutUint64(out[338:], b.TimeReference)
	binary.LittleEndian.PutUint16(out[346:], b.Version)
	copy(out[348:412], b.UMID[:])

	for i, v := range b.Loudness {
		binary.LittleEndian.PutUint16(out[412+2*i:], uint16(v))
	}

	return append(out, b.CodingHistory...)
}

// umidLabel is a SMPTE 330M UMID label for a picture/sound group with a
// random material number and a locally generated instance number.
var umidLabel = [12]byte{0x06, 0x0A, 0x2B, 0x34, 0x01, 0x01, 0x01, 0x05, 0x01, 0x01, 0x0F, 0x20}

// BasicUMID returns a 64-byte UMID field holding a 32-byte basic UMID.
func BasicUMID(instance [3]byte, material [16]byte) [64]byte {
	var u [64]byte
	copy(u[0:12], umidLabel[:])
	u[12] = 0x13
	copy(u[13:16], instance[:])
	copy(u[16:32], material[:])

	return u
}

// ExtendedUMID returns a 64-byte extended UMID with the given source pack
// codes.
func ExtendedUMID(instance [3]byte, material [16]byte, country, org, user string) [64]byte {
	u := BasicUMID(instance, material)
	u[12] = 0x33

	for i := range 8 {
		u[32+i] = byte(i + 1)
	}

	copy(u[52:56], country)
	copy(u[56:60], org)
	copy(u[60:64], user)

	return u
}

// ChnaEntry is one chna track assignment.
type ChnaEntry struct {
	TrackIndex     uint16
	TrackUID       string
	TrackFormatRef string
	PackFormatRef  string
}

// Chna returns a chna payload declaring numTracks tracks.
func Chna(numTracks uint16, entries ...ChnaEntry) []byte {
	out := make([]byte, 4, 4+40*len(entries))
	binary.LittleEndian.PutUint16(out[0:], numTracks)
	binary.LittleEndian.PutUint16(out[2:], uint16(len(entries)))

	for _, e := range entries {
		var raw [40]byte
		binary.LittleEndian.PutUint16(raw[0:], e.TrackIndex)
		copy(raw[2:14], e.TrackUID)
		copy(raw[14:28], e.TrackFormatRef)
		copy(raw[28:39], e.PackFormatRef)
		out = append(out, raw[:]...)
	}

	return out
}

// Fact returns a fact payload.
func Fact(samples uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, samples)
}

// PCM8 encodes unsigned 8-bit samples.
func PCM8(samples ...uint8) []byte {
	return append([]byte(nil), samples...)
}

// PCM16 encodes interleaved 16-bit samples.
func PCM16(samples ...int16) []byte {
	out := make([]byte, 0, 2*len(samples))
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(s))
	}

	return out
}

// PCM24 encodes interleaved 24-bit samples.
func PCM24(samples ...int32) []byte {
	out := make([]byte, 0, 3*len(samples))
	for _, s := range samples {
		out = append(out, byte(s), byte(s>>8), byte(s>>16))
	}

	return out
}

// PCM32 encodes interleaved 32-bit samples.
func PCM32(samples ...int32) []byte {
	out := make([]byte, 0, 4*len(samples))
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint32(out, uint32(s))
	}

	return out
}

// Float32 encodes interleaved 32-bit float samples.
func Float32(samples ...float32) []byte {
	out := make([]byte, 0, 4*len(samples))
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(s))
	}

	return out
}

// Float64 encodes interleaved 64-bit float samples.
func Float64(samples ...float64) []byte {
	out := make([]byte, 0, 8*len(samples))
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(s))
	}

	return out
}
