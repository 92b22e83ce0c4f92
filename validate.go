package bwav

import (
	"fmt"
	"math/bits"
	"slices"
)

// Regime names a set of constraints a file can be checked against.
type Regime string

// Known regimes.
const (
	// RegimeReadable: fmt and data present, fmt decodable and before data.
	RegimeReadable Regime = "readable"
	// RegimePlainWave: a standard RIFF file holding only fmt and data.
	RegimePlainWave Regime = "plain-wave"
	// RegimeBroadcastWave: a complete bext chunk is present.
	RegimeBroadcastWave Regime = "broadcast-wave"
	// RegimeRF64: the container kind matches the sizes it has to address.
	RegimeRF64 Regime = "rf64"
	// RegimeFormat: the fmt fields are consistent with each other.
	RegimeFormat Regime = "format"
	// RegimeDataAlignment: the data payload starts at the policy alignment.
	RegimeDataAlignment Regime = "data-alignment"
	// RegimeAppendReady: room for a ds64 is reserved up front and data is the
	// last chunk, so audio can be appended in place.
	RegimeAppendReady Regime = "append-ready"
)

// AllRegimes returns every known regime.
func AllRegimes() []Regime {
	return []Regime{
		RegimeReadable,
		RegimePlainWave,
		RegimeBroadcastWave,
		RegimeRF64,
		RegimeFormat,
		RegimeDataAlignment,
		RegimeAppendReady,
	}
}

// ValidationPolicy selects regimes and their thresholds.
type ValidationPolicy struct {
	Regimes []Regime
	// MaxRIFFSize is the largest size a standard RIFF header can address.
	MaxRIFFSize uint64
	// DataAlignment is the expected offset of the data payload.
	DataAlignment uint64
	// DS64Reservation is the filler space needed to turn a RIFF header into
	// an RF64 one in place.
	DS64Reservation uint64
}

// DefaultValidationPolicy checks the readable, broadcast-wave, rf64 and
// format regimes with the EBU thresholds.
func DefaultValidationPolicy() ValidationPolicy {
	return ValidationPolicy{
		Regimes:         []Regime{RegimeReadable, RegimeBroadcastWave, RegimeRF64, RegimeFormat},
		MaxRIFFSize:     sizePlaceholder,
		DataAlignment:   0x4000,
		DS64Reservation: 92,
	}
}

// Violation is one unmet constraint.
type Violation struct {
	Regime     Regime
	Constraint string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Regime, v.Constraint)
}

// Report is the outcome of Validate.
type Report struct {
	Container  ContainerKind
	Checked    []Regime
	Violations []Violation
}

// OK reports if no violation was found.
func (r Report) OK() bool {
	return len(r.Violations) == 0
}

// Satisfies reports if regime was checked and has no violation.
func (r Report) Satisfies(regime Regime) bool {
	return slices.Contains(r.Checked, regime) && len(r.ViolationsOf(regime)) == 0
}

// ViolationsOf returns the violations of one regime.
func (r Report) ViolationsOf(regime Regime) []Violation {
	var out []Violation

	for _, v := range r.Violations {
		if v.Regime == regime {
			out = append(out, v)
		}
	}

	return out
}

// ValidationInput is what Validate looks at.
type ValidationInput struct {
	Container  ContainerKind
	RIFFSize   uint64
	StreamSize uint64
	Index      *ChunkIndex
	// Format is nil when the fmt chunk is missing or failed to decode.
	Format    *Format
	FormatErr error
	DS64      *DS64
	// BroadcastExtension is nil without a decodable bext chunk.
	BroadcastExtension *BroadcastExtension
}

type validation struct {
	in     ValidationInput
	policy ValidationPolicy
	report Report
}

// Validate checks in against the regimes of policy. It never fails; an empty
// violation list means every checked regime is satisfied.
func Validate(in ValidationInput, policy ValidationPolicy) Report {
	v := &validation{
		in:     in,
		policy: policy,
		report: Report{Container: in.Container},
	}

	checks := map[Regime]func(){
		RegimeReadable:      v.readable,
		RegimePlainWave:     v.plainWave,
		RegimeBroadcastWave: v.broadcastWave,
		RegimeRF64:          v.rf64,
		RegimeFormat:        v.format,
		RegimeDataAlignment: v.dataAlignment,
		RegimeAppendReady:   v.appendReady,
	}

	for _, regime := range policy.Regimes {
		check, ok := checks[regime]
		if !ok || slices.Contains(v.report.Checked, regime) {
			continue
		}

		v.report.Checked = append(v.report.Checked, regime)
		check()
	}

	return v.report
}

func (v *validation) fail(regime Regime, format string, args ...any) {
	v.report.Violations = append(v.report.Violations, Violation{
		Regime:     regime,
		Constraint: fmt.Sprintf(format, args...),
	})
}

func (v *validation) readable() {
	fmtPos := v.in.Index.Position(TagFmt)
	dataPos := v.in.Index.Position(TagData)

	if fmtPos < 0 {
		v.fail(RegimeReadable, "no fmt chunk")
	}

	if dataPos < 0 {
		v.fail(RegimeReadable, "no data chunk")
	}

	if fmtPos >= 0 && dataPos >= 0 && fmtPos > dataPos {
		v.fail(RegimeReadable, "fmt chunk follows the data chunk")
	}

	if fmtPos >= 0 && v.in.FormatErr != nil {
		v.fail(RegimeReadable, "fmt chunk can't be decoded: %v", v.in.FormatErr)
	}

	if v.in.RIFFSize+chunkHeaderSize > v.in.StreamSize {
		v.fail(RegimeReadable, "%s size declares %d bytes but the stream holds %d",
			v.in.Container, v.in.RIFFSize+chunkHeaderSize, v.in.StreamSize)
	}
}

func (v *validation) plainWave() {
	if v.in.Container != StandardRIFF {
		v.fail(RegimePlainWave, "container is %s, not standard RIFF", v.in.Container)
	}

	tags := v.in.Index.Tags()
	if !slices.Equal(tags, []FourCC{TagFmt, TagData}) {
		v.fail(RegimePlainWave, "chunks are %v, want only fmt and data", tags)
	}
}

func (v *validation) broadcastWave() {
	desc, ok := v.in.Index.Find(TagBext)
	if !ok {
		v.fail(RegimeBroadcastWave, "no bext chunk")
		return
	}

	if desc.Size < bextBaseSize {
		v.fail(RegimeBroadcastWave, "bext chunk is %d bytes, shorter than the %d byte record", desc.Size, bextBaseSize)
	}

	bext := v.in.BroadcastExtension
	if bext == nil {
		return
	}

	if bext.Version > 2 {
		v.fail(RegimeBroadcastWave, "bext version %d is newer than 2", bext.Version)
	}

	umid := bext.DecodedUMID()
	if umid == nil {
		return
	}

	if !umid.HasSMPTELabel() {
		v.fail(RegimeBroadcastWave, "UMID label % X lacks the SMPTE designator", umid.UniversalLabel[:4])
	}

	if !umid.HasStandardLength() {
		v.fail(RegimeBroadcastWave, "UMID length byte 0x%02X is neither basic nor extended", umid.Length)
	}
}

func (v *validation) rf64() {
	limit := v.policy.MaxRIFFSize
	end := uint64(riffHeaderSize)

	for _, c := range v.in.Index.All() {
		end = max(end, c.End())
	}

	contentSize := end - chunkHeaderSize

	if v.in.Container == StandardRIFF {
		if data, ok := v.in.Index.Find(TagData); ok && data.Size > limit {
			v.fail(RegimeRF64, "container declares standard RIFF but the data chunk size %d exceeds the 32-bit limit %d", data.Size, limit)
		}

		if contentSize > limit {
			v.fail(RegimeRF64, "container declares standard RIFF but its %d bytes of content exceed the 32-bit limit %d; RF64 required", contentSize, limit)
		}

		return
	}

	if v.in.DS64 == nil {
		v.fail(RegimeRF64, "RF64 container without a ds64 chunk")
		return
	}

	if v.in.Index.Position(TagDS64) != 0 {
		v.fail(RegimeRF64, "ds64 is not the first chunk")
	}

	if v.in.DS64.RIFFSize != contentSize && v.in.DS64.RIFFSize+chunkHeaderSize != v.in.StreamSize {
		v.fail(RegimeRF64, "ds64 riff size %d matches neither the chunk layout (%d) nor the stream (%d)",
			v.in.DS64.RIFFSize, contentSize, v.in.StreamSize-chunkHeaderSize)
	}

	if data, ok := v.in.Index.Find(TagData); ok && data.DeclaredSize != sizePlaceholder && uint64(data.DeclaredSize) != data.Size {
		v.fail(RegimeRF64, "data header size %d disagrees with ds64 data size %d", data.DeclaredSize, data.Size)
	}
}

func (v *validation) format() {
	f := v.in.Format
	if f == nil {
		v.fail(RegimeFormat, "no decodable fmt chunk")
		return
	}

	if f.ChannelCount == 0 {
		v.fail(RegimeFormat, "channel count is 0")
	}

	if f.SampleRate == 0 {
		v.fail(RegimeFormat, "sample rate is 0")
	}

	if f.DeclaredTag == FormatExtensible && f.Extended == nil {
		v.fail(RegimeFormat, "extensible format without a complete extension")
	}

	switch f.Tag {
	case FormatPCM, FormatIEEEFloat:
		if f.BlockAlign != f.ExpectedBlockAlign() {
			v.fail(RegimeFormat, "block align %d, expected %d channels x %d bits = %d",
				f.BlockAlign, f.ChannelCount, f.BitsPerSample, f.ExpectedBlockAlign())
		}

		if expected := uint64(f.SampleRate) * uint64(f.BlockAlign); uint64(f.ByteRate) != expected {
			v.fail(RegimeFormat, "byte rate %d, expected %d", f.ByteRate, expected)
		}
	default:
		v.fail(RegimeFormat, "%s has no sample decoder", FormatName(f.Tag))
	}

	if ext := f.Extended; ext != nil {
		if ext.ValidBitsPerSample > f.BitsPerSample {
			v.fail(RegimeFormat, "valid bits %d exceed bits per sample %d", ext.ValidBitsPerSample, f.BitsPerSample)
		}

		if n := bits.OnesCount32(ext.ChannelMask); n > int(f.ChannelCount) {
			v.fail(RegimeFormat, "channel mask names %d speakers for %d channels", n, f.ChannelCount)
		}
	}
}

func (v *validation) dataAlignment() {
	data, ok := v.in.Index.Find(TagData)
	if !ok {
		v.fail(RegimeDataAlignment, "no data chunk")
		return
	}

	if data.Offset != v.policy.DataAlignment {
		v.fail(RegimeDataAlignment, "data starts at 0x%X, expected 0x%X", data.Offset, v.policy.DataAlignment)
	}
}

func (v *validation) appendReady() {
	chunks := v.in.Index.All()

	if v.in.Container == StandardRIFF {
		// the first filler's payload plus every following filler with its header
		var reserved uint64

		for i, c := range chunks {
			if c.Tag != TagJunk && c.Tag != TagFLLR {
				break
			}

			reserved += c.Size
			if i > 0 {
				reserved += chunkHeaderSize
			}
		}

		if reserved < v.policy.DS64Reservation {
			v.fail(RegimeAppendReady, "%d bytes of leading filler, %d needed for a ds64", reserved, v.policy.DS64Reservation)
		}
	}

	if len(chunks) == 0 || chunks[len(chunks)-1].Tag != TagData {
		v.fail(RegimeAppendReady, "data is not the last chunk")
	}
}
