package bwav

import (
	"encoding/hex"
	"strings"
)

// UMID length bytes, SMPTE 330M.
const (
	umidExtendedSize   = 64
	umidBasicLength    = 0x13
	umidExtendedLength = 0x33
)

// SMPTE universal label designator every UMID label starts with.
var umidLabelDesignator = [4]byte{0x06, 0x0A, 0x2B, 0x34}

// UMID is a SMPTE Unique Material Identifier.
type UMID struct {
	UniversalLabel [12]byte
	// Length is the number of bytes following the length byte: 0x13 for a
	// basic UMID, 0x33 for an extended one.
	Length         byte
	InstanceNumber [3]byte
	MaterialNumber [16]byte
	// Source is only present in an extended UMID.
	Source *UMIDSourcePack
}

// UMIDSourcePack is the second half of an extended UMID.
type UMIDSourcePack struct {
	TimeDate     [8]byte
	Altitude     [4]byte
	Longitude    [4]byte
	Latitude     [4]byte
	Country      [4]byte
	Organization [4]byte
	User         [4]byte
}

// DecodeUMID decodes the 64-byte UMID field of a bext chunk. An all-zero
// field means no UMID and yields nil. A length byte of 0x33 marks an extended
// UMID; anything else is read as a 32-byte basic one.
func DecodeUMID(raw [64]byte) *UMID {
	if raw == [64]byte{} {
		return nil
	}

	u := &UMID{
		UniversalLabel: [12]byte(raw[0:12]),
		Length:         raw[12],
		InstanceNumber: [3]byte(raw[13:16]),
		MaterialNumber: [16]byte(raw[16:32]),
	}

	if u.Length == umidExtendedLength {
		u.Source = &UMIDSourcePack{
			TimeDate:     [8]byte(raw[32:40]),
			Altitude:     [4]byte(raw[40:44]),
			Longitude:    [4]byte(raw[44:48]),
			Latitude:     [4]byte(raw[48:52]),
			Country:      [4]byte(raw[52:56]),
			Organization: [4]byte(raw[56:60]),
			User:         [4]byte(raw[60:64]),
		}
	}

	return u
}

// HasSMPTELabel reports if the universal label starts with the SMPTE
// designator 06 0A 2B 34.
func (u *UMID) HasSMPTELabel() bool {
	return u != nil && [4]byte(u.UniversalLabel[:4]) == umidLabelDesignator
}

// HasStandardLength reports if the length byte is 0x13 or 0x33.
func (u *UMID) HasStandardLength() bool {
	return u != nil && (u.Length == umidBasicLength || u.Length == umidExtendedLength)
}

// IsExtended reports if the UMID carries a source pack.
func (u *UMID) IsExtended() bool {
	return u != nil && u.Source != nil
}

// MaterialType returns the material type byte of the label.
func (u *UMID) MaterialType() byte {
	return u.UniversalLabel[10]
}

// MaterialMethod returns the material number generation method.
func (u *UMID) MaterialMethod() byte {
	return u.UniversalLabel[11] >> 4
}

// InstanceMethod returns the instance number generation method.
func (u *UMID) InstanceMethod() byte {
	return u.UniversalLabel[11] & 0x0F
}

// Bytes returns the 32 or 64 byte binary form.
func (u *UMID) Bytes() []byte {
	if u == nil {
		return nil
	}

	out := make([]byte, 0, umidExtendedSize)
	out = append(out, u.UniversalLabel[:]...)
	out = append(out, u.Length)
	out = append(out, u.InstanceNumber[:]...)
	out = append(out, u.MaterialNumber[:]...)

	if s := u.Source; s != nil {
		out = append(out, s.TimeDate[:]...)
		out = append(out, s.Altitude[:]...)
		out = append(out, s.Longitude[:]...)
		out = append(out, s.Latitude[:]...)
		out = append(out, s.Country[:]...)
		out = append(out, s.Organization[:]...)
		out = append(out, s.User[:]...)
	}

	return out
}

// String returns the UMID as upper-case hex.
func (u *UMID) String() string {
	if u == nil {
		return ""
	}

	return strings.ToUpper(hex.EncodeToString(u.Bytes()))
}

// CountryCode returns the country code of an extended UMID.
func (s *UMIDSourcePack) CountryCode() string {
	if s == nil {
		return ""
	}

	return strings.TrimRight(nullTermStr(s.Country[:]), " ")
}

// OrganizationCode returns the organization code of an extended UMID.
func (s *UMIDSourcePack) OrganizationCode() string {
	if s == nil {
		return ""
	}

	return strings.TrimRight(nullTermStr(s.Organization[:]), " ")
}

// UserCode returns the user code of an extended UMID.
func (s *UMIDSourcePack) UserCode() string {
	if s == nil {
		return ""
	}

	return strings.TrimRight(nullTermStr(s.User[:]), " ")
}
