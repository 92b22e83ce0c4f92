package bwav

import "fmt"

// SpeakerPosition is a WAVE_FORMAT_EXTENSIBLE channel mask bit.
type SpeakerPosition uint32

// Speaker positions as defined for dwChannelMask.
const (
	SpeakerUnassigned         SpeakerPosition = 0
	SpeakerFrontLeft          SpeakerPosition = 0x1
	SpeakerFrontRight         SpeakerPosition = 0x2
	SpeakerFrontCenter        SpeakerPosition = 0x4
	SpeakerLowFrequency       SpeakerPosition = 0x8
	SpeakerBackLeft           SpeakerPosition = 0x10
	SpeakerBackRight          SpeakerPosition = 0x20
	SpeakerFrontLeftOfCenter  SpeakerPosition = 0x40
	SpeakerFrontRightOfCenter SpeakerPosition = 0x80
	SpeakerBackCenter         SpeakerPosition = 0x100
	SpeakerSideLeft           SpeakerPosition = 0x200
	SpeakerSideRight          SpeakerPosition = 0x400
	SpeakerTopCenter          SpeakerPosition = 0x800
	SpeakerTopFrontLeft       SpeakerPosition = 0x1000
	SpeakerTopFrontCenter     SpeakerPosition = 0x2000
	SpeakerTopFrontRight      SpeakerPosition = 0x4000
	SpeakerTopBackLeft        SpeakerPosition = 0x8000
	SpeakerTopBackCenter      SpeakerPosition = 0x10000
	SpeakerTopBackRight       SpeakerPosition = 0x20000
)

var speakerNames = map[SpeakerPosition]string{
	SpeakerUnassigned:         "unassigned",
	SpeakerFrontLeft:          "FL",
	SpeakerFrontRight:         "FR",
	SpeakerFrontCenter:        "FC",
	SpeakerLowFrequency:       "LFE",
	SpeakerBackLeft:           "BL",
	SpeakerBackRight:          "BR",
	SpeakerFrontLeftOfCenter:  "FLC",
	SpeakerFrontRightOfCenter: "FRC",
	SpeakerBackCenter:         "BC",
	SpeakerSideLeft:           "SL",
	SpeakerSideRight:          "SR",
	SpeakerTopCenter:          "TC",
	SpeakerTopFrontLeft:       "TFL",
	SpeakerTopFrontCenter:     "TFC",
	SpeakerTopFrontRight:      "TFR",
	SpeakerTopBackLeft:        "TBL",
	SpeakerTopBackCenter:      "TBC",
	SpeakerTopBackRight:       "TBR",
}

func (s SpeakerPosition) String() string {
	if name, ok := speakerNames[s]; ok {
		return name
	}

	return fmt.Sprintf("speaker(0x%X)", uint32(s))
}

// speakersFromMask lists the set bits of mask from least significant up,
// which is the order channels are assigned to them.
func speakersFromMask(mask uint32) []SpeakerPosition {
	var out []SpeakerPosition

	for bit := uint32(1); bit != 0; bit <<= 1 {
		if mask&bit != 0 {
			out = append(out, SpeakerPosition(bit))
		}
	}

	return out
}
