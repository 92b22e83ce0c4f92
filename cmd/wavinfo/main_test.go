package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/bwav/internal/wavtest"
)

func TestRunRequiresPath(t *testing.T) {
	var out bytes.Buffer

	err := run(nil, &out)
	assert.ErrorIs(t, err, errMissingPath)
}

func TestRunPrintsBroadcastWave(t *testing.T) {
	data := wavtest.NewBW64().
		Chunk("fmt ", wavtest.PCMFormat(2, 48000, 24)).
		Chunk("bext", wavtest.BextPayload(wavtest.Bext{
			Description:     "street ambience",
			Originator:      "Recorder",
			OriginationDate: "2024-01-02",
			OriginationTime: "03:04:05",
			Version:         2,
			UMID:            wavtest.BasicUMID([3]byte{}, [16]byte{1}),
			Loudness:        [5]int16{-2300, 500, -100},
			CodingHistory:   "A=PCM,F=48000,W=24,M=stereo\r\n",
		})).
		Chunk("chna", wavtest.Chna(2,
			wavtest.ChnaEntry{TrackIndex: 1, TrackUID: "ATU_00000001"},
			wavtest.ChnaEntry{TrackIndex: 2, TrackUID: "ATU_00000002"},
		)).
		Chunk("data", wavtest.PCM24(1, 2, 3, 4)).
		Bytes()
	path := wavtest.WriteFile(t, "bw64.wav", data)

	var outBuf bytes.Buffer

	err := run([]string{path}, &outBuf)
	require.NoError(t, err)

	out := outBuf.String()
	checks := []string{
		"Container: RF64 (BW64)",
		"ds64: riff",
		"data at ",
		"Format: PCM, 2 channels, 48000 Hz, 24 bits",
		"Frames: 2",
		"Description: street ambience",
		"Loudness: -23.00 LUFS",
		"UMID: 060A2B34",
		"CodingHistory: A=PCM,F=48000,W=24,M=stereo",
		"[1] unassigned ATU_00000002",
		"Regime broadcast-wave: ok",
		"Regime rf64: ok",
	}

	for _, c := range checks {
		assert.Contains(t, out, c)
	}
}

func TestRunReportsViolations(t *testing.T) {
	data := wavtest.NewRIFF().
		Chunk("fmt ", wavtest.PCMFormat(1, 44100, 16)).
		Chunk("data", wavtest.PCM16(0, 0)).
		Bytes()
	path := wavtest.WriteFile(t, "plain.wav", data)

	var outBuf bytes.Buffer

	err := run([]string{"-regimes", "plain-wave, append-ready", path}, &outBuf)
	require.NoError(t, err)

	out := outBuf.String()
	for _, c := range []string{"No broadcast extension present", "Regime plain-wave: ok", "Regime append-ready: FAILED"} {
		assert.Contains(t, out, c)
	}

	assert.NotContains(t, out, "Regime format")
}

func TestRunAllRegimes(t *testing.T) {
	data := wavtest.NewRIFF().
		Chunk("fmt ", wavtest.PCMFormat(1, 44100, 16)).
		Chunk("data", nil).
		Bytes()
	path := wavtest.WriteFile(t, "empty.wav", data)

	var outBuf bytes.Buffer

	err := run([]string{"-all", path}, &outBuf)
	require.NoError(t, err)
	assert.Equal(t, 7, strings.Count(outBuf.String(), "Regime "), outBuf.String())
}

func TestRunInvalidPath(t *testing.T) {
	var outBuf bytes.Buffer

	err := run([]string{"/nonexistent/path.wav"}, &outBuf)
	assert.Error(t, err)
}

func TestRunPrintsSharedChannelTracks(t *testing.T) {
	data := wavtest.NewRIFF().
		Chunk("fmt ", wavtest.PCMFormat(1, 48000, 16)).
		Chunk("chna", wavtest.Chna(1,
			wavtest.ChnaEntry{TrackIndex: 1, TrackUID: "ATU_00000001"},
			wavtest.ChnaEntry{TrackIndex: 1, TrackUID: "ATU_00000002"},
		)).
		Chunk("data", wavtest.PCM16(0)).
		Bytes()
	path := wavtest.WriteFile(t, "shared.wav", data)

	var outBuf bytes.Buffer

	require.NoError(t, run([]string{path}, &outBuf))

	out := outBuf.String()
	assert.Contains(t, out, "[0] unassigned ATU_00000001")
	assert.Contains(t, out, "[0] unassigned ATU_00000002")
}
