package bwav

import (
	"bytes"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/go-audio/audio"

	"github.com/cwbudde/bwav/internal/wavtest"
)

func frameReaderFor(t *testing.T, fmtPayload, data []byte) (*AudioFrameReader, *wavtest.FailingReaderAt) {
	t.Helper()

	file := wavtest.NewRIFF().
		Chunk("fmt ", fmtPayload).
		Chunk("data", data).
		Bytes()

	src := &wavtest.FailingReaderAt{R: bytes.NewReader(file), FailFrom: int64(len(file))}

	r, err := NewReader(src, int64(len(file)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	fr, err := r.AudioFrameReader()
	if err != nil {
		t.Fatalf("AudioFrameReader: %v", err)
	}

	return fr, src
}

func TestReadIntegerFrameWidths(t *testing.T) {
	tests := []struct {
		name string
		fmt  []byte
		data []byte
		want [][]int32
	}{
		{
			name: "8 bit recentred",
			fmt:  wavtest.PCMFormat(2, 8000, 8),
			data: wavtest.PCM8(128, 0, 255, 129),
			want: [][]int32{{0, -128}, {127, 1}},
		},
		{
			name: "16 bit",
			fmt:  wavtest.PCMFormat(1, 44100, 16),
			data: wavtest.PCM16(math.MinInt16, -1, 0, math.MaxInt16),
			want: [][]int32{{math.MinInt16}, {-1}, {0}, {math.MaxInt16}},
		},
		{
			name: "24 bit",
			fmt:  wavtest.PCMFormat(2, 48000, 24),
			data: wavtest.PCM24(-8388608, 8388607, -2, 1000),
			want: [][]int32{{-8388608, 8388607}, {-2, 1000}},
		},
		{
			name: "32 bit",
			fmt:  wavtest.PCMFormat(1, 96000, 32),
			data: wavtest.PCM32(math.MinInt32, math.MaxInt32),
			want: [][]int32{{math.MinInt32}, {math.MaxInt32}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr, _ := frameReaderFor(t, tt.fmt, tt.data)

			if fr.FrameLength() != uint64(len(tt.want)) {
				t.Fatalf("frame length=%d, want %d", fr.FrameLength(), len(tt.want))
			}

			buf := fr.CreateIntFrameBuffer()

			for i, want := range tt.want {
				n, err := fr.ReadIntegerFrame(buf)
				if err != nil || n != 1 {
					t.Fatalf("frame %d: n=%d err=%v", i, n, err)
				}

				if !slices.Equal(buf, want) {
					t.Fatalf("frame %d=%v, want %v", i, buf, want)
				}
			}

			n, err := fr.ReadIntegerFrame(buf)
			if n != 0 || err != nil {
				t.Fatalf("read past end: n=%d err=%v", n, err)
			}
		})
	}
}

func TestReadFloatFrame(t *testing.T) {
	tests := []struct {
		name string
		fmt  []byte
		data []byte
		want [][]float32
	}{
		{
			name: "32 bit",
			fmt:  wavtest.FloatFormat(2, 48000, 32),
			data: wavtest.Float32(0.5, -0.25, 1, -1),
			want: [][]float32{{0.5, -0.25}, {1, -1}},
		},
		{
			name: "64 bit narrowed",
			fmt:  wavtest.FloatFormat(1, 48000, 64),
			data: wavtest.Float64(0.125, -0.75),
			want: [][]float32{{0.125}, {-0.75}},
		},
		{
			name: "extensible float",
			fmt:  wavtest.ExtensibleFormat(1, 48000, 32, 32, 4, wavtest.SubFormat(FormatIEEEFloat)),
			data: wavtest.Float32(0.75),
			want: [][]float32{{0.75}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr, _ := frameReaderFor(t, tt.fmt, tt.data)
			buf := fr.CreateFloatFrameBuffer()

			for i, want := range tt.want {
				n, err := fr.ReadFloatFrame(buf)
				if err != nil || n != 1 {
					t.Fatalf("frame %d: n=%d err=%v", i, n, err)
				}

				if !slices.Equal(buf, want) {
					t.Fatalf("frame %d=%v, want %v", i, buf, want)
				}
			}
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	const frames, channels = 1000, 3

	samples := make([]int16, frames*channels)
	for i := range samples {
		samples[i] = int16(i*37 - 20000)
	}

	fr, _ := frameReaderFor(t, wavtest.PCMFormat(channels, 48000, 16), wavtest.PCM16(samples...))
	buf := fr.CreateIntFrameBuffer()

	for i := range frames {
		_, err := fr.ReadIntegerFrame(buf)
		if err != nil {
			t.Fatal(err)
		}

		for ch := range channels {
			if want := int32(samples[i*channels+ch]); buf[ch] != want {
				t.Fatalf("frame %d channel %d=%d, want %d", i, ch, buf[ch], want)
			}
		}
	}

	if fr.Position() != frames {
		t.Fatalf("position=%d", fr.Position())
	}

	n, err := fr.ReadIntegerFrame(buf)
	if n != 0 || err != nil {
		t.Fatalf("read after last frame: n=%d err=%v", n, err)
	}
}

func TestSeekMatchesSequentialRead(t *testing.T) {
	samples := make([]int32, 64*2)
	for i := range samples {
		samples[i] = int32(i * 1001)
	}

	seq, _ := frameReaderFor(t, wavtest.PCMFormat(2, 48000, 24), wavtest.PCM24(samples...))
	seeker, _ := frameReaderFor(t, wavtest.PCMFormat(2, 48000, 24), wavtest.PCM24(samples...))

	var sequential [][]int32

	for {
		buf := seq.CreateIntFrameBuffer()

		n, err := seq.ReadIntegerFrame(buf)
		if err != nil {
			t.Fatal(err)
		}

		if n == 0 {
			break
		}

		sequential = append(sequential, buf)
	}

	buf := seeker.CreateIntFrameBuffer()

	for _, k := range []uint64{63, 0, 17, 17, 40, 1} {
		if got := seeker.Seek(k); got != k {
			t.Fatalf("Seek(%d)=%d", k, got)
		}

		if _, err := seeker.ReadIntegerFrame(buf); err != nil {
			t.Fatal(err)
		}

		if !slices.Equal(buf, sequential[k]) {
			t.Fatalf("frame %d after seek=%v, sequential %v", k, buf, sequential[k])
		}
	}

	seeker.Seek(64)

	if n, err := seeker.ReadIntegerFrame(buf); n != 0 || err != nil {
		t.Fatalf("read after seeking to end: n=%d err=%v", n, err)
	}
}

func TestFrameReaderSampleKindMismatch(t *testing.T) {
	fr, _ := frameReaderFor(t, wavtest.FloatFormat(1, 48000, 32), wavtest.Float32(0.5))

	_, err := fr.ReadIntegerFrame(make([]int32, 1))
	if !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("err=%v, want ErrFormatMismatch", err)
	}

	fr, _ = frameReaderFor(t, wavtest.PCMFormat(1, 48000, 16), wavtest.PCM16(1))

	_, err = fr.ReadFloatFrame(make([]float32, 1))
	if !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("err=%v, want ErrFormatMismatch", err)
	}
}

func TestFrameReaderShortBuffer(t *testing.T) {
	fr, _ := frameReaderFor(t, wavtest.PCMFormat(2, 48000, 16), wavtest.PCM16(1, 2))

	_, err := fr.ReadIntegerFrame(make([]int32, 1))
	if !errors.Is(err, audio.ErrInvalidBuffer) {
		t.Fatalf("err=%v, want audio.ErrInvalidBuffer", err)
	}

	if fr.Position() != 0 {
		t.Fatalf("cursor moved to %d", fr.Position())
	}
}

func TestFrameReaderIOFailureKeepsCursor(t *testing.T) {
	fr, src := frameReaderFor(t, wavtest.PCMFormat(1, 48000, 16), wavtest.PCM16(10, 20, 30))
	buf := fr.CreateIntFrameBuffer()

	if _, err := fr.ReadIntegerFrame(buf); err != nil {
		t.Fatal(err)
	}

	src.FailFrom = 0
	src.Arm()

	_, err := fr.ReadIntegerFrame(buf)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("err=%v, want ErrIO", err)
	}

	if fr.Position() != 1 {
		t.Fatalf("cursor=%d after failed read, want 1", fr.Position())
	}

	src.Disarm()

	n, err := fr.ReadIntegerFrame(buf)
	if n != 1 || err != nil || buf[0] != 20 {
		t.Fatalf("retry: n=%d err=%v frame=%v", n, err, buf)
	}
}

func TestFrameReaderUnsupportedFormats(t *testing.T) {
	tests := []struct {
		name    string
		fmt     []byte
		wantErr error
	}{
		{"a-law", wavtest.Fmt(FormatALaw, 1, 8000, 8000, 1, 8), ErrUnsupportedFormatTag},
		{"mpeg", wavtest.Fmt(FormatMPEG, 1, 44100, 16000, 1, 0), ErrUnsupportedFormatTag},
		{"48 bit pcm", wavtest.Fmt(FormatPCM, 1, 48000, 288000, 6, 48), ErrUnsupportedFormatTag},
		{"16 bit float", wavtest.Fmt(FormatIEEEFloat, 1, 48000, 96000, 2, 16), ErrUnsupportedFormatTag},
		{"zero block align", wavtest.Fmt(FormatPCM, 1, 48000, 0, 0, 16), ErrMalformedChunk},
		{"zero channels", wavtest.Fmt(FormatPCM, 0, 48000, 0, 2, 16), ErrMalformedChunk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := wavtest.NewRIFF().Chunk("fmt ", tt.fmt).Chunk("data", make([]byte, 12)).Bytes()

			r, err := NewReader(bytes.NewReader(file), int64(len(file)))
			if err != nil {
				t.Fatal(err)
			}

			_, err = r.AudioFrameReader()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err=%v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadIntBuffer(t *testing.T) {
	fr, _ := frameReaderFor(t, wavtest.PCMFormat(2, 44100, 16), wavtest.PCM16(1, -1, 2, -2, 3, -3))

	buf := &audio.IntBuffer{Data: make([]int, 4)}

	n, err := fr.ReadIntBuffer(buf)
	if err != nil || n != 2 {
		t.Fatalf("n=%d err=%v", n, err)
	}

	if !slices.Equal(buf.Data, []int{1, -1, 2, -2}) {
		t.Fatalf("data=%v", buf.Data)
	}

	if buf.Format.NumChannels != 2 || buf.Format.SampleRate != 44100 || buf.SourceBitDepth != 16 {
		t.Fatalf("format=%+v depth=%d", buf.Format, buf.SourceBitDepth)
	}

	n, err = fr.ReadIntBuffer(buf)
	if err != nil || n != 1 || buf.Data[0] != 3 || buf.Data[1] != -3 {
		t.Fatalf("tail: n=%d err=%v data=%v", n, err, buf.Data)
	}

	n, err = fr.ReadIntBuffer(buf)
	if n != 0 || err != nil {
		t.Fatalf("after end: n=%d err=%v", n, err)
	}
}

func TestReadFloat32Buffer(t *testing.T) {
	fr, _ := frameReaderFor(t, wavtest.FloatFormat(1, 48000, 64), wavtest.Float64(0.5, 0.25, -0.5))

	buf := &audio.Float32Buffer{Data: make([]float32, 8)}

	n, err := fr.ReadFloat32Buffer(buf)
	if err != nil || n != 3 {
		t.Fatalf("n=%d err=%v", n, err)
	}

	if !slices.Equal(buf.Data[:3], []float32{0.5, 0.25, -0.5}) || buf.SourceBitDepth != 64 {
		t.Fatalf("data=%v depth=%d", buf.Data[:3], buf.SourceBitDepth)
	}
}

func TestSilentMonoFrame(t *testing.T) {
	fr, _ := frameReaderFor(t, wavtest.PCMFormat(1, 44100, 16), make([]byte, 2*44100))

	if fr.FrameLength() != 44100 {
		t.Fatalf("frame length=%d", fr.FrameLength())
	}

	fr.Seek(22050)

	buf := fr.CreateIntFrameBuffer()

	n, err := fr.ReadIntegerFrame(buf)
	if n != 1 || err != nil || buf[0] != 0 {
		t.Fatalf("n=%d err=%v frame=%v", n, err, buf)
	}
}
