// This tool converts a wav, bwf or rf64 file into an aiff file stored in the
// same folder as the source. Floating point audio is quantized to -bits.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"

	"github.com/cwbudde/bwav"
)

// frames converted per write
const bufferFrames = 65536

var errMissingPath = errors.New("you must set the -path flag")

func main() {
	log.SetFlags(0)

	err := run(os.Args[1:], os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("wavtoaiff", flag.ContinueOnError)
	flags.SetOutput(out)

	path := flags.String("path", "", "The path to the wav file to convert to aiff")
	floatBits := flags.Int("bits", 24, "Bit depth used for floating point sources: 16, 24 or 32")

	err := flags.Parse(args)
	if err != nil {
		return err
	}

	if *path == "" {
		return errMissingPath
	}

	sourcePath, err := expandHome(*path)
	if err != nil {
		return err
	}

	outPath, err := convert(sourcePath, *floatBits)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Wav file converted to %s\n", outPath)

	return nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get the user home directory: %w", err)
	}

	return strings.Replace(path, "~", usr.HomeDir, 1), nil
}

func convert(sourcePath string, floatBits int) (string, error) {
	r, err := bwav.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("invalid WAV file %s: %w", sourcePath, err)
	}
	defer r.Close()

	frames, err := r.AudioFrameReader()
	if err != nil {
		return "", err
	}

	format := frames.Format()

	bitDepth := format.ContainerBytesPerSample() * 8
	if format.IsFloat() {
		bitDepth = floatBits
	}

	if bitDepth != 8 && bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return "", fmt.Errorf("unsupported aiff bit depth %d", bitDepth)
	}

	outPath := sourcePath[:len(sourcePath)-len(filepath.Ext(sourcePath))] + ".aif"

	outFile, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer outFile.Close()

	encoder := aiff.NewEncoder(outFile, int(format.SampleRate), bitDepth, int(format.ChannelCount))

	samples := bufferFrames * int(format.ChannelCount)

	if format.IsFloat() {
		err = copyFloat(encoder, frames, samples, bitDepth)
	} else {
		err = copyInt(encoder, frames, samples)
	}

	if err != nil {
		return "", err
	}

	err = encoder.Close()
	if err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", outPath, err)
	}

	return outPath, nil
}

func copyInt(encoder *aiff.Encoder, frames *bwav.AudioFrameReader, samples int) error {
	buf := &audio.IntBuffer{Data: make([]int, samples)}

	for {
		n, err := frames.ReadIntBuffer(buf)
		if err != nil {
			return err
		}

		if n == 0 {
			return nil
		}

		chunk := &audio.IntBuffer{
			Format:         buf.Format,
			SourceBitDepth: buf.SourceBitDepth,
			Data:           buf.Data[:n*buf.Format.NumChannels],
		}

		err = encoder.Write(chunk)
		if err != nil {
			return err
		}
	}
}

func copyFloat(encoder *aiff.Encoder, frames *bwav.AudioFrameReader, samples, bitDepth int) error {
	buf := &audio.Float32Buffer{Data: make([]float32, samples)}

	for {
		n, err := frames.ReadFloat32Buffer(buf)
		if err != nil {
			return err
		}

		if n == 0 {
			return nil
		}

		intBuf := float32ToIntBuffer(buf.Data[:n*buf.Format.NumChannels], buf.Format, bitDepth)

		err = encoder.Write(intBuf)
		if err != nil {
			return err
		}
	}
}

func float32ToIntBuffer(data []float32, format *audio.Format, bitDepth int) *audio.IntBuffer {
	intBuf := &audio.IntBuffer{
		Format:         format,
		SourceBitDepth: bitDepth,
		Data:           make([]int, len(data)),
	}
	for i, v := range data {
		intBuf.Data[i] = int(float32ToPCMInt32(v, bitDepth))
	}

	return intBuf
}

func float32ToPCMInt32(value float32, bitDepth int) int32 {
	value = clampFloat32(value, -1, 1)

	switch bitDepth {
	case 8:
		return clampScaledPCM(value, 128.0, 127)
	case 16:
		return clampScaledPCM(value, 32768.0, 32767)
	case 24:
		return clampScaledPCM(value, 8388608.0, 8388607)
	case 32:
		return clampScaledPCM(value, 2147483648.0, 2147483647)
	default:
		return 0
	}
}

func clampScaledPCM(value float32, scale float64, max int64) int32 {
	sample := min(int64(math.Round(float64(value)*scale)), max)

	min := int64(-scale)
	if sample < min {
		sample = min
	}

	return int32(sample)
}

func clampFloat32(value, min, max float32) float32 {
	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}
