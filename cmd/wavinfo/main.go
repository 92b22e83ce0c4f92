// This tool prints the structure, format and broadcast metadata of a wav,
// bwf, rf64 or bw64 file, followed by a validation report.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cwbudde/bwav"
)

const missingPathMessage = "You must pass the path of the file to inspect"

var errMissingPath = errors.New("missing path argument")

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	if errors.Is(err, errMissingPath) {
		fmt.Println(missingPathMessage)
		os.Exit(1)
	}

	log.Fatal(err)
}

func run(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("wavinfo", flag.ContinueOnError)
	flags.SetOutput(out)

	all := flags.Bool("all", false, "Check every validation regime")
	regimes := flags.String("regimes", "", "Comma separated validation regimes, defaults to readable,broadcast-wave,rf64,format")

	err := flags.Parse(args)
	if err != nil {
		return err
	}

	if flags.NArg() < 1 {
		return errMissingPath
	}

	r, err := bwav.Open(flags.Arg(0))
	if err != nil {
		return err
	}
	defer r.Close()

	policy := bwav.DefaultValidationPolicy()

	switch {
	case *all:
		policy.Regimes = bwav.AllRegimes()
	case *regimes != "":
		policy.Regimes = nil
		for _, name := range strings.Split(*regimes, ",") {
			policy.Regimes = append(policy.Regimes, bwav.Regime(strings.TrimSpace(name)))
		}
	}

	printContainer(out, r)

	err = printFormat(out, r)
	if err != nil {
		return err
	}

	printBroadcastExtension(out, r)
	printChannelMap(out, r)
	printReport(out, r.Validate(policy))

	return nil
}

func printContainer(out io.Writer, r *bwav.Reader) {
	fmt.Fprintf(out, "Container: %s (%s), %d bytes\n", r.Container(), r.FormTag(), r.Size())

	if ds := r.DS64(); ds != nil {
		fmt.Fprintf(out, "ds64: riff %d, data %d, samples %d, %d table entries\n",
			ds.RIFFSize, ds.DataSize, ds.SampleCount, len(ds.Overrides))
	}

	fmt.Fprintln(out, "Chunks:")

	for _, c := range r.Chunks() {
		corrected := ""
		if c.Corrected() {
			corrected = fmt.Sprintf(" (header %d)", c.DeclaredSize)
		}

		fmt.Fprintf(out, "\t%-4s at %d: %d bytes%s\n", c.Tag, c.HeaderOffset(), c.Size, corrected)
	}
}

func printFormat(out io.Writer, r *bwav.Reader) error {
	f, err := r.Format()
	if err != nil {
		fmt.Fprintf(out, "Format: %v\n", err)
		return nil
	}

	fmt.Fprintf(out, "Format: %s, %d channels, %d Hz, %d bits\n",
		bwav.FormatName(f.Tag), f.ChannelCount, f.SampleRate, f.BitsPerSample)

	if ext := f.Extended; ext != nil {
		fmt.Fprintf(out, "Extensible: %d valid bits, mask 0x%X, sub-format %s\n",
			ext.ValidBitsPerSample, ext.ChannelMask, ext.SubFormatID())
	}

	frames, err := r.FrameLength()
	if err != nil {
		return err
	}

	dur, err := r.Duration()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Frames: %d (%s)\n", frames, dur)

	return nil
}

func printBroadcastExtension(out io.Writer, r *bwav.Reader) {
	bext, err := r.BroadcastExtension()
	if errors.Is(err, bwav.ErrMissingRequiredChunk) {
		fmt.Fprintln(out, "No broadcast extension present")
		return
	}

	if err != nil {
		fmt.Fprintf(out, "bext: %v\n", err)
		return
	}

	fmt.Fprintf(out, "Description: %s\n", bext.Description)
	fmt.Fprintf(out, "Originator: %s\n", bext.Originator)
	fmt.Fprintf(out, "OriginatorReference: %s\n", bext.OriginatorReference)
	fmt.Fprintf(out, "Origination: %s %s\n", bext.OriginationDate, bext.OriginationTime)
	fmt.Fprintf(out, "TimeReference: %d\n", bext.TimeReference)
	fmt.Fprintf(out, "Version: %d\n", bext.Version)

	if l := bext.Loudness; l != nil {
		fmt.Fprintf(out, "Loudness: %.2f LUFS, range %.2f LU, true peak %.2f dBTP\n",
			l.IntegratedLUFS(), l.RangeLU(), l.TruePeakDBTP())
	}

	if umid := bext.DecodedUMID(); umid != nil {
		fmt.Fprintf(out, "UMID: %s\n", umid)
	}

	if bext.CodingHistory != "" {
		fmt.Fprintf(out, "CodingHistory: %s\n", strings.TrimSpace(bext.CodingHistory))
	}
}

func printChannelMap(out io.Writer, r *bwav.Reader) {
	m, err := r.ChannelMap()
	if errors.Is(err, bwav.ErrMissingRequiredChunk) {
		return
	}

	if err != nil {
		fmt.Fprintf(out, "chna: %v\n", err)
		return
	}

	fmt.Fprintln(out, "Channels:")

	for _, d := range m {
		for _, track := range d.Tracks {
			fmt.Fprintf(out, "\t[%d] %s %s %s %s\n", d.ChannelIndex, d.Speaker, track.TrackUID, track.TrackFormatRef, track.PackFormatRef)
		}
	}
}

func printReport(out io.Writer, report bwav.Report) {
	for _, regime := range report.Checked {
		status := "ok"
		if !report.Satisfies(regime) {
			status = "FAILED"
		}

		fmt.Fprintf(out, "Regime %s: %s\n", regime, status)

		for _, v := range report.ViolationsOf(regime) {
			fmt.Fprintf(out, "\t%s\n", v.Constraint)
		}
	}
}
