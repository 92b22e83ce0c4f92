// Package bwav reads WAVE, Broadcast-WAVE, RF64 and BW64 files.
//
// A Reader indexes every chunk of a file once, resolving RF64 sizes through
// the ds64 chunk, so callers never see the 32-bit placeholder sizes:
//
//	r, err := bwav.Open("take1.wav")
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	frames, err := r.AudioFrameReader()
//
// The fmt, bext and chna chunks are decoded on first use. Frames are read
// one at a time with ReadIntegerFrame and ReadFloatFrame, or in bulk into
// go-audio buffers with ReadIntBuffer and ReadFloat32Buffer.
//
// Validate reports which structural regimes a file satisfies, such as plain
// WAVE, Broadcast-WAVE or append-ready RF64, without rejecting the file.
package bwav
