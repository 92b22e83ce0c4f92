package bwav

import (
	"time"
)

func nullTermStr(b []byte) string {
	return string(b[:clen(b)])
}

func clen(num []byte) int {
	for i := range num {
		if num[i] == 0 {
			return i
		}
	}

	return len(num)
}

// framesDuration converts a frame count to a duration without overflowing
// for multi-gigabyte files.
func framesDuration(frames uint64, sampleRate uint32) time.Duration {
	if sampleRate == 0 {
		return 0
	}

	rate := uint64(sampleRate)
	secs := frames / rate
	rest := frames % rate

	return time.Duration(secs)*time.Second + time.Duration(rest*uint64(time.Second)/rate)
}
