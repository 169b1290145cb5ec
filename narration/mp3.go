package narration

import (
	"encoding/binary"
	"errors"
	"time"
)

var ErrNoFrames = errors.New("no MPEG audio frames found")

// MPEG1 Layer III bitrate table, kbit/s. Index 0 and 15 are invalid.
var mp3BitrateTable = [16]int{0, 32, 40, 48, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0, 0}

// MPEG1 sample rates by header index.
var mp3SampleRateTable = [3]int{44100, 48000, 32000}

const (
	mp3SamplesPerFrame = 1152
	// Nominal bitrate for the size-estimate fallback; typical for the
	// 48 kbit/s mono output the engine streams.
	estimateBitrateKbps = 48
)

// MP3Duration computes a clip's duration by scanning MPEG1 Layer III frame
// headers and summing per-frame sample counts. It returns ErrNoFrames when no
// parseable frame exists in the data.
func MP3Duration(data []byte) (time.Duration, error) {
	totalFrames := 0
	sampleRate := 24000
	i := 0

	for i < len(data)-4 {
		// Frame sync is 11 set bits.
		if data[i] != 0xFF || data[i+1]&0xE0 != 0xE0 {
			i++
			continue
		}

		header := binary.BigEndian.Uint32(data[i : i+4])
		version := (header >> 19) & 0x03
		layer := (header >> 17) & 0x03

		if version == 0 || layer == 0 {
			i++
			continue
		}

		bitrateIdx := (header >> 12) & 0x0F
		srIdx := (header >> 10) & 0x03
		padding := (header >> 9) & 0x01

		if bitrateIdx == 0 || bitrateIdx == 15 || srIdx == 3 {
			i++
			continue
		}

		// Only MPEG1 frames carry the table values below.
		if version != 3 {
			i++
			continue
		}

		bitrate := mp3BitrateTable[bitrateIdx] * 1000
		sr := mp3SampleRateTable[srIdx]
		if bitrate == 0 || sr == 0 {
			i++
			continue
		}

		frameSize := 144*bitrate/sr + int(padding)
		if frameSize < 4 {
			i++
			continue
		}

		sampleRate = sr
		totalFrames++
		i += frameSize
	}

	if totalFrames == 0 {
		return 0, ErrNoFrames
	}

	totalSamples := totalFrames * mp3SamplesPerFrame
	ms := int64(totalSamples) * 1000 / int64(sampleRate)
	return time.Duration(ms) * time.Millisecond, nil
}

// EstimateDuration guesses a clip's duration from its byte size assuming the
// nominal stream bitrate. This is the last-resort tier; results carry low
// confidence and callers must mark them as such.
func EstimateDuration(sizeBytes int) time.Duration {
	ms := int64(sizeBytes) * 8 / estimateBitrateKbps
	return time.Duration(ms) * time.Millisecond
}
