// Package playback plays rendered stimuli on the default audio device. It is
// an audition aid, not a timing-accurate presentation path. Build with the
// headless tag to drop the device backend.
package playback

import (
	"encoding/binary"
	"math"
)

// EncodeFloat32LE packs interleaved samples into the little-endian float32
// byte stream the device expects. Samples are clipped to [-1, 1].
func EncodeFloat32LE(samples []float32) []byte {
	out := make([]byte, 4*len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(s))
	}
	return out
}

// Duration is the playing time of n interleaved samples.
func Duration(n, channels, sampleRate int) float64 {
	if channels <= 0 || sampleRate <= 0 {
		return 0
	}
	return float64(n/channels) / float64(sampleRate)
}
