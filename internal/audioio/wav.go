package audioio

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// BitDepth is the PCM depth used for every file written by this package.
const BitDepth = 16

// ReadWAV returns the channels of a PCM WAV file. The decoder already
// scales samples to [-1, 1].
func ReadWAV(path string) ([][]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([][]float64, ch)
	for c := range out {
		out[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < ch; c++ {
			out[c][i] = float64(buf.Data[i*ch+c])
		}
	}
	return out, buf.Format.SampleRate, nil
}

// ReadWAVMono averages all channels of a WAV file.
func ReadWAVMono(path string) ([]float64, int, error) {
	chans, sr, err := ReadWAV(path)
	if err != nil {
		return nil, 0, err
	}
	out := make([]float64, len(chans[0]))
	for _, c := range chans {
		for i, v := range c {
			out[i] += v
		}
	}
	inv := 1 / float64(len(chans))
	for i := range out {
		out[i] *= inv
	}
	return out, sr, nil
}

// Resample converts between sample rates. Equal rates return the input.
func Resample(in []float64, fromRate, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// WriteStereo writes two equal-length channels as a 16-bit stereo file.
func WriteStereo(path string, left, right []float64, sampleRate int) error {
	if len(left) != len(right) {
		return fmt.Errorf("left/right length mismatch: %d vs %d", len(left), len(right))
	}
	data := make([]float32, len(left)*2)
	for i := range left {
		data[i*2] = float32(left[i])
		data[i*2+1] = float32(right[i])
	}
	return WriteInterleaved(path, data, 2, sampleRate)
}

// WriteInterleaved writes frame-interleaved samples, creating parent dirs.
func WriteInterleaved(path string, samples []float32, channels, sampleRate int) error {
	if channels < 1 {
		return fmt.Errorf("channels must be >= 1")
	}
	if len(samples)%channels != 0 {
		return fmt.Errorf("%d samples do not divide into %d channels", len(samples), channels)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, BitDepth, channels, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: BitDepth,
	}
	return enc.Write(buf)
}
