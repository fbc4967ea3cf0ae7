package audioio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWriteStereoRoundTrip(t *testing.T) {
	const sr = 16000
	n := 800
	left := make([]float64, n)
	right := make([]float64, n)
	for i := range left {
		left[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/sr)
		right[i] = -left[i]
	}
	path := filepath.Join(t.TempDir(), "sub", "stim.wav")
	if err := WriteStereo(path, left, right, sr); err != nil {
		t.Fatalf("WriteStereo: %v", err)
	}
	chans, gotSR, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if gotSR != sr {
		t.Fatalf("sample rate = %d, want %d", gotSR, sr)
	}
	if len(chans) != 2 || len(chans[0]) != n {
		t.Fatalf("shape = %d x %d, want 2 x %d", len(chans), len(chans[0]), n)
	}
	for i := 0; i < n; i++ {
		if math.Abs(chans[0][i]-left[i]) > 1e-3 || math.Abs(chans[1][i]-right[i]) > 1e-3 {
			t.Fatalf("sample %d = (%g,%g), want (%g,%g)", i, chans[0][i], chans[1][i], left[i], right[i])
		}
	}

	mono, _, err := ReadWAVMono(path)
	if err != nil {
		t.Fatalf("ReadWAVMono: %v", err)
	}
	for i, v := range mono {
		if math.Abs(v) > 1e-3 {
			t.Fatalf("mono[%d] = %g, want ~0 for opposite channels", i, v)
		}
	}
}

func TestReadWAVKeepsFullScale(t *testing.T) {
	in := []float64{1, -1, 0.999, 0.5}
	path := filepath.Join(t.TempDir(), "fs.wav")
	if err := WriteStereo(path, in, in, 8000); err != nil {
		t.Fatalf("WriteStereo: %v", err)
	}
	chans, _, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	for c := range chans {
		for i, want := range in {
			if got := chans[c][i]; math.Abs(got-want) > 1e-3 {
				t.Fatalf("ch%d sample %d = %g, want %g", c, i, got, want)
			}
		}
	}
	mono, _, err := ReadWAVMono(path)
	if err != nil {
		t.Fatalf("ReadWAVMono: %v", err)
	}
	if math.Abs(mono[0]-1) > 1e-3 {
		t.Fatalf("mono peak = %g, want ~1", mono[0])
	}
}

func TestWriteStereoLengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := WriteStereo(path, make([]float64, 3), make([]float64, 4), 8000); err == nil {
		t.Fatalf("expected mismatch error")
	}
	if err := WriteInterleaved(path, make([]float32, 3), 2, 8000); err == nil {
		t.Fatalf("expected error for odd interleaved length")
	}
}

func TestResample(t *testing.T) {
	in := make([]float64, 4410)
	same, err := Resample(in, 44100, 44100)
	if err != nil || len(same) != len(in) {
		t.Fatalf("identity resample: len %d, err %v", len(same), err)
	}
	out, err := Resample(in, 44100, 22050)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if d := len(out) - len(in)/2; d < -64 || d > 64 {
		t.Fatalf("resampled length %d, want about %d", len(out), len(in)/2)
	}
}
