package sfg

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-approx"
)

// ISO 226:2003 equal-loudness parameters at the 29 tabulated frequencies.
var (
	isoFreqs = []float64{
		20, 25, 31.5, 40, 50, 63, 80, 100, 125, 160, 200, 250, 315, 400, 500,
		630, 800, 1000, 1250, 1600, 2000, 2500, 3150, 4000, 5000, 6300, 8000,
		10000, 12500,
	}
	isoAf = []float64{
		0.532, 0.506, 0.480, 0.455, 0.432, 0.409, 0.387, 0.367, 0.349, 0.330,
		0.315, 0.301, 0.288, 0.276, 0.267, 0.259, 0.253, 0.250, 0.246, 0.244,
		0.243, 0.243, 0.243, 0.242, 0.242, 0.245, 0.254, 0.271, 0.301,
	}
	isoLu = []float64{
		-31.6, -27.2, -23.0, -19.1, -15.9, -13.0, -10.3, -8.1, -6.2, -4.5,
		-3.1, -2.0, -1.1, -0.4, 0.0, 0.3, 0.5, 0.0, -2.7, -4.1,
		-1.0, 1.7, 2.5, 1.2, -2.1, -7.1, -11.2, -10.7, -3.1,
	}
	isoTf = []float64{
		78.5, 68.7, 59.5, 51.1, 44.0, 37.5, 31.5, 26.5, 22.1, 17.9,
		14.4, 11.4, 8.6, 6.2, 4.4, 3.0, 2.2, 2.4, 3.5, 1.7,
		-1.3, -4.2, -6.0, -5.4, -1.5, 6.0, 12.6, 13.9, 12.3,
	}
)

const (
	phonMin = 0.0
	phonMax = 90.0
	ln10    = 2.302585092994046
)

func checkPhon(phon float64) error {
	if phon < phonMin || phon > phonMax || math.IsNaN(phon) {
		return &InvalidRangeError{Field: "PhonLevel", Reason: fmt.Sprintf("%.1f phon outside [%g,%g]", phon, phonMin, phonMax)}
	}
	return nil
}

// EqualLoudnessSPL returns the ISO 226 contour for phon as the tabulated
// frequencies and the sound pressure level in dB at each of them.
func EqualLoudnessSPL(phon float64) ([]float64, []float64, error) {
	if err := checkPhon(phon); err != nil {
		return nil, nil, err
	}
	spl := make([]float64, len(isoFreqs))
	for i := range isoFreqs {
		af := 4.47e-3*(math.Pow(10, 0.025*phon)-1.15) +
			math.Pow(0.4*math.Pow(10, (isoTf[i]+isoLu[i])/10-9), isoAf[i])
		spl[i] = 10/isoAf[i]*math.Log10(af) - isoLu[i] + 94
	}
	freqs := make([]float64, len(isoFreqs))
	copy(freqs, isoFreqs)
	return freqs, spl, nil
}

// LoudnessGains returns a power-domain gain per frequency that equalizes
// perceived loudness on the phon contour. The contour is interpolated linearly
// over log-frequency and held constant outside 20 Hz - 12.5 kHz.
func LoudnessGains(freqs []float64, phon float64) ([]float64, error) {
	cf, spl, err := EqualLoudnessSPL(phon)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		if f <= 0 {
			return nil, &InvalidRangeError{Field: "frequency", Reason: fmt.Sprintf("%.3f Hz must be > 0", f)}
		}
		offset := interpLogFreq(cf, spl, f) - phon
		out[i] = math.Sqrt(dbToAmplitude(offset))
	}
	return out, nil
}

func dbToAmplitude(db float64) float64 {
	return float64(approx.FastExp(float32(db * ln10 / 20)))
}

func interpLogFreq(xs, ys []float64, f float64) float64 {
	if f <= xs[0] {
		return ys[0]
	}
	last := len(xs) - 1
	if f >= xs[last] {
		return ys[last]
	}
	lf := math.Log(f)
	for i := 1; i <= last; i++ {
		if f <= xs[i] {
			x0 := math.Log(xs[i-1])
			x1 := math.Log(xs[i])
			t := (lf - x0) / (x1 - x0)
			return ys[i-1] + t*(ys[i]-ys[i-1])
		}
	}
	return ys[last]
}
