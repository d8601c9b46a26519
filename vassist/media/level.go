package media

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Levels summarizes loudness for one channel of normalized samples.
type Levels struct {
	RMS  float64
	Peak float64
}

// Measure computes the RMS and absolute peak of a channel. An empty slice
// measures as silence.
func Measure(samples []float64) Levels {
	if len(samples) == 0 {
		return Levels{}
	}
	rms := floats.Norm(samples, 2) / math.Sqrt(float64(len(samples)))
	peak := math.Max(math.Abs(floats.Max(samples)), math.Abs(floats.Min(samples)))
	return Levels{RMS: rms, Peak: peak}
}

// MeasureFrame decodes f and measures each channel independently.
func MeasureFrame(f Frame) ([]Levels, error) {
	channels, err := DecodeFrame(f)
	if err != nil {
		return nil, err
	}
	levels := make([]Levels, len(channels))
	for c, ch := range channels {
		levels[c] = Measure(ch)
	}
	return levels, nil
}
