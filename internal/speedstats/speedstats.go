// Package speedstats collects elapsed-time samples reported by codecs.
package speedstats

import (
	"math"
	"sort"
	"sync"
)

// Sink receives one elapsed-time sample per codec call.
type Sink interface {
	NotifyElapsed(seconds float64)
}

// SpeedStats accumulates samples. It is safe for concurrent use.
type SpeedStats struct {
	mu      sync.Mutex
	samples []float64
}

// NotifyElapsed records a sample. Negative and NaN values are dropped.
func (s *SpeedStats) NotifyElapsed(seconds float64) {
	if seconds < 0 || math.IsNaN(seconds) {
		return
	}
	s.mu.Lock()
	s.samples = append(s.samples, seconds)
	s.mu.Unlock()
}

// Samples returns a copy of the recorded samples in arrival order.
func (s *SpeedStats) Samples() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.samples))
	copy(out, s.samples)
	return out
}

// Summary describes the distribution of samples, in seconds.
type Summary struct {
	Count   int     `json:"count"`
	Total   float64 `json:"total"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Median  float64 `json:"median"`
	GeoMean float64 `json:"geomean"`
}

// Summary computes aggregate statistics over all samples so far.
func (s *SpeedStats) Summary() Summary {
	samples := s.Samples()
	if len(samples) == 0 {
		return Summary{}
	}
	sort.Float64s(samples)

	sum := Summary{
		Count: len(samples),
		Min:   samples[0],
		Max:   samples[len(samples)-1],
	}
	var logSum float64
	zero := false
	for _, v := range samples {
		sum.Total += v
		if v == 0 {
			zero = true
			continue
		}
		logSum += math.Log(v)
	}
	if !zero {
		sum.GeoMean = math.Exp(logSum / float64(len(samples)))
	}

	mid := len(samples) / 2
	if len(samples)%2 == 1 {
		sum.Median = samples[mid]
	} else {
		sum.Median = (samples[mid-1] + samples[mid]) / 2
	}
	return sum
}

// MegapixelsPerSecond returns throughput for the given number of pixels
// processed across all samples. Zero when no time was recorded.
func (s Summary) MegapixelsPerSecond(pixels int64) float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(pixels) / 1e6 / s.Total
}

// Recorder keeps the last sample of a single call. Not safe for
// concurrent use.
type Recorder struct {
	Count   int
	Elapsed float64
}

func (r *Recorder) NotifyElapsed(seconds float64) {
	r.Count++
	r.Elapsed = seconds
}

// Tee forwards every sample to all sinks.
type Tee []Sink

func (t Tee) NotifyElapsed(seconds float64) {
	for _, s := range t {
		if s != nil {
			s.NotifyElapsed(seconds)
		}
	}
}
