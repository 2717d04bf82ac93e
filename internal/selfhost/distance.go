package selfhost

import "math"

// QualityToDistance maps a libjpeg-style quality to a butteraugli distance
// the same way jpegli does.
func QualityToDistance(quality int) float64 {
	q := float64(quality)
	switch {
	case quality >= 100:
		return 0.01
	case quality >= 30:
		return 0.1 + (100-q)*0.09
	default:
		return 53.0/3000.0*q*q - 23.0/20.0*q + 25.0
	}
}

// DistanceToQuality returns the quality in [1,100] whose distance is
// closest to the requested one.
func DistanceToQuality(distance float64) int {
	best, bestDiff := 100, math.Inf(1)
	for q := 100; q >= 1; q-- {
		if d := math.Abs(QualityToDistance(q) - distance); d < bestDiff {
			best, bestDiff = q, d
		}
	}
	return best
}
