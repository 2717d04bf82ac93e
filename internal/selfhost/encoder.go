// Package selfhost holds the benchmark's own JPEG family code paths:
// a jpegli encoder with target-size rate control and the native JPEG
// decoder.
package selfhost

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/jpegli"

	"github.com/AnyUserName/jpegbench/internal/pool"
)

// Encoder produces JPEG through jpegli. With a target size it searches the
// quality scale for the largest output that still fits.
type Encoder struct{}

// NewEncoder returns the in-process jpegli encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// EncodeJPEG encodes img at the given butteraugli distance, or, when
// targetSize > 0, at the highest quality whose output is at most
// targetSize bytes. If even quality 1 overshoots, that smallest output is
// returned. Candidate qualities are probed in parallel on p.
func (e *Encoder) EncodeJPEG(img image.Image, targetSize int, distance float64, p *pool.Pool) ([]byte, error) {
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("empty image")
	}
	if targetSize <= 0 {
		return encodeQuality(img, DistanceToQuality(distance))
	}
	return e.searchSize(img, targetSize, p)
}

func encodeQuality(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	err := jpegli.Encode(&buf, img, &jpegli.EncodingOptions{
		Quality:              quality,
		AdaptiveQuantization: true,
		OptimizeCoding:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("jpegli q%d: %w", quality, err)
	}
	return buf.Bytes(), nil
}

// searchSize runs a k-ary search over quality, k being the pool width.
// Output size is assumed non-decreasing in quality.
func (e *Encoder) searchSize(img image.Image, target int, p *pool.Pool) ([]byte, error) {
	var (
		mu    sync.Mutex
		cache = make(map[int][]byte)
	)
	encode := func(q int) ([]byte, error) {
		mu.Lock()
		data, ok := cache[q]
		mu.Unlock()
		if ok {
			return data, nil
		}
		data, err := encodeQuality(img, q)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		cache[q] = data
		mu.Unlock()
		return data, nil
	}

	var best []byte
	lo, hi := 1, 100
	for lo <= hi {
		probes := probeQualities(lo, hi, p.Threads())
		results := make([][]byte, len(probes))
		err := p.Run(len(probes), func(i int) error {
			data, err := encode(probes[i])
			results[i] = data
			return err
		})
		if err != nil {
			return nil, err
		}

		fit := -1
		for i, data := range results {
			if len(data) <= target {
				fit = i
			}
		}
		if fit < 0 {
			hi = probes[0] - 1
			continue
		}
		best = results[fit]
		lo = probes[fit] + 1
		if fit+1 < len(probes) {
			hi = probes[fit+1] - 1
		}
	}

	if best == nil {
		return encode(1)
	}
	return best, nil
}

// probeQualities spreads up to k distinct qualities over [lo, hi].
func probeQualities(lo, hi, k int) []int {
	span := hi - lo + 1
	if k > span {
		k = span
	}
	if k < 1 {
		k = 1
	}
	out := make([]int, 0, k)
	for i := 0; i < k; i++ {
		q := lo + (i+1)*span/(k+1)
		if len(out) > 0 && q <= out[len(out)-1] {
			q = out[len(out)-1] + 1
		}
		if q > hi {
			break
		}
		out = append(out, q)
	}
	return out
}
