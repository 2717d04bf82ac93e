// Package benchcodec defines the contract between the benchmark harness and
// the codec variants it compares.
package benchcodec

import (
	"errors"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/AnyUserName/jpegbench/internal/pool"
)

// ErrUnknownParam is returned by the harness when a codec rejects a
// parameter token.
var ErrUnknownParam = errors.New("unrecognized codec parameter")

// StatsSink receives one elapsed-time sample (seconds) per codec call.
type StatsSink interface {
	NotifyElapsed(seconds float64)
}

// Codec is one configured codec variant.
type Codec interface {
	// ParseParam consumes one configuration token and reports whether it
	// was recognized. All calls happen before the first Compress.
	ParseParam(param string) bool

	// Compress encodes img and reports the encode time to stats.
	Compress(filename string, img image.Image, p *pool.Pool, stats StatsSink) ([]byte, error)

	// Decompress decodes data and reports the decode time to stats.
	Decompress(filename string, data []byte, p *pool.Pool, stats StatsSink) (image.Image, error)
}

// Default encode targets, matching a fresh codec before any q/d token.
const (
	DefaultQuality  = 100.0
	DefaultDistance = 1.0
)

// Base holds the encode targets shared by every codec family. Codecs embed
// it and call Base.ParseParam before their own tokens.
type Base struct {
	QTarget           float64
	ButteraugliTarget float64
	DistanceSet       bool // a d<float> token was seen
}

// NewBase returns a Base with default targets.
func NewBase() Base {
	return Base{QTarget: DefaultQuality, ButteraugliTarget: DefaultDistance}
}

// ParseParam recognizes q<float> (quality) and d<float> (butteraugli
// distance). The whole remainder must parse as a number, so tokens such as
// "djxl8" fall through to the codec.
func (b *Base) ParseParam(param string) bool {
	if len(param) < 2 {
		return false
	}
	v, ok := parseFloat(param[1:])
	if !ok {
		return false
	}
	switch param[0] {
	case 'q':
		b.QTarget = v
		return true
	case 'd':
		if v < 0 {
			return false
		}
		b.ButteraugliTarget = v
		b.DistanceSet = true
		return true
	}
	return false
}

func parseFloat(s string) (float64, bool) {
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
