package selfhost

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gen2brain/jpegli"

	"github.com/AnyUserName/jpegbench/internal/packed"
)

var (
	// ErrTooLarge is returned when the image header exceeds SizeConstraints.
	ErrTooLarge = errors.New("image exceeds size constraints")

	// ErrTruncated is returned for streams without SOI or EOI markers.
	ErrTruncated = errors.New("truncated jpeg stream")
)

var (
	markerSOI = []byte{0xff, 0xd8}
	markerEOI = []byte{0xff, 0xd9}
)

// ColorHints carry color metadata for formats that lack it. JPEG streams
// describe their own color space, so the decoder ignores them.
type ColorHints map[string]string

// SizeConstraints bound the dimensions a decoder accepts. Zero fields use
// the defaults below.
type SizeConstraints struct {
	MaxWidth  int
	MaxHeight int
	MaxPixels int64
}

const (
	defaultMaxDim    = 1 << 30
	defaultMaxPixels = 1<<32 - 1
)

func (c SizeConstraints) check(w, h int) error {
	maxW, maxH, maxPx := c.MaxWidth, c.MaxHeight, c.MaxPixels
	if maxW <= 0 {
		maxW = defaultMaxDim
	}
	if maxH <= 0 {
		maxH = defaultMaxDim
	}
	if maxPx <= 0 {
		maxPx = defaultMaxPixels
	}
	if w > maxW || h > maxH || int64(w)*int64(h) > maxPx {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, w, h)
	}
	return nil
}

// Decoder is the native JPEG decode path.
type Decoder struct{}

// NewDecoder returns the in-process jpegli decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// DecodeJPEG decodes data into an 8-bit pixel file with the stream's own
// channel count.
func (d *Decoder) DecodeJPEG(data []byte, _ ColorHints, limits SizeConstraints) (*packed.PixelFile, error) {
	// libjpeg only warns on a premature end of data and fills the rest.
	if !bytes.HasPrefix(data, markerSOI) || bytes.LastIndex(data, markerEOI) < len(markerSOI) {
		return nil, ErrTruncated
	}
	cfg, err := jpegli.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("jpeg header: %w", err)
	}
	if err := limits.check(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	img, err := jpegli.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("jpeg decode: %w", err)
	}
	return packed.PixelFileFromImage(img, nil)
}
