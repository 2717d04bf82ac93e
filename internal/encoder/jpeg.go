package encoder

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gen2brain/jpegli"

	"github.com/AnyUserName/jpegbench/internal/packed"
	"github.com/AnyUserName/jpegbench/internal/pool"
)

// LibjpegEncoder produces libjpeg-style baseline output: Annex K
// quantization tables scaled by quality, no adaptive quantization.
// It runs in-process through jpegli's libjpeg-compatible API.
type LibjpegEncoder struct{}

func (e *LibjpegEncoder) Identity() string { return Libjpeg }
func (e *LibjpegEncoder) Available() bool  { return true }

func (e *LibjpegEncoder) Encode(img *packed.Image, opts Options, _ *pool.Pool) ([]byte, error) {
	ratio, err := ParseChroma(opts.ChromaSubsampling)
	if err != nil {
		return nil, err
	}
	// jpegli writes 4:2:0 when asked for 4:1:1.
	if ratio == image.YCbCrSubsampleRatio411 {
		return nil, fmt.Errorf("%w: libjpeg supports 444, 422 and 420, got %q", ErrUnsupportedChroma, opts.ChromaSubsampling)
	}
	src, err := img.Image()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(256 * 1024) // typical photo output

	err = jpegli.Encode(&buf, src, &jpegli.EncodingOptions{
		Quality:             opts.Quality,
		ChromaSubsampling:   ratio,
		StandardQuantTables: true,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
