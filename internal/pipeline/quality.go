package pipeline

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// maxPSNR stands in for +Inf when the images are identical.
const maxPSNR = 99.0

var errSizeMismatch = errors.New("decoded image size differs from source")

// psnr compares two images over 8-bit RGB.
func psnr(ref, dist image.Image) (float64, error) {
	if ref.Bounds().Size() != dist.Bounds().Size() {
		return 0, errSizeMismatch
	}
	a, b := imaging.Clone(ref), imaging.Clone(dist)

	var sse float64
	var n int
	for y := 0; y < a.Rect.Dy(); y++ {
		ra := a.Pix[y*a.Stride : y*a.Stride+a.Rect.Dx()*4]
		rb := b.Pix[y*b.Stride : y*b.Stride+b.Rect.Dx()*4]
		for i := 0; i < len(ra); i += 4 {
			for c := 0; c < 3; c++ {
				d := float64(ra[i+c]) - float64(rb[i+c])
				sse += d * d
			}
			n += 3
		}
	}
	if n == 0 {
		return 0, errSizeMismatch
	}
	mse := sse / float64(n)
	if mse == 0 {
		return maxPSNR, nil
	}
	return math.Min(10*math.Log10(255*255/mse), maxPSNR), nil
}

// bitsPerPixel is the compressed size spread over the image area.
func bitsPerPixel(size int, w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	return float64(size) * 8 / float64(w*h)
}
