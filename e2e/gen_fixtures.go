//go:build ignore

// gen_fixtures creates a small benchmark corpus for the E2E smoke test.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	if err := os.MkdirAll(filepath.Join(dir, "gray"), 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rng := rand.New(rand.NewSource(1))

	fixtures := map[string]image.Image{
		"photo.png":          texture(512, 384, rng),
		"edges.png":          checker(256, 256, 16),
		"deep.png":           deepGradient(256, 128),
		"logo.png":           alphaDisc(128, 128),
		"gray/portrait.png":  grayTexture(192, 256, rng),
		"gray/tiny.png":      grayTexture(8, 8, rng),
		"odd/size-97x31.png": texture(97, 31, rng),
	}
	for name, img := range fixtures {
		writePNG(filepath.Join(dir, name), img)
	}
	fmt.Fprintf(os.Stderr, "[gen_fixtures] created %d fixtures in %s\n", len(fixtures), dir)
}

// texture mixes smooth gradients, sinusoidal detail and noise, roughly
// what a natural photo looks like to an encoder.
func texture(w, h int, rng *rand.Rand) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			detail := 40 * math.Sin(float64(x)/7) * math.Cos(float64(y)/11)
			n := rng.NormFloat64() * 6
			img.SetNRGBA(x, y, color.NRGBA{
				R: clamp(float64(x*200/w) + detail + n),
				G: clamp(float64(y*200/h) - detail + n),
				B: clamp(128 + detail/2 + n),
				A: 255,
			})
		}
	}
	return img
}

func checker(w, h, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 20, G: 20, B: 200, A: 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.NRGBA{R: 250, G: 220, B: 10, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func deepGradient(w, h int) *image.NRGBA64 {
	img := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA64(x, y, color.NRGBA64{
				R: uint16(x * 65535 / w),
				G: uint16(y * 65535 / h),
				B: 0x8000,
				A: 0xffff,
			})
		}
	}
	return img
}

func alphaDisc(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	cx, cy, r := float64(w)/2, float64(h)/2, float64(w)/2-4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			a := clamp((r - d) * 32)
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 40, B: uint8(x * 255 / w), A: a})
		}
	}
	return img
}

func grayTexture(w, h int, rng *rand.Rand) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64((x+y)*255/(w+h)) + 30*math.Sin(float64(x*y)/50) + rng.NormFloat64()*4
			img.SetGray(x, y, color.Gray{Y: clamp(v)})
		}
	}
	return img
}

func clamp(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

func writePNG(path string, img image.Image) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", path, err)
		os.Exit(1)
	}
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		fmt.Fprintf(os.Stderr, "encode %s: %v\n", path, err)
		os.Exit(1)
	}
}
