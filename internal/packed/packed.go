// Package packed converts between image.Image and the interleaved sample
// buffers the codec back-ends exchange.
package packed

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var (
	// ErrUnsupportedFormat is returned for channel counts or bit depths the
	// converters do not handle.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")

	// ErrNoAcceptedFormat is returned when none of the accepted formats can
	// represent the decoded image.
	ErrNoAcceptedFormat = errors.New("no accepted pixel format matches")

	// ErrEmptyImage is returned for zero-sized images.
	ErrEmptyImage = errors.New("empty image")
)

// Format describes the sample layout of a packed buffer.
type Format struct {
	Channels  int  // 1 gray, 2 gray+alpha, 3 RGB, 4 RGBA; 0 follows the source image
	Depth     int  // bits per sample, 8 or 16
	BigEndian bool // byte order of 16-bit samples
}

// RGB8 is the fixed 8-bit layout handed to the JPEG encoders. Channels is
// left at 0 so gray sources stay single-channel.
var RGB8 = Format{Channels: 0, Depth: 8, BigEndian: true}

func (f Format) String() string {
	order := "LE"
	if f.BigEndian {
		order = "BE"
	}
	return fmt.Sprintf("%dch/%dbit/%s", f.Channels, f.Depth, order)
}

func (f Format) bytesPerSample() int { return f.Depth / 8 }

func (f Format) validate() error {
	if f.Channels < 1 || f.Channels > 4 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.Channels)
	}
	if f.Depth != 8 && f.Depth != 16 {
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, f.Depth)
	}
	return nil
}

// Image is a single interleaved frame without row padding.
type Image struct {
	Width  int
	Height int
	Format Format
	Pix    []byte
}

// Stride returns the number of bytes per row.
func (p *Image) Stride() int {
	return p.Width * p.Format.Channels * p.Format.bytesPerSample()
}

// Info mirrors the basic header of a decoded file.
type Info struct {
	Width         int
	Height        int
	Channels      int
	BitsPerSample int
}

// PixelFile is the generic decoded representation returned by decoders.
// Only the first frame is used by the benchmark.
type PixelFile struct {
	Info   Info
	Frames []*Image
}

// NewPixelFile wraps a single frame.
func NewPixelFile(frame *Image) *PixelFile {
	return &PixelFile{
		Info: Info{
			Width:         frame.Width,
			Height:        frame.Height,
			Channels:      frame.Format.Channels,
			BitsPerSample: frame.Format.Depth,
		},
		Frames: []*Image{frame},
	}
}

// Image converts the primary frame back to an image.Image.
func (f *PixelFile) Image() (image.Image, error) {
	if f == nil || len(f.Frames) == 0 {
		return nil, ErrEmptyImage
	}
	return f.Frames[0].Image()
}

// SourceChannels reports how many channels are needed to represent img
// without loss: 1 for gray, 4 when any pixel is translucent, else 3.
func SourceChannels(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return 4
	}
	return 3
}

// FromImage packs img into the requested format. A zero Channels value
// keeps the channel count of the source.
func FromImage(img image.Image, f Format) (*Image, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}
	if f.Channels == 0 {
		f.Channels = SourceChannels(img)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}

	out := &Image{Width: b.Dx(), Height: b.Dy(), Format: f}
	out.Pix = make([]byte, out.Stride()*out.Height)

	if f.Depth == 8 {
		pack8(imaging.Clone(img), out)
		return out, nil
	}
	pack16(img, out)
	return out, nil
}

func pack8(src *image.NRGBA, dst *Image) {
	ch := dst.Format.Channels
	i := 0
	for y := 0; y < dst.Height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+dst.Width*4]
		for x := 0; x < dst.Width; x++ {
			r, g, b, a := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
			switch ch {
			case 1:
				dst.Pix[i] = luma8(r, g, b)
			case 2:
				dst.Pix[i] = luma8(r, g, b)
				dst.Pix[i+1] = a
			case 3:
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = r, g, b
			case 4:
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = r, g, b, a
			}
			i += ch
		}
	}
}

func pack16(src image.Image, dst *Image) {
	b := src.Bounds()
	ch := dst.Format.Channels
	i := 0
	put := func(v uint16) {
		if dst.Format.BigEndian {
			dst.Pix[i], dst.Pix[i+1] = byte(v>>8), byte(v)
		} else {
			dst.Pix[i], dst.Pix[i+1] = byte(v), byte(v>>8)
		}
		i += 2
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBA64Model.Convert(src.At(x, y)).(color.NRGBA64)
			switch ch {
			case 1:
				put(luma16(c.R, c.G, c.B))
			case 2:
				put(luma16(c.R, c.G, c.B))
				put(c.A)
			case 3:
				put(c.R)
				put(c.G)
				put(c.B)
			case 4:
				put(c.R)
				put(c.G)
				put(c.B)
				put(c.A)
			}
		}
	}
}

// Same coefficients as color.GrayModel.
func luma8(r, g, b uint8) uint8 {
	y := (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
	return uint8(y)
}

func luma16(r, g, b uint16) uint16 {
	y := (19595*uint64(r) + 38470*uint64(g) + 7471*uint64(b) + 1<<15) >> 16
	return uint16(y)
}

// Image unpacks the buffer into an image.Image: Gray/Gray16 for one
// channel, NRGBA/NRGBA64 otherwise.
func (p *Image) Image() (image.Image, error) {
	if err := p.Format.validate(); err != nil {
		return nil, err
	}
	if p.Width <= 0 || p.Height <= 0 {
		return nil, ErrEmptyImage
	}
	if len(p.Pix) < p.Stride()*p.Height {
		return nil, fmt.Errorf("%w: buffer holds %d bytes, need %d",
			ErrUnsupportedFormat, len(p.Pix), p.Stride()*p.Height)
	}

	rect := image.Rect(0, 0, p.Width, p.Height)
	ch := p.Format.Channels

	if p.Format.Depth == 8 {
		if ch == 1 {
			g := image.NewGray(rect)
			copy(g.Pix, p.Pix[:len(g.Pix)])
			return g, nil
		}
		out := image.NewNRGBA(rect)
		for i, o := 0, 0; o < len(out.Pix); i, o = i+ch, o+4 {
			expand(out.Pix[o:o+4], p.Pix[i:i+ch], 0xff)
		}
		return out, nil
	}

	get := func(i int) uint16 {
		if p.Format.BigEndian {
			return uint16(p.Pix[i])<<8 | uint16(p.Pix[i+1])
		}
		return uint16(p.Pix[i+1])<<8 | uint16(p.Pix[i])
	}
	if ch == 1 {
		g := image.NewGray16(rect)
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				g.SetGray16(x, y, color.Gray16{Y: get((y*p.Width + x) * 2)})
			}
		}
		return g, nil
	}
	out := image.NewNRGBA64(rect)
	var s [4]uint16
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			base := (y*p.Width + x) * ch * 2
			for c := 0; c < ch; c++ {
				s[c] = get(base + c*2)
			}
			var c color.NRGBA64
			switch ch {
			case 2:
				c = color.NRGBA64{R: s[0], G: s[0], B: s[0], A: s[1]}
			case 3:
				c = color.NRGBA64{R: s[0], G: s[1], B: s[2], A: 0xffff}
			case 4:
				c = color.NRGBA64{R: s[0], G: s[1], B: s[2], A: s[3]}
			}
			out.SetNRGBA64(x, y, c)
		}
	}
	return out, nil
}

// expand writes one 8-bit pixel of 2..4 channels as NRGBA.
func expand(dst, src []byte, opaque byte) {
	switch len(src) {
	case 2:
		dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], src[1]
	case 3:
		dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], opaque
	case 4:
		copy(dst, src)
	}
}

// PixelFileFromImage packs a decoded image into the first accepted format
// that can hold it. Gray images prefer one channel; color images need three
// (alpha is dropped unless a four-channel format is accepted). An empty
// accepted list means 8-bit big-endian at the source channel count.
func PixelFileFromImage(img image.Image, accepted []Format) (*PixelFile, error) {
	if len(accepted) == 0 {
		frame, err := FromImage(img, RGB8)
		if err != nil {
			return nil, err
		}
		return NewPixelFile(frame), nil
	}

	want := SourceChannels(img)
	f, ok := pickFormat(want, accepted)
	if !ok {
		return nil, fmt.Errorf("%w: image needs %d channels, accepted %v", ErrNoAcceptedFormat, want, accepted)
	}
	frame, err := FromImage(img, f)
	if err != nil {
		return nil, err
	}
	return NewPixelFile(frame), nil
}

func pickFormat(want int, accepted []Format) (Format, bool) {
	var prefs []int
	switch want {
	case 1:
		prefs = []int{1, 2, 3, 4}
	case 4:
		prefs = []int{4, 3}
	default:
		prefs = []int{3, 4}
	}
	for _, ch := range prefs {
		for _, f := range accepted {
			if f.Channels == ch {
				return f, true
			}
		}
	}
	return Format{}, false
}
