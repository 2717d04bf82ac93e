package jxl

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	"github.com/AnyUserName/jpegbench/internal/packed"
	"github.com/AnyUserName/jpegbench/internal/tool"
)

// DecompressParams configure a decode.
type DecompressParams struct {
	// AcceptedFormats lists the pixel layouts the caller can take. The
	// decoder picks the first one matching the image's channel count.
	AcceptedFormats []packed.Format
}

func (p DecompressParams) bitDepth() (int, error) {
	if len(p.AcceptedFormats) == 0 {
		return 0, ErrNoFormats
	}
	depth := p.AcceptedFormats[0].Depth
	for _, f := range p.AcceptedFormats[1:] {
		if f.Depth != depth {
			return 0, ErrMixedBitDepth
		}
	}
	if depth != 8 && depth != 16 {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedDepth, depth)
	}
	return depth, nil
}

// Decoder decodes JPEG XL via djxl, writing PNG at the requested depth.
type Decoder struct {
	bin *tool.Tool
}

// NewDecoder locates djxl lazily on first use.
func NewDecoder() *Decoder {
	return &Decoder{bin: tool.New("djxl", "apt install libjxl-tools / brew install jpeg-xl")}
}

func (d *Decoder) Available() bool { return d.bin.Available() }

// DecodeJXL decodes data into one of the accepted formats.
func (d *Decoder) DecodeJXL(data []byte, params DecompressParams) (*packed.PixelFile, error) {
	depth, err := params.bitDepth()
	if err != nil {
		return nil, err
	}
	if !IsJXL(data) {
		return nil, ErrNotJXL
	}

	w := tool.NewWorkdir("jpegbench_djxl")
	defer w.Cleanup()
	srcPath, err := w.Write("jxl", data)
	if err != nil {
		return nil, err
	}
	dstPath, err := w.Reserve("png")
	if err != nil {
		return nil, err
	}

	if err := d.bin.Run(srcPath, dstPath, fmt.Sprintf("--bits_per_sample=%d", depth), "--quiet"); err != nil {
		return nil, err
	}
	out, err := os.ReadFile(dstPath)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("read djxl output: %w", err)
	}
	return packed.PixelFileFromImage(img, params.AcceptedFormats)
}
