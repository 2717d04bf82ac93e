package encoder

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	"github.com/AnyUserName/jpegbench/internal/packed"
	"github.com/AnyUserName/jpegbench/internal/pool"
	"github.com/AnyUserName/jpegbench/internal/tool"
)

// SjpegEncoder encodes by shelling out to the sjpeg example binary.
// Install: build github.com/webmproject/sjpeg and put sjpeg in PATH.
type SjpegEncoder struct {
	bin *tool.Tool
}

// NewSjpegEncoder locates sjpeg lazily on first use.
func NewSjpegEncoder() *SjpegEncoder {
	return &SjpegEncoder{bin: tool.New("sjpeg", "build from github.com/webmproject/sjpeg")}
}

func (e *SjpegEncoder) Identity() string { return Sjpeg }
func (e *SjpegEncoder) Available() bool  { return e.bin.Available() }

// sjpeg only knows 4:2:0 and 4:4:4 (its -yuv_mode 1 and 3).
func sjpegYUVMode(chroma string) (string, error) {
	switch chroma {
	case "444":
		return "3", nil
	case "420":
		return "1", nil
	}
	return "", fmt.Errorf("%w: sjpeg supports 444 and 420, got %q", ErrUnsupportedChroma, chroma)
}

func (e *SjpegEncoder) Encode(img *packed.Image, opts Options, _ *pool.Pool) ([]byte, error) {
	yuvMode, err := sjpegYUVMode(opts.ChromaSubsampling)
	if err != nil {
		return nil, err
	}
	src, err := img.Image()
	if err != nil {
		return nil, err
	}

	// sjpeg reads files; hand it a lossless PNG of the packed pixels.
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, src); err != nil {
		return nil, fmt.Errorf("encode temp png: %w", err)
	}

	w := tool.NewWorkdir("jpegbench_sjpeg")
	defer w.Cleanup()
	srcPath, err := w.Write("png", pngBuf.Bytes())
	if err != nil {
		return nil, err
	}
	dstPath, err := w.Reserve("jpg")
	if err != nil {
		return nil, err
	}

	if err := e.bin.Run(
		"-q", fmt.Sprintf("%d", opts.Quality),
		"-yuv_mode", yuvMode,
		"-quiet",
		srcPath,
		"-o", dstPath,
	); err != nil {
		return nil, err
	}
	return os.ReadFile(dstPath)
}
