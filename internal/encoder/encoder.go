package encoder

import (
	"errors"
	"fmt"
	"image"

	"github.com/AnyUserName/jpegbench/internal/packed"
	"github.com/AnyUserName/jpegbench/internal/pool"
)

// Encoder identities accepted in Options.Encoder.
const (
	Libjpeg = "libjpeg"
	Sjpeg   = "sjpeg"
)

var (
	ErrUnknownEncoder     = errors.New("unknown jpeg encoder")
	ErrEncoderUnavailable = errors.New("jpeg encoder unavailable")
	ErrInvalidQuality     = errors.New("invalid quality (must be 1-100)")
	ErrUnsupportedChroma  = errors.New("unsupported chroma subsampling")
)

// Options are the settings passed with every encode request.
type Options struct {
	Quality           int    // 1-100
	Encoder           string // back-end identity
	ChromaSubsampling string // "444", "422", "420" or "411"
}

// Encoder is one JPEG back-end.
type Encoder interface {
	// Identity returns the name used in Options.Encoder.
	Identity() string

	// Available returns true if the back-end is ready to use.
	// External encoders (sjpeg) may not be installed.
	Available() bool

	// Encode compresses an 8-bit packed image.
	Encode(img *packed.Image, opts Options, p *pool.Pool) ([]byte, error)
}

// ParseChroma maps a 3-digit subsampling code to the image package ratio.
func ParseChroma(s string) (image.YCbCrSubsampleRatio, error) {
	switch s {
	case "444":
		return image.YCbCrSubsampleRatio444, nil
	case "422":
		return image.YCbCrSubsampleRatio422, nil
	case "420":
		return image.YCbCrSubsampleRatio420, nil
	case "411":
		return image.YCbCrSubsampleRatio411, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedChroma, s)
}
