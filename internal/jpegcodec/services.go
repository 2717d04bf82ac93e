package jpegcodec

import (
	"image"

	"github.com/benbjohnson/clock"

	"github.com/AnyUserName/jpegbench/internal/encoder"
	"github.com/AnyUserName/jpegbench/internal/jxl"
	"github.com/AnyUserName/jpegbench/internal/packed"
	"github.com/AnyUserName/jpegbench/internal/pool"
	"github.com/AnyUserName/jpegbench/internal/selfhost"
)

// JPEGEncoder is the generic JPEG encoding service; opts.Encoder selects
// the library.
type JPEGEncoder interface {
	Encode(img *packed.Image, opts encoder.Options, p *pool.Pool) ([]byte, error)
}

// SelfHostedEncoder produces JPEG with the benchmark's own encoder.
// targetSize 0 means unconstrained.
type SelfHostedEncoder interface {
	EncodeJPEG(img image.Image, targetSize int, distance float64, p *pool.Pool) ([]byte, error)
}

// JPEGDecoder is the native JPEG decode service.
type JPEGDecoder interface {
	DecodeJPEG(data []byte, hints selfhost.ColorHints, limits selfhost.SizeConstraints) (*packed.PixelFile, error)
}

// Transcoder recompresses JPEG bytes into JPEG XL.
type Transcoder interface {
	TranscodeJPEG(jpeg []byte, params jxl.CompressParams) ([]byte, error)
}

// JXLDecoder decodes JPEG XL bytes.
type JXLDecoder interface {
	DecodeJXL(data []byte, params jxl.DecompressParams) (*packed.PixelFile, error)
}

// Services are the collaborators a Codec calls. Nil fields are filled with
// the default implementations by New.
type Services struct {
	JPEG       JPEGEncoder
	SelfHosted SelfHostedEncoder
	Decoder    JPEGDecoder
	Transcoder Transcoder
	JXLDecoder JXLDecoder
	Clock      clock.Clock
}

// DefaultServices wires the in-process jpegli back-ends, sjpeg and the
// libjxl command-line tools.
func DefaultServices() Services {
	return Services{
		JPEG:       encoder.NewJPEG(nil),
		SelfHosted: selfhost.NewEncoder(),
		Decoder:    selfhost.NewDecoder(),
		Transcoder: jxl.NewTranscoder(),
		JXLDecoder: jxl.NewDecoder(),
		Clock:      clock.New(),
	}
}

func (s Services) withDefaults() Services {
	if s.JPEG != nil && s.SelfHosted != nil && s.Decoder != nil &&
		s.Transcoder != nil && s.JXLDecoder != nil && s.Clock != nil {
		return s
	}
	d := DefaultServices()
	if s.JPEG == nil {
		s.JPEG = d.JPEG
	}
	if s.SelfHosted == nil {
		s.SelfHosted = d.SelfHosted
	}
	if s.Decoder == nil {
		s.Decoder = d.Decoder
	}
	if s.Transcoder == nil {
		s.Transcoder = d.Transcoder
	}
	if s.JXLDecoder == nil {
		s.JXLDecoder = d.JXLDecoder
	}
	if s.Clock == nil {
		s.Clock = d.Clock
	}
	return s
}
