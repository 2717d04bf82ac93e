// Package jpegcodec is the benchmark adapter for JPEG. One Codec compares a
// configurable JPEG encoder (libjpeg, sjpeg or the self-hosted encoder) and
// decoder (native JPEG or a JPEG XL lossless-transcode round trip) behind
// the benchcodec.Codec contract.
package jpegcodec

import (
	"fmt"
	"strings"

	"github.com/AnyUserName/jpegbench/internal/benchcodec"
	"github.com/AnyUserName/jpegbench/internal/encoder"
)

// Name is the codec family name used in spec strings ("jpeg:libjxl:q90").
const Name = "jpeg"

// DefaultChroma is used when neither the caller nor a yuv token picks one.
const DefaultChroma = "444"

// Encoder selects which library produces the JPEG bytes.
type Encoder int

const (
	PrimaryLibrary Encoder = iota
	AlternateLibrary
	SelfHosted
)

// Identity is the encoder name understood by the JPEG service and printed
// in reports.
func (e Encoder) Identity() string {
	switch e {
	case AlternateLibrary:
		return encoder.Sjpeg
	case SelfHosted:
		return "libjxl"
	default:
		return encoder.Libjpeg
	}
}

func (e Encoder) String() string { return e.Identity() }

// Depth is the per-sample bit depth requested from the JPEG XL decoder.
type Depth int

const (
	Depth8  Depth = 8
	Depth16 Depth = 16
)

// Config is the resolved adapter configuration. It is only written by
// ParseParam.
type Config struct {
	Encoder           Encoder
	ChromaSubsampling string
	NormalizeBitrate  bool
	UseJXLDecoder     bool
	JXLDecodeDepth    Depth
}

// Defaults are process-wide settings supplied at construction.
type Defaults struct {
	ChromaSubsampling string
}

// Codec is the JPEG adapter. Once parameter parsing is done it may be used
// from several goroutines at once.
type Codec struct {
	benchcodec.Base

	cfg Config
	svc Services
}

var _ benchcodec.Codec = (*Codec)(nil)

// New creates an adapter with the encoder set to libjpeg, native decoding
// and the default chroma subsampling.
func New(d Defaults, svc Services) *Codec {
	chroma := d.ChromaSubsampling
	if chroma == "" {
		chroma = DefaultChroma
	}
	return &Codec{
		Base: benchcodec.NewBase(),
		cfg: Config{
			Encoder:           PrimaryLibrary,
			ChromaSubsampling: chroma,
			JXLDecodeDepth:    Depth8,
		},
		svc: svc.withDefaults(),
	}
}

// Factory returns a benchcodec factory building adapters with d and svc.
func Factory(d Defaults, svc Services) benchcodec.Factory {
	return func() benchcodec.Codec { return New(d, svc) }
}

// Config returns a copy of the resolved configuration.
func (c *Codec) Config() Config { return c.cfg }

// ParseParam applies one configuration token. The first matching rule
// wins; a rejected token leaves the configuration untouched.
func (c *Codec) ParseParam(param string) bool {
	if c.Base.ParseParam(param) {
		return true
	}
	switch param {
	case "sjpeg":
		c.cfg.Encoder = AlternateLibrary
		return true
	case "libjxl":
		c.cfg.Encoder = SelfHosted
		return true
	case "djxl8":
		c.cfg.UseJXLDecoder = true
		c.cfg.JXLDecodeDepth = Depth8
		return true
	case "djxl16":
		c.cfg.UseJXLDecoder = true
		c.cfg.JXLDecodeDepth = Depth16
		return true
	}
	if strings.HasPrefix(param, "yuv") {
		// The value itself is checked by the encoder.
		if len(param) != 6 {
			return false
		}
		c.cfg.ChromaSubsampling = param[3:]
		return true
	}
	if strings.HasPrefix(param, "nr") {
		c.cfg.NormalizeBitrate = true
		return true
	}
	return false
}

// Description renders the configuration as a canonical spec string, e.g.
// "jpeg:libjxl:yuv420:nr:djxl16:q90".
func (c *Codec) Description() string {
	parts := []string{Name}
	if c.cfg.Encoder != PrimaryLibrary {
		parts = append(parts, c.cfg.Encoder.Identity())
	}
	parts = append(parts, "yuv"+c.cfg.ChromaSubsampling)
	if c.cfg.NormalizeBitrate {
		parts = append(parts, "nr")
	}
	if c.cfg.UseJXLDecoder {
		parts = append(parts, fmt.Sprintf("djxl%d", c.cfg.JXLDecodeDepth))
	}
	// q drives the library encode, so it stays whenever that step runs.
	if !c.DistanceSet || c.cfg.plan().reference {
		parts = append(parts, fmt.Sprintf("q%g", c.QTarget))
	}
	if c.DistanceSet {
		parts = append(parts, fmt.Sprintf("d%g", c.ButteraugliTarget))
	}
	return strings.Join(parts, ":")
}
