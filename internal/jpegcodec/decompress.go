package jpegcodec

import (
	"fmt"
	"image"
	"time"

	"github.com/AnyUserName/jpegbench/internal/benchcodec"
	"github.com/AnyUserName/jpegbench/internal/jxl"
	"github.com/AnyUserName/jpegbench/internal/packed"
	"github.com/AnyUserName/jpegbench/internal/pool"
	"github.com/AnyUserName/jpegbench/internal/selfhost"
)

// Decompress decodes data either natively or by transcoding to JPEG XL and
// decoding that. On success one elapsed sample covers the decode calls;
// converting the result to an image.Image is not timed.
func (c *Codec) Decompress(_ string, data []byte, _ *pool.Pool, stats benchcodec.StatsSink) (image.Image, error) {
	var (
		ppf     *packed.PixelFile
		elapsed time.Duration
		err     error
	)
	if c.cfg.UseJXLDecoder {
		ppf, elapsed, err = c.decodeViaJXL(data)
	} else {
		ppf, elapsed, err = c.decodeNative(data)
	}
	if err != nil {
		return nil, err
	}

	img, err := ppf.Image()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	if stats != nil {
		stats.NotifyElapsed(elapsed.Seconds())
	}
	return img, nil
}

func (c *Codec) decodeViaJXL(data []byte) (*packed.PixelFile, time.Duration, error) {
	var cparams jxl.CompressParams
	cparams.AddOption(jxl.FrameSettingJPEGReconCFL, 0)

	depth := int(c.cfg.JXLDecodeDepth)
	dparams := jxl.DecompressParams{
		AcceptedFormats: []packed.Format{
			{Channels: 1, Depth: depth, BigEndian: true},
			{Channels: 3, Depth: depth, BigEndian: true},
		},
	}

	start := c.svc.Clock.Now()
	jxlData, err := c.svc.Transcoder.TranscodeJPEG(data, cparams)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrTranscodeFailed, err)
	}
	ppf, err := c.svc.JXLDecoder.DecodeJXL(jxlData, dparams)
	elapsed := c.svc.Clock.Since(start)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: jxl: %w", ErrDecodeFailed, err)
	}
	return ppf, elapsed, nil
}

func (c *Codec) decodeNative(data []byte) (*packed.PixelFile, time.Duration, error) {
	start := c.svc.Clock.Now()
	ppf, err := c.svc.Decoder.DecodeJPEG(data, selfhost.ColorHints{}, selfhost.SizeConstraints{})
	elapsed := c.svc.Clock.Since(start)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: jpeg: %w", ErrDecodeFailed, err)
	}
	return ppf, elapsed, nil
}
