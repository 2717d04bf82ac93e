package jpegcodec

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/AnyUserName/jpegbench/internal/benchcodec"
	"github.com/AnyUserName/jpegbench/internal/encoder"
	"github.com/AnyUserName/jpegbench/internal/packed"
	"github.com/AnyUserName/jpegbench/internal/pool"
	"github.com/AnyUserName/jpegbench/internal/selfhost"
)

// compressPlan says which encode steps a configuration runs.
type compressPlan struct {
	// reference runs a library encode. When normalizing, its output size
	// becomes the self-hosted target.
	reference bool
	// referenceEncoder is the identity passed to the JPEG service.
	referenceEncoder string
	// selfHosted runs the self-hosted encoder; its output is final.
	selfHosted bool
}

func (cfg Config) plan() compressPlan {
	p := compressPlan{
		reference:  cfg.Encoder != SelfHosted || cfg.NormalizeBitrate,
		selfHosted: cfg.Encoder == SelfHosted,
	}
	if p.reference {
		p.referenceEncoder = cfg.Encoder.Identity()
		if cfg.NormalizeBitrate {
			p.referenceEncoder = encoder.Libjpeg
		}
	}
	return p
}

// Compress encodes img and reports exactly one elapsed sample on success.
// Only service calls are timed.
func (c *Codec) Compress(_ string, img image.Image, p *pool.Pool, stats benchcodec.StatsSink) ([]byte, error) {
	plan := c.cfg.plan()

	var (
		out     []byte
		elapsed time.Duration
	)
	if plan.reference {
		data, d, err := c.encodeReference(img, plan.referenceEncoder, p)
		if err != nil {
			return nil, err
		}
		out, elapsed = data, d
	}
	if plan.selfHosted {
		target := 0
		if plan.reference {
			target = len(out)
		}
		data, d, err := c.encodeSelfHosted(img, target, p)
		if err != nil {
			return nil, err
		}
		out, elapsed = data, d
	}

	if stats != nil {
		stats.NotifyElapsed(elapsed.Seconds())
	}
	return out, nil
}

func (c *Codec) encodeReference(img image.Image, identity string, p *pool.Pool) ([]byte, time.Duration, error) {
	buf, err := packed.FromImage(img, packed.RGB8)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	opts := encoder.Options{
		Quality:           int(math.Round(c.QTarget)),
		Encoder:           identity,
		ChromaSubsampling: c.cfg.ChromaSubsampling,
	}

	start := c.svc.Clock.Now()
	data, err := c.svc.JPEG.Encode(buf, opts, p)
	elapsed := c.svc.Clock.Since(start)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrEncodeFailed, identity, err)
	}
	return data, elapsed, nil
}

func (c *Codec) encodeSelfHosted(img image.Image, target int, p *pool.Pool) ([]byte, time.Duration, error) {
	distance := c.selfHostedDistance()

	start := c.svc.Clock.Now()
	data, err := c.svc.SelfHosted.EncodeJPEG(img, target, distance, p)
	elapsed := c.svc.Clock.Since(start)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrEncodeFailed, SelfHosted.Identity(), err)
	}
	return data, elapsed, nil
}

// selfHostedDistance prefers an explicit d token and otherwise maps the
// quality target onto the distance scale.
func (c *Codec) selfHostedDistance() float64 {
	if c.DistanceSet {
		return c.ButteraugliTarget
	}
	return selfhost.QualityToDistance(int(math.Round(c.QTarget)))
}
