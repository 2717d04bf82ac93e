package encoder

import (
	"fmt"

	"github.com/AnyUserName/jpegbench/internal/packed"
	"github.com/AnyUserName/jpegbench/internal/pool"
)

// JPEG is the generic JPEG encoding service: it validates the options and
// dispatches to the back-end named by Options.Encoder.
type JPEG struct {
	registry *Registry
}

// NewJPEG creates the service over a registry. A nil registry uses the
// built-in back-ends.
func NewJPEG(r *Registry) *JPEG {
	if r == nil {
		r = NewRegistry()
	}
	return &JPEG{registry: r}
}

// Registry exposes the back-ends behind the service.
func (s *JPEG) Registry() *Registry { return s.registry }

// Encode compresses img with the back-end selected by opts.Encoder.
func (s *JPEG) Encode(img *packed.Image, opts Options, p *pool.Pool) ([]byte, error) {
	if opts.Quality < 1 || opts.Quality > 100 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, opts.Quality)
	}
	if _, err := ParseChroma(opts.ChromaSubsampling); err != nil {
		return nil, err
	}
	enc := s.registry.Get(opts.Encoder)
	if enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoder, opts.Encoder)
	}
	if !enc.Available() {
		return nil, fmt.Errorf("%w: %s", ErrEncoderUnavailable, enc.Identity())
	}

	data, err := enc.Encode(img, opts, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", enc.Identity(), err)
	}
	return data, nil
}
