package jpegcodec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/jpegbench/internal/encoder"
	"github.com/AnyUserName/jpegbench/internal/jxl"
	"github.com/AnyUserName/jpegbench/internal/packed"
	"github.com/AnyUserName/jpegbench/internal/pool"
	"github.com/AnyUserName/jpegbench/internal/selfhost"
	"github.com/AnyUserName/jpegbench/internal/speedstats"
)

// --- fakes ---

// Each fake advances the mock clock by its cost, so elapsed samples show
// exactly which calls were timed.

type fakeJPEG struct {
	mu    sync.Mutex
	clk   *clock.Mock
	cost  time.Duration
	out   []byte
	err   error
	calls []encoder.Options
}

func (f *fakeJPEG) Encode(img *packed.Image, opts encoder.Options, _ *pool.Pool) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()
	f.clk.Add(f.cost)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func (f *fakeJPEG) Calls() []encoder.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]encoder.Options(nil), f.calls...)
}

type selfHostedCall struct {
	target   int
	distance float64
}

type fakeSelfHosted struct {
	mu    sync.Mutex
	clk   *clock.Mock
	cost  time.Duration
	out   []byte
	err   error
	calls []selfHostedCall
}

func (f *fakeSelfHosted) EncodeJPEG(_ image.Image, target int, distance float64, _ *pool.Pool) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, selfHostedCall{target, distance})
	f.mu.Unlock()
	f.clk.Add(f.cost)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeDecoder struct {
	clk  *clock.Mock
	cost time.Duration
	ppf  *packed.PixelFile
	err  error
}

func (f *fakeDecoder) DecodeJPEG([]byte, selfhost.ColorHints, selfhost.SizeConstraints) (*packed.PixelFile, error) {
	f.clk.Add(f.cost)
	return f.ppf, f.err
}

type fakeTranscoder struct {
	clk    *clock.Mock
	cost   time.Duration
	err    error
	params []jxl.CompressParams
}

func (f *fakeTranscoder) TranscodeJPEG(data []byte, params jxl.CompressParams) ([]byte, error) {
	f.params = append(f.params, params)
	f.clk.Add(f.cost)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("jxl"), nil
}

type fakeJXLDecoder struct {
	clk    *clock.Mock
	cost   time.Duration
	ppf    *packed.PixelFile
	err    error
	params []jxl.DecompressParams
}

func (f *fakeJXLDecoder) DecodeJXL(_ []byte, params jxl.DecompressParams) (*packed.PixelFile, error) {
	f.params = append(f.params, params)
	f.clk.Add(f.cost)
	return f.ppf, f.err
}

type harness struct {
	clk        *clock.Mock
	jpeg       *fakeJPEG
	selfHosted *fakeSelfHosted
	decoder    *fakeDecoder
	transcoder *fakeTranscoder
	jxlDecoder *fakeJXLDecoder
}

func newHarness() *harness {
	clk := clock.NewMock()
	return &harness{
		clk:        clk,
		jpeg:       &fakeJPEG{clk: clk, cost: 10 * time.Millisecond, out: bytes.Repeat([]byte{1}, 1000)},
		selfHosted: &fakeSelfHosted{clk: clk, cost: 30 * time.Millisecond, out: bytes.Repeat([]byte{2}, 900)},
		decoder:    &fakeDecoder{clk: clk, cost: 5 * time.Millisecond, ppf: rgbPixelFile(8, 4, 8)},
		transcoder: &fakeTranscoder{clk: clk, cost: 20 * time.Millisecond},
		jxlDecoder: &fakeJXLDecoder{clk: clk, cost: 7 * time.Millisecond, ppf: rgbPixelFile(8, 4, 16)},
	}
}

func (h *harness) services() Services {
	return Services{
		JPEG:       h.jpeg,
		SelfHosted: h.selfHosted,
		Decoder:    h.decoder,
		Transcoder: h.transcoder,
		JXLDecoder: h.jxlDecoder,
		Clock:      h.clk,
	}
}

func (h *harness) codec(t *testing.T, params ...string) *Codec {
	t.Helper()
	c := New(Defaults{}, h.services())
	for _, p := range params {
		require.Truef(t, c.ParseParam(p), "param %q rejected", p)
	}
	return c
}

func rgbPixelFile(w, h, depth int) *packed.PixelFile {
	f := packed.Format{Channels: 3, Depth: depth, BigEndian: true}
	frame := &packed.Image{Width: w, Height: h, Format: f, Pix: make([]byte, w*h*3*depth/8)}
	return packed.NewPixelFile(frame)
}

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x ^ y) * 4),
				A: 255,
			})
		}
	}
	return img
}

// --- ParseParam ---

func TestParseParam_Defaults(t *testing.T) {
	c := New(Defaults{}, newHarness().services())
	cfg := c.Config()
	assert.Equal(t, PrimaryLibrary, cfg.Encoder)
	assert.Equal(t, "444", cfg.ChromaSubsampling)
	assert.False(t, cfg.NormalizeBitrate)
	assert.False(t, cfg.UseJXLDecoder)
	assert.Equal(t, 100.0, c.QTarget)

	c = New(Defaults{ChromaSubsampling: "420"}, newHarness().services())
	assert.Equal(t, "420", c.Config().ChromaSubsampling)
}

func TestParseParam_Tokens(t *testing.T) {
	tests := []struct {
		param string
		ok    bool
		check func(t *testing.T, c *Codec)
	}{
		{"sjpeg", true, func(t *testing.T, c *Codec) { assert.Equal(t, AlternateLibrary, c.Config().Encoder) }},
		{"libjxl", true, func(t *testing.T, c *Codec) { assert.Equal(t, SelfHosted, c.Config().Encoder) }},
		{"djxl8", true, func(t *testing.T, c *Codec) {
			assert.True(t, c.Config().UseJXLDecoder)
			assert.Equal(t, Depth8, c.Config().JXLDecodeDepth)
		}},
		{"djxl16", true, func(t *testing.T, c *Codec) {
			assert.True(t, c.Config().UseJXLDecoder)
			assert.Equal(t, Depth16, c.Config().JXLDecodeDepth)
		}},
		{"yuv420", true, func(t *testing.T, c *Codec) { assert.Equal(t, "420", c.Config().ChromaSubsampling) }},
		{"yuv411", true, func(t *testing.T, c *Codec) { assert.Equal(t, "411", c.Config().ChromaSubsampling) }},
		{"yuv4444", false, func(t *testing.T, c *Codec) { assert.Equal(t, "444", c.Config().ChromaSubsampling) }},
		{"yuv42", false, func(t *testing.T, c *Codec) { assert.Equal(t, "444", c.Config().ChromaSubsampling) }},
		{"nr", true, func(t *testing.T, c *Codec) { assert.True(t, c.Config().NormalizeBitrate) }},
		{"nrx", true, func(t *testing.T, c *Codec) { assert.True(t, c.Config().NormalizeBitrate) }},
		{"q85", true, func(t *testing.T, c *Codec) { assert.Equal(t, 85.0, c.QTarget) }},
		{"d1.5", true, func(t *testing.T, c *Codec) {
			assert.Equal(t, 1.5, c.ButteraugliTarget)
			assert.True(t, c.DistanceSet)
		}},
		{"djxl", false, nil},
		{"libjpeg", false, nil},
		{"SJPEG", false, nil},
		{"foo", false, nil},
		{"", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			c := New(Defaults{}, newHarness().services())
			before := c.Config()
			got := c.ParseParam(tt.param)
			assert.Equal(t, tt.ok, got)
			if !tt.ok {
				assert.Equal(t, before, c.Config(), "rejected token must not change config")
			}
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}

func TestParseParam_NormalizeIdempotent(t *testing.T) {
	c := New(Defaults{}, newHarness().services())
	require.True(t, c.ParseParam("nr"))
	once := c.Config()
	require.True(t, c.ParseParam("nr"))
	assert.Equal(t, once, c.Config())
}

func TestParseParam_LastWins(t *testing.T) {
	c := newHarness().codec(t, "sjpeg", "libjxl", "djxl16", "djxl8", "yuv420", "yuv422")
	cfg := c.Config()
	assert.Equal(t, SelfHosted, cfg.Encoder)
	assert.Equal(t, Depth8, cfg.JXLDecodeDepth)
	assert.Equal(t, "422", cfg.ChromaSubsampling)
}

func TestDescription(t *testing.T) {
	c := newHarness().codec(t, "libjxl", "yuv420", "nr", "djxl16", "q90")
	assert.Equal(t, "jpeg:libjxl:yuv420:nr:djxl16:q90", c.Description())

	c = newHarness().codec(t, "libjxl", "d2")
	assert.Equal(t, "jpeg:libjxl:yuv444:d2", c.Description())

	// The library encode still runs at q, so q stays in the name.
	c = newHarness().codec(t, "d2")
	assert.Equal(t, "jpeg:yuv444:q100:d2", c.Description())
	a := newHarness().codec(t, "libjxl", "nr", "q80", "d2")
	b := newHarness().codec(t, "libjxl", "nr", "d2")
	assert.Equal(t, "jpeg:libjxl:yuv444:nr:q80:d2", a.Description())
	assert.NotEqual(t, a.Description(), b.Description())
}

// --- Compress ---

func TestCompress_PrimaryOnlyReference(t *testing.T) {
	h := newHarness()
	c := h.codec(t, "q89.6")
	var rec speedstats.Recorder

	out, err := c.Compress("a.png", testImage(8, 4), nil, &rec)
	require.NoError(t, err)
	assert.Equal(t, h.jpeg.out, out)

	calls := h.jpeg.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, encoder.Options{Quality: 90, Encoder: "libjpeg", ChromaSubsampling: "444"}, calls[0])
	assert.Empty(t, h.selfHosted.calls)

	assert.Equal(t, 1, rec.Count)
	assert.InDelta(t, 0.010, rec.Elapsed, 1e-9)
}

func TestCompress_AlternateLibraryForwardsChroma(t *testing.T) {
	h := newHarness()
	c := h.codec(t, "sjpeg", "yuv420", "q70")
	_, err := c.Compress("a.png", testImage(8, 4), nil, &speedstats.Recorder{})
	require.NoError(t, err)

	calls := h.jpeg.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, encoder.Options{Quality: 70, Encoder: "sjpeg", ChromaSubsampling: "420"}, calls[0])
}

func TestCompress_SelfHostedUnconstrained(t *testing.T) {
	h := newHarness()
	c := h.codec(t, "libjxl", "q90")
	var rec speedstats.Recorder

	out, err := c.Compress("a.png", testImage(8, 4), nil, &rec)
	require.NoError(t, err)
	assert.Equal(t, h.selfHosted.out, out)
	assert.Empty(t, h.jpeg.Calls())

	require.Len(t, h.selfHosted.calls, 1)
	assert.Equal(t, 0, h.selfHosted.calls[0].target)
	assert.InDelta(t, selfhost.QualityToDistance(90), h.selfHosted.calls[0].distance, 1e-12)

	assert.Equal(t, 1, rec.Count)
	assert.InDelta(t, 0.030, rec.Elapsed, 1e-9)
}

func TestCompress_SelfHostedNormalizedUsesReferenceSize(t *testing.T) {
	h := newHarness()
	c := h.codec(t, "libjxl", "nr", "sjpeg", "libjxl", "q80")
	var rec speedstats.Recorder

	out, err := c.Compress("a.png", testImage(8, 4), nil, &rec)
	require.NoError(t, err)
	assert.Equal(t, h.selfHosted.out, out)

	calls := h.jpeg.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "libjpeg", calls[0].Encoder)
	assert.Equal(t, 80, calls[0].Quality)

	require.Len(t, h.selfHosted.calls, 1)
	assert.Equal(t, len(h.jpeg.out), h.selfHosted.calls[0].target)

	// One sample, holding only the self-hosted time.
	assert.Equal(t, 1, rec.Count)
	assert.InDelta(t, 0.030, rec.Elapsed, 1e-9)
}

func TestCompress_NormalizeWithoutSelfHostedIsNoop(t *testing.T) {
	h := newHarness()
	c := h.codec(t, "sjpeg", "nr")
	var rec speedstats.Recorder

	out, err := c.Compress("a.png", testImage(8, 4), nil, &rec)
	require.NoError(t, err)
	assert.Equal(t, h.jpeg.out, out)
	assert.Empty(t, h.selfHosted.calls)

	calls := h.jpeg.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "libjpeg", calls[0].Encoder)
	assert.Equal(t, 1, rec.Count)
}

func TestCompress_ExplicitDistance(t *testing.T) {
	h := newHarness()
	c := h.codec(t, "libjxl", "d2.5")
	_, err := c.Compress("a.png", testImage(8, 4), nil, &speedstats.Recorder{})
	require.NoError(t, err)
	require.Len(t, h.selfHosted.calls, 1)
	assert.Equal(t, 2.5, h.selfHosted.calls[0].distance)
}

func TestCompress_Failures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("reference", func(t *testing.T) {
		h := newHarness()
		h.jpeg.err = boom
		var rec speedstats.Recorder
		out, err := h.codec(t, "libjxl", "nr").Compress("a.png", testImage(8, 4), nil, &rec)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, ErrEncodeFailed)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, h.selfHosted.calls, "self-hosted step must not run after a failed reference")
		assert.Zero(t, rec.Count)
	})

	t.Run("self-hosted", func(t *testing.T) {
		h := newHarness()
		h.selfHosted.err = boom
		var rec speedstats.Recorder
		out, err := h.codec(t, "libjxl").Compress("a.png", testImage(8, 4), nil, &rec)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, ErrEncodeFailed)
		assert.Zero(t, rec.Count)
	})

	t.Run("conversion", func(t *testing.T) {
		h := newHarness()
		var rec speedstats.Recorder
		empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
		out, err := h.codec(t).Compress("a.png", empty, nil, &rec)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, ErrConversionFailed)
		assert.Empty(t, h.jpeg.Calls())
		assert.Zero(t, rec.Count)
	})
}

func TestCompress_Concurrent(t *testing.T) {
	h := newHarness()
	c := h.codec(t, "libjxl", "nr")
	var stats speedstats.SpeedStats
	img := testImage(8, 4)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Compress("a.png", img, nil, &stats)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, stats.Samples(), 8)
	assert.Len(t, h.jpeg.Calls(), 8)
}

// --- Decompress ---

func TestDecompress_Native(t *testing.T) {
	h := newHarness()
	c := h.codec(t)
	var rec speedstats.Recorder

	img, err := c.Decompress("a.jpg", []byte("jpeg"), nil, &rec)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
	assert.Empty(t, h.transcoder.params)

	assert.Equal(t, 1, rec.Count)
	assert.InDelta(t, 0.005, rec.Elapsed, 1e-9)
}

func TestDecompress_ViaJXL(t *testing.T) {
	for _, depth := range []Depth{Depth8, Depth16} {
		h := newHarness()
		token := "djxl8"
		if depth == Depth16 {
			token = "djxl16"
		}
		c := h.codec(t, token)
		var rec speedstats.Recorder

		img, err := c.Decompress("a.jpg", []byte("jpeg"), nil, &rec)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())

		require.Len(t, h.transcoder.params, 1)
		assert.Equal(t, map[jxl.FrameSetting]int64{jxl.FrameSettingJPEGReconCFL: 0}, h.transcoder.params[0].Options)

		require.Len(t, h.jxlDecoder.params, 1)
		d := int(depth)
		assert.Equal(t, []packed.Format{
			{Channels: 1, Depth: d, BigEndian: true},
			{Channels: 3, Depth: d, BigEndian: true},
		}, h.jxlDecoder.params[0].AcceptedFormats)

		// Transcode and decode share a single interval.
		assert.Equal(t, 1, rec.Count)
		assert.InDelta(t, 0.027, rec.Elapsed, 1e-9)
	}
}

func TestDecompress_GrayViaJXL(t *testing.T) {
	h := newHarness()
	frame := &packed.Image{Width: 3, Height: 2, Format: packed.Format{Channels: 1, Depth: 8, BigEndian: true}, Pix: make([]byte, 6)}
	h.jxlDecoder.ppf = packed.NewPixelFile(frame)

	img, err := h.codec(t, "djxl8").Decompress("a.jpg", []byte("jpeg"), nil, &speedstats.Recorder{})
	require.NoError(t, err)
	assert.IsType(t, &image.Gray{}, img)
}

func TestDecompress_Failures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("native", func(t *testing.T) {
		h := newHarness()
		h.decoder.err = boom
		var rec speedstats.Recorder
		img, err := h.codec(t).Decompress("a.jpg", nil, nil, &rec)
		assert.Nil(t, img)
		assert.ErrorIs(t, err, ErrDecodeFailed)
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, rec.Count)
	})

	t.Run("transcode", func(t *testing.T) {
		h := newHarness()
		h.transcoder.err = boom
		var rec speedstats.Recorder
		img, err := h.codec(t, "djxl8").Decompress("a.jpg", nil, nil, &rec)
		assert.Nil(t, img)
		assert.ErrorIs(t, err, ErrTranscodeFailed)
		assert.Empty(t, h.jxlDecoder.params)
		assert.Zero(t, rec.Count)
	})

	t.Run("jxl decode", func(t *testing.T) {
		h := newHarness()
		h.jxlDecoder.err = boom
		img, err := h.codec(t, "djxl16").Decompress("a.jpg", nil, nil, &speedstats.Recorder{})
		assert.Nil(t, img)
		assert.ErrorIs(t, err, ErrDecodeFailed)
	})

	t.Run("conversion", func(t *testing.T) {
		h := newHarness()
		h.decoder.ppf = &packed.PixelFile{}
		var rec speedstats.Recorder
		img, err := h.codec(t).Decompress("a.jpg", nil, nil, &rec)
		assert.Nil(t, img)
		assert.ErrorIs(t, err, ErrConversionFailed)
		assert.Zero(t, rec.Count)
	})
}

// --- real back-ends ---

func TestEndToEnd_SelfHostedQ90(t *testing.T) {
	h := newHarness()
	svc := DefaultServices()
	svc.JPEG = h.jpeg // must stay unused

	c := New(Defaults{}, svc)
	require.True(t, c.ParseParam("libjxl"))
	require.True(t, c.ParseParam("q90"))

	var encStats, decStats speedstats.SpeedStats
	data, err := c.Compress("gradient.png", testImage(64, 64), nil, &encStats)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Len(t, encStats.Samples(), 1)
	assert.Empty(t, h.jpeg.Calls())

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 64, cfg.Height)

	img, err := c.Decompress("gradient.jpg", data, nil, &decStats)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
	assert.Len(t, decStats.Samples(), 1)
}

func TestEndToEnd_SelfHostedTargetShrinks(t *testing.T) {
	svc := DefaultServices()
	img := testImage(64, 64)
	p := pool.New(4)

	free, err := svc.SelfHosted.EncodeJPEG(img, 0, selfhost.QualityToDistance(95), p)
	require.NoError(t, err)
	limited, err := svc.SelfHosted.EncodeJPEG(img, len(free)/2, selfhost.QualityToDistance(95), p)
	require.NoError(t, err)
	assert.Less(t, len(limited), len(free))
}

func TestEndToEnd_TruncatedInput(t *testing.T) {
	enc := New(Defaults{}, DefaultServices())
	require.True(t, enc.ParseParam("libjxl"))
	data, err := enc.Compress("a.png", testImage(32, 32), nil, &speedstats.Recorder{})
	require.NoError(t, err)
	truncated := data[:len(data)/2]

	native := New(Defaults{}, DefaultServices())
	var rec speedstats.Recorder
	img, err := native.Decompress("a.jpg", truncated, nil, &rec)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrDecodeFailed)
	assert.Zero(t, rec.Count)

	viaJXL := New(Defaults{}, DefaultServices())
	require.True(t, viaJXL.ParseParam("djxl8"))
	img, err = viaJXL.Decompress("a.jpg", truncated, nil, &rec)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrTranscodeFailed)
	assert.ErrorIs(t, err, jxl.ErrTruncated)
	assert.Zero(t, rec.Count)
}

func TestEndToEnd_LibjpegRejects411(t *testing.T) {
	c := New(Defaults{}, DefaultServices())
	require.True(t, c.ParseParam("yuv411"))
	var rec speedstats.Recorder
	out, err := c.Compress("a.png", testImage(32, 32), nil, &rec)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrEncodeFailed)
	assert.ErrorIs(t, err, encoder.ErrUnsupportedChroma)
	assert.Zero(t, rec.Count)
}
