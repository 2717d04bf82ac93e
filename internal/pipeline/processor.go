package pipeline

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/AnyUserName/jpegbench/internal/benchcodec"
	"github.com/AnyUserName/jpegbench/internal/hasher"
	"github.com/AnyUserName/jpegbench/internal/packed"
	"github.com/AnyUserName/jpegbench/internal/report"
	"github.com/AnyUserName/jpegbench/internal/speedstats"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// fileResult holds the outcome of benchmarking a single source image.
type fileResult struct {
	key  string
	file report.File
	err  error
}

// processFile decodes one source, optionally downscales it, and runs every
// codec over it.
func (p *Pipeline) processFile(src Source) fileResult {
	result := fileResult{key: src.Key}

	img, err := decodeFile(src.AbsPath)
	if err != nil {
		result.err = fmt.Errorf("decode %s: %w", src.RelPath, err)
		return result
	}

	b := img.Bounds()
	if w, h := p.cfg.Profile.TargetSize(b.Dx(), b.Dy()); w != b.Dx() || h != b.Dy() {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
		p.log.Debug("downscaled", zap.String("file", src.Key),
			zap.Int("from_w", b.Dx()), zap.Int("from_h", b.Dy()), zap.Int("w", w), zap.Int("h", h))
		b = img.Bounds()
	}

	result.file.Original = report.OriginalInfo{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Format:   src.Format,
		Size:     src.Size,
		HasAlpha: packed.SourceChannels(img) == 4,
	}

	for _, c := range p.cfg.Codecs {
		res := p.runCodec(src, img, c)
		if res.Failed() {
			p.log.Warn("codec failed", zap.String("file", src.Key),
				zap.String("codec", c.Spec), zap.String("error", res.Error))
		}
		result.file.Results = append(result.file.Results, res)
	}
	return result
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// runCodec compresses and decompresses img with one codec. Timing comes
// from the codec's own samples.
func (p *Pipeline) runCodec(src Source, img image.Image, c *benchcodec.Configured) report.Result {
	res := report.Result{Codec: c.Spec}
	t := p.timings[c.Spec]
	b := img.Bounds()

	var encRec, decRec speedstats.Recorder
	data, err := c.Codec.Compress(src.RelPath, img, p.pool,
		speedstats.Tee{&encRec, &t.encode, p.metricSink(c.Spec, "encode")})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Size = int64(len(data))
	res.BPP = bitsPerPixel(len(data), b.Dx(), b.Dy())
	res.Hash = hasher.ContentHash(data, 16)
	res.EncodeSeconds = encRec.Elapsed
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.AddBytes(c.Spec, len(data))
	}

	decoded, err := c.Codec.Decompress(src.RelPath, data, p.pool,
		speedstats.Tee{&decRec, &t.decode, p.metricSink(c.Spec, "decode")})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.DecodeSeconds = decRec.Elapsed

	if res.PSNR, err = psnr(img, decoded); err != nil {
		res.Error = err.Error()
		return res
	}

	if p.cfg.SaveOutputs && p.cfg.OutputDir != "" {
		rel, err := p.saveOutput(src, c.Spec, res.Hash, data)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Path = rel
	}
	return res
}

func (p *Pipeline) metricSink(spec, op string) speedstats.Sink {
	if p.cfg.Metrics == nil {
		return nil
	}
	return p.cfg.Metrics.Sink(spec, op)
}

// saveOutput writes data as <key>.<codec>.<hash8>.jpg and returns the path
// relative to OutputDir.
func (p *Pipeline) saveOutput(src Source, spec, hash string, data []byte) (string, error) {
	keyDir := filepath.Dir(filepath.FromSlash(src.Key))
	if err := os.MkdirAll(filepath.Join(p.cfg.OutputDir, keyDir), 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s.%s.%s.jpg", filepath.Base(src.Key), codecSlug(spec), hash[:8])
	rel := filepath.ToSlash(filepath.Join(keyDir, name))
	if err := os.WriteFile(filepath.Join(p.cfg.OutputDir, filepath.FromSlash(rel)), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	return rel, nil
}

func codecSlug(spec string) string {
	return strings.NewReplacer(":", "_", "/", "_", ".", "p").Replace(spec)
}
