// Package pipeline runs every configured codec over a directory of images
// and collects the results into a report.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/AnyUserName/jpegbench/internal/benchcodec"
	"github.com/AnyUserName/jpegbench/internal/pool"
	"github.com/AnyUserName/jpegbench/internal/profile"
	"github.com/AnyUserName/jpegbench/internal/report"
	"github.com/AnyUserName/jpegbench/internal/speedstats"
)

// Config holds all parameters for a benchmark run.
type Config struct {
	InputDir    string
	OutputDir   string
	SaveOutputs bool // write compressed streams under OutputDir
	Profile     profile.Profile
	Codecs      []*benchcodec.Configured
	Workers     int // files processed in parallel
	Threads     int // size of the pool handed to codecs
	Logger      *zap.Logger
	Metrics     *speedstats.Metrics // optional
}

// Pipeline orchestrates the benchmark.
type Pipeline struct {
	cfg     Config
	pool    *pool.Pool
	log     *zap.Logger
	timings map[string]*codecTimings
}

type codecTimings struct {
	encode speedstats.SpeedStats
	decode speedstats.SpeedStats
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timings := make(map[string]*codecTimings, len(cfg.Codecs))
	for _, c := range cfg.Codecs {
		timings[c.Spec] = &codecTimings{}
	}
	return &Pipeline{
		cfg:     cfg,
		pool:    pool.New(cfg.Threads),
		log:     log,
		timings: timings,
	}
}

// Run executes the benchmark and returns the report. Individual failures
// are recorded in the report; Run only fails when nothing succeeded.
func (p *Pipeline) Run(ctx context.Context) (*report.Report, error) {
	if len(p.cfg.Codecs) == 0 {
		return nil, fmt.Errorf("no codecs configured")
	}

	sources, err := ScanImages(p.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", p.cfg.InputDir)
	}
	p.log.Info("starting run",
		zap.Int("files", len(sources)),
		zap.Int("codecs", len(p.cfg.Codecs)),
		zap.Int("workers", p.cfg.Workers),
		zap.Int("threads", p.pool.Threads()))

	results := make([]fileResult, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			if err := ctx.Err(); err != nil {
				results[idx] = fileResult{key: s.Key, err: err}
				return
			}
			p.log.Debug("processing", zap.String("file", s.Key))
			results[idx] = p.processFile(s)
		}(i, src)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := report.New(p.cfg.Profile.Name)
	var errs int
	for _, res := range results {
		if res.err != nil {
			errs++
			p.log.Error("file failed", zap.String("file", res.key), zap.Error(res.err))
			continue
		}
		r.Files[res.key] = res.file
	}
	if errs == len(sources) {
		return nil, fmt.Errorf("all %d images failed to process", errs)
	}
	if errs > 0 {
		p.log.Warn("some images had errors", zap.Int("failed", errs), zap.Int("total", len(sources)))
	}

	p.summarize(r)
	if countSuccesses(r) == 0 {
		return nil, fmt.Errorf("all %d codec runs failed", r.Stats.TotalResults)
	}

	r.BuildInfo = &report.BuildInfo{
		Workers:   p.cfg.Workers,
		Threads:   p.pool.Threads(),
		MaxSize:   p.cfg.Profile.MaxSize,
		GoVersion: runtime.Version(),
	}
	return r, nil
}

// describer is implemented by codecs that can render a canonical spec.
type describer interface {
	Description() string
}

func (p *Pipeline) summarize(r *report.Report) {
	type acc struct {
		sum  report.CodecSummary
		psnr float64
	}
	accs := make(map[string]*acc, len(p.cfg.Codecs))
	for _, c := range p.cfg.Codecs {
		a := &acc{}
		if d, ok := c.Codec.(describer); ok {
			a.sum.Description = d.Description()
		}
		accs[c.Spec] = a
	}

	keys := make([]string, 0, len(r.Files))
	for k := range r.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		f := r.Files[k]
		px := int64(f.Original.Width) * int64(f.Original.Height)
		for _, res := range f.Results {
			a := accs[res.Codec]
			if a == nil {
				continue
			}
			if res.Failed() {
				a.sum.Failures++
				continue
			}
			a.sum.Files++
			a.sum.TotalBytes += res.Size
			a.sum.Pixels += px
			a.psnr += res.PSNR
		}
	}

	for spec, a := range accs {
		s := a.sum
		if s.Pixels > 0 {
			s.BPP = float64(s.TotalBytes*8) / float64(s.Pixels)
		}
		if s.Files > 0 {
			s.MeanPSNR = a.psnr / float64(s.Files)
		}
		t := p.timings[spec]
		s.Encode = t.encode.Summary()
		s.Decode = t.decode.Summary()
		s.EncodeMPs = s.Encode.MegapixelsPerSecond(s.Pixels)
		s.DecodeMPs = s.Decode.MegapixelsPerSecond(s.Pixels)
		r.Codecs[spec] = s
	}
	r.ComputeStats()
}

func countSuccesses(r *report.Report) int {
	return r.Stats.TotalResults - r.Stats.Failures
}
