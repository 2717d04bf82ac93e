package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/AnyUserName/jpegbench/internal/config"
	"github.com/AnyUserName/jpegbench/internal/encoder"
	"github.com/AnyUserName/jpegbench/internal/pipeline"
	"github.com/AnyUserName/jpegbench/internal/profile"
	"github.com/AnyUserName/jpegbench/internal/report"
	"github.com/AnyUserName/jpegbench/internal/speedstats"
)

var (
	runOutDir      string
	runProfile     string
	runCodecs      []string
	runWorkers     int
	runThreads     int
	runMaxSize     int
	runSaveOutputs bool
	runMetricsOut  string
)

var runCmd = &cobra.Command{
	Use:   "run <input_dir>",
	Short: "Benchmark codecs over a directory of images",
	Long: `Scans input directory for images (png, jpg, jpeg, webp, gif, bmp, tiff),
compresses and decompresses each with every configured codec, and writes
a JSON report with size, bits per pixel, PSNR and timings.

Codecs come from --codec (repeatable) or the selected profile.`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOutDir, "out", "o", "", "output directory (default from config: ./jpegbench_out)")
	f.StringVarP(&runProfile, "profile", "p", "", "codec preset: "+fmt.Sprint(profile.Names()))
	f.StringSliceVarP(&runCodecs, "codec", "c", nil, "codec spec, repeatable (overrides profile)")
	f.IntVarP(&runWorkers, "workers", "w", 0, "files processed in parallel (0 = NumCPU)")
	f.IntVarP(&runThreads, "threads", "t", 0, "threads per codec call (0 = NumCPU)")
	f.IntVar(&runMaxSize, "max-size", 0, "downscale inputs so the longest side fits (0 = profile default)")
	f.BoolVar(&runSaveOutputs, "save-outputs", false, "write compressed streams next to the report")
	f.StringVar(&runMetricsOut, "metrics-out", "", "write Prometheus metrics in text format to this file")
	rootCmd.AddCommand(runCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	start := time.Now()
	rc := cfg.Run
	applyRunFlags(cmd.Flags(), &rc)

	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(rc.OutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	if !profile.Exists(rc.Profile) {
		logger.Warn("unknown profile, using default codecs",
			zap.String("profile", rc.Profile), zap.String("default", profile.DefaultName))
	}
	prof := profile.Get(rc.Profile)
	if len(rc.Codecs) > 0 {
		prof.Codecs = rc.Codecs
	}
	if rc.MaxSize > 0 {
		prof.MaxSize = rc.MaxSize
	}

	codecs, err := newCodecRegistry(cfg).ParseAll(prof.Codecs)
	if err != nil {
		return err
	}

	encoders := encoder.NewRegistry().String()
	logger.Debug("run settings",
		zap.String("input", absInput),
		zap.String("output", absOutput),
		zap.String("profile", prof.Name),
		zap.Strings("codecs", prof.Codecs),
		zap.String("chroma_subsampling", cfg.Run.ChromaSubsampling),
		zap.String("encoders", encoders))

	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var metrics *speedstats.Metrics
	if rc.MetricsOut != "" {
		metrics = speedstats.NewMetrics()
	}

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, stop := signal.NotifyContext(base, os.Interrupt)
	defer stop()

	p := pipeline.New(pipeline.Config{
		InputDir:    absInput,
		OutputDir:   absOutput,
		SaveOutputs: rc.SaveOutputs,
		Profile:     prof,
		Codecs:      codecs,
		Workers:     rc.Workers,
		Threads:     rc.Threads,
		Logger:      logger,
		Metrics:     metrics,
	})
	r, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	r.BuildInfo.Encoders = encoders

	reportPath := filepath.Join(absOutput, report.FileName)
	if err := report.WriteJSON(r, reportPath); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if metrics != nil {
		if err := metrics.WriteTextfile(rc.MetricsOut); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	printRunReport(r, time.Since(start))
	return nil
}

// applyRunFlags overrides config values with the flags set on the command
// line.
func applyRunFlags(fs *pflag.FlagSet, rc *config.RunConfig) {
	if fs.Changed("out") {
		rc.OutDir = runOutDir
	}
	if fs.Changed("profile") {
		rc.Profile = runProfile
	}
	if fs.Changed("codec") {
		rc.Codecs = runCodecs
	}
	if fs.Changed("workers") {
		rc.Workers = runWorkers
	}
	if fs.Changed("threads") {
		rc.Threads = runThreads
	}
	if fs.Changed("max-size") {
		rc.MaxSize = runMaxSize
	}
	if fs.Changed("save-outputs") {
		rc.SaveOutputs = runSaveOutputs
	}
	if fs.Changed("metrics-out") {
		rc.MetricsOut = runMetricsOut
	}
}

func printRunReport(r *report.Report, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║              jpegbench run complete              ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	s := r.Stats
	fmt.Printf("  Files:       %d\n", s.TotalFiles)
	fmt.Printf("  Codecs:      %d\n", s.TotalCodecs)
	fmt.Printf("  Input size:  %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(s.TotalOutputBytes))
	if s.Failures > 0 {
		fmt.Printf("  Failures:    %d of %d runs\n", s.Failures, s.TotalResults)
	}
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()

	printCodecTable(r)
	fmt.Printf("  Report:      %s\n", report.FileName)
	fmt.Println()
}

func printCodecTable(r *report.Report) {
	specs := make([]string, 0, len(r.Codecs))
	for spec := range r.Codecs {
		specs = append(specs, spec)
	}
	sort.Strings(specs)

	fmt.Printf("  %-32s %8s %7s %7s %9s %9s\n", "codec", "size", "bpp", "psnr", "enc MP/s", "dec MP/s")
	for _, spec := range specs {
		c := r.Codecs[spec]
		if c.Files == 0 {
			fmt.Printf("  %-32s %s\n", truncKey(spec, 32), "all runs failed")
			continue
		}
		fmt.Printf("  %-32s %8s %7.3f %7.2f %9.2f %9.2f\n",
			truncKey(spec, 32), formatBytes(c.TotalBytes), c.BPP, c.MeanPSNR, c.EncodeMPs, c.DecodeMPs)
	}
	fmt.Println()
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
