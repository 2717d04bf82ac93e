package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AnyUserName/jpegbench/internal/benchcodec"
	"github.com/AnyUserName/jpegbench/internal/config"
	"github.com/AnyUserName/jpegbench/internal/jpegcodec"
	"github.com/AnyUserName/jpegbench/internal/observability"
)

var (
	version = "0.1.0"

	verbose    bool
	configPath string
	logLevel   string
	logFormat  string
	chroma     string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "jpegbench",
	Short: "Benchmark JPEG encoders and decoders side by side",
	Long: `jpegbench compresses a directory of images with several JPEG codec
configurations and reports size, quality (PSNR) and speed for each.

A codec is given as a spec string of ':'-separated tokens, for example
"jpeg:libjxl:nr:q90" or "jpeg:sjpeg:yuv420:d1.5". Run "jpegbench codecs"
for the accepted tokens.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { _ = logger.Sync() },
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level=debug)")
	pf.StringVar(&configPath, "config", "", "config file (default ./jpegbench.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "log format: console or json")
	pf.StringVar(&chroma, "chroma_subsampling", "", "default chroma subsampling for jpeg codecs: 444, 422, 420 or 411")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"jpegbench %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if verbose {
		c.Log.Level = "debug"
	}
	if flags.Changed("log-format") {
		c.Log.Format = logFormat
	}
	if flags.Changed("chroma_subsampling") {
		c.Run.ChromaSubsampling = chroma
	}
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := observability.SetupLogger(c.Log)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	cfg, logger = c, l
	return nil
}

// newCodecRegistry registers every codec family with the run defaults.
func newCodecRegistry(c *config.Config) *benchcodec.Registry {
	reg := benchcodec.NewRegistry()
	reg.Register(jpegcodec.Name, jpegcodec.Factory(
		jpegcodec.Defaults{ChromaSubsampling: c.Run.ChromaSubsampling},
		jpegcodec.Services{},
	))
	return reg
}
