package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/jpegbench/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_report>",
	Short: "Display statistics for a finished run",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	r, _, err := report.ReadJSON(args[0])
	if err != nil {
		return err
	}
	printStats(r)
	return nil
}

func printStats(r *report.Report) {
	fmt.Println()
	fmt.Printf("  Report version:   %d\n", r.Version)
	fmt.Printf("  Generated:        %s\n", r.GeneratedAt)
	fmt.Printf("  Profile:          %s\n", r.Profile)
	if bi := r.BuildInfo; bi != nil {
		fmt.Printf("  Workers:          %d  (threads per call: %d)\n", bi.Workers, bi.Threads)
		if bi.MaxSize > 0 {
			fmt.Printf("  Max size:         %dpx\n", bi.MaxSize)
		}
		if bi.Encoders != "" {
			fmt.Printf("  Encoders:         %s\n", bi.Encoders)
		}
	}
	fmt.Println()

	s := r.Stats
	fmt.Printf("  Total files:      %d\n", s.TotalFiles)
	fmt.Printf("  Total runs:       %d  (%d failed)\n", s.TotalResults, s.Failures)
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Println()

	printCodecTable(r)

	// Timing distribution per codec.
	specs := make([]string, 0, len(r.Codecs))
	for spec := range r.Codecs {
		specs = append(specs, spec)
	}
	sort.Strings(specs)
	fmt.Println("  Timings (ms, median / geomean / max):")
	for _, spec := range specs {
		c := r.Codecs[spec]
		if c.Encode.Count == 0 {
			continue
		}
		fmt.Printf("    %-32s enc %7.2f %7.2f %7.2f   dec %7.2f %7.2f %7.2f\n",
			truncKey(spec, 32),
			c.Encode.Median*1e3, c.Encode.GeoMean*1e3, c.Encode.Max*1e3,
			c.Decode.Median*1e3, c.Decode.GeoMean*1e3, c.Decode.Max*1e3)
	}
	fmt.Println()

	// Worst files by PSNR for each codec.
	type worst struct {
		key  string
		psnr float64
	}
	for _, spec := range specs {
		var ws []worst
		for key, f := range r.Files {
			for _, res := range f.Results {
				if res.Codec == spec && !res.Failed() {
					ws = append(ws, worst{key, res.PSNR})
				}
			}
		}
		if len(ws) == 0 {
			continue
		}
		sort.Slice(ws, func(i, j int) bool { return ws[i].psnr < ws[j].psnr })
		fmt.Printf("  Lowest PSNR for %s: %s (%.2f dB)\n", spec, ws[0].key, ws[0].psnr)
	}

	// Warnings.
	var warnings []string
	for spec, c := range r.Codecs {
		if c.Failures > 0 {
			warnings = append(warnings, fmt.Sprintf("codec %q failed on %d files", spec, c.Failures))
		}
	}
	sort.Strings(warnings)
	if len(warnings) > 0 {
		fmt.Println()
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
	}
	fmt.Println()
}
