package report

import "github.com/AnyUserName/jpegbench/internal/speedstats"

// Report is the top-level output of a benchmark run.
type Report struct {
	Version     int                     `json:"version"`
	GeneratedAt string                  `json:"generated_at"`
	Profile     string                  `json:"profile"`
	BuildInfo   *BuildInfo              `json:"build_info,omitempty"`
	Files       map[string]File         `json:"files"`
	Codecs      map[string]CodecSummary `json:"codecs"`
	Stats       Stats                   `json:"stats"`
}

// BuildInfo captures run parameters for diagnostics.
type BuildInfo struct {
	Workers   int    `json:"workers"`
	Threads   int    `json:"threads"`
	MaxSize   int    `json:"max_size,omitempty"`
	GoVersion string `json:"go_version"`
	Encoders  string `json:"encoders,omitempty"` // back-end availability at run time
}

// File describes one input image and every codec result for it.
type File struct {
	Original OriginalInfo `json:"original"`
	Results  []Result     `json:"results"`
}

// OriginalInfo holds metadata about the source image as benchmarked (after
// any --max-size downscale).
type OriginalInfo struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Size     int64  `json:"size"`
	HasAlpha bool   `json:"has_alpha"`
}

// Result is one codec run on one file.
type Result struct {
	Codec         string  `json:"codec"`           // spec string as given
	Size          int64   `json:"size"`            // compressed bytes
	BPP           float64 `json:"bpp"`             // bits per pixel
	PSNR          float64 `json:"psnr"`            // dB over RGB, +Inf clamped to 99
	Hash          string  `json:"hash"`            // first 16 hex chars of xxhash64
	Path          string  `json:"path,omitempty"`  // relative to the report, when saved
	EncodeSeconds float64 `json:"encode_seconds"`
	DecodeSeconds float64 `json:"decode_seconds"`
	Error         string  `json:"error,omitempty"`
}

// Failed reports whether the run errored.
func (r Result) Failed() bool { return r.Error != "" }

// CodecSummary aggregates one codec over all files.
type CodecSummary struct {
	Description string             `json:"description,omitempty"`
	Files       int                `json:"files"`
	Failures    int                `json:"failures"`
	TotalBytes  int64              `json:"total_bytes"`
	Pixels      int64              `json:"pixels"`
	BPP         float64            `json:"bpp"`
	MeanPSNR    float64            `json:"mean_psnr"`
	Encode      speedstats.Summary `json:"encode"`
	Decode      speedstats.Summary `json:"decode"`
	EncodeMPs   float64            `json:"encode_mps"`
	DecodeMPs   float64            `json:"decode_mps"`
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalFiles       int   `json:"total_files"`
	TotalCodecs      int   `json:"total_codecs"`
	TotalResults     int   `json:"total_results"`
	Failures         int   `json:"failures,omitempty"`
}

// SupportedReportVersion is the current schema version.
const SupportedReportVersion = 1

// FileName is the report's name inside an output directory.
const FileName = "jpegbench.report.json"
