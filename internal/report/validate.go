package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/jpegbench/internal/hasher"
)

// Validate checks a report for internal consistency and, for results with
// a saved stream, that the file under baseDir exists and matches its hash.
// It returns one message per problem, sorted.
func Validate(r *Report, baseDir string) []string {
	var errs []string
	if r.Version != SupportedReportVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version %d", r.Version))
	}

	seenPaths := map[string]bool{}
	for key, f := range r.Files {
		if f.Original.Width <= 0 || f.Original.Height <= 0 {
			errs = append(errs, fmt.Sprintf("file %q: invalid dimensions %dx%d", key, f.Original.Width, f.Original.Height))
		}
		for _, res := range f.Results {
			where := fmt.Sprintf("file %q codec %q", key, res.Codec)
			if _, ok := r.Codecs[res.Codec]; !ok {
				errs = append(errs, where+": codec missing from summary")
			}
			if res.Failed() {
				if res.Path != "" {
					errs = append(errs, where+": failed result references a file")
				}
				continue
			}
			if res.Size <= 0 {
				errs = append(errs, where+": empty output")
			}
			if len(res.Hash) != 16 {
				errs = append(errs, fmt.Sprintf("%s: invalid hash %q", where, res.Hash))
			}
			if res.Path != "" {
				if seenPaths[res.Path] {
					errs = append(errs, fmt.Sprintf("%s: duplicate path %q", where, res.Path))
				}
				seenPaths[res.Path] = true
				if msg := checkFile(filepath.Join(baseDir, filepath.FromSlash(res.Path)), res); msg != "" {
					errs = append(errs, where+": "+msg)
				}
			}
		}
	}

	for spec, s := range r.Codecs {
		if s.Files+s.Failures == 0 {
			errs = append(errs, fmt.Sprintf("codec %q: no results", spec))
		}
	}

	sort.Strings(errs)
	return errs
}

func checkFile(path string, res Result) string {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Sprintf("missing %s", res.Path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err.Error()
	}
	if info.Size() != res.Size {
		return fmt.Sprintf("%s: size %d, report says %d", res.Path, info.Size(), res.Size)
	}
	h, err := hasher.ContentHashReader(f, 16)
	if err != nil {
		return err.Error()
	}
	if h != res.Hash {
		return fmt.Sprintf("%s: hash %s, report says %s", res.Path, h, res.Hash)
	}
	return ""
}
