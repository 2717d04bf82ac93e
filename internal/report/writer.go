// Package report holds the JSON benchmark report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// New creates an empty report.
func New(profileName string) *Report {
	return &Report{
		Version:     SupportedReportVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Profile:     profileName,
		Files:       make(map[string]File),
		Codecs:      make(map[string]CodecSummary),
	}
}

// ComputeStats recalculates the aggregate statistics from files.
func (r *Report) ComputeStats() {
	var s Stats
	s.TotalFiles = len(r.Files)
	s.TotalCodecs = len(r.Codecs)
	for _, f := range r.Files {
		s.TotalInputBytes += f.Original.Size
		for _, res := range f.Results {
			s.TotalResults++
			if res.Failed() {
				s.Failures++
				continue
			}
			s.TotalOutputBytes += res.Size
		}
	}
	r.Stats = s
}

// WriteJSON serializes the report to path. Map keys are sorted by
// encoding/json, so output is stable.
func WriteJSON(r *Report, path string) error {
	r.ComputeStats()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a report from a file, or from FileName inside a directory.
func ReadJSON(path string) (*Report, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if info.IsDir() {
		path = filepath.Join(path, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, "", fmt.Errorf("parse report: %w", err)
	}
	return &r, path, nil
}
