// Package tool wraps the external command-line codecs (sjpeg, cjxl, djxl)
// that are driven through temp files.
package tool

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
)

// ErrNotFound is returned when the binary is not on PATH.
var ErrNotFound = errors.New("tool not found in PATH")

// Atomic counter for unique temp file names across goroutines.
var tempCounter atomic.Int64

// Tool is a lazily located external binary.
type Tool struct {
	Name string
	Hint string // install hint shown when missing

	once sync.Once
	path string
}

// New returns a tool looked up by name on first use.
func New(name, hint string) *Tool {
	return &Tool{Name: name, Hint: hint}
}

// Available reports whether the binary was found in PATH.
func (t *Tool) Available() bool {
	t.once.Do(func() {
		if p, err := exec.LookPath(t.Name); err == nil {
			t.path = p
		}
	})
	return t.path != ""
}

// Path returns the resolved binary path, or "" when unavailable.
func (t *Tool) Path() string {
	t.Available()
	return t.path
}

// Run executes the tool and returns its combined output on failure.
func (t *Tool) Run(args ...string) error {
	if !t.Available() {
		if t.Hint != "" {
			return fmt.Errorf("%w: %s; install with: %s", ErrNotFound, t.Name, t.Hint)
		}
		return fmt.Errorf("%w: %s", ErrNotFound, t.Name)
	}
	cmd := exec.Command(t.path, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", t.Name, err, string(out))
	}
	return nil
}

// Workdir is a set of temp files removed together.
type Workdir struct {
	prefix string
	paths  []string
}

// NewWorkdir starts a temp file set whose names share prefix.
func NewWorkdir(prefix string) *Workdir {
	return &Workdir{prefix: fmt.Sprintf("%s_%d", prefix, tempCounter.Add(1))}
}

// Write creates a temp file with the given extension holding data.
func (w *Workdir) Write(ext string, data []byte) (string, error) {
	f, err := os.CreateTemp("", w.prefix+"_*."+ext)
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	w.paths = append(w.paths, f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp: %w", err)
	}
	return f.Name(), nil
}

// Reserve returns the name of an empty temp file for a tool to write to.
func (w *Workdir) Reserve(ext string) (string, error) {
	return w.Write(ext, nil)
}

// Cleanup removes every file created through w.
func (w *Workdir) Cleanup() {
	for _, p := range w.paths {
		os.Remove(p)
	}
	w.paths = nil
}
