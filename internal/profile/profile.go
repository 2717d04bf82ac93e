// Package profile holds named benchmark presets.
package profile

import "sort"

// Profile is a named list of codec specs plus run defaults.
type Profile struct {
	Name        string
	Description string
	Codecs      []string // codec specs, e.g. "jpeg:libjxl:q90"
	MaxSize     int      // longest side in pixels, 0 keeps the original
}

// DefaultName is used when no profile is requested.
const DefaultName = "jpeg-compare"

// Built-in profiles.
var profiles = map[string]Profile{
	"jpeg-compare": {
		Name:        "jpeg-compare",
		Description: "libjpeg, sjpeg and the self-hosted encoder at q90",
		Codecs:      []string{"jpeg:q90", "jpeg:sjpeg:q90", "jpeg:libjxl:q90"},
	},
	"jpeg-normalized": {
		Name:        "jpeg-normalized",
		Description: "self-hosted encoder held to the libjpeg size at each quality",
		Codecs: []string{
			"jpeg:q75", "jpeg:libjxl:nr:q75",
			"jpeg:q90", "jpeg:libjxl:nr:q90",
		},
	},
	"jpeg-transcode": {
		Name:        "jpeg-transcode",
		Description: "native decode against a lossless JPEG XL round trip",
		Codecs:      []string{"jpeg:q90", "jpeg:q90:djxl8", "jpeg:q90:djxl16"},
	},
	"minimal": {
		Name:        "minimal",
		Description: "single libjpeg run on downscaled inputs",
		Codecs:      []string{"jpeg:q90"},
		MaxSize:     512,
	},
}

// Get returns a profile by name. Falls back to jpeg-compare if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p.clone()
	}
	p := profiles[DefaultName].clone()
	p.Name = name // preserve requested name
	return p
}

// Exists reports whether name is a built-in profile.
func Exists(name string) bool {
	_, ok := profiles[name]
	return ok
}

// Names lists the built-in profiles in sorted order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (p Profile) clone() Profile {
	p.Codecs = append([]string(nil), p.Codecs...)
	return p
}

// TargetSize returns the dimensions an input of w×h is benchmarked at:
// scaled down so the longest side fits MaxSize, never up.
func (p Profile) TargetSize(w, h int) (int, int) {
	if p.MaxSize <= 0 || (w <= p.MaxSize && h <= p.MaxSize) {
		return w, h
	}
	if w >= h {
		nh := int(float64(h) * float64(p.MaxSize) / float64(w))
		return p.MaxSize, max(nh, 1)
	}
	nw := int(float64(w) * float64(p.MaxSize) / float64(h))
	return max(nw, 1), p.MaxSize
}
