package benchcodec

import (
	"fmt"
	"sort"
	"strings"
)

// Factory builds a fresh, unconfigured codec instance.
type Factory func() Codec

// Registry maps codec family names ("jpeg") to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a codec family. Names are case-insensitive.
func (r *Registry) Register(name string, f Factory) {
	r.factories[strings.ToLower(name)] = f
}

// Names returns the registered family names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Configured is a codec instance together with the spec it was built from.
type Configured struct {
	Spec  string
	Codec Codec
}

// Parse builds a codec from a spec such as "jpeg:libjxl:nr:q90". The first
// field names the family; the rest are parameters applied in order. Any
// rejected parameter aborts construction.
func (r *Registry) Parse(spec string) (*Configured, error) {
	fields := strings.Split(strings.TrimSpace(spec), ":")
	name := strings.ToLower(fields[0])
	f, ok := r.factories[name]
	if !ok || name == "" {
		return nil, fmt.Errorf("unknown codec %q (available: %s)", fields[0], strings.Join(r.Names(), ", "))
	}

	c := f()
	for _, param := range fields[1:] {
		if param == "" {
			continue
		}
		if !c.ParseParam(param) {
			return nil, fmt.Errorf("%w %q in %q", ErrUnknownParam, param, spec)
		}
	}
	return &Configured{Spec: spec, Codec: c}, nil
}

// ParseAll parses every spec, failing on the first error.
func (r *Registry) ParseAll(specs []string) ([]*Configured, error) {
	out := make([]*Configured, 0, len(specs))
	for _, s := range specs {
		c, err := r.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
