package encoder

import (
	"fmt"
	"strings"
)

// Registry holds the JPEG back-ends keyed by identity.
type Registry struct {
	encoders map[string]Encoder
	order    []string
}

// NewRegistry creates a registry with the built-in back-ends.
func NewRegistry() *Registry {
	return NewRegistryWith(&LibjpegEncoder{}, NewSjpegEncoder())
}

// NewRegistryWith creates a registry from the given back-ends. Later
// entries replace earlier ones with the same identity.
func NewRegistryWith(encs ...Encoder) *Registry {
	r := &Registry{encoders: make(map[string]Encoder)}
	for _, enc := range encs {
		id := strings.ToLower(enc.Identity())
		if _, ok := r.encoders[id]; !ok {
			r.order = append(r.order, id)
		}
		r.encoders[id] = enc
	}
	return r
}

// Get returns the back-end for identity, or nil if unknown.
func (r *Registry) Get(identity string) Encoder {
	return r.encoders[strings.ToLower(identity)]
}

// Available returns the identities of back-ends ready to use, in
// registration order.
func (r *Registry) Available() []string {
	var result []string
	for _, id := range r.order {
		if r.encoders[id].Available() {
			result = append(result, id)
		}
	}
	return result
}

// Identities returns every registered identity, available or not.
func (r *Registry) Identities() []string {
	return append([]string(nil), r.order...)
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no jpeg encoders available"
	}
	return fmt.Sprintf("jpeg encoders: %s", strings.Join(avail, ", "))
}
