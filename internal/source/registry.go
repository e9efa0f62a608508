package source

import (
	"fmt"

	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

// Registry keeps a mapping from platform tags to their source clients, so a
// second platform plugs in without touching the stages.
type Registry struct {
	sources map[string]ports.PostSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]ports.PostSource{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(src ports.PostSource) {
	if r.sources == nil {
		r.sources = map[string]ports.PostSource{}
	}
	r.sources[src.Platform()] = src
}

// Resolve returns a source by platform tag or an error if it is absent.
func (r *Registry) Resolve(platform string) (ports.PostSource, error) {
	if src, ok := r.sources[platform]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %s is not registered", platform)
}
