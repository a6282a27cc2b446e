package source

import (
	"fmt"

	"PaperNotifier/internal/domain"
	"PaperNotifier/internal/ports"
)

// Registry keeps a mapping from source kinds to their adapters.
type Registry struct {
	sources map[domain.SourceKind]ports.PaperSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[domain.SourceKind]ports.PaperSource{}}
}

// Register adds or replaces an adapter.
func (r *Registry) Register(src ports.PaperSource) {
	if r.sources == nil {
		r.sources = map[domain.SourceKind]ports.PaperSource{}
	}
	r.sources[src.Kind()] = src
}

// Resolve returns the adapter for a kind or an error if it is absent.
func (r *Registry) Resolve(kind domain.SourceKind) (ports.PaperSource, error) {
	if src, ok := r.sources[kind]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %s is not registered", kind)
}

// Ordered returns the registered adapters in the given precedence
// order, skipping kinds that have no adapter.
func (r *Registry) Ordered(order []domain.SourceKind) []ports.PaperSource {
	out := make([]ports.PaperSource, 0, len(order))
	for _, kind := range order {
		if src, ok := r.sources[kind]; ok {
			out = append(out, src)
		}
	}
	return out
}
