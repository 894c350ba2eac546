package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/identity"
	"NewsRelay/internal/ports"
)

// Request carries all parameters required to read one listing.
type Request struct {
	ListURL      string
	ListSelector string
}

// Scanner reads a single listing in one format (html page, json feed, rss).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.ArticleStub, error)
}

// Deps are the per-poller collaborators a scanner is built from.
type Deps struct {
	Fetcher  ports.Fetcher
	Identity identity.Policy
	Logger   *slog.Logger
}

// Factory builds a scanner bound to one poller's transport and identity policy.
type Factory func(deps Deps) Scanner

// Registry keeps a mapping from listing mode names to scanner factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[name] = factory
}

// Resolve returns a factory by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Factory, error) {
	if factory, ok := r.factories[name]; ok {
		return factory, nil
	}
	return nil, fmt.Errorf("listing mode %s is not registered", name)
}

// Names lists registered modes in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
