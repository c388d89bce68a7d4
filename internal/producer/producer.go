// Package producer defines content producers and the registry that builds
// them from configured sections.
package producer

import (
	"context"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/reportbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/surface"
)

// Producer paints one page group onto a surface. It never sees the workspace
// or its own sequence number.
type Producer interface {
	Name() string
	Produce(ctx context.Context, s surface.Surface) error
}

// Func adapts a closure to Producer.
type Func struct {
	name string
	fn   func(ctx context.Context, s surface.Surface) error
}

// NewFunc returns a Producer named name that calls fn.
func NewFunc(name string, fn func(ctx context.Context, s surface.Surface) error) *Func {
	return &Func{name: name, fn: fn}
}

func (f *Func) Name() string { return f.name }

func (f *Func) Produce(ctx context.Context, s surface.Surface) error { return f.fn(ctx, s) }

// Env carries what builders need beyond the section itself.
type Env struct {
	// Resolve maps a section-relative path to a filesystem path.
	Resolve func(string) string
}

func (e Env) resolve(p string) string {
	if e.Resolve == nil {
		return p
	}
	return e.Resolve(p)
}

// Builder validates a section and returns its producer.
type Builder func(sec config.Section, env Env) (Producer, error)

// Registry maps section kinds to builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// DefaultRegistry returns a registry with the built-in kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindText, buildText)
	r.Register(KindMarkdown, buildMarkdown)
	r.Register(KindImage, buildImage)
	r.Register(KindChart, buildChart)
	return r
}

// Register binds kind to b, replacing any previous builder.
func (r *Registry) Register(kind string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[strings.ToLower(strings.TrimSpace(kind))] = b
}

// Kinds lists registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.builders))
	for k := range r.builders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build returns one producer per section, preserving order.
func (r *Registry) Build(sections []config.Section, env Env) ([]Producer, error) {
	out := make([]Producer, 0, len(sections))
	for i, sec := range sections {
		kind := strings.ToLower(strings.TrimSpace(sec.Kind))
		r.mu.RLock()
		b, ok := r.builders[kind]
		r.mu.RUnlock()
		if !ok {
			return nil, ferrors.ValidationError("unknown section kind").
				WithContext("section", sec.Name).
				WithContext("index", i).
				WithContext("kind", sec.Kind).
				WithContext("known", strings.Join(r.Kinds(), ",")).
				Build()
		}
		p, err := b(sec, env)
		if err != nil {
			if ce, ok := ferrors.AsClassified(err); ok {
				return nil, ce.WithContext("section", sec.Name).WithContext("index", i)
			}
			return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid section").
				Fatal().
				WithContext("section", sec.Name).
				WithContext("index", i).
				Build()
		}
		out = append(out, p)
	}
	return out, nil
}

func invalid(kind, msg string) error {
	return ferrors.ValidationError(msg).WithContext("kind", kind).Build()
}
