package target

import (
	"fmt"
	"sort"
	"strings"
)

// Factory opens a target from options.
type Factory func(opts Options) (Target, error)

type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

func (r *Registry) Register(kind string, f Factory) {
	r.factories[kind] = f
}

func (r *Registry) Open(opts Options) (Target, error) {
	kind := opts.Kind
	if kind == "" {
		kind = KindLocal
	}
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("target kind not registered: %s (have %s)", kind, strings.Join(r.Kinds(), ", "))
	}
	return f(opts)
}

// Kinds lists registered target kinds in name order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
