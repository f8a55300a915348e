package problems

import (
	"fmt"
	"sort"

	"github.com/san-kum/infopt/internal/model"
)

// Builder constructs a problem from scalar parameters.
type Builder func(Params) (*model.Problem, error)

// Registry maps problem names to builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry registers the built-in problems.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	r.builders["seir"] = BuildSEIR
	r.builders["sir"] = BuildSIR
	return r
}

// Get builds the named problem.
func (r *Registry) Get(name string, p Params) (*model.Problem, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem: %s", name)
	}
	return b(p)
}

// List returns the registered problem names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
