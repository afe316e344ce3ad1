package transform

import (
	"fmt"
	"sync"

	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
	"github.com/shardfeed/shardfeed/pkg/data/record"
)

// ErrUnknownTransform is returned when a pipeline references a transform
// name that is not registered.
var ErrUnknownTransform = fmt.Errorf("%w: unknown transform", sferrors.ErrConfiguration)

// Transform is a single per-example processing stage.
type Transform interface {
	// Apply processes a record and returns the resulting record. The
	// result must have the same or an extended key set.
	Apply(rec record.Record) (record.Record, error)
}

// Func adapts a plain function to the Transform interface.
type Func func(record.Record) (record.Record, error)

// Apply implements Transform.
func (f Func) Apply(rec record.Record) (record.Record, error) {
	return f(rec)
}

// Factory builds a Transform from the literal arguments of a parsed
// pipeline segment.
type Factory func(args []interface{}, kwargs map[string]interface{}) (Transform, error)

// Registry maps transform names to factories. Parsing pipeline strings is
// independent of the registry; names are resolved in a separate step so
// the parser carries no dependency on transform implementations.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty transform registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named transform factory, replacing any previous entry.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Lookup resolves a transform name to its factory.
func (r *Registry) Lookup(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, name)
	}
	return factory, nil
}

// Names returns the registered transform names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// Build instantiates one transform per parsed segment, in order.
func (r *Registry) Build(specs []Spec) ([]Transform, error) {
	transforms := make([]Transform, 0, len(specs))
	for _, spec := range specs {
		factory, err := r.Lookup(spec.Name)
		if err != nil {
			return nil, err
		}
		tf, err := factory(spec.Args, spec.Kwargs)
		if err != nil {
			return nil, fmt.Errorf("%w: building %q: %v", sferrors.ErrConfiguration, spec.Name, err)
		}
		transforms = append(transforms, tf)
	}
	return transforms, nil
}

// Default is the process-wide registry holding the built-in transforms.
var Default = NewRegistry()
