package alyx

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrObjectNotFound is returned when a session has no datasets for an object.
	ErrObjectNotFound = errors.New("alyx: object not found")
	// ErrMissingAttribute is returned when a loaded object lacks an attribute.
	ErrMissingAttribute = errors.New("alyx: missing attribute")
)

// Array is a decoded numeric dataset. Data holds the elements in row-major
// order; Shape is the numpy shape (empty for a scalar).
type Array struct {
	Shape []int
	Data  []float64
}

// Len returns the number of elements.
func (a Array) Len() int { return len(a.Data) }

// Object is an ALF object: its attributes keyed by name, e.g. "times" or
// "ROIMotionEnergy".
type Object map[string]Array

// Attribute returns the named attribute or an error wrapping ErrMissingAttribute.
func (o Object) Attribute(name string) (Array, error) {
	a, ok := o[name]
	if !ok {
		return Array{}, fmt.Errorf("%w %q (have %v)", ErrMissingAttribute, name, o.Names())
	}
	return a, nil
}

// Names returns the attribute names in sorted order.
func (o Object) Names() []string {
	names := make([]string, 0, len(o))
	for k := range o {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
