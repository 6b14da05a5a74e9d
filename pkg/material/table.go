package material

import (
	"errors"
	"fmt"
)

// ErrUnknownMaterial is returned when an ID does not refer to a table entry
var ErrUnknownMaterial = errors.New("unknown material")

// ID is a stable index into a Table
type ID int

// Table owns the materials of a scene. Spheres refer to entries by ID, so
// many spheres can share one material without holding pointers into the table.
type Table struct {
	materials []Material
	names     map[string]ID
}

// NewTable creates an empty material table
func NewTable() *Table {
	return &Table{names: make(map[string]ID)}
}

// Add validates and appends a material, returning its ID.
// A non-empty name makes the material retrievable with Lookup.
func (t *Table) Add(name string, m Material) (ID, error) {
	if err := m.Validate(); err != nil {
		return 0, fmt.Errorf("material %q: %w", name, err)
	}
	if name != "" {
		if _, exists := t.names[name]; exists {
			return 0, fmt.Errorf("material %q already defined", name)
		}
	}

	id := ID(len(t.materials))
	t.materials = append(t.materials, m)
	if name != "" {
		t.names[name] = id
	}
	return id, nil
}

// Get returns the material for id. Callers must only pass IDs that Has accepts.
func (t *Table) Get(id ID) Material {
	return t.materials[id]
}

// Has reports whether id refers to a material in the table
func (t *Table) Has(id ID) bool {
	return id >= 0 && int(id) < len(t.materials)
}

// Lookup returns the ID registered under name
func (t *Table) Lookup(name string) (ID, error) {
	id, ok := t.names[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
	}
	return id, nil
}

// Len returns the number of materials
func (t *Table) Len() int {
	return len(t.materials)
}
