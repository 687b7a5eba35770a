package ir

import (
	"slices"
	"strings"

	"github.com/speakeasy-api/openapi/sequencedmap"
)

// IRProperty is one field of a resource entity.
type IRProperty struct {
	Name     string
	Required bool
	// Type is a primitive schema type ("string", "integer", ...), "array",
	// or the name of another entity
	Type        string
	Format      string
	Description string
	// Items is the element type when Type is "array"
	Items string
}

// IsArray reports whether the property holds a list.
func (p *IRProperty) IsArray() bool { return p.Type == "array" }

// IREntity is a named object shape discovered in components.schemas.
// Properties are only ever added, never replaced or removed.
type IREntity struct {
	Name       string
	properties *sequencedmap.Map[string, *IRProperty]
	usedTypes  []string
}

func newEntity(name string) *IREntity {
	return &IREntity{Name: name, properties: sequencedmap.New[string, *IRProperty]()}
}

// AddProperty records p unless a property with the same name exists.
// It reports whether p was added.
func (e *IREntity) AddProperty(p *IRProperty) bool {
	if e.properties.Has(p.Name) {
		return false
	}
	e.properties.Set(p.Name, p)
	return true
}

// Property returns the named property.
func (e *IREntity) Property(name string) (*IRProperty, bool) {
	return e.properties.Get(name)
}

// Properties returns the properties in discovery order.
func (e *IREntity) Properties() []*IRProperty {
	return slices.Collect(e.properties.Values())
}

// PropertyCount returns the number of properties.
func (e *IREntity) PropertyCount() int { return e.properties.Len() }

// AddUsedType records a dependency on another entity.
func (e *IREntity) AddUsedType(name string) {
	if name == "" || name == e.Name || slices.Contains(e.usedTypes, name) {
		return
	}
	e.usedTypes = append(e.usedTypes, name)
}

// UsedTypes returns the entity's dependencies in discovery order.
func (e *IREntity) UsedTypes() []string {
	return slices.Clone(e.usedTypes)
}

// IREntityRegistry is an append-only arena of entities keyed by name.
// It is not safe for concurrent use; callers serialize writes.
type IREntityRegistry struct {
	entities []*IREntity
	index    map[string]int
}

// NewEntityRegistry returns an empty registry.
func NewEntityRegistry() *IREntityRegistry {
	return &IREntityRegistry{index: map[string]int{}}
}

// Ensure returns the entity for name, creating it on first use.
func (r *IREntityRegistry) Ensure(name string) *IREntity {
	if i, ok := r.index[name]; ok {
		return r.entities[i]
	}
	e := newEntity(name)
	r.index[name] = len(r.entities)
	r.entities = append(r.entities, e)
	return e
}

// Get returns the entity with exactly this name.
func (r *IREntityRegistry) Get(name string) (*IREntity, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.entities[i], true
}

// Find is Get with a case-insensitive fallback, matching how tag names are
// grouped.
func (r *IREntityRegistry) Find(name string) (*IREntity, bool) {
	if e, ok := r.Get(name); ok {
		return e, true
	}
	for _, e := range r.entities {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return nil, false
}

// Has reports whether name is registered.
func (r *IREntityRegistry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// All returns the entities in creation order.
func (r *IREntityRegistry) All() []*IREntity {
	return slices.Clone(r.entities)
}

// Len returns the number of entities.
func (r *IREntityRegistry) Len() int { return len(r.entities) }
