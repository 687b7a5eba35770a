package generator

import (
	"go.uber.org/zap"

	"github.com/blimu-dev/php-client-gen/pkg/ir"
	"github.com/blimu-dev/php-client-gen/pkg/openapi"
)

// maxAncestryRepeats is how often a name may appear in the ancestry chain
// before materialize stops descending.
const maxAncestryRepeats = 2

var primitiveTypes = map[string]bool{
	"string":  true,
	"integer": true,
	"number":  true,
	"boolean": true,
}

type materializedKey struct {
	name   string
	schema *openapi.Map
}

// resourceBuilder turns component schemas into ir.IREntity values. It is the
// single writer of the entity registry.
type resourceBuilder struct {
	resolver *openapi.Resolver
	entities *ir.IREntityRegistry
	done     map[materializedKey]bool
	logger   *zap.Logger
}

func newResourceBuilder(resolver *openapi.Resolver, entities *ir.IREntityRegistry, logger *zap.Logger) *resourceBuilder {
	return &resourceBuilder{
		resolver: resolver,
		entities: entities,
		done:     map[materializedKey]bool{},
		logger:   logger,
	}
}

// materialize records the entity described by schema under name, including
// every entity it references. Properties already known are kept as they are.
func (b *resourceBuilder) materialize(name string, schema *openapi.Map, anc *ancestry) (*ir.IREntity, error) {
	entity := b.entities.Ensure(name)
	if anc.count(name) >= maxAncestryRepeats {
		return entity, nil
	}
	key := materializedKey{name: name, schema: schema}
	if b.done[key] {
		return entity, nil
	}

	b.logger.Debug("materializing entity", zap.String("entity", name), zap.Strings("ancestry", anc.names()))

	if err := b.merge(entity, schema, anc.push(name), map[*openapi.Map]bool{}); err != nil {
		return nil, err
	}
	b.done[key] = true
	return entity, nil
}

// merge adds the properties of schema, and of everything it composes through
// allOf, to entity. Composed members come first.
func (b *resourceBuilder) merge(entity *ir.IREntity, schema *openapi.Map, anc *ancestry, seen map[*openapi.Map]bool) error {
	if schema == nil || seen[schema] {
		return nil
	}
	seen[schema] = true

	for _, raw := range openapi.ListValue(schema, "allOf") {
		member := openapi.AsMap(raw)
		if member == nil {
			continue
		}
		if ref, ok := openapi.Ref(member); ok {
			resolved, err := b.resolver.Resolve(ref)
			if err != nil {
				return err
			}
			member = resolved.Target
		}
		if err := b.merge(entity, member, anc, seen); err != nil {
			return err
		}
	}

	return b.addProperties(entity, schema, anc)
}

func (b *resourceBuilder) addProperties(entity *ir.IREntity, schema *openapi.Map, anc *ancestry) error {
	props := openapi.MapValue(schema, "properties")
	if props == nil {
		return nil
	}
	required := stringSet(openapi.StringList(schema, "required"))

	for name, raw := range props.All() {
		if _, exists := entity.Property(name); exists {
			continue
		}
		node := openapi.AsMap(raw)
		if node == nil {
			continue
		}
		prop, err := b.property(entity, name, node, required[name], anc)
		if err != nil {
			return err
		}
		if prop == nil {
			b.logger.Debug("skipping property with unknown shape",
				zap.String("entity", entity.Name), zap.String("property", name))
			continue
		}
		entity.AddProperty(prop)
	}
	return nil
}

func (b *resourceBuilder) property(owner *ir.IREntity, name string, node *openapi.Map, required bool, anc *ancestry) (*ir.IRProperty, error) {
	prop := &ir.IRProperty{
		Name:        name,
		Required:    required,
		Description: openapi.StringValue(node, "description"),
	}

	if ref, ok := openapi.Ref(node); ok {
		typ, err := b.referencedType(owner, ref, anc)
		if err != nil {
			return nil, err
		}
		if typ.primitive != "" {
			prop.Type, prop.Format, prop.Items = typ.primitive, typ.format, typ.items
		} else {
			prop.Type = typ.entity
		}
		if prop.Description == "" {
			prop.Description = typ.description
		}
		return prop, nil
	}

	switch schemaType(node) {
	case "":
		return nil, nil
	case "array":
		prop.Type = "array"
		items := openapi.MapValue(node, "items")
		if ref, ok := openapi.Ref(items); ok {
			typ, err := b.referencedType(owner, ref, anc)
			if err != nil {
				return nil, err
			}
			prop.Items = typ.name()
		} else {
			prop.Items = schemaType(items)
		}
	default:
		prop.Type = schemaType(node)
		prop.Format = openapi.StringValue(node, "format")
	}
	return prop, nil
}

type referencedType struct {
	entity      string
	primitive   string
	format      string
	items       string
	description string
}

func (t referencedType) name() string {
	if t.entity != "" {
		return t.entity
	}
	return t.primitive
}

// referencedType resolves ref. Primitive targets (named enums and the like)
// and named arrays are inlined; everything else is materialized as an entity.
func (b *resourceBuilder) referencedType(owner *ir.IREntity, ref string, anc *ancestry) (referencedType, error) {
	resolved, err := b.resolver.Resolve(ref)
	if err != nil {
		return referencedType{}, err
	}
	target := resolved.Target
	if isArraySchema(target) {
		t := referencedType{primitive: "array", description: openapi.StringValue(target, "description")}
		if anc.count(resolved.Name) >= maxAncestryRepeats {
			return t, nil
		}
		items := openapi.MapValue(target, "items")
		if itemRef, ok := openapi.Ref(items); ok {
			it, err := b.referencedType(owner, itemRef, anc.push(resolved.Name))
			if err != nil {
				return referencedType{}, err
			}
			t.items = it.name()
		} else {
			t.items = schemaType(items)
		}
		return t, nil
	}
	if isPrimitiveSchema(target) {
		return referencedType{
			primitive:   schemaType(target),
			format:      openapi.StringValue(target, "format"),
			description: openapi.StringValue(target, "description"),
		}, nil
	}
	if _, err := b.materialize(resolved.Name, target, anc); err != nil {
		return referencedType{}, err
	}
	owner.AddUsedType(resolved.Name)
	return referencedType{entity: resolved.Name, description: openapi.StringValue(target, "description")}, nil
}

// schemaType returns the schema's type. OpenAPI 3.1 type lists yield their
// first non-null member.
func schemaType(node *openapi.Map) string {
	v, ok := node.Get("type")
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "null" {
				return s
			}
		}
	}
	return ""
}

func isPrimitiveSchema(node *openapi.Map) bool {
	return primitiveTypes[schemaType(node)] && !node.Has("properties") && !node.Has("allOf")
}

func isArraySchema(node *openapi.Map) bool {
	return schemaType(node) == "array" && !node.Has("properties")
}

func stringSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}
