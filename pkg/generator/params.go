package generator

import (
	"regexp"
	"slices"
	"strings"

	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/blimu-dev/php-client-gen/pkg/ir"
	"github.com/blimu-dev/php-client-gen/pkg/openapi"
	"github.com/blimu-dev/php-client-gen/pkg/utils"
)

var (
	idSuffixPattern     = regexp.MustCompile(`^(\w+?)(?:Id|ID|_id)$`)
	pathTemplatePattern = regexp.MustCompile(`\{([^{}]+)\}`)
)

// paramContext is the class a route is being generated for.
type paramContext struct {
	kind      ir.IRClassKind
	className string
	// entity backs a Resource class; nil for managers and tag-only resources
	entity   *ir.IREntity
	entities *ir.IREntityRegistry
}

// bind decides where the value of a path or query parameter comes from.
// Order: <word>Id matching an owned property, <word>Id naming this resource
// (own id), exact snake_case match with an owned property, plain argument.
// The own id rule needs an "id" property on the entity, and an entity-typed
// property only binds when its entity has an "id" property; otherwise the
// parameter stays a plain argument.
func (pc paramContext) bind(name string) ir.IRBinding {
	if pc.kind != ir.IRClassResource || pc.entity == nil {
		return ir.IRBinding{Kind: ir.IRBindArgument}
	}

	if m := idSuffixPattern.FindStringSubmatch(name); m != nil {
		word := m[1]
		if p := pc.propertyBySnake(utils.ToSnakeCase(word)); p != nil {
			return pc.propertyBinding(p)
		}
		if pc.isOwnName(word) {
			if _, ok := pc.entity.Property("id"); ok {
				return ir.IRBinding{Kind: ir.IRBindOwnID, Property: "id"}
			}
		}
	}

	if p := pc.propertyBySnake(utils.ToSnakeCase(name)); p != nil {
		return pc.propertyBinding(p)
	}
	return ir.IRBinding{Kind: ir.IRBindArgument}
}

func (pc paramContext) isOwnName(word string) bool {
	return strings.EqualFold(utils.UcFirst(word), pc.className) || strings.EqualFold(word, pc.entity.Name)
}

func (pc paramContext) propertyBySnake(snake string) *ir.IRProperty {
	if snake == "" {
		return nil
	}
	for _, p := range pc.entity.Properties() {
		if utils.ToSnakeCase(p.Name) == snake {
			return p
		}
	}
	return nil
}

// propertyBinding reads an owned property; entity-typed properties
// contribute their id, or nothing when the entity has none.
func (pc paramContext) propertyBinding(p *ir.IRProperty) ir.IRBinding {
	b := ir.IRBinding{Kind: ir.IRBindProperty, Property: p.Name}
	if target, ok := pc.entities.Get(p.Type); ok {
		if _, hasID := target.Property("id"); !hasID {
			return ir.IRBinding{Kind: ir.IRBindArgument}
		}
		b.Field = "id"
	}
	return b
}

// pathParams returns the operation's path parameters in declaration order.
// Placeholders in the path template that are not declared become required
// string arguments.
func (c *compiler) pathParams(pc paramContext, op *operation) []ir.IRParam {
	var out []ir.IRParam
	declared := map[string]bool{}
	for _, p := range op.Params {
		if openapi.StringValue(p, "in") != "path" {
			continue
		}
		param := c.parameter(p, ir.IRParamPath)
		param.Required = true
		param.Binding = pc.bind(param.Name)
		declared[param.Name] = true
		out = append(out, param)
	}

	for _, m := range pathTemplatePattern.FindAllStringSubmatch(op.Path, -1) {
		name := m[1]
		if declared[name] {
			continue
		}
		declared[name] = true
		out = append(out, ir.IRParam{
			Name:     name,
			VarName:  utils.PHPVariableName(name),
			In:       ir.IRParamPath,
			Required: true,
			Type:     "string",
			Binding:  pc.bind(name),
		})
	}
	return out
}

// queryParams returns required query parameters before optional ones, each
// group in declaration order.
func (c *compiler) queryParams(pc paramContext, op *operation) []ir.IRParam {
	var out []ir.IRParam
	for _, p := range op.Params {
		if openapi.StringValue(p, "in") != "query" {
			continue
		}
		param := c.parameter(p, ir.IRParamQuery)
		param.Binding = pc.bind(param.Name)
		out = append(out, param)
	}
	return requiredFirst(out)
}

func (c *compiler) parameter(p *openapi.Map, in ir.IRParamLocation) ir.IRParam {
	name := openapi.StringValue(p, "name")
	param := ir.IRParam{
		Name:        name,
		VarName:     utils.PHPVariableName(name),
		In:          in,
		Required:    openapi.BoolValue(p, "required"),
		Description: openapi.StringValue(p, "description"),
	}
	c.applySchemaType(&param, openapi.MapValue(p, "schema"))
	return param
}

// applySchemaType copies a parameter schema's type. Referenced objects are
// passed as plain arrays.
func (c *compiler) applySchemaType(param *ir.IRParam, schema *openapi.Map) {
	if schema == nil {
		return
	}
	target, err := c.resolver.Follow(schema)
	if err != nil || target == nil {
		// unresolvable parameter schemas degrade to mixed
		return
	}
	switch typ := schemaType(target); typ {
	case "":
		if target.Has("properties") || target.Has("allOf") {
			param.Type = "object"
		}
	case "array":
		param.Type = "array"
		param.Items = schemaType(openapi.MapValue(target, "items"))
	default:
		param.Type = typ
		param.Format = openapi.StringValue(target, "format")
	}
}

// bodyParams derives the parameters of an inline JSON request body from the
// first declared media type. Required properties come first in the order of
// the schema's required list, then the rest in declaration order.
func (c *compiler) bodyParams(op *operation) ([]ir.IRParam, string, error) {
	body := openapi.MapValue(op.Node, "requestBody")
	if body == nil {
		return nil, "", nil
	}
	if ref, ok := openapi.Ref(body); ok {
		return nil, "", &UnsupportedRequestBodySchemaError{Ref: ref}
	}

	contentType, rawMedia, ok := openapi.FirstEntry(openapi.MapValue(body, "content"))
	if !ok {
		return nil, "", nil
	}
	schema, err := c.resolver.Follow(openapi.MapValue(openapi.AsMap(rawMedia), "schema"))
	if err != nil {
		return nil, "", err
	}
	if schema == nil {
		return nil, contentType, nil
	}

	props, required, err := c.bodyProperties(schema)
	if err != nil {
		return nil, "", err
	}
	if props.Len() == 0 {
		whole := ir.IRParam{
			VarName:  "body",
			In:       ir.IRParamBody,
			Required: openapi.BoolValue(body, "required"),
		}
		c.applySchemaType(&whole, schema)
		return []ir.IRParam{whole}, contentType, nil
	}

	var out []ir.IRParam
	for _, name := range required {
		node, ok := props.Get(name)
		if !ok {
			continue
		}
		out = append(out, c.bodyParam(name, node, true))
	}
	for name, node := range props.All() {
		if slices.Contains(required, name) {
			continue
		}
		out = append(out, c.bodyParam(name, node, false))
	}
	return out, contentType, nil
}

func (c *compiler) bodyParam(name string, node *openapi.Map, required bool) ir.IRParam {
	p := ir.IRParam{
		Name:        name,
		VarName:     utils.PHPVariableName(name),
		In:          ir.IRParamBody,
		Required:    required,
		Description: openapi.StringValue(node, "description"),
	}
	c.applySchemaType(&p, node)
	return p
}

// bodyProperties collects the properties and required list of a request body
// schema, including allOf members.
func (c *compiler) bodyProperties(schema *openapi.Map) (*sequencedmap.Map[string, *openapi.Map], []string, error) {
	props := sequencedmap.New[string, *openapi.Map]()
	var required []string
	seen := map[*openapi.Map]bool{}

	var walk func(s *openapi.Map) error
	walk = func(s *openapi.Map) error {
		s, err := c.resolver.Follow(s)
		if err != nil || s == nil || seen[s] {
			return err
		}
		seen[s] = true
		for _, raw := range openapi.ListValue(s, "allOf") {
			if err := walk(openapi.AsMap(raw)); err != nil {
				return err
			}
		}
		for name, raw := range openapi.MapValue(s, "properties").All() {
			if node := openapi.AsMap(raw); node != nil && !props.Has(name) {
				props.Set(name, node)
			}
		}
		for _, r := range openapi.StringList(s, "required") {
			if !slices.Contains(required, r) {
				required = append(required, r)
			}
		}
		return nil
	}

	if err := walk(schema); err != nil {
		return nil, nil, err
	}
	return props, required, nil
}

// definitionParams is the method signature: path, query and body parameters
// with required ones first. Resource methods drop path parameters bound to
// resource state and take bound query parameters as optional overrides.
func definitionParams(kind ir.IRClassKind, path, query, body []ir.IRParam) []ir.IRParam {
	var all []ir.IRParam
	for _, p := range path {
		if kind == ir.IRClassResource && p.Binding.IsImplicit() {
			continue
		}
		all = append(all, p)
	}
	for _, p := range query {
		if kind == ir.IRClassResource && p.Binding.IsImplicit() {
			p.Required = false
		}
		all = append(all, p)
	}
	all = append(all, body...)

	all = requiredFirst(all)
	used := map[string]bool{}
	for i := range all {
		if used[all[i].VarName] {
			all[i].VarName = string(all[i].In) + utils.UcFirst(all[i].VarName)
		}
		used[all[i].VarName] = true
	}
	return all
}

// requiredFirst is a stable partition on Required.
func requiredFirst(params []ir.IRParam) []ir.IRParam {
	out := make([]ir.IRParam, 0, len(params))
	for _, p := range params {
		if p.Required {
			out = append(out, p)
		}
	}
	for _, p := range params {
		if !p.Required {
			out = append(out, p)
		}
	}
	return out
}
