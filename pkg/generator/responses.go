package generator

import (
	oasgen "github.com/erraggy/oastools/generator"

	"github.com/blimu-dev/php-client-gen/pkg/ir"
	"github.com/blimu-dev/php-client-gen/pkg/openapi"
)

const defaultResponseKey = "default"

// typedResponse is a response the compiler could derive a PHP value for.
type typedResponse struct {
	Code         string
	ContentType  string
	ReturnType   string
	ReturnsArray bool
	Expr         ir.IRExpr
}

// responseAnalysis is computed once per operation and shared by every class
// the operation is assigned to.
type responseAnalysis struct {
	SuccessCode string
	Success     *typedResponse
	Default     *typedResponse
	Unhandled   []ir.IRUnhandledResponse
}

// types lists the entity types constructed by either expression.
func (a *responseAnalysis) types() []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range []*typedResponse{a.Success, a.Default} {
		if r == nil {
			continue
		}
		for _, t := range ir.ConstructedTypes(r.Expr) {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// analyzeResponses derives the success expression from the first declared
// response that is not "default", and the error expression from "default".
func (c *compiler) analyzeResponses(op *operation) (*responseAnalysis, error) {
	a := &responseAnalysis{}
	responses := openapi.MapValue(op.Node, "responses")

	for code, raw := range responses.All() {
		if code == defaultResponseKey {
			continue
		}
		a.SuccessCode = code
		r, err := c.typedResponse(op, a, code, openapi.AsMap(raw))
		if err != nil {
			return nil, err
		}
		a.Success = r
		break
	}

	if raw, ok := responses.Get(defaultResponseKey); ok {
		r, err := c.typedResponse(op, a, defaultResponseKey, openapi.AsMap(raw))
		if err != nil {
			return nil, err
		}
		a.Default = r
	}
	return a, nil
}

func (c *compiler) typedResponse(op *operation, a *responseAnalysis, code string, node *openapi.Map) (*typedResponse, error) {
	node, err := c.resolver.Follow(node)
	if err != nil {
		return nil, err
	}
	location := op.location() + ".responses." + code

	contentType, rawMedia, ok := openapi.FirstEntry(openapi.MapValue(node, "content"))
	if !ok {
		c.issue(oasgen.SeverityInfo, location, "content", "response has no content")
		return nil, nil
	}
	schema := openapi.MapValue(openapi.AsMap(rawMedia), "schema")
	if schema == nil {
		c.issue(oasgen.SeverityInfo, location, "schema", "response content "+contentType+" has no schema")
		return nil, nil
	}

	unhandled := func(reason string) (*typedResponse, error) {
		a.Unhandled = append(a.Unhandled, ir.IRUnhandledResponse{Code: code, ContentType: contentType, Reason: reason})
		c.issue(oasgen.SeverityWarning, location, "schema", reason)
		return nil, nil
	}

	name := ""
	target := schema
	if ref, ok := openapi.Ref(schema); ok {
		resolved, err := c.resolver.Resolve(ref)
		if err != nil {
			return nil, err
		}
		name, target = resolved.Name, resolved.Target
	}

	r := &typedResponse{Code: code, ContentType: contentType}
	switch {
	case isArraySchema(target):
		items := openapi.MapValue(target, "items")
		itemRef, ok := openapi.Ref(items)
		if !ok {
			return unhandled("array response items must be a $ref to a component schema")
		}
		item, err := c.resolver.Resolve(itemRef)
		if err != nil {
			return nil, err
		}
		if isPrimitiveSchema(item.Target) || isArraySchema(item.Target) {
			return unhandled("array response items " + item.Name + " are not an object schema")
		}
		if _, err := c.builder.materialize(item.Name, item.Target, nil); err != nil {
			return nil, err
		}
		r.ReturnType = item.Name
		r.ReturnsArray = true
		r.Expr = &ir.IRArrayMap{
			Source:  &ir.IRFieldAccess{Source: ir.BodySource(), Required: true},
			Element: c.synthesize(item.Name, &ir.IRFieldAccess{Source: ir.ItemSource(1), Required: true}, 1, nil),
			Depth:   1,
		}
	case name == "":
		return unhandled("inline response schemas are not supported, use a $ref to a component schema")
	case isPrimitiveSchema(target):
		return unhandled("referenced schema " + name + " is not an object schema")
	default:
		if _, err := c.builder.materialize(name, target, nil); err != nil {
			return nil, err
		}
		r.ReturnType = name
		r.Expr = c.synthesize(name, &ir.IRFieldAccess{Source: ir.BodySource(), Required: true}, 0, nil)
	}
	return r, nil
}

// synthesize builds the constructor expression for typeName reading from
// base. depth is the nesting level of the innermost enclosing array map.
// A type already on chain yields a null placeholder instead of recursing.
func (c *compiler) synthesize(typeName string, base *ir.IRFieldAccess, depth int, chain *ancestry) ir.IRExpr {
	if chain.contains(typeName) {
		return &ir.IRNull{}
	}
	entity, ok := c.entities.Get(typeName)
	if !ok {
		return &ir.IRNull{}
	}
	chain = chain.push(typeName)

	construct := &ir.IRConstruct{Type: typeName}
	for _, p := range entity.Properties() {
		construct.Args = append(construct.Args, c.synthesizeProperty(p, base, depth, chain))
	}
	return construct
}

func (c *compiler) synthesizeProperty(p *ir.IRProperty, base *ir.IRFieldAccess, depth int, chain *ancestry) ir.IRExpr {
	switch {
	case p.IsArray() && c.entities.Has(p.Items):
		element := c.synthesize(p.Items, &ir.IRFieldAccess{Source: ir.ItemSource(depth + 1), Required: true}, depth+1, chain)
		mapped := &ir.IRArrayMap{Source: base.Child(p.Name, true), Element: element, Depth: depth + 1}
		if p.Required {
			return mapped
		}
		return &ir.IRNullGuard{Check: base.Child(p.Name, false), Then: mapped}

	case c.entities.Has(p.Type):
		nested := c.synthesize(p.Type, base.Child(p.Name, true), depth, chain)
		if _, isNull := nested.(*ir.IRNull); isNull || p.Required {
			return nested
		}
		return &ir.IRNullGuard{Check: base.Child(p.Name, false), Then: nested}

	default:
		return base.Child(p.Name, p.Required)
	}
}
