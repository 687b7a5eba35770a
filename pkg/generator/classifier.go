package generator

import (
	"strings"

	oasgen "github.com/erraggy/oastools/generator"
	"github.com/speakeasy-api/openapi/sequencedmap"
	"go.uber.org/zap"

	"github.com/blimu-dev/php-client-gen/pkg/ir"
	"github.com/blimu-dev/php-client-gen/pkg/openapi"
	"github.com/blimu-dev/php-client-gen/pkg/utils"
)

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// operation is one (path, method) entry of the document.
type operation struct {
	Path   string
	Method string
	ID     string
	Tags   []string
	Node   *openapi.Map
	// Params are the resolved parameter objects, path-item ones first and
	// overridden in place by operation ones with the same name and location
	Params    []*openapi.Map
	DerivedID bool
}

func (o *operation) location() string {
	return "paths." + o.Path + "." + strings.ToLower(o.Method)
}

func (o *operation) String() string {
	return o.Method + " " + o.Path
}

// classTag is a parsed "Manager:X" or "Resource:X" tag.
type classTag struct {
	Kind  ir.IRClassKind
	Value string
	Raw   string
}

// parseClassTag reports whether tag follows the Kind:Name convention.
func parseClassTag(tag string) (classTag, bool) {
	parts := strings.Split(tag, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return classTag{}, false
	}
	switch parts[0] {
	case string(ir.IRClassManager):
		return classTag{Kind: ir.IRClassManager, Value: parts[1], Raw: tag}, true
	case string(ir.IRClassResource):
		return classTag{Kind: ir.IRClassResource, Value: parts[1], Raw: tag}, true
	default:
		return classTag{}, false
	}
}

// bucketKey groups tag values case-insensitively.
func bucketKey(value string) string {
	return strings.ToLower(utils.PHPClassName(value))
}

// classifiedOp is an operation assigned to a class, with the response
// analysis shared by every class it was assigned to.
type classifiedOp struct {
	op        *operation
	responses *responseAnalysis
}

// classBucket collects the operations of one generated class.
type classBucket struct {
	kind ir.IRClassKind
	key  string
	// name is the PHP class name derived from the first-seen tag variant
	name string
	// tag is the first-seen raw tag, e.g. "Manager:Pets"
	tag    string
	value  string
	seeded bool
	ops    *sequencedmap.Map[string, *classifiedOp]
	uses   []string
}

func newClassBucket(t classTag) *classBucket {
	return &classBucket{
		kind:  t.Kind,
		key:   bucketKey(t.Value),
		name:  utils.PHPClassName(t.Value),
		tag:   t.Raw,
		value: t.Value,
		ops:   sequencedmap.New[string, *classifiedOp](),
	}
}

func (b *classBucket) addUse(name string) {
	for _, u := range b.uses {
		if u == name {
			return
		}
	}
	b.uses = append(b.uses, name)
}

// classify walks every operation once, analyses its responses and assigns
// it to the classes named by its tags.
func (c *compiler) classify() error {
	ops, err := c.operations()
	if err != nil {
		return err
	}

	for _, op := range ops {
		if !shouldIncludeOperation(op.Tags, c.include, c.exclude) {
			c.logger.Debug("operation filtered by tag patterns", zap.String("operation", op.String()))
			continue
		}

		responses, err := c.analyzeResponses(op)
		if err != nil {
			return wrapOperation(op, err)
		}

		targets := classTargets(op.Tags)
		if len(targets) == 0 {
			c.issue(oasgen.SeverityInfo, op.location(), "tags",
				"operation has no Manager:* or Resource:* tag and is not generated")
			continue
		}

		var firstResource *classTag
		for i := range targets {
			if targets[i].Kind == ir.IRClassResource {
				firstResource = &targets[i]
				break
			}
		}

		for _, t := range targets {
			bucket, err := c.bucket(t)
			if err != nil {
				return wrapOperation(op, err)
			}
			if err := c.assign(bucket, op, responses); err != nil {
				return wrapOperation(op, err)
			}
			if t.Kind == ir.IRClassManager && firstResource != nil {
				bucket.addUse(firstResource.Value)
			}
			for _, typ := range responses.types() {
				bucket.addUse(typ)
			}
		}

		c.logger.Debug("operation classified",
			zap.String("operation", op.String()),
			zap.String("operationId", op.ID),
			zap.Int("classes", len(targets)))
	}
	return nil
}

// classTargets returns the class tags of an operation, one per class.
func classTargets(tags []string) []classTag {
	var out []classTag
	seen := map[string]bool{}
	for _, tag := range tags {
		t, ok := parseClassTag(tag)
		if !ok {
			continue
		}
		k := string(t.Kind) + ":" + bucketKey(t.Value)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

func (c *compiler) bucket(t classTag) (*classBucket, error) {
	buckets := c.managers
	if t.Kind == ir.IRClassResource {
		buckets = c.resources
	}
	key := bucketKey(t.Value)
	if b, ok := buckets.Get(key); ok {
		return b, nil
	}

	b := newClassBucket(t)
	buckets.Set(key, b)
	if t.Kind == ir.IRClassResource {
		if err := c.seedResource(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// seedResource materializes components.schemas.<Name> for a Resource tag so
// the class has properties even when no response references the schema.
func (c *compiler) seedResource(b *classBucket) error {
	if b.seeded {
		return nil
	}
	b.seeded = true

	schemas := openapi.MapValue(c.doc.Components(), "schemas")
	for name, raw := range schemas.All() {
		if !strings.EqualFold(name, b.value) {
			continue
		}
		if _, err := c.builder.materialize(name, openapi.AsMap(raw), nil); err != nil {
			return err
		}
		return nil
	}
	return nil
}

// assign adds op to the class. A second operation with the same
// operationId replaces the first in place unless strict mode is on.
func (c *compiler) assign(b *classBucket, op *operation, responses *responseAnalysis) error {
	entry := &classifiedOp{op: op, responses: responses}
	existing, ok := b.ops.Get(op.ID)
	if !ok {
		b.ops.Set(op.ID, entry)
		return nil
	}

	if c.opts.StrictOperationIDs {
		return &DuplicateOperationIdError{OperationID: op.ID, Class: b.name, First: existing.op.String()}
	}
	c.issue(oasgen.SeverityWarning, op.location(), "operationId",
		"operationId "+op.ID+" already used by "+existing.op.String()+" in "+b.name+"; the later operation wins")
	*existing = *entry
	return nil
}

// operations lists every operation in document order.
func (c *compiler) operations() ([]*operation, error) {
	var out []*operation
	paths := c.doc.Paths()

	for path, rawItem := range paths.All() {
		item, err := c.resolver.Follow(openapi.AsMap(rawItem))
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}
		shared := openapi.ListValue(item, "parameters")

		for method, rawOp := range item.All() {
			if !httpMethods[strings.ToLower(method)] {
				continue
			}
			node := openapi.AsMap(rawOp)
			if node == nil {
				continue
			}
			op := &operation{
				Path:   path,
				Method: strings.ToUpper(method),
				ID:     openapi.StringValue(node, "operationId"),
				Tags:   openapi.StringList(node, "tags"),
				Node:   node,
			}
			if op.ID == "" {
				op.ID = strings.ToLower(method) + utils.ToPascalCase(path)
				op.DerivedID = true
				c.issue(oasgen.SeverityInfo, op.location(), "operationId",
					"missing operationId, using "+op.ID)
			}

			params, err := c.mergeParameters(shared, openapi.ListValue(node, "parameters"))
			if err != nil {
				return nil, wrapOperation(op, err)
			}
			op.Params = params
			out = append(out, op)
		}
	}
	return out, nil
}

// mergeParameters resolves both lists; an operation parameter overrides a
// path-item parameter with the same name and location.
func (c *compiler) mergeParameters(shared, own []any) ([]*openapi.Map, error) {
	var out []*openapi.Map
	index := map[string]int{}

	add := func(list []any, override bool) error {
		for _, raw := range list {
			p, err := c.resolver.Follow(openapi.AsMap(raw))
			if err != nil {
				return err
			}
			if p == nil {
				continue
			}
			key := openapi.StringValue(p, "in") + ":" + openapi.StringValue(p, "name")
			if i, ok := index[key]; ok {
				if override {
					out[i] = p
				}
				continue
			}
			index[key] = len(out)
			out = append(out, p)
		}
		return nil
	}

	if err := add(shared, false); err != nil {
		return nil, err
	}
	if err := add(own, true); err != nil {
		return nil, err
	}
	return out, nil
}
