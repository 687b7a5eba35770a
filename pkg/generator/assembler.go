package generator

import (
	"strconv"
	"strings"

	oasgen "github.com/erraggy/oastools/generator"
	"github.com/speakeasy-api/openapi/sequencedmap"
	"go.uber.org/zap"

	"github.com/blimu-dev/php-client-gen/pkg/ir"
	"github.com/blimu-dev/php-client-gen/pkg/openapi"
	"github.com/blimu-dev/php-client-gen/pkg/utils"
)

const (
	// ApiExceptionClass is the base class of every exception the client throws.
	ApiExceptionClass = "ApiException"
	// UnexpectedResponseExceptionClass is thrown for undeclared status codes.
	UnexpectedResponseExceptionClass = "UnexpectedResponseException"
)

// assemble turns the classified buckets into the final IR.
func (c *compiler) assemble() (*ir.IR, error) {
	ns := strings.Trim(c.opts.Namespace, `\`)
	clientName := utils.PHPClassName(c.opts.ClientName) + "Client"

	result := &ir.IR{Entities: c.entities}

	resources := sequencedmap.New[string, *ir.IRClass]()
	backing := map[string]*ir.IREntity{}

	for _, e := range c.entities.All() {
		name := utils.PHPClassName(e.Name)
		key := strings.ToLower(name)
		if resources.Has(key) {
			base := name
			for n := 2; resources.Has(key); n++ {
				name = base + strconv.Itoa(n)
				key = strings.ToLower(name)
			}
			c.issue(oasgen.SeverityWarning, "components.schemas."+e.Name, "",
				"schema name collides with another schema once capitalised; generated as "+name)
		}
		if name != utils.PHPClassName(e.Name) {
			if result.EntityClasses == nil {
				result.EntityClasses = map[string]string{}
			}
			result.EntityClasses[e.Name] = name
		}
		cls := c.newClass(ir.IRClassResource, name, ns, "")
		cls.Properties = e.Properties()
		resources.Set(key, cls)
		backing[key] = e
	}
	for key, b := range c.resources.All() {
		if !resources.Has(key) {
			resources.Set(key, c.newClass(ir.IRClassResource, b.name, ns, b.tag))
		} else if title := c.tagDescription(b.tag); title != "" {
			cls, _ := resources.Get(key)
			cls.ClassPhpDocTitle = title
		}
	}

	classFor := func(typ string) (*ir.IRClass, bool) {
		return resources.Get(strings.ToLower(result.EntityClassName(typ)))
	}

	for _, b := range c.managers.All() {
		cls := c.newClass(ir.IRClassManager, b.name, ns, b.tag)
		pc := paramContext{kind: ir.IRClassManager, className: cls.ClassName, entities: c.entities}
		if err := c.fillRoutes(cls, b, pc); err != nil {
			return nil, err
		}
		c.addUses(cls, ns, clientName, b.uses, nil, classFor)
		result.Managers = append(result.Managers, cls)
	}

	for key, cls := range resources.All() {
		entity := backing[key]
		var uses []string
		if b, ok := c.resources.Get(key); ok {
			if entity == nil {
				entity, _ = c.entities.Find(b.value)
			}
			pc := paramContext{kind: ir.IRClassResource, className: cls.ClassName, entity: entity, entities: c.entities}
			if err := c.fillRoutes(cls, b, pc); err != nil {
				return nil, err
			}
			uses = b.uses
		}
		var entityUses []string
		if entity != nil {
			entityUses = entity.UsedTypes()
		}
		c.addUses(cls, ns, clientName, uses, entityUses, classFor)
		result.Resources = append(result.Resources, cls)
	}

	schemes, err := collectSecuritySchemes(c.doc, c.resolver)
	if err != nil {
		return nil, err
	}
	info := c.doc.Info()
	baseURL := c.opts.DefaultBaseURL
	if baseURL == "" {
		if servers := c.doc.Servers(); len(servers) > 0 {
			baseURL = servers[0]
		}
	}

	result.Client = ir.IRClient{
		ClassName:  clientName,
		Namespace:  ns,
		APIBaseURL: baseURL,
		Info: ir.IRInfo{
			Title:       openapi.StringValue(info, "title"),
			Version:     openapi.StringValue(info, "version"),
			Description: openapi.StringValue(info, "description"),
			License: licenseOf(info),
		},
		SecuritySchemes: schemes,
		Managers:        result.Managers,
		PackageName:     c.opts.PackageName,
	}
	for _, s := range schemes {
		if s.IsBearer() {
			result.Client.UseBearerToken = true
			break
		}
	}

	result.Exceptions = []ir.IRException{
		{
			ClassName:   ApiExceptionClass,
			Namespace:   ns + `\Exceptions`,
			Parent:      `\Exception`,
			Description: "Thrown when the API answers with an error response.",
		},
		{
			ClassName:   UnexpectedResponseExceptionClass,
			Namespace:   ns + `\Exceptions`,
			Parent:      ApiExceptionClass,
			Description: "Thrown when the API answers with a status code the client does not expect.",
		},
	}
	result.Issues = c.issues

	c.logger.Info("compiled document",
		zap.Int("managers", len(result.Managers)),
		zap.Int("resources", len(result.Resources)),
		zap.Int("entities", c.entities.Len()),
		zap.Int("issues", len(result.Issues)))
	return result, nil
}

func (c *compiler) newClass(kind ir.IRClassKind, name, ns, tag string) *ir.IRClass {
	title := c.tagDescription(tag)
	if title == "" {
		title = name + " " + strings.ToLower(string(kind))
	}
	return &ir.IRClass{
		Kind:             kind,
		ClassName:        name,
		Namespace:        ns + `\` + kind.Dir(),
		ClassPhpDocTitle: title,
		Routes:           sequencedmap.New[string, *ir.IRRoute](),
	}
}

// tagDescription returns the description of a top-level tag entry.
func (c *compiler) tagDescription(tag string) string {
	if tag == "" {
		return ""
	}
	for _, raw := range openapi.ListValue(c.doc.Root(), "tags") {
		t := openapi.AsMap(raw)
		if openapi.StringValue(t, "name") == tag {
			return firstLine(openapi.StringValue(t, "description"))
		}
	}
	return ""
}

func (c *compiler) fillRoutes(cls *ir.IRClass, b *classBucket, pc paramContext) error {
	for id, cop := range b.ops.All() {
		route, err := c.route(pc, cop)
		if err != nil {
			return wrapOperation(cop.op, err)
		}
		cls.Routes.Set(id, route)
	}
	return nil
}

// route builds the RouteIR of one operation for one class.
func (c *compiler) route(pc paramContext, cop *classifiedOp) (*ir.IRRoute, error) {
	op := cop.op
	body, contentType, err := c.bodyParams(op)
	if err != nil {
		return nil, err
	}
	path := c.pathParams(pc, op)
	query := c.queryParams(pc, op)

	r := &ir.IRRoute{
		OperationID:      op.ID,
		MethodName:       utils.PHPVariableName(op.ID),
		HTTPMethod:       op.Method,
		Path:             op.Path,
		Tags:             op.Tags,
		Summary:          openapi.StringValue(op.Node, "summary"),
		Description:      openapi.StringValue(op.Node, "description"),
		Deprecated:       openapi.BoolValue(op.Node, "deprecated"),
		PathParams:       path,
		QueryParams:      query,
		BodyParams:       body,
		DefinitionParams: definitionParams(pc.kind, path, query, body),
		BodyContentType:  contentType,
		Unhandled:        cop.responses.Unhandled,
	}
	if utils.IsPHPReserved(r.MethodName) {
		r.MethodName += "Operation"
	}

	r.ExpectedResponseCode = cop.responses.SuccessCode
	if s := cop.responses.Success; s != nil {
		r.ReturnType = s.ReturnType
		r.ReturnsArray = s.ReturnsArray
		r.ResponseExpression = s.Expr
	}
	if d := cop.responses.Default; d != nil {
		r.DefaultReturnType = d.ReturnType
		r.DefaultReturnsArray = d.ReturnsArray
		r.DefaultResponseExpression = d.Expr
	}
	return r, nil
}

// addUses fills cls.Uses with fully qualified names: the client, the
// exceptions, then every resource the class depends on.
func (c *compiler) addUses(cls *ir.IRClass, ns, clientName string, bucketUses, entityUses []string,
	classFor func(string) (*ir.IRClass, bool)) {
	self := cls.Namespace + `\` + cls.ClassName
	seen := map[string]bool{self: true}
	add := func(fqcn string) {
		if !seen[fqcn] {
			seen[fqcn] = true
			cls.Uses = append(cls.Uses, fqcn)
		}
	}

	add(ns + `\` + clientName)
	if cls.Routes.Len() > 0 {
		add(ns + `\Exceptions\` + ApiExceptionClass)
		add(ns + `\Exceptions\` + UnexpectedResponseExceptionClass)
	}

	var names []string
	names = append(names, bucketUses...)
	names = append(names, entityUses...)
	for _, route := range cls.RouteList() {
		names = append(names, ir.ConstructedTypes(route.ResponseExpression)...)
		names = append(names, ir.ConstructedTypes(route.DefaultResponseExpression)...)
	}
	for _, name := range names {
		if target, ok := classFor(name); ok {
			add(target.Namespace + `\` + target.ClassName)
		}
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func licenseOf(info *openapi.Map) ir.IRLicense {
	if info == nil {
		return ir.IRLicense{}
	}
	lic := openapi.MapValue(info, "license")
	if lic == nil {
		return ir.IRLicense{}
	}
	return ir.IRLicense{
		Name: openapi.StringValue(lic, "name"),
		URL:  openapi.StringValue(lic, "url"),
	}
}
