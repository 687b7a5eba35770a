package php

import (
	"regexp"
	"strings"

	"github.com/blimu-dev/php-client-gen/pkg/config"
	"github.com/blimu-dev/php-client-gen/pkg/ir"
	"github.com/blimu-dev/php-client-gen/pkg/utils"
)

var statusClassPattern = regexp.MustCompile(`^([1-5])[xX]{2}$`)

// renderer holds what the templates need beyond the IR itself.
type renderer struct {
	client  config.Client
	in      ir.IR
	ns      string
	printer *exprPrinter
}

func newRenderer(client config.Client, in ir.IR) *renderer {
	ns := strings.Trim(in.Client.Namespace, `\`)
	if ns == "" {
		ns = strings.Trim(client.Namespace, `\`)
	}
	return &renderer{
		client:  client,
		in:      in,
		ns:      ns,
		printer: newExprPrinter(ns, in.Entities, in.EntityClasses),
	}
}

// phpTypeHint maps a schema type to a PHP parameter type declaration.
// Unknown types get no declaration.
func phpTypeHint(typ string) string {
	switch typ {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float"
	case "boolean":
		return "bool"
	case "array", "object":
		return "array"
	default:
		return ""
	}
}

func (r *renderer) isResource(typ string) bool {
	return r.in.Entities != nil && r.in.Entities.Has(typ)
}

// docType is the phpDoc type of a value of typ (with element type items).
func (r *renderer) docType(typ, items string) string {
	if typ == "array" {
		if items != "" {
			return r.docType(items, "") + "[]"
		}
		return "array"
	}
	if r.isResource(typ) {
		return r.in.EntityClassName(typ)
	}
	if hint := phpTypeHint(typ); hint != "" {
		return hint
	}
	return "mixed"
}

func (r *renderer) propertyDoc(p *ir.IRProperty) string {
	t := r.docType(p.Type, p.Items)
	if !p.Required {
		t += "|null"
	}
	return t
}

func (r *renderer) paramDoc(p ir.IRParam) string {
	t := r.docType(p.Type, p.Items)
	if !p.Required {
		t += "|null"
	}
	return t
}

// propertyName is the PHP property holding a resource field.
func propertyName(name string) string {
	v := utils.PHPVariableName(name)
	if v == "apiClient" {
		return "apiClientValue"
	}
	return v
}

func getterName(name string) string {
	return "get" + utils.UcFirst(propertyName(name))
}

// signature renders the method parameter list of route.
func signature(route *ir.IRRoute) string {
	parts := make([]string, 0, len(route.DefinitionParams))
	for _, p := range route.DefinitionParams {
		hint := phpTypeHint(p.Type)
		switch {
		case p.Required && hint != "":
			parts = append(parts, hint+" $"+p.VarName)
		case p.Required:
			parts = append(parts, "$"+p.VarName)
		case hint != "":
			parts = append(parts, "?"+hint+" $"+p.VarName+" = null")
		default:
			parts = append(parts, "$"+p.VarName+" = null")
		}
	}
	return strings.Join(parts, ", ")
}

// varName returns the signature variable of p, which may have been renamed
// to avoid a collision with a parameter from another location.
func varName(route *ir.IRRoute, p ir.IRParam) string {
	for _, d := range route.DefinitionParams {
		if d.In == p.In && d.Name == p.Name {
			return d.VarName
		}
	}
	return p.VarName
}

// bindingRead is the resource state a bound parameter reads.
func bindingRead(b ir.IRBinding) string {
	read := "$this->" + propertyName(b.Property)
	if b.Field != "" {
		read = "(" + read + " !== null ? " + read + "->" + propertyName(b.Field) + " : null)"
	}
	return read
}

// paramValue is the PHP expression producing the value of p inside a method
// of cls.
func paramValue(cls *ir.IRClass, route *ir.IRRoute, p ir.IRParam) string {
	if !cls.IsResource() || !p.Binding.IsImplicit() {
		return "$" + varName(route, p)
	}
	if p.In == ir.IRParamPath {
		return bindingRead(p.Binding)
	}
	return "$" + varName(route, p) + " ?? " + bindingRead(p.Binding)
}

// bodyOption is the Guzzle request option carrying the body.
func bodyOption(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		return "form_params"
	default:
		return "json"
	}
}

// statusCheck is the condition under which the response is not the expected one.
func statusCheck(code string) string {
	if code == "" {
		return "$statusCode >= 400"
	}
	if m := statusClassPattern.FindStringSubmatch(code); m != nil {
		return "intdiv($statusCode, 100) !== " + m[1]
	}
	return "$statusCode !== " + code
}

func (r *renderer) returnDoc(route *ir.IRRoute) string {
	if route.ReturnType == "" {
		return "mixed"
	}
	t := r.in.EntityClassName(route.ReturnType)
	if route.ReturnsArray {
		t += "[]"
	}
	return t
}

func (r *renderer) responseExpr(e ir.IRExpr, level int) string {
	return r.printer.Print(e, level)
}

// uses drops imports whose short name clashes with the class itself.
func uses(cls *ir.IRClass) []string {
	out := make([]string, 0, len(cls.Uses))
	for _, u := range cls.Uses {
		if shortName(u) == cls.ClassName {
			continue
		}
		out = append(out, u)
	}
	return out
}

func shortName(fqcn string) string {
	if i := strings.LastIndexByte(fqcn, '\\'); i >= 0 {
		return fqcn[i+1:]
	}
	return fqcn
}

// docLines splits s into trimmed lines for a docblock, without the leading
// and trailing blank lines.
func docLines(s string) []string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "*/", "* /"))
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t\r")
	}
	return lines
}

// managerAccessor is the client method returning a manager instance.
func managerAccessor(cls *ir.IRClass) string {
	name := utils.LcFirst(cls.ClassName)
	if utils.IsPHPReserved(name) || name == "request" || name == "getHttpClient" {
		name += "Manager"
	}
	return name
}
