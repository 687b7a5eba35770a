package php

import (
	"strconv"
	"strings"

	"github.com/blimu-dev/php-client-gen/pkg/ir"
	"github.com/blimu-dev/php-client-gen/pkg/utils"
)

const indentUnit = "    "

// exprPrinter renders response expressions as PHP source. Constructed
// resources are written with their fully qualified name.
type exprPrinter struct {
	namespace string
	// arity is the constructor argument count of each resource, without the
	// api client; shorter argument lists are padded with null
	arity map[string]int
	// classes holds renamed resource classes, keyed by entity name
	classes map[string]string
}

func newExprPrinter(namespace string, entities *ir.IREntityRegistry, classes map[string]string) *exprPrinter {
	p := &exprPrinter{namespace: strings.Trim(namespace, `\`), arity: map[string]int{}, classes: classes}
	if entities != nil {
		for _, e := range entities.All() {
			p.arity[e.Name] = e.PropertyCount()
		}
	}
	return p
}

// Print renders e as if it started at the given indentation level.
func (p *exprPrinter) Print(e ir.IRExpr, level int) string {
	var b strings.Builder
	p.write(&b, e, level)
	return b.String()
}

func (p *exprPrinter) write(b *strings.Builder, e ir.IRExpr, level int) {
	switch n := e.(type) {
	case *ir.IRFieldAccess:
		b.WriteString(fieldRead(n))
		if !n.Required && len(n.Path) > 0 {
			b.WriteString(" ?? null")
		}

	case *ir.IRNullGuard:
		b.WriteString("isset(")
		b.WriteString(fieldRead(n.Check))
		b.WriteString(") ? ")
		p.write(b, n.Then, level)
		b.WriteString(" : null")

	case *ir.IRArrayMap:
		b.WriteString("array_map(function (")
		b.WriteString(itemVar(n.Depth))
		b.WriteString(") {\n")
		b.WriteString(indent(level + 1))
		b.WriteString("return ")
		p.write(b, n.Element, level+1)
		b.WriteString(";\n")
		b.WriteString(indent(level))
		b.WriteString("}, ")
		b.WriteString(fieldRead(n.Source))
		if n.Source != nil && !n.Source.Required {
			b.WriteString(" ?? []")
		}
		b.WriteString(")")

	case *ir.IRConstruct:
		b.WriteString("new ")
		b.WriteString(p.className(n.Type))
		b.WriteString("(\n")
		b.WriteString(indent(level + 1))
		b.WriteString("$this->apiClient")
		for _, arg := range n.Args {
			b.WriteString(",\n")
			b.WriteString(indent(level + 1))
			p.write(b, arg, level+1)
		}
		for i := len(n.Args); i < p.arity[n.Type]; i++ {
			b.WriteString(",\n")
			b.WriteString(indent(level + 1))
			b.WriteString("null")
		}
		b.WriteString("\n")
		b.WriteString(indent(level))
		b.WriteString(")")

	default:
		b.WriteString("null")
	}
}

func (p *exprPrinter) className(typ string) string {
	name, ok := p.classes[typ]
	if !ok {
		name = utils.PHPClassName(typ)
	}
	return `\` + p.namespace + `\` + ir.IRClassResource.Dir() + `\` + name
}

// fieldRead renders the array lookup of f, e.g. $responseBody['customer']['id'].
func fieldRead(f *ir.IRFieldAccess) string {
	if f == nil {
		return "null"
	}
	var b strings.Builder
	if f.Source.Binding == ir.IRFromArrayItem {
		b.WriteString(itemVar(f.Source.Depth))
	} else {
		b.WriteString("$responseBody")
	}
	for _, key := range f.Path {
		b.WriteString("[")
		b.WriteString(phpString(key))
		b.WriteString("]")
	}
	return b.String()
}

func itemVar(depth int) string {
	return "$item" + strconv.Itoa(depth)
}

func indent(level int) string {
	return strings.Repeat(indentUnit, level)
}

// phpString quotes s as a single-quoted PHP string literal.
func phpString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
