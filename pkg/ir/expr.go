package ir

// IRExprKind tags the response expression variants.
type IRExprKind string

const (
	IRExprConstruct IRExprKind = "construct"
	IRExprField     IRExprKind = "field"
	IRExprArrayMap  IRExprKind = "array_map"
	IRExprNullGuard IRExprKind = "null_guard"
	IRExprNull      IRExprKind = "null"
)

// IRExpr is a node of a response-construction expression tree. The set of
// implementations is closed: *IRConstruct, *IRFieldAccess, *IRArrayMap,
// *IRNullGuard and *IRNull.
type IRExpr interface {
	Kind() IRExprKind
	isExpr()
}

// IRBindingContext names the runtime variable family a field read targets.
type IRBindingContext string

const (
	// IRFromResponseBody reads from the whole decoded response body
	IRFromResponseBody IRBindingContext = "response_body"
	// IRFromArrayItem reads from the element bound by an enclosing IRArrayMap
	IRFromArrayItem IRBindingContext = "array_item"
)

// IRValueSource is the variable a field read starts from. Depth is the
// nesting level of the enclosing IRArrayMap and is zero for the body.
type IRValueSource struct {
	Binding IRBindingContext
	Depth   int
}

// BodySource is the whole response body.
func BodySource() IRValueSource {
	return IRValueSource{Binding: IRFromResponseBody}
}

// ItemSource is the element variable introduced at depth.
func ItemSource(depth int) IRValueSource {
	return IRValueSource{Binding: IRFromArrayItem, Depth: depth}
}

// IRConstruct builds a resource instance. Args follow the entity's property order.
type IRConstruct struct {
	Type string
	Args []IRExpr
}

// IRFieldAccess reads Path below Source. An empty Path is the source itself.
// Optional reads are rendered with an existence check.
type IRFieldAccess struct {
	Source   IRValueSource
	Path     []string
	Required bool
}

// IRArrayMap transforms each element of Source with Element. Element reads
// from ItemSource(Depth).
type IRArrayMap struct {
	Source  *IRFieldAccess
	Element IRExpr
	Depth   int
}

// IRNullGuard evaluates Then only when Check is present, otherwise null.
type IRNullGuard struct {
	Check *IRFieldAccess
	Then  IRExpr
}

// IRNull is the placeholder emitted where recursion was cut.
type IRNull struct{}

func (*IRConstruct) Kind() IRExprKind   { return IRExprConstruct }
func (*IRFieldAccess) Kind() IRExprKind { return IRExprField }
func (*IRArrayMap) Kind() IRExprKind    { return IRExprArrayMap }
func (*IRNullGuard) Kind() IRExprKind   { return IRExprNullGuard }
func (*IRNull) Kind() IRExprKind        { return IRExprNull }

func (*IRConstruct) isExpr()   {}
func (*IRFieldAccess) isExpr() {}
func (*IRArrayMap) isExpr()    {}
func (*IRNullGuard) isExpr()   {}
func (*IRNull) isExpr()        {}

// Child returns a read of name below a.
func (a *IRFieldAccess) Child(name string, required bool) *IRFieldAccess {
	path := make([]string, 0, len(a.Path)+1)
	path = append(path, a.Path...)
	return &IRFieldAccess{Source: a.Source, Path: append(path, name), Required: required}
}

// WalkExpr calls fn for e and every expression below it, depth first.
// Returning false from fn skips the node's children.
func WalkExpr(e IRExpr, fn func(IRExpr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *IRConstruct:
		for _, a := range n.Args {
			WalkExpr(a, fn)
		}
	case *IRArrayMap:
		if n.Source != nil {
			WalkExpr(n.Source, fn)
		}
		WalkExpr(n.Element, fn)
	case *IRNullGuard:
		if n.Check != nil {
			WalkExpr(n.Check, fn)
		}
		WalkExpr(n.Then, fn)
	}
}

// ConstructedTypes lists the entity types built anywhere in e, in first-seen order.
func ConstructedTypes(e IRExpr) []string {
	var out []string
	seen := map[string]bool{}
	WalkExpr(e, func(n IRExpr) bool {
		if c, ok := n.(*IRConstruct); ok && !seen[c.Type] {
			seen[c.Type] = true
			out = append(out, c.Type)
		}
		return true
	})
	return out
}
