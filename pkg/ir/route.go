package ir

// IRParamLocation says where a parameter travels in the HTTP request.
type IRParamLocation string

const (
	IRParamPath  IRParamLocation = "path"
	IRParamQuery IRParamLocation = "query"
	IRParamBody  IRParamLocation = "body"
)

// IRBindingKind says where a parameter's value comes from.
type IRBindingKind string

const (
	// IRBindArgument is a plain method argument supplied by the caller
	IRBindArgument IRBindingKind = "argument"
	// IRBindProperty reads a property of the owning resource
	IRBindProperty IRBindingKind = "property"
	// IRBindOwnID reads the owning resource's own id
	IRBindOwnID IRBindingKind = "own_id"
)

// IRBinding is the source expression of a parameter value.
type IRBinding struct {
	Kind IRBindingKind
	// Property is the owning resource's property name for IRBindProperty
	// and IRBindOwnID
	Property string
	// Field is set when Property holds an entity and the value is one of
	// its fields (e.g. the "id" of a nested customer)
	Field string
}

// IsImplicit reports whether the value is taken from resource state.
func (b IRBinding) IsImplicit() bool { return b.Kind != IRBindArgument && b.Kind != "" }

// IRParam is a single path, query or body parameter.
type IRParam struct {
	// Name is the raw name used on the wire. It is empty for a body
	// parameter that carries the whole request body.
	Name string
	// VarName is the PHP variable name without "$"
	VarName     string
	In          IRParamLocation
	Required    bool
	Type        string
	Format      string
	Items       string
	Description string
	Binding     IRBinding
}

// IsWholeBody reports whether the parameter is the entire request body.
func (p IRParam) IsWholeBody() bool { return p.In == IRParamBody && p.Name == "" }

// IRUnhandledResponse records a response the compiler could not type.
type IRUnhandledResponse struct {
	Code        string
	ContentType string
	Reason      string
}

// IRRoute is one operation rendered as a class method.
type IRRoute struct {
	OperationID string
	// MethodName is the PHP method name
	MethodName  string
	HTTPMethod  string
	Path        string
	Tags        []string
	Summary     string
	Description string
	Deprecated  bool

	PathParams  []IRParam
	QueryParams []IRParam
	BodyParams  []IRParam
	// DefinitionParams is the method signature, required parameters first
	DefinitionParams []IRParam
	BodyContentType  string

	ExpectedResponseCode string
	ReturnType           string
	ReturnsArray         bool
	DefaultReturnType    string
	DefaultReturnsArray  bool

	ResponseExpression        IRExpr
	DefaultResponseExpression IRExpr
	Unhandled                 []IRUnhandledResponse
}

// HasBody reports whether the route sends a JSON body.
func (r *IRRoute) HasBody() bool { return len(r.BodyParams) > 0 }

// Param returns the named parameter from the given group.
func Param(params []IRParam, name string) (IRParam, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}
	return IRParam{}, false
}
