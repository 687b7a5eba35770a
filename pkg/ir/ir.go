package ir

import (
	"strings"

	"github.com/erraggy/oastools/generator"
	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/blimu-dev/php-client-gen/pkg/utils"
)

// IRClassKind distinguishes the two generated class families.
type IRClassKind string

const (
	IRClassManager  IRClassKind = "Manager"
	IRClassResource IRClassKind = "Resource"
)

// Dir returns the output sub-directory and namespace segment for the kind.
func (k IRClassKind) Dir() string {
	return string(k) + "s"
}

// IR represents the complete intermediate representation handed to a renderer
type IR struct {
	Client     IRClient
	Managers   []*IRClass
	Resources  []*IRClass
	Exceptions []IRException
	// Entities holds every materialized resource entity, including ones that
	// have no Resource tag and therefore no class of their own.
	Entities *IREntityRegistry
	// Issues lists the soft/skip cases met while compiling
	Issues []generator.GenerateIssue
	// EntityClasses maps entity names to their resource class name when it
	// differs from the capitalised entity name
	EntityClasses map[string]string
}

// EntityClassName returns the resource class generated for entity name.
func (r *IR) EntityClassName(name string) string {
	if cls, ok := r.EntityClasses[name]; ok {
		return cls
	}
	return utils.PHPClassName(name)
}

// Classes returns managers followed by resources.
func (r *IR) Classes() []*IRClass {
	out := make([]*IRClass, 0, len(r.Managers)+len(r.Resources))
	out = append(out, r.Managers...)
	return append(out, r.Resources...)
}

// IRClient is the top-level API client class.
type IRClient struct {
	ClassName       string
	Namespace       string
	APIBaseURL      string
	Info            IRInfo
	UseBearerToken  bool
	SecuritySchemes []IRSecurityScheme
	Managers        []*IRClass
	// PackageName is the composer package name, e.g. "acme/pets-client"
	PackageName string
}

// IRInfo passes through the document's info stanza.
type IRInfo struct {
	Title       string
	Version     string
	Description string
	License     IRLicense
}

// IRLicense is info.license; Name is empty when the document declares none.
type IRLicense struct {
	Name string
	URL  string
}

// IRException is one of the generated exception classes.
type IRException struct {
	ClassName string
	Namespace string
	Parent    string
	// Description is rendered into the class docblock
	Description string
}

// IRClass is a generated Manager or Resource class.
type IRClass struct {
	Kind             IRClassKind
	ClassName        string
	Namespace        string
	ClassPhpDocTitle string
	// Uses is the ordered, de-duplicated list of fully qualified class names
	Uses []string
	// Routes is keyed by operationId in first-seen order
	Routes *sequencedmap.Map[string, *IRRoute]
	// Properties is only set for resources
	Properties []*IRProperty
}

// RouteList returns the routes in declaration order.
func (c *IRClass) RouteList() []*IRRoute {
	out := make([]*IRRoute, 0, c.Routes.Len())
	for _, r := range c.Routes.All() {
		out = append(out, r)
	}
	return out
}

// IsResource reports whether the class is a Resource.
func (c *IRClass) IsResource() bool { return c.Kind == IRClassResource }

// IRSecurityScheme captures a simplified view of OpenAPI security schemes
// sufficient for SDK generation.
type IRSecurityScheme struct {
	// Key is the name of the security scheme in components.securitySchemes
	Key string
	// Type is one of: http, apiKey, oauth2, openIdConnect
	Type string
	// Scheme is used when Type is http (e.g., "basic", "bearer")
	Scheme string
	// In is used when Type is apiKey (e.g., "header", "query", "cookie")
	In string
	// Name is used when Type is apiKey; it is the header/query/cookie name
	Name string
	// BearerFormat may be provided for bearer tokens
	BearerFormat string
}

// IsBearer reports whether the scheme is satisfied by a bearer token.
func (s IRSecurityScheme) IsBearer() bool {
	return (s.Type == "http" && strings.EqualFold(s.Scheme, "bearer")) || s.Type == "oauth2"
}
