package generator

import (
	"fmt"
	"regexp"

	oasgen "github.com/erraggy/oastools/generator"
	"github.com/speakeasy-api/openapi/sequencedmap"
	"go.uber.org/zap"

	"github.com/blimu-dev/php-client-gen/pkg/config"
	"github.com/blimu-dev/php-client-gen/pkg/ir"
	"github.com/blimu-dev/php-client-gen/pkg/logging"
	"github.com/blimu-dev/php-client-gen/pkg/openapi"
)

// CompileOptions controls a single compilation of a document into IR.
type CompileOptions struct {
	// Namespace is the root PHP namespace of the generated library
	Namespace string
	// ClientName prefixes the client class ("Pets" -> PetsClient)
	ClientName  string
	PackageName string
	// DefaultBaseURL overrides the document's first server URL
	DefaultBaseURL string
	// IncludeTags and ExcludeTags are regexes matched against raw operation tags
	IncludeTags []string
	ExcludeTags []string
	// StrictOperationIDs makes a duplicate operationId within a class fatal
	StrictOperationIDs bool
	Logger             *zap.Logger
}

// CompileOptionsFromClient maps a client configuration onto CompileOptions.
func CompileOptionsFromClient(client config.Client, logger *zap.Logger) CompileOptions {
	return CompileOptions{
		Namespace:          client.Namespace,
		ClientName:         client.Name,
		PackageName:        client.ComposerPackage(),
		DefaultBaseURL:     client.DefaultBaseURL,
		IncludeTags:        client.IncludeTags,
		ExcludeTags:        client.ExcludeTags,
		StrictOperationIDs: client.StrictOperationIDs,
		Logger:             logger,
	}
}

// compiler holds the state of one compilation run. It is single threaded;
// the entity registry is written only through the resource builder.
type compiler struct {
	doc      *openapi.Document
	resolver *openapi.Resolver
	opts     CompileOptions
	logger   *zap.Logger

	entities *ir.IREntityRegistry
	builder  *resourceBuilder

	include []*regexp.Regexp
	exclude []*regexp.Regexp

	managers  *sequencedmap.Map[string, *classBucket]
	resources *sequencedmap.Map[string, *classBucket]

	issues []oasgen.GenerateIssue
}

// Compile builds the IR for doc. Any fatal error aborts the run; no partial
// IR is returned.
func Compile(doc *openapi.Document, opts CompileOptions) (*ir.IR, error) {
	c, err := newCompiler(doc, opts)
	if err != nil {
		return nil, err
	}
	if err := c.classify(); err != nil {
		return nil, err
	}
	return c.assemble()
}

func newCompiler(doc *openapi.Document, opts CompileOptions) (*compiler, error) {
	include, exclude, err := compileTagFilters(opts.IncludeTags, opts.ExcludeTags)
	if err != nil {
		return nil, err
	}
	if opts.PackageName == "" {
		opts.PackageName = (&config.Client{Name: opts.ClientName}).ComposerPackage()
	}
	logger := logging.OrNop(opts.Logger)
	resolver := openapi.NewResolver(doc)
	entities := ir.NewEntityRegistry()

	return &compiler{
		doc:       doc,
		resolver:  resolver,
		opts:      opts,
		logger:    logger,
		entities:  entities,
		builder:   newResourceBuilder(resolver, entities, logger),
		include:   include,
		exclude:   exclude,
		managers:  sequencedmap.New[string, *classBucket](),
		resources: sequencedmap.New[string, *classBucket](),
	}, nil
}

// compileTagFilters compiles regex patterns for tag filtering
func compileTagFilters(include, exclude []string) ([]*regexp.Regexp, []*regexp.Regexp, error) {
	inc := make([]*regexp.Regexp, 0, len(include))
	for _, p := range include {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid includeTags pattern %q: %w", p, err)
		}
		inc = append(inc, r)
	}
	exc := make([]*regexp.Regexp, 0, len(exclude))
	for _, p := range exclude {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid excludeTags pattern %q: %w", p, err)
		}
		exc = append(exc, r)
	}
	return inc, exc, nil
}

// shouldIncludeOperation determines if an operation should be included based on its original tags
func shouldIncludeOperation(originalTags []string, include, exclude []*regexp.Regexp) bool {
	// If no include patterns, assume all tags are initially included
	included := len(include) == 0

	// Check include patterns - operation is included if ANY of its tags match ANY include pattern
	if len(include) > 0 {
		for _, tag := range originalTags {
			for _, r := range include {
				if r.MatchString(tag) {
					included = true
					break
				}
			}
			if included {
				break
			}
		}
	}

	if !included {
		return false
	}

	// Check exclude patterns - operation is excluded if ANY of its tags match ANY exclude pattern
	for _, tag := range originalTags {
		for _, r := range exclude {
			if r.MatchString(tag) {
				return false
			}
		}
	}

	return true
}

// collectSecuritySchemes reads components.securitySchemes in declaration order.
func collectSecuritySchemes(doc *openapi.Document, resolver *openapi.Resolver) ([]ir.IRSecurityScheme, error) {
	schemes := openapi.MapValue(doc.Components(), "securitySchemes")
	if schemes == nil {
		return nil, nil
	}
	out := make([]ir.IRSecurityScheme, 0, schemes.Len())
	for name, raw := range schemes.All() {
		s, err := resolver.Follow(openapi.AsMap(raw))
		if err != nil {
			return nil, err
		}
		if s == nil {
			continue
		}
		sc := ir.IRSecurityScheme{Key: name, Type: openapi.StringValue(s, "type")}
		switch sc.Type {
		case "http":
			sc.Scheme = openapi.StringValue(s, "scheme")
			sc.BearerFormat = openapi.StringValue(s, "bearerFormat")
		case "apiKey":
			sc.In = openapi.StringValue(s, "in")
			sc.Name = openapi.StringValue(s, "name")
		case "oauth2", "openIdConnect":
			// Flows and scopes are not modeled
		}
		out = append(out, sc)
	}
	return out, nil
}

func (c *compiler) issue(severity oasgen.Severity, path, field, message string) {
	c.issues = append(c.issues, oasgen.GenerateIssue{
		Path:     path,
		Field:    field,
		Message:  message,
		Severity: severity,
	})

	fields := []zap.Field{zap.String("path", path)}
	if field != "" {
		fields = append(fields, zap.String("field", field))
	}
	switch severity {
	case oasgen.SeverityInfo:
		c.logger.Info(message, fields...)
	case oasgen.SeverityWarning:
		c.logger.Warn(message, fields...)
	default:
		c.logger.Error(message, fields...)
	}
}
