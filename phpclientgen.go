// Package phpclientgen generates PHP API client libraries from OpenAPI 3
// documents.
//
// Operations are grouped into classes by tag: "Manager:Pets" puts an
// operation on the Pets manager, reachable from the client, and
// "Resource:Pet" puts it on the Pet resource, whose path parameters are
// filled from the resource's own properties.
//
// Quick Start:
//
//	import phpclientgen "github.com/blimu-dev/php-client-gen"
//
//	_, err := phpclientgen.Generate(ctx, phpclientgen.Options{
//		Spec:      "./openapi.yaml",
//		OutDir:    "./pets-client",
//		Namespace: `Acme\Pets`,
//		Name:      "Pets",
//	})
//
// For more advanced usage, see the generator package.
package phpclientgen

import (
	"context"

	"github.com/blimu-dev/php-client-gen/pkg/generator"
)

// Options contains options for client generation.
type Options = generator.GenerateClientOptions

// Result describes one generated client.
type Result = generator.Result

// Generate generates a PHP client, either from the config file named by
// opts.ConfigPath or from the single-client fields of opts.
//
// Example:
//
//	results, err := phpclientgen.Generate(ctx, phpclientgen.Options{
//		Spec:        "./openapi.yaml",
//		OutDir:      "./shop-client",
//		Namespace:   `Acme\Shop`,
//		Name:        "Shop",
//		PackageName: "acme/shop-client",
//		IncludeTags: []string{"^Manager:", "^Resource:"},
//		ExcludeTags: []string{"Internal"},
//		Tests:       true,
//	})
func Generate(ctx context.Context, opts Options) ([]Result, error) {
	return generator.GenerateClient(ctx, opts)
}

// GenerateFromConfig generates clients from a YAML configuration file.
// Optionally, you can specify a single client name to generate only that client.
//
// Example:
//
//	// Generate all clients from config
//	_, err := phpclientgen.GenerateFromConfig(ctx, "./phpclientgen.yaml")
//
//	// Generate only a specific client
//	_, err := phpclientgen.GenerateFromConfig(ctx, "./phpclientgen.yaml", "Pets")
func GenerateFromConfig(ctx context.Context, configPath string, singleClient ...string) ([]Result, error) {
	return generator.GenerateFromConfig(ctx, configPath, singleClient...)
}

// ValidateSpec validates an OpenAPI specification file or URL.
func ValidateSpec(ctx context.Context, specPath string) error {
	return generator.ValidateSpec(ctx, specPath)
}
