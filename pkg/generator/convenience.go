package generator

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/blimu-dev/php-client-gen/pkg/config"
	"github.com/blimu-dev/php-client-gen/pkg/openapi"
)

// GenerateClientOptions contains options for the convenience GenerateClient function
type GenerateClientOptions struct {
	// ConfigPath is the path to the configuration file (optional)
	ConfigPath string

	// SingleClient generates only the named client from config (optional)
	SingleClient string

	// Fallback options when no config file is provided
	Spec               string   // OpenAPI spec file or URL
	OutDir             string   // Output directory
	Namespace          string   // Root PHP namespace
	Name               string   // Client class prefix
	PackageName        string   // Composer package name
	DefaultBaseURL     string   // Overrides the first server URL
	IncludeTags        []string // Regex patterns for tags to include
	ExcludeTags        []string // Regex patterns for tags to exclude
	Tests              bool     // Emit PHPUnit skeletons
	StrictOperationIDs bool     // Fail on duplicate operationIds
	Validate           bool     // Validate the document first
	Clean              bool     // Empty OutDir before rendering

	Logger *zap.Logger
}

// GenerateClient is a convenience function for generating PHP clients with minimal configuration
func GenerateClient(ctx context.Context, opts GenerateClientOptions) ([]Result, error) {
	outDir := opts.OutDir
	if outDir != "" {
		abs, err := filepath.Abs(outDir)
		if err != nil {
			return nil, err
		}
		outDir = abs
	}

	return NewService(opts.Logger).Generate(ctx, GenerateOptions{
		ConfigPath:   opts.ConfigPath,
		SingleClient: opts.SingleClient,
		Fallback: FallbackOptions{
			Spec:               opts.Spec,
			OutDir:             outDir,
			Namespace:          opts.Namespace,
			Name:               opts.Name,
			PackageName:        opts.PackageName,
			DefaultBaseURL:     opts.DefaultBaseURL,
			IncludeTags:        opts.IncludeTags,
			ExcludeTags:        opts.ExcludeTags,
			Tests:              opts.Tests,
			StrictOperationIDs: opts.StrictOperationIDs,
			Validate:           opts.Validate,
			Clean:              opts.Clean,
		},
	})
}

// GenerateFromConfig is a convenience function for generating from a config file
func GenerateFromConfig(ctx context.Context, configPath string, singleClient ...string) ([]Result, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	onlyClient := ""
	if len(singleClient) > 0 {
		onlyClient = singleClient[0]
	}

	return NewService(nil).GenerateFromConfig(ctx, cfg, onlyClient)
}

// ValidateSpec validates an OpenAPI specification
func ValidateSpec(ctx context.Context, specPath string) error {
	return openapi.ValidateDocument(ctx, specPath)
}
