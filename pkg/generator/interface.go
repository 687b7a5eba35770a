package generator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/blimu-dev/php-client-gen/pkg/config"
	"github.com/blimu-dev/php-client-gen/pkg/generator/php"
	"github.com/blimu-dev/php-client-gen/pkg/ir"
	"github.com/blimu-dev/php-client-gen/pkg/logging"
	"github.com/blimu-dev/php-client-gen/pkg/openapi"
)

// Generator renders a compiled IR for one configured client.
type Generator interface {
	// Generate writes the client library below client.OutDir
	Generate(client config.Client, ir ir.IR) error
	// GetType returns the type identifier for this generator (e.g., "php")
	GetType() string
}

// Registry manages available generators
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds a generator to the registry
func (r *Registry) Register(gen Generator) {
	r.generators[gen.GetType()] = gen
}

// Get retrieves a generator by type
func (r *Registry) Get(genType string) (Generator, bool) {
	gen, exists := r.generators[genType]
	return gen, exists
}

// GetAvailableTypes returns all registered generator types, sorted.
func (r *Registry) GetAvailableTypes() []string {
	types := make([]string, 0, len(r.generators))
	for t := range r.generators {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// GenerateOptions contains options for client generation
type GenerateOptions struct {
	ConfigPath   string
	SingleClient string
	Fallback     FallbackOptions
}

// FallbackOptions describe a single client when no config file is provided
type FallbackOptions struct {
	Spec               string
	Type               string
	OutDir             string
	Namespace          string
	Name               string
	PackageName        string
	DefaultBaseURL     string
	IncludeTags        []string
	ExcludeTags        []string
	Tests              bool
	StrictOperationIDs bool
	Validate           bool
	Clean              bool
}

// config turns the fallback options into a normalized one-client config.
func (f FallbackOptions) config() (*config.Config, error) {
	if f.Spec == "" || f.OutDir == "" || f.Namespace == "" || f.Name == "" {
		return nil, fmt.Errorf("either config path or spec, outDir, namespace and name must be provided")
	}
	typ := f.Type
	if typ == "" {
		typ = php.Type
	}
	cfg := &config.Config{
		Spec:     f.Spec,
		Validate: f.Validate,
		Clients: []config.Client{{
			Type:               typ,
			OutDir:             f.OutDir,
			Namespace:          f.Namespace,
			Name:               f.Name,
			PackageName:        f.PackageName,
			DefaultBaseURL:     f.DefaultBaseURL,
			IncludeTags:        f.IncludeTags,
			ExcludeTags:        f.ExcludeTags,
			Tests:              f.Tests,
			StrictOperationIDs: f.StrictOperationIDs,
			Clean:              f.Clean,
		}},
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Result describes one generated client.
type Result struct {
	Client config.Client
	IR     *ir.IR
}

// Service provides high-level client generation
type Service struct {
	registry *Registry
	logger   *zap.Logger
}

// NewService creates a new generator service with the PHP generator registered
func NewService(logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	registry := NewRegistry()
	registry.Register(php.NewPHPGenerator(logger.Named("php")))
	return &Service{
		registry: registry,
		logger:   logger,
	}
}

// NewServiceWithRegistry creates a new generator service with a custom registry
func NewServiceWithRegistry(registry *Registry, logger *zap.Logger) *Service {
	return &Service{
		registry: registry,
		logger:   logging.OrNop(logger),
	}
}

// GetRegistry returns the generator registry
func (s *Service) GetRegistry() *Registry {
	return s.registry
}

// Generate generates clients based on the provided options
func (s *Service) Generate(ctx context.Context, opts GenerateOptions) ([]Result, error) {
	var cfg *config.Config
	var err error

	if opts.ConfigPath == "" {
		cfg, err = opts.Fallback.config()
	} else {
		cfg, err = config.Load(opts.ConfigPath)
	}
	if err != nil {
		return nil, err
	}

	return s.GenerateFromConfig(ctx, cfg, opts.SingleClient)
}

// GenerateFromConfig loads the document once and generates every client of
// cfg, or only the one named onlyClient.
func (s *Service) GenerateFromConfig(ctx context.Context, cfg *config.Config, onlyClient string) ([]Result, error) {
	data, err := openapi.ReadSource(cfg.Spec)
	if err != nil {
		return nil, err
	}
	if cfg.Validate {
		if err := openapi.ValidateData(ctx, data); err != nil {
			return nil, err
		}
	}

	var results []Result
	for _, client := range cfg.Clients {
		if onlyClient != "" && client.Name != onlyClient {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		gen, exists := s.registry.Get(client.Type)
		if !exists {
			return results, fmt.Errorf("unsupported client type: %s (available: %s)",
				client.Type, strings.Join(s.registry.GetAvailableTypes(), ", "))
		}

		// Each client compiles its own tree: tag filters change which
		// operations are bucketed.
		doc, err := openapi.LoadDocumentFromData(data, cfg.Spec)
		if err != nil {
			return results, err
		}
		compiled, err := Compile(doc, CompileOptionsFromClient(client, s.logger.With(zap.String("client", client.Name))))
		if err != nil {
			return results, fmt.Errorf("failed to compile client %s: %w", client.Name, err)
		}

		// Ensure output directory exists before pre-commands
		if err := os.MkdirAll(client.OutDir, 0o755); err != nil {
			return results, fmt.Errorf("failed to create output directory for client %s: %w", client.Name, err)
		}
		if client.Clean {
			if err := s.cleanOutDir(client); err != nil {
				return results, fmt.Errorf("failed to clean output directory for client %s: %w", client.Name, err)
			}
		}

		if err := s.executeCommand(ctx, client.GetPreCommand(), client.OutDir, "pre-command"); err != nil {
			return results, fmt.Errorf("pre-generation commands failed for client %s: %w", client.Name, err)
		}

		if err := gen.Generate(client, *compiled); err != nil {
			return results, fmt.Errorf("failed to generate client %s: %w", client.Name, err)
		}

		if err := s.executeCommand(ctx, client.GetPostCommand(), client.OutDir, "post-command"); err != nil {
			return results, fmt.Errorf("post-generation commands failed for client %s: %w", client.Name, err)
		}

		results = append(results, Result{Client: client, IR: compiled})
	}

	if onlyClient != "" && len(results) == 0 {
		return nil, fmt.Errorf("no client named %q in config", onlyClient)
	}
	return results, nil
}

// executeCommand executes a single command in Docker Compose array format
func (s *Service) executeCommand(ctx context.Context, command []string, workDir, commandLabel string) error {
	if len(command) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = workDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmdDescription := strings.Join(command, " ")
	s.logger.Info("running "+commandLabel, zap.String("command", cmdDescription), zap.String("dir", workDir))

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s (%s) failed: %w", commandLabel, cmdDescription, err)
	}

	return nil
}
