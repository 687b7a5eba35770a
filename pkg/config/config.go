package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/erraggy/oastools/oaserrors"
	"gopkg.in/yaml.v3"

	"github.com/blimu-dev/php-client-gen/pkg/utils"
)

// DefaultConcurrency is the number of files rendered in parallel when unset.
const DefaultConcurrency = 4

var namespacePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\\[A-Za-z_][A-Za-z0-9_]*)*$`)

// Config represents the complete configuration for client generation
type Config struct {
	Spec string `yaml:"spec"`
	Name string `yaml:"name"`
	// Validate runs structural OpenAPI validation before compiling
	Validate bool     `yaml:"validate"`
	Clients  []Client `yaml:"clients"`
}

// Client represents configuration for a single generated PHP client
type Client struct {
	Type   string `yaml:"type"`
	OutDir string `yaml:"outDir"`
	// Namespace is the root PHP namespace, e.g. "Acme\\Pets"
	Namespace string `yaml:"namespace"`
	// Name prefixes the client class: "Pets" generates PetsClient
	Name string `yaml:"name"`
	// PackageName is the composer package name; derived from Name when empty
	PackageName string   `yaml:"packageName"`
	IncludeTags []string `yaml:"includeTags"`
	ExcludeTags []string `yaml:"excludeTags"`
	// Tests emits PHPUnit skeletons under Tests/
	Tests bool `yaml:"tests"`
	// StrictOperationIDs turns a duplicate operationId within a class into an error
	StrictOperationIDs bool `yaml:"strictOperationIds"`
	// PreCommand is an optional command to run before generation starts.
	// Uses Docker Compose array format: ["composer", "install"]
	// The command will be executed in the output directory.
	PreCommand []string `yaml:"preCommand"`
	// PostCommand is an optional command to run after generation completes.
	// Uses Docker Compose array format: ["vendor/bin/php-cs-fixer", "fix", "."]
	// The command will be executed in the output directory.
	PostCommand []string `yaml:"postCommand"`
	// DefaultBaseURL overrides the first server URL of the document
	DefaultBaseURL string `yaml:"defaultBaseURL"`
	// ExcludeFiles is a list of file paths (relative to outDir) that should not be generated
	// Example: ["composer.json", "Managers/"]
	ExcludeFiles []string `yaml:"exclude"`
	// Concurrency bounds parallel rendering; DefaultConcurrency when zero
	Concurrency int `yaml:"concurrency"`
	// Clean empties OutDir before the pre-command runs. Paths matched by
	// ExcludeFiles survive.
	Clean bool `yaml:"clean"`
}

// GetPreCommand returns the pre-generation command to execute.
func (c *Client) GetPreCommand() []string {
	return c.PreCommand
}

// GetPostCommand returns the post-generation command to execute.
func (c *Client) GetPostCommand() []string {
	return c.PostCommand
}

// ComposerPackage returns PackageName or a name derived from the client name.
func (c *Client) ComposerPackage() string {
	if c.PackageName != "" {
		return c.PackageName
	}
	base := utils.ToKebabCase(c.Name)
	if base == "" {
		base = "api"
	}
	return base + "/" + base + "-client"
}

// Workers returns the effective render concurrency.
func (c *Client) Workers() int {
	if c.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Concurrency
}

// ShouldExcludeFile checks if a file path should be excluded based on the ExcludeFiles list.
// targetPath should be an absolute path, and the comparison is done relative to OutDir.
func (c *Client) ShouldExcludeFile(targetPath string) bool {
	if len(c.ExcludeFiles) == 0 {
		return false
	}

	relPath, err := filepath.Rel(c.OutDir, targetPath)
	if err != nil {
		// If we can't get a relative path, the file is not under OutDir, so don't exclude
		return false
	}

	// Normalize the path (use forward slashes for consistency, handle . and ..)
	relPath = filepath.ToSlash(relPath)
	if relPath == "." {
		relPath = ""
	}

	for _, excludePattern := range c.ExcludeFiles {
		normalizedExclude := strings.TrimSuffix(filepath.ToSlash(excludePattern), "/")

		if relPath == normalizedExclude {
			return true
		}

		// "Managers/" excludes everything below Managers
		if normalizedExclude != "" && strings.HasPrefix(relPath, normalizedExclude+"/") {
			return true
		}
	}

	return false
}

// Validate checks a single client entry. index is only used in messages.
func (c *Client) Validate(index int) error {
	opt := func(field string) string { return fmt.Sprintf("clients[%d].%s", index, field) }

	if c.Type == "" || c.OutDir == "" || c.Namespace == "" || c.Name == "" {
		return &oaserrors.ConfigError{
			Option:  fmt.Sprintf("clients[%d]", index),
			Message: "missing required fields (type, outDir, namespace, name)",
		}
	}
	c.Namespace = strings.Trim(c.Namespace, `\`)
	if !namespacePattern.MatchString(c.Namespace) {
		return &oaserrors.ConfigError{Option: opt("namespace"), Value: c.Namespace, Message: "not a valid PHP namespace"}
	}
	if utils.IsPHPReserved(c.Name) || utils.PHPClassName(c.Name) != c.Name {
		return &oaserrors.ConfigError{Option: opt("name"), Value: c.Name, Message: "not a valid PHP class name prefix"}
	}
	if c.Concurrency < 0 {
		return &oaserrors.ConfigError{Option: opt("concurrency"), Value: c.Concurrency, Message: "must not be negative"}
	}
	return nil
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &oaserrors.ConfigError{Option: path, Message: "invalid YAML", Cause: err}
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and absolutizes local paths.
func (cfg *Config) Normalize() error {
	if cfg.Spec == "" {
		return &oaserrors.ConfigError{Option: "spec", Message: "config.spec is required"}
	}
	for i := range cfg.Clients {
		c := &cfg.Clients[i]
		if err := c.Validate(i); err != nil {
			return err
		}
		if !filepath.IsAbs(c.OutDir) {
			abs, _ := filepath.Abs(c.OutDir)
			c.OutDir = abs
		}
	}
	// Do not absolutize when spec is an HTTP(S) URL
	if u, err := url.Parse(cfg.Spec); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		// keep as-is
	} else if !filepath.IsAbs(cfg.Spec) {
		abs, _ := filepath.Abs(cfg.Spec)
		cfg.Spec = abs
	}
	return nil
}
