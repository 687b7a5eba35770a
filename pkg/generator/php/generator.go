package php

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blimu-dev/php-client-gen/pkg/config"
	"github.com/blimu-dev/php-client-gen/pkg/ir"
	"github.com/blimu-dev/php-client-gen/pkg/logging"
	"github.com/blimu-dev/php-client-gen/pkg/utils"
)

//go:embed templates/*
var templatesFS embed.FS

// Type is the client type handled by this package.
const Type = "php"

// PHPGenerator implements the Generator interface for PHP
type PHPGenerator struct {
	logger *zap.Logger
}

// NewPHPGenerator creates a new PHP generator
func NewPHPGenerator(logger *zap.Logger) *PHPGenerator {
	return &PHPGenerator{logger: logging.OrNop(logger)}
}

// GetType returns the generator type identifier
func (g *PHPGenerator) GetType() string {
	return Type
}

// file is one rendered output, relative to the output directory.
type file struct {
	template string
	path     string
	data     map[string]any
}

// Generate writes the PHP library for in below client.OutDir.
func (g *PHPGenerator) Generate(client config.Client, in ir.IR) error {
	r := newRenderer(client, in)
	tmpl, err := template.New("php").Funcs(r.funcMap()).ParseFS(templatesFS, "templates/*.gotmpl")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	dirs := []string{
		client.OutDir,
		filepath.Join(client.OutDir, ir.IRClassManager.Dir()),
		filepath.Join(client.OutDir, ir.IRClassResource.Dir()),
		filepath.Join(client.OutDir, "Exceptions"),
	}
	if client.Tests {
		dirs = append(dirs,
			filepath.Join(client.OutDir, "Tests", ir.IRClassManager.Dir()),
			filepath.Join(client.OutDir, "Tests", ir.IRClassResource.Dir()),
		)
	}
	for _, dir := range dirs {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}

	files := r.plan()
	var eg errgroup.Group
	eg.SetLimit(client.Workers())
	for _, f := range files {
		target := filepath.Join(client.OutDir, f.path)
		if client.ShouldExcludeFile(target) {
			g.logger.Debug("skipping excluded file", zap.String("file", f.path))
			continue
		}
		eg.Go(func() error {
			return renderFile(tmpl, f.template, target, f.data)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	g.logger.Info("php client written",
		zap.String("outDir", client.OutDir),
		zap.Int("files", len(files)))
	return nil
}

// plan lists every file of the library.
func (r *renderer) plan() []file {
	base := map[string]any{"Client": r.client, "IR": r.in, "Namespace": r.ns}
	with := func(key string, v any) map[string]any {
		data := make(map[string]any, len(base)+1)
		for k, val := range base {
			data[k] = val
		}
		data[key] = v
		return data
	}

	files := []file{
		{template: "client.php.gotmpl", path: r.in.Client.ClassName + ".php", data: base},
		{template: "composer.json.gotmpl", path: "composer.json", data: base},
		{template: "README.md.gotmpl", path: "README.md", data: base},
		{template: "gitignore.gotmpl", path: ".gitignore", data: base},
	}
	for _, ex := range r.in.Exceptions {
		files = append(files, file{
			template: utils.ToSnakeCase(ex.ClassName) + ".php.gotmpl",
			path:     filepath.Join("Exceptions", ex.ClassName+".php"),
			data:     with("Exception", ex),
		})
	}
	for _, cls := range r.in.Classes() {
		tmpl := "manager.php.gotmpl"
		if cls.IsResource() {
			tmpl = "resource.php.gotmpl"
		}
		files = append(files, file{
			template: tmpl,
			path:     filepath.Join(cls.Kind.Dir(), cls.ClassName+".php"),
			data:     with("Class", cls),
		})
		if r.client.Tests {
			files = append(files, file{
				template: "test.php.gotmpl",
				path:     filepath.Join("Tests", cls.Kind.Dir(), cls.ClassName+"Test.php"),
				data:     with("Class", cls),
			})
		}
	}
	if r.in.Client.Info.License.Name != "" {
		files = append(files, file{template: "LICENSE.md.gotmpl", path: "LICENSE.md", data: base})
	}
	if r.client.Tests {
		files = append(files, file{template: "phpunit.xml.gotmpl", path: "phpunit.xml.dist", data: base})
	}
	return files
}

func (r *renderer) funcMap() template.FuncMap {
	funcMap := template.FuncMap{
		"phpString":       phpString,
		"className":       utils.PHPClassName,
		"propName":        propertyName,
		"getter":          getterName,
		"shortName":       shortName,
		"uses":            uses,
		"signature":       signature,
		"varName":         varName,
		"paramValue":      paramValue,
		"bodyOption":      bodyOption,
		"statusCheck":     statusCheck,
		"docLines":        docLines,
		"managerAccessor": managerAccessor,
		"typeHint":        phpTypeHint,
		"propertyDoc":     r.propertyDoc,
		"paramDoc":        r.paramDoc,
		"returnDoc":       r.returnDoc,
		"responseExpr":    r.responseExpr,
		"isResource":      r.isResource,
	}

	// Merge sprig functions
	for k, v := range sprig.TxtFuncMap() {
		if _, exists := funcMap[k]; !exists {
			funcMap[k] = v
		}
	}
	return funcMap
}

// ensureDir creates dir unless it already exists.
func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// renderFile renders a template to the target path
func renderFile(tmpl *template.Template, templateName, targetPath string, data map[string]any) error {
	file, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", targetPath, err)
	}
	defer file.Close()

	if err := tmpl.ExecuteTemplate(file, templateName, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return nil
}
