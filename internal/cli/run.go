package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/bndr/gotabulate"
	oasgen "github.com/erraggy/oastools/generator"
	"go.uber.org/zap"

	"github.com/blimu-dev/php-client-gen/pkg/generator"
	"github.com/blimu-dev/php-client-gen/pkg/ir"
)

type FallbackParams struct {
	Spec               string
	OutDir             string
	Namespace          string
	PackageName        string
	Name               string
	DefaultBaseURL     string
	IncludeTags        []string
	ExcludeTags        []string
	Tests              bool
	StrictOperationIDs bool
	Validate           bool
	Clean              bool
}

type RunGenerateParams struct {
	ConfigPath   string
	SingleClient string
	Fallback     FallbackParams
	// Quiet suppresses the summary table
	Quiet bool
	// FailOnWarnings turns any warning issue into a failed run
	FailOnWarnings bool
}

func RunValidate(ctx context.Context, out io.Writer, input string) error {
	if err := generator.ValidateSpec(ctx, input); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%s is a valid OpenAPI document\n", input)
	return err
}

func RunGenerate(ctx context.Context, out io.Writer, logger *zap.Logger, p RunGenerateParams) error {
	svc := generator.NewService(logger)
	results, err := svc.Generate(ctx, generator.GenerateOptions{
		ConfigPath:   p.ConfigPath,
		SingleClient: p.SingleClient,
		Fallback: generator.FallbackOptions{
			Spec:               p.Fallback.Spec,
			OutDir:             absPath(p.Fallback.OutDir),
			Namespace:          p.Fallback.Namespace,
			Name:               p.Fallback.Name,
			PackageName:        p.Fallback.PackageName,
			DefaultBaseURL:     p.Fallback.DefaultBaseURL,
			IncludeTags:        p.Fallback.IncludeTags,
			ExcludeTags:        p.Fallback.ExcludeTags,
			Tests:              p.Fallback.Tests,
			StrictOperationIDs: p.Fallback.StrictOperationIDs,
			Validate:           p.Fallback.Validate,
			Clean:              p.Fallback.Clean,
		},
	})
	if err != nil {
		return err
	}
	if !p.Quiet {
		for _, r := range results {
			if _, err := io.WriteString(out, Summary(r)); err != nil {
				return err
			}
		}
	}
	if n := CountIssues(results, oasgen.SeverityWarning); p.FailOnWarnings && n > 0 {
		return fmt.Errorf("%d warning(s) while compiling", n)
	}
	return nil
}

// Summary renders the classes of one generated client as a grid, followed by
// the issues met while compiling.
func Summary(r generator.Result) string {
	rows := [][]any{{"Client", r.IR.Client.ClassName, "-", "-"}}
	for _, cls := range r.IR.Classes() {
		props := "-"
		if cls.IsResource() {
			props = strconv.Itoa(len(cls.Properties))
		}
		rows = append(rows, []any{kindLabel(cls.Kind), cls.ClassName, strconv.Itoa(cls.Routes.Len()), props})
	}
	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"Kind", "Class", "Routes", "Properties"})
	t.SetAlign("left")

	s := fmt.Sprintf("%s -> %s\n%s", r.Client.Name, r.Client.OutDir, t.Render("grid"))
	if len(r.IR.Issues) > 0 {
		s += fmt.Sprintf("%d issue(s):\n", len(r.IR.Issues))
		for _, issue := range r.IR.Issues {
			s += "  " + issue.String() + "\n"
		}
	}
	return s
}

// CountIssues returns the number of issues with severity sev.
func CountIssues(results []generator.Result, sev oasgen.Severity) int {
	n := 0
	for _, r := range results {
		for _, issue := range r.IR.Issues {
			if issue.Severity == sev {
				n++
			}
		}
	}
	return n
}

func kindLabel(k ir.IRClassKind) string {
	switch k {
	case ir.IRClassManager:
		return "Manager"
	case ir.IRClassResource:
		return "Resource"
	default:
		return string(k)
	}
}
