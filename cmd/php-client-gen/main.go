package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cli "github.com/blimu-dev/php-client-gen/internal/cli"
	"github.com/blimu-dev/php-client-gen/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var logLevel, logFormat string
	var logger *zap.Logger
	flush := func() {}

	root := &cobra.Command{
		Use:           "php-client-gen",
		Short:         "Generate PHP API clients from OpenAPI 3 documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger, flush = logging.New(logging.Options{Level: logLevel, Format: logFormat})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")

	root.AddCommand(newGenerateCmd(func() *zap.Logger { return logger }))
	root.AddCommand(newValidateCmd())

	err := root.ExecuteContext(ctx)
	flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newGenerateCmd(logger func() *zap.Logger) *cobra.Command {
	var p cli.RunGenerateParams

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate PHP client libraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunGenerate(cmd.Context(), cmd.OutOrStdout(), logger(), p)
		},
	}

	cmd.Flags().StringVarP(&p.ConfigPath, "config", "c", "", "Path to phpclientgen.yaml config")
	cmd.Flags().StringVar(&p.SingleClient, "client", "", "Generate only the named client from config")
	cmd.Flags().BoolVarP(&p.Quiet, "quiet", "q", false, "Do not print the summary table")
	cmd.Flags().BoolVar(&p.FailOnWarnings, "fail-on-warnings", false, "Exit with an error when compiling reports warnings")
	// Fallback single-client flags
	cmd.Flags().StringVar(&p.Fallback.Spec, "input", "", "OpenAPI spec file or URL (yaml/json)")
	cmd.Flags().StringVar(&p.Fallback.OutDir, "out", "", "Output directory")
	cmd.Flags().StringVar(&p.Fallback.Namespace, "namespace", "", `Root PHP namespace, e.g. Acme\Pets`)
	cmd.Flags().StringVar(&p.Fallback.Name, "client-name", "", "Client class prefix (Pets generates PetsClient)")
	cmd.Flags().StringVar(&p.Fallback.PackageName, "package-name", "", "Composer package name")
	cmd.Flags().StringVar(&p.Fallback.DefaultBaseURL, "base-url", "", "Override the first server URL")
	cmd.Flags().StringArrayVar(&p.Fallback.IncludeTags, "include-tags", nil, "Regex patterns for tags to include")
	cmd.Flags().StringArrayVar(&p.Fallback.ExcludeTags, "exclude-tags", nil, "Regex patterns for tags to exclude")
	cmd.Flags().BoolVar(&p.Fallback.Tests, "tests", false, "Emit PHPUnit test skeletons")
	cmd.Flags().BoolVar(&p.Fallback.StrictOperationIDs, "strict", false, "Fail on duplicate operationIds within a class")
	cmd.Flags().BoolVar(&p.Fallback.Validate, "validate", false, "Validate the document before generating")
	cmd.Flags().BoolVar(&p.Fallback.Clean, "clean", false, "Empty the output directory before generating, keeping excluded paths")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an OpenAPI spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunValidate(cmd.Context(), cmd.OutOrStdout(), input)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "OpenAPI spec file or URL (yaml/json)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
