package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-monitoring-go"
	"github.com/lex00/wetwire-monitoring-go/config"
	"github.com/lex00/wetwire-monitoring-go/internal/template"
)

func newBuildCmd(g *globalOptions) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
		jsonResult   bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate CloudFormation template from the stack file",
		Long: `Build assembles the dashboard, insight rules and query definitions
described by the stack file and generates a CloudFormation template.

Examples:
    wetwire-monitoring build
    wetwire-monitoring build -o template.json
    wetwire-monitoring build --format yaml -c prod.yaml
    wetwire-monitoring build --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := g.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			result := buildStack(g.configPath, logger)
			if jsonResult {
				return outputBuildResult(cmd.OutOrStdout(), result)
			}
			return outputTemplate(cmd.OutOrStdout(), result, outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&jsonResult, "json", false, "Print the build result as JSON")

	return cmd
}

// buildStack loads the stack file and builds its template. Failures are
// reported in the result.
func buildStack(path string, logger *zap.Logger) wetwire.BuildResult {
	cfg, err := config.Load(path)
	if err != nil {
		return wetwire.BuildResult{Errors: []string{err.Error()}}
	}

	assembled, err := cfg.Assemble(logger)
	if err != nil {
		return wetwire.BuildResult{Errors: []string{err.Error()}}
	}

	tmpl, err := assembled.Stack.Build()
	if err != nil {
		return wetwire.BuildResult{Errors: []string{err.Error()}}
	}

	resourceNames := make([]string, 0, len(tmpl.Resources))
	for name := range tmpl.Resources {
		resourceNames = append(resourceNames, name)
	}
	sort.Strings(resourceNames)

	result := wetwire.BuildResult{
		Success:   true,
		Template:  *tmpl,
		Resources: resourceNames,
	}
	if d := assembled.Stack.Dashboard(); d != nil {
		result.Widgets = len(d.Widgets())
	}
	logger.Info("build complete",
		zap.String("config", path),
		zap.Int("resources", len(resourceNames)),
		zap.Int("widgets", result.Widgets))
	return result
}

func outputBuildResult(w io.Writer, result wetwire.BuildResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	if !result.Success {
		return fmt.Errorf("build failed")
	}
	return nil
}

func outputTemplate(w io.Writer, result wetwire.BuildResult, format, outputFile string) error {
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("build failed")
	}

	data, err := renderTemplate(&result.Template, format)
	if err != nil {
		return err
	}

	if outputFile == "" {
		fmt.Fprintln(w, string(data))
		return nil
	}
	return os.WriteFile(outputFile, data, 0644)
}

func renderTemplate(tmpl *wetwire.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return template.ToJSON(tmpl)
	case "yaml":
		return template.ToYAML(tmpl)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
