package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-monitoring-go"
	"github.com/lex00/wetwire-monitoring-go/config"
	"github.com/lex00/wetwire-monitoring-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand for checking the generated template.
func newValidateCmd(g *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the stack file and lint the generated template",
		Long: `Validate builds the stack described by the stack file and checks it.

Checks performed:
  - Stack file: required fields and duplicate parameters
  - Builders: metric references, math operands, rules and queries
  - Placeholders: every ${Name} names a parameter or resource
  - cfn-lint: the generated CloudFormation template

Examples:
    wetwire-monitoring validate
    wetwire-monitoring validate -c prod.yaml --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := g.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			result, err := validateStack(g.configPath, logger)
			if err != nil {
				return err
			}
			return outputValidateResult(cmd.OutOrStdout(), *result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

// validateStack reports stack file and build failures in the result; the
// error is reserved for failures of the linter itself.
func validateStack(path string, logger *zap.Logger) (*wetwire.ValidateResult, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return &wetwire.ValidateResult{Errors: []string{err.Error()}}, nil
	}

	assembled, err := cfg.Assemble(logger)
	if err != nil {
		return &wetwire.ValidateResult{Errors: []string{err.Error()}}, nil
	}

	result, err := validation.ValidateStack(assembled.Stack)
	if err != nil {
		return nil, err
	}
	logger.Info("validation complete",
		zap.String("config", path),
		zap.Bool("success", result.Success),
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

func outputValidateResult(w io.Writer, result wetwire.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources, %d widgets OK\n", result.Resources, result.Widgets)
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Fprintln(w, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return fmt.Errorf("validation failed")
	}
	return nil
}
