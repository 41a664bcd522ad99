package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-monitoring-go/config"
)

func newInitCmd(g *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample stack file",
		Long: `Init writes a sample stack file monitoring one ALB-fronted Fargate
service, its top-caller insight rules and two log queries.

Examples:
    wetwire-monitoring init                  # Creates ./monitoring.yaml
    wetwire-monitoring init -c infra/api.yaml
    wetwire-monitoring init --force          # Overwrite an existing file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), g.configPath, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing stack file")

	return cmd
}

// runInit writes config.Sample to path.
func runInit(w io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("stack file already exists: %s", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(config.Sample), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(w, "Created %s\n", path)
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  wetwire-monitoring validate -c %s\n", path)
	fmt.Fprintf(w, "  wetwire-monitoring build -c %s -o monitoring.json\n", path)
	return nil
}
