// Command wetwire-monitoring generates CloudWatch monitoring stacks from a
// stack file.
//
// Usage:
//
//	wetwire-monitoring init                    Write a sample monitoring.yaml
//	wetwire-monitoring build                   Generate CloudFormation template
//	wetwire-monitoring validate                Lint the generated template
//	wetwire-monitoring graph                   Graph the dashboard
//	wetwire-monitoring diff a.json b.json      Compare two templates
//	wetwire-monitoring watch                   Rebuild on stack file changes
//	wetwire-monitoring version                 Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-monitoring-go/config"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
}

// logger builds a development logger with --verbose and a production logger
// that only reports warnings otherwise.
func (g *globalOptions) logger() (*zap.Logger, error) {
	if g.verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "wetwire-monitoring",
		Short: "Generate CloudWatch monitoring stacks",
		Long: `wetwire-monitoring generates CloudFormation templates for CloudWatch
dashboards, Contributor Insights rules and Logs Insights query definitions.

Describe the services to monitor in a stack file:

    dashboard:
      name: api
    metricDefaults:
      namespace: Api
    services:
      - title: API
        service:
          clusterName: ${ClusterName}
          serviceName: ${Service.Name}

Then generate the template:

    wetwire-monitoring build -o monitoring.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", config.DefaultFileName, "Stack file")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newBuildCmd(g),
		newValidateCmd(g),
		newGraphCmd(g),
		newDiffCmd(),
		newWatchCmd(g),
		newInitCmd(g),
		newVersionCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wetwire-monitoring %s\n", getVersion())
		},
	}
}
