package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-monitoring-go/config"
	"github.com/lex00/wetwire-monitoring-go/internal/graph"
)

func newGraphCmd(g *globalOptions) *cobra.Command {
	var (
		outputFormat string
		cluster      bool
		hideOperands bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of the dashboard",
		Long: `Generate a DOT or Mermaid format graph of the dashboard: segments,
their widgets, the metrics each widget plots and the operands of metric
math expressions.

The output can be rendered with Graphviz:
    wetwire-monitoring graph | dot -Tpng -o dashboard.png

Or used in GitHub markdown (Mermaid format):
    wetwire-monitoring graph -f mermaid

Examples:
    wetwire-monitoring graph
    wetwire-monitoring graph --cluster          # cluster by segment
    wetwire-monitoring graph --hide-operands    # expressions only
    wetwire-monitoring graph -f mermaid         # mermaid format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var graphFormat graph.Format
			switch outputFormat {
			case "dot":
				graphFormat = graph.FormatDOT
			case "mermaid":
				graphFormat = graph.FormatMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			logger, err := g.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			assembled, err := cfg.Assemble(logger)
			if err != nil {
				return err
			}
			if assembled.Facade == nil {
				return fmt.Errorf("no dashboard configured in %s", g.configPath)
			}

			gen := &graph.Generator{
				Format:           graphFormat,
				ClusterBySegment: cluster,
				HideOperands:     hideOperands,
			}
			return gen.Generate(assembled.Facade.Segments(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVar(&cluster, "cluster", false, "Cluster widgets by dashboard segment")
	cmd.Flags().BoolVar(&hideOperands, "hide-operands", false, "Omit the operands of metric math expressions")

	return cmd
}
