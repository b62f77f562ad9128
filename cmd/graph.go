package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chainsight/measures/pkg/measures"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var graphPaths []string

//nolint:gochecknoglobals // Cobra commands are typically global
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show the measure dependency graph",
	Long: `Print the dependency graph of all loaded measures in evaluation
order, grouped by level. Measures within a level are independent of each
other and depend only on earlier levels.`,
	RunE: runGraph,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed("log-level") {
			logger.SetLevel(logrus.ErrorLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSliceVar(&graphPaths, "path", nil, "definition paths (overrides config)")
}

func runGraph(cmd *cobra.Command, _ []string) error {
	registry, err := loadRegistry(cmd, graphPaths)
	if err != nil {
		return err
	}

	graph, err := registry.BuildDependencyGraph(registry.Keys())
	if err != nil {
		return err
	}

	order, err := measures.TopologicalSort(graph)
	if err != nil {
		return err
	}

	for i, level := range measures.GroupByLevel(graph, order) {
		fmt.Printf("Level %d:\n", i+1)
		for _, key := range level {
			deps := graph[key]
			if len(deps) == 0 {
				fmt.Printf("  %s\n", key)
				continue
			}
			fmt.Printf("  %s <- %s\n", key, strings.Join(deps, ", "))
		}
	}

	return nil
}
