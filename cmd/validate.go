package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chainsight/measures/pkg/measures"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var validatePaths []string

//nolint:gochecknoglobals // Cobra commands are typically global
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate measure definitions",
	Long: `Load all measure definitions, validate their structure, resolve
cross-measure references, and reject circular dependencies.`,
	RunE: runValidate,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed("log-level") {
			logger.SetLevel(logrus.ErrorLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringSliceVar(&validatePaths, "path", nil, "definition paths (overrides config)")
}

func loadRegistry(cmd *cobra.Command, paths []string) (*measures.Registry, error) {
	cmd.SilenceUsage = true

	config, err := LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if len(paths) > 0 {
		config.Measures.Paths = paths
	}

	return measures.Load(&config.Measures, logger)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	registry, err := loadRegistry(cmd, validatePaths)
	if err != nil {
		return err
	}

	fmt.Printf("✓ %d measures valid\n\n", registry.Len())

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tCOMPONENTS\tDEPENDENCIES")

	for _, m := range registry.GetAll() {
		deps := m.Dependencies()
		sort.Strings(deps)
		depCol := strings.Join(deps, ", ")
		if depCol == "" {
			depCol = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", m.Key, m.Name, len(m.Components), depCol)
	}

	return w.Flush()
}
