package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chainsight/measures/pkg/dataset"
	"github.com/chainsight/measures/pkg/engine"
	"github.com/chainsight/measures/pkg/measures"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	evalFixtures  string
	evalEntity    string
	evalDimension string
	evalYear      int
	evalMonth     int
)

//nolint:gochecknoglobals // Cobra commands are typically global
var evalCmd = &cobra.Command{
	Use:   "eval [measure keys...]",
	Short: "Evaluate measures against a context",
	Long: `Evaluate one or more measures against fixture datasets for a given
entity, dimension and period. With no keys, every registered measure is
evaluated.`,
	RunE: runEval,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed("log-level") {
			logger.SetLevel(logrus.ErrorLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)

	now := time.Now()
	evalCmd.Flags().StringVar(&evalFixtures, "fixtures", "", "dataset fixtures file (overrides config)")
	evalCmd.Flags().StringVar(&evalEntity, "entity", "", "entity identifier")
	evalCmd.Flags().StringVar(&evalDimension, "dimension", "", "dimension identifier")
	evalCmd.Flags().IntVar(&evalYear, "year", now.Year(), "period year")
	evalCmd.Flags().IntVar(&evalMonth, "month", int(now.Month()), "period month")
}

// newDatasetClient builds the dataset client from configuration, loading
// fixtures when configured and wrapping the client in the Redis cache when
// caching is enabled.
func newDatasetClient(config *Config, log *logrus.Logger) (dataset.Client, error) {
	var client dataset.Client
	var err error

	if config.Datasets.Fixtures != "" {
		client, err = dataset.LoadFile(config.Datasets.Fixtures, config.Datasets.Fields)
		if err != nil {
			return nil, err
		}
	} else {
		client = dataset.NewMemoryClient(nil, config.Datasets.Fields)
	}

	if !config.Datasets.Cache.Enabled {
		return client, nil
	}

	redisClient, err := newRedisClient(config.Datasets.Cache.URL)
	if err != nil {
		return nil, err
	}

	return dataset.NewCachedClient(client, redisClient, config.Datasets.Cache.TTL, log), nil
}

func runEval(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	config, err := LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	if evalFixtures != "" {
		config.Datasets.Fixtures = evalFixtures
	}

	registry, err := measures.Load(&config.Measures, logger)
	if err != nil {
		return err
	}

	client, err := newDatasetClient(config, logger)
	if err != nil {
		return err
	}

	keys := args
	if len(keys) == 0 {
		// No explicit keys: evaluate everything the tag selection keeps
		selected := measures.NewTagFilter(logger).Filter(registry.GetAll(), config.Measures.Tags)
		for _, m := range selected {
			keys = append(keys, m.Key)
		}
	}

	executor := engine.NewExecutor(registry, client, logger)
	results, err := executor.ExecuteBatch(cmd.Context(), keys, nil, &engine.Context{
		EntityID:    evalEntity,
		DimensionID: evalDimension,
		Year:        evalYear,
		Month:       evalMonth,
	})
	if err != nil {
		return err
	}

	resultKeys := make([]string, 0, len(results))
	for key := range results {
		resultKeys = append(resultKeys, key)
	}
	sort.Strings(resultKeys)

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "MEASURE\tVALUE")
	for _, key := range resultKeys {
		fmt.Fprintf(w, "%s\t%g\n", key, results[key])
	}

	return w.Flush()
}
