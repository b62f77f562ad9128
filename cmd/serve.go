package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/chainsight/measures/pkg/api"
	"github.com/chainsight/measures/pkg/engine"
	"github.com/chainsight/measures/pkg/measures"
	"github.com/chainsight/measures/pkg/observability"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the measures evaluation service",
	Long: `Serve the diagnostic HTTP API and the Prometheus metrics endpoint.
When a reload schedule is configured, measure definitions are re-read on
that cron schedule and swapped in without interrupting in-flight batches.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return redis.NewClient(opts), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config, err := LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	logger.Info("Configuration loaded")

	registry, err := measures.Load(&config.Measures, logger)
	if err != nil {
		return err
	}
	logger.WithField("measures", registry.Len()).Info("Measure definitions loaded")

	client, err := newDatasetClient(config, logger)
	if err != nil {
		return err
	}

	executor := engine.NewExecutor(registry, client, logger)

	service := api.NewService(&config.API, executor, logger)
	if err := service.Start(cmd.Context()); err != nil {
		return err
	}

	if config.Metrics.Enabled {
		observability.StartMetricsServer(config.Metrics.Addr)
	}
	if config.Metrics.PProfAddr != nil {
		observability.StartPProfServer(*config.Metrics.PProfAddr)
	}

	var scheduler *cron.Cron
	if config.Reload.Schedule != "" {
		scheduler = cron.New()
		_, err = scheduler.AddFunc(config.Reload.Schedule, func() {
			reloaded, loadErr := measures.Load(&config.Measures, logger)
			if loadErr != nil {
				logger.WithError(loadErr).Error("Definition reload failed, keeping current registry")
				return
			}
			executor.ReplaceRegistry(reloaded)
			logger.WithField("measures", reloaded.Len()).Info("Measure definitions reloaded")
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		logger.WithField("schedule", config.Reload.Schedule).Info("Definition reload scheduled")
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	return service.Stop()
}
