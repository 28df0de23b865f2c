package main

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/config"
	"github.com/HatiCode/latencyscaler/pkg/adapters"
	"github.com/HatiCode/latencyscaler/pkg/evaluate"
	"github.com/HatiCode/latencyscaler/pkg/loadtest"
	"github.com/HatiCode/latencyscaler/pkg/metric"
)

func newRootCmd() *cobra.Command {
	cfg := config.New()

	root := &cobra.Command{
		Use:   "latencyscaler",
		Short: "latencyscaler scales a workload on observed request latency",
		Long: `latencyscaler compares measured response times against per-request targets
and returns the replica count a workload should run. It plugs into a Custom Pod
Autoscaler through the metric and evaluate commands, or runs as a service.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Validate()
		},
	}
	cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newMetricCmd(cfg),
		newEvaluateCmd(cfg),
		newServeCmd(cfg),
	)
	return root
}

// newLoadTester builds the latency source selected by cfg.MetricSource.
func newLoadTester(cfg *config.Config, logger *slog.Logger) (metric.LoadTester, error) {
	switch cfg.MetricSource {
	case "prometheus":
		evalCfg, err := evaluate.LoadConfig(cfg.EvaluationConfigPath)
		if err != nil {
			return nil, err
		}
		endpoints := lo.UniqBy(lo.Map(evalCfg.Targets, func(t evaluate.Target, _ int) adapters.Endpoint {
			return adapters.Endpoint{Method: t.Method, Path: t.Endpoint}
		}), adapters.Endpoint.Key)

		queries := adapters.Queries{
			Avg:    lo.Ternary(cfg.PromQueryAvg != "", cfg.PromQueryAvg, adapters.DefaultQueries.Avg),
			Median: lo.Ternary(cfg.PromQueryMed != "", cfg.PromQueryMed, adapters.DefaultQueries.Median),
			Max:    lo.Ternary(cfg.PromQueryMax != "", cfg.PromQueryMax, adapters.DefaultQueries.Max),
		}

		logger.Debug("using prometheus latency source", "url", cfg.PromURL, "endpoints", len(endpoints))
		return &adapters.PrometheusSource{
			ServerURL: cfg.PromURL,
			Endpoints: endpoints,
			Queries:   queries,
			Scale:     cfg.PromQueryScale,
		}, nil
	default:
		if err := cfg.ValidateLoadTest(); err != nil {
			return nil, err
		}
		scenario, err := loadtest.LoadScenario(cfg.LoadScenario)
		if err != nil {
			return nil, err
		}

		logger.Debug("using load test latency source",
			"host", cfg.LoadHost,
			"users", cfg.LoadUsers,
			"spawn_rate", cfg.LoadSpawnRate,
			"run_time", cfg.LoadRunTime,
		)
		return loadtest.NewRunner(loadtest.Config{
			Host:      cfg.LoadHost,
			Users:     cfg.LoadUsers,
			SpawnRate: cfg.LoadSpawnRate,
			RunTime:   cfg.LoadRunTime,
			Scenario:  *scenario,
			Logger:    logger,
		})
	}
}

// commandContext returns the command context, falling back to Background for
// commands executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
