package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/config"
	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/logger"
	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/store"
	"github.com/HatiCode/latencyscaler/pkg/api"
	"github.com/HatiCode/latencyscaler/pkg/evaluate"
	"github.com/HatiCode/latencyscaler/pkg/metric"
)

func newMetricCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "metric",
		Short: "Measure request latency and print a metric snapshot",
		Long: `Reads the JSON definition of the scaled resource on stdin, runs one
measurement pass with the configured latency source and prints the snapshot
(current replicas and per-request statistics) as JSON on stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(cfg, cmd.ErrOrStderr())
			ctx := commandContext(cmd)

			resource, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read resource: %w", err)
			}

			tester, err := newLoadTester(cfg, log)
			if err != nil {
				return err
			}

			snapshot, err := metric.NewGatherer(tester).Get(ctx, resource)
			if err != nil {
				return err
			}
			log.Debug("metric gathered", "current_replicas", snapshot.CurrentReplicas, "requests", len(snapshot.Requests))

			return json.NewEncoder(cmd.OutOrStdout()).Encode(snapshot)
		},
	}
}

func newEvaluateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a metric snapshot and print the target replica count",
		Long: `Reads {"metrics":[{"value":"<snapshot json>"}],"run_type":"..."} on stdin,
evaluates the first snapshot against the evaluation config and prints
{"target_replicas":N} on stdout. The decay record is updated unless the run
type is api_dry_run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(cfg, cmd.ErrOrStderr())
			ctx := commandContext(cmd)

			evalCfg, err := evaluate.LoadConfig(cfg.EvaluationConfigPath)
			if err != nil {
				return err
			}

			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read evaluation request: %w", err)
			}
			req, err := api.DecodeEvaluateRequest(input)
			if err != nil {
				return err
			}
			snapshot, err := req.Snapshot()
			if err != nil {
				return err
			}

			provider, err := store.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer provider.Close()

			decayStore, err := provider.Default()
			if err != nil {
				return err
			}

			target, err := evaluate.New(evalCfg, decayStore, log).Evaluate(ctx, snapshot, evaluate.RunMode(req.RunType))
			if err != nil {
				return err
			}

			return json.NewEncoder(cmd.OutOrStdout()).Encode(api.EvaluateResponse{TargetReplicas: target})
		},
	}
}
