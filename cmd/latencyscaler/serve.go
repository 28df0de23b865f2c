package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/config"
	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/logger"
	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/metrics"
	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/router"
	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/store"
	"github.com/HatiCode/latencyscaler/pkg/evaluate"
	"github.com/HatiCode/latencyscaler/pkg/httpx"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve evaluations over HTTP for many resources",
		Long: `Starts an HTTP server answering POST /evaluate?resource=<name> with the
evaluate payload, plus /healthz and /metrics, and a gRPC health service.
Each resource keeps its own decay record in the configured storage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(cfg, cmd.OutOrStdout())
			m := metrics.New()

			log.Info("starting latencyscaler",
				"listen", cfg.Listen,
				"grpc_listen", cfg.GRPCListen,
				"storage", cfg.Storage,
				"evaluation_config", cfg.EvaluationConfigPath,
			)

			evalCfg, err := evaluate.LoadConfig(cfg.EvaluationConfigPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			provider, err := store.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer provider.Close()

			check := func() error {
				pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return provider.Ping(pingCtx)
			}

			grpcServer := grpc.NewServer()

			healthServer := health.NewServer()
			grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
			healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

			reflection.Register(grpcServer)

			lis, err := net.Listen("tcp", cfg.GRPCListen)
			if err != nil {
				return err
			}

			evaluator := NewEvaluator(evalCfg, provider, log, m)
			httpServer := httpx.NewServer(cfg.Listen, router.SetupRoutes(evaluator, check, log), log)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("grpc server listening", "address", lis.Addr().String())
				return grpcServer.Serve(lis)
			})
			g.Go(httpServer.Start)
			g.Go(func() error {
				<-gctx.Done()
				log.Info("received shutdown signal")

				log.Info("shutting down grpc server")
				healthServer.Shutdown()
				grpcServer.GracefulStop()

				log.Info("shutting down http server")
				if err := httpServer.Stop(10 * time.Second); err != nil {
					log.Error("http server shutdown error", "error", err)
				}
				return nil
			})

			if err := g.Wait(); err != nil {
				log.Error("server failed", "error", err)
				return err
			}
			log.Info("shutdown complete")
			return nil
		},
	}
}
