// Package router configures HTTP routes for serve mode.
//
// Routes configured:
//   - POST /evaluate?resource=<name> - Evaluate a metric snapshot for a resource
//   - GET /healthz - Health check endpoint (503 when the decay storage is unreachable)
//   - GET /metrics - Prometheus metrics endpoint
//
// Every route is wrapped with the httpx recovery and logging middleware.
package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/store"
	"github.com/HatiCode/latencyscaler/pkg/api"
	"github.com/HatiCode/latencyscaler/pkg/evaluate"
	"github.com/HatiCode/latencyscaler/pkg/httpx"
	"github.com/HatiCode/latencyscaler/pkg/metric"
)

const maxBodyBytes = 1 << 20

// Evaluator computes the target replica count of a resource.
type Evaluator interface {
	Evaluate(ctx context.Context, resource string, snapshot metric.Snapshot, mode evaluate.RunMode) (int, error)
}

// SetupRoutes configures HTTP routes for serve mode. check backs /healthz; nil
// means always healthy.
func SetupRoutes(evaluator Evaluator, check func() error, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /evaluate", evaluateHandler(evaluator, logger))

	if check != nil {
		mux.Handle("/healthz", httpx.HealthHandlerWithCheck(check))
	} else {
		mux.Handle("/healthz", httpx.HealthHandler())
	}

	mux.Handle("/metrics", promhttp.Handler())

	return httpx.RecoveryMiddleware(logger)(httpx.LoggingMiddleware(logger)(mux))
}

func evaluateHandler(evaluator Evaluator, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resource := r.URL.Query().Get("resource")
		if resource == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "resource query parameter is required")
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err)
			return
		}
		req, err := api.DecodeEvaluateRequest(body)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err)
			return
		}
		snapshot, err := req.Snapshot()
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err)
			return
		}

		target, err := evaluator.Evaluate(r.Context(), resource, snapshot, evaluate.RunMode(req.RunType))
		if err != nil {
			httpx.WriteError(w, statusFor(err), err)
			return
		}

		if err := httpx.WriteJSON(w, http.StatusOK, api.EvaluateResponse{TargetReplicas: target}); err != nil {
			logger.Error("failed to write response", "error", err)
		}
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidResource):
		return http.StatusBadRequest
	case errors.Is(err, evaluate.ErrConfigMismatch), errors.Is(err, evaluate.ErrUnknownTargetType):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
