// Package loadtest is a small HTTP load generator producing latency statistics
// for the decision engine.
//
// A Runner spawns virtual users at a fixed rate until the configured number is
// reached. Each user replays the scenario requests in order until the run time
// elapses. Response times are grouped per "{METHOD}_{path}" and summarised as
// mean, median and max in milliseconds.
package loadtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/HatiCode/latencyscaler/pkg/metric"
)

// Config holds the load parameters of a Runner.
type Config struct {
	// Host is the base URL requests are sent to, e.g. http://app.default.svc:8080
	Host string
	// Users is the number of concurrent virtual users.
	Users int
	// SpawnRate is how many users are started per second.
	SpawnRate int
	// RunTime is the length of one measurement pass.
	RunTime  time.Duration
	Scenario Scenario
	// HTTPClient is optional; if nil a client with a 10s timeout is used.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Runner implements metric.LoadTester.
type Runner struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger

	mu       sync.Mutex
	samples  map[string][]float64
	failures map[string]int
}

var _ metric.LoadTester = (*Runner)(nil)

// NewRunner validates cfg and returns a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Host == "" {
		return nil, errors.New("loadtest: host is required")
	}
	if _, err := url.Parse(cfg.Host); err != nil {
		return nil, fmt.Errorf("loadtest: invalid host: %w", err)
	}
	if cfg.Users <= 0 {
		return nil, fmt.Errorf("loadtest: users must be > 0, got %d", cfg.Users)
	}
	if cfg.SpawnRate <= 0 {
		return nil, fmt.Errorf("loadtest: spawn rate must be > 0, got %d", cfg.SpawnRate)
	}
	if cfg.RunTime <= 0 {
		return nil, fmt.Errorf("loadtest: run time must be > 0, got %s", cfg.RunTime)
	}
	if len(cfg.Scenario.Requests) == 0 {
		return nil, errors.New("loadtest: scenario has no requests")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		cfg:    cfg,
		client: client,
		logger: logger,
	}, nil
}

// Run executes one measurement pass. It blocks for the configured run time
// unless ctx is canceled first, in which case ctx.Err() is returned.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	r.samples = make(map[string][]float64)
	r.failures = make(map[string]int)
	r.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.RunTime)
	defer cancel()

	start := time.Now()
	g, gctx := errgroup.WithContext(runCtx)
	spawnEvery := time.Second / time.Duration(r.cfg.SpawnRate)

	spawn := time.NewTicker(spawnEvery)
	defer spawn.Stop()

spawnLoop:
	for i := 0; i < r.cfg.Users; i++ {
		if i > 0 {
			select {
			case <-gctx.Done():
				break spawnLoop
			case <-spawn.C:
			}
		}
		offset := i
		g.Go(func() error {
			r.user(gctx, offset)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.logger.Debug("load test pass complete",
		"host", r.cfg.Host,
		"users", r.cfg.Users,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// user replays the scenario until ctx is done. offset staggers the starting
// request so users do not hit the same endpoint in lockstep.
func (r *Runner) user(ctx context.Context, offset int) {
	reqs := r.cfg.Scenario.Requests
	for i := offset; ; i++ {
		if ctx.Err() != nil {
			return
		}
		req := reqs[i%len(reqs)]
		latency, err := r.do(ctx, req)
		if ctx.Err() != nil {
			// the pass ended mid-request, the sample is truncated
			return
		}
		r.record(metric.RequestKey(req.Method, req.Path), latency, err)
	}
}

func (r *Runner) do(ctx context.Context, req Request) (float64, error) {
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, strings.TrimRight(r.cfg.Host, "/")+req.Path, body)
	if err != nil {
		return 0, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return float64(time.Since(start).Microseconds()) / 1000, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	latency := float64(time.Since(start).Microseconds()) / 1000

	if resp.StatusCode >= http.StatusBadRequest {
		return latency, fmt.Errorf("status %d", resp.StatusCode)
	}
	return latency, nil
}

func (r *Runner) record(key string, latency float64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples[key] = append(r.samples[key], latency)
	if err != nil {
		r.failures[key]++
	}
}

// Stats summarises the samples of the last pass. Requests that never
// completed during the pass are absent from the result.
func (r *Runner) Stats(_ context.Context) (map[string]metric.RequestStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.samples == nil {
		return nil, errors.New("loadtest: no pass has been run")
	}

	stats := make(map[string]metric.RequestStats, len(r.samples))
	for key, samples := range r.samples {
		if len(samples) == 0 {
			continue
		}
		stats[key] = summarise(samples)
		if n := r.failures[key]; n > 0 {
			r.logger.Warn("requests failed during load test", "request", key, "failures", n, "total", len(samples))
		}
	}
	return stats, nil
}

func summarise(samples []float64) metric.RequestStats {
	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	return metric.RequestStats{
		AvgResponseTime:    lo.Sum(sorted) / float64(len(sorted)),
		MedianResponseTime: median(sorted),
		MaxResponseTime:    lo.Max(sorted),
	}
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
