// Package adapters provides passive latency sources that read request
// statistics from external monitoring systems instead of generating load.
//
// Each source implements metric.LoadTester. Run is a no-op because the data is
// already being collected; Stats performs the actual queries.
package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"text/template"
	"time"

	"github.com/samber/lo"

	"github.com/HatiCode/latencyscaler/pkg/metric"
)

// PrometheusSource reads latency statistics from the Prometheus HTTP API.
// Every endpoint costs three /api/v1/query calls, one per statistic. The Max
// query may return several series (e.g. one per pod); the largest value wins.
// The Avg and Median queries must aggregate to a single series, since
// averages and medians of separate series cannot be combined.
type PrometheusSource struct {
	// ServerURL is the base URL to Prometheus, e.g. http://prometheus.monitoring.svc:9090
	ServerURL string
	Endpoints []Endpoint
	// Queries defaults to DefaultQueries when zero.
	Queries Queries
	// Scale converts query results to milliseconds. Defaults to 1000, which
	// suits histograms recorded in seconds.
	Scale float64
	// HTTPClient is optional; if nil a default client with timeout is used.
	HTTPClient *http.Client
}

var _ metric.LoadTester = (*PrometheusSource)(nil)

// Run implements metric.LoadTester. Prometheus is scraped continuously, so
// there is no measurement pass to execute.
func (p *PrometheusSource) Run(ctx context.Context) error {
	return ctx.Err()
}

// Stats implements metric.LoadTester. An endpoint for which Prometheus has no
// data is omitted from the result. It respects the provided context for
// cancellation and deadlines.
func (p *PrometheusSource) Stats(ctx context.Context) (map[string]metric.RequestStats, error) {
	if p.ServerURL == "" {
		return nil, errors.New("prometheus source: ServerURL is required")
	}

	queries := p.Queries
	if queries == (Queries{}) {
		queries = DefaultQueries
	}
	compiled, err := queries.compile()
	if err != nil {
		return nil, err
	}

	scale := p.Scale
	if scale <= 0 {
		scale = 1000
	}

	stats := make(map[string]metric.RequestStats, len(p.Endpoints))
	for _, e := range p.Endpoints {
		avg, okAvg, err := p.queryTemplate(ctx, compiled.avg, e, true)
		if err != nil {
			return nil, err
		}
		median, okMedian, err := p.queryTemplate(ctx, compiled.median, e, true)
		if err != nil {
			return nil, err
		}
		maxv, okMax, err := p.queryTemplate(ctx, compiled.max, e, false)
		if err != nil {
			return nil, err
		}
		if !okAvg || !okMedian || !okMax {
			continue
		}

		stats[e.Key()] = metric.RequestStats{
			AvgResponseTime:    avg * scale,
			MedianResponseTime: median * scale,
			MaxResponseTime:    maxv * scale,
		}
	}

	return stats, nil
}

// queryTemplate renders t for e and queries it. With single set, more than one
// series is an error; otherwise the largest value is returned. ok is false
// when no series carries a value.
func (p *PrometheusSource) queryTemplate(ctx context.Context, t *template.Template, e Endpoint, single bool) (float64, bool, error) {
	q, err := render(t, e)
	if err != nil {
		return 0, false, err
	}
	values, err := p.Query(ctx, q)
	if err != nil {
		return 0, false, err
	}
	if len(values) == 0 {
		return 0, false, nil
	}
	if single && len(values) > 1 {
		return 0, false, fmt.Errorf("%s query for %s returned %d series, want 1", t.Name(), e.Key(), len(values))
	}
	return lo.Max(values), true, nil
}

// Query evaluates an instant PromQL query and returns one value per series of
// the resulting vector. NaN values are dropped.
func (p *PrometheusSource) Query(ctx context.Context, query string) ([]float64, error) {
	u, err := url.Parse(p.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ServerURL: %w", err)
	}
	u = u.JoinPath("/api/v1/query")

	q := u.Query()
	q.Set("query", query)
	u.RawQuery = q.Encode()

	cli := p.HTTPClient
	if cli == nil {
		cli = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prometheus: status %d", resp.StatusCode)
	}

	var pr prometheusInstantResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode prometheus response: %w", err)
	}
	if pr.Status != "success" {
		return nil, fmt.Errorf("prometheus status: %s", pr.Status)
	}

	return vectorValues(pr.Data.Result)
}

type prometheusInstantResponse struct {
	Status string                `json:"status"`
	Data   prometheusInstantData `json:"data"`
}

type prometheusInstantData struct {
	ResultType string                  `json:"resultType"`
	Result     []prometheusVectorSerie `json:"result"`
}

type prometheusVectorSerie struct {
	Metric map[string]string `json:"metric"`
	// Value is [ <unix_time_float>, "<value_string>" ]
	Value []any `json:"value"`
}

func vectorValues(series []prometheusVectorSerie) ([]float64, error) {
	values := make([]float64, 0, len(series))
	for _, s := range series {
		if len(s.Value) != 2 {
			return nil, fmt.Errorf("invalid value pair length: %d", len(s.Value))
		}

		var val float64
		switch vv := s.Value[1].(type) {
		case string:
			f, err := strconv.ParseFloat(vv, 64)
			if err != nil {
				return nil, fmt.Errorf("parse value: %w", err)
			}
			val = f
		case float64:
			val = vv
		case json.Number:
			f, _ := vv.Float64()
			val = f
		default:
			return nil, fmt.Errorf("unexpected value type %T", vv)
		}

		// histogram_quantile yields NaN when no requests were observed
		if math.IsNaN(val) {
			continue
		}
		values = append(values, val)
	}
	return values, nil
}
