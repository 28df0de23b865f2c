package adapters

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/HatiCode/latencyscaler/pkg/metric"
)

// Endpoint identifies a request whose latency is read from an external system.
type Endpoint struct {
	Method string `yaml:"method"`
	Path   string `yaml:"path"`
}

// Key returns the snapshot key of the endpoint.
func (e Endpoint) Key() string { return metric.RequestKey(e.Method, e.Path) }

// Queries holds one PromQL template per latency statistic. Templates are
// rendered with an Endpoint, e.g.
//
//	histogram_quantile(0.5, sum by (le) (rate(http_request_duration_seconds_bucket{method="{{.Method}}",path="{{.Path}}"}[1m])))
type Queries struct {
	Avg    string
	Median string
	Max    string
}

// DefaultQueries target the conventional http_request_duration_seconds histogram.
var DefaultQueries = Queries{
	Avg: `sum(rate(http_request_duration_seconds_sum{method="{{.Method}}",path="{{.Path}}"}[1m]))` +
		` / sum(rate(http_request_duration_seconds_count{method="{{.Method}}",path="{{.Path}}"}[1m]))`,
	Median: `histogram_quantile(0.5, sum by (le) (rate(http_request_duration_seconds_bucket{method="{{.Method}}",path="{{.Path}}"}[1m])))`,
	Max:    `histogram_quantile(1, sum by (le) (rate(http_request_duration_seconds_bucket{method="{{.Method}}",path="{{.Path}}"}[1m])))`,
}

type compiledQueries struct {
	avg, median, max *template.Template
}

func (q Queries) compile() (*compiledQueries, error) {
	avg, err := template.New("avg").Parse(q.Avg)
	if err != nil {
		return nil, fmt.Errorf("parse avg query: %w", err)
	}
	median, err := template.New("median").Parse(q.Median)
	if err != nil {
		return nil, fmt.Errorf("parse median query: %w", err)
	}
	maxv, err := template.New("max").Parse(q.Max)
	if err != nil {
		return nil, fmt.Errorf("parse max query: %w", err)
	}
	return &compiledQueries{avg: avg, median: median, max: maxv}, nil
}

func render(t *template.Template, e Endpoint) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, e); err != nil {
		return "", fmt.Errorf("render %s query for %s: %w", t.Name(), e.Key(), err)
	}
	return buf.String(), nil
}
