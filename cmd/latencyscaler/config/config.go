// Package config provides configuration parsing and management for latencyscaler.
//
// It handles both command-line flags and environment variables, with flags taking
// precedence over environment variables. Environment variable names of the load
// test and file settings match the ones used by Custom Pod Autoscaler images
// (locustHost, decayInfoFilePath, ...), so existing deployments keep working.
//
// Supported configuration sources (in order of precedence):
//  1. Command-line flags
//  2. Environment variables
//  3. Default values
//
// Example usage:
//
//	cfg := config.New()
//	cfg.BindFlags(cmd.PersistentFlags())
//	// after flag parsing
//	err := cfg.Validate()
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"

	"github.com/HatiCode/latencyscaler/pkg/decay"
)

type Config struct {
	EvaluationConfigPath string `validate:"required"`
	DecayInfoFilePath    string
	DecayDir             string
	Storage              string `validate:"oneof=file memory redis"`
	RedisAddr            string `validate:"required_if=Storage redis"`
	RedisPassword        string
	RedisDB              int `validate:"gte=0"`
	RedisKeyPrefix       string

	Listen     string
	GRPCListen string

	MetricSource   string `validate:"oneof=loadtest prometheus"`
	LoadHost       string
	LoadRunTime    time.Duration
	LoadUsers      int
	LoadSpawnRate  int
	LoadScenario   string
	PromURL        string
	PromQueryAvg   string
	PromQueryMed   string
	PromQueryMax   string
	PromQueryScale float64

	LogFormat string `validate:"oneof=text json"`
	LogLevel  string
}

// New returns a Config populated from environment variables and defaults.
func New() *Config {
	return &Config{
		EvaluationConfigPath: getEnv("evaluationConfigFilePath", "/evaluation_config.yaml"),
		DecayInfoFilePath:    getEnv("decayInfoFilePath", "/decay_info.json"),
		DecayDir:             getEnv("DECAY_DIR", "/var/lib/latencyscaler"),
		Storage:              getEnv("DECAY_STORAGE", "file"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix:       getEnv("REDIS_KEY_PREFIX", decay.DefaultKeyPrefix),

		Listen:     getEnv("LISTEN", ":8080"),
		GRPCListen: getEnv("GRPC_LISTEN", ":50051"),

		MetricSource:   getEnv("METRIC_SOURCE", "loadtest"),
		LoadHost:       getEnv("locustHost", ""),
		LoadRunTime:    getEnvRunTime("locustRunTime", 20*time.Second),
		LoadUsers:      getEnvInt("locustUsers", 1),
		LoadSpawnRate:  getEnvInt("locustHatchRate", 1),
		LoadScenario:   getEnv("locustFilePath", "/loadtest.yaml"),
		PromURL:        getEnv("PROM_URL", "http://localhost:9090"),
		PromQueryAvg:   getEnv("PROM_QUERY_AVG", ""),
		PromQueryMed:   getEnv("PROM_QUERY_MEDIAN", ""),
		PromQueryMax:   getEnv("PROM_QUERY_MAX", ""),
		PromQueryScale: getEnvFloat("PROM_QUERY_SCALE", 1000),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
}

// BindFlags registers one flag per field, defaulting to the current value.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	// Evaluation and decay state
	fs.StringVar(&c.EvaluationConfigPath, "evaluation-config", c.EvaluationConfigPath, "Evaluation config YAML file")
	fs.StringVar(&c.DecayInfoFilePath, "decay-file", c.DecayInfoFilePath, "Decay record file (file storage, CLI modes)")
	fs.StringVar(&c.DecayDir, "decay-dir", c.DecayDir, "Directory of per-resource decay records (file storage, serve mode)")
	fs.StringVar(&c.Storage, "storage", c.Storage, "Decay storage backend (file|memory|redis)")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis address")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database")
	fs.StringVar(&c.RedisKeyPrefix, "redis-key-prefix", c.RedisKeyPrefix, "Redis key prefix of decay records")

	// Server
	fs.StringVar(&c.Listen, "listen", c.Listen, "HTTP listen address (serve mode)")
	fs.StringVar(&c.GRPCListen, "grpc-listen", c.GRPCListen, "gRPC health listen address (serve mode)")

	// Metric source
	fs.StringVar(&c.MetricSource, "metric-source", c.MetricSource, "Latency source (loadtest|prometheus)")
	fs.StringVar(&c.LoadHost, "load-host", c.LoadHost, "Base URL the load test targets")
	fs.DurationVar(&c.LoadRunTime, "load-run-time", c.LoadRunTime, "Duration of one load test pass")
	fs.IntVar(&c.LoadUsers, "load-users", c.LoadUsers, "Concurrent virtual users")
	fs.IntVar(&c.LoadSpawnRate, "load-spawn-rate", c.LoadSpawnRate, "Virtual users started per second")
	fs.StringVar(&c.LoadScenario, "load-scenario", c.LoadScenario, "Load test scenario YAML file")
	fs.StringVar(&c.PromURL, "prom-url", c.PromURL, "Prometheus URL")
	fs.StringVar(&c.PromQueryAvg, "prom-query-avg", c.PromQueryAvg, "PromQL template for mean latency")
	fs.StringVar(&c.PromQueryMed, "prom-query-median", c.PromQueryMed, "PromQL template for median latency")
	fs.StringVar(&c.PromQueryMax, "prom-query-max", c.PromQueryMax, "PromQL template for max latency")
	fs.Float64Var(&c.PromQueryScale, "prom-query-scale", c.PromQueryScale, "Multiplier converting query results to milliseconds")

	// Logging
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format (text|json)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug|info|warn|error)")
}

var validate = validator.New()

// Validate checks the settings shared by every mode.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ValidateLoadTest checks the settings needed by the loadtest metric source.
func (c *Config) ValidateLoadTest() error {
	if c.LoadHost == "" {
		return fmt.Errorf("invalid configuration: load host is required")
	}
	if c.LoadUsers <= 0 || c.LoadSpawnRate <= 0 {
		return fmt.Errorf("invalid configuration: load users and spawn rate must be > 0")
	}
	if c.LoadRunTime <= 0 {
		return fmt.Errorf("invalid configuration: load run time must be > 0")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvRunTime accepts a Go duration or a bare number of seconds.
func getEnvRunTime(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
