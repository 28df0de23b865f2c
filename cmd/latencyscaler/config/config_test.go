package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.EvaluationConfigPath != "/evaluation_config.yaml" {
		t.Errorf("EvaluationConfigPath = %q, want %q", cfg.EvaluationConfigPath, "/evaluation_config.yaml")
	}
	if cfg.DecayInfoFilePath != "/decay_info.json" {
		t.Errorf("DecayInfoFilePath = %q, want %q", cfg.DecayInfoFilePath, "/decay_info.json")
	}
	if cfg.Storage != "file" {
		t.Errorf("Storage = %q, want %q", cfg.Storage, "file")
	}
	if cfg.LoadRunTime != 20*time.Second {
		t.Errorf("LoadRunTime = %v, want 20s", cfg.LoadRunTime)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "text")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("DECAY_STORAGE", "memory")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := New()
	if cfg.Storage != "memory" {
		t.Fatalf("Storage = %q, want env value %q", cfg.Storage, "memory")
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	err := fs.Parse([]string{
		"--storage=redis",
		"--redis-addr=redis:6379",
		"--redis-db=2",
		"--load-run-time=1m",
		"--log-format=json",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Storage != "redis" {
		t.Errorf("Storage = %q, want %q", cfg.Storage, "redis")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("RedisAddr = %q, want %q", cfg.RedisAddr, "redis:6379")
	}
	if cfg.RedisDB != 2 {
		t.Errorf("RedisDB = %d, want 2", cfg.RedisDB)
	}
	if cfg.LoadRunTime != time.Minute {
		t.Errorf("LoadRunTime = %v, want 1m", cfg.LoadRunTime)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want env value %q", cfg.LogLevel, "warn")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage = "s3" }, wantErr: true},
		{name: "redis without addr", mutate: func(c *Config) { c.Storage = "redis"; c.RedisAddr = "" }, wantErr: true},
		{name: "unknown metric source", mutate: func(c *Config) { c.MetricSource = "jmeter" }, wantErr: true},
		{name: "unknown log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "missing evaluation config", mutate: func(c *Config) { c.EvaluationConfigPath = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateLoadTest(t *testing.T) {
	cfg := New()
	cfg.LoadHost = ""
	if err := cfg.ValidateLoadTest(); err == nil {
		t.Error("expected error without load host")
	}

	cfg.LoadHost = "http://app:8080"
	if err := cfg.ValidateLoadTest(); err != nil {
		t.Errorf("ValidateLoadTest() error = %v", err)
	}

	cfg.LoadUsers = 0
	if err := cfg.ValidateLoadTest(); err == nil {
		t.Error("expected error with zero users")
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{name: "valid integer", key: "TEST_INT", defaultValue: 10, envValue: "42", want: 42},
		{name: "invalid integer", key: "TEST_INT", defaultValue: 10, envValue: "not-a-number", want: 10},
		{name: "not set", key: "NONEXISTENT_INT", defaultValue: 99, want: 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			if got := getEnvInt(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEnvRunTime(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     time.Duration
	}{
		{name: "bare seconds", envValue: "45", want: 45 * time.Second},
		{name: "go duration", envValue: "2m", want: 2 * time.Minute},
		{name: "invalid", envValue: "soon", want: 20 * time.Second},
		{name: "not set", envValue: "", want: 20 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_RUN_TIME", tt.envValue)

			if got := getEnvRunTime("TEST_RUN_TIME", 20*time.Second); got != tt.want {
				t.Errorf("getEnvRunTime() = %v, want %v", got, tt.want)
			}
		})
	}
}
