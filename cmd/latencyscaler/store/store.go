// Package store provides decay store initialization for latencyscaler.
//
// This package acts as a factory for decay.Store implementations based on the
// configuration. Three backends are supported:
//
//   - File: the record lives in a local file. The CLI modes use the single
//     file named by decayInfoFilePath; serve mode keeps one file per resource
//     under the decay directory.
//
//   - Memory: in-process records, one per resource. Lost on restart.
//
//   - Redis: one key per resource, shared by every latencyscaler replica.
//
// Initialization is fail-fast: the Redis backend is pinged before the
// provider is returned, and file records are created on first access.
//
// Usage:
//
//	provider, err := store.New(ctx, cfg, logger)
//	defer provider.Close()
//	s, err := provider.For("checkout-api")
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/config"
	"github.com/HatiCode/latencyscaler/pkg/decay"
)

// DefaultResource names the record used by the single-resource CLI modes.
const DefaultResource = "default"

// Provider hands out the decay store of each resource.
type Provider struct {
	kind     string
	filePath string
	dir      string
	prefix   string
	client   redis.UniversalClient
	logger   *slog.Logger

	mu     sync.Mutex
	memory map[string]*decay.MemoryStore
}

// New creates a provider for the configured backend.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Provider, error) {
	p := &Provider{
		kind:     cfg.Storage,
		filePath: cfg.DecayInfoFilePath,
		dir:      cfg.DecayDir,
		prefix:   cfg.RedisKeyPrefix,
		logger:   logger,
		memory:   make(map[string]*decay.MemoryStore),
	}

	switch cfg.Storage {
	case "redis":
		logger.Info("initializing redis decay storage",
			"addr", cfg.RedisAddr,
			"db", cfg.RedisDB,
			"prefix", cfg.RedisKeyPrefix,
		)
		p.client = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			_ = p.client.Close()
			return nil, fmt.Errorf("redis health check failed: %w", err)
		}
		logger.Info("redis decay storage initialized successfully")
	case "memory":
		logger.Info("initializing in-memory decay storage")
	case "file":
		logger.Debug("initializing file decay storage", "file", cfg.DecayInfoFilePath, "dir", cfg.DecayDir)
	default:
		return nil, fmt.Errorf("invalid storage type %q", cfg.Storage)
	}

	return p, nil
}

// Default returns the store of the single-resource CLI modes.
func (p *Provider) Default() (decay.Store, error) {
	if p.kind == "file" {
		return decay.NewFileStore(p.filePath)
	}
	return p.For(DefaultResource)
}

// For returns the store of resource. Resource names must be valid Kubernetes
// object names.
func (p *Provider) For(resource string) (decay.Store, error) {
	if errs := validation.IsDNS1123Subdomain(resource); len(errs) > 0 {
		return nil, fmt.Errorf("%w %q: %s", ErrInvalidResource, resource, strings.Join(errs, "; "))
	}

	switch p.kind {
	case "redis":
		return decay.NewRedisStore(p.client, p.prefix, resource), nil
	case "memory":
		p.mu.Lock()
		defer p.mu.Unlock()
		s, ok := p.memory[resource]
		if !ok {
			s = decay.NewMemoryStore()
			p.memory[resource] = s
		}
		return s, nil
	default:
		if err := os.MkdirAll(p.dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", decay.ErrStorageWrite, p.dir, err)
		}
		return decay.NewFileStore(filepath.Join(p.dir, resource+".json"))
	}
}

// Ping checks the backend is reachable. Only Redis can be unreachable.
func (p *Provider) Ping(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	return p.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool, if any.
func (p *Provider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
