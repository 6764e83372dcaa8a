package semindex

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver    string // "valkey", "redis" or "memory"
	addrs     []string
	password  string
	keyPrefix string

	embedder     Embedder
	providerName string
	model        string

	collections map[string][]string
	excluded    []string
	autoIndex   bool

	batchSize  int
	batchDelay time.Duration
	maxText    int
	minText    int

	logger *zap.Logger
}

// WithValkey stores documents in a Valkey instance.
func WithValkey(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithRedis stores documents in a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithMemory keeps documents in process memory.
func WithMemory() Option {
	return func(c *clientConfig) {
		c.driver = "memory"
		c.addrs = nil
	}
}

// WithKeyPrefix namespaces every stored key.
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithEmbedder installs the embedding provider. Without one, writes are
// stored unembedded and searches fail with ErrProviderNotConfigured.
func WithEmbedder(providerName, model string, e Embedder) Option {
	return func(c *clientConfig) {
		c.providerName = providerName
		c.model = model
		c.embedder = e
	}
}

// WithCollection declares a collection and the fields that feed its
// embeddings. No fields selects the default list.
func WithCollection(name string, fields ...string) Option {
	return func(c *clientConfig) {
		c.collections[name] = fields
	}
}

// WithExcluded marks collections that are stored but never embedded.
func WithExcluded(names ...string) Option {
	return func(c *clientConfig) {
		c.excluded = append(c.excluded, names...)
	}
}

// WithAutoIndex toggles embedding on write. Enabled by default.
func WithAutoIndex(enabled bool) Option {
	return func(c *clientConfig) {
		c.autoIndex = enabled
	}
}

// WithBatching sets the reindex batch group size and the pause between groups.
func WithBatching(size int, delay time.Duration) Option {
	return func(c *clientConfig) {
		c.batchSize = size
		c.batchDelay = delay
	}
}

// WithTextLimits overrides the normalized text bounds (8000 / 10 characters).
func WithTextLimits(maxLength, minLength int) Option {
	return func(c *clientConfig) {
		c.maxText = maxLength
		c.minText = minLength
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
