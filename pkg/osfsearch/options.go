package osfsearch

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	engineBleve   = "bleve"
	engineElastic = "elastic"
)

type clientConfig struct {
	engine       string
	elasticAddrs []string
	elasticUser  string
	elasticPass  string
	blevePath    string

	redisAddrs    []string
	redisPassword string
	keyPrefix     string

	index        string
	gravatarSize int
	reindexRate  float64

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithElastic indexes into an Elasticsearch cluster.
func WithElastic(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.engine = engineElastic
		c.elasticAddrs = addrs
	})
}

// WithElasticAuth sets basic auth credentials for the cluster.
func WithElasticAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.elasticUser = username
		c.elasticPass = password
	})
}

// WithBleve indexes into bleve indexes stored under path.
func WithBleve(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.engine = engineBleve
		c.blevePath = path
	})
}

// WithBleveInMemory indexes into memory-only bleve indexes. This is the default.
func WithBleveInMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.engine = engineBleve
		c.blevePath = ""
	})
}

// WithRedis reads entities from Redis instead of process memory.
func WithRedis(password string, addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = addrs
		c.redisPassword = password
	})
}

// WithKeyPrefix namespaces entity keys in the store. Default: "osf:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithIndex sets the index name. Default: "website".
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithGravatarSize sets the avatar edge for contributor candidates. Default: 40.
func WithGravatarSize(px int) Option {
	return optionFunc(func(c *clientConfig) {
		c.gravatarSize = px
	})
}

// WithReindexRate caps index writes per second during Reindex. Default: 200.
func WithReindexRate(perSec float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.reindexRate = perSec
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
