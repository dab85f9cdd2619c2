package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	merrors "github.com/moneta/moneta/moneta/errors"
	"github.com/moneta/moneta/moneta/storage"
	"github.com/moneta/moneta/moneta/topic"
)

const (
	DefaultAddr                 = ":8080"
	DefaultSlowRequestThreshold = 3 * time.Second
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "json"
)

// DefaultIgnoredPrefixTokens match the HTTP search route /moneta/topic/...
var DefaultIgnoredPrefixTokens = []string{"moneta", "topic"}

// Config is the process configuration. It is read once at startup.
type Config struct {
	Server              ServerConfig                `yaml:"server"`
	Log                 LogConfig                   `yaml:"log"`
	IgnoredPrefixTokens []string                    `yaml:"ignoredPrefixTokens"`
	DataSources         map[string]DataSourceConfig `yaml:"dataSources"`
	Topics              []topic.Topic               `yaml:"topics"`
}

type ServerConfig struct {
	Addr                 string        `yaml:"addr"`
	ContextPath          string        `yaml:"contextPath"`
	SlowRequestThreshold time.Duration `yaml:"slowRequestThreshold"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

type DataSourceConfig struct {
	Backend      string `yaml:"backend"`
	DSN          string `yaml:"dsn"`
	Driver       string `yaml:"driver"`
	Schema       string `yaml:"schema"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, merrors.Wrap(merrors.ErrIO, "read config", err)
	}
	return Parse(b)
}

// Parse decodes a YAML document, applies defaults and validates it.
// Unknown keys are rejected.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, merrors.Wrap(merrors.ErrConfig, "invalid config YAML", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.SlowRequestThreshold == 0 {
		c.Server.SlowRequestThreshold = DefaultSlowRequestThreshold
	}
	// An explicit empty list disables prefix stripping.
	if c.IgnoredPrefixTokens == nil {
		c.IgnoredPrefixTokens = append([]string(nil), DefaultIgnoredPrefixTokens...)
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// Validate checks cross references between topics and data sources.
func (c *Config) Validate() error {
	if len(c.Topics) == 0 {
		return merrors.ConfigError("at least one topic is required")
	}
	for name, ds := range c.DataSources {
		if _, err := storage.ParseBackend(ds.Backend); err != nil {
			return merrors.ConfigError(fmt.Sprintf("data source %q: %v", name, err))
		}
		if ds.DSN == "" {
			return merrors.ConfigError(fmt.Sprintf("data source %q: dsn is required", name))
		}
	}
	for _, t := range c.Topics {
		if _, ok := c.DataSources[t.DataSource]; !ok {
			return merrors.ConfigError(fmt.Sprintf("topic %q: unknown data source %q", t.Name, t.DataSource))
		}
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return merrors.ConfigError(fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	if c.Server.SlowRequestThreshold < 0 {
		return merrors.ConfigError("server.slowRequestThreshold must not be negative")
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	return nil
}

// Registry builds the immutable topic registry.
func (c *Config) Registry() (*topic.Registry, error) {
	r, err := topic.NewRegistry(c.Topics, c.IgnoredPrefixTokens)
	if err != nil {
		return nil, merrors.Wrap(merrors.ErrConfig, "invalid topic configuration", err)
	}
	return r, nil
}

// StorageSpecs returns the data sources sorted by name.
func (c *Config) StorageSpecs() []storage.Spec {
	names := make([]string, 0, len(c.DataSources))
	for name := range c.DataSources {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]storage.Spec, 0, len(names))
	for _, name := range names {
		ds := c.DataSources[name]
		backend, _ := storage.ParseBackend(ds.Backend)
		specs = append(specs, storage.Spec{
			Name:    name,
			Backend: backend,
			DSN:     ds.DSN,
			Driver:  ds.Driver,
			Schema:  ds.Schema,
			Pool:    storage.Pool{MaxOpenConns: ds.MaxOpenConns, MaxIdleConns: ds.MaxIdleConns},
		})
	}
	return specs
}
