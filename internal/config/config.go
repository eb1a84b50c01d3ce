// Package config loads the aqlgraph YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Schema lists SDL files loaded as one schema.
	Schema    []string        `yaml:"schema"`
	Server    ServerConfig    `yaml:"server"`
	Arango    ArangoConfig    `yaml:"arango"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Listen         string        `yaml:"listen" default:":8080"`
	Timeout        time.Duration `yaml:"timeout" default:"10s"`
	MaxBodyBytes   int64         `yaml:"maxBodyBytes" default:"1048576"`
	Pretty         bool          `yaml:"pretty"`
	GraphiQL       bool          `yaml:"graphiql" default:"true"`
	CORSOrigins    []string      `yaml:"corsOrigins"`
	ContextHeaders []string      `yaml:"contextHeaders"`
}

type ArangoConfig struct {
	Endpoints      []string      `yaml:"endpoints" default:"[\"http://localhost:8529\"]"`
	Database       string        `yaml:"database" default:"_system"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	QueryTimeout   time.Duration `yaml:"queryTimeout" default:"10s"`
	ConnectTimeout time.Duration `yaml:"connectTimeout" default:"30s"`
	BatchSize      int           `yaml:"batchSize"`
}

type RuntimeConfig struct {
	MaxConcurrency int `yaml:"maxConcurrency" default:"8"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"auto"`
}

type TelemetryConfig struct {
	// OTLPEndpoint is a host:port of an OTLP gRPC collector; empty disables
	// tracing.
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	ServiceName  string `yaml:"serviceName" default:"aqlgraph"`
	Metrics      bool   `yaml:"metrics" default:"true"`
}

// Default returns a configuration holding only default values.
func Default() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		panic(err)
	}
	return c
}

// Load reads the file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML document over the defaults. Unknown keys are errors.
func Parse(b []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if len(c.Arango.Endpoints) == 0 {
		return errors.New("arango.endpoints must not be empty")
	}
	if c.Arango.Database == "" {
		return errors.New("arango.database must not be empty")
	}
	if c.Runtime.MaxConcurrency < 0 {
		return fmt.Errorf("runtime.maxConcurrency must not be negative, got %d", c.Runtime.MaxConcurrency)
	}
	return nil
}
