// Copyright 2026 Dominik Schlosser
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads sandbox-viper configuration.
//
// Configuration comes from a single YAML file named by the --config flag or
// the SANDBOX_VIPER_CONFIG environment variable. There is no discovery;
// with neither set, Default() applies.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "SANDBOX_VIPER_CONFIG"

type Config struct {
	Server ServerConfig `yaml:"server"`
	Schema SchemaConfig `yaml:"schema"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures "serve".
type ServerConfig struct {
	// Addr is the listen address. Default: :8080
	Addr string `yaml:"addr"`

	// DecodeTimeout bounds a single decode request, including schema
	// fetches. Default: 10s
	DecodeTimeout time.Duration `yaml:"decode_timeout"`
}

// SchemaConfig configures HCERT schema validation.
type SchemaConfig struct {
	// Validation is one of off, soft, strict. Default: off
	Validation string `yaml:"validation"`

	// SchemaURL is the combined schema location with a {ref} placeholder.
	SchemaURL string `yaml:"schema_url"`

	// ValueSetURL is the value-set location with {ref} and {uri}
	// placeholders.
	ValueSetURL string `yaml:"valueset_url"`

	// TTL is how long fetched documents stay cached. Default: 1h
	TTL time.Duration `yaml:"ttl"`

	// FetchTimeout bounds one remote fetch. Default: 15s
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

type LogConfig struct {
	// Level is debug, info, warn or error. Default: info
	Level string `yaml:"level"`

	// Format is text or json. Default: text
	Format string `yaml:"format"`
}

var (
	validationValues = []string{"off", "soft", "strict"}
	levelValues      = []string{"debug", "info", "warn", "error"}
	formatValues     = []string{"text", "json"}
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":8080",
			DecodeTimeout: 10 * time.Second,
		},
		Schema: SchemaConfig{
			Validation:   "off",
			TTL:          time.Hour,
			FetchTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the file named by path, or by SANDBOX_VIPER_CONFIG when path
// is empty. With neither set it returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads and validates a YAML config file. Fields absent from the
// file keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr is required"))
	}
	if c.Server.DecodeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.decode_timeout must be positive"))
	}
	if !slices.Contains(validationValues, c.Schema.Validation) {
		errs = append(errs, fmt.Errorf("schema.validation must be one of: %v", validationValues))
	}
	if c.Schema.TTL <= 0 {
		errs = append(errs, fmt.Errorf("schema.ttl must be positive"))
	}
	if c.Schema.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("schema.fetch_timeout must be positive"))
	}
	if !slices.Contains(levelValues, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levelValues))
	}
	if !slices.Contains(formatValues, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formatValues))
	}

	return errors.Join(errs...)
}
