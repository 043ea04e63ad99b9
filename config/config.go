// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package config loads crossglc configuration.
//
// Configuration comes from a single YAML file named by the --config flag
// or the CROSSGL_CONFIG environment variable. There is no discovery and no
// environment override of individual values; the only expansion is
// ${VAR} and ${VAR:-default} in path fields.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/crossgl/artifact"
	"github.com/gogpu/crossgl/profile"
)

// EnvVar names the environment variable holding the config path.
const EnvVar = "CROSSGL_CONFIG"

// Config is the crossglc configuration.
type Config struct {
	Target    TargetConfig    `yaml:"target"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Cache     CacheConfig     `yaml:"cache"`
	Policy    PolicyConfig    `yaml:"policy"`
	Log       LogConfig       `yaml:"log"`
}

// TargetConfig is the default capability descriptor.
type TargetConfig struct {
	// Family is "desktop" or "mobile".
	Family string `yaml:"family"`

	// Profile is the minimum feature level, e.g. "9_3" or "10_0".
	Profile string `yaml:"profile"`

	// RenderTargets is the pixel stage output count.
	RenderTargets int `yaml:"render_targets"`
}

// OptimizerConfig selects the external optimizer.
type OptimizerConfig struct {
	Enabled bool `yaml:"enabled"`

	// Binary is the optimizer executable, resolved through PATH when
	// not absolute.
	Binary string `yaml:"binary"`

	// Args are passed before the per-pass arguments.
	Args []string `yaml:"args"`
}

// CacheConfig configures the artifact cache.
type CacheConfig struct {
	// Dir is the store root. Empty disables the cache.
	Dir string `yaml:"dir"`

	// Compression is "none", "lz4" or "zstd".
	Compression string `yaml:"compression"`
}

// PolicyConfig holds diagnostics policy.
type PolicyConfig struct {
	// RenderTargets is "warn" or "error": how a multi-render-target
	// request on the legacy mobile tier is reported.
	RenderTargets string `yaml:"render_targets"`

	// UniformBlocks requests the uniform block extension on ES 3.00.
	UniformBlocks bool `yaml:"uniform_blocks"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Target: TargetConfig{
			Family:        "desktop",
			Profile:       "10_0",
			RenderTargets: 1,
		},
		Optimizer: OptimizerConfig{
			Enabled: false,
			Binary:  "glsl-optimizer",
		},
		Cache: CacheConfig{
			Dir:         "",
			Compression: "zstd",
		},
		Policy: PolicyConfig{
			RenderTargets: "warn",
			UniformBlocks: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads the file named by CROSSGL_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your crossgl.yaml or use --config", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path, layered over Default. Unknown
// keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration layered over Default and expands path
// variables.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Cache.Dir = expandVars(c.Cache.Dir, vars)
	c.Optimizer.Binary = expandVars(c.Optimizer.Binary, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. vars take precedence
// over the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Descriptor(); err != nil {
		errs = append(errs, err)
	}
	if c.Target.RenderTargets < 1 {
		errs = append(errs, fmt.Errorf("target.render_targets must be at least 1, got %d", c.Target.RenderTargets))
	}
	if c.Optimizer.Enabled && c.Optimizer.Binary == "" {
		errs = append(errs, errors.New("optimizer.binary is required when optimizer.enabled is set"))
	}
	if _, err := artifact.ParseCompression(c.Cache.Compression); err != nil {
		errs = append(errs, fmt.Errorf("cache.compression: %w", err))
	}
	switch c.Policy.RenderTargets {
	case "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("policy.render_targets must be one of: [warn error], got %q", c.Policy.RenderTargets))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// Descriptor returns the configured capability descriptor.
func (c *Config) Descriptor() (profile.Descriptor, error) {
	family, err := profile.ParseFamily(c.Target.Family)
	if err != nil {
		return profile.Descriptor{}, fmt.Errorf("target.family: %w", err)
	}
	level, err := profile.ParseLevel(c.Target.Profile)
	if err != nil {
		return profile.Descriptor{}, fmt.Errorf("target.profile: %w", err)
	}
	return profile.Descriptor{Family: family, Level: level}, nil
}

// Compression returns the configured cache compression.
func (c *Config) Compression() (artifact.Compression, error) {
	return artifact.ParseCompression(c.Cache.Compression)
}

// StrictRenderTargets reports whether the render target policy is fatal.
func (c *Config) StrictRenderTargets() bool {
	return c.Policy.RenderTargets == "error"
}

// ParseLevel maps a level name to an slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}
