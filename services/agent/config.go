// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/GuerrillaFOSS/services/agent/capability"
)

// Config holds agent configuration options.
//
// Values can come from a YAML file, environment variables, or be set
// programmatically for testing. Precedence in cmd/agent is:
// flags > environment > config file > defaults.
type Config struct {
	// Port is the dashboard HTTP port. Default: 5000.
	Port int `yaml:"port"`

	// IntervalSeconds is the time between cycle starts. Default: 600.
	IntervalSeconds int `yaml:"interval_seconds"`

	// DemoMode forces every capability into demo mode.
	// Default: true, so the agent runs with zero configuration.
	DemoMode bool `yaml:"demo_mode"`

	// DemoSeed seeds the demo adapters and the internal strategist.
	// Zero means wall clock. Non-zero makes runs reproducible.
	DemoSeed int64 `yaml:"demo_seed"`

	// DataDir enables the persistent ledger archive when non-empty.
	DataDir string `yaml:"data_dir"`

	// MaxCycles bounds the run; zero means run until shutdown.
	MaxCycles int `yaml:"max_cycles"`

	// GinMode sets the Gin framework mode. Default: "release".
	GinMode string `yaml:"gin_mode"`

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Empty disables tracing export.
	OTelEndpoint string `yaml:"otel_endpoint"`

	// Credentials are never read from the config file, only from the
	// environment, so secrets stay out of checked-in YAML.
	Credentials capability.Credentials `yaml:"-"`
}

// DefaultConfig returns the zero-configuration demo setup.
func DefaultConfig() Config {
	return Config{
		Port:            5000,
		IntervalSeconds: 600,
		DemoMode:        true,
		GinMode:         "release",
	}
}

// FromEnv builds a Config from environment variables on top of defaults.
//
// Recognized variables: PORT, AGENT_INTERVAL_SECONDS, DEMO_MODE,
// AGENT_DATA_DIR, AGENT_MAX_CYCLES, GIN_MODE, OTEL_EXPORTER_OTLP_ENDPOINT,
// OPENAI_API_KEY, OPENAI_MODEL, SOCIAL_API_BASE_URL, SOCIAL_BEARER_TOKEN
// (TWITTER_BEARER_TOKEN accepted as an alias).
func FromEnv() Config {
	cfg := DefaultConfig()

	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.IntervalSeconds = getEnvInt("AGENT_INTERVAL_SECONDS", cfg.IntervalSeconds)
	cfg.MaxCycles = getEnvInt("AGENT_MAX_CYCLES", cfg.MaxCycles)
	cfg.DataDir = getEnvString("AGENT_DATA_DIR", cfg.DataDir)
	cfg.GinMode = getEnvString("GIN_MODE", cfg.GinMode)
	cfg.OTelEndpoint = getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTelEndpoint)

	if v := os.Getenv("DEMO_MODE"); v != "" {
		cfg.DemoMode = strings.EqualFold(v, "true") || v == "1"
	}

	cfg.Credentials = capability.Credentials{
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       os.Getenv("OPENAI_MODEL"),
		SocialAPIBaseURL:  os.Getenv("SOCIAL_API_BASE_URL"),
		SocialBearerToken: os.Getenv("SOCIAL_BEARER_TOKEN"),
	}
	if cfg.Credentials.SocialBearerToken == "" {
		cfg.Credentials.SocialBearerToken = os.Getenv("TWITTER_BEARER_TOKEN")
	}
	return cfg
}

// LoadFile overlays YAML settings from path onto cfg.
// Fields absent from the file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for startup-fatal inconsistencies.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &ConfigurationError{Reason: fmt.Sprintf("port %d out of range", c.Port)}
	}
	if c.IntervalSeconds < 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("interval_seconds %d must be non-negative", c.IntervalSeconds)}
	}
	if c.MaxCycles < 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("max_cycles %d must be non-negative", c.MaxCycles)}
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
