// Package config loads and validates the configuration a ups-engine host
// process needs to open sessions: where the network collaborator lives,
// which prover backend to sign with, default SDKey policy values, and
// logging. Adapted from node/config_loader.go's small hand-rolled
// TOML-like parser and section/merge conventions, repointed at this
// engine's own sections.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Config holds the full configuration for a ups-engine host process.
type Config struct {
	Network NetworkConfig
	Prover  ProverConfig
	Policy  PolicyConfig
	Log     LogConfig
}

// NetworkConfig points at the collaborator that serves checkpoints, user
// leaves, and contract metadata.
type NetworkConfig struct {
	Endpoint      string
	PollIntervalMs uint64
}

// ProverConfig selects and configures the SDKey signing backend.
type ProverConfig struct {
	// Backend is "mock" (deterministic, no real cryptography) or "blst"
	// (real BLS12-381, only available in a binary built with -tags blst).
	Backend   string
	SecretHex string
}

// PolicyConfig carries the SDKey policy defaults applied to a session when
// the caller does not supply its own.
type PolicyConfig struct {
	DailyLimit    uint64
	TimeLockUntil uint64
	Require2fa    bool
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// DefaultConfig returns a Config with sensible defaults: a mock prover
// backend and no policy defaults, suitable for local development.
func DefaultConfig() Config {
	return Config{
		Network: NetworkConfig{
			Endpoint:       "http://127.0.0.1:8645",
			PollIntervalMs: 2000,
		},
		Prover: ProverConfig{
			Backend: "mock",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.Network.Endpoint == "" {
		return errors.New("config: network endpoint must not be empty")
	}
	switch c.Prover.Backend {
	case "mock", "blst":
	default:
		return fmt.Errorf("config: unknown prover backend %q", c.Prover.Backend)
	}
	if c.Prover.Backend == "blst" && c.Prover.SecretHex == "" {
		return errors.New("config: prover secret must be set when backend is blst")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// Load parses a TOML-like configuration from raw bytes into a Config,
// starting from DefaultConfig and overriding only the keys present.
func Load(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	section := ""

	for lineNum, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || line[0] == '#' {
			continue
		}
		if line[0] == '[' {
			end := strings.Index(line, "]")
			if end < 0 {
				return nil, fmt.Errorf("line %d: unclosed section header", lineNum+1)
			}
			section = strings.TrimSpace(line[1:end])
			continue
		}

		eqIdx := strings.Index(line, "=")
		if eqIdx < 0 {
			return nil, fmt.Errorf("line %d: expected key = value", lineNum+1)
		}
		key := strings.TrimSpace(line[:eqIdx])
		val := strings.TrimSpace(line[eqIdx+1:])

		if err := applyValue(&cfg, section, key, val, lineNum+1); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func applyValue(cfg *Config, section, key, val string, lineNum int) error {
	switch section {
	case "network":
		return applyNetwork(cfg, key, val, lineNum)
	case "prover":
		return applyProver(cfg, key, val, lineNum)
	case "policy":
		return applyPolicy(cfg, key, val, lineNum)
	case "log":
		return applyLog(cfg, key, val, lineNum)
	default:
		return fmt.Errorf("line %d: unknown section [%s]", lineNum, section)
	}
}

func applyNetwork(cfg *Config, key, val string, lineNum int) error {
	switch key {
	case "endpoint":
		cfg.Network.Endpoint = unquote(val)
	case "poll_interval_ms":
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid poll_interval_ms: %w", lineNum, err)
		}
		cfg.Network.PollIntervalMs = n
	default:
		return fmt.Errorf("line %d: unknown key %q in [network]", lineNum, key)
	}
	return nil
}

func applyProver(cfg *Config, key, val string, lineNum int) error {
	switch key {
	case "backend":
		cfg.Prover.Backend = unquote(val)
	case "secret_hex":
		cfg.Prover.SecretHex = unquote(val)
	default:
		return fmt.Errorf("line %d: unknown key %q in [prover]", lineNum, key)
	}
	return nil
}

func applyPolicy(cfg *Config, key, val string, lineNum int) error {
	switch key {
	case "daily_limit":
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid daily_limit: %w", lineNum, err)
		}
		cfg.Policy.DailyLimit = n
	case "time_lock_until":
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid time_lock_until: %w", lineNum, err)
		}
		cfg.Policy.TimeLockUntil = n
	case "require_2fa":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("line %d: invalid require_2fa: %w", lineNum, err)
		}
		cfg.Policy.Require2fa = b
	default:
		return fmt.Errorf("line %d: unknown key %q in [policy]", lineNum, key)
	}
	return nil
}

func applyLog(cfg *Config, key, val string, lineNum int) error {
	switch key {
	case "level":
		cfg.Log.Level = unquote(val)
	case "format":
		cfg.Log.Format = unquote(val)
	default:
		return fmt.Errorf("line %d: unknown key %q in [log]", lineNum, key)
	}
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
