package config

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Prover.Backend != "mock" {
		t.Errorf("Prover.Backend = %q, want mock", cfg.Prover.Backend)
	}
}

func TestValidateRejectsUnknownProverBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prover.Backend = "quantum"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unknown prover backend")
	}
}

func TestValidateRequiresSecretForBlstBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prover.Backend = "blst"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error when blst backend has no secret")
	}
	cfg.Prover.SecretHex = "deadbeef"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected config to validate once a secret is set: %v", err)
	}
}

func TestLoadFull(t *testing.T) {
	input := `
[network]
endpoint = "https://ups.example.com"
poll_interval_ms = 500

[prover]
backend = "blst"
secret_hex = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

[policy]
daily_limit = 100000
time_lock_until = 172800
require_2fa = true

[log]
level = "debug"
format = "json"
`
	cfg, err := Load([]byte(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network.Endpoint != "https://ups.example.com" {
		t.Errorf("Network.Endpoint = %q", cfg.Network.Endpoint)
	}
	if cfg.Network.PollIntervalMs != 500 {
		t.Errorf("Network.PollIntervalMs = %d, want 500", cfg.Network.PollIntervalMs)
	}
	if cfg.Prover.Backend != "blst" {
		t.Errorf("Prover.Backend = %q, want blst", cfg.Prover.Backend)
	}
	if cfg.Policy.DailyLimit != 100000 {
		t.Errorf("Policy.DailyLimit = %d, want 100000", cfg.Policy.DailyLimit)
	}
	if !cfg.Policy.Require2fa {
		t.Error("Policy.Require2fa should be true")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config should validate: %v", err)
	}
}

func TestLoadRejectsUnknownSection(t *testing.T) {
	if _, err := Load([]byte("[bogus]\nfoo = 1\n")); err == nil {
		t.Fatal("expected an error for an unknown section")
	}
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	if _, err := Load([]byte("[network]\nendpoint\n")); err == nil {
		t.Fatal("expected an error for a line missing '='")
	}
}
