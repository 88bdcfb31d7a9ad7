package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bus.Servers[0] != "nats://localhost:4222" {
		t.Fatalf("expected default server, got %v", cfg.Bus.Servers)
	}
	if cfg.Speech.ChunkSize != 2000 {
		t.Fatalf("expected default chunk size 2000, got %d", cfg.Speech.ChunkSize)
	}
	if cfg.Speech.SampleRate != 24000 {
		t.Fatalf("expected default sample rate 24000, got %d", cfg.Speech.SampleRate)
	}
	if cfg.ActivityLog.RetentionMode != "ephemeral" {
		t.Fatalf("expected ephemeral activity log, got %s", cfg.ActivityLog.RetentionMode)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VIDPLAN_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("VIDPLAN_SPEECH_MODE", "http")
	t.Setenv("VIDPLAN_SPEECH_ENDPOINT", "https://speech.example.com")
	t.Setenv("VIDPLAN_SPEECH_CHUNK_SIZE", "1500")
	t.Setenv("VIDPLAN_SPEECH_MAX_CONCURRENT", "2")
	t.Setenv("VIDPLAN_SPEECH_PREMIUM_ENABLED", "true")
	t.Setenv("VIDPLAN_SPEECH_PREMIUM_ENDPOINT", "https://premium.example.com")
	t.Setenv("VIDPLAN_SPEECH_PREMIUM_API_KEY", "secret")
	t.Setenv("VIDPLAN_SPEECH_PREMIUM_STABILITY", "0.6")
	t.Setenv("VIDPLAN_LLM_MODE", "openai")
	t.Setenv("VIDPLAN_LLM_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Speech.Mode != "http" || cfg.Speech.Endpoint != "https://speech.example.com" {
		t.Fatalf("expected speech overrides, got %+v", cfg.Speech)
	}
	if cfg.Speech.ChunkSize != 1500 {
		t.Fatalf("expected chunk size override, got %d", cfg.Speech.ChunkSize)
	}
	if cfg.Speech.MaxConcurrent != 2 {
		t.Fatalf("expected max concurrent override, got %d", cfg.Speech.MaxConcurrent)
	}
	if !cfg.Speech.Premium.Enabled || cfg.Speech.Premium.APIKey != "secret" {
		t.Fatalf("expected premium overrides, got %+v", cfg.Speech.Premium)
	}
	if cfg.Speech.Premium.Stability != 0.6 {
		t.Fatalf("expected stability override, got %f", cfg.Speech.Premium.Stability)
	}
	if cfg.LLM.Mode != "openai" || cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("expected llm overrides, got %+v", cfg.LLM)
	}
}

func TestValidateRejectsBadModes(t *testing.T) {
	t.Setenv("VIDPLAN_SPEECH_MODE", "carrier-pigeon")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown speech mode")
	}
}

func TestValidateRequiresPremiumCredentials(t *testing.T) {
	t.Setenv("VIDPLAN_SPEECH_PREMIUM_ENABLED", "true")
	t.Setenv("VIDPLAN_SPEECH_PREMIUM_API_KEY", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for premium without api key")
	}
}
