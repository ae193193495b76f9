package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("unexpected default port: %s", cfg.Server.Port)
	}
	if cfg.Pipeline.MinRecording() != 500*time.Millisecond {
		t.Errorf("unexpected minimum recording: %v", cfg.Pipeline.MinRecording())
	}
	if cfg.Pipeline.MaxRecording() != time.Minute {
		t.Errorf("unexpected maximum recording: %v", cfg.Pipeline.MaxRecording())
	}
	if cfg.Pipeline.ErrorRecovery() != 2*time.Second {
		t.Errorf("unexpected error recovery: %v", cfg.Pipeline.ErrorRecovery())
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("LYRA_SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("expected env override, got %s", cfg.Server.Port)
	}
}
