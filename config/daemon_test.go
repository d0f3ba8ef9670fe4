package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDaemonConfigDefaultsWithoutPath(t *testing.T) {

	cfg, err := LoadDaemonConfig("")
	if err != nil {
		t.Fatal(err)
	}

	want := DefaultDaemonConfig()
	if cfg != want {
		t.Fatalf("expected defaults %+v, got %+v", want, cfg)
	}
}

func TestLoadDaemonConfigMissingFileFallsBackToDefaults(t *testing.T) {

	cfg, err := LoadDaemonConfig(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatal(err)
	}

	want := DefaultDaemonConfig()
	if cfg != want {
		t.Fatalf("expected defaults %+v, got %+v", want, cfg)
	}
}

func TestLoadDaemonConfigOverridesFromYaml(t *testing.T) {

	path := filepath.Join(t.TempDir(), "scriptd.yml")
	contents := "port: 9100\nkillGrace: 1s\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadDaemonConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9100 {
		t.Fatalf("expected port 9100, got %d", cfg.Port)
	}
	if cfg.KillGrace != time.Second {
		t.Fatalf("expected killGrace 1s, got %s", cfg.KillGrace)
	}
	// Unset fields still fall back to the defaults.
	if cfg.ReadyTimeout != DefaultDaemonConfig().ReadyTimeout {
		t.Fatalf("expected readyTimeout to keep its default, got %s", cfg.ReadyTimeout)
	}
}
