package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{"CLIENT_PROJECT_ROOT", "DB_PATH_OVERRIDE", "HOST", "HTTP_STREAM_PORT", "DEBUG_LEVEL", "KUZUMEM_LOG_FILE"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != DefaultHost || cfg.HTTPPort != DefaultHTTPPort {
		t.Errorf("defaults: host=%q port=%d", cfg.Host, cfg.HTTPPort)
	}
	if cfg.DebugLevel != 1 {
		t.Errorf("default debug level = %d", cfg.DebugLevel)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("HTTP_STREAM_PORT", "9090")
	t.Setenv("DEBUG_LEVEL", "3")
	t.Setenv("CLIENT_PROJECT_ROOT", "/work/app")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.HTTPPort != 9090 {
		t.Errorf("env overrides: host=%q port=%d", cfg.Host, cfg.HTTPPort)
	}
	if cfg.DebugLevel != 3 || cfg.ClientProjectRoot != "/work/app" {
		t.Errorf("env overrides: debug=%d root=%q", cfg.DebugLevel, cfg.ClientProjectRoot)
	}
}

func TestLoadRejectsBadDebugLevel(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("DEBUG_LEVEL", "7")
	if _, err := Load(); err == nil {
		t.Error("DEBUG_LEVEL=7 accepted")
	}
}

func TestLoadRejectsRelativeDBOverride(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("DB_PATH_OVERRIDE", "relative/path")
	if _, err := Load(); err == nil {
		t.Error("relative DB_PATH_OVERRIDE accepted")
	}
}

func TestLoadReadsProjectConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".kuzumem"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "host: 127.0.0.1\nhttp_port: 8123\n"
	if err := os.WriteFile(filepath.Join(dir, ".kuzumem", "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	// A nested working directory exercises the walk-up search.
	nested := filepath.Join(dir, "sub", "deeper")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.HTTPPort != 8123 {
		t.Errorf("file config: host=%q port=%d", cfg.Host, cfg.HTTPPort)
	}
}
