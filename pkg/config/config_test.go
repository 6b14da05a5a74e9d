package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate points the loader at a .env file that does not exist and clears
// every variable Load reads.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("RAYTRACER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for _, key := range []string{
		"RAYTRACER_OUTPUT_DIR", "RAYTRACER_WORKERS", "RAYTRACER_TILE_SIZE", "RAYTRACER_ENVMAP",
		"RAYTRACER_ENVMAP_MAX_WIDTH", "RAYTRACER_PORT", "S3_ENDPOINT", "S3_REGION", "S3_BUCKET",
		"S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_PREFIX",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.OutputDir != "output" {
		t.Errorf("Expected output dir 'output', got %q", cfg.OutputDir)
	}
	if cfg.NumWorkers != 0 || cfg.TileSize != 64 || cfg.Port != 8080 {
		t.Errorf("Unexpected numeric defaults: workers=%d tile=%d port=%d", cfg.NumWorkers, cfg.TileSize, cfg.Port)
	}
	if cfg.EnvMap != "" {
		t.Errorf("Expected no environment map, got %q", cfg.EnvMap)
	}
	if cfg.S3.Enabled() {
		t.Error("Expected S3 upload to be disabled without a bucket")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("RAYTRACER_OUTPUT_DIR", "/tmp/renders")
	t.Setenv("RAYTRACER_WORKERS", "3")
	t.Setenv("RAYTRACER_TILE_SIZE", "16")
	t.Setenv("S3_BUCKET", "renders")
	t.Setenv("S3_PREFIX", "whitted/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.OutputDir != "/tmp/renders" || cfg.NumWorkers != 3 || cfg.TileSize != 16 {
		t.Errorf("Environment not applied: %+v", cfg)
	}
	if !cfg.S3.Enabled() || cfg.S3.Prefix != "whitted/" || cfg.S3.Region != "us-east-1" {
		t.Errorf("Unexpected S3 config %+v", cfg.S3)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	isolate(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "RAYTRACER_PORT=9090\nRAYTRACER_ENVMAP=envmap.jpg\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv("RAYTRACER_ENV_FILE", envFile)
	// godotenv sets these directly; make sure they are cleaned up
	t.Cleanup(func() {
		os.Unsetenv("RAYTRACER_PORT")
		os.Unsetenv("RAYTRACER_ENVMAP")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Port != 9090 || cfg.EnvMap != "envmap.jpg" {
		t.Errorf("Expected values from env file, got port=%d envmap=%q", cfg.Port, cfg.EnvMap)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric workers", "RAYTRACER_WORKERS", "many"},
		{"negative workers", "RAYTRACER_WORKERS", "-1"},
		{"zero tile size", "RAYTRACER_TILE_SIZE", "0"},
		{"bad port", "RAYTRACER_PORT", "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
