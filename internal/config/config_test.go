package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("Expected 1280x720, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS != 30 {
		t.Errorf("Expected 30 fps, got %d", cfg.FPS)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	content := "SCENE2VIDEO_FPS=24\nSCENE2VIDEO_FORMAT=webm\nSCENE2VIDEO_STRICT_MEDIA=true\n"
	if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("SCENE2VIDEO_FPS")
		os.Unsetenv("SCENE2VIDEO_FORMAT")
		os.Unsetenv("SCENE2VIDEO_STRICT_MEDIA")
	})

	cfg, err := Load(envPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.FPS != 24 {
		t.Errorf("Expected fps 24, got %d", cfg.FPS)
	}
	if cfg.Format != "webm" {
		t.Errorf("Expected webm, got %s", cfg.Format)
	}
	if !cfg.StrictMedia {
		t.Error("Expected StrictMedia to be enabled")
	}
}

func TestLoadRejectsBadNumber(t *testing.T) {
	t.Setenv("SCENE2VIDEO_WIDTH", "wide")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("Expected error for non-numeric width")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"odd width", func(c *Config) { c.Width = 1281 }, true},
		{"zero fps", func(c *Config) { c.FPS = 0 }, true},
		{"unknown format", func(c *Config) { c.Format = "gif" }, true},
		{"upper case format", func(c *Config) { c.Format = "MP4" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestExportParams(t *testing.T) {
	cfg := Default()
	cfg.Format = "WEBM"
	cfg.OutputVideo = "out.webm"
	p := cfg.ExportParams()
	if p.Format != "webm" || p.OutputPath != "out.webm" || p.FPS != 30 {
		t.Errorf("Unexpected params: %+v", p)
	}
}
