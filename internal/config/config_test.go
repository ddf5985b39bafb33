package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err = c.Validate(); err != nil {
		t.Errorf("Defaults do not validate: %v", err)
	}
	if level, _ := c.Level(); level != slog.LevelInfo {
		t.Errorf("Expected info level, got %v", level)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
settings:
  logLevel: debug
data:
  characteristicsDirectory: /srv/props
output:
  format: JPG
  width: 800
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if level, _ := c.Level(); level != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", level)
	}
	if c.Data.CharacteristicsDirectory != "/srv/props" {
		t.Errorf("Expected /srv/props, got %s", c.Data.CharacteristicsDirectory)
	}
	if c.Output.Format != ImageJPEG || c.Output.Format.Extension() != "jpg" {
		t.Errorf("Expected jpeg format, got %s", c.Output.Format)
	}
	// keys absent from the file keep their defaults
	if c.Output.Width != 800 || c.Output.Height != Default().Output.Height {
		t.Errorf("Expected 800x%d, got %dx%d", Default().Output.Height, c.Output.Width, c.Output.Height)
	}
	if c.Data.PerformanceDirectory != Default().Data.PerformanceDirectory {
		t.Errorf("Expected default performance directory, got %s", c.Data.PerformanceDirectory)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"log level", "settings:\n  logLevel: loud\n"},
		{"format", "output:\n  format: gif\n"},
		{"width", "output:\n  width: 10\n"},
		{"dpi", "output:\n  dpi: 0\n"},
		{"syntax", "output: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParseImageFormat(t *testing.T) {
	for in, want := range map[string]ImageFormat{"png": ImagePNG, "PNG": ImagePNG, "jpeg": ImageJPEG, "jpg": ImageJPEG} {
		got, err := ParseImageFormat(in)
		if err != nil || got != want {
			t.Errorf("%s: expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseImageFormat("bmp"); err == nil {
		t.Error("Expected error for bmp")
	}
}
