package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadUsesDefaultsWhenNoFileExists(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path even when missing")
	}
	if cfg.Windows.DurationSeconds != defaultWindowDuration {
		t.Fatalf("expected default window duration, got %g", cfg.Windows.DurationSeconds)
	}
	if cfg.Ranker.TopK != defaultTopK {
		t.Fatalf("expected default top_k, got %d", cfg.Ranker.TopK)
	}
	if cfg.Render.Quality != defaultRenderQuality {
		t.Fatalf("expected default quality, got %q", cfg.Render.Quality)
	}
}

func TestLoadParsesOverridesAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
output_dir = "~/my-clips"

[asr]
base_url = "http://asr.local:9000/"
model = "whisper-test"

[windows]
duration_seconds = 60.0
stride_seconds = 10.0

[ranker]
top_k = 3

[render]
quality = "FAST"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if resolved != path {
		t.Fatalf("resolved = %q, want %q", resolved, path)
	}
	if strings.HasPrefix(cfg.Paths.OutputDir, "~") {
		t.Fatalf("output_dir not expanded: %q", cfg.Paths.OutputDir)
	}
	if cfg.ASR.BaseURL != "http://asr.local:9000" {
		t.Fatalf("expected trailing slash stripped, got %q", cfg.ASR.BaseURL)
	}
	if cfg.ASR.Model != "whisper-test" {
		t.Fatalf("unexpected model %q", cfg.ASR.Model)
	}
	if cfg.Windows.DurationSeconds != 60 || cfg.Windows.StrideSeconds != 10 {
		t.Fatalf("window overrides not applied: %+v", cfg.Windows)
	}
	if cfg.Ranker.TopK != 3 {
		t.Fatalf("top_k = %d, want 3", cfg.Ranker.TopK)
	}
	if cfg.Render.Quality != "fast" {
		t.Fatalf("quality not normalized: %q", cfg.Render.Quality)
	}
	// Untouched sections keep their defaults.
	if cfg.Grader.MaxConcurrent != defaultGraderMaxConcurrent {
		t.Fatalf("grader concurrency default lost: %d", cfg.Grader.MaxConcurrent)
	}
}

func TestLoadRejectsInvalidQuality(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[render]\nquality = \"ultra\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid quality")
	}
}

func TestLoadRejectsStrideLargerThanDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[windows]\nduration_seconds = 30.0\nstride_seconds = 45.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error when stride exceeds duration")
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config failed validation: %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := expandPath("~/clips")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if got != filepath.Join(home, "clips") {
		t.Fatalf("expandPath = %q, want %q", got, filepath.Join(home, "clips"))
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.TempDir = filepath.Join(base, "tmp")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.TempDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("stat %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("%s is not a directory", dir)
		}
	}
}
