package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"clipforge/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckASR_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckASR(context.Background(), config.ASR{BaseURL: srv.URL, Model: "whisper-1"})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckASR_MissingURL(t *testing.T) {
	result := CheckASR(context.Background(), config.ASR{})
	if result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestCheckASR_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result := CheckASR(context.Background(), config.ASR{BaseURL: srv.URL})
	if result.Passed {
		t.Fatal("expected failure for unhealthy service")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckGrader_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckGrader(context.Background(), config.Grader{BaseURL: srv.URL, Model: "grader-1"})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckGrader_MissingURL(t *testing.T) {
	result := CheckGrader(context.Background(), config.Grader{})
	if result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_CoversDirectoriesServicesAndBinaries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.TempDir = t.TempDir()
	cfg.Paths.LogDir = ""
	cfg.ASR.BaseURL = srv.URL
	cfg.Grader.BaseURL = srv.URL

	results := RunAll(context.Background(), &cfg)

	names := make(map[string]Result, len(results))
	for _, r := range results {
		names[r.Name] = r
	}
	for _, want := range []string{
		"Output directory", "Temp directory",
		"ffmpeg", "ffprobe", "yt-dlp",
		"ASR service", "Grader service",
	} {
		if _, ok := names[want]; !ok {
			t.Fatalf("missing check %q in results: %+v", want, results)
		}
	}
	if _, ok := names["Log directory"]; ok {
		t.Fatal("log directory check must be skipped when unset")
	}

	for _, name := range []string{"Output directory", "Temp directory", "ASR service", "Grader service"} {
		if !names[name].Passed {
			t.Errorf("check %q failed: %s", name, names[name].Detail)
		}
	}
}

func TestAllPassed(t *testing.T) {
	if !AllPassed([]Result{{Passed: true}, {Passed: true}}) {
		t.Fatal("expected all passed")
	}
	if AllPassed([]Result{{Passed: true}, {Passed: false}}) {
		t.Fatal("expected failure to propagate")
	}
	if !AllPassed(nil) {
		t.Fatal("empty set counts as passed")
	}
}
