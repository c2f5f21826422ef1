package asr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"clipforge/internal/services"
)

const sampleResponse = `{
	"text": "Hello world. How are you?",
	"language": "en",
	"duration": 2.0,
	"segments": [
		{"id": 0, "start": 0.0, "end": 0.9, "text": "Hello world.",
		 "words": [
			{"word": " Hello", "start": 0.0, "end": 0.4, "probability": 0.99},
			{"word": "world.", "start": 0.5, "end": 0.9, "probability": 0.97}
		 ]},
		{"id": 1, "start": 1.0, "end": 1.8, "text": "How are you?",
		 "words": [
			{"word": "How", "start": 1.0, "end": 1.2, "probability": 0.95},
			{"word": "are", "start": 1.3, "end": 1.4, "probability": 0.96},
			{"word": "you?", "start": 1.5, "end": 1.8, "probability": 0.98}
		 ]}
	]
}`

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFFfake"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestTranscribeSendsMultipartRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-test" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		granularities := r.MultipartForm.Value["timestamp_granularities[]"]
		if len(granularities) != 2 || granularities[0] != "word" || granularities[1] != "segment" {
			t.Errorf("granularities = %v", granularities)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "whisper-test"})
	transcription, err := client.Transcribe(context.Background(), writeAudioFixture(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if transcription.Language != "en" || transcription.Duration != 2.0 {
		t.Fatalf("unexpected metadata: %+v", transcription)
	}
	if len(transcription.Segments) != 2 {
		t.Fatalf("segments = %d", len(transcription.Segments))
	}
}

func TestTranscriptionWordsFlattens(t *testing.T) {
	var transcription Transcription
	if err := json.Unmarshal([]byte(sampleResponse), &transcription); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	words := transcription.Words()
	if len(words) != 5 {
		t.Fatalf("expected 5 words, got %d", len(words))
	}
	if words[0].Text != "Hello" {
		t.Fatalf("leading space must be trimmed, got %q", words[0].Text)
	}
	if words[4].Text != "you?" || words[4].End != 1.8 {
		t.Fatalf("unexpected last word %+v", words[4])
	}
	if words[0].Confidence != 0.99 {
		t.Fatalf("probability must map to confidence, got %v", words[0].Confidence)
	}
}

func TestTranscribeServerErrorIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "m"})
	_, err := client.Transcribe(context.Background(), writeAudioFixture(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTranscriptionFailed) {
		t.Fatalf("expected transcription-failed marker, got %v", err)
	}
	if !services.IsFatal(err) {
		t.Fatal("transcription failures must be fatal")
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:1", Model: "m"})
	_, err := client.Transcribe(context.Background(), "/does/not/exist.wav")
	if err == nil {
		t.Fatal("expected error for missing audio file")
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "m"})
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
