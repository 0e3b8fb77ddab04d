package transcribe

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempAudio(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meeting.mp3")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp audio: %v", err)
	}
	return path
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTranscribe_RequestShape(t *testing.T) {
	var gotKey, gotModel, gotDiarize, gotEvents, gotFile string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("xi-api-key")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		gotModel = r.FormValue("model_id")
		gotDiarize = r.FormValue("diarize")
		gotEvents = r.FormValue("detect_audio_events")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("reading file part: %v", err)
		}
		defer file.Close()
		gotFile = header.Filename

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"language_code":"en","language_probability":0.98,"text":"hello there","words":[]}`)
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey: "xi-secret",
		APIURL: server.URL,
		Logger: testLogger(),
	})

	result, err := client.Transcribe(context.Background(), writeTempAudio(t, "fake-audio"))
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}

	if gotKey != "xi-secret" {
		t.Errorf("xi-api-key = %q, want %q", gotKey, "xi-secret")
	}
	if gotModel != DefaultModelID {
		t.Errorf("model_id = %q, want %q", gotModel, DefaultModelID)
	}
	if gotDiarize != "true" || gotEvents != "true" {
		t.Errorf("diarize = %q, detect_audio_events = %q, want both true", gotDiarize, gotEvents)
	}
	if gotFile != "meeting.mp3" {
		t.Errorf("uploaded filename = %q, want meeting.mp3", gotFile)
	}
	if result.LanguageCode != "en" || result.Text != "hello there" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestTranscribe_DecodesWords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"language_code": "en",
			"language_probability": 0.95,
			"text": "Hi all",
			"words": [
				{"text": "Hi", "type": "word", "speaker_id": "speaker_0", "start": 0.1, "end": 0.3},
				{"text": " ", "type": "spacing", "start": 0.3, "end": 0.35},
				{"text": "all", "type": "word", "speaker_id": "speaker_0", "start": 0.35, "end": 0.6}
			]
		}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", APIURL: server.URL, Logger: testLogger()})
	result, err := client.Transcribe(context.Background(), writeTempAudio(t, "a"))
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if len(result.Words) != 3 {
		t.Fatalf("len(Words) = %d, want 3", len(result.Words))
	}
	if result.Words[0].SpeakerID != "speaker_0" || result.Words[0].Start != 0.1 {
		t.Errorf("first word = %+v", result.Words[0])
	}
}

func TestTranscribe_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"invalid api key xi-secret"}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "xi-secret", APIURL: server.URL, Logger: testLogger()})
	_, err := client.Transcribe(context.Background(), writeTempAudio(t, "a"))
	if err == nil {
		t.Fatal("Transcribe() error = nil, want HTTP error")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %q should mention status 401", err)
	}
	if strings.Contains(err.Error(), "xi-secret") {
		t.Errorf("error %q leaks the API key", err)
	}
}

func TestTranscribe_MissingKey(t *testing.T) {
	client := NewClient(Config{Logger: testLogger()})
	_, err := client.Transcribe(context.Background(), writeTempAudio(t, "a"))
	if err == nil {
		t.Fatal("Transcribe() error = nil, want configuration error")
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	client := NewClient(Config{APIKey: "k", Logger: testLogger()})
	_, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "absent.mp3"))
	if err == nil {
		t.Fatal("Transcribe() error = nil, want file error")
	}
}
