// Package e2e contains end-to-end tests for meetscribe.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avoronin/meetscribe/internal/api"
	"github.com/avoronin/meetscribe/internal/config"
	"github.com/avoronin/meetscribe/internal/llm"
	"github.com/avoronin/meetscribe/internal/store"
	"github.com/avoronin/meetscribe/internal/testutil"
	"github.com/avoronin/meetscribe/internal/transcribe"
)

const e2eToken = "e2e-token-123"

type stubTranscriber struct {
	result *transcribe.Result
}

func (s *stubTranscriber) Transcribe(ctx context.Context, filePath string) (*transcribe.Result, error) {
	return s.result, nil
}

// TestE2E_FullPipeline walks a meeting through the whole lifecycle over
// the HTTP API, backed by a real SQLite database:
// 1. Upload an audio file
// 2. Transcribe it (stubbed recognition)
// 3. Identify speakers (scripted LLM)
// 4. Apply corrections
// 5. Generate the transcript document and the summary
// 6. Verify usage accounting and analytics see all four LLM calls
func TestE2E_FullPipeline(t *testing.T) {
	tempDir := t.TempDir()

	dbPath := filepath.Join(tempDir, "meetscribe.db")
	s, err := store.NewSQLiteStore(dbPath, 7)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	cfg := config.DefaultConfig()
	cfg.Auth.Token = e2eToken
	cfg.Storage.DBPath = dbPath
	cfg.Storage.AudioDir = tempDir
	cfg.LLM.DefaultProvider = "openai"
	cfg.LLM.DefaultModel = "gpt-4.1"

	speakerReply := "```json\n" + `{
  "speakers": {
    "speaker_0": {"name": "Elena", "role": "engineering lead", "confidence": "high"},
    "speaker_1": {"name": "Mark", "role": "product manager", "confidence": "medium"}
  },
  "summary": "Status review of the ingestion service."
}` + "\n```"
	correctionReply := "```json\n" + `{"corrections": [
		{"original": "injection service", "corrected": "ingestion service", "reason": "product name"}
	]}` + "\n```"

	script := testutil.ScriptLLM(t,
		testutil.Reply{Content: speakerReply, PromptTokens: 1200, CompletionTokens: 300},
		testutil.Reply{Content: correctionReply, PromptTokens: 900, CompletionTokens: 80},
		testutil.Reply{Content: "# Meeting Transcript\n\nElena: The ingestion service shipped last week.", PromptTokens: 2000, CompletionTokens: 900},
		testutil.Reply{Content: "# Summary\n\nThe ingestion service shipped. Memory issue pending.", PromptTokens: 2100, CompletionTokens: 400},
	)

	recognition := testutil.NewRecognition().
		Say("speaker_0", "The injection service shipped last week.").
		Say("speaker_1", "Great, let's review the load test results next.").
		Build()

	server := api.NewServer(api.ServerOptions{
		Config:      cfg,
		Store:       s,
		Transcriber: &stubTranscriber{result: recognition},
		Strategies: func(provider string) (*llm.Strategy, error) {
			return script.Strategy, nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	handler := server.Handler()

	do := func(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(method, path, body)
		req.Header.Set("Authorization", "Bearer "+e2eToken)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// 1. Upload
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "quarterly-review.mp3")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := fw.Write([]byte("fake audio bytes")); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := mw.WriteField("title", "Quarterly review"); err != nil {
		t.Fatalf("failed to write title field: %v", err)
	}
	mw.Close()

	rec := do("POST", "/api/meetings", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload returned %d: %s", rec.Code, rec.Body.String())
	}

	var created map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode upload response: %v", err)
	}
	meetingID, _ := created["id"].(string)
	if meetingID == "" {
		t.Fatalf("upload response missing meeting id: %v", created)
	}

	// 2. Transcribe
	rec = do("POST", "/api/meetings/"+meetingID+"/transcribe", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("transcribe returned %d: %s", rec.Code, rec.Body.String())
	}

	ctx := context.Background()
	raw, err := s.GetTranscript(ctx, meetingID, store.TranscriptRaw)
	if err != nil {
		t.Fatalf("raw transcript not saved: %v", err)
	}
	if !strings.Contains(raw.Text, "speaker_0: The injection service shipped last week.") {
		t.Errorf("unexpected raw transcript: %q", raw.Text)
	}

	// 3. Analyze
	rec = do("POST", "/api/meetings/"+meetingID+"/analyze", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze returned %d: %s", rec.Code, rec.Body.String())
	}

	named, err := s.GetTranscript(ctx, meetingID, store.TranscriptNamed)
	if err != nil {
		t.Fatalf("named transcript not saved: %v", err)
	}
	if !strings.Contains(named.Text, "Elena:") || strings.Contains(named.Text, "speaker_0:") {
		t.Errorf("speakers not renamed: %q", named.Text)
	}

	// 4. Correct
	body := strings.NewReader(`{"context": "Our pipeline component is called the ingestion service."}`)
	rec = do("POST", "/api/meetings/"+meetingID+"/correct", body, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("correct returned %d: %s", rec.Code, rec.Body.String())
	}

	corrected, err := s.GetTranscript(ctx, meetingID, store.TranscriptCorrected)
	if err != nil {
		t.Fatalf("corrected transcript not saved: %v", err)
	}
	if !strings.Contains(corrected.Text, "ingestion service") {
		t.Errorf("correction not applied: %q", corrected.Text)
	}

	// 5. Generate documents
	rec = do("POST", "/api/meetings/"+meetingID+"/generate", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("generate returned %d: %s", rec.Code, rec.Body.String())
	}

	var docs []map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&docs); err != nil {
		t.Fatalf("failed to decode generate response: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	meeting, err := s.GetMeeting(ctx, meetingID)
	if err != nil {
		t.Fatalf("failed to get meeting: %v", err)
	}
	if meeting.Status != store.StatusDocumented {
		t.Errorf("expected status documented, got %s", meeting.Status)
	}

	// 6. Usage accounting: one record per LLM operation.
	records, err := s.ListUsage(ctx, meetingID)
	if err != nil {
		t.Fatalf("failed to list usage: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 usage records, got %d", len(records))
	}
	wantOps := []string{"speaker_identification", "correction", "generate_transcript", "generate_summary"}
	for i, want := range wantOps {
		if records[i].Operation != want {
			t.Errorf("record %d operation = %q, want %q", i, records[i].Operation, want)
		}
		if records[i].Cost <= 0 {
			t.Errorf("record %d has no cost", i)
		}
	}

	// Analytics sees the same spend.
	rec = do("GET", "/api/analytics/summary", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("analytics summary returned %d: %s", rec.Code, rec.Body.String())
	}
	var summary map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode analytics summary: %v", err)
	}
	if calls, _ := summary["calls"].(float64); calls != 4 {
		t.Errorf("analytics calls = %v, want 4", summary["calls"])
	}
	if meetings, _ := summary["meetings"].(float64); meetings != 1 {
		t.Errorf("analytics meetings = %v, want 1", summary["meetings"])
	}
}

// TestE2E_ExportAfterPipeline verifies the usage export formats against
// records produced through the API rather than seeded directly.
func TestE2E_ExportAfterPipeline(t *testing.T) {
	tempDir := t.TempDir()

	s, err := store.NewSQLiteStore(filepath.Join(tempDir, "meetscribe.db"), 0)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	cfg := config.DefaultConfig()
	cfg.Auth.Token = e2eToken
	cfg.Storage.AudioDir = tempDir
	cfg.LLM.DefaultProvider = "openai"
	cfg.LLM.DefaultModel = "gpt-4.1"

	script := testutil.ScriptLLM(t, testutil.Reply{
		Content: "```json\n" + `{"speakers": {"speaker_0": {"name": "Elena", "role": "host", "confidence": "high"}}, "summary": "Standup."}` + "\n```",
		PromptTokens: 500, CompletionTokens: 100,
	})

	recognition := testutil.NewRecognition().
		Say("speaker_0", "Short standup, nothing blocking.").
		Build()

	server := api.NewServer(api.ServerOptions{
		Config:      cfg,
		Store:       s,
		Transcriber: &stubTranscriber{result: recognition},
		Strategies: func(provider string) (*llm.Strategy, error) {
			return script.Strategy, nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	handler := server.Handler()

	do := func(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(method, path, body)
		req.Header.Set("Authorization", "Bearer "+e2eToken)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("audio", "standup.mp3")
	fw.Write([]byte("fake audio bytes"))
	mw.Close()

	rec := do("POST", "/api/meetings", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload returned %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&created)
	meetingID := created["id"].(string)

	if rec = do("POST", "/api/meetings/"+meetingID+"/transcribe", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("transcribe returned %d: %s", rec.Code, rec.Body.String())
	}
	if rec = do("POST", "/api/meetings/"+meetingID+"/analyze", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("analyze returned %d: %s", rec.Code, rec.Body.String())
	}

	// CSV export carries the one analyze record.
	rec = do("GET", "/api/usage/export?format=csv", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export returned %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "speaker_identification") {
		t.Errorf("export row missing operation: %q", lines[1])
	}
	if !strings.Contains(lines[1], meetingID) {
		t.Errorf("export row missing meeting id: %q", lines[1])
	}
}
