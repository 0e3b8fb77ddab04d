package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/avoronin/meetscribe/internal/config"
	"github.com/avoronin/meetscribe/internal/store"
	"github.com/avoronin/meetscribe/internal/transcribe"
)

// mockStore is an in-memory store.Store for handler tests.
type mockStore struct {
	meetings    map[string]*store.Meeting
	transcripts []*store.Transcript
	documents   []*store.Document
	usage       []*store.UsageRecord
	failing     bool
}

func newMockStore() *mockStore {
	return &mockStore{meetings: make(map[string]*store.Meeting)}
}

var errMock = io.ErrUnexpectedEOF

func (m *mockStore) SaveMeeting(ctx context.Context, meeting *store.Meeting) error {
	if m.failing {
		return errMock
	}
	now := time.Now()
	meeting.CreatedAt = now
	meeting.UpdatedAt = now
	m.meetings[meeting.ID] = meeting
	return nil
}

func (m *mockStore) UpdateMeeting(ctx context.Context, meeting *store.Meeting) error {
	if _, ok := m.meetings[meeting.ID]; !ok {
		return store.ErrNotFound
	}
	meeting.UpdatedAt = time.Now()
	m.meetings[meeting.ID] = meeting
	return nil
}

func (m *mockStore) GetMeeting(ctx context.Context, id string) (*store.Meeting, error) {
	if m.failing {
		return nil, errMock
	}
	meeting, ok := m.meetings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return meeting, nil
}

func (m *mockStore) ListMeetings(ctx context.Context, filter store.MeetingFilter) ([]*store.Meeting, error) {
	if m.failing {
		return nil, errMock
	}
	var result []*store.Meeting
	for _, meeting := range m.meetings {
		if filter.Status != nil && meeting.Status != *filter.Status {
			continue
		}
		result = append(result, meeting)
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *mockStore) DeleteMeeting(ctx context.Context, id string) error {
	if _, ok := m.meetings[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.meetings, id)
	return nil
}

func (m *mockStore) SaveTranscript(ctx context.Context, t *store.Transcript) error {
	t.CreatedAt = time.Now()
	m.transcripts = append(m.transcripts, t)
	return nil
}

func (m *mockStore) GetTranscript(ctx context.Context, meetingID, kind string) (*store.Transcript, error) {
	for i := len(m.transcripts) - 1; i >= 0; i-- {
		t := m.transcripts[i]
		if t.MeetingID == meetingID && t.Kind == kind {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) LatestTranscript(ctx context.Context, meetingID string) (*store.Transcript, error) {
	for _, kind := range []string{store.TranscriptCorrected, store.TranscriptNamed, store.TranscriptRaw} {
		if t, err := m.GetTranscript(ctx, meetingID, kind); err == nil {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) SaveDocument(ctx context.Context, d *store.Document) error {
	d.CreatedAt = time.Now()
	m.documents = append(m.documents, d)
	return nil
}

func (m *mockStore) GetDocument(ctx context.Context, meetingID, kind string) (*store.Document, error) {
	for i := len(m.documents) - 1; i >= 0; i-- {
		d := m.documents[i]
		if d.MeetingID == meetingID && d.Kind == kind {
			return d, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) ListDocuments(ctx context.Context, meetingID string) ([]*store.Document, error) {
	var result []*store.Document
	for _, d := range m.documents {
		if d.MeetingID == meetingID {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *mockStore) SaveUsage(ctx context.Context, u *store.UsageRecord) error {
	u.CreatedAt = time.Now()
	m.usage = append(m.usage, u)
	return nil
}

func (m *mockStore) ListUsage(ctx context.Context, meetingID string) ([]*store.UsageRecord, error) {
	if meetingID == "" {
		return m.usage, nil
	}
	var result []*store.UsageRecord
	for _, u := range m.usage {
		if u.MeetingID != nil && *u.MeetingID == meetingID {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *mockStore) SummarizeUsage(ctx context.Context) (*store.UsageSummary, error) {
	summary := &store.UsageSummary{}
	for _, u := range m.usage {
		summary.Calls++
		summary.InputTokens += u.InputTokens
		summary.OutputTokens += u.OutputTokens
		summary.CacheCreationTokens += u.CacheCreationTokens
		summary.CacheReadTokens += u.CacheReadTokens
		summary.Cost += u.Cost
	}
	return summary, nil
}

func (m *mockStore) RunRetention(ctx context.Context) (int64, error) { return 2, nil }
func (m *mockStore) DB() interface{}                                 { return nil }
func (m *mockStore) Close() error                                    { return nil }

const testToken = "test-token-12345"

// fakeTranscriber returns a fixed recognition result or error.
type fakeTranscriber struct {
	result *transcribe.Result
	err    error
	path   string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, filePath string) (*transcribe.Result, error) {
	f.path = filePath
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Auth.Token = testToken
	cfg.Storage.AudioDir = t.TempDir()
	cfg.LLM.DefaultProvider = "openai"
	cfg.LLM.DefaultModel = "gpt-4.1"
	return cfg
}

func newTestServer(t *testing.T, opts ServerOptions) (*Server, *mockStore) {
	t.Helper()
	ms := newMockStore()
	if opts.Store == nil {
		opts.Store = ms
	} else {
		ms, _ = opts.Store.(*mockStore)
	}
	if opts.Config == nil {
		opts.Config = testConfig(t)
	}
	if opts.Transcriber == nil {
		opts.Transcriber = &fakeTranscriber{err: io.EOF}
	}
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(opts), ms
}

func authedRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func TestAuthMiddleware(t *testing.T) {
	server, _ := newTestServer(t, ServerOptions{})
	handler := server.Handler()

	tests := []struct {
		name           string
		path           string
		authHeader     string
		wantStatus     int
		wantBodySubstr string
	}{
		{
			name:           "token in URL rejected even if valid",
			path:           "/api/meetings?token=" + testToken,
			authHeader:     "",
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "Token in URL is not allowed",
		},
		{
			name:           "token in URL rejected with header also present",
			path:           "/api/meetings?token=" + testToken,
			authHeader:     "Bearer " + testToken,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "Token in URL is not allowed",
		},
		{
			name:       "valid header auth succeeds",
			path:       "/api/meetings",
			authHeader: "Bearer " + testToken,
			wantStatus: http.StatusOK,
		},
		{
			name:           "missing auth returns 401",
			path:           "/api/meetings",
			authHeader:     "",
			wantStatus:     http.StatusUnauthorized,
			wantBodySubstr: "Unauthorized",
		},
		{
			name:       "invalid token returns 401",
			path:       "/api/meetings",
			authHeader: "Bearer wrong-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "off-by-one token returns 401",
			path:       "/api/meetings",
			authHeader: "Bearer " + testToken + "6",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong-case token returns 401",
			path:       "/api/meetings",
			authHeader: "Bearer " + strings.ToUpper(testToken),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "other query params are fine",
			path:       "/api/meetings?limit=10",
			authHeader: "Bearer " + testToken,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantBodySubstr != "" && !strings.Contains(rr.Body.String(), tt.wantBodySubstr) {
				t.Errorf("body %q does not contain %q", rr.Body.String(), tt.wantBodySubstr)
			}
		})
	}
}

func TestHealthCheck_NoAuth(t *testing.T) {
	server, _ := newTestServer(t, ServerOptions{})
	handler := server.Handler()

	req := httptest.NewRequest("GET", "/api/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}

	var health HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("Status = %q, want %q", health.Status, "ok")
	}
	if health.Uptime == "" {
		t.Error("Uptime is empty")
	}
}

func TestHealthCheck_DegradedWhenStoreFails(t *testing.T) {
	server, ms := newTestServer(t, ServerOptions{})
	handler := server.Handler()
	ms.failing = true

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/health", nil))

	var health HealthResponse
	json.Unmarshal(rr.Body.Bytes(), &health)
	if health.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", health.Status)
	}
	if health.Warning == "" {
		t.Error("Warning is empty")
	}
}

func TestUploadMeeting(t *testing.T) {
	cfg := testConfig(t)
	server, ms := newTestServer(t, ServerOptions{Config: cfg})
	handler := server.Handler()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("title", "Weekly sync")
	part, err := mw.CreateFormFile("audio", "recording.mp3")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("fake audio bytes"))
	mw.Close()

	req := authedRequest("POST", "/api/meetings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201, body: %s", rr.Code, rr.Body.String())
	}

	var meeting MeetingResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &meeting); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if meeting.Title != "Weekly sync" {
		t.Errorf("Title = %q, want %q", meeting.Title, "Weekly sync")
	}
	if meeting.Status != store.StatusUploaded {
		t.Errorf("Status = %q, want %q", meeting.Status, store.StatusUploaded)
	}

	stored, ok := ms.meetings[meeting.ID]
	if !ok {
		t.Fatal("meeting not persisted")
	}
	if filepath.Ext(stored.AudioFile) != ".mp3" {
		t.Errorf("audio file %q does not keep the extension", stored.AudioFile)
	}
	data, err := os.ReadFile(stored.AudioFile)
	if err != nil {
		t.Fatalf("audio file not written: %v", err)
	}
	if string(data) != "fake audio bytes" {
		t.Errorf("audio content = %q", data)
	}
}

func TestUploadMeeting_TitleDefaultsToFilename(t *testing.T) {
	server, _ := newTestServer(t, ServerOptions{})
	handler := server.Handler()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("audio", "standup 2026-08-29.wav")
	part.Write([]byte("x"))
	mw.Close()

	req := authedRequest("POST", "/api/meetings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201", rr.Code)
	}
	var meeting MeetingResponse
	json.Unmarshal(rr.Body.Bytes(), &meeting)
	if meeting.Title != "standup 2026-08-29" {
		t.Errorf("Title = %q, want filename without extension", meeting.Title)
	}
}

func TestUploadMeeting_MissingFile(t *testing.T) {
	server, _ := newTestServer(t, ServerOptions{})
	handler := server.Handler()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("title", "No audio here")
	mw.Close()

	req := authedRequest("POST", "/api/meetings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rr.Code)
	}
}

func TestGetMeeting(t *testing.T) {
	server, ms := newTestServer(t, ServerOptions{})
	handler := server.Handler()

	lang := "ru"
	ms.meetings["m1"] = &store.Meeting{
		ID: "m1", Title: "Planning", Status: store.StatusTranscribed, Language: &lang,
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest("GET", "/api/meetings/m1", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}
	var meeting MeetingResponse
	json.Unmarshal(rr.Body.Bytes(), &meeting)
	if meeting.Title != "Planning" {
		t.Errorf("Title = %q", meeting.Title)
	}
	if meeting.Language == nil || *meeting.Language != "ru" {
		t.Errorf("Language = %v, want ru", meeting.Language)
	}

	t.Run("missing meeting returns 404", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, authedRequest("GET", "/api/meetings/nope", nil))
		if rr.Code != http.StatusNotFound {
			t.Errorf("got status %d, want 404", rr.Code)
		}
	})
}

func TestListMeetings_StatusFilter(t *testing.T) {
	server, ms := newTestServer(t, ServerOptions{})
	handler := server.Handler()

	ms.meetings["m1"] = &store.Meeting{ID: "m1", Status: store.StatusUploaded}
	ms.meetings["m2"] = &store.Meeting{ID: "m2", Status: store.StatusDocumented}
	ms.meetings["m3"] = &store.Meeting{ID: "m3", Status: store.StatusDocumented}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest("GET", "/api/meetings?status=documented", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}
	var meetings []MeetingResponse
	json.Unmarshal(rr.Body.Bytes(), &meetings)
	if len(meetings) != 2 {
		t.Errorf("got %d meetings, want 2", len(meetings))
	}
}

func TestDeleteMeeting(t *testing.T) {
	cfg := testConfig(t)
	server, ms := newTestServer(t, ServerOptions{Config: cfg})
	handler := server.Handler()

	audioPath := filepath.Join(cfg.Storage.AudioDir, "m1.mp3")
	if err := os.WriteFile(audioPath, []byte("audio"), 0600); err != nil {
		t.Fatal(err)
	}
	ms.meetings["m1"] = &store.Meeting{ID: "m1", AudioFile: audioPath}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest("DELETE", "/api/meetings/m1", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("got status %d, want 204", rr.Code)
	}
	if _, ok := ms.meetings["m1"]; ok {
		t.Error("meeting still in store")
	}
	if _, err := os.Stat(audioPath); !os.IsNotExist(err) {
		t.Error("audio file still on disk")
	}
}

func TestGetTranscript_KindSelection(t *testing.T) {
	server, ms := newTestServer(t, ServerOptions{})
	handler := server.Handler()

	ms.meetings["m1"] = &store.Meeting{ID: "m1"}
	ms.transcripts = []*store.Transcript{
		{ID: "t1", MeetingID: "m1", Kind: store.TranscriptRaw, Text: "speaker_0: raw words"},
		{ID: "t2", MeetingID: "m1", Kind: store.TranscriptNamed, Text: "Alice: raw words"},
	}

	t.Run("default returns most refined", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, authedRequest("GET", "/api/meetings/m1/transcript", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", rr.Code)
		}
		var tr TranscriptResponse
		json.Unmarshal(rr.Body.Bytes(), &tr)
		if tr.Kind != store.TranscriptNamed {
			t.Errorf("Kind = %q, want named", tr.Kind)
		}
	})

	t.Run("explicit kind", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, authedRequest("GET", "/api/meetings/m1/transcript?kind=raw", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", rr.Code)
		}
		var tr TranscriptResponse
		json.Unmarshal(rr.Body.Bytes(), &tr)
		if tr.Text != "speaker_0: raw words" {
			t.Errorf("Text = %q", tr.Text)
		}
	})

	t.Run("no transcript returns 404", func(t *testing.T) {
		ms.meetings["m2"] = &store.Meeting{ID: "m2"}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, authedRequest("GET", "/api/meetings/m2/transcript", nil))
		if rr.Code != http.StatusNotFound {
			t.Errorf("got status %d, want 404", rr.Code)
		}
	})
}

func TestListProviders(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.OpenAIAPIKey = "sk-test"
	server, _ := newTestServer(t, ServerOptions{Config: cfg})
	handler := server.Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest("GET", "/api/providers", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}
	var providers []ProviderResponse
	json.Unmarshal(rr.Body.Bytes(), &providers)
	if len(providers) < 3 {
		t.Fatalf("got %d providers, want at least 3", len(providers))
	}

	byName := make(map[string]ProviderResponse)
	for _, p := range providers {
		byName[p.Name] = p
	}
	if !byName["openai"].Configured {
		t.Error("openai should be configured")
	}
	if byName["anthropic"].Configured {
		t.Error("anthropic should not be configured")
	}
	if !byName["openai"].Default {
		t.Error("openai should be the default")
	}
	if len(byName["deepseek"].Models) == 0 {
		t.Error("deepseek has no models")
	}
}

func TestSessionStats_RecordedAndReset(t *testing.T) {
	server, ms := newTestServer(t, ServerOptions{})
	handler := server.Handler()

	ms.usage = []*store.UsageRecord{
		{ID: "u1", Provider: "openai", Model: "gpt-4.1", InputTokens: 100, OutputTokens: 50, Cost: 0.01},
	}

	// Session totals start at zero regardless of persisted usage.
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest("GET", "/api/session", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}
	var snap map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &snap)
	if snap["calls"].(float64) != 0 {
		t.Errorf("calls = %v, want 0", snap["calls"])
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest("POST", "/api/session/reset", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("reset: got status %d, want 200", rr.Code)
	}
}

func TestUsageSummary(t *testing.T) {
	server, ms := newTestServer(t, ServerOptions{})
	handler := server.Handler()

	ms.usage = []*store.UsageRecord{
		{ID: "u1", InputTokens: 100, OutputTokens: 50, Cost: 0.01},
		{ID: "u2", InputTokens: 200, OutputTokens: 80, Cost: 0.02},
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest("GET", "/api/usage", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}
	var summary UsageSummaryResponse
	json.Unmarshal(rr.Body.Bytes(), &summary)
	if summary.Calls != 2 {
		t.Errorf("Calls = %d, want 2", summary.Calls)
	}
	if summary.InputTokens != 300 {
		t.Errorf("InputTokens = %d, want 300", summary.InputTokens)
	}
}

func TestRunRetention_LocalhostOnly(t *testing.T) {
	server, _ := newTestServer(t, ServerOptions{})
	handler := server.Handler()

	t.Run("localhost allowed", func(t *testing.T) {
		req := authedRequest("POST", "/api/admin/retention", nil)
		req.RemoteAddr = "127.0.0.1:54321"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200, body: %s", rr.Code, rr.Body.String())
		}
		var resp map[string]int64
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp["deleted"] != 2 {
			t.Errorf("deleted = %d, want 2", resp["deleted"])
		}
	})

	t.Run("remote rejected", func(t *testing.T) {
		req := authedRequest("POST", "/api/admin/retention", nil)
		req.RemoteAddr = "192.168.1.50:54321"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("got status %d, want 403", rr.Code)
		}
	})
}

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:8080", true},
		{"127.0.0.1", true},
		{"localhost:8080", true},
		{"localhost", true},
		{"[::1]:8080", true},
		{"192.168.1.1:8080", false},
		{"8.8.8.8:8080", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := isLocalhost(tt.addr); got != tt.want {
				t.Errorf("isLocalhost(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	server, _ := newTestServer(t, ServerOptions{})
	handler := server.Handler()

	t.Run("localhost origin allowed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
			t.Error("missing CORS header for localhost origin")
		}
	})

	t.Run("remote origin not allowed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/health", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("CORS header set for remote origin")
		}
	})

	t.Run("preflight answered", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/api/meetings", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Errorf("got status %d, want 204", rr.Code)
		}
	})
}
