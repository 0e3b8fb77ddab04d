// Package api provides the REST API for meetscribe.
package api

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avoronin/meetscribe/internal/analytics"
	"github.com/avoronin/meetscribe/internal/config"
	"github.com/avoronin/meetscribe/internal/llm"
	"github.com/avoronin/meetscribe/internal/session"
	"github.com/avoronin/meetscribe/internal/store"
	"github.com/avoronin/meetscribe/internal/transcribe"
	"github.com/avoronin/meetscribe/internal/ws"
)

// Transcriber converts an audio file into a diarized recognition result.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (*transcribe.Result, error)
}

// StrategyFactory builds the LLM strategy for a provider name.
type StrategyFactory func(provider string) (*llm.Strategy, error)

// ServerOptions carries the dependencies of the API server. Config and
// Store are required; the rest default to production implementations.
type ServerOptions struct {
	Config      *config.Config
	Store       store.Store
	Hub         *ws.Hub
	Totals      *session.Totals
	Transcriber Transcriber
	Strategies  StrategyFactory
	Logger      *slog.Logger
}

// Server is the REST API server.
type Server struct {
	cfg         *config.Config
	store       store.Store
	hub         *ws.Hub
	totals      *session.Totals
	transcriber Transcriber
	newStrategy StrategyFactory
	analytics   *analytics.Engine
	logger      *slog.Logger
	mux         *http.ServeMux
	limiter     *RateLimiter
	startTime   time.Time
}

// NewServer creates a new API server.
func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:         opts.Config,
		store:       opts.Store,
		hub:         opts.Hub,
		totals:      opts.Totals,
		transcriber: opts.Transcriber,
		newStrategy: opts.Strategies,
		logger:      logger,
		mux:         http.NewServeMux(),
		limiter:     NewRateLimiter(20, 100),
		startTime:   time.Now(),
	}

	if s.totals == nil {
		s.totals = session.NewTotals()
	}
	if s.transcriber == nil {
		s.transcriber = transcribe.NewClient(transcribe.Config{
			APIKey:  opts.Config.Transcription.APIKey,
			ModelID: opts.Config.Transcription.ModelID,
			Logger:  logger,
		})
	}
	if s.newStrategy == nil {
		cfg := opts.Config
		s.newStrategy = func(provider string) (*llm.Strategy, error) {
			key := cfg.LLM.ProviderAPIKey(provider)
			if key == "" {
				return nil, fmt.Errorf("no API key configured for provider %q", provider)
			}
			return llm.NewWithConfig(provider, key, llm.Config{Logger: logger})
		}
	}

	// Analytics needs raw SQL access; skipped for stores without one.
	if db, ok := s.store.DB().(*sql.DB); ok {
		s.analytics = analytics.NewEngine(db)
	}

	// Register routes
	s.mux.HandleFunc("POST /api/meetings", s.authMiddleware(s.uploadMeeting))
	s.mux.HandleFunc("GET /api/meetings", s.authMiddleware(s.listMeetings))
	s.mux.HandleFunc("GET /api/meetings/{id}", s.authMiddleware(s.getMeeting))
	s.mux.HandleFunc("DELETE /api/meetings/{id}", s.authMiddleware(s.deleteMeeting))
	s.mux.HandleFunc("GET /api/meetings/{id}/transcript", s.authMiddleware(s.getTranscript))
	s.mux.HandleFunc("GET /api/meetings/{id}/documents", s.authMiddleware(s.listDocuments))
	s.mux.HandleFunc("GET /api/meetings/{id}/documents/{kind}", s.authMiddleware(s.getDocument))
	s.mux.HandleFunc("GET /api/meetings/{id}/usage", s.authMiddleware(s.getMeetingUsage))
	s.mux.HandleFunc("POST /api/meetings/{id}/transcribe", s.authMiddleware(s.transcribeMeeting))
	s.mux.HandleFunc("POST /api/meetings/{id}/analyze", s.authMiddleware(s.analyzeMeeting))
	s.mux.HandleFunc("POST /api/meetings/{id}/correct", s.authMiddleware(s.correctMeeting))
	s.mux.HandleFunc("POST /api/meetings/{id}/generate", s.authMiddleware(s.generateDocuments))
	s.mux.HandleFunc("GET /api/usage", s.authMiddleware(s.getUsageSummary))
	s.mux.HandleFunc("GET /api/usage/export", s.authMiddleware(s.exportUsage))
	s.mux.HandleFunc("GET /api/analytics/summary", s.authMiddleware(s.analyticsSummary))
	s.mux.HandleFunc("GET /api/analytics/cost/daily", s.authMiddleware(s.analyticsCostByDay))
	s.mux.HandleFunc("GET /api/analytics/cost/models", s.authMiddleware(s.analyticsCostByModel))
	s.mux.HandleFunc("GET /api/analytics/operations", s.authMiddleware(s.analyticsOperations))
	s.mux.HandleFunc("GET /api/analytics/meetings", s.authMiddleware(s.analyticsMeetingCosts))
	s.mux.HandleFunc("GET /api/analytics/anomalies", s.authMiddleware(s.analyticsAnomalies))
	s.mux.HandleFunc("GET /api/session", s.authMiddleware(s.getSessionStats))
	s.mux.HandleFunc("POST /api/session/reset", s.authMiddleware(s.resetSession))
	s.mux.HandleFunc("GET /api/providers", s.authMiddleware(s.listProviders))
	s.mux.HandleFunc("GET /api/health", s.healthCheck)
	s.mux.HandleFunc("POST /api/admin/retention", s.authMiddleware(s.runRetention))

	if s.hub != nil {
		s.mux.HandleFunc("GET /ws", s.hub.Handler(opts.Config.Auth.Token))
	}

	return s
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.limiter.Middleware(s.corsMiddleware(s.mux))
}

// authMiddleware wraps a handler with bearer token authentication.
// Uses constant-time comparison to prevent timing attacks. Tokens in
// the URL are rejected outright so they never end up in access logs;
// the WebSocket endpoint, which cannot set headers from a browser,
// does its own auth.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("token") {
			http.Error(w, "Token in URL is not allowed; use the Authorization header", http.StatusBadRequest)
			return
		}

		auth := r.Header.Get("Authorization")
		expected := "Bearer " + s.cfg.Auth.Token

		if subtle.ConstantTimeCompare([]byte(auth), []byte(expected)) != 1 {
			s.logger.Debug("auth failed", "provided_len", len(auth))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

// corsMiddleware adds CORS headers for local development.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Only allow localhost origins
		if origin != "" {
			if strings.HasPrefix(origin, "http://localhost") ||
				strings.HasPrefix(origin, "http://127.0.0.1") ||
				strings.HasPrefix(origin, "https://localhost") ||
				strings.HasPrefix(origin, "https://127.0.0.1") {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// uploadMeeting accepts a multipart audio upload and creates a meeting.
func (s *Server) uploadMeeting(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Storage.MaxUploadBytes)

	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "Missing audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	audioPath, err := s.saveAudio(file, header)
	if err != nil {
		s.logger.Error("failed to save audio", "error", err)
		http.Error(w, "Failed to save audio", http.StatusInternalServerError)
		return
	}

	meeting := &store.Meeting{
		ID:        uuid.NewString(),
		Title:     title,
		AudioFile: audioPath,
		Status:    store.StatusUploaded,
	}
	if err := s.store.SaveMeeting(ctx, meeting); err != nil {
		os.Remove(audioPath)
		s.logger.Error("failed to save meeting", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastMeetingCreated(meeting)
	}

	s.logger.Info("meeting uploaded", "id", meeting.ID, "title", meeting.Title, "file", header.Filename)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	s.writeJSON(w, toMeetingResponse(meeting))
}

// saveAudio writes the uploaded file under the audio directory with a
// fresh name, keeping only the original extension.
func (s *Server) saveAudio(file multipart.File, header *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(s.cfg.Storage.AudioDir, 0700); err != nil {
		return "", err
	}

	ext := filepath.Ext(header.Filename)
	path := filepath.Join(s.cfg.Storage.AudioDir, uuid.NewString()+ext)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// listMeetings returns a paginated list of meetings.
func (s *Server) listMeetings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := store.MeetingFilter{
		Limit:  50,
		Offset: 0,
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}

	meetings, err := s.store.ListMeetings(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list meetings", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	response := make([]MeetingResponse, len(meetings))
	for i, m := range meetings {
		response[i] = toMeetingResponse(m)
	}

	s.writeJSON(w, response)
}

// getMeeting returns a single meeting by ID.
func (s *Server) getMeeting(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	meeting, ok := s.lookupMeeting(ctx, w, r)
	if !ok {
		return
	}

	s.writeJSON(w, toMeetingResponse(meeting))
}

// deleteMeeting removes a meeting, its derived records, and its audio file.
func (s *Server) deleteMeeting(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	meeting, ok := s.lookupMeeting(ctx, w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteMeeting(ctx, meeting.ID); err != nil {
		s.logger.Error("failed to delete meeting", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if meeting.AudioFile != "" {
		if err := os.Remove(meeting.AudioFile); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove audio file", "path", meeting.AudioFile, "error", err)
		}
	}

	if s.hub != nil {
		s.hub.BroadcastMeetingDeleted(meeting.ID)
	}

	s.logger.Info("meeting deleted", "id", meeting.ID)
	w.WriteHeader(http.StatusNoContent)
}

// getTranscript returns a transcript for a meeting. The optional kind
// query selects a specific refinement stage; the default is the most
// refined version available.
func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	meeting, ok := s.lookupMeeting(ctx, w, r)
	if !ok {
		return
	}

	var transcriptRec *store.Transcript
	var err error
	if kind := r.URL.Query().Get("kind"); kind != "" {
		transcriptRec, err = s.store.GetTranscript(ctx, meeting.ID, kind)
	} else {
		transcriptRec, err = s.store.LatestTranscript(ctx, meeting.ID)
	}
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "No transcript", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("failed to get transcript", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, TranscriptResponse{
		MeetingID: transcriptRec.MeetingID,
		Kind:      transcriptRec.Kind,
		Text:      transcriptRec.Text,
		CreatedAt: transcriptRec.CreatedAt,
	})
}

// listDocuments returns all generated documents for a meeting.
func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	meeting, ok := s.lookupMeeting(ctx, w, r)
	if !ok {
		return
	}

	docs, err := s.store.ListDocuments(ctx, meeting.ID)
	if err != nil {
		s.logger.Error("failed to list documents", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	response := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		response[i] = toDocumentResponse(d)
	}

	s.writeJSON(w, response)
}

// getDocument returns one generated document by kind.
func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	meeting, ok := s.lookupMeeting(ctx, w, r)
	if !ok {
		return
	}

	doc, err := s.store.GetDocument(ctx, meeting.ID, r.PathValue("kind"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "No such document", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("failed to get document", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, toDocumentResponse(doc))
}

// getMeetingUsage returns the usage records accumulated for a meeting.
func (s *Server) getMeetingUsage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	meeting, ok := s.lookupMeeting(ctx, w, r)
	if !ok {
		return
	}

	records, err := s.store.ListUsage(ctx, meeting.ID)
	if err != nil {
		s.logger.Error("failed to list usage", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	response := make([]UsageRecordResponse, len(records))
	for i, u := range records {
		response[i] = toUsageRecordResponse(u)
	}

	s.writeJSON(w, response)
}

// getUsageSummary returns the all-time usage totals from the database.
func (s *Server) getUsageSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	summary, err := s.store.SummarizeUsage(ctx)
	if err != nil {
		s.logger.Error("failed to summarize usage", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, UsageSummaryResponse{
		Calls:               summary.Calls,
		InputTokens:         summary.InputTokens,
		OutputTokens:        summary.OutputTokens,
		CacheCreationTokens: summary.CacheCreationTokens,
		CacheReadTokens:     summary.CacheReadTokens,
		Cost:                summary.Cost,
	})
}

// getSessionStats returns the in-memory totals for the current run.
func (s *Server) getSessionStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.totals.Snapshot())
}

// resetSession clears the in-memory session totals.
func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	s.totals.Reset()
	s.logger.Info("session totals reset")
	s.writeJSON(w, s.totals.Snapshot())
}

// listProviders returns the known providers, their model catalogs, and
// whether an API key is configured for each.
func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	response := make([]ProviderResponse, 0, len(llm.Providers()))
	for _, name := range llm.Providers() {
		strategy, err := llm.New(name, "")
		if err != nil {
			continue
		}
		response = append(response, ProviderResponse{
			Name:       name,
			Configured: s.cfg.LLM.ProviderAPIKey(name) != "",
			Default:    name == s.cfg.LLM.DefaultProvider,
			Models:     strategy.Models(),
		})
	}

	s.writeJSON(w, response)
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
	}

	if _, err := s.store.ListMeetings(ctx, store.MeetingFilter{Limit: 1}); err != nil {
		health.Status = "degraded"
		health.Warning = "database unreachable"
	}

	s.writeJSON(w, health)
}

// runRetention triggers a retention sweep. Restricted to localhost on
// top of token auth since it deletes data.
func (s *Server) runRetention(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if !isLocalhost(r.RemoteAddr) {
		http.Error(w, "Localhost only", http.StatusForbidden)
		return
	}

	deleted, err := s.store.RunRetention(ctx)
	if err != nil {
		s.logger.Error("retention sweep failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("retention sweep", "deleted", deleted)
	s.writeJSON(w, map[string]int64{"deleted": deleted})
}

// isLocalhost reports whether an address refers to the local machine.
func isLocalhost(addr string) bool {
	host := addr
	if strings.HasPrefix(host, "[") {
		if idx := strings.Index(host, "]"); idx != -1 {
			host = host[1:idx]
		}
	} else if idx := strings.LastIndex(host, ":"); idx != -1 && strings.Count(host, ":") == 1 {
		host = host[:idx]
	}
	return host == "127.0.0.1" || host == "localhost" || host == "::1"
}

// lookupMeeting resolves the {id} path value to a meeting, writing the
// error response itself when the lookup fails.
func (s *Server) lookupMeeting(ctx context.Context, w http.ResponseWriter, r *http.Request) (*store.Meeting, bool) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Missing meeting ID", http.StatusBadRequest)
		return nil, false
	}

	meeting, err := s.store.GetMeeting(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.logger.Error("failed to get meeting", "id", id, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return nil, false
	}
	return meeting, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// API response types

// MeetingResponse is the API view of a meeting.
type MeetingResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Language  *string   `json:"language,omitempty"`
	Error     *string   `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TranscriptResponse is the API view of one transcript version.
type TranscriptResponse struct {
	MeetingID string    `json:"meeting_id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentResponse is the API view of a generated document.
type DocumentResponse struct {
	MeetingID string    `json:"meeting_id"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	Model     *string   `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UsageRecordResponse is the API view of one usage record.
type UsageRecordResponse struct {
	ID                  string    `json:"id"`
	MeetingID           *string   `json:"meeting_id,omitempty"`
	Provider            string    `json:"provider"`
	Model               string    `json:"model"`
	Operation           string    `json:"operation"`
	InputTokens         int       `json:"input_tokens"`
	OutputTokens        int       `json:"output_tokens"`
	CacheCreationTokens int       `json:"cache_creation_tokens"`
	CacheReadTokens     int       `json:"cache_read_tokens"`
	Cost                float64   `json:"cost"`
	CreatedAt           time.Time `json:"created_at"`
}

// UsageSummaryResponse is the API view of aggregated usage.
type UsageSummaryResponse struct {
	Calls               int     `json:"calls"`
	InputTokens         int     `json:"input_tokens"`
	OutputTokens        int     `json:"output_tokens"`
	CacheCreationTokens int     `json:"cache_creation_tokens"`
	CacheReadTokens     int     `json:"cache_read_tokens"`
	Cost                float64 `json:"cost"`
}

// ProviderResponse describes one LLM provider.
type ProviderResponse struct {
	Name       string   `json:"name"`
	Configured bool     `json:"configured"`
	Default    bool     `json:"default"`
	Models     []string `json:"models"`
}

// HealthResponse is the API response for health status.
type HealthResponse struct {
	Status    string    `json:"status"` // "ok" or "degraded"
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	Warning   string    `json:"warning,omitempty"`
}

func toMeetingResponse(m *store.Meeting) MeetingResponse {
	return MeetingResponse{
		ID:        m.ID,
		Title:     m.Title,
		Status:    m.Status,
		Language:  m.Language,
		Error:     m.Error,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toDocumentResponse(d *store.Document) DocumentResponse {
	return DocumentResponse{
		MeetingID: d.MeetingID,
		Kind:      d.Kind,
		Content:   d.Content,
		Model:     d.Model,
		CreatedAt: d.CreatedAt,
	}
}

func toUsageRecordResponse(u *store.UsageRecord) UsageRecordResponse {
	return UsageRecordResponse{
		ID:                  u.ID,
		MeetingID:           u.MeetingID,
		Provider:            u.Provider,
		Model:               u.Model,
		Operation:           u.Operation,
		InputTokens:         u.InputTokens,
		OutputTokens:        u.OutputTokens,
		CacheCreationTokens: u.CacheCreationTokens,
		CacheReadTokens:     u.CacheReadTokens,
		Cost:                u.Cost,
		CreatedAt:           u.CreatedAt,
	}
}
