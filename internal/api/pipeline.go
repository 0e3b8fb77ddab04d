package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avoronin/meetscribe/internal/analyze"
	"github.com/avoronin/meetscribe/internal/docgen"
	"github.com/avoronin/meetscribe/internal/llm"
	"github.com/avoronin/meetscribe/internal/redact"
	"github.com/avoronin/meetscribe/internal/store"
	"github.com/avoronin/meetscribe/internal/transcribe"
	"github.com/avoronin/meetscribe/internal/ws"
)

// Stage timeouts. Transcription is bounded by upload length, generation
// by the number of progressive steps.
const (
	transcribeTimeout = 15 * time.Minute
	analyzeTimeout    = 5 * time.Minute
	generateTimeout   = 30 * time.Minute
)

// Usage record operation names.
const (
	opIdentifySpeakers    = "speaker_identification"
	opIdentifyCorrections = "correction"
	opGenerateTranscript  = "generate_transcript"
	opGenerateSummary     = "generate_summary"
)

// llmRequest is the optional JSON body of the LLM-backed pipeline
// endpoints. Omitted fields fall back to the configured defaults.
type llmRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// Context is extra domain vocabulary for the correction pass.
	Context string `json:"context"`

	// Kinds selects which documents to generate; empty means both.
	Kinds []string `json:"kinds"`
}

// decodeLLMRequest reads an optional JSON body. An empty body is valid
// and yields the zero request.
func decodeLLMRequest(r *http.Request) (llmRequest, error) {
	var req llmRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, nil
}

// strategyFor builds the strategy for a pipeline request and resolves
// the model to use with it.
func (s *Server) strategyFor(req llmRequest) (*llm.Strategy, string, error) {
	provider := req.Provider
	if provider == "" {
		provider = s.cfg.LLM.DefaultProvider
	}

	strategy, err := s.newStrategy(provider)
	if err != nil {
		return nil, "", err
	}

	model := req.Model
	if model == "" && provider == s.cfg.LLM.DefaultProvider {
		model = s.cfg.LLM.DefaultModel
	}
	if model == "" {
		models := strategy.Models()
		if len(models) == 0 {
			return nil, "", llm.ErrUnknownModel
		}
		model = models[0]
	}
	return strategy, model, nil
}

// transcribeMeeting runs speech-to-text on the meeting's audio and
// stores the raw transcript.
func (s *Server) transcribeMeeting(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), transcribeTimeout)
	defer cancel()

	meeting, ok := s.lookupMeeting(ctx, w, r)
	if !ok {
		return
	}
	if meeting.AudioFile == "" {
		http.Error(w, "Meeting has no audio file", http.StatusConflict)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastStageStarted(meeting, ws.StageTranscription)
	}

	result, err := s.transcriber.Transcribe(ctx, meeting.AudioFile)
	if err != nil {
		s.failStage(ctx, meeting, ws.StageTranscription, err)
		http.Error(w, "Transcription failed", http.StatusBadGateway)
		return
	}

	text := transcribe.PlainText(result)
	rec := &store.Transcript{
		ID:        uuid.NewString(),
		MeetingID: meeting.ID,
		Kind:      store.TranscriptRaw,
		Text:      text,
	}
	if err := s.store.SaveTranscript(ctx, rec); err != nil {
		s.logger.Error("failed to save transcript", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	meeting.Status = store.StatusTranscribed
	meeting.Error = nil
	if result.LanguageCode != "" {
		lang := result.LanguageCode
		meeting.Language = &lang
	}
	if err := s.store.UpdateMeeting(ctx, meeting); err != nil {
		s.logger.Error("failed to update meeting", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastStageCompleted(meeting, ws.StageTranscription)
	}
	s.logger.Info("transcription stored", "id", meeting.ID, "words", len(result.Words), "language", result.LanguageCode)

	s.writeJSON(w, TranscriptResponse{
		MeetingID: meeting.ID,
		Kind:      rec.Kind,
		Text:      rec.Text,
	})
}

// analyzeMeeting identifies speakers on the latest transcript, stores
// the renamed transcript, and persists the analysis as a document.
func (s *Server) analyzeMeeting(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	meeting, ok := s.lookupMeeting(ctx, w, r)
	if !ok {
		return
	}

	req, err := decodeLLMRequest(r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	transcriptRec, err := s.store.LatestTranscript(ctx, meeting.ID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Meeting has no transcript", http.StatusConflict)
		return
	}
	if err != nil {
		s.logger.Error("failed to load transcript", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	strategy, model, err := s.strategyFor(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastStageStarted(meeting, ws.StageAnalysis)
	}

	result, err := analyze.IdentifySpeakers(ctx, strategy, transcriptRec.Text, analyze.Options{
		Model:       model,
		MaxTokens:   s.cfg.LLM.MaxTokens,
		Temperature: s.cfg.LLM.Temperature,
	})
	if err != nil {
		s.failStage(ctx, meeting, ws.StageAnalysis, err)
		http.Error(w, "Analysis failed", http.StatusBadGateway)
		return
	}

	s.totals.Record(strategy)
	s.recordUsage(ctx, meeting.ID, strategy, opIdentifySpeakers)

	named := analyze.RenameSpeakers(transcriptRec.Text, result.Speakers)
	if err := s.store.SaveTranscript(ctx, &store.Transcript{
		ID:        uuid.NewString(),
		MeetingID: meeting.ID,
		Kind:      store.TranscriptNamed,
		Text:      named,
	}); err != nil {
		s.logger.Error("failed to save named transcript", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	// The analysis itself is kept as a document so the speaker map can
	// be reloaded for later generation runs.
	analysisJSON, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("failed to encode analysis", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if err := s.store.SaveDocument(ctx, &store.Document{
		ID:        uuid.NewString(),
		MeetingID: meeting.ID,
		Kind:      store.DocumentAnalysis,
		Content:   string(analysisJSON),
		Model:     &model,
	}); err != nil {
		s.logger.Error("failed to save analysis document", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	meeting.Status = store.StatusAnalyzed
	meeting.Error = nil
	if err := s.store.UpdateMeeting(ctx, meeting); err != nil {
		s.logger.Error("failed to update meeting", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastStageCompleted(meeting, ws.StageAnalysis)
	}
	s.logger.Info("speakers identified", "id", meeting.ID, "speakers", len(result.Speakers), "model", model)

	s.writeJSON(w, result)
}

// correctMeeting asks the model for recognition fixes, applies them to
// the latest transcript, and stores the corrected version.
func (s *Server) correctMeeting(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	meeting, ok := s.lookupMeeting(ctx, w, r)
	if !ok {
		return
	}

	req, err := decodeLLMRequest(r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	transcriptRec, err := s.store.LatestTranscript(ctx, meeting.ID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Meeting has no transcript", http.StatusConflict)
		return
	}
	if err != nil {
		s.logger.Error("failed to load transcript", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	strategy, model, err := s.strategyFor(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastStageStarted(meeting, ws.StageCorrection)
	}

	result, err := analyze.IdentifyCorrections(ctx, strategy, transcriptRec.Text, req.Context, analyze.Options{
		Model:       model,
		MaxTokens:   s.cfg.LLM.MaxTokens,
		Temperature: s.cfg.LLM.Temperature,
	})
	if err != nil {
		s.failStage(ctx, meeting, ws.StageCorrection, err)
		http.Error(w, "Correction failed", http.StatusBadGateway)
		return
	}

	s.totals.Record(strategy)
	s.recordUsage(ctx, meeting.ID, strategy, opIdentifyCorrections)

	corrected := analyze.ApplyCorrections(transcriptRec.Text, result.Corrections)
	if err := s.store.SaveTranscript(ctx, &store.Transcript{
		ID:        uuid.NewString(),
		MeetingID: meeting.ID,
		Kind:      store.TranscriptCorrected,
		Text:      corrected,
	}); err != nil {
		s.logger.Error("failed to save corrected transcript", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	meeting.Error = nil
	if err := s.store.UpdateMeeting(ctx, meeting); err != nil {
		s.logger.Error("failed to update meeting", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastStageCompleted(meeting, ws.StageCorrection)
	}
	s.logger.Info("corrections applied", "id", meeting.ID, "corrections", len(result.Corrections), "model", model)

	s.writeJSON(w, result)
}

// generateDocuments produces the transcript document and/or meeting
// summary from the latest transcript.
func (s *Server) generateDocuments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	meeting, ok := s.lookupMeeting(ctx, w, r)
	if !ok {
		return
	}

	req, err := decodeLLMRequest(r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	wantTranscript, wantSummary, err := documentKinds(req.Kinds)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	transcriptRec, err := s.store.LatestTranscript(ctx, meeting.ID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Meeting has no transcript", http.StatusConflict)
		return
	}
	if err != nil {
		s.logger.Error("failed to load transcript", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	strategy, model, err := s.strategyFor(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	speakers := s.loadSpeakers(ctx, meeting.ID)

	if s.hub != nil {
		s.hub.BroadcastStageStarted(meeting, ws.StageGeneration)
	}

	gen := docgen.New(strategy, s.totals, s.logger)
	baseOpts := docgen.Options{
		Model:       model,
		Temperature: s.cfg.LLM.Temperature,
		MaxTokens:   s.cfg.LLM.MaxTokens,
	}
	optsFor := func(kind string) docgen.Options {
		opts := baseOpts
		if s.hub != nil {
			opts.Progress = func(step, total int) {
				s.hub.BroadcastDocumentProgress(meeting, kind, step, total)
			}
		}
		return opts
	}

	var response []DocumentResponse
	if wantTranscript {
		content, err := gen.TranscriptDocument(ctx, transcriptRec.Text, speakers, optsFor(store.DocumentTranscript))
		s.recordUsage(ctx, meeting.ID, strategy, opGenerateTranscript)
		if err != nil {
			s.failStage(ctx, meeting, ws.StageGeneration, err)
			http.Error(w, "Generation failed", http.StatusBadGateway)
			return
		}
		doc, err := s.saveDocument(ctx, meeting.ID, store.DocumentTranscript, content, model)
		if err != nil {
			s.logger.Error("failed to save document", "id", meeting.ID, "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		response = append(response, toDocumentResponse(doc))
	}
	if wantSummary {
		content, err := gen.MeetingSummary(ctx, transcriptRec.Text, speakers, optsFor(store.DocumentSummary))
		s.recordUsage(ctx, meeting.ID, strategy, opGenerateSummary)
		if err != nil {
			s.failStage(ctx, meeting, ws.StageGeneration, err)
			http.Error(w, "Generation failed", http.StatusBadGateway)
			return
		}
		doc, err := s.saveDocument(ctx, meeting.ID, store.DocumentSummary, content, model)
		if err != nil {
			s.logger.Error("failed to save document", "id", meeting.ID, "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		response = append(response, toDocumentResponse(doc))
	}

	meeting.Status = store.StatusDocumented
	meeting.Error = nil
	if err := s.store.UpdateMeeting(ctx, meeting); err != nil {
		s.logger.Error("failed to update meeting", "id", meeting.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastStageCompleted(meeting, ws.StageGeneration)
	}
	s.logger.Info("documents generated", "id", meeting.ID, "count", len(response), "model", model)

	s.writeJSON(w, response)
}

// documentKinds validates the requested document kinds. Empty means
// both.
func documentKinds(kinds []string) (wantTranscript, wantSummary bool, err error) {
	if len(kinds) == 0 {
		return true, true, nil
	}
	for _, k := range kinds {
		switch k {
		case store.DocumentTranscript:
			wantTranscript = true
		case store.DocumentSummary:
			wantSummary = true
		default:
			return false, false, errors.New("unknown document kind: " + k)
		}
	}
	return wantTranscript, wantSummary, nil
}

// loadSpeakers reloads the speaker map from a stored analysis
// document. Generation works without one; speakers then appear under
// their diarization labels.
func (s *Server) loadSpeakers(ctx context.Context, meetingID string) map[string]analyze.Speaker {
	doc, err := s.store.GetDocument(ctx, meetingID, store.DocumentAnalysis)
	if err != nil {
		return nil
	}

	var result analyze.SpeakerResult
	if err := json.Unmarshal([]byte(doc.Content), &result); err != nil {
		s.logger.Warn("stored analysis is not valid JSON", "meeting_id", meetingID, "error", err)
		return nil
	}
	return result.Speakers
}

func (s *Server) saveDocument(ctx context.Context, meetingID, kind, content, model string) (*store.Document, error) {
	doc := &store.Document{
		ID:        uuid.NewString(),
		MeetingID: meetingID,
		Kind:      kind,
		Content:   content,
		Model:     &model,
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// recordUsage persists the strategy's usage snapshot of the operation
// that just ran. Failures are logged, not surfaced; accounting must not
// break the pipeline. Usage is recorded even when the operation itself
// failed partway, since those tokens were billed too.
func (s *Server) recordUsage(ctx context.Context, meetingID string, strategy *llm.Strategy, operation string) {
	u := strategy.LastUsage()
	if u == (llm.Usage{}) {
		return
	}

	rec := &store.UsageRecord{
		ID:                  uuid.NewString(),
		MeetingID:           &meetingID,
		Provider:            strategy.Provider(),
		Model:               u.Model,
		Operation:           operation,
		InputTokens:         u.InputTokens,
		OutputTokens:        u.OutputTokens,
		CacheCreationTokens: u.CacheCreationTokens,
		CacheReadTokens:     u.CacheReadTokens,
		Cost:                strategy.Cost(),
	}
	if err := s.store.SaveUsage(ctx, rec); err != nil {
		s.logger.Warn("failed to record usage", "meeting_id", meetingID, "operation", operation, "error", err)
		return
	}
	if s.hub != nil {
		s.hub.BroadcastUsageUpdated(rec)
	}
}

// failStage marks the meeting failed and broadcasts the failure. The
// stored error message is redacted so provider responses can be shown
// without leaking credentials.
func (s *Server) failStage(ctx context.Context, m *store.Meeting, stage string, err error) {
	msg := redact.Secret(err.Error(),
		s.cfg.LLM.AnthropicAPIKey, s.cfg.LLM.OpenAIAPIKey,
		s.cfg.LLM.DeepseekAPIKey, s.cfg.Transcription.APIKey)

	m.Status = store.StatusFailed
	m.Error = &msg
	if uerr := s.store.UpdateMeeting(ctx, m); uerr != nil {
		s.logger.Error("failed to mark meeting failed", "id", m.ID, "error", uerr)
	}

	if s.hub != nil {
		s.hub.BroadcastStageFailed(m, stage, msg)
	}
	s.logger.Error("pipeline stage failed", "id", m.ID, "stage", stage, "error", msg)
}
