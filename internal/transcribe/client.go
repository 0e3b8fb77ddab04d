// Package transcribe uploads audio to the ElevenLabs speech-to-text API
// and converts the diarized word stream into speaker-attributed
// transcripts.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avoronin/meetscribe/internal/redact"
)

const (
	// DefaultAPIURL is the ElevenLabs speech-to-text endpoint.
	DefaultAPIURL = "https://api.elevenlabs.io/v1/speech-to-text"

	// DefaultModelID is the transcription model to request.
	DefaultModelID = "scribe_v1"

	// DefaultTimeout bounds one transcription upload. Large recordings
	// take a while to process server-side.
	DefaultTimeout = 10 * time.Minute
)

// Word is one element of the recognized word stream. Type distinguishes
// real words from spacing fillers and detected audio events (laughter,
// applause).
type Word struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	SpeakerID  string  `json:"speaker_id"`
	AudioEvent string  `json:"audio_event"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

// Result is the raw API response.
type Result struct {
	LanguageCode        string  `json:"language_code"`
	LanguageProbability float64 `json:"language_probability"`
	Text                string  `json:"text"`
	Words               []Word  `json:"words"`
}

// Config configures the transcription client.
type Config struct {
	APIKey  string
	APIURL  string        // "" = DefaultAPIURL
	ModelID string        // "" = DefaultModelID
	Timeout time.Duration // 0 = DefaultTimeout
	Logger  *slog.Logger
}

// Client calls the ElevenLabs speech-to-text API.
type Client struct {
	apiKey  string
	apiURL  string
	modelID string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a transcription client.
func NewClient(cfg Config) *Client {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = DefaultModelID
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:  cfg.APIKey,
		apiURL:  apiURL,
		modelID: modelID,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Transcribe uploads the audio file and returns the recognition result.
// Diarization and audio-event detection are always requested.
func (c *Client) Transcribe(ctx context.Context, filePath string) (*Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("elevenlabs API key not configured")
	}

	audio, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening audio file: %w", err)
	}
	defer audio.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		defer pw.Close()
		part, err := form.CreateFormFile("file", filepath.Base(filePath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, audio); err != nil {
			pw.CloseWithError(err)
			return
		}
		fields := map[string]string{
			"model_id":            c.modelID,
			"diarize":             "true",
			"detect_audio_events": "true",
		}
		for name, value := range fields {
			if err := form.WriteField(name, value); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, pr)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	c.logger.Info("transcription started", "file", filepath.Base(filePath))
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %s", redact.Secret(err.Error(), c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs: HTTP %d: %s", resp.StatusCode, redact.Secret(string(body), c.apiKey))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription response: %w", err)
	}

	c.logger.Info("transcription completed",
		"file", filepath.Base(filePath),
		"language", result.LanguageCode,
		"words", len(result.Words),
		"duration", time.Since(start).Round(time.Second),
	)
	return &result, nil
}
