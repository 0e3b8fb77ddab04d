// Package store provides data persistence using SQLite.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Meeting statuses.
const (
	StatusUploaded    = "uploaded"
	StatusTranscribed = "transcribed"
	StatusAnalyzed    = "analyzed"
	StatusDocumented  = "documented"
	StatusFailed      = "failed"
)

// Transcript kinds, in pipeline order.
const (
	TranscriptRaw       = "raw"
	TranscriptNamed     = "named"
	TranscriptCorrected = "corrected"
)

// Document kinds.
const (
	DocumentTranscript = "transcript"
	DocumentSummary    = "summary"
	DocumentAnalysis   = "analysis"
)

// Meeting represents one uploaded recording and its pipeline state.
type Meeting struct {
	ID        string
	Title     string
	AudioFile string
	Status    string
	Language  *string
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transcript is one version of a meeting's transcript text.
type Transcript struct {
	ID        string
	MeetingID string
	Kind      string // 'raw', 'named', 'corrected'
	Text      string
	CreatedAt time.Time
}

// Document is a generated artifact for a meeting.
type Document struct {
	ID        string
	MeetingID string
	Kind      string // 'transcript', 'summary', 'analysis'
	Content   string
	Model     *string
	CreatedAt time.Time
}

// UsageRecord is the accounting entry for one logical LLM operation.
type UsageRecord struct {
	ID                  string
	MeetingID           *string
	Provider            string
	Model               string
	Operation           string
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	Cost                float64
	CreatedAt           time.Time
}

// UsageSummary aggregates usage records.
type UsageSummary struct {
	Calls               int
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	Cost                float64
}

// MeetingFilter defines filter criteria for meeting queries.
type MeetingFilter struct {
	Status *string
	Limit  int
	Offset int
}

// Store defines the interface for data persistence.
type Store interface {
	// Meetings
	SaveMeeting(ctx context.Context, m *Meeting) error
	UpdateMeeting(ctx context.Context, m *Meeting) error
	GetMeeting(ctx context.Context, id string) (*Meeting, error)
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]*Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error

	// Transcripts
	SaveTranscript(ctx context.Context, t *Transcript) error
	GetTranscript(ctx context.Context, meetingID, kind string) (*Transcript, error)
	LatestTranscript(ctx context.Context, meetingID string) (*Transcript, error)

	// Documents
	SaveDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, meetingID, kind string) (*Document, error)
	ListDocuments(ctx context.Context, meetingID string) ([]*Document, error)

	// Usage accounting
	SaveUsage(ctx context.Context, u *UsageRecord) error
	// ListUsage returns records for one meeting, or all records when
	// meetingID is empty.
	ListUsage(ctx context.Context, meetingID string) ([]*UsageRecord, error)
	SummarizeUsage(ctx context.Context) (*UsageSummary, error)

	// Maintenance
	RunRetention(ctx context.Context) (deleted int64, err error)

	// DB exposes the underlying database handle for analytics queries.
	// Implementations without one return nil.
	DB() interface{}

	Close() error
}
