package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db            *sql.DB
	retentionDays int
}

// NewSQLiteStore creates a new SQLite store. retentionDays bounds how
// long finished meetings are kept; 0 disables retention.
func NewSQLiteStore(dbPath string, retentionDays int) (*SQLiteStore, error) {
	// Open database with WAL mode and recommended pragmas
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Force a connection to ensure the file is created
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Enable foreign keys for CASCADE behavior
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Transcripts may contain sensitive meeting content, keep the file
	// owner-only where the platform allows it.
	_ = setSecureFilePermissions(dbPath)

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{
		db:            db,
		retentionDays: retentionDays,
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

// setSecureFilePermissions sets restrictive permissions on the database
// file. Best-effort on Windows, where file security is ACL-based.
func setSecureFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}

	// WAL and SHM files may not exist yet, ignore errors.
	os.Chmod(path+"-wal", 0600)
	os.Chmod(path+"-shm", 0600)

	return nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version WHERE id = 1").Scan(&version)
	if err != nil {
		if _, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				version INTEGER NOT NULL,
				applied_at TEXT NOT NULL DEFAULT (datetime('now'))
			);
			INSERT OR IGNORE INTO schema_version (id, version) VALUES (1, 0);
		`); err != nil {
			return fmt.Errorf("creating schema_version: %w", err)
		}
		version = 0
	}

	migrations := []string{
		migrationV1, // Initial schema
	}

	for i := version; i < len(migrations); i++ {
		if _, err := s.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
		if _, err := s.db.Exec("UPDATE schema_version SET version = ?, applied_at = datetime('now') WHERE id = 1", i+1); err != nil {
			return fmt.Errorf("updating version to %d: %w", i+1, err)
		}
	}

	return nil
}

const migrationV1 = `
-- Meetings table
CREATE TABLE IF NOT EXISTS meetings (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	audio_file TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'uploaded' CHECK (status IN ('uploaded', 'transcribed', 'analyzed', 'documented', 'failed')),
	language TEXT,
	error TEXT,
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Transcripts table
CREATE TABLE IF NOT EXISTS transcripts (
	id TEXT PRIMARY KEY,
	meeting_id TEXT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
	kind TEXT NOT NULL CHECK (kind IN ('raw', 'named', 'corrected')),
	text TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Documents table
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	meeting_id TEXT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
	kind TEXT NOT NULL CHECK (kind IN ('transcript', 'summary', 'analysis')),
	content TEXT NOT NULL,
	model TEXT,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Usage records table
CREATE TABLE IF NOT EXISTS usage_records (
	id TEXT PRIMARY KEY,
	meeting_id TEXT REFERENCES meetings(id) ON DELETE SET NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	operation TEXT NOT NULL,
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	cache_creation_tokens INTEGER NOT NULL DEFAULT 0,
	cache_read_tokens INTEGER NOT NULL DEFAULT 0,
	cost REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_meetings_status_created ON meetings(status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transcripts_meeting ON transcripts(meeting_id, kind);
CREATE INDEX IF NOT EXISTS idx_documents_meeting ON documents(meeting_id, kind);
CREATE INDEX IF NOT EXISTS idx_usage_meeting ON usage_records(meeting_id, created_at);
CREATE INDEX IF NOT EXISTS idx_usage_provider ON usage_records(provider, model, created_at);
`

// SaveMeeting inserts a new meeting.
func (s *SQLiteStore) SaveMeeting(ctx context.Context, m *Meeting) error {
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meetings (id, title, audio_file, status, language, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID, m.Title, m.AudioFile, m.Status, m.Language, m.Error,
		m.CreatedAt.Format(time.RFC3339Nano), m.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// UpdateMeeting updates an existing meeting's mutable fields.
func (s *SQLiteStore) UpdateMeeting(ctx context.Context, m *Meeting) error {
	m.UpdatedAt = time.Now()

	res, err := s.db.ExecContext(ctx, `
		UPDATE meetings SET title = ?, status = ?, language = ?, error = ?, updated_at = ?
		WHERE id = ?
	`,
		m.Title, m.Status, m.Language, m.Error,
		m.UpdatedAt.Format(time.RFC3339Nano), m.ID,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMeeting retrieves a meeting by ID.
func (s *SQLiteStore) GetMeeting(ctx context.Context, id string) (*Meeting, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, audio_file, status, language, error, created_at, updated_at
		FROM meetings WHERE id = ?
	`, id)

	m, err := scanMeeting(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

// ListMeetings returns meetings matching the filter, newest first.
func (s *SQLiteStore) ListMeetings(ctx context.Context, filter MeetingFilter) ([]*Meeting, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT id, title, audio_file, status, language, error, created_at, updated_at
		FROM meetings WHERE 1=1
	`)

	args := []interface{}{}

	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, *filter.Status)
	}

	query.WriteString(" ORDER BY created_at DESC")

	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []*Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}

	return meetings, rows.Err()
}

// DeleteMeeting deletes a meeting and its associated data.
func (s *SQLiteStore) DeleteMeeting(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM meetings WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveTranscript inserts a transcript version.
func (s *SQLiteStore) SaveTranscript(ctx context.Context, t *Transcript) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcripts (id, meeting_id, kind, text, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, t.ID, t.MeetingID, t.Kind, t.Text, t.CreatedAt.Format(time.RFC3339Nano))
	return err
}

// GetTranscript returns the newest transcript of the given kind.
func (s *SQLiteStore) GetTranscript(ctx context.Context, meetingID, kind string) (*Transcript, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, meeting_id, kind, text, created_at
		FROM transcripts WHERE meeting_id = ? AND kind = ?
		ORDER BY rowid DESC LIMIT 1
	`, meetingID, kind)

	t, err := scanTranscript(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

// LatestTranscript returns the most refined transcript available:
// corrected over named over raw.
func (s *SQLiteStore) LatestTranscript(ctx context.Context, meetingID string) (*Transcript, error) {
	for _, kind := range []string{TranscriptCorrected, TranscriptNamed, TranscriptRaw} {
		t, err := s.GetTranscript(ctx, meetingID, kind)
		if err == ErrNotFound {
			continue
		}
		return t, err
	}
	return nil, ErrNotFound
}

// SaveDocument inserts a generated document.
func (s *SQLiteStore) SaveDocument(ctx context.Context, d *Document) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, meeting_id, kind, content, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.ID, d.MeetingID, d.Kind, d.Content, d.Model, d.CreatedAt.Format(time.RFC3339Nano))
	return err
}

// GetDocument returns the newest document of the given kind.
func (s *SQLiteStore) GetDocument(ctx context.Context, meetingID, kind string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, meeting_id, kind, content, model, created_at
		FROM documents WHERE meeting_id = ? AND kind = ?
		ORDER BY rowid DESC LIMIT 1
	`, meetingID, kind)

	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return d, err
}

// ListDocuments returns all documents for a meeting, newest first.
func (s *SQLiteStore) ListDocuments(ctx context.Context, meetingID string) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, meeting_id, kind, content, model, created_at
		FROM documents WHERE meeting_id = ? ORDER BY rowid DESC
	`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, d)
	}

	return documents, rows.Err()
}

// SaveUsage inserts a usage record.
func (s *SQLiteStore) SaveUsage(ctx context.Context, u *UsageRecord) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records (
			id, meeting_id, provider, model, operation,
			input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens,
			cost, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		u.ID, u.MeetingID, u.Provider, u.Model, u.Operation,
		u.InputTokens, u.OutputTokens, u.CacheCreationTokens, u.CacheReadTokens,
		u.Cost, u.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// ListUsage returns the usage records for a meeting in insertion order.
// An empty meetingID returns every record.
func (s *SQLiteStore) ListUsage(ctx context.Context, meetingID string) ([]*UsageRecord, error) {
	query := `
		SELECT id, meeting_id, provider, model, operation,
			input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens,
			cost, created_at
		FROM usage_records`
	var args []interface{}
	if meetingID != "" {
		query += " WHERE meeting_id = ?"
		args = append(args, meetingID)
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*UsageRecord
	for rows.Next() {
		var u UsageRecord
		var meeting sql.NullString
		var createdAt string

		err := rows.Scan(
			&u.ID, &meeting, &u.Provider, &u.Model, &u.Operation,
			&u.InputTokens, &u.OutputTokens, &u.CacheCreationTokens, &u.CacheReadTokens,
			&u.Cost, &createdAt,
		)
		if err != nil {
			return nil, err
		}

		if meeting.Valid {
			u.MeetingID = &meeting.String
		}
		u.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		records = append(records, &u)
	}

	return records, rows.Err()
}

// SummarizeUsage aggregates all usage records.
func (s *SQLiteStore) SummarizeUsage(ctx context.Context) (*UsageSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(cache_creation_tokens), 0),
			COALESCE(SUM(cache_read_tokens), 0),
			COALESCE(SUM(cost), 0)
		FROM usage_records
	`)

	var summary UsageSummary
	err := row.Scan(
		&summary.Calls, &summary.InputTokens, &summary.OutputTokens,
		&summary.CacheCreationTokens, &summary.CacheReadTokens, &summary.Cost,
	)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// RunRetention deletes meetings older than the retention window.
// Transcripts and documents cascade; usage records survive with a
// detached meeting id so accounting stays complete.
func (s *SQLiteStore) RunRetention(ctx context.Context) (int64, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM meetings WHERE created_at < datetime('now', ?)",
		fmt.Sprintf("-%d days", s.retentionDays),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DB returns the underlying *sql.DB for analytics queries.
func (s *SQLiteStore) DB() interface{} {
	return s.db
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMeeting(row scanner) (*Meeting, error) {
	var m Meeting
	var language, errText sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&m.ID, &m.Title, &m.AudioFile, &m.Status, &language, &errText, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if language.Valid {
		m.Language = &language.String
	}
	if errText.Valid {
		m.Error = &errText.String
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	m.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return &m, nil
}

func scanTranscript(row scanner) (*Transcript, error) {
	var t Transcript
	var createdAt string

	err := row.Scan(&t.ID, &t.MeetingID, &t.Kind, &t.Text, &createdAt)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &t, nil
}

func scanDocument(row scanner) (*Document, error) {
	var d Document
	var model sql.NullString
	var createdAt string

	err := row.Scan(&d.ID, &d.MeetingID, &d.Kind, &d.Content, &model, &createdAt)
	if err != nil {
		return nil, err
	}

	if model.Valid {
		d.Model = &model.String
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &d, nil
}
