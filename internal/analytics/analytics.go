// Package analytics provides spend and token-usage reporting over recorded
// LLM calls, plus anomaly detection for runaway costs.
package analytics

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Engine runs aggregate queries against the usage_records table.
type Engine struct {
	db *sql.DB
}

// NewEngine creates a new analytics engine.
func NewEngine(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// CostByDay is the spend aggregated over one calendar day.
type CostByDay struct {
	Day          string // ISO date
	Calls        int
	Cost         float64
	InputTokens  int
	OutputTokens int
}

// GetCostByDay returns the daily spend breakdown for a time range.
func (e *Engine) GetCostByDay(ctx context.Context, start, end time.Time) ([]*CostByDay, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT
			date(created_at) as day,
			COUNT(*) as calls,
			COALESCE(SUM(cost), 0) as cost,
			COALESCE(SUM(input_tokens), 0) as tokens_in,
			COALESCE(SUM(output_tokens), 0) as tokens_out
		FROM usage_records
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY date(created_at)
		ORDER BY day
	`, start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []*CostByDay
	for rows.Next() {
		var d CostByDay
		if err := rows.Scan(&d.Day, &d.Calls, &d.Cost, &d.InputTokens, &d.OutputTokens); err != nil {
			return nil, err
		}
		days = append(days, &d)
	}

	return days, rows.Err()
}

// ModelCost is the spend aggregated per provider/model pair.
type ModelCost struct {
	Provider     string
	Model        string
	Calls        int
	Cost         float64
	InputTokens  int
	OutputTokens int
}

// GetCostByModel returns the spend breakdown per model, most expensive first.
func (e *Engine) GetCostByModel(ctx context.Context, start, end time.Time) ([]*ModelCost, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT
			provider,
			model,
			COUNT(*) as calls,
			COALESCE(SUM(cost), 0) as cost,
			COALESCE(SUM(input_tokens), 0) as tokens_in,
			COALESCE(SUM(output_tokens), 0) as tokens_out
		FROM usage_records
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY provider, model
		ORDER BY cost DESC
	`, start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []*ModelCost
	for rows.Next() {
		var m ModelCost
		if err := rows.Scan(&m.Provider, &m.Model, &m.Calls, &m.Cost, &m.InputTokens, &m.OutputTokens); err != nil {
			return nil, err
		}
		models = append(models, &m)
	}

	return models, rows.Err()
}

// OperationStats aggregates pipeline operations of one kind.
type OperationStats struct {
	Operation      string
	Calls          int
	Cost           float64
	InputTokens    int
	OutputTokens   int
	AvgInputTokens float64
}

// GetOperationStats returns per-operation statistics, busiest first.
func (e *Engine) GetOperationStats(ctx context.Context, start, end time.Time) ([]*OperationStats, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT
			operation,
			COUNT(*) as calls,
			COALESCE(SUM(cost), 0) as cost,
			COALESCE(SUM(input_tokens), 0) as tokens_in,
			COALESCE(SUM(output_tokens), 0) as tokens_out
		FROM usage_records
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY operation
		ORDER BY calls DESC
	`, start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*OperationStats
	for rows.Next() {
		var s OperationStats
		if err := rows.Scan(&s.Operation, &s.Calls, &s.Cost, &s.InputTokens, &s.OutputTokens); err != nil {
			return nil, err
		}
		if s.Calls > 0 {
			s.AvgInputTokens = float64(s.InputTokens) / float64(s.Calls)
		}
		stats = append(stats, &s)
	}

	return stats, rows.Err()
}

// MeetingCost aggregates the LLM spend attributed to one meeting.
type MeetingCost struct {
	MeetingID    string
	Calls        int
	Cost         float64
	InputTokens  int
	OutputTokens int
	FirstCall    time.Time
	LastCall     time.Time
	Models       []string
}

// ListMeetingCosts returns per-meeting spend for a time range, most
// expensive first. Records whose meeting was deleted are excluded.
func (e *Engine) ListMeetingCosts(ctx context.Context, start, end time.Time, limit int) ([]*MeetingCost, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT
			meeting_id,
			COUNT(*) as calls,
			COALESCE(SUM(cost), 0) as cost,
			COALESCE(SUM(input_tokens), 0) as tokens_in,
			COALESCE(SUM(output_tokens), 0) as tokens_out,
			MIN(created_at) as first_call,
			MAX(created_at) as last_call,
			GROUP_CONCAT(DISTINCT model) as models
		FROM usage_records
		WHERE meeting_id IS NOT NULL
		  AND created_at >= ?
		  AND created_at <= ?
		GROUP BY meeting_id
		ORDER BY cost DESC
		LIMIT ?
	`, start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []*MeetingCost
	for rows.Next() {
		var m MeetingCost
		var firstCall, lastCall string
		var models sql.NullString

		err := rows.Scan(
			&m.MeetingID,
			&m.Calls,
			&m.Cost,
			&m.InputTokens,
			&m.OutputTokens,
			&firstCall,
			&lastCall,
			&models,
		)
		if err != nil {
			return nil, err
		}

		m.FirstCall, _ = time.Parse(time.RFC3339Nano, firstCall)
		m.LastCall, _ = time.Parse(time.RFC3339Nano, lastCall)
		if models.Valid && models.String != "" {
			m.Models = strings.Split(models.String, ",")
		}

		meetings = append(meetings, &m)
	}

	return meetings, rows.Err()
}

// OverallStats summarizes all usage in a time range.
type OverallStats struct {
	Calls               int
	Cost                float64
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	Meetings            int
	AvgCostPerCall      float64
}

// GetOverallStats returns summary statistics for a time range.
func (e *Engine) GetOverallStats(ctx context.Context, start, end time.Time) (*OverallStats, error) {
	row := e.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as calls,
			COALESCE(SUM(cost), 0) as cost,
			COALESCE(SUM(input_tokens), 0) as tokens_in,
			COALESCE(SUM(output_tokens), 0) as tokens_out,
			COALESCE(SUM(cache_creation_tokens), 0) as cache_creation,
			COALESCE(SUM(cache_read_tokens), 0) as cache_read,
			COUNT(DISTINCT meeting_id) as meetings
		FROM usage_records
		WHERE created_at >= ? AND created_at <= ?
	`, start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano))

	var stats OverallStats
	err := row.Scan(
		&stats.Calls,
		&stats.Cost,
		&stats.InputTokens,
		&stats.OutputTokens,
		&stats.CacheCreationTokens,
		&stats.CacheReadTokens,
		&stats.Meetings,
	)
	if err != nil {
		return nil, err
	}

	if stats.Calls > 0 {
		stats.AvgCostPerCall = stats.Cost / float64(stats.Calls)
	}

	return &stats, nil
}
