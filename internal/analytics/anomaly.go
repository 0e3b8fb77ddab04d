package analytics

import (
	"context"
	"time"
)

// AnomalyType identifies the kind of anomaly detected.
type AnomalyType string

const (
	AnomalyHighCost     AnomalyType = "high_cost"     // Single operation cost above threshold
	AnomalyLargeContext AnomalyType = "large_context" // Unusually large input token count
	AnomalyRapidRepeats AnomalyType = "rapid_repeats" // Same operation retried many times in a short window
)

// Anomaly represents a detected issue in the usage history.
type Anomaly struct {
	Type        AnomalyType
	RecordID    string
	MeetingID   *string
	Timestamp   time.Time
	Severity    string // 'info', 'warning', 'critical'
	Description string
	Value       float64 // The actual value that triggered the anomaly
	Threshold   float64 // The threshold that was exceeded
}

// AnomalyThresholds configures what triggers anomaly detection.
type AnomalyThresholds struct {
	HighCostDollars    float64       // Cost above this = high cost
	LargeContextTokens int           // Input tokens above this = large context
	RapidRepeatWindow  time.Duration // Window for detecting rapid repeats
	RapidRepeatCount   int           // Calls of the same operation to trigger
}

// DefaultThresholds returns sensible default anomaly thresholds.
func DefaultThresholds() *AnomalyThresholds {
	return &AnomalyThresholds{
		HighCostDollars:    1.0,    // $1 per operation
		LargeContextTokens: 100000, // 100k tokens
		RapidRepeatWindow:  10 * time.Minute,
		RapidRepeatCount:   5,
	}
}

// DetectRecordAnomalies scans usage records since the given time for
// operations that were unusually expensive or carried an unusually large
// context. A truncated long-form generation that keeps re-sending the
// conversation shows up here before it shows up on the invoice.
func (e *Engine) DetectRecordAnomalies(ctx context.Context, since time.Time, thresholds *AnomalyThresholds) ([]*Anomaly, error) {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT id, meeting_id, operation, created_at, input_tokens, cost
		FROM usage_records
		WHERE created_at >= ?
		  AND (cost > ? OR input_tokens > ?)
		ORDER BY created_at DESC
		LIMIT 100
	`, since.Format(time.RFC3339Nano), thresholds.HighCostDollars, thresholds.LargeContextTokens)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var anomalies []*Anomaly
	for rows.Next() {
		var id, operation, ts string
		var meetingID *string
		var inputTokens int
		var cost float64

		if err := rows.Scan(&id, &meetingID, &operation, &ts, &inputTokens, &cost); err != nil {
			return nil, err
		}

		timestamp, _ := time.Parse(time.RFC3339Nano, ts)

		if cost > thresholds.HighCostDollars {
			anomalies = append(anomalies, &Anomaly{
				Type:        AnomalyHighCost,
				RecordID:    id,
				MeetingID:   meetingID,
				Timestamp:   timestamp,
				Severity:    "warning",
				Description: "Operation " + operation + " cost exceeds threshold",
				Value:       cost,
				Threshold:   thresholds.HighCostDollars,
			})
		}

		if inputTokens > thresholds.LargeContextTokens {
			anomalies = append(anomalies, &Anomaly{
				Type:        AnomalyLargeContext,
				RecordID:    id,
				MeetingID:   meetingID,
				Timestamp:   timestamp,
				Severity:    "warning",
				Description: "Operation " + operation + " input token count exceeds threshold",
				Value:       float64(inputTokens),
				Threshold:   float64(thresholds.LargeContextTokens),
			})
		}
	}

	return anomalies, rows.Err()
}

// DetectRapidRepeats finds operations that look like retry loops: the same
// operation billed against the same meeting many times in a short window.
func (e *Engine) DetectRapidRepeats(ctx context.Context, thresholds *AnomalyThresholds) ([]*Anomaly, error) {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT
			meeting_id,
			operation,
			COUNT(*) as count,
			MIN(created_at) as first_ts,
			COALESCE(SUM(cost), 0) as total_cost
		FROM usage_records
		WHERE meeting_id IS NOT NULL
		  AND created_at >= ?
		GROUP BY meeting_id, operation
		HAVING COUNT(*) >= ?
	`,
		time.Now().Add(-thresholds.RapidRepeatWindow).Format(time.RFC3339Nano),
		thresholds.RapidRepeatCount,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var anomalies []*Anomaly
	for rows.Next() {
		var meetingID *string
		var operation, firstTs string
		var count int
		var totalCost float64

		if err := rows.Scan(&meetingID, &operation, &count, &firstTs, &totalCost); err != nil {
			return nil, err
		}

		timestamp, _ := time.Parse(time.RFC3339Nano, firstTs)

		anomalies = append(anomalies, &Anomaly{
			Type:        AnomalyRapidRepeats,
			MeetingID:   meetingID,
			Timestamp:   timestamp,
			Severity:    "warning",
			Description: "Operation " + operation + " repeated against the same meeting",
			Value:       float64(count),
			Threshold:   float64(thresholds.RapidRepeatCount),
		})
	}

	return anomalies, rows.Err()
}

// ListRecentAnomalies combines record-level and repeat detection for
// everything since the given time.
func (e *Engine) ListRecentAnomalies(ctx context.Context, since time.Time, thresholds *AnomalyThresholds) ([]*Anomaly, error) {
	anomalies, err := e.DetectRecordAnomalies(ctx, since, thresholds)
	if err != nil {
		return nil, err
	}

	repeats, err := e.DetectRapidRepeats(ctx, thresholds)
	if err != nil {
		return anomalies, err
	}

	return append(anomalies, repeats...), nil
}
