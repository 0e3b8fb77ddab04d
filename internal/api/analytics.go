package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/avoronin/meetscribe/internal/analytics"
)

// parseTimeRange extracts start/end times from query params (default: last 30 days).
func (s *Server) parseTimeRange(r *http.Request) (start, end time.Time) {
	end = time.Now()
	start = end.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("start"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			start = t
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			end = t
		}
	}

	return start, end
}

// analyticsSummary returns overall spend statistics for a time range.
func (s *Server) analyticsSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if s.analytics == nil {
		http.Error(w, "Analytics unavailable", http.StatusServiceUnavailable)
		return
	}

	start, end := s.parseTimeRange(r)

	stats, err := s.analytics.GetOverallStats(ctx, start, end)
	if err != nil {
		s.logger.Error("failed to get overall stats", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, OverallStatsResponse{
		Calls:               stats.Calls,
		Cost:                stats.Cost,
		InputTokens:         stats.InputTokens,
		OutputTokens:        stats.OutputTokens,
		CacheCreationTokens: stats.CacheCreationTokens,
		CacheReadTokens:     stats.CacheReadTokens,
		Meetings:            stats.Meetings,
		AvgCostPerCall:      stats.AvgCostPerCall,
		StartTime:           start,
		EndTime:             end,
	})
}

// analyticsCostByDay returns the daily spend breakdown.
func (s *Server) analyticsCostByDay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if s.analytics == nil {
		http.Error(w, "Analytics unavailable", http.StatusServiceUnavailable)
		return
	}

	start, end := s.parseTimeRange(r)

	days, err := s.analytics.GetCostByDay(ctx, start, end)
	if err != nil {
		s.logger.Error("failed to get daily costs", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	response := make([]CostByDayResponse, 0, len(days))
	for _, d := range days {
		response = append(response, CostByDayResponse{
			Day:          d.Day,
			Calls:        d.Calls,
			Cost:         d.Cost,
			InputTokens:  d.InputTokens,
			OutputTokens: d.OutputTokens,
		})
	}

	s.writeJSON(w, response)
}

// analyticsCostByModel returns the per-model spend breakdown.
func (s *Server) analyticsCostByModel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if s.analytics == nil {
		http.Error(w, "Analytics unavailable", http.StatusServiceUnavailable)
		return
	}

	start, end := s.parseTimeRange(r)

	models, err := s.analytics.GetCostByModel(ctx, start, end)
	if err != nil {
		s.logger.Error("failed to get model costs", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	response := make([]ModelCostResponse, 0, len(models))
	for _, m := range models {
		response = append(response, ModelCostResponse{
			Provider:     m.Provider,
			Model:        m.Model,
			Calls:        m.Calls,
			Cost:         m.Cost,
			InputTokens:  m.InputTokens,
			OutputTokens: m.OutputTokens,
		})
	}

	s.writeJSON(w, response)
}

// analyticsOperations returns per-operation statistics.
func (s *Server) analyticsOperations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if s.analytics == nil {
		http.Error(w, "Analytics unavailable", http.StatusServiceUnavailable)
		return
	}

	start, end := s.parseTimeRange(r)

	stats, err := s.analytics.GetOperationStats(ctx, start, end)
	if err != nil {
		s.logger.Error("failed to get operation stats", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	response := make([]OperationStatsResponse, 0, len(stats))
	for _, st := range stats {
		response = append(response, OperationStatsResponse{
			Operation:      st.Operation,
			Calls:          st.Calls,
			Cost:           st.Cost,
			InputTokens:    st.InputTokens,
			OutputTokens:   st.OutputTokens,
			AvgInputTokens: st.AvgInputTokens,
		})
	}

	s.writeJSON(w, response)
}

// analyticsMeetingCosts returns per-meeting spend, most expensive first.
func (s *Server) analyticsMeetingCosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if s.analytics == nil {
		http.Error(w, "Analytics unavailable", http.StatusServiceUnavailable)
		return
	}

	start, end := s.parseTimeRange(r)
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	meetings, err := s.analytics.ListMeetingCosts(ctx, start, end, limit)
	if err != nil {
		s.logger.Error("failed to get meeting costs", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	response := make([]MeetingCostResponse, 0, len(meetings))
	for _, m := range meetings {
		response = append(response, MeetingCostResponse{
			MeetingID:    m.MeetingID,
			Calls:        m.Calls,
			Cost:         m.Cost,
			InputTokens:  m.InputTokens,
			OutputTokens: m.OutputTokens,
			FirstCall:    m.FirstCall,
			LastCall:     m.LastCall,
			Models:       m.Models,
		})
	}

	s.writeJSON(w, response)
}

// analyticsAnomalies returns recent spend anomalies.
func (s *Server) analyticsAnomalies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if s.analytics == nil {
		http.Error(w, "Analytics unavailable", http.StatusServiceUnavailable)
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	if v := r.URL.Query().Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			since = t
		}
	}

	anomalies, err := s.analytics.ListRecentAnomalies(ctx, since, nil)
	if err != nil {
		s.logger.Error("failed to list anomalies", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	response := make([]AnomalyResponse, 0, len(anomalies))
	for _, a := range anomalies {
		response = append(response, toAnomalyResponse(a))
	}

	s.writeJSON(w, response)
}

// OverallStatsResponse is the API response for the analytics summary.
type OverallStatsResponse struct {
	Calls               int       `json:"calls"`
	Cost                float64   `json:"cost"`
	InputTokens         int       `json:"input_tokens"`
	OutputTokens        int       `json:"output_tokens"`
	CacheCreationTokens int       `json:"cache_creation_tokens"`
	CacheReadTokens     int       `json:"cache_read_tokens"`
	Meetings            int       `json:"meetings"`
	AvgCostPerCall      float64   `json:"avg_cost_per_call"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
}

// CostByDayResponse is the API response for daily cost breakdowns.
type CostByDayResponse struct {
	Day          string  `json:"day"`
	Calls        int     `json:"calls"`
	Cost         float64 `json:"cost"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
}

// ModelCostResponse is the API response for per-model cost breakdowns.
type ModelCostResponse struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Calls        int     `json:"calls"`
	Cost         float64 `json:"cost"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
}

// OperationStatsResponse is the API response for per-operation statistics.
type OperationStatsResponse struct {
	Operation      string  `json:"operation"`
	Calls          int     `json:"calls"`
	Cost           float64 `json:"cost"`
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	AvgInputTokens float64 `json:"avg_input_tokens"`
}

// MeetingCostResponse is the API response for per-meeting spend.
type MeetingCostResponse struct {
	MeetingID    string    `json:"meeting_id"`
	Calls        int       `json:"calls"`
	Cost         float64   `json:"cost"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	FirstCall    time.Time `json:"first_call"`
	LastCall     time.Time `json:"last_call"`
	Models       []string  `json:"models,omitempty"`
}

// AnomalyResponse is the API response for a detected anomaly.
type AnomalyResponse struct {
	Type        string    `json:"type"`
	RecordID    string    `json:"record_id,omitempty"`
	MeetingID   *string   `json:"meeting_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold"`
}

func toAnomalyResponse(a *analytics.Anomaly) AnomalyResponse {
	return AnomalyResponse{
		Type:        string(a.Type),
		RecordID:    a.RecordID,
		MeetingID:   a.MeetingID,
		Timestamp:   a.Timestamp,
		Severity:    a.Severity,
		Description: a.Description,
		Value:       a.Value,
		Threshold:   a.Threshold,
	}
}
