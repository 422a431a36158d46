// Package mapper normalizes classify and history responses into the
// records the rest of the client works with. It never coerces: a response
// that violates the data model fails with models.ErrMalformedResponse.
package mapper

import (
	"fmt"
	"math"
	"time"

	"github.com/spacesedan/sentiscope/internal/models"
)

// Classification is a mapped classify response. It has no id or timestamp
// until the remote store persists it and the history is refreshed.
type Classification struct {
	Label           models.Label
	ConfidenceScore float64
}

func MapClassification(raw models.RawClassification) (Classification, error) {
	label, err := mapLabel(raw.Label, "label")
	if err != nil {
		return Classification{}, err
	}
	score, err := mapScore(raw.Score, "score")
	if err != nil {
		return Classification{}, err
	}
	return Classification{Label: label, ConfidenceScore: score}, nil
}

func MapHistoryEntry(raw models.RawHistoryEntry) (models.AnalysisRecord, error) {
	if raw.ID == "" {
		return models.AnalysisRecord{}, malformed("id is missing")
	}
	if raw.Text == nil {
		return models.AnalysisRecord{}, malformed("text is missing for id %s", raw.ID)
	}
	label, err := mapLabel(raw.SentimentLabel, "sentiment_label")
	if err != nil {
		return models.AnalysisRecord{}, err
	}
	score, err := mapScore(raw.ConfidenceScore, "confidence_score")
	if err != nil {
		return models.AnalysisRecord{}, err
	}
	createdAt, err := parseTimestamp(raw.CreatedAt)
	if err != nil {
		return models.AnalysisRecord{}, err
	}

	return models.AnalysisRecord{
		ID:              raw.ID,
		Text:            *raw.Text,
		Label:           label,
		ConfidenceScore: score,
		CreatedAt:       createdAt,
	}, nil
}

// MapHistoryList maps every entry or none: a single bad entry fails the
// whole list so the cache is never built from a partial response.
func MapHistoryList(raw models.RawHistoryList) ([]models.AnalysisRecord, error) {
	records := make([]models.AnalysisRecord, 0, len(raw.Analyses))
	for i, entry := range raw.Analyses {
		record, err := MapHistoryEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("analyses[%d]: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func mapLabel(raw *string, field string) (models.Label, error) {
	if raw == nil {
		return "", malformed("%s is missing", field)
	}
	label, ok := models.ParseLabel(*raw)
	if !ok {
		return "", malformed("%s is empty", field)
	}
	return label, nil
}

func mapScore(raw *float64, field string) (float64, error) {
	if raw == nil {
		return 0, malformed("%s is missing", field)
	}
	score := *raw
	if math.IsNaN(score) || score < 0 || score > 1 {
		return 0, malformed("%s %v is outside [0,1]", field, score)
	}
	return score, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, malformed("created_at %q is not a timestamp", raw)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrMalformedResponse, fmt.Sprintf(format, args...))
}
