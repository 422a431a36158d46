package models

import "time"

type ClassifyRequest struct {
	Text string `json:"text"`
}

type ClassifyResponse struct {
	Text  string  `json:"text"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// RawClassification is the client's view of a classify response. Pointer
// fields let the mapper tell a missing value from a zero one.
type RawClassification struct {
	Text  string   `json:"text"`
	Label *string  `json:"label"`
	Score *float64 `json:"score"`
}

type StoredAnalysis struct {
	ID              AnalysisID `json:"id" dynamodbav:"id"`
	Text            string     `json:"text" dynamodbav:"text"`
	SentimentLabel  string     `json:"sentiment_label" dynamodbav:"sentiment_label"`
	ConfidenceScore float64    `json:"confidence_score" dynamodbav:"confidence_score"`
	PositiveScore   float64    `json:"positive_score" dynamodbav:"positive_score"`
	NegativeScore   float64    `json:"negative_score" dynamodbav:"negative_score"`
	CreatedAt       time.Time  `json:"created_at" dynamodbav:"created_at"`
}

type HistoryListResponse struct {
	Total    int              `json:"total"`
	Analyses []StoredAnalysis `json:"analyses"`
}

type SaveHistoryRequest struct {
	Text          string   `json:"text"`
	Label         string   `json:"label"`
	Confidence    float64  `json:"confidence"`
	PositiveScore *float64 `json:"positive_score,omitempty"`
	NegativeScore *float64 `json:"negative_score,omitempty"`
}

type RawHistoryEntry struct {
	ID              AnalysisID `json:"id"`
	Text            *string    `json:"text"`
	SentimentLabel  *string    `json:"sentiment_label"`
	ConfidenceScore *float64   `json:"confidence_score"`
	PositiveScore   *float64   `json:"positive_score"`
	NegativeScore   *float64   `json:"negative_score"`
	CreatedAt       string     `json:"created_at"`
}

type RawHistoryList struct {
	Total    int               `json:"total"`
	Analyses []RawHistoryEntry `json:"analyses"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

// AnalysisRecordedEvent is published once per analysis the service stores.
type AnalysisRecordedEvent struct {
	ID              AnalysisID `json:"id"`
	SentimentLabel  string     `json:"sentiment_label"`
	ConfidenceScore float64    `json:"confidence_score"`
	TextLength      int        `json:"text_length"`
	CreatedAt       time.Time  `json:"created_at"`
}
