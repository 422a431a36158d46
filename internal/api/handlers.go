package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/sentiment"
	"github.com/spacesedan/sentiscope/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.healthy != nil && !s.healthy() {
		writeJSON(w, http.StatusServiceUnavailable, models.HealthResponse{
			Status:  "degraded",
			Message: "A backing service is unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Message: "The API is up and running",
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req models.ClassifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}

	ctx := r.Context()
	label, score, cached := s.lookupCache(r, req.Text)
	if !cached {
		label, score = s.classifier.Classify(req.Text)
		if s.cache != nil {
			if err := s.cache.SetClassification(ctx, req.Text, label, score); err != nil {
				slog.Warn("[API] Failed to cache classification", slog.String("error", err.Error()))
			}
		}
	}

	analysis, err := s.store.Save(ctx, store.NewAnalysis{
		Text:       req.Text,
		Label:      label.String(),
		Confidence: score,
	})
	if err != nil {
		slog.Error("[API] Failed to save analysis", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error saving analysis: %v", err))
		return
	}
	slog.Info("[API] Analysis saved to history",
		slog.String("id", analysis.ID.String()),
		slog.String("label", analysis.SentimentLabel),
		slog.Bool("cached", cached))

	s.publish(r, analysis)

	writeJSON(w, http.StatusOK, models.ClassifyResponse{
		Text:  req.Text,
		Label: label.String(),
		Score: sentiment.Round4(score),
	})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	analyses, err := s.store.List(r.Context(), limit)
	if err != nil {
		slog.Error("[API] Error fetching analyses", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Error fetching analyses")
		return
	}
	writeHistory(w, analyses)
}

func (s *Server) handleSearchHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("search_query")
	if query == "" {
		writeError(w, http.StatusUnprocessableEntity, "search_query must not be empty")
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	analyses, err := s.store.Search(r.Context(), query, limit)
	if err != nil {
		slog.Error("[API] Error searching analyses", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Error searching analyses")
		return
	}
	writeHistory(w, analyses)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id := models.AnalysisID(r.PathValue("id"))
	analysis, err := s.store.Get(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Analysis history not found")
		return
	}
	if err != nil {
		slog.Error("[API] Error fetching analysis", slog.String("id", id.String()), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Error fetching analysis")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var req models.SaveHistoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.Label) == "" {
		writeError(w, http.StatusUnprocessableEntity, "text and label are required")
		return
	}
	if req.Confidence < 0 || req.Confidence > 1 {
		writeError(w, http.StatusUnprocessableEntity, "confidence must be between 0 and 1")
		return
	}

	analysis, err := s.store.Save(r.Context(), store.NewAnalysis{
		Text:          req.Text,
		Label:         req.Label,
		Confidence:    req.Confidence,
		PositiveScore: req.PositiveScore,
		NegativeScore: req.NegativeScore,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error saving analysis: %v", err))
		return
	}
	s.publish(r, analysis)
	writeJSON(w, http.StatusCreated, analysis)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id := models.AnalysisID(r.PathValue("id"))
	deleted, err := s.store.Delete(r.Context(), id)
	if err != nil {
		slog.Error("[API] Error deleting analysis", slog.String("id", id.String()), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error deleting analysis: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

func (s *Server) lookupCache(r *http.Request, text string) (models.Label, float64, bool) {
	if s.cache == nil {
		return "", 0, false
	}
	return s.cache.GetClassification(r.Context(), text)
}

func (s *Server) publish(r *http.Request, analysis models.StoredAnalysis) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAnalysisRecorded(r.Context(), analysis); err != nil {
		slog.Warn("[API] Failed to publish analysis event",
			slog.String("id", analysis.ID.String()),
			slog.String("error", err.Error()))
	}
}

// writeHistory answers an empty result with 404, as existing clients expect.
func writeHistory(w http.ResponseWriter, analyses []models.StoredAnalysis) {
	if len(analyses) == 0 {
		writeError(w, http.StatusNotFound, "Analysis history not found")
		return
	}
	writeJSON(w, http.StatusOK, models.HistoryListResponse{
		Total:    len(analyses),
		Analyses: analyses,
	})
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return store.DEFAULT_LIMIT, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > store.MAX_LIMIT {
		writeError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("limit must be an integer between 1 and %d", store.MAX_LIMIT))
		return 0, false
	}
	return limit, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("[API] Failed to encode response", slog.String("error", err.Error()))
	}
}
