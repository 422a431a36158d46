package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/sentiscope/internal/models"
)

type MemoryStore struct {
	mu       sync.Mutex
	analyses []models.StoredAnalysis
	nextID   int64
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Save(ctx context.Context, in NewAnalysis) (models.StoredAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	pos, neg := in.Scores()
	a := models.StoredAnalysis{
		ID:              models.AnalysisID(strconv.FormatInt(m.nextID, 10)),
		Text:            in.Text,
		SentimentLabel:  strings.ToUpper(in.Label),
		ConfidenceScore: in.Confidence,
		PositiveScore:   pos,
		NegativeScore:   neg,
		CreatedAt:       m.now().UTC(),
	}
	m.analyses = append(m.analyses, a)
	return a, nil
}

func (m *MemoryStore) List(ctx context.Context, limit int) ([]models.StoredAnalysis, error) {
	return m.filter(clampLimit(limit), func(models.StoredAnalysis) bool { return true }), nil
}

func (m *MemoryStore) Search(ctx context.Context, query string, limit int) ([]models.StoredAnalysis, error) {
	needle := strings.ToLower(query)
	return m.filter(clampLimit(limit), func(a models.StoredAnalysis) bool {
		return strings.Contains(strings.ToLower(a.Text), needle)
	}), nil
}

func (m *MemoryStore) Get(ctx context.Context, id models.AnalysisID) (models.StoredAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.analyses {
		if a.ID == id {
			return a, nil
		}
	}
	return models.StoredAnalysis{}, fmt.Errorf("analysis %s: %w", id, models.ErrNotFound)
}

func (m *MemoryStore) Delete(ctx context.Context, id models.AnalysisID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.analyses {
		if a.ID == id {
			m.analyses = append(m.analyses[:i], m.analyses[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) Close() {}

// filter walks newest first; ids are assigned in insertion order.
func (m *MemoryStore) filter(limit int, keep func(models.StoredAnalysis) bool) []models.StoredAnalysis {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.StoredAnalysis{}
	for i := len(m.analyses) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(m.analyses[i]) {
			out = append(out, m.analyses[i])
		}
	}
	return out
}
