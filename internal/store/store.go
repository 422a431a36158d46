// Package store persists analyses for the reference service.
package store

import (
	"context"
	"sort"
	"strings"

	"github.com/spacesedan/sentiscope/internal/models"
)

const (
	DEFAULT_LIMIT = 20
	MAX_LIMIT     = 50
)

type Store interface {
	Save(ctx context.Context, in NewAnalysis) (models.StoredAnalysis, error)
	// List returns at most limit analyses, newest first.
	List(ctx context.Context, limit int) ([]models.StoredAnalysis, error)
	Search(ctx context.Context, query string, limit int) ([]models.StoredAnalysis, error)
	// Get fails with models.ErrNotFound for unknown ids.
	Get(ctx context.Context, id models.AnalysisID) (models.StoredAnalysis, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id models.AnalysisID) (bool, error)
	Close()
}

type NewAnalysis struct {
	Text          string
	Label         string
	Confidence    float64
	PositiveScore *float64
	NegativeScore *float64
}

// Scores returns the per-class scores, deriving both from the confidence
// when either was not supplied.
func (n NewAnalysis) Scores() (positive, negative float64) {
	if n.PositiveScore != nil && n.NegativeScore != nil {
		return *n.PositiveScore, *n.NegativeScore
	}
	if strings.EqualFold(n.Label, string(models.LabelPositive)) {
		return n.Confidence, 1 - n.Confidence
	}
	return 1 - n.Confidence, n.Confidence
}

func newestFirst(analyses []models.StoredAnalysis) {
	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].CreatedAt.After(analyses[j].CreatedAt)
	})
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DEFAULT_LIMIT
	}
	return min(limit, MAX_LIMIT)
}
