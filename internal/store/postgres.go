package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spacesedan/sentiscope/internal/models"
)

const createTableQuery = `
CREATE TABLE IF NOT EXISTS text_analysis_results (
    id SERIAL PRIMARY KEY,
    text TEXT NOT NULL,
    sentiment_label VARCHAR(10) NOT NULL,
    confidence_score DECIMAL(5, 4) NOT NULL,
    positive_score DECIMAL(5, 4),
    negative_score DECIMAL(5, 4),
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
);
`

const selectColumns = `id, text, sentiment_label, confidence_score::float8,
    COALESCE(positive_score, 0)::float8, COALESCE(negative_score, 0)::float8, created_at`

type PostgresStore struct {
	DB *pgxpool.Pool
}

// NewPostgresStore wraps pool and makes sure the results table exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, createTableQuery); err != nil {
		return nil, fmt.Errorf("failed to create text_analysis_results: %w", err)
	}
	slog.Info("[PostgresStore] Database initialized successfully")
	return &PostgresStore{DB: pool}, nil
}

func (p *PostgresStore) Save(ctx context.Context, in NewAnalysis) (models.StoredAnalysis, error) {
	pos, neg := in.Scores()
	query := `
        INSERT INTO text_analysis_results (text, sentiment_label, confidence_score, positive_score, negative_score, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        RETURNING ` + selectColumns

	row := p.DB.QueryRow(ctx, query, in.Text, strings.ToUpper(in.Label), in.Confidence, pos, neg)
	a, err := scanAnalysis(row)
	if err != nil {
		return a, fmt.Errorf("failed to save analysis: %w", err)
	}
	return a, nil
}

func (p *PostgresStore) List(ctx context.Context, limit int) ([]models.StoredAnalysis, error) {
	query := `SELECT ` + selectColumns + `
        FROM text_analysis_results
        ORDER BY created_at DESC, id DESC
        LIMIT $1`
	return p.query(ctx, query, clampLimit(limit))
}

func (p *PostgresStore) Search(ctx context.Context, q string, limit int) ([]models.StoredAnalysis, error) {
	query := `SELECT ` + selectColumns + `
        FROM text_analysis_results
        WHERE text ILIKE $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2`
	return p.query(ctx, query, "%"+escapeLike(q)+"%", clampLimit(limit))
}

func (p *PostgresStore) Get(ctx context.Context, id models.AnalysisID) (models.StoredAnalysis, error) {
	n, err := strconv.ParseInt(id.String(), 10, 64)
	if err != nil {
		return models.StoredAnalysis{}, fmt.Errorf("analysis %s: %w", id, models.ErrNotFound)
	}

	row := p.DB.QueryRow(ctx, `SELECT `+selectColumns+` FROM text_analysis_results WHERE id = $1`, n)
	a, err := scanAnalysis(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return a, fmt.Errorf("analysis %s: %w", id, models.ErrNotFound)
	}
	return a, err
}

func (p *PostgresStore) Delete(ctx context.Context, id models.AnalysisID) (bool, error) {
	n, err := strconv.ParseInt(id.String(), 10, 64)
	if err != nil {
		return false, nil
	}
	tag, err := p.DB.Exec(ctx, `DELETE FROM text_analysis_results WHERE id = $1`, n)
	if err != nil {
		return false, fmt.Errorf("failed to delete analysis %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.DB.Ping(ctx)
}

func (p *PostgresStore) Close() {
	if p.DB != nil {
		p.DB.Close()
	}
}

func (p *PostgresStore) query(ctx context.Context, query string, args ...any) ([]models.StoredAnalysis, error) {
	rows, err := p.DB.Query(ctx, query, args...)
	if err != nil {
		slog.Error("[PostgresStore] Failed to query analyses", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	analyses := []models.StoredAnalysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

func scanAnalysis(row pgx.Row) (models.StoredAnalysis, error) {
	var a models.StoredAnalysis
	var id int64
	err := row.Scan(&id, &a.Text, &a.SentimentLabel, &a.ConfidenceScore, &a.PositiveScore, &a.NegativeScore, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	a.ID = models.AnalysisID(strconv.FormatInt(id, 10))
	return a, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
