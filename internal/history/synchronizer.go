// Package history keeps the client's copy of the remote analysis history.
//
// The cache is never patched locally. Creates, deletes and clears all end in
// a full refresh, and only a successful refresh changes what the cache holds.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/spacesedan/sentiscope/internal/mapper"
	"github.com/spacesedan/sentiscope/internal/models"
)

const (
	ConfirmDeletePrompt = "Are you sure you want to delete this analysis from history?"
	ConfirmClearPrompt  = "Are you sure you want to clear all analysis history?"
)

type Service interface {
	ListHistory(ctx context.Context) (models.RawHistoryList, error)
	SearchHistory(ctx context.Context, query string) (models.RawHistoryList, error)
	DeleteHistoryEntry(ctx context.Context, id models.AnalysisID) (bool, error)
}

type Renderer interface {
	RenderHistoryList(records []models.AnalysisRecord)
	RenderHistoryError(message string)
	Notify(message string)
}

type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ClearResult struct {
	Attempted int
	Deleted   []models.AnalysisID
	Failed    []models.AnalysisID
}

type Synchronizer struct {
	service   Service
	cache     *Cache
	renderer  Renderer
	confirmer Confirmer
	requests  atomic.Uint64
}

func NewSynchronizer(service Service, cache *Cache, renderer Renderer, confirmer Confirmer) *Synchronizer {
	if cache == nil {
		cache = NewCache()
	}
	return &Synchronizer{
		service:   service,
		cache:     cache,
		renderer:  renderer,
		confirmer: confirmer,
	}
}

func (s *Synchronizer) Cache() *Cache { return s.cache }

// Refresh fetches the full history and replaces the cache. On failure the
// previous snapshot is kept but the renderer is told to show an error
// instead of it.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	generation := s.requests.Add(1)

	raw, err := s.service.ListHistory(ctx)
	if err == nil {
		var records []models.AnalysisRecord
		records, err = mapper.MapHistoryList(raw)
		if err == nil {
			if !s.cache.Replace(generation, records) {
				slog.Debug("[HistorySynchronizer] Discarding superseded refresh",
					slog.Uint64("generation", generation))
			}
			s.renderer.RenderHistoryList(s.cache.Records())
			slog.Debug("[HistorySynchronizer] History refreshed",
				slog.Int("count", s.cache.Len()))
			return nil
		}
	}

	slog.Error("[HistorySynchronizer] Failed to load history",
		slog.String("error", err.Error()))
	s.renderer.RenderHistoryError(models.MsgHistoryUnavailable)
	return fmt.Errorf("%w: %w", models.ErrHistoryUnavailable, err)
}

func (s *Synchronizer) Get(id models.AnalysisID) (models.AnalysisRecord, bool) {
	return s.cache.Get(id)
}

// Delete removes one analysis on the remote store after confirmation and
// then refreshes. A failed delete leaves the cache untouched.
func (s *Synchronizer) Delete(ctx context.Context, id models.AnalysisID) error {
	if !s.confirmer.Confirm(ctx, ConfirmDeletePrompt) {
		return models.ErrNotConfirmed
	}

	if err := s.deleteOne(ctx, id); err != nil {
		s.renderer.Notify(models.MsgDeleteFailed)
		return err
	}

	slog.Info("[HistorySynchronizer] Deleted analysis", slog.String("id", id.String()))
	return s.Refresh(ctx)
}

// ClearAll deletes every cached analysis concurrently and refreshes exactly
// once after all deletes have settled. Failed deletes are not retried; the
// refresh shows whatever survived.
func (s *Synchronizer) ClearAll(ctx context.Context) (ClearResult, error) {
	records := s.cache.Records()
	if len(records) == 0 {
		return ClearResult{}, nil
	}
	if !s.confirmer.Confirm(ctx, ConfirmClearPrompt) {
		return ClearResult{}, models.ErrNotConfirmed
	}

	outcomes := make([]error, len(records))
	var g errgroup.Group
	for i, r := range records {
		g.Go(func() error {
			outcomes[i] = s.deleteOne(ctx, r.ID)
			return nil
		})
	}
	_ = g.Wait()

	result := ClearResult{Attempted: len(records)}
	var deleteErrs []error
	for i, err := range outcomes {
		if err != nil {
			result.Failed = append(result.Failed, records[i].ID)
			deleteErrs = append(deleteErrs, err)
			continue
		}
		result.Deleted = append(result.Deleted, records[i].ID)
	}

	slog.Info("[HistorySynchronizer] Clear settled",
		slog.Int("attempted", result.Attempted),
		slog.Int("deleted", len(result.Deleted)),
		slog.Int("failed", len(result.Failed)))

	refreshErr := s.Refresh(ctx)
	if len(deleteErrs) > 0 {
		s.renderer.Notify(models.MsgClearFailed)
	}
	return result, errors.Join(errors.Join(deleteErrs...), refreshErr)
}

// Search runs a remote text search. Results are returned to the caller and
// never written to the cache.
func (s *Synchronizer) Search(ctx context.Context, query string) ([]models.AnalysisRecord, error) {
	raw, err := s.service.SearchHistory(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrHistoryUnavailable, err)
	}
	return mapper.MapHistoryList(raw)
}

func (s *Synchronizer) deleteOne(ctx context.Context, id models.AnalysisID) error {
	ok, err := s.service.DeleteHistoryEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: analysis %s: %w", models.ErrDeleteFailed, id, err)
	}
	if !ok {
		return fmt.Errorf("%w: analysis %s was not deleted", models.ErrDeleteFailed, id)
	}
	return nil
}
