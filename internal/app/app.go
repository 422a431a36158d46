// Package app is the command surface over one analysis session and its
// history. Every user action goes through one of its methods.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spacesedan/sentiscope/internal/history"
	"github.com/spacesedan/sentiscope/internal/mapper"
	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/session"
)

// Service is the remote analysis service as seen by the client.
type Service interface {
	session.Classifier
	history.Service
	GetHistoryEntry(ctx context.Context, id models.AnalysisID) (models.RawHistoryEntry, error)
}

type Presenter interface {
	session.Renderer
	history.Renderer
	RenderSearchResults(query string, records []models.AnalysisRecord)
}

type App struct {
	service   Service
	presenter Presenter
	history   *history.Synchronizer
	session   *session.Controller
}

func New(service Service, presenter Presenter, confirmer history.Confirmer) *App {
	syncer := history.NewSynchronizer(service, history.NewCache(), presenter, confirmer)
	return &App{
		service:   service,
		presenter: presenter,
		history:   syncer,
		session:   session.NewController(service, syncer, presenter),
	}
}

// Start loads the history once so that ids can be viewed right away.
func (a *App) Start(ctx context.Context) error {
	return a.history.Refresh(ctx)
}

func (a *App) Submit(ctx context.Context, text string) (models.AnalysisRecord, error) {
	return a.session.Submit(ctx, text)
}

func (a *App) Reset() {
	a.session.Reset()
}

// View shows a past analysis. Cached records are shown directly; unknown ids
// are fetched from the service without touching the cache.
func (a *App) View(ctx context.Context, id models.AnalysisID) (models.AnalysisRecord, error) {
	if record, ok := a.history.Get(id); ok {
		a.session.LoadRecordForDisplay(record)
		return record, nil
	}

	raw, err := a.service.GetHistoryEntry(ctx, id)
	if err != nil {
		a.reportViewError(err)
		return models.AnalysisRecord{}, err
	}
	record, err := mapper.MapHistoryEntry(raw)
	if err != nil {
		a.reportViewError(err)
		return models.AnalysisRecord{}, err
	}
	a.session.LoadRecordForDisplay(record)
	return record, nil
}

func (a *App) Delete(ctx context.Context, id models.AnalysisID) error {
	return a.history.Delete(ctx, id)
}

func (a *App) ClearAll(ctx context.Context) (history.ClearResult, error) {
	return a.history.ClearAll(ctx)
}

func (a *App) Refresh(ctx context.Context) error {
	return a.history.Refresh(ctx)
}

func (a *App) Search(ctx context.Context, query string) ([]models.AnalysisRecord, error) {
	records, err := a.history.Search(ctx, query)
	if err != nil {
		slog.Error("[App] Search failed", slog.String("query", query), slog.String("error", err.Error()))
		a.presenter.Notify(models.UserMessage(err))
		return nil, err
	}
	a.presenter.RenderSearchResults(query, records)
	return records, nil
}

func (a *App) State() session.State {
	return a.session.State()
}

func (a *App) History() []models.AnalysisRecord {
	return a.history.Cache().Records()
}

func (a *App) reportViewError(err error) {
	if errors.Is(err, models.ErrNotFound) {
		a.presenter.Notify(models.MsgNotFound)
		return
	}
	a.presenter.Notify(fmt.Sprintf("Could not load analysis: %s", models.UserMessage(err)))
}
