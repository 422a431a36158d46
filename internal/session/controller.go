// Package session drives one analyze-and-display interaction: validate the
// input, classify it remotely, show the result, then ask the history to
// refresh.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/sentiscope/internal/mapper"
	"github.com/spacesedan/sentiscope/internal/models"
)

// ErrSuperseded is returned by Submit when a later Reset, Submit or
// LoadRecordForDisplay replaced the session before the response arrived.
var ErrSuperseded = errors.New("submission superseded")

type Classifier interface {
	Classify(ctx context.Context, text string) (models.RawClassification, error)
}

type HistoryRefresher interface {
	Refresh(ctx context.Context) error
}

type Renderer interface {
	RenderResult(view models.ResultView)
	RenderLoading(loading bool)
	// RenderError shows message, or hides the error banner when it is empty.
	RenderError(message string)
	RenderIdle()
}

type Controller struct {
	classifier Classifier
	history    HistoryRefresher
	renderer   Renderer

	mu       sync.Mutex
	state    State
	token    uint64
	inflight int
}

func NewController(classifier Classifier, history HistoryRefresher, renderer Renderer) *Controller {
	return &Controller{
		classifier: classifier,
		history:    history,
		renderer:   renderer,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit classifies text and displays the result. Only one submission may
// be in flight; a second one fails with models.ErrSubmissionInFlight and
// never reaches the service.
func (c *Controller) Submit(ctx context.Context, text string) (models.AnalysisRecord, error) {
	c.mu.Lock()
	if c.state.Kind == Submitting {
		c.mu.Unlock()
		return models.AnalysisRecord{}, models.ErrSubmissionInFlight
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		c.state = State{Kind: Error, Input: text, Message: models.MsgEmptyInput}
		c.mu.Unlock()
		c.renderer.RenderError(models.MsgEmptyInput)
		return models.AnalysisRecord{}, models.ErrEmptyInput
	}

	c.token++
	token := c.token
	c.inflight++
	c.state = State{Kind: Submitting, Input: text}
	c.mu.Unlock()

	c.renderer.RenderError("")
	c.renderer.RenderLoading(true)
	defer c.finish(token)

	start := time.Now()
	raw, err := c.classifier.Classify(ctx, trimmed)
	var cls mapper.Classification
	if err == nil {
		cls, err = mapper.MapClassification(raw)
	}

	if err != nil {
		msg := models.UserMessage(err)
		if !c.settle(token, State{Kind: Error, Input: text, Message: msg}) {
			return models.AnalysisRecord{}, ErrSuperseded
		}
		slog.Error("[SessionController] Analysis failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		c.renderer.RenderError(msg)
		return models.AnalysisRecord{}, err
	}

	record := models.AnalysisRecord{
		Text:            trimmed,
		Label:           cls.Label,
		ConfidenceScore: cls.ConfidenceScore,
	}
	view := models.NewResultView(record.Label, record.ConfidenceScore)
	current := c.settle(token, State{Kind: DisplayingResult, Input: text, Record: record, View: view})
	if current {
		slog.Info("[SessionController] Analysis displayed",
			slog.String("label", record.Label.String()),
			slog.Int("confidence_percent", view.ConfidencePercent),
			slog.Duration("elapsed", time.Since(start)))
		c.renderer.RenderResult(view)
	}

	// The store recorded the analysis either way, so the history is stale.
	if c.history != nil {
		if err := c.history.Refresh(ctx); err != nil {
			slog.Warn("[SessionController] History refresh after analysis failed",
				slog.String("error", err.Error()))
		}
	}

	if !current {
		return record, ErrSuperseded
	}
	return record, nil
}

// Reset returns to Idle and discards any displayed result. An in-flight
// submission is not cancelled, but its response will be ignored.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.token++
	c.state = State{Kind: Idle}
	c.mu.Unlock()

	c.renderer.RenderError("")
	c.renderer.RenderIdle()
}

// LoadRecordForDisplay shows a stored record without re-submitting it.
func (c *Controller) LoadRecordForDisplay(record models.AnalysisRecord) {
	view := models.NewResultView(record.Label, record.ConfidenceScore)

	c.mu.Lock()
	c.token++
	c.state = State{Kind: DisplayingResult, Input: record.Text, Record: record, View: view}
	c.mu.Unlock()

	c.renderer.RenderError("")
	c.renderer.RenderResult(view)
}

// finish clears the loading indicator once no submission is in flight. It
// runs on every exit path of Submit, panics included, and never leaves the
// session stuck in Submitting.
func (c *Controller) finish(token uint64) {
	c.mu.Lock()
	c.inflight--
	idle := c.inflight == 0
	if c.token == token && c.state.Kind == Submitting {
		c.state = State{Kind: Error, Input: c.state.Input, Message: models.UserMessage(errors.New("interrupted"))}
	}
	c.mu.Unlock()
	if idle {
		c.renderer.RenderLoading(false)
	}
}

// settle installs next if token is still the latest request.
func (c *Controller) settle(token uint64, next State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token {
		slog.Debug("[SessionController] Discarding stale response",
			slog.Uint64("token", token),
			slog.Uint64("current", c.token))
		return false
	}
	c.state = next
	return true
}
