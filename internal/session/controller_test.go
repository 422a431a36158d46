package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/sentiscope/internal/models"
)

type fakeClassifier struct {
	mu      sync.Mutex
	calls   []string
	label   *string
	score   *float64
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func respond(label string, score float64) *fakeClassifier {
	return &fakeClassifier{label: &label, score: &score}
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (models.RawClassification, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return models.RawClassification{}, f.err
	}
	return models.RawClassification{Text: text, Label: f.label, Score: f.score}, nil
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

type recordingRenderer struct {
	mu      sync.Mutex
	results []models.ResultView
	loading []bool
	errors  []string
	idles   int
}

func (r *recordingRenderer) RenderResult(view models.ResultView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, view)
}

func (r *recordingRenderer) RenderLoading(loading bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = append(r.loading, loading)
}

func (r *recordingRenderer) RenderError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

func (r *recordingRenderer) RenderIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idles++
}

func (r *recordingRenderer) lastLoading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.loading) == 0 {
		return false
	}
	return r.loading[len(r.loading)-1]
}

func TestSubmit_PositiveScenario(t *testing.T) {
	classifier := respond("POSITIVE", 0.92)
	refresher := &fakeRefresher{}
	renderer := &recordingRenderer{}
	c := NewController(classifier, refresher, renderer)

	record, err := c.Submit(context.Background(), "I love this product")
	require.NoError(t, err)

	assert.Equal(t, models.LabelPositive, record.Label)
	assert.False(t, record.Persisted())

	state := c.State()
	assert.Equal(t, DisplayingResult, state.Kind)
	assert.Equal(t, models.ResultView{
		Label:             models.LabelPositive,
		ConfidencePercent: 92,
		PositivePercent:   92,
		NegativePercent:   8,
	}, state.View)

	require.Len(t, renderer.results, 1)
	assert.Equal(t, state.View, renderer.results[0])
	assert.Equal(t, []bool{true, false}, renderer.loading)
	assert.Equal(t, 1, refresher.calls)
}

func TestSubmit_EmptyInputNeverCallsService(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t "} {
		classifier := respond("POSITIVE", 0.5)
		refresher := &fakeRefresher{}
		renderer := &recordingRenderer{}
		c := NewController(classifier, refresher, renderer)

		_, err := c.Submit(context.Background(), input)
		require.ErrorIs(t, err, models.ErrEmptyInput)

		assert.Zero(t, classifier.callCount())
		assert.Zero(t, refresher.calls)
		assert.Empty(t, renderer.loading)
		assert.Equal(t, State{Kind: Error, Input: input, Message: "Please enter some text to analyze."}, c.State())
		assert.Equal(t, []string{"Please enter some text to analyze."}, renderer.errors)
	}
}

func TestSubmit_SendsTrimmedText(t *testing.T) {
	classifier := respond("NEGATIVE", 0.8)
	c := NewController(classifier, nil, &recordingRenderer{})

	record, err := c.Submit(context.Background(), "  meh  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"meh"}, classifier.calls)
	assert.Equal(t, "meh", record.Text)
}

func TestSubmit_FailuresLandInError(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeClassifier
		wantErr error
	}{
		{"transport", &fakeClassifier{err: models.ErrTransportFailure}, models.ErrTransportFailure},
		{"remote", &fakeClassifier{err: &models.RemoteError{StatusCode: 500, Status: "500 Internal Server Error"}}, models.ErrRemote},
		{"malformed", respond("POSITIVE", 7), models.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := &fakeRefresher{}
			renderer := &recordingRenderer{}
			c := NewController(tt.fake, refresher, renderer)

			_, err := c.Submit(context.Background(), "hello")
			require.ErrorIs(t, err, tt.wantErr)

			state := c.State()
			assert.Equal(t, Error, state.Kind)
			assert.NotEmpty(t, state.Message)
			assert.Empty(t, renderer.results)
			assert.Equal(t, []bool{true, false}, renderer.loading)
			assert.Equal(t, state.Message, renderer.errors[len(renderer.errors)-1])
			assert.Zero(t, refresher.calls)
			assert.True(t, state.AcceptsInput())
		})
	}
}

func TestSubmit_RefreshFailureKeepsResult(t *testing.T) {
	refresher := &fakeRefresher{err: models.ErrHistoryUnavailable}
	renderer := &recordingRenderer{}
	c := NewController(respond("POSITIVE", 0.6), refresher, renderer)

	_, err := c.Submit(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, DisplayingResult, c.State().Kind)
	assert.Len(t, renderer.results, 1)
	assert.False(t, renderer.lastLoading())
}

func TestSubmit_RejectsWhileSubmitting(t *testing.T) {
	classifier := respond("POSITIVE", 0.9)
	classifier.gate = make(chan struct{})
	classifier.entered = make(chan struct{}, 1)
	renderer := &recordingRenderer{}
	c := NewController(classifier, nil, renderer)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), "first")
		done <- err
	}()
	<-classifier.entered

	assert.Equal(t, Submitting, c.State().Kind)
	assert.False(t, c.State().AcceptsInput())

	_, err := c.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, models.ErrSubmissionInFlight)
	assert.Equal(t, 1, classifier.callCount())

	close(classifier.gate)
	require.NoError(t, <-done)
	assert.Equal(t, DisplayingResult, c.State().Kind)
	assert.False(t, renderer.lastLoading())
}

func TestSubmit_StaleResponseIsDiscarded(t *testing.T) {
	classifier := respond("NEGATIVE", 0.99)
	classifier.gate = make(chan struct{})
	classifier.entered = make(chan struct{}, 1)
	refresher := &fakeRefresher{}
	renderer := &recordingRenderer{}
	c := NewController(classifier, refresher, renderer)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), "slow")
		done <- err
	}()
	<-classifier.entered

	stored := models.AnalysisRecord{ID: "5", Text: "stored", Label: models.LabelPositive, ConfidenceScore: 0.7}
	c.LoadRecordForDisplay(stored)
	close(classifier.gate)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not settle")
	}

	state := c.State()
	assert.Equal(t, DisplayingResult, state.Kind)
	assert.Equal(t, stored, state.Record)
	require.Len(t, renderer.results, 1)
	assert.Equal(t, models.LabelPositive, renderer.results[0].Label)
	assert.Equal(t, 1, refresher.calls)
	assert.False(t, renderer.lastLoading())
}

func TestReset(t *testing.T) {
	renderer := &recordingRenderer{}
	c := NewController(respond("POSITIVE", 0.9), nil, renderer)
	_, err := c.Submit(context.Background(), "good")
	require.NoError(t, err)

	c.Reset()
	assert.Equal(t, State{Kind: Idle}, c.State())
	assert.Equal(t, 1, renderer.idles)
}

func TestReset_FromError(t *testing.T) {
	c := NewController(&fakeClassifier{err: errors.New("x")}, nil, &recordingRenderer{})
	_, _ = c.Submit(context.Background(), "x")
	require.Equal(t, Error, c.State().Kind)

	c.Reset()
	assert.Equal(t, Idle, c.State().Kind)
}

func TestLoadRecordForDisplay(t *testing.T) {
	classifier := respond("POSITIVE", 0.9)
	renderer := &recordingRenderer{}
	c := NewController(classifier, nil, renderer)

	record := models.AnalysisRecord{ID: "9", Text: "awful", Label: models.LabelNegative, ConfidenceScore: 0.875}
	c.LoadRecordForDisplay(record)

	state := c.State()
	assert.Equal(t, DisplayingResult, state.Kind)
	assert.Equal(t, "awful", state.Input)
	assert.Equal(t, 88, state.View.NegativePercent)
	assert.Equal(t, 12, state.View.PositivePercent)
	assert.Zero(t, classifier.callCount())
}

func TestSubmit_PanicDoesNotWedgeLoading(t *testing.T) {
	renderer := &recordingRenderer{}
	c := NewController(panicClassifier{}, nil, renderer)

	assert.Panics(t, func() { _, _ = c.Submit(context.Background(), "boom") })
	assert.False(t, renderer.lastLoading())
	assert.Equal(t, Error, c.State().Kind)
	assert.True(t, c.State().AcceptsInput())
}

type panicClassifier struct{}

func (panicClassifier) Classify(ctx context.Context, text string) (models.RawClassification, error) {
	panic("classifier exploded")
}
