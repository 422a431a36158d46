package history

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spacesedan/sentiscope/internal/models"
)

// fakeService is an in-memory remote store. Deletes of ids in failIDs
// report false; listErr makes ListHistory fail.
type fakeService struct {
	mu        sync.Mutex
	entries   []models.RawHistoryEntry
	failIDs   map[models.AnalysisID]bool
	listErr   error
	deleteErr error
	events    []string
	lists     int
	deletes   int

	// deleteGate, when set, blocks each delete until it is closed.
	deleteGate chan struct{}
	started    chan models.AnalysisID
}

func newFakeService(ids ...string) *fakeService {
	f := &fakeService{failIDs: map[models.AnalysisID]bool{}}
	for _, id := range ids {
		f.entries = append(f.entries, rawEntry(id))
	}
	return f
}

func rawEntry(id string) models.RawHistoryEntry {
	text := "text " + id
	label := "POSITIVE"
	score := 0.75
	return models.RawHistoryEntry{
		ID:              models.AnalysisID(id),
		Text:            &text,
		SentimentLabel:  &label,
		ConfidenceScore: &score,
		CreatedAt:       "2025-03-01T10:00:00Z",
	}
}

func (f *fakeService) ListHistory(ctx context.Context) (models.RawHistoryList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	f.events = append(f.events, "list")
	if f.listErr != nil {
		return models.RawHistoryList{}, f.listErr
	}
	out := append([]models.RawHistoryEntry{}, f.entries...)
	return models.RawHistoryList{Total: len(out), Analyses: out}, nil
}

func (f *fakeService) SearchHistory(ctx context.Context, query string) (models.RawHistoryList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RawHistoryEntry
	for _, e := range f.entries {
		if *e.Text == query {
			out = append(out, e)
		}
	}
	return models.RawHistoryList{Total: len(out), Analyses: out}, nil
}

func (f *fakeService) DeleteHistoryEntry(ctx context.Context, id models.AnalysisID) (bool, error) {
	f.mu.Lock()
	f.deletes++
	f.events = append(f.events, "delete-start:"+id.String())
	gate, started := f.deleteGate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- id
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "delete-done:"+id.String())
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	if f.failIDs[id] {
		return false, nil
	}
	for i, e := range f.entries {
		if e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeService) snapshotEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

type recordingRenderer struct {
	mu      sync.Mutex
	lists   [][]models.AnalysisRecord
	errors  []string
	notices []string
}

func (r *recordingRenderer) RenderHistoryList(records []models.AnalysisRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, records)
}

func (r *recordingRenderer) RenderHistoryError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

func (r *recordingRenderer) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, message)
}

type stubConfirmer struct {
	answer  bool
	prompts []string
}

func (c *stubConfirmer) Confirm(ctx context.Context, prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

func ids(records []models.AnalysisRecord) []models.AnalysisID {
	out := make([]models.AnalysisID, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

var errBoom = errors.New("boom")

func idList(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%d", i+1)
	}
	return out
}

func (f *fakeService) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}
