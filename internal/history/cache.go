package history

import (
	"sync"

	"github.com/spacesedan/sentiscope/internal/models"
)

// Cache is the client's snapshot of the remote history. It is only ever
// replaced wholesale; readers see either the old snapshot or the new one.
type Cache struct {
	mu         sync.RWMutex
	records    []models.AnalysisRecord
	index      map[models.AnalysisID]int
	generation uint64
}

func NewCache() *Cache {
	return &Cache{index: map[models.AnalysisID]int{}}
}

// Replace installs records if generation is newer than the installed one.
// Later duplicates of an id are dropped so the index stays one-to-one.
func (c *Cache) Replace(generation uint64, records []models.AnalysisRecord) bool {
	next := make([]models.AnalysisRecord, 0, len(records))
	index := make(map[models.AnalysisID]int, len(records))
	for _, r := range records {
		if _, dup := index[r.ID]; dup {
			continue
		}
		index[r.ID] = len(next)
		next = append(next, r)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation <= c.generation {
		return false
	}
	c.records = next
	c.index = index
	c.generation = generation
	return true
}

func (c *Cache) Get(id models.AnalysisID) (models.AnalysisRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return models.AnalysisRecord{}, false
	}
	return c.records[i], true
}

// Records returns a copy of the current snapshot in store order.
func (c *Cache) Records() []models.AnalysisRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.AnalysisRecord(nil), c.records...)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}
