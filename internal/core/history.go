package core

import (
	"context"
	"sync"
	"time"
)

// RunSummary is the persisted record of one comparison run.
type RunSummary struct {
	ID             string                  `json:"id"`
	OldFile        string                  `json:"oldFile"`
	NewFile        string                  `json:"newFile"`
	ComparisonDate string                  `json:"comparisonDate"`
	SheetsCompared []string                `json:"sheetsCompared"`
	Summaries      map[string]SheetSummary `json:"summaries"`
	ChangeCount    int                     `json:"changeCount"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// HistoryStore persists run summaries.
type HistoryStore interface {
	Record(ctx context.Context, s RunSummary) error
	List(ctx context.Context, limit int) ([]RunSummary, error)
}

// DefaultHistoryLimit caps List when limit <= 0.
const DefaultHistoryLimit = 50

// MemoryHistory keeps the most recent summaries in process memory.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []RunSummary // newest last
	max     int
}

// NewMemoryHistory keeps at most max entries (default 500).
func NewMemoryHistory(max int) *MemoryHistory {
	if max <= 0 {
		max = 500
	}
	return &MemoryHistory{max: max}
}

// Record implements HistoryStore.
func (h *MemoryHistory) Record(_ context.Context, s RunSummary) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, s)
	if over := len(h.entries) - h.max; over > 0 {
		h.entries = h.entries[over:]
	}
	return nil
}

// List implements HistoryStore.
func (h *MemoryHistory) List(_ context.Context, limit int) ([]RunSummary, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	out := make([]RunSummary, 0, min(limit, len(h.entries)))
	for i := len(h.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.entries[i])
	}
	return out, nil
}

// Purge implements HistoryPurger.
func (h *MemoryHistory) Purge(_ context.Context, before time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.entries[:0]
	for _, e := range h.entries {
		if !e.CreatedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	purged := int64(len(h.entries) - len(kept))
	h.entries = kept
	return purged, nil
}
