package feed

import (
	"sync"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	domrepo "github.com/annuu1/autozonexnxt-sub000/internal/domain/repository"
	"github.com/annuu1/autozonexnxt-sub000/pkg/util"
)

type snapshotEntry struct {
	snap models.Snapshot
	day  string // reporting day the day-low belongs to
}

// SnapshotTable is the in-memory per-symbol price snapshot store. It is
// seeded from the persisted instruments table at startup and kept current
// by whichever feed adapter is configured. The day low resets at IST
// midnight, when a fresh reporting day begins.
type SnapshotTable struct {
	mu sync.RWMutex
	m  map[string]snapshotEntry
}

func NewSnapshotTable() *SnapshotTable {
	return &SnapshotTable{m: make(map[string]snapshotEntry)}
}

// Snapshot returns the latest snapshot for a symbol.
func (t *SnapshotTable) Snapshot(symbol string) (models.Snapshot, bool) {
	t.mu.RLock()
	e, ok := t.m[symbol]
	t.mu.RUnlock()
	if !ok {
		return models.Snapshot{}, false
	}
	return e.snap, true
}

// Seed loads persisted snapshots without clobbering anything the live
// feed has already written.
func (t *SnapshotTable) Seed(snaps []models.Snapshot) {
	day := util.DateKeyFor(time.Now())
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range snaps {
		if s.Symbol == "" {
			continue
		}
		if _, exists := t.m[s.Symbol]; exists {
			continue
		}
		t.m[s.Symbol] = snapshotEntry{snap: s, day: day}
	}
}

// ApplyTick folds one feed tick into the table: last traded price is
// replaced, day low is the running minimum within the current reporting day.
func (t *SnapshotTable) ApplyTick(tick models.Tick) {
	if tick.Symbol == "" || tick.Price <= 0 {
		return
	}
	day := util.DateKeyFor(tick.At)

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.m[tick.Symbol]
	price := tick.Price
	if !ok || e.day != day || e.snap.DayLow == nil || price < *e.snap.DayLow {
		low := price
		e.snap.DayLow = &low
	}
	e.snap.Symbol = tick.Symbol
	e.snap.LastTradedPrice = &price
	e.day = day
	t.m[tick.Symbol] = e
}

// Len reports the number of tracked symbols.
func (t *SnapshotTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}

var _ domrepo.SnapshotSource = (*SnapshotTable)(nil)
