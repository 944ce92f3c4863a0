package repository

import (
	"context"
	"errors"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
)

// ErrZoneNotFound is returned when a zone id does not exist.
var ErrZoneNotFound = errors.New("repository: zone not found")

// ZoneFilter narrows zone listings. Zero values mean "no constraint".
type ZoneFilter struct {
	Ticker      string
	Timeframe   string
	Pattern     string
	ExcludeSeen bool
}

// ZoneStore is the queryable store of zone records. Lifecycle timestamp
// writes are conditional set-once updates so concurrent classification of
// the same zone cannot overwrite an earlier transition.
type ZoneStore interface {
	// GetZone returns one zone by its identifier.
	GetZone(ctx context.Context, zoneID string) (*models.Zone, error)
	// ListActive returns all zones with freshness > 0 matching the filter.
	ListActive(ctx context.Context, f ZoneFilter) ([]models.Zone, error)
	// ListWithLifecycle returns every zone that has at least one lifecycle
	// timestamp set. Used by report recomputation; walks the full set.
	ListWithLifecycle(ctx context.Context) ([]models.Zone, error)
	// MarkStage sets the stage timestamp iff it is still unset. Returns
	// true when this call performed the write.
	MarkStage(ctx context.Context, zoneID string, stage models.LifecycleStage, at time.Time) (bool, error)
	// TouchLastSeen records an operator acknowledgement.
	TouchLastSeen(ctx context.Context, zoneID string, at time.Time) error
	// ListSnapshots returns the persisted instrument snapshots used to
	// seed the live snapshot table at startup.
	ListSnapshots(ctx context.Context) ([]models.Snapshot, error)
}

// SnapshotSource serves the latest price snapshot per symbol.
type SnapshotSource interface {
	Snapshot(symbol string) (models.Snapshot, bool)
}

// TransitionJournal is the append-only audit of lifecycle transitions.
type TransitionJournal interface {
	Append(ctx context.Context, ev models.TransitionEvent) error
	List(ctx context.Context, zoneID string, limit int) ([]models.TransitionEvent, error)
}

// Metrics records operational counters and latencies.
type Metrics interface {
	RecordScan(status string, zones int)
	RecordCache(key, outcome string)
	RecordSkip(reason string)
	RecordTransition(stage string)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
}
