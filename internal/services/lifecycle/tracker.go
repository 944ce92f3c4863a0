package lifecycle

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	domrepo "github.com/annuu1/autozonexnxt-sub000/internal/domain/repository"
	applogger "github.com/annuu1/autozonexnxt-sub000/pkg/logger"
)

// StageWriter is the slice of the zone store the tracker needs: a
// conditional set-once write per lifecycle timestamp.
type StageWriter interface {
	MarkStage(ctx context.Context, zoneID string, stage models.LifecycleStage, at time.Time) (bool, error)
}

const lockShards = 64

// Tracker advances a zone through its one-way lifecycle
// (unseen -> approaching -> entered -> breached). Every timestamp is
// set-once; replays and out-of-order deliveries are no-ops or backfills,
// never overwrites. Writes for the same zone are serialized through a
// sharded lock on top of the store's conditional update.
type Tracker struct {
	store   StageWriter
	journal domrepo.TransitionJournal
	metrics domrepo.Metrics
	l       *applogger.Logger
	locks   [lockShards]sync.Mutex
}

func New(store StageWriter, journal domrepo.TransitionJournal, metrics domrepo.Metrics) *Tracker {
	return &Tracker{store: store, journal: journal, metrics: metrics}
}

// SetLogger injects a structured logger.
func (t *Tracker) SetLogger(l *applogger.Logger) { t.l = l }

// Advance replays a classification result against the zone's recorded
// state and persists any new alert/entry timestamp. The zone is mutated
// in place on success. Returns true when at least one transition was
// recorded by this call.
//
// An Other status never advances anything here: it is ambiguous between
// "never approached" and "broken down" and breach has its own explicit
// signal (MarkBreached).
func (t *Tracker) Advance(ctx context.Context, z *models.Zone, res models.Classification, price float64, now time.Time) (bool, error) {
	if z == nil {
		return false, fmt.Errorf("lifecycle: nil zone")
	}
	mu := t.lockFor(z.ZoneID)
	mu.Lock()
	defer mu.Unlock()

	// Breached zones are terminal for lifecycle purposes.
	if z.BreachTime != nil {
		return false, nil
	}

	switch res.Status {
	case models.StatusApproaching:
		if z.AlertTime != nil {
			return false, nil
		}
		return t.mark(ctx, z, models.StageAlert, price, now, false)

	case models.StatusEntered:
		if z.EntryTime != nil {
			return false, nil
		}
		transitioned := false
		if z.AlertTime == nil {
			// Entry observed before any alert: backfill the alert stage
			// with the same instant instead of rejecting the update.
			if t.l != nil {
				t.l.Warn("lifecycle clock skew observed",
					applogger.String("zone_id", z.ZoneID),
					applogger.String("stage", string(models.StageAlert)),
				)
			}
			ok, err := t.mark(ctx, z, models.StageAlert, price, now, true)
			if err != nil {
				return false, err
			}
			transitioned = transitioned || ok
		}
		ok, err := t.mark(ctx, z, models.StageEntry, price, now, false)
		if err != nil {
			return transitioned, err
		}
		return transitioned || ok, nil

	default:
		return false, nil
	}
}

// MarkBreached records the explicit breach signal: price has moved past
// the distal line. Earlier stages still unset are backfilled with the
// same instant. Once recorded the zone accepts no further writes.
func (t *Tracker) MarkBreached(ctx context.Context, z *models.Zone, price float64, now time.Time) (bool, error) {
	if z == nil {
		return false, fmt.Errorf("lifecycle: nil zone")
	}
	mu := t.lockFor(z.ZoneID)
	mu.Lock()
	defer mu.Unlock()

	if z.BreachTime != nil {
		return false, nil
	}

	transitioned := false
	for _, stage := range []models.LifecycleStage{models.StageAlert, models.StageEntry} {
		if t.stageTime(z, stage) != nil {
			continue
		}
		if t.l != nil {
			t.l.Warn("lifecycle clock skew observed",
				applogger.String("zone_id", z.ZoneID),
				applogger.String("stage", string(stage)),
			)
		}
		ok, err := t.mark(ctx, z, stage, price, now, true)
		if err != nil {
			return transitioned, err
		}
		transitioned = transitioned || ok
	}

	ok, err := t.mark(ctx, z, models.StageBreach, price, now, false)
	if err != nil {
		return transitioned, err
	}
	return transitioned || ok, nil
}

func (t *Tracker) mark(ctx context.Context, z *models.Zone, stage models.LifecycleStage, price float64, now time.Time, backfill bool) (bool, error) {
	wrote, err := t.store.MarkStage(ctx, z.ZoneID, stage, now)
	if err != nil {
		return false, fmt.Errorf("mark %s: %w", stage, err)
	}
	if !wrote {
		// A concurrent call won the conditional write; not an error.
		return false, nil
	}

	at := now
	switch stage {
	case models.StageAlert:
		z.AlertTime = &at
	case models.StageEntry:
		z.EntryTime = &at
	case models.StageBreach:
		z.BreachTime = &at
	}

	if t.metrics != nil {
		t.metrics.RecordTransition(string(stage))
	}
	if t.journal != nil {
		ev := models.TransitionEvent{
			ZoneID:   z.ZoneID,
			Ticker:   z.Ticker,
			Stage:    stage,
			Price:    price,
			At:       now,
			Backfill: backfill,
		}
		if err := t.journal.Append(ctx, ev); err != nil && t.l != nil {
			// Journal is an audit trail, never a gate.
			t.l.Warn("lifecycle journal append failed",
				applogger.String("zone_id", z.ZoneID),
				applogger.String("stage", string(stage)),
				applogger.Error(err),
			)
		}
	}
	return true, nil
}

func (t *Tracker) stageTime(z *models.Zone, stage models.LifecycleStage) *time.Time {
	switch stage {
	case models.StageAlert:
		return z.AlertTime
	case models.StageEntry:
		return z.EntryTime
	default:
		return z.BreachTime
	}
}

func (t *Tracker) lockFor(zoneID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(zoneID))
	return &t.locks[h.Sum32()%lockShards]
}
