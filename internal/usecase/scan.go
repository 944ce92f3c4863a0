package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	domrepo "github.com/annuu1/autozonexnxt-sub000/internal/domain/repository"
	"github.com/annuu1/autozonexnxt-sub000/internal/services/lifecycle"
	"github.com/annuu1/autozonexnxt-sub000/internal/services/proximity"
	applogger "github.com/annuu1/autozonexnxt-sub000/pkg/logger"
)

// ScanService classifies active zones against live prices and drives their
// lifecycle timestamps as a side effect of every scan.
type ScanService struct {
	store     domrepo.ZoneStore
	snapshots domrepo.SnapshotSource
	tracker   *lifecycle.Tracker
	journal   domrepo.TransitionJournal
	metrics   domrepo.Metrics
	l         *applogger.Logger

	distalThresholdPct float64
}

func NewScanService(
	store domrepo.ZoneStore,
	snapshots domrepo.SnapshotSource,
	tracker *lifecycle.Tracker,
	journal domrepo.TransitionJournal,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *ScanService {
	return &ScanService{
		store:              store,
		snapshots:          snapshots,
		tracker:            tracker,
		journal:            journal,
		metrics:            metrics,
		l:                  l,
		distalThresholdPct: proximity.DefaultDistalThresholdPct,
	}
}

// SetDistalThreshold overrides the approaching-band width.
func (s *ScanService) SetDistalThreshold(pct float64) {
	if pct > 0 {
		s.distalThresholdPct = pct
	}
}

// Scan classifies every active zone and returns the ones whose status
// matches the request. Lifecycle timestamps advance for ALL classified
// zones, not only the returned subset.
func (s *ScanService) Scan(ctx context.Context, req models.ScanRequest) ([]models.ZoneSummary, error) {
	start := time.Now()
	zones, err := s.store.ListActive(ctx, domrepo.ZoneFilter{
		Ticker:    req.Ticker,
		Timeframe: req.Timeframe,
		Pattern:   req.Pattern,
	})
	if err != nil {
		s.metrics.RecordError("zone_list")
		return nil, fmt.Errorf("list active zones: %w", err)
	}

	field := models.ReferenceField(req.Field)
	want := models.ZoneStatus(req.Status)
	now := time.Now()

	out := make([]models.ZoneSummary, 0, len(zones))
	for i := range zones {
		z := &zones[i]
		res, ok := s.classify(ctx, z, field, now)
		if !ok {
			continue
		}
		if res.Status == want {
			out = append(out, models.Summarize(*z, res))
		}
	}

	s.metrics.RecordScan(string(want), len(out))
	s.metrics.RecordLatency("scan_seconds", time.Since(start).Seconds())
	return out, nil
}

// FilteredZones returns the paged actionable shortlist: zones whose
// reference price clears the minimum distance above the proximal line and
// sits within the maximum distance band. The band is independent of the
// scan classification but lifecycle still advances for every zone looked
// at.
func (s *ScanService) FilteredZones(ctx context.Context, req models.FilteredRequest) ([]models.ZoneSummary, int, error) {
	start := time.Now()
	zones, err := s.store.ListActive(ctx, domrepo.ZoneFilter{ExcludeSeen: !req.IncludeSeen})
	if err != nil {
		s.metrics.RecordError("zone_list")
		return nil, 0, fmt.Errorf("list active zones: %w", err)
	}

	field := models.ReferenceField(req.Field)
	now := time.Now()

	matched := make([]models.ZoneSummary, 0, len(zones))
	for i := range zones {
		z := &zones[i]
		snap, ok := s.snapshots.Snapshot(z.Ticker)
		if !ok {
			s.metrics.RecordSkip("no_snapshot")
			continue
		}
		ref, ok := snap.Reference(field)
		if !ok {
			s.metrics.RecordSkip("insufficient_data")
			continue
		}
		res, cerr := proximity.Classify(*z, ref, s.distalThresholdPct)
		if cerr != nil {
			s.metrics.RecordSkip("insufficient_data")
			continue
		}
		s.advance(ctx, z, res, ref, now)
		if !proximity.PassesFilter(*z, ref, req.MaxPct) {
			continue
		}
		matched = append(matched, models.Summarize(*z, res))
	}

	total := len(matched)
	page := pageSlice(matched, req.Page, req.Limit)

	s.metrics.RecordScan("filtered", len(page))
	s.metrics.RecordLatency("filtered_scan_seconds", time.Since(start).Seconds())
	return page, total, nil
}

// MarkSeen records an operator acknowledgement on a zone so filtered scans
// can exclude it.
func (s *ScanService) MarkSeen(ctx context.Context, zoneID string) error {
	if err := s.store.TouchLastSeen(ctx, zoneID, time.Now()); err != nil {
		if !errors.Is(err, domrepo.ErrZoneNotFound) {
			s.metrics.RecordError("mark_seen")
		}
		return err
	}
	return nil
}

// Transitions returns the audit trail of lifecycle transitions for a zone,
// newest first.
func (s *ScanService) Transitions(ctx context.Context, zoneID string, limit int) ([]models.TransitionEvent, error) {
	if _, err := s.store.GetZone(ctx, zoneID); err != nil {
		return nil, err
	}
	evs, err := s.journal.List(ctx, zoneID, limit)
	if err != nil {
		s.metrics.RecordError("journal_list")
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	return evs, nil
}

// classify resolves the reference price, classifies the zone, and advances
// its lifecycle. Returns false when the zone had to be skipped.
func (s *ScanService) classify(ctx context.Context, z *models.Zone, field models.ReferenceField, now time.Time) (models.Classification, bool) {
	snap, ok := s.snapshots.Snapshot(z.Ticker)
	if !ok {
		s.metrics.RecordSkip("no_snapshot")
		return models.Classification{}, false
	}
	ref, ok := snap.Reference(field)
	if !ok {
		s.metrics.RecordSkip("insufficient_data")
		return models.Classification{}, false
	}
	res, err := proximity.Classify(*z, ref, s.distalThresholdPct)
	if err != nil {
		s.metrics.RecordSkip("insufficient_data")
		return models.Classification{}, false
	}
	s.advance(ctx, z, res, ref, now)
	return res, true
}

// advance moves the zone's lifecycle forward and detects distal breaches.
// A breach is signaled only when an entered zone's price falls through the
// distal line; an Other classification on its own never breaches.
func (s *ScanService) advance(ctx context.Context, z *models.Zone, res models.Classification, price float64, now time.Time) {
	if _, err := s.tracker.Advance(ctx, z, res, price, now); err != nil {
		s.metrics.RecordError("lifecycle_advance")
		if s.l != nil {
			s.l.Warn("lifecycle advance failed",
				applogger.String("zone_id", z.ZoneID),
				applogger.Error(err))
		}
	}
	if z.EntryTime != nil && z.BreachTime == nil && price < z.DistalLine {
		if _, err := s.tracker.MarkBreached(ctx, z, price, now); err != nil {
			s.metrics.RecordError("lifecycle_breach")
			if s.l != nil {
				s.l.Warn("breach mark failed",
					applogger.String("zone_id", z.ZoneID),
					applogger.Error(err))
			}
		}
	}
}

func pageSlice(rows []models.ZoneSummary, page, limit int) []models.ZoneSummary {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(rows) {
		return []models.ZoneSummary{}
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
