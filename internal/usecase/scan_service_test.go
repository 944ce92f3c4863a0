package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	domrepo "github.com/annuu1/autozonexnxt-sub000/internal/domain/repository"
	"github.com/annuu1/autozonexnxt-sub000/internal/services/lifecycle"
)

// fakeZones is an in-memory ZoneStore with set-once stage semantics.
type fakeZones struct {
	mu    sync.Mutex
	zones map[string]*models.Zone
	order []string

	listErr error
}

func newFakeZones(zones ...models.Zone) *fakeZones {
	s := &fakeZones{zones: make(map[string]*models.Zone)}
	for i := range zones {
		z := zones[i]
		s.zones[z.ZoneID] = &z
		s.order = append(s.order, z.ZoneID)
	}
	return s
}

func (s *fakeZones) GetZone(_ context.Context, zoneID string) (*models.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones[zoneID]
	if !ok {
		return nil, domrepo.ErrZoneNotFound
	}
	cp := *z
	return &cp, nil
}

func (s *fakeZones) ListActive(_ context.Context, f domrepo.ZoneFilter) ([]models.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Zone
	for _, id := range s.order {
		z := s.zones[id]
		if !z.Active() {
			continue
		}
		if f.Ticker != "" && z.Ticker != f.Ticker {
			continue
		}
		if f.Timeframe != "" && z.PrimaryTimeframe() != f.Timeframe {
			continue
		}
		if f.Pattern != "" && z.Pattern != f.Pattern {
			continue
		}
		if f.ExcludeSeen && z.LastSeen != nil {
			continue
		}
		out = append(out, *z)
	}
	return out, nil
}

func (s *fakeZones) ListWithLifecycle(context.Context) ([]models.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Zone
	for _, id := range s.order {
		z := s.zones[id]
		if z.AlertTime != nil || z.EntryTime != nil || z.BreachTime != nil {
			out = append(out, *z)
		}
	}
	return out, nil
}

func (s *fakeZones) MarkStage(_ context.Context, zoneID string, stage models.LifecycleStage, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones[zoneID]
	if !ok {
		return false, domrepo.ErrZoneNotFound
	}
	var slot **time.Time
	switch stage {
	case models.StageAlert:
		slot = &z.AlertTime
	case models.StageEntry:
		slot = &z.EntryTime
	case models.StageBreach:
		slot = &z.BreachTime
	default:
		return false, errors.New("unknown stage")
	}
	if *slot != nil {
		return false, nil
	}
	t := at
	*slot = &t
	return true, nil
}

func (s *fakeZones) TouchLastSeen(_ context.Context, zoneID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones[zoneID]
	if !ok {
		return domrepo.ErrZoneNotFound
	}
	t := at
	z.LastSeen = &t
	return nil
}

func (s *fakeZones) ListSnapshots(context.Context) ([]models.Snapshot, error) {
	return nil, nil
}

// fakeSnaps serves fixed snapshots.
type fakeSnaps map[string]models.Snapshot

func (f fakeSnaps) Snapshot(symbol string) (models.Snapshot, bool) {
	s, ok := f[symbol]
	return s, ok
}

// nopJournal records appended events.
type nopJournal struct {
	mu     sync.Mutex
	events []models.TransitionEvent
}

func (j *nopJournal) Append(_ context.Context, ev models.TransitionEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
	return nil
}

func (j *nopJournal) List(_ context.Context, zoneID string, limit int) ([]models.TransitionEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []models.TransitionEvent
	for i := len(j.events) - 1; i >= 0 && len(out) < limit; i-- {
		if j.events[i].ZoneID == zoneID {
			out = append(out, j.events[i])
		}
	}
	return out, nil
}

// nopMetrics satisfies the metrics interface for tests.
type nopMetrics struct{}

func (nopMetrics) RecordScan(string, int)        {}
func (nopMetrics) RecordCache(string, string)    {}
func (nopMetrics) RecordSkip(string)             {}
func (nopMetrics) RecordTransition(string)       {}
func (nopMetrics) RecordLatency(string, float64) {}
func (nopMetrics) RecordError(string)            {}

func ptr(v float64) *float64 { return &v }

func zone(id, ticker string, proximal, distal float64) models.Zone {
	return models.Zone{
		ZoneID:       id,
		Ticker:       ticker,
		Pattern:      "DBR",
		Timeframes:   []string{"1d"},
		ProximalLine: proximal,
		DistalLine:   distal,
		Freshness:    3,
		TradeScore:   5,
	}
}

func newScanService(store *fakeZones, snaps fakeSnaps, j *nopJournal) *ScanService {
	tracker := lifecycle.New(store, j, nopMetrics{})
	return NewScanService(store, snaps, tracker, j, nopMetrics{}, nil)
}

func TestScanReturnsMatchingStatusAndAdvancesLifecycle(t *testing.T) {
	store := newFakeZones(
		zone("z1", "TCS", 100, 90),
		zone("z2", "INFY", 200, 180),
	)
	snaps := fakeSnaps{
		"TCS":  {Symbol: "TCS", DayLow: ptr(101)},  // approaching
		"INFY": {Symbol: "INFY", DayLow: ptr(195)}, // entered
	}
	svc := newScanService(store, snaps, &nopJournal{})

	rows, err := svc.Scan(context.Background(), models.ScanRequest{Status: "approaching", Field: "day_low"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(rows) != 1 || rows[0].ZoneID != "z1" {
		t.Fatalf("expected only z1 approaching, got %+v", rows)
	}
	wantDiff := (101.0 - 100.0) / 101.0
	if diff := rows[0].PercentDiff; diff != wantDiff {
		t.Errorf("percent diff = %v, want %v", diff, wantDiff)
	}

	// Lifecycle advanced for both zones, including the filtered-out one.
	if store.zones["z1"].AlertTime == nil {
		t.Error("z1 alert time not set")
	}
	if store.zones["z2"].EntryTime == nil || store.zones["z2"].AlertTime == nil {
		t.Error("z2 entry should set alert and entry times")
	}
}

func TestScanBreachesEnteredZoneBelowDistal(t *testing.T) {
	store := newFakeZones(zone("z1", "TCS", 100, 90))
	snaps := fakeSnaps{"TCS": {Symbol: "TCS", DayLow: ptr(95)}}
	svc := newScanService(store, snaps, &nopJournal{})

	if _, err := svc.Scan(context.Background(), models.ScanRequest{Status: "entered", Field: "day_low"}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if store.zones["z1"].EntryTime == nil {
		t.Fatal("entry time not set")
	}
	if store.zones["z1"].BreachTime != nil {
		t.Fatal("breach must not be set while price is inside the zone")
	}

	// Price falls through the distal line: classification is no longer
	// entered, but the breach must still be recorded explicitly.
	snaps["TCS"] = models.Snapshot{Symbol: "TCS", DayLow: ptr(85)}
	if _, err := svc.Scan(context.Background(), models.ScanRequest{Status: "other", Field: "day_low"}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if store.zones["z1"].BreachTime == nil {
		t.Fatal("breach time not set after price fell through distal")
	}
}

func TestScanNeverBreachesWithoutEntry(t *testing.T) {
	store := newFakeZones(zone("z1", "TCS", 100, 90))
	snaps := fakeSnaps{"TCS": {Symbol: "TCS", DayLow: ptr(85)}}
	svc := newScanService(store, snaps, &nopJournal{})

	if _, err := svc.Scan(context.Background(), models.ScanRequest{Status: "other", Field: "day_low"}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if store.zones["z1"].BreachTime != nil {
		t.Fatal("zone without entry must never breach")
	}
}

func TestScanSkipsUnusableSnapshots(t *testing.T) {
	store := newFakeZones(
		zone("z1", "TCS", 100, 90),
		zone("z2", "INFY", 200, 180),
		zone("z3", "WIPRO", 300, 270),
	)
	snaps := fakeSnaps{
		"TCS": {Symbol: "TCS"}, // no prices yet
		// INFY has no snapshot at all
		"WIPRO": {Symbol: "WIPRO", DayLow: ptr(305)},
	}
	svc := newScanService(store, snaps, &nopJournal{})

	rows, err := svc.Scan(context.Background(), models.ScanRequest{Status: "approaching", Field: "day_low"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(rows) != 1 || rows[0].ZoneID != "z3" {
		t.Fatalf("expected only z3, got %+v", rows)
	}
	if store.zones["z1"].AlertTime != nil || store.zones["z2"].AlertTime != nil {
		t.Error("skipped zones must not transition")
	}
}

func TestFilteredZonesBandAndPagination(t *testing.T) {
	store := newFakeZones(
		zone("z1", "A", 100, 90), // ltp 104: above band min, inside max
		zone("z2", "B", 100, 90), // ltp 103: below 3% minimum
		zone("z3", "C", 100, 90), // ltp 112: beyond max_pct 0.10
		zone("z4", "D", 100, 90), // ltp 105: qualifies
	)
	snaps := fakeSnaps{
		"A": {Symbol: "A", LastTradedPrice: ptr(104)},
		"B": {Symbol: "B", LastTradedPrice: ptr(103)},
		"C": {Symbol: "C", LastTradedPrice: ptr(112)},
		"D": {Symbol: "D", LastTradedPrice: ptr(105)},
	}
	svc := newScanService(store, snaps, &nopJournal{})

	req := models.FilteredRequest{MaxPct: 0.10, Field: "ltp", Page: 1, Limit: 1}
	rows, total, err := svc.FilteredZones(context.Background(), req)
	if err != nil {
		t.Fatalf("FilteredZones: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if len(rows) != 1 || rows[0].ZoneID != "z1" {
		t.Fatalf("page 1 = %+v, want z1", rows)
	}

	req.Page = 2
	rows, _, err = svc.FilteredZones(context.Background(), req)
	if err != nil {
		t.Fatalf("FilteredZones page 2: %v", err)
	}
	if len(rows) != 1 || rows[0].ZoneID != "z4" {
		t.Fatalf("page 2 = %+v, want z4", rows)
	}

	req.Page = 3
	rows, _, err = svc.FilteredZones(context.Background(), req)
	if err != nil {
		t.Fatalf("FilteredZones page 3: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("page past end should be empty, got %+v", rows)
	}
}

func TestFilteredZonesAboveApproachingCeiling(t *testing.T) {
	// ltp 104 sits above the default approaching ceiling (100 * 1.03), so
	// a scan classifies the zone as other. The dual-threshold band is its
	// own rule and must still include it: (104-100)/104 >= 0.03 and
	// 4/104 <= 0.10.
	store := newFakeZones(zone("z1", "A", 100, 90))
	snaps := fakeSnaps{"A": {Symbol: "A", LastTradedPrice: ptr(104)}}
	svc := newScanService(store, snaps, &nopJournal{})

	rows, total, err := svc.FilteredZones(context.Background(), models.FilteredRequest{MaxPct: 0.10, Field: "ltp", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("FilteredZones: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ZoneID != "z1" {
		t.Fatalf("expected z1 in the band at defaults, got total=%d rows=%+v", total, rows)
	}

	scanned, err := svc.Scan(context.Background(), models.ScanRequest{Status: "approaching", Field: "ltp"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(scanned) != 0 {
		t.Fatalf("104 is past the approaching ceiling, got %+v", scanned)
	}
}

func TestFilteredZonesExcludesSeen(t *testing.T) {
	seen := time.Now()
	z1 := zone("z1", "A", 100, 90)
	z1.LastSeen = &seen
	store := newFakeZones(z1, zone("z2", "B", 100, 90))
	snaps := fakeSnaps{
		"A": {Symbol: "A", LastTradedPrice: ptr(104)},
		"B": {Symbol: "B", LastTradedPrice: ptr(104)},
	}
	svc := newScanService(store, snaps, &nopJournal{})

	rows, _, err := svc.FilteredZones(context.Background(), models.FilteredRequest{MaxPct: 0.10, Field: "ltp", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("FilteredZones: %v", err)
	}
	if len(rows) != 1 || rows[0].ZoneID != "z2" {
		t.Fatalf("expected only unseen z2, got %+v", rows)
	}

	rows, _, err = svc.FilteredZones(context.Background(), models.FilteredRequest{MaxPct: 0.10, Field: "ltp", IncludeSeen: true, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("FilteredZones include_seen: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("include_seen should return both, got %+v", rows)
	}
}

func TestMarkSeenUnknownZone(t *testing.T) {
	svc := newScanService(newFakeZones(), fakeSnaps{}, &nopJournal{})
	err := svc.MarkSeen(context.Background(), "missing")
	if !errors.Is(err, domrepo.ErrZoneNotFound) {
		t.Fatalf("err = %v, want ErrZoneNotFound", err)
	}
}

func TestTransitionsReturnsJournal(t *testing.T) {
	store := newFakeZones(zone("z1", "TCS", 100, 90))
	snaps := fakeSnaps{"TCS": {Symbol: "TCS", DayLow: ptr(95)}}
	j := &nopJournal{}
	svc := newScanService(store, snaps, j)

	if _, err := svc.Scan(context.Background(), models.ScanRequest{Status: "entered", Field: "day_low"}); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	evs, err := svc.Transitions(context.Background(), "z1", 10)
	if err != nil {
		t.Fatalf("Transitions: %v", err)
	}
	// Direct entry backfills the alert stage: two events.
	if len(evs) != 2 {
		t.Fatalf("expected 2 transition events, got %d", len(evs))
	}

	if _, err := svc.Transitions(context.Background(), "missing", 10); !errors.Is(err, domrepo.ErrZoneNotFound) {
		t.Fatalf("expected ErrZoneNotFound for unknown zone, got %v", err)
	}
}
