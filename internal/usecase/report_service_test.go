package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	"github.com/annuu1/autozonexnxt-sub000/pkg/cache"
	"github.com/annuu1/autozonexnxt-sub000/pkg/util"
)

func reportClock() time.Time {
	return time.Date(2026, 8, 31, 10, 0, 0, 0, util.ReportingZone)
}

func at(day, hour int) *time.Time {
	t := time.Date(2026, 8, day, hour, 0, 0, 0, util.ReportingZone)
	return &t
}

// seedReportZones returns a store whose lifecycle zones span three days:
// an entry today, an alert yesterday, and a full breach two days back.
func seedReportZones() *fakeZones {
	zEntry := zone("z-entry", "TCS", 100, 90)
	zEntry.AlertTime = at(31, 9)
	zEntry.EntryTime = at(31, 9)

	zAlert := zone("z-alert", "INFY", 200, 180)
	zAlert.AlertTime = at(30, 11)

	zBreach := zone("z-breach", "WIPRO", 300, 270)
	zBreach.AlertTime = at(27, 9)
	zBreach.EntryTime = at(28, 9)
	zBreach.BreachTime = at(29, 9)

	return newFakeZones(zEntry, zAlert, zBreach)
}

func newReportService(store *fakeZones) (*ReportService, cache.Service) {
	c := cache.NewMemoryCache(cache.WithMemoryMaxSize(128))
	svc := NewReportService(store, c, nopMetrics{}, nil)
	svc.SetClock(reportClock)
	return svc, c
}

func TestGetReportTodayReadThrough(t *testing.T) {
	store := seedReportZones()
	svc, _ := newReportService(store)

	rep, err := svc.GetReport(context.Background(), models.ReportRequest{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if rep.Today == nil {
		t.Fatal("today bucket missing")
	}
	if got := rep.Today.Date; got != "2026-08-31" {
		t.Fatalf("today date = %s", got)
	}
	if len(rep.Today.Entered) != 1 || rep.Today.Entered[0].ZoneID != "z-entry" {
		t.Fatalf("today entered = %+v, want z-entry", rep.Today.Entered)
	}
	if rep.History != nil {
		t.Fatal("history requested without history flag")
	}

	// Second read must come from cache: mutating the store has no effect.
	store.mu.Lock()
	store.zones["z-entry"].EntryTime = nil
	store.mu.Unlock()

	rep, err = svc.GetReport(context.Background(), models.ReportRequest{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("GetReport cached: %v", err)
	}
	if len(rep.Today.Entered) != 1 {
		t.Fatal("cached today bucket should not see store mutation")
	}
}

func TestGetReportHistoryPaging(t *testing.T) {
	svc, _ := newReportService(seedReportZones())

	rep, err := svc.GetReport(context.Background(), models.ReportRequest{History: true, Page: 1, Limit: 1})
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if rep.Pagination == nil || rep.Pagination.TotalDays != 2 {
		t.Fatalf("pagination = %+v, want 2 history days", rep.Pagination)
	}
	if len(rep.History) != 1 {
		t.Fatalf("history page size = %d, want 1", len(rep.History))
	}
	b, ok := rep.History["2026-08-30"]
	if !ok {
		t.Fatalf("page 1 should hold newest history day, got %+v", rep.History)
	}
	if len(b.Approaching) != 1 || b.Approaching[0].ZoneID != "z-alert" {
		t.Fatalf("2026-08-30 approaching = %+v", b.Approaching)
	}

	rep, err = svc.GetReport(context.Background(), models.ReportRequest{History: true, Page: 2, Limit: 1})
	if err != nil {
		t.Fatalf("GetReport page 2: %v", err)
	}
	b, ok = rep.History["2026-08-29"]
	if !ok {
		t.Fatalf("page 2 should hold 2026-08-29, got %+v", rep.History)
	}
	if len(b.Breached) != 1 || b.Breached[0].ZoneID != "z-breach" {
		t.Fatalf("2026-08-29 breached = %+v", b.Breached)
	}

	// Today never appears in history pages.
	for k := range rep.History {
		if k == "2026-08-31" {
			t.Fatal("today leaked into history")
		}
	}
}

func TestBucketingPrecedence(t *testing.T) {
	// A zone with all three timestamps counts once, on its breach day.
	svc, _ := newReportService(seedReportZones())

	rep, err := svc.GetReport(context.Background(), models.ReportRequest{History: true, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	seen := 0
	for _, b := range rep.History {
		for _, r := range append(append(b.Approaching, b.Entered...), b.Breached...) {
			if r.ZoneID == "z-breach" {
				seen++
				if b.Date != "2026-08-29" {
					t.Errorf("z-breach bucketed on %s, want breach day", b.Date)
				}
				if r.Status != models.StatusBreached {
					t.Errorf("z-breach status = %s", r.Status)
				}
			}
		}
	}
	if seen != 1 {
		t.Fatalf("z-breach appeared %d times, want exactly once", seen)
	}
}

func TestPageMissTriggersFullRecompute(t *testing.T) {
	store := seedReportZones()
	svc, c := newReportService(store)

	if _, err := svc.GetReport(context.Background(), models.ReportRequest{History: true, Page: 1, Limit: 10}); err != nil {
		t.Fatalf("prime: %v", err)
	}

	// Evict one history day; the next page read must recompute and still
	// return a complete page.
	if err := c.Delete(context.Background(), dayKey("2026-08-29")); err != nil {
		t.Fatalf("delete: %v", err)
	}

	rep, err := svc.GetReport(context.Background(), models.ReportRequest{History: true, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("GetReport after eviction: %v", err)
	}
	if _, ok := rep.History["2026-08-29"]; !ok {
		t.Fatalf("evicted day not recomputed, history = %+v", rep.History)
	}
	if _, ok := rep.History["2026-08-30"]; !ok {
		t.Fatal("page incomplete after recompute")
	}
}

func TestInvalidateForcesRecompute(t *testing.T) {
	store := seedReportZones()
	svc, _ := newReportService(store)

	if _, err := svc.GetReport(context.Background(), models.ReportRequest{}); err != nil {
		t.Fatalf("prime: %v", err)
	}

	// New entry lands; the cached today bucket doesn't know about it yet.
	store.mu.Lock()
	zNew := zone("z-new", "HDFC", 500, 450)
	zNew.AlertTime = at(31, 10)
	store.zones["z-new"] = &zNew
	store.order = append(store.order, "z-new")
	store.mu.Unlock()

	rep, err := svc.GetReport(context.Background(), models.ReportRequest{})
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if len(rep.Today.Approaching) != 0 {
		t.Fatal("stale cache expected before invalidation")
	}

	if err := svc.Invalidate(context.Background(), "2026-08-31"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	rep, err = svc.GetReport(context.Background(), models.ReportRequest{})
	if err != nil {
		t.Fatalf("GetReport after invalidate: %v", err)
	}
	if len(rep.Today.Approaching) != 1 || rep.Today.Approaching[0].ZoneID != "z-new" {
		t.Fatalf("today after invalidate = %+v, want z-new", rep.Today)
	}
}

func TestEmptyDayServesAndCaches(t *testing.T) {
	store := seedReportZones()
	svc, c := newReportService(store)

	rep, err := svc.GetReport(context.Background(), models.ReportRequest{Date: "2026-08-25"})
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if rep.Today == nil || !rep.Today.Empty() {
		t.Fatalf("expected empty bucket, got %+v", rep.Today)
	}
	if rep.Today.Date != "2026-08-25" {
		t.Fatalf("bucket date = %s", rep.Today.Date)
	}

	ok, err := c.Exists(context.Background(), dayKey("2026-08-25"))
	if err != nil || !ok {
		t.Fatalf("empty bucket not cached (ok=%v err=%v)", ok, err)
	}
}
