package feed

import (
	"testing"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	"github.com/annuu1/autozonexnxt-sub000/pkg/util"
)

func fptr(v float64) *float64 { return &v }

func ist(day, hour int) time.Time {
	return time.Date(2026, 8, day, hour, 0, 0, 0, util.ReportingZone)
}

func TestApplyTickTracksDayLow(t *testing.T) {
	tbl := NewSnapshotTable()

	tbl.ApplyTick(models.Tick{Symbol: "TCS", Price: 100, At: ist(31, 10)})
	tbl.ApplyTick(models.Tick{Symbol: "TCS", Price: 95, At: ist(31, 11)})
	tbl.ApplyTick(models.Tick{Symbol: "TCS", Price: 105, At: ist(31, 12)})

	s, ok := tbl.Snapshot("TCS")
	if !ok {
		t.Fatal("snapshot missing")
	}
	if *s.LastTradedPrice != 105 {
		t.Errorf("ltp = %v, want last tick 105", *s.LastTradedPrice)
	}
	if *s.DayLow != 95 {
		t.Errorf("day low = %v, want running min 95", *s.DayLow)
	}
}

func TestApplyTickResetsDayLowOnNewReportingDay(t *testing.T) {
	tbl := NewSnapshotTable()

	tbl.ApplyTick(models.Tick{Symbol: "TCS", Price: 90, At: ist(30, 15)})
	// Next reporting day: the old low no longer applies.
	tbl.ApplyTick(models.Tick{Symbol: "TCS", Price: 110, At: ist(31, 9)})

	s, _ := tbl.Snapshot("TCS")
	if *s.DayLow != 110 {
		t.Errorf("day low = %v, want 110 after day rollover", *s.DayLow)
	}
}

func TestSeedDoesNotClobberLiveData(t *testing.T) {
	tbl := NewSnapshotTable()
	tbl.ApplyTick(models.Tick{Symbol: "TCS", Price: 100, At: time.Now()})

	tbl.Seed([]models.Snapshot{
		{Symbol: "TCS", LastTradedPrice: fptr(50)},
		{Symbol: "INFY", LastTradedPrice: fptr(200), DayLow: fptr(198)},
	})

	s, _ := tbl.Snapshot("TCS")
	if *s.LastTradedPrice != 100 {
		t.Errorf("seed overwrote live ltp: %v", *s.LastTradedPrice)
	}
	if _, ok := tbl.Snapshot("INFY"); !ok {
		t.Error("seed should add unseen symbols")
	}
	if tbl.Len() != 2 {
		t.Errorf("len = %d, want 2", tbl.Len())
	}
}

func TestApplyTickIgnoresJunk(t *testing.T) {
	tbl := NewSnapshotTable()
	tbl.ApplyTick(models.Tick{Symbol: "", Price: 100, At: time.Now()})
	tbl.ApplyTick(models.Tick{Symbol: "TCS", Price: 0, At: time.Now()})
	tbl.ApplyTick(models.Tick{Symbol: "TCS", Price: -5, At: time.Now()})
	if tbl.Len() != 0 {
		t.Errorf("junk ticks stored: len = %d", tbl.Len())
	}
}
