package repository

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/reflectx"
	"github.com/lib/pq"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
)

func TestZoneRowMapsEveryQueriedColumn(t *testing.T) {
	// Same mapper sqlx.DB uses, so a column that StructScan could not
	// bind fails here instead of at query time.
	m := reflectx.NewMapperFunc("db", strings.ToLower)
	tm := m.TypeMap(reflect.TypeOf(zoneRow{}))

	for _, col := range strings.Split(zoneColumns, ",") {
		col = strings.TrimSpace(col)
		fi, ok := tm.Names[col]
		if !ok || fi == nil {
			t.Errorf("column %q has no scan target on zoneRow", col)
		}
	}

	// TEXT[] must land on the pq.StringArray override, not the model's
	// plain []string.
	fi := tm.Names["timeframes"]
	if fi == nil || fi.Field.Type != reflect.TypeOf(pq.StringArray{}) {
		t.Fatalf("timeframes must scan into pq.StringArray, got %+v", fi)
	}
}

func TestZoneRowToModel(t *testing.T) {
	at := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	r := zoneRow{
		Zone: models.Zone{
			ZoneID:       "z1",
			Ticker:       "TCS",
			Pattern:      "DBR",
			ProximalLine: 100,
			DistalLine:   90,
			Freshness:    3,
			TradeScore:   5,
			AlertTime:    &at,
		},
		Timeframes: pq.StringArray{"1d", "1wk"},
	}

	z := r.toModel()
	if z.ZoneID != "z1" || z.ProximalLine != 100 || z.AlertTime == nil {
		t.Fatalf("model fields lost in conversion: %+v", z)
	}
	if !reflect.DeepEqual(z.Timeframes, []string{"1d", "1wk"}) {
		t.Fatalf("timeframes = %v, want [1d 1wk]", z.Timeframes)
	}
}
