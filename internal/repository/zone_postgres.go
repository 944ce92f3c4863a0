package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	domrepo "github.com/annuu1/autozonexnxt-sub000/internal/domain/repository"
	applogger "github.com/annuu1/autozonexnxt-sub000/pkg/logger"
)

// PGZoneStore implements ZoneStore backed by Postgres. Lifecycle timestamp
// writes use conditional UPDATE ... WHERE <col> IS NULL so the set-once
// invariant holds even across processes.
type PGZoneStore struct {
	db *sqlx.DB
	l  *applogger.Logger
}

func NewPGZoneStore(db *sqlx.DB) *PGZoneStore {
	return &PGZoneStore{db: db}
}

// SetLogger injects a structured logger.
func (s *PGZoneStore) SetLogger(l *applogger.Logger) { s.l = l }

const zoneColumns = `zone_id, ticker, pattern, timeframes, proximal_line, distal_line,
	freshness, trade_score, alert_time, entry_time, breach_time, last_seen`

// zoneRow is the scan target for zone queries: the model plus a
// pq.StringArray for the timeframes TEXT[] column, which database/sql
// cannot scan into []string directly.
type zoneRow struct {
	models.Zone
	Timeframes pq.StringArray `db:"timeframes"`
}

func (r zoneRow) toModel() models.Zone {
	z := r.Zone
	z.Timeframes = []string(r.Timeframes)
	return z
}

func (s *PGZoneStore) GetZone(ctx context.Context, zoneID string) (*models.Zone, error) {
	q := fmt.Sprintf("SELECT %s FROM zones WHERE zone_id = $1", zoneColumns)
	var r zoneRow
	if err := s.db.GetContext(ctx, &r, q, zoneID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domrepo.ErrZoneNotFound
		}
		return nil, fmt.Errorf("get zone: %w", err)
	}
	z := r.toModel()
	return &z, nil
}

func (s *PGZoneStore) ListActive(ctx context.Context, f domrepo.ZoneFilter) ([]models.Zone, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT %s FROM zones
        WHERE freshness > 0
          AND ($1 = '' OR ticker = $1)
          AND ($2 = '' OR timeframes[1] = $2)
          AND ($3 = '' OR pattern = $3)
          AND (NOT $4 OR last_seen IS NULL)
        ORDER BY trade_score DESC, zone_id ASC`, zoneColumns)

	var rows []zoneRow
	if err := s.db.SelectContext(ctx, &rows, q, f.Ticker, f.Timeframe, f.Pattern, f.ExcludeSeen); err != nil {
		if s.l != nil {
			s.l.Error("postgres list_active query error",
				applogger.String("ticker", f.Ticker),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("list active zones: %w", err)
	}

	out := collectZones(rows)
	if s.l != nil {
		s.l.Debug("postgres list_active ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *PGZoneStore) ListWithLifecycle(ctx context.Context) ([]models.Zone, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT %s FROM zones
        WHERE alert_time IS NOT NULL
           OR entry_time IS NOT NULL
           OR breach_time IS NOT NULL
        ORDER BY zone_id ASC`, zoneColumns)

	var rows []zoneRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		if s.l != nil {
			s.l.Error("postgres list_lifecycle query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("list lifecycle zones: %w", err)
	}

	out := collectZones(rows)
	if s.l != nil {
		s.l.Debug("postgres list_lifecycle ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *PGZoneStore) MarkStage(ctx context.Context, zoneID string, stage models.LifecycleStage, at time.Time) (bool, error) {
	col, err := stageColumn(stage)
	if err != nil {
		return false, err
	}
	q := fmt.Sprintf("UPDATE zones SET %s = $1 WHERE zone_id = $2 AND %s IS NULL", col, col)
	res, err := s.db.ExecContext(ctx, q, at, zoneID)
	if err != nil {
		if s.l != nil {
			s.l.Error("postgres mark_stage error",
				applogger.String("zone_id", zoneID),
				applogger.String("stage", string(stage)),
				applogger.Error(err),
			)
		}
		return false, fmt.Errorf("mark stage %s: %w", stage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark stage %s: %w", stage, err)
	}
	return n > 0, nil
}

func (s *PGZoneStore) TouchLastSeen(ctx context.Context, zoneID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, "UPDATE zones SET last_seen = $1 WHERE zone_id = $2", at, zoneID)
	if err != nil {
		return fmt.Errorf("touch last_seen: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch last_seen: %w", err)
	}
	if n == 0 {
		return domrepo.ErrZoneNotFound
	}
	return nil
}

func (s *PGZoneStore) ListSnapshots(ctx context.Context) ([]models.Snapshot, error) {
	var out []models.Snapshot
	if err := s.db.SelectContext(ctx, &out, "SELECT symbol, last_traded_price, day_low FROM instruments"); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

func stageColumn(stage models.LifecycleStage) (string, error) {
	switch stage {
	case models.StageAlert:
		return "alert_time", nil
	case models.StageEntry:
		return "entry_time", nil
	case models.StageBreach:
		return "breach_time", nil
	default:
		return "", fmt.Errorf("unknown lifecycle stage: %s", stage)
	}
}

func collectZones(rows []zoneRow) []models.Zone {
	out := make([]models.Zone, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out
}

var _ domrepo.ZoneStore = (*PGZoneStore)(nil)
