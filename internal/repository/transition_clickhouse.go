package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	domrepo "github.com/annuu1/autozonexnxt-sub000/internal/domain/repository"
	pkgch "github.com/annuu1/autozonexnxt-sub000/pkg/clickhouse"
	applogger "github.com/annuu1/autozonexnxt-sub000/pkg/logger"
)

// CHTransitionJournal implements TransitionJournal backed by ClickHouse.
// Transitions are append-only facts, which makes a MergeTree table the
// natural home; the journal is audit data and is never read back on the
// hot scan path.
type CHTransitionJournal struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHTransitionJournal(ch *pkgch.Client, table string) *CHTransitionJournal {
	return &CHTransitionJournal{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (j *CHTransitionJournal) SetLogger(l *applogger.Logger) { j.l = l }

func (j *CHTransitionJournal) Append(ctx context.Context, ev models.TransitionEvent) error {
	start := time.Now()
	q := fmt.Sprintf(
		"INSERT INTO %s (zone_id, ticker, stage, price, at, backfill) VALUES (?, ?, ?, ?, ?, ?)",
		j.table,
	)
	backfill := uint8(0)
	if ev.Backfill {
		backfill = 1
	}
	_, err := j.db.ExecContext(ctx, q, ev.ZoneID, ev.Ticker, string(ev.Stage), ev.Price, ev.At, backfill)
	if err != nil {
		if j.l != nil {
			j.l.Error("clickhouse journal insert error",
				applogger.String("zone_id", ev.ZoneID),
				applogger.String("stage", string(ev.Stage)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("append transition: %w", err)
	}
	if j.l != nil {
		j.l.Debug("clickhouse journal append ok",
			applogger.String("zone_id", ev.ZoneID),
			applogger.String("stage", string(ev.Stage)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (j *CHTransitionJournal) List(ctx context.Context, zoneID string, limit int) ([]models.TransitionEvent, error) {
	q := fmt.Sprintf(`
        SELECT zone_id, ticker, stage, price, at, backfill
        FROM %s
        WHERE zone_id = ?
        ORDER BY at DESC
        LIMIT ?`, j.table)

	rows, err := j.db.QueryContext(ctx, q, zoneID, limit)
	if err != nil {
		if j.l != nil {
			j.l.Error("clickhouse journal query error",
				applogger.String("zone_id", zoneID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	out := make([]models.TransitionEvent, 0, limit)
	for rows.Next() {
		var ev models.TransitionEvent
		var stage string
		var backfill uint8
		if err := rows.Scan(&ev.ZoneID, &ev.Ticker, &stage, &ev.Price, &ev.At, &backfill); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		ev.Stage = models.LifecycleStage(stage)
		ev.Backfill = backfill != 0
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

var _ domrepo.TransitionJournal = (*CHTransitionJournal)(nil)
