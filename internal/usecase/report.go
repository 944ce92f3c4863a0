package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	domrepo "github.com/annuu1/autozonexnxt-sub000/internal/domain/repository"
	"github.com/annuu1/autozonexnxt-sub000/pkg/cache"
	applogger "github.com/annuu1/autozonexnxt-sub000/pkg/logger"
	"github.com/annuu1/autozonexnxt-sub000/pkg/util"
)

const (
	dayKeyPrefix   = "report-day"
	indexKeyPrefix = "report-day-index"

	// DefaultTodayTTL bounds staleness of the still-mutable current-day
	// bucket; frozen history days can live much longer.
	DefaultTodayTTL   = time.Hour
	DefaultHistoryTTL = 7 * 24 * time.Hour
)

// ReportService serves the tiered day-bucket report: today's bucket plus
// pages of frozen history days, cached in Redis with read-through
// recomputation from the zone store.
type ReportService struct {
	store   domrepo.ZoneStore
	cache   cache.Service
	metrics domrepo.Metrics
	l       *applogger.Logger

	todayTTL   time.Duration
	historyTTL time.Duration
	now        func() time.Time
}

func NewReportService(store domrepo.ZoneStore, c cache.Service, metrics domrepo.Metrics, l *applogger.Logger) *ReportService {
	return &ReportService{
		store:      store,
		cache:      c,
		metrics:    metrics,
		l:          l,
		todayTTL:   DefaultTodayTTL,
		historyTTL: DefaultHistoryTTL,
		now:        time.Now,
	}
}

// SetTTLs overrides the cache lifetimes.
func (s *ReportService) SetTTLs(today, history time.Duration) {
	if today > 0 {
		s.todayTTL = today
	}
	if history > 0 {
		s.historyTTL = history
	}
}

// SetClock overrides the time source. Test hook.
func (s *ReportService) SetClock(now func() time.Time) { s.now = now }

// GetReport serves the report for the requested day, optionally with a
// page of history days older than today. Any cache miss in the requested
// set triggers a single full recomputation from the zone store; cache
// unavailability degrades to serving directly from the recomputed data.
func (s *ReportService) GetReport(ctx context.Context, req models.ReportRequest) (*models.Report, error) {
	start := s.now()
	defer func() {
		s.metrics.RecordLatency("report_seconds", time.Since(start).Seconds())
	}()

	now := s.now()
	todayKey := models.DateKey(util.DateKeyFor(now))
	targetKey := todayKey
	if req.Date != "" {
		targetKey = models.DateKey(req.Date)
	}

	// recomputed holds the full bucket set once any miss forces a walk of
	// the store; at most one recomputation happens per call.
	var recomputed map[models.DateKey]models.DayBucket
	var index []models.DateKey

	target, ok := s.getDay(ctx, targetKey)
	if !ok {
		var err error
		recomputed, index, err = s.recompute(ctx, now)
		if err != nil {
			return nil, err
		}
		s.writeBack(ctx, recomputed, index, now)
		target = recomputed[targetKey]
		target.Date = targetKey
		if _, found := recomputed[targetKey]; !found {
			// Cache the empty bucket too so quiet days don't recompute
			// on every read.
			ttl := s.historyTTL
			if util.IsToday(string(targetKey), now) {
				ttl = s.todayTTL
			}
			if err := s.cache.Set(ctx, dayKey(targetKey), target, ttl); err != nil {
				s.metrics.RecordCache("report-day", "error")
			}
		}
	}

	rep := &models.Report{Today: &target}
	if !req.History {
		return rep, nil
	}

	if index == nil {
		index, ok = s.getIndex(ctx, todayKey)
		if !ok {
			var err error
			recomputed, index, err = s.recompute(ctx, now)
			if err != nil {
				return nil, err
			}
			s.writeBack(ctx, recomputed, index, now)
		}
	}

	// History pages cover only days strictly before today, newest first.
	history := make([]models.DateKey, 0, len(index))
	for _, k := range index {
		if util.BeforeToday(string(k), now) {
			history = append(history, k)
		}
	}

	pageKeys := pageDateKeys(history, req.Page, req.Limit)
	buckets, ok := s.getDays(ctx, pageKeys, recomputed)
	if !ok {
		var err error
		recomputed, index, err = s.recompute(ctx, now)
		if err != nil {
			return nil, err
		}
		s.writeBack(ctx, recomputed, index, now)
		buckets, _ = s.getDays(ctx, pageKeys, recomputed)
	}

	rep.History = buckets
	rep.Pagination = &models.ReportPagination{
		Page:      req.Page,
		Limit:     req.Limit,
		TotalDays: len(history),
	}
	return rep, nil
}

// Invalidate drops the cached bucket for one day plus the date index so
// the next read recomputes. Admin operation.
func (s *ReportService) Invalidate(ctx context.Context, date string) error {
	now := s.now()
	keys := []string{
		dayKey(models.DateKey(date)),
		indexKey(models.DateKey(util.DateKeyFor(now))),
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.metrics.RecordCache("report-day", "error")
		return fmt.Errorf("invalidate report cache: %w", err)
	}
	s.metrics.RecordCache("report-day", "invalidate")
	return nil
}

// getDay fetches one bucket from cache. Returns false on miss or cache
// failure; failures are logged and treated as misses.
func (s *ReportService) getDay(ctx context.Context, key models.DateKey) (models.DayBucket, bool) {
	var b models.DayBucket
	err := s.cache.Get(ctx, dayKey(key), &b)
	if err == nil {
		s.metrics.RecordCache("report-day", "hit")
		return b, true
	}
	if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.RecordCache("report-day", "miss")
	} else {
		s.metrics.RecordCache("report-day", "error")
		if s.l != nil {
			s.l.Warn("report cache read failed", applogger.String("key", string(key)), applogger.Error(err))
		}
	}
	return models.DayBucket{}, false
}

// getDays fetches a page of buckets. recomputed, when non-nil, is served
// directly without touching the cache. Returns false when any requested
// day is missing from the cache.
func (s *ReportService) getDays(ctx context.Context, keys []models.DateKey, recomputed map[models.DateKey]models.DayBucket) (map[models.DateKey]models.DayBucket, bool) {
	out := make(map[models.DateKey]models.DayBucket, len(keys))
	if recomputed != nil {
		for _, k := range keys {
			b, ok := recomputed[k]
			if !ok {
				continue
			}
			out[k] = b
		}
		return out, true
	}
	if len(keys) == 0 {
		return out, true
	}

	raw := make([]string, len(keys))
	for i, k := range keys {
		raw[i] = dayKey(k)
	}
	fetched, err := cache.MGetTyped[models.DayBucket](ctx, s.cache, raw...)
	if err != nil {
		s.metrics.RecordCache("report-day", "error")
		if s.l != nil {
			s.l.Warn("report cache page read failed", applogger.Error(err))
		}
		return nil, false
	}
	for _, k := range keys {
		b, ok := fetched[dayKey(k)]
		if !ok {
			s.metrics.RecordCache("report-day", "miss")
			return nil, false
		}
		out[k] = b
	}
	s.metrics.RecordCache("report-day", "hit")
	return out, true
}

func (s *ReportService) getIndex(ctx context.Context, anchor models.DateKey) ([]models.DateKey, bool) {
	var idx []models.DateKey
	err := s.cache.Get(ctx, indexKey(anchor), &idx)
	if err == nil {
		s.metrics.RecordCache("report-day-index", "hit")
		return idx, true
	}
	if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.RecordCache("report-day-index", "miss")
	} else {
		s.metrics.RecordCache("report-day-index", "error")
		if s.l != nil {
			s.l.Warn("report index read failed", applogger.Error(err))
		}
	}
	return nil, false
}

// recompute walks every zone with at least one lifecycle timestamp and
// rebuilds the full bucket set. Each zone lands in exactly one day,
// chosen by its most advanced timestamp: breach, else entry, else alert.
func (s *ReportService) recompute(ctx context.Context, now time.Time) (map[models.DateKey]models.DayBucket, []models.DateKey, error) {
	start := s.now()
	zones, err := s.store.ListWithLifecycle(ctx)
	if err != nil {
		s.metrics.RecordError("report_recompute")
		return nil, nil, fmt.Errorf("list lifecycle zones: %w", err)
	}

	buckets := make(map[models.DateKey]models.DayBucket)
	for _, z := range zones {
		at, status := bucketStage(z)
		if at == nil {
			continue
		}
		key := models.DateKey(util.DateKeyFor(*at))
		b := buckets[key]
		b.Date = key
		row := models.Summarize(z, models.Classification{Status: status})
		switch status {
		case models.StatusBreached:
			b.Breached = append(b.Breached, row)
		case models.StatusEntered:
			b.Entered = append(b.Entered, row)
		default:
			b.Approaching = append(b.Approaching, row)
		}
		buckets[key] = b
	}

	index := make([]models.DateKey, 0, len(buckets))
	for k := range buckets {
		index = append(index, k)
	}
	sort.Slice(index, func(i, j int) bool { return index[i] > index[j] })

	s.metrics.RecordLatency("report_recompute_seconds", time.Since(start).Seconds())
	if s.l != nil {
		s.l.Debug("report recomputed",
			applogger.Int("zones", len(zones)),
			applogger.Int("days", len(buckets)))
	}
	return buckets, index, nil
}

// writeBack persists the recomputed buckets and index. Cache write
// failures are non-fatal; the data was already served from memory.
func (s *ReportService) writeBack(ctx context.Context, buckets map[models.DateKey]models.DayBucket, index []models.DateKey, now time.Time) {
	for k, b := range buckets {
		ttl := s.historyTTL
		if util.IsToday(string(k), now) {
			ttl = s.todayTTL
		}
		if err := s.cache.Set(ctx, dayKey(k), b, ttl); err != nil {
			s.metrics.RecordCache("report-day", "error")
			if s.l != nil {
				s.l.Warn("report cache write failed", applogger.String("key", string(k)), applogger.Error(err))
			}
			return
		}
	}
	anchor := models.DateKey(util.DateKeyFor(now))
	if err := s.cache.Set(ctx, indexKey(anchor), index, s.todayTTL); err != nil {
		s.metrics.RecordCache("report-day-index", "error")
		if s.l != nil {
			s.l.Warn("report index write failed", applogger.Error(err))
		}
		return
	}
	s.metrics.RecordCache("report-day", "write")
}

// bucketStage picks the day-assigning timestamp and matching status.
func bucketStage(z models.Zone) (*time.Time, models.ZoneStatus) {
	switch {
	case z.BreachTime != nil:
		return z.BreachTime, models.StatusBreached
	case z.EntryTime != nil:
		return z.EntryTime, models.StatusEntered
	case z.AlertTime != nil:
		return z.AlertTime, models.StatusApproaching
	}
	return nil, models.StatusOther
}

func dayKey(k models.DateKey) string   { return cache.GenerateKey(dayKeyPrefix, string(k)) }
func indexKey(k models.DateKey) string { return cache.GenerateKey(indexKeyPrefix, string(k)) }

func pageDateKeys(keys []models.DateKey, page, limit int) []models.DateKey {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(keys) {
		return []models.DateKey{}
	}
	end := start + limit
	if end > len(keys) {
		end = len(keys)
	}
	return keys[start:end]
}
