package models

import (
	"math"
	"time"
)

// ZoneStatus describes the current relationship between price and a zone.
type ZoneStatus string

const (
	StatusApproaching ZoneStatus = "approaching"
	StatusEntered     ZoneStatus = "entered"
	StatusBreached    ZoneStatus = "breached"
	StatusOther       ZoneStatus = "other"
)

// ReferenceField selects which snapshot price feeds classification.
type ReferenceField string

const (
	FieldLastTradedPrice ReferenceField = "ltp"
	FieldDayLow          ReferenceField = "day_low"
)

// Valid reports whether the field is a known comparison field.
func (f ReferenceField) Valid() bool {
	return f == FieldLastTradedPrice || f == FieldDayLow
}

// FreshnessPromoted marks a zone promoted to the higher-priority tier.
const FreshnessPromoted = 1.5

// Zone is a detected price region. Geometry is fixed at detection time;
// this service only appends lifecycle timestamps and reads freshness.
type Zone struct {
	ZoneID       string     `json:"zone_id" db:"zone_id"`
	Ticker       string     `json:"ticker" db:"ticker"`
	Pattern      string     `json:"pattern" db:"pattern"`
	Timeframes   []string   `json:"timeframes" db:"-"`
	ProximalLine float64    `json:"proximal_line" db:"proximal_line"`
	DistalLine   float64    `json:"distal_line" db:"distal_line"`
	Freshness    float64    `json:"freshness" db:"freshness"`
	TradeScore   float64    `json:"trade_score" db:"trade_score"`
	AlertTime    *time.Time `json:"alert_time,omitempty" db:"alert_time"`
	EntryTime    *time.Time `json:"entry_time,omitempty" db:"entry_time"`
	BreachTime   *time.Time `json:"breach_time,omitempty" db:"breach_time"`
	LastSeen     *time.Time `json:"last_seen,omitempty" db:"last_seen"`
}

// PrimaryTimeframe returns the first (filtering) timeframe, if any.
func (z *Zone) PrimaryTimeframe() string {
	if len(z.Timeframes) == 0 {
		return ""
	}
	return z.Timeframes[0]
}

// Active reports whether the zone participates in scans at all.
func (z *Zone) Active() bool {
	return z.Freshness > 0
}

// Snapshot is the latest observed price state for an instrument.
// Either price may be absent while the feed warms up.
type Snapshot struct {
	Symbol          string   `json:"symbol" db:"symbol"`
	LastTradedPrice *float64 `json:"last_traded_price,omitempty" db:"last_traded_price"`
	DayLow          *float64 `json:"day_low,omitempty" db:"day_low"`
}

// Reference resolves the configured comparison field to a usable price.
// The second return is false when the value is missing, zero, or not finite.
func (s Snapshot) Reference(field ReferenceField) (float64, bool) {
	var p *float64
	switch field {
	case FieldLastTradedPrice:
		p = s.LastTradedPrice
	case FieldDayLow:
		p = s.DayLow
	default:
		return 0, false
	}
	if p == nil {
		return 0, false
	}
	v := *p
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Classification is the result of comparing a zone against a reference price.
type Classification struct {
	Status      ZoneStatus `json:"status"`
	PercentDiff float64    `json:"percent_diff"`
}

// ZoneSummary is the scan/report row shape returned to callers.
type ZoneSummary struct {
	ZoneID       string     `json:"zone_id"`
	Ticker       string     `json:"ticker"`
	ProximalLine float64    `json:"proximal_line"`
	DistalLine   float64    `json:"distal_line"`
	Pattern      string     `json:"pattern"`
	Freshness    float64    `json:"freshness"`
	TradeScore   float64    `json:"trade_score"`
	PercentDiff  float64    `json:"percent_diff"`
	Status       ZoneStatus `json:"status"`
	Timeframes   []string   `json:"timeframes"`
}

// Summarize builds the caller-facing row for a zone and its classification.
func Summarize(z Zone, c Classification) ZoneSummary {
	return ZoneSummary{
		ZoneID:       z.ZoneID,
		Ticker:       z.Ticker,
		ProximalLine: z.ProximalLine,
		DistalLine:   z.DistalLine,
		Pattern:      z.Pattern,
		Freshness:    z.Freshness,
		TradeScore:   z.TradeScore,
		PercentDiff:  c.PercentDiff,
		Status:       c.Status,
		Timeframes:   z.Timeframes,
	}
}
