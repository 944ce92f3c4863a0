package models

import "time"

// LifecycleStage names the one-way stages a zone moves through.
type LifecycleStage string

const (
	StageAlert  LifecycleStage = "alert"
	StageEntry  LifecycleStage = "entry"
	StageBreach LifecycleStage = "breach"
)

// TransitionEvent is the append-only journal record written whenever a
// zone crosses into a new lifecycle stage.
type TransitionEvent struct {
	ZoneID   string         `json:"zone_id"`
	Ticker   string         `json:"ticker"`
	Stage    LifecycleStage `json:"stage"`
	Price    float64        `json:"price"`
	At       time.Time      `json:"at"`
	Backfill bool           `json:"backfill"`
}
