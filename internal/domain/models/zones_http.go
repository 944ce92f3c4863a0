package models

// Requests for the zone HTTP endpoints. Defined in domain for consistency and reuse.

type ScanRequest struct {
	Status    string `query:"status" json:"status" default:"approaching" validate:"oneof=approaching entered other"`
	Timeframe string `query:"timeframe" json:"timeframe" validate:"omitempty,max=8"`
	Field     string `query:"field" json:"field" default:"day_low" validate:"oneof=ltp day_low"`
	Ticker    string `query:"ticker" json:"ticker" validate:"omitempty,max=32"`
	Pattern   string `query:"pattern" json:"pattern" validate:"omitempty,max=32"`
}

type FilteredRequest struct {
	MaxPct      float64 `query:"max_pct" json:"max_pct" default:"0.10" validate:"gt=0,lte=1"`
	IncludeSeen bool    `query:"include_seen" json:"include_seen"`
	Field       string  `query:"field" json:"field" default:"ltp" validate:"oneof=ltp day_low"`
	Page        int     `query:"page" json:"page" default:"1" validate:"gte=1"`
	Limit       int     `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}

type ReportRequest struct {
	Date    string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	History bool   `query:"history" json:"history"`
	Page    int    `query:"page" json:"page" default:"1" validate:"gte=1"`
	Limit   int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=90"`
}

type TransitionsRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
