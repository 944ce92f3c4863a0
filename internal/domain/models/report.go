package models

// DateKey is a calendar day in the fixed reporting timezone, YYYY-MM-DD.
type DateKey string

// DayBucket aggregates all zones whose most advanced lifecycle timestamp
// fell on one calendar day. Past-day buckets are frozen; only the bucket
// for the current reporting day can still change.
type DayBucket struct {
	Date        DateKey       `json:"date"`
	Approaching []ZoneSummary `json:"approaching"`
	Entered     []ZoneSummary `json:"entered"`
	Breached    []ZoneSummary `json:"breached"`
}

// Empty reports whether the bucket holds no zones at all.
func (b DayBucket) Empty() bool {
	return len(b.Approaching) == 0 && len(b.Entered) == 0 && len(b.Breached) == 0
}

// ReportPagination describes the slice of history days served.
type ReportPagination struct {
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	TotalDays int `json:"total_days"`
}

// Report is the GetReport response: today's mutable bucket plus an
// optional page of frozen history days.
type Report struct {
	Today      *DayBucket            `json:"today,omitempty"`
	History    map[DateKey]DayBucket `json:"history,omitempty"`
	Pagination *ReportPagination     `json:"pagination,omitempty"`
}
