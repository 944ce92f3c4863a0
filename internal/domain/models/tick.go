package models

import "time"

// Tick is one price observation from the external feed.
type Tick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	At     time.Time `json:"at"`
}
