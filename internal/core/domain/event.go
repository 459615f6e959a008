package domain

import "time"

// MarketEvent is a single update delivered by a live venue stream.
type MarketEvent struct {
	Venue     string
	Pair      string
	Price     float64
	Size      float64
	Side      string
	TradeID   string
	Timestamp time.Time
}
