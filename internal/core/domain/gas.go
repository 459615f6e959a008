package domain

import "time"

// Confidence grades how trustworthy a fetched value is, derived from its source.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// GasQuote is a gas price resolved from one of the configured sources.
// The zero TTL marks a quote that must not be served from cache.
type GasQuote struct {
	Key        string        `json:"key"`
	GweiPrice  float64       `json:"gwei_price"`
	Source     string        `json:"source"`
	Confidence Confidence    `json:"confidence"`
	FetchedAt  time.Time     `json:"fetched_at"`
	TTL        time.Duration `json:"ttl"`
}

// Fresh reports whether the quote is still within its TTL at the given time.
func (q GasQuote) Fresh(now time.Time) bool {
	if q.TTL <= 0 {
		return false
	}
	return now.Sub(q.FetchedAt) < q.TTL
}
