package domain

import "time"

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// Order is a hedge order handed to the execution engine.
type Order struct {
	Route    RouteID
	Side     OrderSide
	Quantity float64
	Price    float64
}

// Fill is the execution engine's answer to a submitted order.
type Fill struct {
	OrderID  string
	Route    RouteID
	Quantity float64
	Price    float64
	FilledAt time.Time
}

// Position describes exposure left unprotected when a hedge cannot be placed.
type Position struct {
	Route    RouteID `json:"route"`
	Quantity float64 `json:"quantity"`
	// OriginTx references the transaction that opened the exposure.
	OriginTx string `json:"origin_tx,omitempty"`
}

// Escalation is emitted when a critical retry loop exhausts its attempts.
// It is the signal that a position is now a human responsibility.
type Escalation struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Route     RouteID   `json:"route"`
	Position  Position  `json:"position"`
	LastError string    `json:"last_error"`
	Attempts  int       `json:"attempts"`
	Timestamp time.Time `json:"timestamp"`
}
