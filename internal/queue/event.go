// Package queue carries order events to the rewards side over RabbitMQ.
package queue

import "github.com/shopspring/decimal"

// OrderCompletedEvent is published after an order commits.  The rewards
// consumer only needs who paid, how much and for which order; it never
// queries the booking database.
type OrderCompletedEvent struct {
    EventID     string          `json:"event_id"`
    OrderID     uint64          `json:"order_id"`
    UserID      uint64          `json:"user_id"`
    Total       decimal.Decimal `json:"total"`
    CompletedAt string          `json:"completed_at"`
}
