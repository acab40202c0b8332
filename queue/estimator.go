package queue

import "cafe-order-api/models"

// Wait-time model: a fixed pickup overhead plus a flat per-item preparation
// cost for every line item queued ahead of the target.
const (
	baseMinutes    = 1
	perItemMinutes = 2
)

// Estimate describes where an order sits in the live queue. Position is nil
// when the order is not currently active (already READY or COMPLETED).
type Estimate struct {
	Position    *int `json:"position"`
	QueueLength int  `json:"queueLength"`
	ETAMinutes  int  `json:"etaMinutes"`
}

// For computes the queue estimate for orderID against the active set.
// active must already be sorted ascending by creation time.
//
// The scan accumulates line-item counts until it reaches the target order,
// so an order that is not in the active set yields an ETA derived from the
// whole active list. Callers are responsible for checking that the order
// exists at all.
func For(active []models.Order, orderID string) Estimate {
	var position *int
	itemsAhead := 0
	for i := range active {
		if active[i].ID == orderID {
			p := i
			position = &p
			break
		}
		itemsAhead += len(active[i].Items)
	}

	return Estimate{
		Position:    position,
		QueueLength: len(active),
		ETAMinutes:  baseMinutes + itemsAhead*perItemMinutes,
	}
}
