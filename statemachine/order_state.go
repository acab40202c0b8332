package statemachine

import (
	"errors"

	"cafe-order-api/models"
)

// statusSequence is the order a ticket moves through on the kitchen board
var statusSequence = []models.OrderStatus{
	models.StatusNew,
	models.StatusPreparing,
	models.StatusReady,
	models.StatusCompleted,
}

// statusIndex is built for O(1) membership and ordering checks
var statusIndex = func() map[models.OrderStatus]int {
	m := make(map[models.OrderStatus]int, len(statusSequence))
	for i, s := range statusSequence {
		m[s] = i
	}
	return m
}()

// IsValid reports whether s is one of the recognized order statuses.
// Matching is case-sensitive.
func IsValid(s models.OrderStatus) bool {
	_, ok := statusIndex[s]
	return ok
}

// Next returns the following stage in the sequence. The second return is
// false for COMPLETED (terminal) and for unrecognized statuses.
func Next(s models.OrderStatus) (models.OrderStatus, bool) {
	i, ok := statusIndex[s]
	if !ok || i == len(statusSequence)-1 {
		return "", false
	}
	return statusSequence[i+1], true
}

// CanTransition checks a single forward step from one status to the next.
// Only used when strict transition checking is enabled; the default update
// path accepts any recognized status regardless of the current one.
func CanTransition(from, to models.OrderStatus) error {
	next, ok := Next(from)
	if !ok {
		return errors.New("invalid transition: " + string(from) + " is a terminal state")
	}
	if to != next {
		return errors.New("invalid transition: " + string(from) + " can only advance to " + string(next))
	}
	return nil
}

// Statuses returns the full sequence for documentation endpoints.
func Statuses() []models.OrderStatus {
	out := make([]models.OrderStatus, len(statusSequence))
	copy(out, statusSequence)
	return out
}
