package queue

import (
	"testing"

	"cafe-order-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// activeOrder builds a minimal active order with n line items.
func activeOrder(id string, n int) models.Order {
	items := make([]models.OrderItem, n)
	return models.Order{ID: id, Status: models.StatusNew, Items: items}
}

func TestForOldestOrderIsFirst(t *testing.T) {
	active := []models.Order{
		activeOrder("a", 2),
		activeOrder("b", 1),
	}

	est := For(active, "a")
	require.NotNil(t, est.Position)
	assert.Equal(t, 0, *est.Position)
	assert.Equal(t, 2, est.QueueLength)
	assert.Equal(t, 1, est.ETAMinutes, "no items ahead of the head of the queue")
}

func TestForSingleActiveOrder(t *testing.T) {
	est := For([]models.Order{activeOrder("only", 3)}, "only")
	require.NotNil(t, est.Position)
	assert.Equal(t, 0, *est.Position)
	assert.Equal(t, 1, est.QueueLength)
}

func TestForETAAccumulation(t *testing.T) {
	// A(2 items), B(1 item), target(3 items): 1 + (2+1)*2 = 7
	active := []models.Order{
		activeOrder("a", 2),
		activeOrder("b", 1),
		activeOrder("target", 3),
	}

	est := For(active, "target")
	require.NotNil(t, est.Position)
	assert.Equal(t, 2, *est.Position)
	assert.Equal(t, 3, est.QueueLength)
	assert.Equal(t, 7, est.ETAMinutes)
}

func TestForInactiveOrder(t *testing.T) {
	// An order outside the active set gets a nil position and an ETA
	// accumulated over the entire active list.
	active := []models.Order{
		activeOrder("a", 2),
		activeOrder("b", 4),
	}

	est := For(active, "already-ready")
	assert.Nil(t, est.Position)
	assert.Equal(t, 2, est.QueueLength)
	assert.Equal(t, 1+(2+4)*2, est.ETAMinutes)
}

func TestForEmptyQueue(t *testing.T) {
	est := For(nil, "anything")
	assert.Nil(t, est.Position)
	assert.Equal(t, 0, est.QueueLength)
	assert.Equal(t, 1, est.ETAMinutes)
}
