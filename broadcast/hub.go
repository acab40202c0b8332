package broadcast

import (
	"sync"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/sirupsen/logrus"
)

// Event names emitted on the order streams.
const (
	EventInit        = "init"
	EventPing        = "ping"
	EventOrderCreate = "order-create"
	EventOrderUpdate = "order-update"
	EventOrderDelete = "order-delete"
)

// HeartbeatInterval is how often a live subscription receives a ping event.
const HeartbeatInterval = 15 * time.Second

// subscriberBuffer bounds the per-subscriber event backlog. A subscriber
// that cannot keep up has further events dropped, never queued unbounded.
const subscriberBuffer = 16

// Subscriber is one live stream connection. Events are delivered in publish
// order; the channel is closed on unsubscribe.
type Subscriber struct {
	events chan sse.Event
}

// Events yields the subscriber's event stream.
func (s *Subscriber) Events() <-chan sse.Event {
	return s.events
}

// Hub is an in-memory registry of live order-stream subscribers. It holds
// two disjoint scopes: an admin-wide set that sees every order event, and a
// per-order map that only sees events addressed to that order id. The hub
// keeps no history; a subscriber only receives events published while it is
// registered.
type Hub struct {
	mu     sync.RWMutex
	admin  map[*Subscriber]bool
	orders map[string]map[*Subscriber]bool
	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		admin:  make(map[*Subscriber]bool),
		orders: make(map[string]map[*Subscriber]bool),
		logger: logger,
	}
}

// SubscribeAdmin registers a subscriber on the admin scope. The subscriber
// receives an init acknowledgment before any other event.
func (h *Hub) SubscribeAdmin() *Subscriber {
	sub := newSubscriber()
	h.mu.Lock()
	h.admin[sub] = true
	count := len(h.admin)
	h.mu.Unlock()

	h.logger.WithField("admin_subscribers", count).Info("Admin stream subscribed")
	return sub
}

// SubscribeOrder registers a subscriber on a single order's scope.
func (h *Hub) SubscribeOrder(orderID string) *Subscriber {
	sub := newSubscriber()
	h.mu.Lock()
	set, ok := h.orders[orderID]
	if !ok {
		set = make(map[*Subscriber]bool)
		h.orders[orderID] = set
	}
	set[sub] = true
	h.mu.Unlock()

	h.logger.WithField("order_id", orderID).Info("Order stream subscribed")
	return sub
}

// UnsubscribeAdmin removes the subscriber and closes its event channel.
func (h *Hub) UnsubscribeAdmin(sub *Subscriber) {
	h.mu.Lock()
	if h.admin[sub] {
		delete(h.admin, sub)
		close(sub.events)
	}
	count := len(h.admin)
	h.mu.Unlock()

	h.logger.WithField("admin_subscribers", count).Info("Admin stream unsubscribed")
}

// UnsubscribeOrder removes the subscriber from an order's scope. The scope
// entry itself is discarded once its last subscriber leaves, so short-lived
// orders do not accumulate empty sets.
func (h *Hub) UnsubscribeOrder(orderID string, sub *Subscriber) {
	h.mu.Lock()
	if set, ok := h.orders[orderID]; ok && set[sub] {
		delete(set, sub)
		close(sub.events)
		if len(set) == 0 {
			delete(h.orders, orderID)
		}
	}
	h.mu.Unlock()

	h.logger.WithField("order_id", orderID).Info("Order stream unsubscribed")
}

// PublishAdmin delivers an event to every admin-scope subscriber.
func (h *Hub) PublishAdmin(event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.admin {
		h.deliver(sub, event, data)
	}
}

// PublishOrder delivers an event to the subscribers of one order id.
func (h *Hub) PublishOrder(orderID, event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.orders[orderID] {
		h.deliver(sub, event, data)
	}
}

// AdminCount reports the current number of admin-scope subscribers.
func (h *Hub) AdminCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.admin)
}

// OrderScopeCount reports how many order ids currently have subscribers.
func (h *Hub) OrderScopeCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.orders)
}

// deliver is best-effort: a subscriber whose buffer is full has the event
// dropped and stays registered. Cleanup happens only on unsubscribe.
func (h *Hub) deliver(sub *Subscriber, event string, data any) {
	select {
	case sub.events <- sse.Event{Event: event, Data: data}:
	default:
		h.logger.WithField("event", event).Warn("Subscriber buffer full, dropping event")
	}
}

func newSubscriber() *Subscriber {
	sub := &Subscriber{events: make(chan sse.Event, subscriberBuffer)}
	// the very first event on any stream tells the client it is connected
	sub.events <- sse.Event{Event: EventInit, Data: map[string]bool{"ok": true}}
	return sub
}

// Ping builds the heartbeat event carrying the current time in unix
// milliseconds. Heartbeats are written by the stream handler on its own
// ticker so their lifetime matches the connection's.
func Ping() sse.Event {
	return sse.Event{Event: EventPing, Data: map[string]int64{"t": time.Now().UnixMilli()}}
}
