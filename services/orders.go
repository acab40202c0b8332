package services

import (
	"errors"
	"fmt"
	"strings"

	"cafe-order-api/broadcast"
	"cafe-order-api/models"
	"cafe-order-api/queue"
	"cafe-order-api/statemachine"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// createRetries caps how often a create is retried after losing the race
// for an order number to a concurrent creation.
const createRetries = 3

// ItemInput is one requested line item on a new order.
type ItemInput struct {
	MenuItemID uint
	Quantity   int
}

// OrderService owns the order lifecycle: it validates input, persists
// through the store and notifies the broadcast hub. Handlers stay thin on
// top of it.
type OrderService struct {
	db     *gorm.DB
	hub    *broadcast.Hub
	logger *logrus.Logger
	strict bool
}

// NewOrderService wires the service. With strict enabled, status updates
// must follow the NEW → PREPARING → READY → COMPLETED sequence one step at
// a time; otherwise any recognized status is accepted regardless of the
// current one.
func NewOrderService(db *gorm.DB, hub *broadcast.Hub, logger *logrus.Logger, strict bool) *OrderService {
	return &OrderService{db: db, hub: hub, logger: logger, strict: strict}
}

// Create validates the requested items, snapshots current menu prices and
// persists the order together with its items in one transaction. The order
// number comes from a counter advanced inside that transaction; a unique
// index on order_number backstops concurrent creations, which are retried.
func (s *OrderService) Create(customerName string, items []ItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, validationErr("Items are required")
	}

	menuItemIDs := make([]uint, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, validationErr("Item quantity must be at least 1")
		}
		menuItemIDs = append(menuItemIDs, it.MenuItemID)
	}

	var menuItems []models.MenuItem
	if err := s.db.Where("id IN ?", menuItemIDs).Find(&menuItems).Error; err != nil {
		return nil, fmt.Errorf("resolve menu items: %w", err)
	}
	// strict count match against the request, duplicates included
	if len(menuItems) != len(menuItemIDs) {
		return nil, validationErr("Some menu items not found")
	}
	byID := make(map[uint]models.MenuItem, len(menuItems))
	for _, mi := range menuItems {
		byID[mi.ID] = mi
	}

	var total float64
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		mi := byID[it.MenuItemID]
		total += mi.Price * float64(it.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID: mi.ID,
			Quantity:   it.Quantity,
			Price:      mi.Price,
		})
	}

	order := models.Order{
		ID:           uuid.New().String(),
		CustomerName: customerName,
		TotalPrice:   total,
		Status:       models.StatusNew,
		Items:        orderItems,
	}

	var err error
	for attempt := 0; attempt < createRetries; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			number, err := nextOrderNumber(tx)
			if err != nil {
				return err
			}
			order.OrderNumber = number
			return tx.Create(&order).Error
		})
		if err == nil || !isRetryableCreate(err) {
			break
		}
		s.logger.WithField("order_number", order.OrderNumber).
			Warn("Order creation transaction contended, retrying")
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	created, err := s.Get(order.ID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"total_price":  created.TotalPrice,
		"items_count":  len(created.Items),
	}).Info("Order created")

	s.hub.PublishAdmin(broadcast.EventOrderCreate, created)
	s.hub.PublishOrder(created.ID, broadcast.EventOrderUpdate, created)
	return created, nil
}

// List returns all orders ascending by creation time, optionally filtered
// by an exact status match.
func (s *OrderService) List(status string) ([]models.Order, error) {
	var orders []models.Order
	query := s.db.Preload("Items.MenuItem")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at asc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get looks up one order by id with its resolved items.
func (s *OrderService) Get(id string) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items.MenuItem").Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}

// GetByNumber looks up one order by its customer-facing number.
func (s *OrderService) GetByNumber(number int) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items.MenuItem").Where("order_number = ?", number).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order by number: %w", err)
	}
	return &order, nil
}

// UpdateStatus overwrites the order's status and notifies both the admin
// scope and the order's own stream. Unrecognized values are rejected; by
// default any recognized value is applied no matter the current status.
func (s *OrderService) UpdateStatus(id string, status models.OrderStatus) (*models.Order, error) {
	if !statemachine.IsValid(status) {
		return nil, ErrInvalidStatus
	}

	order, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if s.strict && order.Status != status {
		if err := statemachine.CanTransition(order.Status, status); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, err.Error())
		}
	}

	if err := s.db.Model(&models.Order{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	updated, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": id,
		"status":   status,
	}).Info("Order status updated")

	s.hub.PublishAdmin(broadcast.EventOrderUpdate, updated)
	s.hub.PublishOrder(id, broadcast.EventOrderUpdate, updated)
	return updated, nil
}

// Delete removes the order and its items, then notifies both scopes with
// the order's last known data.
func (s *OrderService) Delete(id string) error {
	order, err := s.Get(id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Order{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     id,
		"order_number": order.OrderNumber,
	}).Info("Order deleted")

	s.hub.PublishAdmin(broadcast.EventOrderDelete, order)
	s.hub.PublishOrder(id, broadcast.EventOrderDelete, order)
	return nil
}

// QueuePosition reports where the order sits among active orders plus a
// wait estimate. The order must exist, but need not be active.
func (s *OrderService) QueuePosition(id string) (queue.Estimate, error) {
	if _, err := s.Get(id); err != nil {
		return queue.Estimate{}, err
	}

	var active []models.Order
	if err := s.db.Preload("Items").
		Where("status IN ?", models.ActiveStatuses).
		Order("created_at asc").
		Find(&active).Error; err != nil {
		return queue.Estimate{}, fmt.Errorf("list active orders: %w", err)
	}

	return queue.For(active, id), nil
}

// nextOrderNumber increments the order-number sequence within the caller's
// transaction. The counter only ever grows, so numbers stay unique and are
// never reissued after a deletion. Row locking covers dialects that do not
// serialize writers the way SQLite does.
func nextOrderNumber(tx *gorm.DB) (int, error) {
	var counter models.OrderCounter
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(models.OrderCounter{ID: 1}).
		FirstOrCreate(&counter).Error; err != nil {
		return 0, fmt.Errorf("load order counter: %w", err)
	}
	counter.Value++
	if err := tx.Save(&counter).Error; err != nil {
		return 0, fmt.Errorf("advance order counter: %w", err)
	}
	return counter.Value, nil
}

// isRetryableCreate reports whether the creation transaction failed in a
// way worth retrying: the order_number unique index tripping under
// concurrent creation, or SQLite reporting the database busy or locked.
// Matched on message text since the pure-Go sqlite driver does not expose
// typed errors through gorm.
func isRetryableCreate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "database is locked")
}
