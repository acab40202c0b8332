package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"cafe-order-api/broadcast"
	"cafe-order-api/models"
	"cafe-order-api/services"
	"cafe-order-api/statemachine"

	"github.com/gin-gonic/gin"
)

// OrderHandler exposes the order lifecycle over HTTP. All business rules
// live in the service; this layer binds requests and maps errors.
type OrderHandler struct {
	svc       *services.OrderService
	hub       *broadcast.Hub
	heartbeat time.Duration
}

func NewOrderHandler(svc *services.OrderService, hub *broadcast.Hub) *OrderHandler {
	return &OrderHandler{svc: svc, hub: hub, heartbeat: broadcast.HeartbeatInterval}
}

// SetHeartbeatInterval overrides the ping cadence on live streams.
func (h *OrderHandler) SetHeartbeatInterval(d time.Duration) {
	h.heartbeat = d
}

type CreateOrderRequest struct {
	CustomerName string `json:"customerName"`
	Items        []struct {
		MenuItemID uint `json:"menuItemId" binding:"required"`
		Quantity   int  `json:"quantity" binding:"required,min=1"`
	} `json:"items" binding:"required,min=1"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// CreateOrder places a new order (public, no authentication)
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Items are required"})
		return
	}

	items := make([]services.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, services.ItemInput{MenuItemID: it.MenuItemID, Quantity: it.Quantity})
	}

	order, err := h.svc.Create(req.CustomerName, items)
	if err != nil {
		respondOrderError(c, err, "Failed to create order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ListOrders returns the live queue, optionally filtered by status (admin only)
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.svc.List(c.Query("status"))
	if err != nil {
		respondOrderError(c, err, "Failed to fetch orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder returns a single order by id (public, for status checks)
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondOrderError(c, err, "Failed to fetch order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrderByNumber returns a single order by its customer-facing number (public)
func (h *OrderHandler) GetOrderByNumber(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("orderNumber"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order number"})
		return
	}

	order, err := h.svc.GetByNumber(number)
	if err != nil {
		respondOrderError(c, err, "Failed to fetch order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetQueuePosition reports the order's place in the active queue (public)
func (h *OrderHandler) GetQueuePosition(c *gin.Context) {
	est, err := h.svc.QueuePosition(c.Param("id"))
	if err != nil {
		respondOrderError(c, err, "Failed to compute queue position")
		return
	}
	c.JSON(http.StatusOK, est)
}

// UpdateOrderStatus moves an order to a new status (admin only)
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	order, err := h.svc.UpdateStatus(c.Param("id"), req.Status)
	if err != nil {
		respondOrderError(c, err, "Failed to update order status")
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder removes an order from the queue (admin only)
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		respondOrderError(c, err, "Failed to delete order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}

// GetStateMachineInfo documents the status sequence for staff tooling
func (h *OrderHandler) GetStateMachineInfo(c *gin.Context) {
	next := gin.H{}
	for _, s := range statemachine.Statuses() {
		if n, ok := statemachine.Next(s); ok {
			next[string(s)] = n
		} else {
			next[string(s)] = nil
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"statuses": statemachine.Statuses(),
		"next":     next,
	})
}

// respondOrderError maps service errors onto HTTP statuses. Unexpected
// failures get a generic message; validation and lookup failures keep
// their specific ones.
func respondOrderError(c *gin.Context, err error, generic string) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Msg})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, services.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": generic})
	}
}
