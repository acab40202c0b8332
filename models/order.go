package models

import "time"

// OrderStatus represents the stages a cafe order moves through
type OrderStatus string

const (
	StatusNew       OrderStatus = "NEW"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusCompleted OrderStatus = "COMPLETED"
)

// ActiveStatuses are the statuses counted by the queue estimator
var ActiveStatuses = []OrderStatus{StatusNew, StatusPreparing}

type Order struct {
	ID           string      `json:"id" gorm:"primaryKey"`
	OrderNumber  int         `json:"orderNumber" gorm:"uniqueIndex;not null"`
	CustomerName string      `json:"customerName"`
	TotalPrice   float64     `json:"totalPrice" gorm:"not null"`
	Status       OrderStatus `json:"status" gorm:"not null;default:'NEW'"`
	Items        []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// OrderCounter is the single-row sequence behind order numbers. Numbers
// are handed out inside the creation transaction and never reused, even
// after an order is deleted.
type OrderCounter struct {
	ID    uint `gorm:"primaryKey"`
	Value int  `gorm:"not null"`
}

type OrderItem struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	OrderID    string    `json:"orderId" gorm:"not null;index"`
	MenuItemID uint      `json:"menuItemId" gorm:"not null"`
	MenuItem   MenuItem  `json:"menuItem,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	Price      float64   `json:"price" gorm:"not null"` // unit price snapshot at order time
	CreatedAt  time.Time `json:"createdAt"`
}
