package services

import (
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cafe-order-api/broadcast"
	"cafe-order-api/config"
	"cafe-order-api/models"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	svc  *OrderService
	hub  *broadcast.Hub
	db   *gorm.DB
	chai models.MenuItem
	cake models.MenuItem
}

func newTestEnv(t *testing.T, strict bool) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// a single connection keeps the in-memory database shared and makes
	// concurrent transactions serialize the way a file-backed one would
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.MenuItem{}, &models.Order{}, &models.OrderItem{},
		&models.OrderCounter{},
	))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		hub: broadcast.NewHub(logger),
		db:  db,
	}
	env.svc = NewOrderService(db, env.hub, logger, strict)

	env.chai = models.MenuItem{Name: "Masala Chai", Price: 25.00, Category: "Hot Beverages", Available: true}
	env.cake = models.MenuItem{Name: "Chocolate Cake", Price: 90.00, Category: "Desserts", Available: true}
	require.NoError(t, db.Create(&env.chai).Error)
	require.NoError(t, db.Create(&env.cake).Error)
	return env
}

// backdate pins an order's creation time so ordering assertions do not
// depend on clock granularity between back-to-back creates.
func (env *testEnv) backdate(t *testing.T, orderID string, at time.Time) {
	t.Helper()
	require.NoError(t, env.db.Model(&models.Order{}).
		Where("id = ?", orderID).Update("created_at", at).Error)
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t, false)

	order, err := env.svc.Create("Asha", []ItemInput{
		{MenuItemID: env.chai.ID, Quantity: 2},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, 1, order.OrderNumber)
	assert.Equal(t, "Asha", order.CustomerName)
	assert.Equal(t, models.StatusNew, order.Status)
	assert.Equal(t, 50.00, order.TotalPrice)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 25.00, order.Items[0].Price, "item price is a snapshot of the menu price")
	assert.Equal(t, "Masala Chai", order.Items[0].MenuItem.Name)
}

func TestCreateOrderSequentialNumbers(t *testing.T) {
	env := newTestEnv(t, false)

	first, err := env.svc.Create("", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 1}})
	require.NoError(t, err)
	second, err := env.svc.Create("", []ItemInput{{MenuItemID: env.cake.ID, Quantity: 1}})
	require.NoError(t, err)

	assert.Equal(t, 1, first.OrderNumber)
	assert.Equal(t, 2, second.OrderNumber)
}

func TestCreateOrderNumberNotReusedAfterDeletion(t *testing.T) {
	env := newTestEnv(t, false)

	first, err := env.svc.Create("", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 1}})
	require.NoError(t, err)
	require.NoError(t, env.svc.Delete(first.ID))

	second, err := env.svc.Create("", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, second.OrderNumber, "a deleted order's number is never reissued")
}

func TestCreateOrderConcurrentNumbering(t *testing.T) {
	env := newTestEnv(t, false)

	const n = 12
	var wg sync.WaitGroup
	numbers := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := env.svc.Create("", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 1}})
			if assert.NoError(t, err) {
				numbers <- order.OrderNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[int]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "order number %d assigned twice", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestCreateOrderConcurrentNumberingFileDB(t *testing.T) {
	// production configuration: file-backed database, default connection
	// pool, serialization via the DSN's immediate transactions and busy
	// timeout rather than a single-connection cap
	db, err := config.Open(filepath.Join(t.TempDir(), "cafe_orders.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.MenuItem{}, &models.Order{}, &models.OrderItem{},
		&models.OrderCounter{},
	))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := NewOrderService(db, broadcast.NewHub(logger), logger, false)

	chai := models.MenuItem{Name: "Masala Chai", Price: 25.00, Available: true}
	require.NoError(t, db.Create(&chai).Error)

	const n = 16
	var wg sync.WaitGroup
	numbers := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := svc.Create("", []ItemInput{{MenuItemID: chai.ID, Quantity: 1}})
			if assert.NoError(t, err) {
				numbers <- order.OrderNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[int]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "order number %d assigned twice", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t, false)

	var vErr *ValidationError

	_, err := env.svc.Create("Asha", nil)
	require.ErrorAs(t, err, &vErr)

	_, err = env.svc.Create("Asha", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 0}})
	require.ErrorAs(t, err, &vErr)

	_, err = env.svc.Create("Asha", []ItemInput{{MenuItemID: 9999, Quantity: 1}})
	require.ErrorAs(t, err, &vErr)

	// duplicated menu item ids trip the strict count match
	_, err = env.svc.Create("Asha", []ItemInput{
		{MenuItemID: env.chai.ID, Quantity: 1},
		{MenuItemID: env.chai.ID, Quantity: 2},
	})
	require.ErrorAs(t, err, &vErr)

	// a failed creation must persist nothing
	var count int64
	env.db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateOrderPublishesEvents(t *testing.T) {
	env := newTestEnv(t, false)

	sub := env.hub.SubscribeAdmin()
	<-sub.Events() // init

	order, err := env.svc.Create("", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 1}})
	require.NoError(t, err)

	ev := <-sub.Events()
	assert.Equal(t, broadcast.EventOrderCreate, ev.Event)
	created, ok := ev.Data.(*models.Order)
	require.True(t, ok)
	assert.Equal(t, order.ID, created.ID)
	assert.Empty(t, sub.Events(), "exactly one admin event per creation")
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t, false)

	order, err := env.svc.Create("", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 1}})
	require.NoError(t, err)

	sub := env.hub.SubscribeOrder(order.ID)
	<-sub.Events() // init

	updated, err := env.svc.UpdateStatus(order.ID, models.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, updated.Status)
	require.Len(t, updated.Items, 1)

	ev := <-sub.Events()
	assert.Equal(t, broadcast.EventOrderUpdate, ev.Event)

	// lax mode: backward moves are applied as-is
	updated, err = env.svc.UpdateStatus(order.ID, models.StatusNew)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, updated.Status)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	env := newTestEnv(t, false)

	order, err := env.svc.Create("", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = env.svc.UpdateStatus(order.ID, "BOGUS")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	unchanged, err := env.svc.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, unchanged.Status)
}

func TestUpdateStatusStrictMode(t *testing.T) {
	env := newTestEnv(t, true)

	order, err := env.svc.Create("", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = env.svc.UpdateStatus(order.ID, models.StatusReady)
	assert.ErrorIs(t, err, ErrInvalidTransition, "skipping PREPARING is rejected")

	_, err = env.svc.UpdateStatus(order.ID, models.StatusPreparing)
	require.NoError(t, err)

	_, err = env.svc.UpdateStatus(order.ID, models.StatusNew)
	assert.ErrorIs(t, err, ErrInvalidTransition, "backward moves are rejected")

	// re-applying the current status stays a no-op even in strict mode
	updated, err := env.svc.UpdateStatus(order.ID, models.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, updated.Status)
}

func TestUpdateStatusNotFound(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := env.svc.UpdateStatus("missing", models.StatusReady)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteOrder(t *testing.T) {
	env := newTestEnv(t, false)

	order, err := env.svc.Create("", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 2}})
	require.NoError(t, err)

	adminSub := env.hub.SubscribeAdmin()
	<-adminSub.Events() // init

	require.NoError(t, env.svc.Delete(order.ID))

	_, err = env.svc.Get(order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var itemCount int64
	env.db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&itemCount)
	assert.Zero(t, itemCount, "line items are removed with the order")

	ev := <-adminSub.Events()
	assert.Equal(t, broadcast.EventOrderDelete, ev.Event)
	deleted, ok := ev.Data.(*models.Order)
	require.True(t, ok)
	assert.Equal(t, order.OrderNumber, deleted.OrderNumber, "event carries last known data")

	assert.ErrorIs(t, env.svc.Delete(order.ID), ErrNotFound)
}

func TestListOrders(t *testing.T) {
	env := newTestEnv(t, false)

	first, err := env.svc.Create("A", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 1}})
	require.NoError(t, err)
	second, err := env.svc.Create("B", []ItemInput{{MenuItemID: env.cake.ID, Quantity: 1}})
	require.NoError(t, err)
	env.backdate(t, first.ID, time.Now().Add(-time.Hour))
	_, err = env.svc.UpdateStatus(second.ID, models.StatusReady)
	require.NoError(t, err)

	all, err := env.svc.List("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID, "orders come back ascending by creation time")

	ready, err := env.svc.List("READY")
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, second.ID, ready[0].ID)

	none, err := env.svc.List("COMPLETED")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetByNumber(t *testing.T) {
	env := newTestEnv(t, false)

	order, err := env.svc.Create("", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 1}})
	require.NoError(t, err)

	found, err := env.svc.GetByNumber(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = env.svc.GetByNumber(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueuePosition(t *testing.T) {
	env := newTestEnv(t, false)

	a, err := env.svc.Create("", []ItemInput{{MenuItemID: env.chai.ID, Quantity: 5}, {MenuItemID: env.cake.ID, Quantity: 1}})
	require.NoError(t, err)
	b, err := env.svc.Create("", []ItemInput{{MenuItemID: env.cake.ID, Quantity: 2}})
	require.NoError(t, err)
	env.backdate(t, a.ID, time.Now().Add(-time.Hour))

	est, err := env.svc.QueuePosition(a.ID)
	require.NoError(t, err)
	require.NotNil(t, est.Position)
	assert.Equal(t, 0, *est.Position, "oldest active order is always first")
	assert.Equal(t, 2, est.QueueLength)
	assert.Equal(t, 1, est.ETAMinutes)

	// two line-item rows ahead of b, quantities do not matter
	est, err = env.svc.QueuePosition(b.ID)
	require.NoError(t, err)
	require.NotNil(t, est.Position)
	assert.Equal(t, 1, *est.Position)
	assert.Equal(t, 5, est.ETAMinutes)

	// a READY order leaves the queue
	_, err = env.svc.UpdateStatus(a.ID, models.StatusReady)
	require.NoError(t, err)
	est, err = env.svc.QueuePosition(a.ID)
	require.NoError(t, err)
	assert.Nil(t, est.Position)
	assert.Equal(t, 1, est.QueueLength)

	_, err = env.svc.QueuePosition("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
