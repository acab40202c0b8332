package config

import (
	"log"
	"os"

	"cafe-order-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign session tokens — read from env or fallback
var JWTSecret = []byte(getEnv("JWT_SECRET", "cafe_order_super_secret_2024"))

// SessionCookie is the name of the httpOnly cookie carrying the staff session.
const SessionCookie = "cafe_session"

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DBPath returns the SQLite database file location.
func DBPath() string {
	return getEnv("DB_PATH", "cafe_orders.db")
}

// StrictTransitions reports whether status updates must follow the forward
// sequence instead of accepting any recognized value.
func StrictTransitions() bool {
	return getEnv("STRICT_STATUS_TRANSITIONS", "") == "true"
}

// Open connects to the SQLite database at path. Transactions take the
// write lock at BEGIN and writers wait out contention, so concurrent
// creations serialize instead of failing with SQLITE_BUSY.
func Open(path string) (*gorm.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_txlock=immediate"
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// order items keep their menu item id even after the menu item is
		// deleted, so no FK constraint between the two tables
		DisableForeignKeyConstraintWhenMigrating: true,
	})
}

func InitDB() {
	var err error
	DB, err = Open(DBPath())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderCounter{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("Database connected and migrated successfully")
}
