package seed

import (
	"fmt"

	"cafe-order-api/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var menuItems = []models.MenuItem{
	// Hot Beverages
	{Name: "Masala Chai", Price: 25.00, Description: "Traditional Indian spiced tea with milk", Category: "Hot Beverages", ImageURL: "/images/masala_chai.png", Available: true},
	{Name: "Filter Coffee", Price: 35.00, Description: "South Indian style coffee", Category: "Hot Beverages", ImageURL: "/images/filter_coffee.png", Available: true},
	{Name: "Cappuccino", Price: 120.00, Description: "Espresso with steamed milk and foam", Category: "Hot Beverages", ImageURL: "/images/cappuccino.png", Available: true},
	// Cold Beverages
	{Name: "Lassi", Price: 60.00, Description: "Sweet yogurt-based drink", Category: "Cold Beverages", ImageURL: "/images/lassi.png", Available: true},
	{Name: "Cold Coffee", Price: 90.00, Description: "Iced coffee blended with milk", Category: "Cold Beverages", ImageURL: "/images/cold_coffee.png", Available: true},
	{Name: "Fresh Lime Soda", Price: 45.00, Description: "Sparkling lime cooler", Category: "Cold Beverages", ImageURL: "/images/lime_soda.png", Available: true},
	// Snacks
	{Name: "Samosa", Price: 20.00, Description: "Crispy pastry with spiced potato filling", Category: "Snacks", ImageURL: "/images/samosa.png", Available: true},
	{Name: "Veg Sandwich", Price: 55.00, Description: "Grilled sandwich with fresh vegetables", Category: "Snacks", ImageURL: "/images/veg_sandwich.png", Available: true},
	{Name: "Paneer Roll", Price: 85.00, Description: "Paneer tikka wrapped in paratha", Category: "Snacks", ImageURL: "/images/paneer_roll.png", Available: true},
	// Desserts
	{Name: "Gulab Jamun", Price: 40.00, Description: "Warm milk dumplings in sugar syrup", Category: "Desserts", ImageURL: "/images/gulab_jamun.png", Available: true},
	{Name: "Chocolate Brownie", Price: 95.00, Description: "Fudgy brownie with walnuts", Category: "Desserts", ImageURL: "/images/brownie.png", Available: true},
}

// Run resets the menu and ensures the default admin account exists.
// Existing orders are cleared as well, so only use it on a fresh install
// or a throwaway database.
func Run(db *gorm.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	var admin models.User
	err = db.Where(models.User{Username: "admin"}).
		Attrs(models.User{PasswordHash: string(hash), Role: models.RoleAdmin}).
		FirstOrCreate(&admin).Error
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.OrderItem{}, &models.Order{}, &models.MenuItem{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("clear existing data: %w", err)
			}
		}
		// insert a copy so gorm's assigned IDs don't leak into the template
		items := make([]models.MenuItem, len(menuItems))
		copy(items, menuItems)
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("seed menu items: %w", err)
		}
		return nil
	})
}
