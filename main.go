package main

import (
	"flag"
	"net/http"
	"os"

	"cafe-order-api/broadcast"
	"cafe-order-api/config"
	"cafe-order-api/handlers"
	"cafe-order-api/routes"
	"cafe-order-api/seed"
	"cafe-order-api/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	seedDB := flag.Bool("seed", false, "reset the menu and default admin account, then exit")
	flag.Parse()

	// Set Gin mode
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		gin.SetMode(gin.DebugMode)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Initialize database
	config.InitDB()

	if *seedDB {
		if err := seed.Run(config.DB); err != nil {
			logger.WithError(err).Fatal("Seeding failed")
		}
		logger.Info("Database seeded")
		return
	}

	// Wire the order lifecycle: hub and service are process-scoped
	hub := broadcast.NewHub(logger)
	orderService := services.NewOrderService(config.DB, hub, logger, config.StrictTransitions())
	orderHandler := handlers.NewOrderHandler(orderService, hub)

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// Health check endpoint
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Cafe Order API is running",
		})
	})

	// Register all routes
	routes.SetupRoutes(r, orderHandler)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.WithField("port", port).Info("Server starting")
	if err := r.Run(":" + port); err != nil {
		logger.WithError(err).Fatal("Failed to start server")
	}
}
