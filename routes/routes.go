package routes

import (
	"cafe-order-api/handlers"
	"cafe-order-api/middleware"
	"cafe-order-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, orders *handlers.OrderHandler) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)
		public.POST("/auth/logout", handlers.Logout)

		// Menu browsing
		public.GET("/menu", handlers.ListMenu)
		public.GET("/menu/:id", handlers.GetMenuItem)

		// Ordering and tracking (no auth needed)
		public.POST("/orders", orders.CreateOrder)
		public.GET("/orders/:id", orders.GetOrder)
		public.GET("/orders/number/:orderNumber", orders.GetOrderByNumber)
		public.GET("/orders/queue/position/:id", orders.GetQueuePosition)
		public.GET("/orders/:id/stream", orders.OrderStream)

		// Status sequence info (great for docs/Postman)
		public.GET("/state-machine", orders.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/auth/me", handlers.Me)
	}

	// ── Staff routes ───────────────────────────────────────────────
	admin := r.Group("/api")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		// Live queue management
		admin.GET("/orders", orders.ListOrders)
		admin.GET("/orders/stream", orders.AdminStream)
		admin.PUT("/orders/:id/status", orders.UpdateOrderStatus)
		admin.DELETE("/orders/:id", orders.DeleteOrder)

		// Menu management
		admin.POST("/menu", handlers.CreateMenuItem)
		admin.PUT("/menu/:id", handlers.UpdateMenuItem)
		admin.DELETE("/menu/:id", handlers.DeleteMenuItem)
	}
}
