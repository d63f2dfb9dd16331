package router

import (
	"restaurant_pos_backend/internal/handlers"
	"restaurant_pos_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupOrderRoutes sets up the order routes, including the nested item and payment collections.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler, itemHandler *handlers.OrderItemHandler, paymentHandler *handlers.PaymentHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.POST("/:id/submit", orderHandler.SubmitOrder)
		orderRoutes.POST("/:id/cancel", orderHandler.CancelOrder)
		orderRoutes.POST("/:id/recompute", orderHandler.RecomputeOrder)
		orderRoutes.POST("/:id/items", itemHandler.AddItem)
		orderRoutes.POST("/:id/payments", paymentHandler.ApplyPayment)
		orderRoutes.GET("/:id/payments", paymentHandler.GetPayments)
	}

	// Administrative edits and deletion are Admin only.
	adminOrderRoutes := authenticatedGroup.Group("/orders")
	adminOrderRoutes.Use(middleware.RoleAuthMiddleware("Admin"))
	{
		adminOrderRoutes.PATCH("/:id", orderHandler.UpdateOrder)
		adminOrderRoutes.DELETE("/:id", orderHandler.DeleteOrder)
	}
}

// SetupOrderItemRoutes sets up the order item routes.
func SetupOrderItemRoutes(authenticatedGroup *gin.RouterGroup, itemHandler *handlers.OrderItemHandler) {
	itemRoutes := authenticatedGroup.Group("/order-items")
	itemRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		itemRoutes.PATCH("/:id/status", itemHandler.UpdateItemStatus)
		itemRoutes.PATCH("/:id", itemHandler.UpdateItem)
		itemRoutes.DELETE("/:id", itemHandler.DeleteItem)
	}
}

// SetupPaymentRoutes sets up the payment routes.
func SetupPaymentRoutes(authenticatedGroup *gin.RouterGroup, paymentHandler *handlers.PaymentHandler) {
	paymentRoutes := authenticatedGroup.Group("/payments")
	paymentRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		paymentRoutes.GET("/:id", paymentHandler.GetPaymentByID)
		paymentRoutes.PATCH("/:id/status", paymentHandler.UpdatePaymentStatus)
		paymentRoutes.DELETE("/:id", paymentHandler.DeletePayment)
	}
}

// SetupStockMovementRoutes sets up the stock movement routes.
func SetupStockMovementRoutes(authenticatedGroup *gin.RouterGroup, movementHandler *handlers.StockMovementHandler) {
	movementRoutes := authenticatedGroup.Group("/stock-movements")
	movementRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		movementRoutes.POST("", movementHandler.RecordMovement)
		movementRoutes.PATCH("/:id", movementHandler.EditMovement)
		movementRoutes.DELETE("/:id", movementHandler.DeleteMovement)
	}
}

// SetupProductRoutes sets up the product routes and the per-product ledger views.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler, movementHandler *handlers.StockMovementHandler) {
	authenticatedGroup.POST("/products", middleware.RoleAuthMiddleware("Admin"), catalogHandler.CreateProduct)

	productRoutes := authenticatedGroup.Group("/products")
	productRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		productRoutes.GET("", catalogHandler.GetProducts)
		productRoutes.GET("/:id", catalogHandler.GetProductByID)
		productRoutes.GET("/:id/movements", movementHandler.GetProductMovements)
		productRoutes.GET("/:id/balance", movementHandler.GetProductBalance)
		productRoutes.GET("/:id/balance/period", movementHandler.GetProductPeriodBalance)
	}
}

// SetupUnitRoutes sets up the unit of measure routes.
func SetupUnitRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	authenticatedGroup.POST("/units", middleware.RoleAuthMiddleware("Admin"), catalogHandler.CreateUnit)
	authenticatedGroup.GET("/units", middleware.RoleAuthMiddleware("Admin", "Staff"), catalogHandler.GetUnits)
	authenticatedGroup.GET("/units/:id", middleware.RoleAuthMiddleware("Admin", "Staff"), catalogHandler.GetUnitByID)
}

// SetupStaffRoutes sets up the read-only staff directory routes.
func SetupStaffRoutes(authenticatedGroup *gin.RouterGroup, staffHandler *handlers.StaffHandler) {
	authenticatedGroup.GET("/staff", middleware.RoleAuthMiddleware("Admin", "Staff"), staffHandler.GetStaffMembers)
	authenticatedGroup.GET("/staff/:id", middleware.RoleAuthMiddleware("Admin", "Staff"), staffHandler.GetStaffMemberByID)
}

// SetupShiftRoutes sets up the shift routes.
func SetupShiftRoutes(authenticatedGroup *gin.RouterGroup, staffHandler *handlers.StaffHandler) {
	shiftRoutes := authenticatedGroup.Group("/shifts")
	shiftRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		shiftRoutes.POST("", staffHandler.OpenShift)
		shiftRoutes.GET("", staffHandler.GetShifts)
		shiftRoutes.GET("/:id", staffHandler.GetShiftByID)
		shiftRoutes.GET("/:id/preview", staffHandler.PreviewShift)
		shiftRoutes.POST("/:id/close", staffHandler.CloseShift)
		shiftRoutes.DELETE("/:id", staffHandler.DeleteShift)
	}
}

// SetupSettingsRoutes sets up the restaurant settings routes.
func SetupSettingsRoutes(authenticatedGroup *gin.RouterGroup, settingHandler *handlers.SettingHandler) {
	authenticatedGroup.GET("/restaurants/:id/settings", middleware.RoleAuthMiddleware("Admin", "Staff"), settingHandler.GetRestaurantSettings)
	authenticatedGroup.PUT("/restaurants/:id/settings", middleware.RoleAuthMiddleware("Admin"), settingHandler.UpdateRestaurantSettings)
}
