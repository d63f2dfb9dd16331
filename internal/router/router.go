package router

import (
	"database/sql"

	"restaurant_pos_backend/internal/handlers"
	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Options tunes the wiring done by Setup.
type Options struct {
	RecomputeMaxAttempts int
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, opts Options) {
	// Repositories
	txManager := repositories.NewTxManager(db)
	orderRepo := repositories.NewOrderRepository(db)
	itemRepo := repositories.NewOrderItemRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)
	productRepo := repositories.NewProductRepository(db)
	unitRepo := repositories.NewUnitRepository(db)
	settingRepo := repositories.NewSettingRepository(db)
	staffRepo := repositories.NewStaffRepository(db)

	// Services
	aggregator := services.NewOrderAggregator(txManager, orderRepo, itemRepo, paymentRepo, settingRepo, opts.RecomputeMaxAttempts)
	ledger := services.NewStockLedger(txManager, movementRepo, productRepo, unitRepo)
	orderService := services.NewOrderService(txManager, aggregator, orderRepo, itemRepo, paymentRepo, productRepo, staffRepo, ledger)
	itemService := services.NewOrderItemService(aggregator, itemRepo, productRepo, ledger)
	paymentService := services.NewPaymentService(aggregator, orderRepo, paymentRepo)
	shiftService := services.NewShiftService(txManager, staffRepo, orderRepo, paymentRepo)
	staffService := services.NewStaffService(staffRepo)
	catalogService := services.NewCatalogService(productRepo, unitRepo, settingRepo)

	// Handlers
	handlerSet := Handlers{
		Orders:    handlers.NewOrderHandler(orderService),
		Items:     handlers.NewOrderItemHandler(itemService),
		Payments:  handlers.NewPaymentHandler(paymentService),
		Movements: handlers.NewStockMovementHandler(ledger),
		Staff:     handlers.NewStaffHandler(staffService, shiftService),
		Catalog:   handlers.NewCatalogHandler(catalogService),
		Settings:  handlers.NewSettingHandler(catalogService),
	}

	apiV1 := engine.Group("/api/v1")
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	Register(authenticated, handlerSet)
}

// Handlers groups every HTTP handler so routes can be registered against fakes in tests.
type Handlers struct {
	Orders    *handlers.OrderHandler
	Items     *handlers.OrderItemHandler
	Payments  *handlers.PaymentHandler
	Movements *handlers.StockMovementHandler
	Staff     *handlers.StaffHandler
	Catalog   *handlers.CatalogHandler
	Settings  *handlers.SettingHandler
}

// Register mounts every route group on an already authenticated group.
func Register(authenticated *gin.RouterGroup, h Handlers) {
	SetupOrderRoutes(authenticated, h.Orders, h.Items, h.Payments)
	SetupOrderItemRoutes(authenticated, h.Items)
	SetupPaymentRoutes(authenticated, h.Payments)
	SetupStockMovementRoutes(authenticated, h.Movements)
	SetupProductRoutes(authenticated, h.Catalog, h.Movements)
	SetupUnitRoutes(authenticated, h.Catalog)
	SetupStaffRoutes(authenticated, h.Staff)
	SetupShiftRoutes(authenticated, h.Staff)
	SetupSettingsRoutes(authenticated, h.Settings)
}
