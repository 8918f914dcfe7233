package router

import (
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"stockledger/internal/config"
	"stockledger/internal/handler"
	"stockledger/internal/infra"
	"stockledger/internal/middleware"
	"stockledger/internal/repository"
	"stockledger/internal/service"
	"stockledger/internal/worker"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	levelRepo := repository.NewStockLevelRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	catalogSvc := service.NewCatalogService(productRepo, warehouseRepo)
	stockSvc := service.NewStockService(batchRepo, levelRepo, movementRepo, productRepo)
	receiptSvc := service.NewReceiptService(batchRepo, levelRepo, movementRepo, productRepo, warehouseRepo)
	adjustSvc := service.NewAdjustmentService(batchRepo, levelRepo, movementRepo, productRepo, stockSvc)
	saleSvc := service.NewSaleService(saleRepo, levelRepo, movementRepo, productRepo, warehouseRepo, batchRepo, stockSvc, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productsH := handler.NewProductsHandler(catalogSvc)
	warehousesH := handler.NewWarehousesHandler(catalogSvc)
	receiptsH := handler.NewReceiptsHandler(receiptSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	stockH := handler.NewStockHandler(stockSvc, adjustSvc, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Availability lookup — cached, read-only, no auth required
	r.GET("/v1/stock/:sku", stockH.Lookup)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: operator, manager, admin — declared per-endpoint
		v1.POST("/sales", middleware.RequireRole("operator", "manager", "admin"), salesH.Commit)
		v1.GET("/sales", middleware.RequireRole("operator", "manager", "admin"), salesH.List)
		v1.GET("/sales/:id", middleware.RequireRole("operator", "manager", "admin"), salesH.Get)
		v1.DELETE("/sales/:id", middleware.RequireRole("manager", "admin"), salesH.Void)

		v1.POST("/receipts", middleware.RequireRole("manager", "admin"), receiptsH.Receive)
		v1.GET("/batches", middleware.RequireRole("operator", "manager", "admin"), receiptsH.ListBatches)
		v1.GET("/batches/:id", middleware.RequireRole("operator", "manager", "admin"), receiptsH.GetBatch)

		v1.POST("/stock/consume", middleware.RequireRole("manager", "admin"), stockH.Consume)
		v1.POST("/adjustments", middleware.RequireRole("manager", "admin"), stockH.Deduct)
		v1.GET("/stock-levels", middleware.RequireRole("operator", "manager", "admin"), stockH.Levels)
		v1.GET("/movements", middleware.RequireRole("operator", "manager", "admin"), stockH.Movements)

		v1.GET("/products", middleware.RequireRole("operator", "manager", "admin"), productsH.List)
		v1.GET("/products/:id", middleware.RequireRole("operator", "manager", "admin"), productsH.Get)
		prods := v1.Group("/products", middleware.RequireRole("admin"))
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Deactivate)
		}

		v1.GET("/warehouses", middleware.RequireRole("operator", "manager", "admin"), warehousesH.List)
		warehouses := v1.Group("/warehouses", middleware.RequireRole("admin"))
		{
			warehouses.POST("", warehousesH.Create)
			warehouses.DELETE("/:id", warehousesH.Deactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
