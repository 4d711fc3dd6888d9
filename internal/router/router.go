package router

import (
	"context"
	"time"

	"posengine/internal/bundle"
	"posengine/internal/cache"
	"posengine/internal/config"
	"posengine/internal/handler"
	"posengine/internal/infra"
	"posengine/internal/middleware"
	"posengine/internal/model"
	"posengine/internal/repository"
	"posengine/internal/service"
	"posengine/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Store ← DB/Redis.
// rdb may be nil: the bundle cache and alert publishing are then disabled.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, alertCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	apiLimiter := middleware.NewLimiter("api", 1000, time.Minute, "too many requests")
	loginLimiter := middleware.LoginLimiter()
	go apiLimiter.RunPurge(ctx)
	go loginLimiter.RunPurge(ctx)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Env, cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(apiLimiter.Middleware())

	// ── Infrastructure ───────────────────────────────────────────────────────
	store := repository.NewStore(db).WithTxTimeout(time.Duration(cfg.TxTimeoutSeconds) * time.Second)

	var (
		bundleCache cache.BundleCache = cache.NoopBundleCache{}
		alerts      service.AlertPublisher
		alertSource handler.AlertSource = func(context.Context, int) ([]worker.Alert, error) { return []worker.Alert{}, nil }
	)
	if rdb != nil {
		bundleCache = cache.NewRedisBundleCache(rdb)
		alerts = worker.NewDispatcher(rdb, alertCB).WithReportEmails(cfg.MailEnabled())
		alertSource = handler.RedisAlerts(rdb)
	} else {
		log.Warn().Msg("redis disabled: bundle cache and alerts are off")
	}

	threshold, err := cfg.VarianceThreshold()
	if err != nil {
		threshold = service.DefaultVarianceThreshold
	}
	clock := service.Clock(service.SystemClock)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(store.Users, cfg)
	productSvc := service.NewProductService(store, clock)
	ledgerSvc := service.NewLedgerService(store, clock)
	stockSvc := service.NewStockService(store, clock)
	inventorySvc := service.NewInventoryService(store, clock, cfg.LowStockThreshold)
	bundleSvc := service.NewBundleService(store, bundleCache,
		time.Duration(cfg.BundleCacheTTLSeconds)*time.Second, bundle.Mode(cfg.BundlePricingMode), clock)
	customerSvc := service.NewCustomerService(store, clock)
	shiftSvc := service.NewShiftService(store, clock, threshold, alerts)
	saleSvc := service.NewSaleService(store, stockSvc, bundleSvc, customerSvc, alerts, clock, cfg.LowStockThreshold)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	stockH := handler.NewStockHandler(stockSvc, inventorySvc, ledgerSvc)
	familiesH := handler.NewFamiliesHandler(stockSvc)
	bundlesH := handler.NewBundlesHandler(bundleSvc)
	customersH := handler.NewCustomersHandler(customerSvc)
	shiftsH := handler.NewShiftsHandler(shiftSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	alertsH := handler.NewAlertsHandler(alertSource)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, alertCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	anyone := middleware.RequireRole(model.RoleCashier, model.RoleManager, model.RoleAdmin)
	managers := middleware.RequireRole(model.RoleManager, model.RoleAdmin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.POST("/users", middleware.RequireRole(model.RoleAdmin), usersH.Create)

		v1.POST("/products", managers, productsH.Create)
		v1.GET("/products/:id", anyone, productsH.Get)
		v1.PATCH("/products/:id", managers, productsH.Update)

		stock := v1.Group("/stock")
		{
			stock.GET("/:product_id/available", anyone, stockH.Available)
			stock.POST("/deduct", anyone, stockH.Deduct)
			stock.POST("/adjust", managers, stockH.Adjust)
			stock.GET("/movements", managers, stockH.Movements)
			stock.GET("/:product_id/movements", managers, stockH.ProductMovements)
			stock.GET("/adjustments", managers, stockH.Adjustments)
		}

		reports := v1.Group("/reports", managers)
		{
			reports.GET("/low-stock", stockH.LowStock)
			reports.GET("/stock-value", stockH.StockValue)
		}

		families := v1.Group("/families")
		{
			families.GET("", anyone, familiesH.List)
			families.GET("/:id", anyone, familiesH.Get)
			families.POST("", managers, familiesH.Create)
			families.POST("/:id/members", managers, familiesH.AddMember)
			families.DELETE("/:id/members/:product_id", managers, familiesH.RemoveMember)
			families.PUT("/:id/total", managers, familiesH.SetTotal)
			families.DELETE("/:id", managers, familiesH.Delete)
		}

		bundles := v1.Group("/bundles")
		{
			bundles.GET("", anyone, bundlesH.List)
			bundles.GET("/active", anyone, bundlesH.ListActive)
			bundles.POST("/apply", anyone, bundlesH.Apply)
			bundles.POST("", managers, bundlesH.Create)
			bundles.PUT("/:id", managers, bundlesH.Update)
			bundles.POST("/:id/products", managers, bundlesH.AddProduct)
			bundles.DELETE("/:id/products/:product_id", managers, bundlesH.RemoveProduct)
			bundles.DELETE("/:id", managers, bundlesH.Delete)
		}

		shifts := v1.Group("/shifts")
		{
			shifts.POST("/start", anyone, shiftsH.Start)
			shifts.GET("/active", anyone, shiftsH.Active)
			shifts.GET("/pending", managers, shiftsH.Pending)
			shifts.GET("/history", managers, shiftsH.History)
			shifts.GET("/:id", anyone, shiftsH.Get)
			shifts.GET("/:id/report.pdf", anyone, shiftsH.Report)
			shifts.POST("/:id/end", anyone, shiftsH.End)
			shifts.POST("/:id/approve", managers, shiftsH.Approve)
		}

		customers := v1.Group("/customers")
		{
			customers.POST("", anyone, customersH.Create)
			customers.GET("", anyone, customersH.Search)
			customers.GET("/:id", anyone, customersH.Get)
			customers.POST("/:id/balance", managers, customersH.AdjustBalance)
			customers.POST("/:id/purchases", anyone, customersH.RecordPurchase)
			customers.GET("/:id/transactions", anyone, customersH.Transactions)
		}

		v1.POST("/sales", anyone, salesH.Complete)
		v1.GET("/sales/:id", anyone, salesH.Get)

		v1.GET("/alerts", managers, alertsH.Recent)
	}

	return r
}
