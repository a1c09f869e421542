package v1

import (
	"github.com/gin-gonic/gin"

	corenumerator "uniformshop/internal/core/numerator"
	"uniformshop/internal/domain/auth"
	"uniformshop/internal/domain/catalogs/customer"
	"uniformshop/internal/domain/catalogs/product"
	"uniformshop/internal/domain/documents/invoice"
	"uniformshop/internal/domain/documents/tailoring"
	"uniformshop/internal/domain/reports"
	"uniformshop/internal/infrastructure/http/v1/handlers"
	"uniformshop/internal/infrastructure/http/v1/middleware"
	"uniformshop/internal/infrastructure/metrics"
	"uniformshop/internal/infrastructure/storage"
	"uniformshop/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Backend provides every repository and the transaction manager
	Backend *storage.Backend

	// Numerator allocates business identifiers
	Numerator corenumerator.Generator

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Metrics, when set, instruments requests and exposes GET /metrics
	Metrics *metrics.Metrics

	// IdempotencyEnabled enables idempotency middleware
	IdempotencyEnabled bool

	// LoginRateRPS and LoginRateBurst throttle POST /auth/login per client IP
	LoginRateRPS   float64
	LoginRateBurst int

	// Mode is the gin mode (release, debug, test); release when empty
	Mode string
}

// Services are the domain services behind the API.
type Services struct {
	Products  *product.Service
	Customers *customer.Service
	Invoices  *invoice.Service
	Tailoring *tailoring.Service
	Reports   *reports.Service
}

// NewServices wires the domain services on top of a storage backend.
func NewServices(b *storage.Backend, gen corenumerator.Generator, m *metrics.Metrics) *Services {
	customers := customer.NewService(b.Customers, b.TxManager, gen, b.Audit)

	deps := invoice.Deps{
		Repo:      b.Invoices,
		Stock:     b.Products,
		Customers: customers,
		Numerator: gen,
		TxManager: b.TxManager,
		Events:    b.Events,
		Audit:     b.Audit,
	}
	if m != nil {
		deps.Observer = m
	}

	return &Services{
		Products:  product.NewService(b.Products, b.TxManager, gen, b.Audit),
		Customers: customers,
		Invoices:  invoice.NewService(deps),
		Tailoring: tailoring.NewService(b.Tailoring, customers, gen, b.TxManager, b.Events, b.Audit),
		Reports:   reports.NewService(b.Reports),
	}
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Backend.Driver, cfg.Backend.Pinger, cfg.Backend.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	services := NewServices(cfg.Backend, cfg.Numerator, cfg.Metrics)
	baseHandler := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		// Apply idempotency middleware for mutating operations
		if cfg.IdempotencyEnabled {
			protected.Use(middleware.Idempotency(cfg.Backend.Idempotency))
		}

		registerAuthRoutes(v1, protected, baseHandler, cfg)
		registerCatalogRoutes(protected, baseHandler, services)
		registerDocumentRoutes(protected, baseHandler, services)
		registerReportRoutes(protected, baseHandler, services)
		registerAdminRoutes(protected, baseHandler, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(public, protected *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}
	limiter := middleware.NewIPRateLimiter(cfg.LoginRateRPS, cfg.LoginRateBurst)
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
	authHandler.RegisterRoutes(public, protected, middleware.RateLimit(limiter))
}

// registerCatalogRoutes registers product and customer endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *Services) {
	catalogs := rg.Group("/catalog")

	// --- PRODUCTS ---
	{
		handler := handlers.NewProductHandler(base, s.Products)
		group := catalogs.Group("/products")
		RegisterCatalogRoutes(group, handler, auth.PermCatalogRead, auth.PermCatalogWrite)
		group.GET("/by-code/:productId", middleware.RequirePermission(auth.PermCatalogRead), handler.GetByCode)
		group.POST("/:id/restock", middleware.RequirePermission(auth.PermCatalogWrite), handler.Restock)
	}

	// --- CUSTOMERS ---
	{
		handler := handlers.NewCustomerHandler(base, s.Customers)
		RegisterCatalogRoutes(catalogs.Group("/customers"), handler, auth.PermCatalogRead, auth.PermCatalogWrite)
	}
}

// registerDocumentRoutes registers invoice and tailoring endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *Services) {
	docs := rg.Group("/documents")

	// --- INVOICES ---
	{
		handler := handlers.NewInvoiceHandler(base, s.Invoices)
		group := docs.Group("/invoices")
		RegisterDocumentRoutes(group, handler, DocumentPermissions{
			Read:   auth.PermInvoiceRead,
			Create: auth.PermInvoiceCreate,
			Status: auth.PermInvoiceStatus,
		})
		group.GET("/by-number/:invoiceId", middleware.RequirePermission(auth.PermInvoiceRead), handler.GetByNumber)
	}

	// --- TAILORING ---
	{
		handler := handlers.NewTailoringHandler(base, s.Tailoring)
		RegisterDocumentRoutes(docs.Group("/tailoring"), handler, DocumentPermissions{
			Read:   auth.PermTailoringRead,
			Create: auth.PermTailoringWrite,
			Status: auth.PermTailoringWrite,
		})
	}
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *Services) {
	reportHandler := handlers.NewReportsHandler(base, s.Reports)
	rg.GET("/reports/dashboard", middleware.RequirePermission(auth.PermReportsRead), reportHandler.Dashboard)
}

// registerAdminRoutes registers counter administration and audit endpoints.
func registerAdminRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	admin := rg.Group("/admin")
	handler := handlers.NewAdminHandler(base, cfg.Numerator, cfg.Backend.Audit)

	counters := admin.Group("/counters", middleware.RequirePermission(auth.PermCountersManage))
	counters.GET("/:series", handler.GetCounter)
	counters.POST("/:series/reset", handler.ResetCounter)

	admin.GET("/audit/:entityType/:id", middleware.RequireRole(string(auth.RoleAdmin), string(auth.RoleManager)), handler.AuditHistory)
}
