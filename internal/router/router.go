package router

import (
	"fmt"
	"time"

	"jourdash/internal/config"
	"jourdash/internal/handler"
	"jourdash/internal/infra"
	"jourdash/internal/middleware"
	"jourdash/internal/repository"
	"jourdash/internal/service"
	"jourdash/internal/sku"
	"jourdash/internal/unitgen"
	"jourdash/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, store infra.ReportStore, mailCB *infra.CircuitBreaker) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.IsProduction(), cfg.CORSAllowedOrigins))
	// PDFs and workbooks are already compressed
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`/report/pdf$`, `/export$`})))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	sequencer := infra.NewRedisSequencer(rdb)
	locker := infra.NewRedisLocker(rdb, cfg.ReceiptLockTTL)
	cache := infra.NewRedisUnitCache(rdb, cfg.ScanCacheTTL)
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	receiptRepo := repository.NewReceiptRepository(db)
	lineRepo := repository.NewLineRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	reportRepo := repository.NewReportRepository(db)
	registryRepo := repository.NewRegistryRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	skuGen := sku.NewGenerator(sku.Policy(cfg.SKUUnknownPolicy))
	unitGen, err := unitgen.New(sequencer, unitRepo, cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	receiptSvc := service.NewGoodsReceiptService(service.GoodsReceiptDeps{
		Receipts:  receiptRepo,
		Lines:     lineRepo,
		Units:     unitRepo,
		Activity:  activityRepo,
		Suppliers: supplierRepo,
		Reports:   reportRepo,
		SKU:       skuGen,
		UnitGen:   unitGen,
		Sequencer: sequencer,
		Locker:    locker,
		Queue:     dispatcher,
		Cache:     cache,
	})
	unitSvc := service.NewUnitService(receiptRepo, unitRepo, activityRepo, locker, cache)
	registrySvc := service.NewRegistryService(registryRepo, supplierRepo, activityRepo, skuGen)
	reportSvc := service.NewReportService(reportRepo, receiptRepo, lineRepo, unitRepo, store)

	// ── Handlers ─────────────────────────────────────────────────────────────
	receiptsH := handler.NewReceiptsHandler(receiptSvc)
	unitsH := handler.NewUnitsHandler(unitSvc)
	registryH := handler.NewRegistryHandler(registrySvc)
	reportsH := handler.NewReportsHandler(reportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailCB))

	anyRole := middleware.RequireRole(middleware.RoleClerk, middleware.RoleSupervisor, middleware.RoleAdmin)
	supervisor := middleware.RequireRole(middleware.RoleSupervisor, middleware.RoleAdmin)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		gr := v1.Group("/gr", anyRole)
		{
			gr.POST("", receiptsH.Create)
			gr.GET("", receiptsH.List)
			gr.GET("/:id", receiptsH.Get)
			gr.PUT("/:id", receiptsH.UpdateHeader)

			gr.GET("/:id/lines", receiptsH.ListLines)
			gr.POST("/:id/lines", receiptsH.AddLine)
			gr.PUT("/:id/lines/:lineId/counted-qty", receiptsH.UpdateCounted)
			gr.DELETE("/:id/lines/:lineId", receiptsH.DeleteLine)
			gr.POST("/:id/lines/:lineId/generate-units", receiptsH.GenerateUnits)
			gr.GET("/:id/units", receiptsH.ListUnits)

			gr.POST("/:id/enter-counting", receiptsH.EnterCounting)
			// Reconciliation locks the receipt: supervisor or admin
			gr.POST("/:id/reconcile", supervisor, receiptsH.Reconcile)
			gr.GET("/:id/summary", receiptsH.Summary)
			gr.GET("/:id/activity", receiptsH.Activity)

			gr.GET("/:id/report", reportsH.Get)
			gr.GET("/:id/report/pdf", reportsH.DownloadPDF)
			gr.GET("/:id/export", reportsH.Export)
		}

		units := v1.Group("/units", anyRole)
		{
			units.GET("/barcode/:barcode", unitsH.Scan)
			units.POST("/barcode/:barcode/qc", unitsH.RecordQC)
			units.POST("/barcode/:barcode/putaway", unitsH.Putaway)
			units.POST("/barcode/:barcode/store", unitsH.Store)
			units.GET("/:id", unitsH.Get)
			units.GET("/:id/history", unitsH.History)
			units.DELETE("/:id", receiptsH.DeleteUnit)
		}

		reg := v1.Group("/registry", anyRole)
		{
			reg.GET("/models", registryH.ListModels)
			reg.POST("/models", supervisor, registryH.CreateModel)
			reg.GET("/colors", registryH.ListColors)
			reg.POST("/colors", supervisor, registryH.CreateColor)
			reg.GET("/attributes", registryH.AttributeValues)
		}

		v1.GET("/suppliers", anyRole, registryH.ListSuppliers)
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, nil
}
