package router

import (
	"time"

	"petzap/internal/config"
	"petzap/internal/handler"
	"petzap/internal/infra"
	"petzap/internal/middleware"
	"petzap/internal/repository"
	"petzap/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// A nil rdb keeps carts in memory and disables the barcode cache; a nil
// notifier drops automation events.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, breakers *infra.WebhookBreakers, notifier service.Notifier) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	// ── Repositories ─────────────────────────────────────────────────────────
	catalogRepo := repository.NewCatalogRepository(db)
	productRepo := repository.NewProductRepository(db)
	schedulingRepo := repository.NewSchedulingRepository(db)
	cashRepo := repository.NewCashRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	var carts repository.CartStore
	if rdb != nil {
		carts = repository.NewRedisCartStore(rdb, cfg.CartTTL)
	} else {
		carts = repository.NewMemoryCartStore()
	}

	// ── Services ─────────────────────────────────────────────────────────────
	resolver := service.NewPendingServiceResolver(catalogRepo, schedulingRepo, cfg.Features, cfg.Pricing)
	inventorySvc := service.NewInventoryService(productRepo)
	catalogSvc := service.NewCatalogService(catalogRepo, productRepo, schedulingRepo, notifier)
	cartSvc := service.NewCartService(carts, productRepo, catalogRepo, resolver, cfg.Features)
	cashSvc := service.NewCashService(cashRepo, notifier, service.CashOptions{
		StoreName:      cfg.StoreName,
		ReportEmail:    cfg.ReportEmail,
		PDFStoragePath: cfg.PDFStoragePath,
	})
	saleSvc := service.NewSaleService(service.SaleDeps{
		Sales:      saleRepo,
		Cash:       cashRepo,
		Catalog:    catalogRepo,
		Scheduling: schedulingRepo,
		Carts:      carts,
		Inventory:  inventorySvc,
		Notifier:   notifier,
		Features:   cfg.Features,
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	clientsH := handler.NewClientsHandler(catalogSvc, saleSvc)
	productsH := handler.NewProductsHandler(catalogSvc, inventorySvc, rdb)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	cartsH := handler.NewCartsHandler(cartSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	cashH := handler.NewCashHandler(cashSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, breakers))

	// Tokens come from the hosted backend; every /v1 route requires one.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		clients := v1.Group("/clientes")
		{
			clients.GET("", clientsH.Search)
			clients.GET("/inativos", clientsH.Inactive)
			clients.POST("/inativos/campanha", clientsH.Campaign)
			clients.GET("/:id/pets", clientsH.Pets)
			clients.GET("/:id/vendas", clientsH.Sales)
		}

		products := v1.Group("/produtos")
		{
			products.GET("", productsH.List)
			products.GET("/estoque-baixo", productsH.LowStock)
			products.GET("/barcode/:barcode", productsH.ByBarcode)
			products.GET("/:id/movimentos", productsH.Movements)
		}

		v1.GET("/funcionarios", catalogH.Employees)
		v1.GET("/pets/:id/plano", catalogH.PetPlan)
		v1.PATCH("/agendamentos/:id/pronto", catalogH.MarkReady)

		carrinhos := v1.Group("/carrinhos")
		{
			carrinhos.POST("", cartsH.Create)
			carrinhos.GET("/:id", cartsH.Get)
			carrinhos.DELETE("/:id", cartsH.Discard)
			carrinhos.PUT("/:id/cliente", cartsH.SelectClient)
			carrinhos.PUT("/:id/funcionario", cartsH.SetEmployee)
			carrinhos.POST("/:id/produtos", cartsH.AddProduct)
			carrinhos.POST("/:id/extras", cartsH.AddExtra)
			carrinhos.PATCH("/:id/itens/:item_id/quantidade", cartsH.UpdateQuantity)
			carrinhos.PATCH("/:id/itens/:item_id/desconto", cartsH.ApplyDiscount)
			carrinhos.DELETE("/:id/itens/:item_id", cartsH.RemoveItem)
		}

		v1.POST("/vendas", salesH.Finalize)
		v1.GET("/vendas/:id", salesH.Get)

		caixa := v1.Group("/caixa")
		{
			caixa.POST("/abrir", cashH.Open)
			caixa.GET("/atual", cashH.Current)
			caixa.POST("/movimentos", cashH.Movement)
			caixa.POST("/fechar", cashH.Close)
			caixa.GET("/historico", cashH.History)
			caixa.GET("/:id/relatorio", cashH.Report)
			caixa.GET("/:id/relatorio.pdf", cashH.ReportPDF)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
