package router

import (
	"time"

	"cajas/internal/config"
	"cajas/internal/handler"
	"cajas/internal/infra"
	"cajas/internal/middleware"
	"cajas/internal/repository"
	"cajas/internal/service"
	"cajas/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, webhookCB *infra.CircuitBreaker) *gin.Engine {
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
	usuarioRepo := repository.NewUsuarioRepository(db)
	sucursalRepo := repository.NewSucursalRepository(db)
	corteRepo := repository.NewCorteRepository(db)
	movimientoRepo := repository.NewMovimientoRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	sucursalSvc := service.NewSucursalService(sucursalRepo)
	movimientoSvc := service.NewMovimientoService(movimientoRepo, corteRepo)
	corteSvc := service.NewCorteService(corteRepo, dispatcher, cfg.ToleranciaCorteDecimal())
	cajaChicaSvc := service.NewCajaChicaService(corteRepo, movimientoSvc, dispatcher, cfg.ToleranciaCajaChicaDecimal())
	cajaGeneralSvc := service.NewCajaGeneralService(corteRepo, usuarioRepo, movimientoRepo, dispatcher, cfg.ToleranciaCajaGeneralDecimal())

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	sucursalesH := handler.NewSucursalesHandler(sucursalSvc)
	cortesH := handler.NewCorteHandler(corteSvc, cfg.PDFStoragePath)
	cajaChicaH := handler.NewCajaChicaHandler(cajaChicaSvc)
	cajaGeneralH := handler.NewCajaGeneralHandler(cajaGeneralSvc)
	movimientosH := handler.NewMovimientosHandler(movimientoSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, webhookCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cajero, supervisor, administrador — declared per-endpoint
		cortes := v1.Group("/cortes")
		{
			cortes.POST("/abrir", middleware.RequireRole("cajero", "supervisor", "administrador"), cortesH.Abrir)
			cortes.GET("/activo", middleware.RequireRole("cajero", "supervisor", "administrador"), cortesH.Activo)
			cortes.GET("", middleware.RequireRole("supervisor", "administrador"), cortesH.Historial)
			cortes.GET("/:id", middleware.RequireRole("cajero", "supervisor", "administrador"), cortesH.Reporte)
			cortes.GET("/:id/precuadre", middleware.RequireRole("cajero", "supervisor", "administrador"), cortesH.Precuadre)
			cortes.GET("/:id/reporte/pdf", middleware.RequireRole("cajero", "supervisor", "administrador"), cortesH.ReportePDF)
			cortes.POST("/:id/cerrar", middleware.RequireRole("cajero", "supervisor", "administrador"), cortesH.Cerrar)
			cortes.POST("/:id/cancelar", middleware.RequireRole("supervisor", "administrador"), cortesH.Cancelar)
		}

		movimientos := v1.Group("/movimientos")
		{
			movimientos.POST("", middleware.RequireRole("cajero", "supervisor", "administrador"), movimientosH.Registrar)
			movimientos.GET("", middleware.RequireRole("cajero", "supervisor", "administrador"), movimientosH.Listar)
			movimientos.POST("/:id/validar", middleware.RequireRole("supervisor", "administrador"), movimientosH.Validar)
			movimientos.POST("/:id/rechazar", middleware.RequireRole("supervisor", "administrador"), movimientosH.Rechazar)
		}

		cajaChica := v1.Group("/caja-chica", middleware.RequireRole("supervisor", "administrador"))
		{
			cajaChica.POST("/abrir", cajaChicaH.Abrir)
			cajaChica.GET("/activa", cajaChicaH.Activa)
			cajaChica.GET("/historial", cajaChicaH.Historial)
			cajaChica.POST("/gastos", cajaChicaH.RegistrarGasto)
			cajaChica.POST("/reposiciones", cajaChicaH.RegistrarReposicion)
			cajaChica.POST("/:id/cerrar", cajaChicaH.Cerrar)
			cajaChica.POST("/:id/cancelar", cajaChicaH.Cancelar)
		}

		cajaGeneral := v1.Group("/caja-general", middleware.RequireRole("supervisor", "administrador"))
		{
			cajaGeneral.POST("/abrir", cajaGeneralH.Abrir)
			cajaGeneral.GET("/activa", cajaGeneralH.Activa)
			cajaGeneral.GET("/historial", cajaGeneralH.Historial)
			cajaGeneral.GET("/:id/precuadre", cajaGeneralH.Precuadre)
			cajaGeneral.POST("/:id/cerrar", cajaGeneralH.Cerrar)
			cajaGeneral.POST("/:id/cancelar", middleware.RequireRole("administrador"), cajaGeneralH.Cancelar)
		}

		sucursales := v1.Group("/sucursales", middleware.RequireRole("administrador"))
		{
			sucursales.POST("", sucursalesH.Crear)
			sucursales.GET("", sucursalesH.Listar)
			sucursales.PUT("/:id", sucursalesH.Actualizar)
			sucursales.DELETE("/:id", sucursalesH.Desactivar)
		}

		usuarios := v1.Group("/usuarios", middleware.RequireRole("administrador"))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
