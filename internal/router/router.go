package router

import (
	"net/http"
	"time"

	"storefront/config"
	"storefront/internal/catalog"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// VerifyPaths are the routes the verify handler answers on. The second keeps the
// path the storefront used when this ran as a serverless function.
var VerifyPaths = []string{"/verify", "/api/verify-paystack"}

func Setup(cfg *config.Config, svc *service.VerificationService, cat *catalog.Catalog, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recovery(log))
	r.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	r.Use(cors.New(corsConfig(cfg.CORS)))
	if cfg.RateLimit.Requests > 0 {
		r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)))
	}

	verifyHandler := handler.NewVerifyHandler(svc)
	catalogHandler := handler.NewCatalogHandler(cat)

	r.GET("/health", handler.Health)
	r.GET("/catalog", catalogHandler.List)
	for _, p := range VerifyPaths {
		r.POST(p, verifyHandler.Verify)
		r.OPTIONS(p, verifyHandler.Preflight)
	}
	r.NoMethod(handler.MethodNotAllowed(r.Routes()))

	return r
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:              []string{http.MethodPost, http.MethodOptions, http.MethodGet},
		AllowHeaders:              []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:             []string{middleware.RequestIDHeader},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowOrigins
	return c
}
