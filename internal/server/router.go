package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/petalframe/catalog-backend/internal/handlers"
	"github.com/petalframe/catalog-backend/internal/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterConfig struct {
	ServiceName     string
	AllowedOrigins  []string
	CategoryHandler *handlers.CategoryHandler
	ProductHandler  *handlers.ProductHandler
	ResolveHandler  *handlers.ResolveHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	router.Use(middleware.RequestID())
	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}

	router.GET("/healthcheck", handlers.HealthCheck)

	// Public read surface
	router.GET("/resolve/:kind/:slug", cfg.ResolveHandler.Resolve)
	router.GET("/categories/tree", cfg.CategoryHandler.Tree)
	router.GET("/categories/:id", cfg.CategoryHandler.Get)
	router.GET("/categories/:id/products", cfg.ProductHandler.ListByCategory)
	router.GET("/products/:id", cfg.ProductHandler.Get)

	// Catalog administration
	router.POST("/categories", cfg.CategoryHandler.Create)
	router.PATCH("/categories/:id", cfg.CategoryHandler.Update)
	router.POST("/categories/:id/archive", cfg.CategoryHandler.Archive)
	router.POST("/categories/:id/restore", cfg.CategoryHandler.Restore)
	router.DELETE("/categories/:id", cfg.CategoryHandler.Delete)

	router.POST("/products", cfg.ProductHandler.Create)
	router.PATCH("/products/:id", cfg.ProductHandler.Update)
	router.POST("/products/:id/images", cfg.ProductHandler.UpdateImages)
	router.POST("/products/:id/archive", cfg.ProductHandler.Archive)
	router.POST("/products/:id/restore", cfg.ProductHandler.Restore)
	router.DELETE("/products/:id", cfg.ProductHandler.Delete)

	return router
}
