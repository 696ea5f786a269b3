// Package api assembles the HTTP surface.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/marcellin56/Central-de-ferramentas/internal/api/handlers"
	"github.com/marcellin56/Central-de-ferramentas/internal/api/middleware"
	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
	"github.com/marcellin56/Central-de-ferramentas/internal/crypto"
	"github.com/marcellin56/Central-de-ferramentas/internal/store"
	"github.com/marcellin56/Central-de-ferramentas/internal/viewer"
	"github.com/marcellin56/Central-de-ferramentas/internal/websocket"
)

// Deps is everything the router needs.
type Deps struct {
	JWT            *crypto.JWTManager
	Catalog        *catalog.Catalog
	Prefs          *store.Prefs
	Manager        *viewer.Manager
	Hub            *websocket.Hub
	AllowedOrigins []string
	LoginDelay     time.Duration
	// Sandbox defaults to viewer.DefaultSandbox.
	Sandbox viewer.SandboxPolicy
}

// NewRouter wires every route onto a fresh engine.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(middleware.LoggingMiddleware())

	// Root endpoint - plain text so clients can validate the server URL.
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to NexusHub!")
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	library := handlers.NewLibrary(d.Catalog, d.Prefs)
	authHandler := handlers.NewAuthHandler(d.JWT, d.LoginDelay)
	userHandler := handlers.NewUserHandler(d.Prefs)
	toolHandler := handlers.NewToolHandler(library, d.Catalog, d.Prefs)
	viewerHandler := handlers.NewViewerHandler(d.Manager, library, d.Sandbox)
	wsHandler := websocket.NewHandler(d.Hub, d.Manager, d.Sandbox, originChecker(origins))

	v1 := router.Group("/v1")
	{
		v1.POST("/auth/login", authHandler.Login)
	}

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(d.JWT))
	{
		protected.GET("/user", userHandler.GetProfile)
		protected.POST("/user/theme", userHandler.SetTheme)

		protected.GET("/categories", toolHandler.ListCategories)
		protected.GET("/tools", toolHandler.ListTools)
		protected.POST("/tools", toolHandler.AddTool)
		protected.GET("/tools/:id", toolHandler.GetTool)
		protected.POST("/tools/:id/favorite", toolHandler.ToggleFavorite)

		protected.GET("/viewer/:ctx", viewerHandler.GetViewer)
		protected.POST("/viewer/:ctx/open", viewerHandler.Open)
		protected.POST("/viewer/:ctx/reload", viewerHandler.Reload)
		protected.POST("/viewer/:ctx/close", viewerHandler.Close)
		protected.GET("/viewer/:ctx/ws", wsHandler.ServeWS)
	}

	return router
}

// originChecker applies the CORS allow-list to websocket handshakes.
func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}
