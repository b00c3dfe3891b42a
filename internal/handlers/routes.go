package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the engine with CORS for the browser frontend and all
// routes registered.
func NewRouter(deps *Dependencies, allowOrigins []string) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery(), requestLogger(deps))

	if len(allowOrigins) > 0 {
		config := cors.DefaultConfig()
		config.AllowOrigins = allowOrigins
		config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
		config.ExposeHeaders = []string{"Content-Length"}
		router.Use(cors.New(config))
	}

	RegisterRoutes(router, deps)
	return router
}

func RegisterRoutes(router *gin.Engine, deps *Dependencies) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": StatusOK, "sessions": deps.Sessions.Len()})
	})

	api := router.Group("/api")

	sessions := api.Group("/sessions")
	sessions.POST("", CreateSession(deps))
	sessions.GET("/:id", GetSession(deps))
	sessions.DELETE("/:id", DeleteSession(deps))
	sessions.PUT("/:id/query", SetQuery(deps))
	sessions.POST("/:id/search", Search(deps))
	sessions.POST("/:id/more", LoadMore(deps))
	sessions.POST("/:id/select", SelectSuggestion(deps))
	sessions.POST("/:id/reset", ResetSearch(deps))
	sessions.POST("/:id/trending", RefreshTrending(deps))
	sessions.GET("/:id/anime/:animeId", NavigateToDetail(deps))

	if deps.Media != nil {
		api.GET("/media", ListMedia(deps))
	}

	if deps.Bot != nil {
		router.POST("/webhook", Webhook(deps))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Status:  StatusError,
			Message: "route not found",
		})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, ErrorResponse{
			Status:  StatusError,
			Message: "method not allowed",
		})
	})
}

func requestLogger(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		deps.Logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("Handled request")
	}
}
