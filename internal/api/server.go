package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Routes
	setupRoutes(r, handler, apiAccessKey)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	// Stateless parsing endpoints
	r.POST("/parse", handler.Parse)
	r.POST("/detect", handler.Detect)

	// Article store endpoints (authenticated when API_ACCESS_KEY is set)
	feeds := r.Group("/feeds")
	if apiAccessKey != "" {
		feeds.Use(authMiddleware(apiAccessKey))
		slog.Info("Feed endpoints require an API key")
	}
	{
		feeds.POST("/ingest", handler.Ingest)
		feeds.GET("/articles", handler.Articles)
	}

	// Health and status endpoints
	r.GET("/health", handler.Health)
	r.GET("/stats", handler.Stats)

	// Service info
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "rsxml",
			"description": "Feed, OPML and HTML metadata parsing service",
			"endpoints": map[string]string{
				"parse":    "POST /parse?url=<url>&expect=feed|opml|html|links&format=json|rss",
				"detect":   "POST /detect?url=<url>",
				"ingest":   "POST /feeds/ingest?url=<url>",
				"articles": "GET /feeds/articles?url=<url>&limit=<n>&format=json|rss",
				"health":   "GET /health",
				"stats":    "GET /stats",
			},
			"api_status": map[string]interface{}{
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// authMiddleware accepts the key from X-API-Key or an Authorization bearer token
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error:   "API key required",
				Message: "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			return
		}

		if providedKey != apiAccessKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error:   "Invalid API key",
				Message: "The provided API key is not valid",
			})
			return
		}

		c.Next()
	}
}
