package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/linkhub/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

// InitRoutes builds the router. mediaDir is served under /media when the
// local uploader is in use; pass "" to disable it.
func InitRoutes(timeout time.Duration, mediaDir string, handlers ...Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(timeout))

	api := router.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	if mediaDir != "" {
		router.Static("/media", mediaDir)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "linkhub",
		})
	})
	return router
}
