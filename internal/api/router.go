// Package api exposes one device's session, cart and favorites over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/menu", h.GetMenu())
	r.GET("/items/:id/customization", h.GetCustomization())

	r.POST("/session", h.SignIn())
	r.DELETE("/session", h.SignOut())

	r.GET("/cart/lines", h.GetCart())
	r.POST("/cart/lines", h.AddLine())
	r.PUT("/cart/lines/:index", h.UpdateLine())
	r.DELETE("/cart/lines/:index", h.RemoveLine())
	r.DELETE("/cart", h.ClearCart())

	r.GET("/favorites", h.GetFavorites())
	r.PUT("/favorites", h.SaveFavorite())
	r.DELETE("/favorites/:id", h.RemoveFavorite())

	r.POST("/checkout", h.Checkout())
	r.GET("/orders", h.GetOrders())
	r.GET("/orders/:id", h.GetOrder())

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
