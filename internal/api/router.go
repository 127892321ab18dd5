package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/Preko700/GreenView-sub000/config"
	"github.com/Preko700/GreenView-sub000/internal/ingest"
	"github.com/Preko700/GreenView-sub000/internal/mw"
	"github.com/Preko700/GreenView-sub000/internal/session"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, ing *ingest.Service, sessions *session.Manager, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, ing, sessions, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Device registry
		api.POST("/devices", handler.RegisterDevice)
		api.GET("/devices/:hardware_id", caching, handler.GetDeviceByHardwareID)
		api.GET("/devices/:hardware_id/readings", caching, handler.GetReadings)

		// Configuration
		api.GET("/configurations/:serial", handler.GetConfiguration)
		api.PUT("/configurations/:serial", handler.PutConfiguration)

		// Ingestion and the device-side reconciliation poll
		api.POST("/ingest", handler.PostIngest)
		api.GET("/poll/:hardware_id/actuators", handler.PollActuators)

		// Actuator control (push side of desired state)
		api.POST("/actuators/:serial/:actuator", handler.SetActuator)

		// Session control
		api.POST("/resync/:hardware_id", handler.PostResync)

		// Notifications
		api.GET("/notifications", handler.GetNotifications)
		api.POST("/notifications/:id/read", handler.MarkNotificationRead)

		// Web push subscriptions
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
